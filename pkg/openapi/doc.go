// Package openapi exposes response contracts declared in OpenAPI 3
// documents as strict schemas.
//
// Documents are loaded through schema.Loader (files, fs.FS or HTTP) and
// parsed by the kin-openapi backed parser returned from apismoke.NewParser.
// Each operation carries one schema per documented status code;
// ResponseSchema optionally tightens it with schema.Strict so that responses
// must match the contract exactly.
package openapi
