// Package apismoke builds strict JSON schemas from compact field
// declarations and checks API responses against them.
//
// The building blocks live in subpackages: pkg/schema declares fields and
// derives schemas, pkg/validation applies them, pkg/apitest drives an API
// from Go tests and pkg/openapi reads response schemas from OpenAPI
// documents. This package wires the default loader and parser behind small
// helpers.
package apismoke

import (
	"context"
	"fmt"

	internalLoader "github.com/goliatone/go-apismoke/internal/loader"
	internalParser "github.com/goliatone/go-apismoke/internal/openapi/parser"
	"github.com/goliatone/go-apismoke/pkg/openapi"
	"github.com/goliatone/go-apismoke/pkg/schema"
)

type (
	Compact = schema.Compact
	Field   = schema.Field
	Schema  = schema.Schema
)

// NewLoader constructs a loader using the internal implementation while
// keeping the concrete type hidden from consumers.
func NewLoader(options ...schema.LoaderOption) schema.Loader {
	return internalLoader.New(schema.NewLoaderOptions(options...))
}

// NewParser constructs an OpenAPI parser backed by kin-openapi.
func NewParser(options ...openapi.ParserOption) openapi.Parser {
	return internalParser.New(openapi.NewParserOptions(options...))
}

// LoadCompact loads and parses a compact schema document.
func LoadCompact(ctx context.Context, src schema.Source, options ...schema.LoaderOption) (schema.Compact, error) {
	doc, err := NewLoader(options...).Load(ctx, src)
	if err != nil {
		return nil, err
	}
	return doc.Compact()
}

// LoadObjectSchema loads a compact schema and derives its strict object
// schema.
func LoadObjectSchema(ctx context.Context, src schema.Source, options ...schema.LoaderOption) (schema.Schema, error) {
	compact, err := LoadCompact(ctx, src, options...)
	if err != nil {
		return schema.Schema{}, err
	}
	return schema.ObjectSchema(compact), nil
}

// LoadContracts loads an OpenAPI document with the default parser.
func LoadContracts(ctx context.Context, src schema.Source, options ...schema.LoaderOption) (openapi.Contracts, error) {
	contracts, err := openapi.LoadContracts(ctx, NewLoader(options...), NewParser(), src)
	if err != nil {
		return openapi.Contracts{}, fmt.Errorf("apismoke: %w", err)
	}
	return contracts, nil
}
