// Package apitest drives an HTTP API from Go tests and checks every
// response against strict schemas built with package schema.
//
// A Suite describes one resource: where its list, detail and action
// endpoints live, the compact schema of its objects and whether list
// responses are paginated. The canned TestListFormat and TestDetailFormat
// checks cover the read-only surface; Checklist enumerates the remaining
// CRUDL checks so unimplemented ones show up as skipped tests.
//
//	suite := &apitest.Suite{
//		Requester:  apitest.HandlerRequester{Handler: router},
//		Routes:     apitest.Routes{Prefix: "/api", Basename: "tasks"},
//		Schema:     taskFields,
//		Pagination: schema.Pagination(),
//		DetailID:   1,
//	}
//	apitest.RunReadOnly(t, suite)
package apitest
