package schema

import "strings"

// DefaultResultsKey is the envelope key holding the page items.
const DefaultResultsKey = "results"

// Pagination returns the compact schema of a limit/offset page envelope
// without its results key: next and previous links that are null at the
// edges, and a non-negative total count.
func Pagination() Compact {
	return Compact{
		"count":    Integer().Min(0),
		"next":     String().Nullable(),
		"previous": String().Nullable(),
	}
}

// PageSchema builds the strict envelope for one page. results is embedded
// under resultsKey (DefaultResultsKey when empty) next to the pagination
// fields.
func PageSchema(pagination Compact, resultsKey string, results Schema) Schema {
	key := strings.TrimSpace(resultsKey)
	if key == "" {
		key = DefaultResultsKey
	}
	return ObjectSchema(pagination.With(key, Raw(results)))
}
