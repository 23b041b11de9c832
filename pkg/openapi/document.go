package openapi

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/goliatone/go-apismoke/pkg/schema"
)

type (
	Source   = schema.Source
	Document = schema.Document
	Loader   = schema.Loader
)

// ErrNoResponse is returned when an operation documents no schema for a
// status code.
var ErrNoResponse = errors.New("openapi: response not documented")

// Operation is a documented endpoint and its JSON response schemas keyed by
// status code ("200", "2XX", "default").
type Operation struct {
	ID          string                   `json:"id"`
	Method      string                   `json:"method"`
	Path        string                   `json:"path"`
	Summary     string                   `json:"summary,omitempty"`
	Description string                   `json:"description,omitempty"`
	Responses   map[string]schema.Schema `json:"responses,omitempty"`
}

// NewOperation validates the identifying fields.
func NewOperation(id, method, path string, responses map[string]schema.Schema) (Operation, error) {
	if id == "" {
		return Operation{}, errors.New("openapi: operation id is required")
	}
	if method == "" {
		return Operation{}, errors.New("openapi: operation method is required")
	}
	if path == "" {
		return Operation{}, errors.New("openapi: operation path is required")
	}
	if responses == nil {
		responses = make(map[string]schema.Schema)
	}
	return Operation{
		ID:        id,
		Method:    strings.ToUpper(method),
		Path:      path,
		Responses: responses,
	}, nil
}

// HasResponse reports whether a schema is registered for code.
func (op Operation) HasResponse(code string) bool {
	_, ok := op.Responses[code]
	return ok
}

// StatusCodes lists the documented codes in sorted order.
func (op Operation) StatusCodes() []string {
	codes := make([]string, 0, len(op.Responses))
	for code := range op.Responses {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// ResponseSchema returns the schema documented for status, falling back to
// the status range ("2XX") and then "default". When strict is set the schema
// is tightened with schema.Strict.
func ResponseSchema(op Operation, status int, strict bool) (schema.Schema, error) {
	code := strconv.Itoa(status)
	candidates := []string{code, code[:1] + "XX", "default"}
	for _, candidate := range candidates {
		s, ok := op.Responses[candidate]
		if !ok {
			continue
		}
		if strict {
			return schema.Strict(s), nil
		}
		return s.Clone(), nil
	}
	return schema.Schema{}, fmt.Errorf("%w: %s %s %d (%s)", ErrNoResponse, op.Method, op.Path, status, http.StatusText(status))
}
