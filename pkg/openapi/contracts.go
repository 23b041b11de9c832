package openapi

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-apismoke/pkg/schema"
)

// Contracts indexes parsed operations by id and by method plus path.
type Contracts struct {
	operations map[string]Operation
	routes     map[string]string
}

// NewContracts indexes operations.
func NewContracts(operations map[string]Operation) Contracts {
	c := Contracts{
		operations: make(map[string]Operation, len(operations)),
		routes:     make(map[string]string, len(operations)),
	}
	for id, op := range operations {
		if op.ID == "" {
			op.ID = id
		}
		c.operations[op.ID] = op
		c.routes[routeKey(op.Method, op.Path)] = op.ID
	}
	return c
}

// LoadContracts loads src with loader, parses it and indexes the result.
func LoadContracts(ctx context.Context, loader Loader, parser Parser, src Source) (Contracts, error) {
	if loader == nil {
		return Contracts{}, errors.New("openapi: loader is nil")
	}
	if parser == nil {
		return Contracts{}, errors.New("openapi: parser is nil")
	}
	doc, err := loader.Load(ctx, src)
	if err != nil {
		return Contracts{}, fmt.Errorf("openapi: load contracts: %w", err)
	}
	operations, err := parser.Operations(ctx, doc)
	if err != nil {
		return Contracts{}, err
	}
	return NewContracts(operations), nil
}

// IDs returns the operation ids in sorted order.
func (c Contracts) IDs() []string {
	ids := make([]string, 0, len(c.operations))
	for id := range c.operations {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Operation looks an operation up by id.
func (c Contracts) Operation(id string) (Operation, bool) {
	op, ok := c.operations[id]
	return op, ok
}

// Find looks an operation up by method and templated path
// ("/tasks/{id}/").
func (c Contracts) Find(method, path string) (Operation, bool) {
	id, ok := c.routes[routeKey(method, path)]
	if !ok {
		return Operation{}, false
	}
	return c.Operation(id)
}

// ResponseSchema resolves the response schema of operation id for status.
func (c Contracts) ResponseSchema(id string, status int, strict bool) (schema.Schema, error) {
	op, ok := c.Operation(id)
	if !ok {
		return schema.Schema{}, fmt.Errorf("openapi: unknown operation %q", id)
	}
	return ResponseSchema(op, status, strict)
}

func routeKey(method, path string) string {
	return strings.ToUpper(method) + " " + path
}
