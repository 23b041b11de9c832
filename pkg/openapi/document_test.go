package openapi

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-apismoke/pkg/schema"
)

func TestNewOperationValidates(t *testing.T) {
	cases := []struct {
		name             string
		id, method, path string
	}{
		{name: "id", method: "get", path: "/x"},
		{name: "method", id: "x", path: "/x"},
		{name: "path", id: "x", method: "get"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewOperation(tc.id, tc.method, tc.path, nil); err == nil {
				t.Fatalf("expected error for missing %s", tc.name)
			}
		})
	}

	op, err := NewOperation("x", "patch", "/x", nil)
	if err != nil {
		t.Fatalf("new operation: %v", err)
	}
	if op.Method != "PATCH" || op.Responses == nil {
		t.Fatalf("unexpected operation: %+v", op)
	}
}

func TestResponseSchemaFallsBack(t *testing.T) {
	exact := schema.Schema{Description: "exact"}
	rangeSchema := schema.Schema{Description: "range"}
	fallback := schema.Schema{Description: "default"}

	op, err := NewOperation("x", "get", "/x", map[string]schema.Schema{
		"200":     exact,
		"4XX":     rangeSchema,
		"default": fallback,
	})
	if err != nil {
		t.Fatalf("new operation: %v", err)
	}

	cases := []struct {
		status int
		want   string
	}{
		{status: 200, want: "exact"},
		{status: 404, want: "range"},
		{status: 500, want: "default"},
	}
	for _, tc := range cases {
		got, err := ResponseSchema(op, tc.status, false)
		if err != nil {
			t.Fatalf("status %d: %v", tc.status, err)
		}
		if got.Description != tc.want {
			t.Fatalf("status %d: expected %q, got %q", tc.status, tc.want, got.Description)
		}
	}

	if diff := cmp.Diff([]string{"200", "4XX", "default"}, op.StatusCodes()); diff != "" {
		t.Fatalf("status codes mismatch (-want +got):\n%s", diff)
	}
}

func TestResponseSchemaUndocumented(t *testing.T) {
	op, err := NewOperation("x", "delete", "/x", nil)
	if err != nil {
		t.Fatalf("new operation: %v", err)
	}
	_, err = ResponseSchema(op, 204, true)
	if !errors.Is(err, ErrNoResponse) {
		t.Fatalf("expected ErrNoResponse, got %v", err)
	}
}

func TestResponseSchemaStrict(t *testing.T) {
	op, err := NewOperation("x", "get", "/x", map[string]schema.Schema{
		"200": {
			Type: schema.TypeSet{schema.TypeArray},
			Items: &schema.Schema{
				Type: schema.TypeSet{schema.TypeObject},
				Properties: map[string]schema.Schema{
					"id":   {Type: schema.TypeSet{schema.TypeInteger}},
					"name": {Type: schema.TypeSet{schema.TypeString}},
				},
			},
		},
	})
	if err != nil {
		t.Fatalf("new operation: %v", err)
	}

	loose, err := ResponseSchema(op, 200, false)
	if err != nil {
		t.Fatalf("loose: %v", err)
	}
	if loose.MinItems != nil || loose.Items.Required != nil {
		t.Fatalf("loose schema was tightened: %+v", loose)
	}

	strict, err := ResponseSchema(op, 200, true)
	if err != nil {
		t.Fatalf("strict: %v", err)
	}
	if strict.MinItems == nil || *strict.MinItems != 1 {
		t.Fatalf("expected minItems 1, got %v", strict.MinItems)
	}
	if diff := cmp.Diff([]string{"id", "name"}, strict.Items.Required); diff != "" {
		t.Fatalf("required mismatch (-want +got):\n%s", diff)
	}
	if strict.Items.AdditionalProperties == nil || *strict.Items.AdditionalProperties {
		t.Fatalf("expected additionalProperties false")
	}
	if op.Responses["200"].Items.Required != nil {
		t.Fatalf("strict schema mutated the operation")
	}
}
