package openapi_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-apismoke/internal/loader"
	"github.com/goliatone/go-apismoke/internal/openapi/parser"
	"github.com/goliatone/go-apismoke/internal/testapp"
	"github.com/goliatone/go-apismoke/pkg/openapi"
	"github.com/goliatone/go-apismoke/pkg/schema"
	"github.com/goliatone/go-apismoke/pkg/validation"
)

func loadContracts(t *testing.T) openapi.Contracts {
	t.Helper()

	contracts, err := openapi.LoadContracts(
		context.Background(),
		loader.New(schema.NewLoaderOptions()),
		parser.New(openapi.NewParserOptions()),
		schema.SourceFromFile("testdata/testapp.yaml"),
	)
	if err != nil {
		t.Fatalf("load contracts: %v", err)
	}
	return contracts
}

func TestLoadContractsIndexesOperations(t *testing.T) {
	contracts := loadContracts(t)

	want := []string{
		"createTask",
		"delete:/api/tasks/{pk}/",
		"listProjects",
		"listTasks",
		"retrieveProject",
		"retrieveTask",
	}
	if diff := cmp.Diff(want, contracts.IDs()); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}

	op, ok := contracts.Find("post", "/api/tasks/")
	if !ok || op.ID != "createTask" {
		t.Fatalf("expected createTask, got %+v (found %v)", op, ok)
	}
	if _, ok := contracts.Find(http.MethodPut, "/api/tasks/{pk}/"); ok {
		t.Fatalf("expected PUT to be undocumented")
	}
}

func TestLoadContractsErrors(t *testing.T) {
	ctx := context.Background()
	p := parser.New(openapi.NewParserOptions())

	if _, err := openapi.LoadContracts(ctx, nil, p, schema.SourceFromFile("x")); err == nil {
		t.Fatalf("expected nil loader error")
	}
	l := loader.New(schema.NewLoaderOptions())
	if _, err := openapi.LoadContracts(ctx, l, nil, schema.SourceFromFile("x")); err == nil {
		t.Fatalf("expected nil parser error")
	}
	if _, err := openapi.LoadContracts(ctx, l, p, schema.SourceFromFile("testdata/missing.yaml")); err == nil {
		t.Fatalf("expected missing file error")
	}
	if _, err := loadContracts(t).ResponseSchema("nope", 200, true); err == nil {
		t.Fatalf("expected unknown operation error")
	}
}

func TestResponseSchemaFallbacks(t *testing.T) {
	contracts := loadContracts(t)

	notFound, err := contracts.ResponseSchema("retrieveTask", http.StatusNotFound, true)
	if err != nil {
		t.Fatalf("retrieveTask 404: %v", err)
	}
	if diff := cmp.Diff([]string{"detail"}, notFound.Required); diff != "" {
		t.Fatalf("required mismatch (-want +got):\n%s", diff)
	}

	unauthorized, err := contracts.ResponseSchema("createTask", http.StatusUnauthorized, true)
	if err != nil {
		t.Fatalf("createTask 401: %v", err)
	}
	if unauthorized.Description != "Error detail" {
		t.Fatalf("expected range response, got %q", unauthorized.Description)
	}

	_, err = contracts.ResponseSchema("delete:/api/tasks/{pk}/", http.StatusNoContent, true)
	if !errors.Is(err, openapi.ErrNoResponse) {
		t.Fatalf("expected ErrNoResponse, got %v", err)
	}
}

// TestSampleAPIHonoursContracts checks live responses of the sample API
// against the strict form of its OpenAPI description.
func TestSampleAPIHonoursContracts(t *testing.T) {
	contracts := loadContracts(t)

	handler, db, err := testapp.NewDemo(context.Background(), zerolog.Nop())
	if err != nil {
		t.Fatalf("open demo: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	v := validation.New(validation.WithCache())
	cases := []struct {
		operation string
		method    string
		target    string
		status    int
	}{
		{operation: "listProjects", method: http.MethodGet, target: "/api/projects/", status: http.StatusOK},
		{operation: "retrieveProject", method: http.MethodGet, target: "/api/projects/1/", status: http.StatusOK},
		{operation: "retrieveProject", method: http.MethodGet, target: "/api/projects/9/", status: http.StatusNotFound},
		{operation: "listTasks", method: http.MethodGet, target: "/api/tasks/?limit=2", status: http.StatusOK},
		{operation: "retrieveTask", method: http.MethodGet, target: "/api/tasks/3/", status: http.StatusOK},
		{operation: "createTask", method: http.MethodPost, target: "/api/tasks/", status: http.StatusUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.operation+" "+tc.target, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.target, nil))
			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, rec.Code, rec.Body.String())
			}

			s, err := contracts.ResponseSchema(tc.operation, rec.Code, true)
			if err != nil {
				t.Fatalf("response schema: %v", err)
			}
			if err := v.ValidateJSON(s, rec.Body.Bytes()); err != nil {
				t.Fatalf("%v", err)
			}
		})
	}
}

func TestStrictContractRejectsDrift(t *testing.T) {
	contracts := loadContracts(t)

	s, err := contracts.ResponseSchema("retrieveTask", http.StatusOK, true)
	if err != nil {
		t.Fatalf("response schema: %v", err)
	}
	payload := []byte(`{"id":1,"project":1,"name":"Build rocket","done":false,"due":null,"owner":null,"created":"2024-01-01T09:00:00Z","priority":3}`)

	result := validation.New().Check(s, payload)
	if result.Valid {
		t.Fatalf("expected drift to be reported")
	}
	if len(result.Issues) != 1 || result.Issues[0].Field != "priority" {
		t.Fatalf("unexpected issues: %+v", result.Issues)
	}
}
