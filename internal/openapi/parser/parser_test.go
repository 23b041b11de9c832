package parser

import (
	"context"
	"strings"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	pkgopenapi "github.com/goliatone/go-apismoke/pkg/openapi"
	"github.com/goliatone/go-apismoke/pkg/schema"
)

const widgetsDoc = `
openapi: 3.0.3
info:
  title: Widgets
  version: "1"
paths:
  /widgets/{id}:
    parameters:
      - name: id
        in: path
        required: true
        schema:
          type: integer
    get:
      operationId: getWidget
      summary: Fetch a widget
      responses:
        "200":
          description: Widget
          content:
            application/vnd.api+json:
              schema:
                $ref: "#/components/schemas/Widget"
    delete:
      responses:
        "204":
          description: Deleted
components:
  schemas:
    Widget:
      type: object
      required: [id]
      properties:
        id:
          type: integer
          minimum: 1
        color:
          type: string
          enum: [red, blue]
          nullable: true
        tags:
          type: array
          minItems: 2
          maxItems: 5
          items:
            type: string
            maxLength: 10
        attrs:
          type: object
          additionalProperties:
            type: string
        shape:
          oneOf:
            - type: string
            - type: integer
`

func document(t *testing.T, raw string) pkgopenapi.Document {
	t.Helper()

	doc, err := schema.NewDocument(schema.SourceFromFile("widgets.yaml"), []byte(raw))
	if err != nil {
		t.Fatalf("new document: %v", err)
	}
	return doc
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func TestOperationsConvertsResponses(t *testing.T) {
	p := New(pkgopenapi.NewParserOptions())

	ops, err := p.Operations(context.Background(), document(t, widgetsDoc))
	if err != nil {
		t.Fatalf("operations: %v", err)
	}

	ids := make([]string, 0, len(ops))
	for id := range ops {
		ids = append(ids, id)
	}
	if diff := cmp.Diff([]string{"delete:/widgets/{id}", "getWidget"}, ids, sortStrings); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}

	get := ops["getWidget"]
	if get.Method != "GET" || get.Path != "/widgets/{id}" || get.Summary != "Fetch a widget" {
		t.Fatalf("unexpected operation: %+v", get)
	}

	want := schema.Schema{
		Type:        schema.TypeSet{schema.TypeObject},
		Description: "Widget",
		Required:    []string{"id"},
		Properties: map[string]schema.Schema{
			"id": {Type: schema.TypeSet{schema.TypeInteger}, Minimum: floatPtr(1)},
			"color": {
				Type: schema.TypeSet{schema.TypeNull, schema.TypeString},
				Enum: []any{"red", "blue"},
			},
			"tags": {
				Type:     schema.TypeSet{schema.TypeArray},
				Items:    &schema.Schema{Type: schema.TypeSet{schema.TypeString}, MaxLength: intPtr(10)},
				MinItems: intPtr(2),
				MaxItems: intPtr(5),
			},
			"attrs": {
				Type: schema.TypeSet{schema.TypeObject},
				Extra: map[string]any{
					"additionalProperties": schema.Schema{Type: schema.TypeSet{schema.TypeString}},
				},
			},
			"shape": {
				Extra: map[string]any{"oneOf": []any{
					schema.Schema{Type: schema.TypeSet{schema.TypeString}},
					schema.Schema{Type: schema.TypeSet{schema.TypeInteger}},
				}},
			},
		},
	}
	if diff := cmp.Diff(want, get.Responses["200"]); diff != "" {
		t.Fatalf("response schema mismatch (-want +got):\n%s", diff)
	}

	if del := ops["delete:/widgets/{id}"]; len(del.Responses) != 0 {
		t.Fatalf("expected no response schemas for delete, got %v", del.StatusCodes())
	}
}

var sortStrings = cmpopts.SortSlices(func(a, b string) bool { return a < b })

func TestOperationsRejectsEmptyDocuments(t *testing.T) {
	const empty = "openapi: 3.0.3\ninfo: {title: x, version: '1'}\npaths: {}\n"

	_, err := New(pkgopenapi.NewParserOptions()).Operations(context.Background(), document(t, empty))
	if err == nil || !strings.Contains(err.Error(), "does not contain any paths") {
		t.Fatalf("expected empty paths error, got %v", err)
	}

	ops, err := New(pkgopenapi.NewParserOptions(pkgopenapi.WithPartialDocuments(true))).
		Operations(context.Background(), document(t, empty))
	if err != nil {
		t.Fatalf("partial document: %v", err)
	}
	if len(ops) != 0 {
		t.Fatalf("expected no operations, got %d", len(ops))
	}
}

func TestOperationsRejectsDuplicateIDs(t *testing.T) {
	const doc = `
openapi: 3.0.3
info: {title: x, version: "1"}
paths:
  /a:
    get:
      operationId: same
      responses: {"200": {description: ok}}
  /b:
    get:
      operationId: same
      responses: {"200": {description: ok}}
`
	p := New(pkgopenapi.NewParserOptions(pkgopenapi.WithReferenceResolution(false)))
	_, err := p.Operations(context.Background(), document(t, doc))
	if err == nil || !strings.Contains(err.Error(), `duplicate operation id "same"`) {
		t.Fatalf("expected duplicate id error, got %v", err)
	}
}

func TestOperationsHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := New(pkgopenapi.NewParserOptions()).Operations(ctx, document(t, widgetsDoc)); err == nil {
		t.Fatalf("expected context error")
	}
}

func TestMediaTypeSelection(t *testing.T) {
	p := New(pkgopenapi.NewParserOptions(pkgopenapi.WithMediaTypes("application/json")))

	content := openapi3.Content{
		"text/plain":               openapi3.NewMediaType(),
		"application/hal+json":     openapi3.NewMediaType(),
		"application/json":         openapi3.NewMediaType(),
		"application/octet-stream": openapi3.NewMediaType(),
	}
	if got := p.mediaType(content); got != content["application/json"] {
		t.Fatalf("expected application/json media type")
	}

	delete(content, "application/json")
	if got := p.mediaType(content); got != content["application/hal+json"] {
		t.Fatalf("expected +json fallback")
	}

	delete(content, "application/hal+json")
	if got := p.mediaType(content); got != nil {
		t.Fatalf("expected no media type, got %v", got)
	}
}

func TestConvertBreaksCycles(t *testing.T) {
	node := &openapi3.Schema{
		Type:       &openapi3.Types{openapi3.TypeObject},
		Properties: openapi3.Schemas{},
	}
	node.Properties["parent"] = &openapi3.SchemaRef{Ref: "#/components/schemas/Node", Value: node}

	got := convertSchema(openapi3.NewSchemaRef("", node))

	want := schema.Schema{
		Type: schema.TypeSet{schema.TypeObject},
		Properties: map[string]schema.Schema{
			"parent": {Type: schema.TypeSet{schema.TypeObject}},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("schema mismatch (-want +got):\n%s", diff)
	}
}

func TestConvertKeepsUnresolvedReference(t *testing.T) {
	got := convertSchema(&openapi3.SchemaRef{Ref: "other.yaml#/Thing"})
	if diff := cmp.Diff(map[string]any{"$ref": "other.yaml#/Thing"}, got.Extra); diff != "" {
		t.Fatalf("extra mismatch (-want +got):\n%s", diff)
	}
}
