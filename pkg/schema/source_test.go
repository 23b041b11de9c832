package schema

import (
	"testing"
)

func TestParseSource(t *testing.T) {
	tests := []struct {
		raw      string
		kind     SourceKind
		location string
	}{
		{raw: "https://api.example.com/openapi.yaml", kind: SourceKindURL, location: "https://api.example.com/openapi.yaml"},
		{raw: "  HTTP://localhost:8000/schema  ", kind: SourceKindURL, location: "HTTP://localhost:8000/schema"},
		{raw: "fs:/contracts/tasks.yaml", kind: SourceKindFS, location: "contracts/tasks.yaml"},
		{raw: "./testdata/../testdata/task.yaml", kind: SourceKindFile, location: "testdata/task.yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			src, err := ParseSource(tt.raw)
			if err != nil {
				t.Fatalf("ParseSource: %v", err)
			}
			if src.Kind() != tt.kind {
				t.Fatalf("kind: want %q, got %q", tt.kind, src.Kind())
			}
			if src.Location() != tt.location {
				t.Fatalf("location: want %q, got %q", tt.location, src.Location())
			}
		})
	}
}

func TestParseSourceRejects(t *testing.T) {
	for _, raw := range []string{"", "   "} {
		if _, err := ParseSource(raw); err == nil {
			t.Fatalf("ParseSource(%q): expected error", raw)
		}
	}
}

func TestSourceFromURLPanicsOnInvalid(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	SourceFromURL("ftp://example.com/schema.yaml")
}

func TestDocumentIsJSON(t *testing.T) {
	tests := []struct {
		name string
		src  Source
		raw  string
		want bool
	}{
		{name: "json extension", src: SourceFromFile("task.json"), raw: "id: integer", want: true},
		{name: "yaml extension", src: SourceFromFile("task.yml"), raw: `{"id": "integer"}`, want: false},
		{name: "sniff object", src: SourceFromFS("task"), raw: "  {\"id\": \"integer\"}", want: true},
		{name: "sniff array", src: SourceFromFS("task"), raw: "[]", want: true},
		{name: "sniff yaml", src: SourceFromFS("task"), raw: "id: integer", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := NewDocument(tt.src, []byte(tt.raw))
			if err != nil {
				t.Fatalf("NewDocument: %v", err)
			}
			if got := doc.IsJSON(); got != tt.want {
				t.Fatalf("IsJSON: want %v, got %v", tt.want, got)
			}
		})
	}
}

func TestNewDocumentCopiesPayload(t *testing.T) {
	raw := []byte("id: integer")
	doc, err := NewDocument(SourceFromFS("task.yaml"), raw)
	if err != nil {
		t.Fatalf("NewDocument: %v", err)
	}
	raw[0] = 'X'
	if string(doc.Raw()) != "id: integer" {
		t.Fatalf("payload aliased caller buffer: %q", doc.Raw())
	}

	if _, err := NewDocument(nil, raw); err == nil {
		t.Fatalf("expected error for missing source")
	}
	if _, err := NewDocument(SourceFromFS("empty.yaml"), nil); err == nil {
		t.Fatalf("expected error for empty payload")
	}

	compact, err := doc.Compact()
	if err != nil {
		t.Fatalf("Compact: %v", err)
	}
	if _, ok := compact["id"]; !ok {
		t.Fatalf("expected id field, got %v", compact.Keys())
	}
}
