package schema

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

// Document is a loaded payload together with its origin.
type Document struct {
	source Source
	raw    []byte
}

// NewDocument wraps raw. The payload is copied.
func NewDocument(src Source, raw []byte) (Document, error) {
	if src == nil {
		return Document{}, errors.New("schema: source is required")
	}
	if len(raw) == 0 {
		return Document{}, fmt.Errorf("schema: %s: document is empty", src.Location())
	}
	return Document{source: src, raw: append([]byte(nil), raw...)}, nil
}

func (d Document) Source() Source { return d.source }

// Raw returns a copy of the payload.
func (d Document) Raw() []byte { return append([]byte(nil), d.raw...) }

func (d Document) Location() string {
	if d.source == nil {
		return ""
	}
	return d.source.Location()
}

// IsJSON reports whether the payload looks like JSON rather than YAML,
// judging by the location extension first and the first byte second.
func (d Document) IsJSON() bool {
	switch strings.ToLower(path.Ext(d.Location())) {
	case ".json":
		return true
	case ".yaml", ".yml":
		return false
	}
	trimmed := strings.TrimSpace(string(d.raw))
	return strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[")
}

// Compact parses the payload as a compact schema.
func (d Document) Compact() (Compact, error) {
	c, err := ParseCompact(d.raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", d.Location(), err)
	}
	return c, nil
}
