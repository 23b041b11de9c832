package schema

import (
	"sort"

	"github.com/goccy/go-json"
)

// Primitive type names understood by JSON Schema.
const (
	TypeNull    = "null"
	TypeBoolean = "boolean"
	TypeInteger = "integer"
	TypeNumber  = "number"
	TypeString  = "string"
	TypeArray   = "array"
	TypeObject  = "object"
)

// Common string formats.
const (
	FormatDateTime = "date-time"
	FormatDate     = "date"
	FormatTime     = "time"
	FormatUUID     = "uuid"
	FormatEmail    = "email"
	FormatURI      = "uri"
)

// TypeSet is the value of the "type" keyword. It encodes as a plain string
// when it holds a single name and as an array otherwise.
type TypeSet []string

// Has reports whether name is part of the set.
func (t TypeSet) Has(name string) bool {
	for _, item := range t {
		if item == name {
			return true
		}
	}
	return false
}

// Without returns a copy of the set with name removed.
func (t TypeSet) Without(name string) TypeSet {
	out := make(TypeSet, 0, len(t))
	for _, item := range t {
		if item != name {
			out = append(out, item)
		}
	}
	return out
}

// With returns a sorted copy of the set including name.
func (t TypeSet) With(name string) TypeSet {
	if t.Has(name) {
		return append(TypeSet(nil), t...)
	}
	out := append(append(TypeSet(nil), t...), name)
	sort.Strings(out)
	return out
}

// Only reports whether the set contains exactly name.
func (t TypeSet) Only(name string) bool {
	return len(t) == 1 && t[0] == name
}

func (t TypeSet) MarshalJSON() ([]byte, error) {
	if len(t) == 1 {
		return json.Marshal(t[0])
	}
	return json.Marshal([]string(t))
}

func (t *TypeSet) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*t = TypeSet{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*t = TypeSet(many)
	return nil
}

// Schema is a JSON Schema document node. Only the keywords produced by the
// builders are modelled; anything else travels in Extra and is merged into
// the encoded output.
type Schema struct {
	Type                 TypeSet           `json:"type,omitempty"`
	Format               string            `json:"format,omitempty"`
	Description          string            `json:"description,omitempty"`
	Enum                 []any             `json:"enum,omitempty"`
	Minimum              *float64          `json:"minimum,omitempty"`
	Maximum              *float64          `json:"maximum,omitempty"`
	MinLength            *int              `json:"minLength,omitempty"`
	MaxLength            *int              `json:"maxLength,omitempty"`
	Pattern              string            `json:"pattern,omitempty"`
	Properties           map[string]Schema `json:"properties,omitempty"`
	Required             []string          `json:"required,omitempty"`
	AdditionalProperties *bool             `json:"additionalProperties,omitempty"`
	Items                *Schema           `json:"items,omitempty"`
	MinItems             *int              `json:"minItems,omitempty"`
	MaxItems             *int              `json:"maxItems,omitempty"`

	// Extra carries keywords without a dedicated field ($ref, anyOf, ...).
	Extra map[string]any `json:"-"`
}

// MarshalJSON encodes the schema, merging Extra keywords. Modelled fields
// win over Extra entries with the same name.
func (s Schema) MarshalJSON() ([]byte, error) {
	type plain Schema
	data, err := json.Marshal(plain(s))
	if err != nil || len(s.Extra) == 0 {
		return data, err
	}
	merged := make(map[string]any, len(s.Extra)+8)
	if err := json.Unmarshal(data, &merged); err != nil {
		return nil, err
	}
	for key, value := range s.Extra {
		if _, taken := merged[key]; taken {
			continue
		}
		merged[key] = value
	}
	return json.Marshal(merged)
}

// UnmarshalJSON decodes a schema, keeping unknown keywords in Extra. Schema
// valued additionalProperties and tuple style items also land in Extra.
func (s *Schema) UnmarshalJSON(data []byte) error {
	var all map[string]any
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}

	deferred := make(map[string]any)
	if value, ok := all["additionalProperties"]; ok {
		if _, isBool := value.(bool); !isBool {
			deferred["additionalProperties"] = value
		}
	}
	if value, ok := all["items"]; ok {
		if _, isObject := value.(map[string]any); !isObject {
			deferred["items"] = value
		}
	}
	if len(deferred) > 0 {
		for key := range deferred {
			delete(all, key)
		}
		reencoded, err := json.Marshal(all)
		if err != nil {
			return err
		}
		data = reencoded
	}

	type plain Schema
	var out plain
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}
	for _, key := range modelledKeywords {
		delete(all, key)
	}
	for key, value := range deferred {
		all[key] = value
	}
	if len(all) > 0 {
		out.Extra = all
	}
	*s = Schema(out)
	return nil
}

var modelledKeywords = []string{
	"type", "format", "description", "enum", "minimum", "maximum",
	"minLength", "maxLength", "pattern", "properties", "required",
	"additionalProperties", "items", "minItems", "maxItems",
}

// Clone creates a deep copy of the schema tree. Extra values are copied one
// level deep.
func (s Schema) Clone() Schema {
	cloned := s
	if s.Type != nil {
		cloned.Type = append(TypeSet(nil), s.Type...)
	}
	if s.Enum != nil {
		cloned.Enum = append([]any(nil), s.Enum...)
	}
	if s.Required != nil {
		cloned.Required = append([]string(nil), s.Required...)
	}
	cloned.Minimum = cloneFloat(s.Minimum)
	cloned.Maximum = cloneFloat(s.Maximum)
	cloned.MinLength = cloneInt(s.MinLength)
	cloned.MaxLength = cloneInt(s.MaxLength)
	cloned.MinItems = cloneInt(s.MinItems)
	cloned.MaxItems = cloneInt(s.MaxItems)
	cloned.AdditionalProperties = cloneBool(s.AdditionalProperties)
	if s.Properties != nil {
		cloned.Properties = make(map[string]Schema, len(s.Properties))
		for name, prop := range s.Properties {
			cloned.Properties[name] = prop.Clone()
		}
	}
	if s.Items != nil {
		items := s.Items.Clone()
		cloned.Items = &items
	}
	if s.Extra != nil {
		cloned.Extra = make(map[string]any, len(s.Extra))
		for key, value := range s.Extra {
			cloned.Extra[key] = value
		}
	}
	return cloned
}

// Map returns the schema as a generic JSON value, the shape most validators
// accept.
func (s Schema) Map() (map[string]any, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PropertyNames returns the sorted property names.
func (s Schema) PropertyNames() []string {
	return sortedKeys(s.Properties)
}

func sortedKeys[V any](in map[string]V) []string {
	keys := make([]string, 0, len(in))
	for key := range in {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func cloneFloat(in *float64) *float64 {
	if in == nil {
		return nil
	}
	value := *in
	return &value
}

func cloneInt(in *int) *int {
	if in == nil {
		return nil
	}
	value := *in
	return &value
}

func cloneBool(in *bool) *bool {
	if in == nil {
		return nil
	}
	value := *in
	return &value
}

func intPtr(v int) *int { return &v }

func boolPtr(v bool) *bool { return &v }
