package schema

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// ErrEmptyCompact is returned when a compact schema document declares no
// fields.
var ErrEmptyCompact = errors.New("schema: compact schema is empty")

// ParseCompact reads a compact schema from YAML or JSON. Each top-level key
// is a field name mapped to a descriptor:
//
//	id: integer
//	name: {type: string, minLength: 1}
//	tags: {type: array, items: string}
//	owner:
//	  type: object
//	  nullable: true
//	  properties:
//	    email: {type: string, format: email}
//
// A descriptor may be a bare type name, a list of type names or a mapping.
// Mappings without a type key are embedded verbatim as raw schemas, except
// under items where a mapping of field names describes object items:
//
//	members: {type: array, items: {id: integer, name: string}}
//
// A null entry in the type list of an object or array is ignored; use
// nullable to allow null there. Null in a primitive type list is dropped by
// the strict builders and kept by Loose.
func ParseCompact(data []byte) (Compact, error) {
	var descriptors map[string]descriptor
	if err := yaml.Unmarshal(data, &descriptors); err != nil {
		return nil, fmt.Errorf("schema: parse compact: %w", err)
	}
	if len(descriptors) == 0 {
		return nil, ErrEmptyCompact
	}
	out := make(Compact, len(descriptors))
	for name, desc := range descriptors {
		field, err := desc.field()
		if err != nil {
			return nil, fmt.Errorf("schema: parse compact: field %q: %w", name, err)
		}
		out[name] = field
	}
	return out, nil
}

// FormatCompact renders c as YAML accepted by ParseCompact.
func FormatCompact(c Compact) ([]byte, error) {
	descriptors := make(map[string]descriptor, len(c))
	for name, field := range c {
		desc, err := describe(field)
		if err != nil {
			return nil, fmt.Errorf("schema: format compact: field %q: %w", name, err)
		}
		descriptors[name] = desc
	}
	data, err := yaml.Marshal(descriptors)
	if err != nil {
		return nil, fmt.Errorf("schema: format compact: %w", err)
	}
	return data, nil
}

type descriptor struct {
	Type        typeList              `yaml:"type,omitempty"`
	Format      string                `yaml:"format,omitempty"`
	Nullable    bool                  `yaml:"nullable,omitempty"`
	Description string                `yaml:"description,omitempty"`
	Enum        []any                 `yaml:"enum,omitempty"`
	Minimum     *float64              `yaml:"minimum,omitempty"`
	Maximum     *float64              `yaml:"maximum,omitempty"`
	MinLength   *int                  `yaml:"minLength,omitempty"`
	MaxLength   *int                  `yaml:"maxLength,omitempty"`
	Pattern     string                `yaml:"pattern,omitempty"`
	Properties  map[string]descriptor `yaml:"properties,omitempty"`
	Items       *descriptor           `yaml:"items,omitempty"`
	MinItems    *int                  `yaml:"minItems,omitempty"`
	MaxItems    *int                  `yaml:"maxItems,omitempty"`

	raw map[string]any
}

type typeList []string

func (t *typeList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*t = typeList{scalarTypeName(node)}
		return nil
	case yaml.SequenceNode:
		out := make(typeList, 0, len(node.Content))
		for _, item := range node.Content {
			if item.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: type names must be scalars", item.Line)
			}
			out = append(out, scalarTypeName(item))
		}
		*t = out
		return nil
	default:
		return fmt.Errorf("line %d: type must be a name or a list of names", node.Line)
	}
}

func (t typeList) MarshalYAML() (any, error) {
	if len(t) == 1 {
		return t[0], nil
	}
	return []string(t), nil
}

func scalarTypeName(node *yaml.Node) string {
	if node.Tag == "!!null" {
		return TypeNull
	}
	return node.Value
}

func (d *descriptor) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode, yaml.SequenceNode:
		return d.Type.UnmarshalYAML(node)
	case yaml.MappingNode:
	default:
		return fmt.Errorf("line %d: unsupported descriptor", node.Line)
	}

	var probe map[string]any
	if err := node.Decode(&probe); err != nil {
		return err
	}
	if _, typed := probe["type"]; !typed {
		d.raw = probe
		return nil
	}
	type plain descriptor
	return node.Decode((*plain)(d))
}

func (d descriptor) MarshalYAML() (any, error) {
	if d.raw != nil {
		return d.raw, nil
	}
	if len(d.Type) == 1 && d.isBareType() {
		return d.Type[0], nil
	}
	type plain descriptor
	return plain(d), nil
}

func (d descriptor) isBareType() bool {
	return d.Format == "" && !d.Nullable && d.Description == "" && d.Enum == nil &&
		d.Minimum == nil && d.Maximum == nil && d.MinLength == nil && d.MaxLength == nil &&
		d.Pattern == "" && d.Properties == nil && d.Items == nil && d.MinItems == nil && d.MaxItems == nil
}

var typeAliases = map[string]Field{
	"int":      Integer(),
	"integer":  Integer(),
	"float":    Number(),
	"number":   Number(),
	"str":      String(),
	"string":   String(),
	"bool":     Boolean(),
	"boolean":  Boolean(),
	"none":     Null(),
	"null":     Null(),
	"datetime": DateTime(),
	"date":     Date(),
	"time":     Time(),
	"uuid":     UUID(),
}

func (d descriptor) field() (Field, error) {
	if d.raw != nil {
		s, err := schemaFromMap(d.raw)
		if err != nil {
			return Field{}, err
		}
		return Raw(s), nil
	}

	names := make([]string, 0, len(d.Type))
	for _, name := range d.Type {
		names = append(names, strings.ToLower(strings.TrimSpace(name)))
	}
	composite := compositeType(names)

	var field Field
	switch {
	case composite == TypeObject:
		fields := make(Compact, len(d.Properties))
		for name, nested := range d.Properties {
			converted, err := nested.field()
			if err != nil {
				return Field{}, fmt.Errorf("property %q: %w", name, err)
			}
			fields[name] = converted
		}
		field = Object(fields)
	case composite == TypeArray:
		item := Field{}
		if d.Items != nil {
			converted, err := d.Items.itemField()
			if err != nil {
				return Field{}, fmt.Errorf("items: %w", err)
			}
			item = converted
		}
		field = Array(item)
		if d.MinItems != nil {
			field = field.MinItems(*d.MinItems)
		}
		if d.MaxItems != nil {
			field = field.MaxItems(*d.MaxItems)
		}
	default:
		if len(names) == 0 {
			return Field{}, errors.New("type list is empty")
		}
		variants := make([]Field, 0, len(names))
		for _, name := range names {
			if alias, ok := typeAliases[name]; ok {
				variants = append(variants, alias)
				continue
			}
			variants = append(variants, Types(name))
		}
		field = AnyOf(variants...)
		if d.Format != "" {
			field = field.Format(d.Format)
		}
		if d.Enum != nil {
			field = field.Enum(d.Enum...)
		}
		if d.Minimum != nil {
			field = field.Min(*d.Minimum)
		}
		if d.Maximum != nil {
			field = field.Max(*d.Maximum)
		}
		if d.MinLength != nil {
			field = field.MinLength(*d.MinLength)
		}
		if d.MaxLength != nil {
			field = field.MaxLength(*d.MaxLength)
		}
		if d.Pattern != "" {
			field = field.Pattern(d.Pattern)
		}
	}

	if d.Description != "" {
		field = field.Describe(d.Description)
	}
	if d.Nullable {
		field = field.Nullable()
	}
	return field, nil
}

// compositeType returns object or array when names declares that type,
// optionally next to null. The null variant of a composite follows the
// nullable key only.
func compositeType(names []string) string {
	var found string
	for _, name := range names {
		switch name {
		case TypeNull:
		case TypeObject, TypeArray:
			if found != "" && found != name {
				return ""
			}
			found = name
		default:
			return ""
		}
	}
	return found
}

// schemaKeywords mark an untyped items mapping as a raw schema rather than
// a compact field mapping.
var schemaKeywords = []string{
	"$ref", "$schema", "$defs", "allOf", "anyOf", "oneOf", "not", "const",
	"enum", "format", "items", "properties", "additionalProperties",
	"required", "minimum", "maximum", "minLength", "maxLength", "pattern",
	"minItems", "maxItems", "description", "title", "default", "nullable",
}

// itemField converts an items descriptor. An untyped mapping of field
// names is read as the compact schema of object items.
func (d descriptor) itemField() (Field, error) {
	if d.raw == nil || hasSchemaKeyword(d.raw) {
		return d.field()
	}
	data, err := yaml.Marshal(d.raw)
	if err != nil {
		return Field{}, err
	}
	fields, err := ParseCompact(data)
	if err != nil {
		return Field{}, err
	}
	return Object(fields), nil
}

func hasSchemaKeyword(raw map[string]any) bool {
	if len(raw) == 0 {
		return true
	}
	for _, keyword := range schemaKeywords {
		if _, ok := raw[keyword]; ok {
			return true
		}
	}
	for _, value := range raw {
		switch value.(type) {
		case string, []any, map[string]any:
		default:
			return true
		}
	}
	return false
}

func describe(f Field) (descriptor, error) {
	var d descriptor
	switch f.kind {
	case KindPrimitive:
		d.Type = typeList(f.TypeNames())
		d.Format = f.format
		d.Enum = f.enum
		d.Minimum = cloneFloat(f.minimum)
		d.Maximum = cloneFloat(f.maximum)
		d.MinLength = cloneInt(f.minLength)
		d.MaxLength = cloneInt(f.maxLength)
		d.Pattern = f.pattern
	case KindObject:
		d.Type = typeList{TypeObject}
		d.Properties = make(map[string]descriptor, len(f.fields))
		for name, nested := range f.fields {
			converted, err := describe(nested)
			if err != nil {
				return descriptor{}, fmt.Errorf("property %q: %w", name, err)
			}
			d.Properties[name] = converted
		}
	case KindArray:
		d.Type = typeList{TypeArray}
		if f.item != nil && f.item.kind != KindAny {
			item, err := describe(*f.item)
			if err != nil {
				return descriptor{}, fmt.Errorf("items: %w", err)
			}
			d.Items = &item
		}
		d.MinItems = cloneInt(f.minItems)
		d.MaxItems = cloneInt(f.maxItems)
	default:
		s := Build(f, Loose())
		if f.kind == KindRaw {
			s = *f.raw
		}
		raw, err := s.Map()
		if err != nil {
			return descriptor{}, err
		}
		if raw == nil {
			raw = map[string]any{}
		}
		d.raw = raw
		return d, nil
	}
	d.Description = f.description
	d.Nullable = f.nullable
	return d, nil
}

func schemaFromMap(in map[string]any) (Schema, error) {
	data, err := json.Marshal(in)
	if err != nil {
		return Schema{}, fmt.Errorf("encode raw schema: %w", err)
	}
	var out Schema
	if err := json.Unmarshal(data, &out); err != nil {
		return Schema{}, fmt.Errorf("decode raw schema: %w", err)
	}
	return out, nil
}
