package parser

import (
	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-apismoke/pkg/schema"
)

func convertSchema(ref *openapi3.SchemaRef) schema.Schema {
	return convert(ref, make(map[*openapi3.Schema]bool))
}

// convert maps a kin-openapi schema onto schema.Schema. A schema already on
// the current path is cut to its declared type to break reference cycles.
func convert(ref *openapi3.SchemaRef, visiting map[*openapi3.Schema]bool) schema.Schema {
	if ref == nil {
		return schema.Schema{}
	}
	if ref.Value == nil {
		if ref.Ref == "" {
			return schema.Schema{}
		}
		return schema.Schema{Extra: map[string]any{"$ref": ref.Ref}}
	}
	src := ref.Value

	out := schema.Schema{
		Type:        schemaTypes(src),
		Format:      src.Format,
		Description: src.Description,
		Pattern:     src.Pattern,
	}
	if visiting[src] {
		return out
	}
	visiting[src] = true
	defer delete(visiting, src)

	if len(src.Enum) > 0 {
		out.Enum = append([]any(nil), src.Enum...)
	}
	if src.Min != nil {
		value := *src.Min
		out.Minimum = &value
	}
	if src.Max != nil {
		value := *src.Max
		out.Maximum = &value
	}
	if src.MinLength > 0 {
		value := int(src.MinLength)
		out.MinLength = &value
	}
	if src.MaxLength != nil {
		value := int(*src.MaxLength)
		out.MaxLength = &value
	}

	if len(src.Properties) > 0 {
		out.Properties = make(map[string]schema.Schema, len(src.Properties))
		for name, property := range src.Properties {
			out.Properties[name] = convert(property, visiting)
		}
	}
	if len(src.Required) > 0 {
		out.Required = append([]string(nil), src.Required...)
	}
	if src.AdditionalProperties.Has != nil {
		value := *src.AdditionalProperties.Has
		out.AdditionalProperties = &value
	}
	if src.AdditionalProperties.Schema != nil {
		setExtra(&out, "additionalProperties", convert(src.AdditionalProperties.Schema, visiting))
	}

	if src.Items != nil {
		items := convert(src.Items, visiting)
		out.Items = &items
	}
	if src.MinItems > 0 {
		value := int(src.MinItems)
		out.MinItems = &value
	}
	if src.MaxItems != nil {
		value := int(*src.MaxItems)
		out.MaxItems = &value
	}

	for keyword, refs := range map[string]openapi3.SchemaRefs{
		"allOf": src.AllOf,
		"anyOf": src.AnyOf,
		"oneOf": src.OneOf,
	} {
		if len(refs) == 0 {
			continue
		}
		branches := make([]any, 0, len(refs))
		for _, branch := range refs {
			branches = append(branches, convert(branch, visiting))
		}
		setExtra(&out, keyword, branches)
	}
	return out
}

// schemaTypes returns the declared types, adding null for nullable schemas.
// OpenAPI 3.1 documents may already list null among the types.
func schemaTypes(src *openapi3.Schema) schema.TypeSet {
	var out schema.TypeSet
	if src.Type != nil {
		for _, name := range src.Type.Slice() {
			out = out.With(name)
		}
	}
	if src.Nullable && len(out) > 0 {
		out = out.With(schema.TypeNull)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func setExtra(out *schema.Schema, key string, value any) {
	if out.Extra == nil {
		out.Extra = make(map[string]any)
	}
	out.Extra[key] = value
}
