package schema

// BuildOption customises how a Field is turned into a Schema.
type BuildOption func(*buildOptions)

type buildOptions struct {
	enforce bool
}

// Loose emits the schema as declared: no required list, additional
// properties allowed, arrays may be empty and null types are kept.
func Loose() BuildOption {
	return func(o *buildOptions) {
		o.enforce = false
	}
}

func newBuildOptions(opts []BuildOption) buildOptions {
	options := buildOptions{enforce: true}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}
	return options
}

// ObjectSchema derives the strict object schema for c. Every declared field
// is required, undeclared properties are rejected and leaves exclude null
// unless they opted in with Nullable.
func ObjectSchema(c Compact) Schema {
	return buildObject(c, false, buildOptions{enforce: true})
}

// ArraySchema wraps item into a schema for a non-empty array. The item
// schema is embedded unchanged.
func ArraySchema(item Schema) Schema {
	items := item.Clone()
	return Schema{
		Type:     TypeSet{TypeArray},
		Items:    &items,
		MinItems: intPtr(1),
	}
}

// ArrayOf is ArraySchema(ObjectSchema(c)).
func ArrayOf(c Compact) Schema {
	return ArraySchema(ObjectSchema(c))
}

// Build converts a single field. Strict rules apply unless Loose is passed.
func Build(f Field, opts ...BuildOption) Schema {
	return build(f, newBuildOptions(opts))
}

func build(f Field, options buildOptions) Schema {
	switch f.kind {
	case KindPrimitive:
		return buildPrimitive(f, options)
	case KindObject:
		out := buildObject(f.fields, f.nullable, options)
		out.Description = f.description
		return out
	case KindArray:
		return buildArray(f, options)
	case KindUnion:
		return buildUnion(f, options)
	case KindRaw:
		if f.raw == nil {
			return Schema{}
		}
		return f.raw.Clone()
	default:
		return Schema{}
	}
}

func buildPrimitive(f Field, options buildOptions) Schema {
	types := append(TypeSet(nil), f.types...)
	switch {
	case f.nullable:
		types = types.With(TypeNull)
	case options.enforce && !types.Only(TypeNull):
		types = types.Without(TypeNull)
	}

	out := Schema{
		Type:        types,
		Format:      f.format,
		Description: f.description,
		Minimum:     cloneFloat(f.minimum),
		Maximum:     cloneFloat(f.maximum),
		MinLength:   cloneInt(f.minLength),
		MaxLength:   cloneInt(f.maxLength),
		Pattern:     f.pattern,
	}
	if len(types) == 0 {
		out.Type = nil
	}
	if f.enum != nil {
		out.Enum = append([]any(nil), f.enum...)
		if f.nullable && !containsNil(out.Enum) {
			out.Enum = append(out.Enum, nil)
		}
	}
	return out
}

func buildObject(c Compact, nullable bool, options buildOptions) Schema {
	out := Schema{Type: TypeSet{TypeObject}}
	if nullable {
		out.Type = out.Type.With(TypeNull)
	}
	out.Properties = make(map[string]Schema, len(c))
	for name, field := range c {
		out.Properties[name] = build(field, options)
	}
	if options.enforce {
		out.Required = c.Keys()
		out.AdditionalProperties = boolPtr(false)
	}
	return out
}

func buildArray(f Field, options buildOptions) Schema {
	out := Schema{Type: TypeSet{TypeArray}, Description: f.description}
	if f.nullable {
		out.Type = out.Type.With(TypeNull)
	}
	if f.item != nil {
		items := build(*f.item, options)
		out.Items = &items
	}
	switch {
	case f.minItems != nil:
		out.MinItems = cloneInt(f.minItems)
	case options.enforce:
		out.MinItems = intPtr(1)
	}
	out.MaxItems = cloneInt(f.maxItems)
	return out
}

func buildUnion(f Field, options buildOptions) Schema {
	variants := make([]any, 0, len(f.variants)+1)
	for _, variant := range f.variants {
		variants = append(variants, build(variant, options))
	}
	if f.nullable {
		variants = append(variants, Schema{Type: TypeSet{TypeNull}})
	}
	return Schema{
		Description: f.description,
		Extra:       map[string]any{"anyOf": variants},
	}
}

// Strict tightens a complete schema with the object builder rules: objects
// with properties require every property and reject others, and arrays must
// not be empty. Nested properties, items and anyOf/oneOf/allOf branches are
// processed recursively. Explicitly declared null types are kept.
func Strict(s Schema) Schema {
	out := s.Clone()
	if len(out.Properties) > 0 {
		for name, prop := range out.Properties {
			out.Properties[name] = Strict(prop)
		}
		out.Required = out.PropertyNames()
		out.AdditionalProperties = boolPtr(false)
	}
	if out.Items != nil {
		items := Strict(*out.Items)
		out.Items = &items
	}
	if out.Type.Has(TypeArray) && (out.MinItems == nil || *out.MinItems == 0) {
		out.MinItems = intPtr(1)
	}
	for _, keyword := range []string{"anyOf", "oneOf", "allOf"} {
		branches, ok := out.Extra[keyword].([]any)
		if !ok {
			continue
		}
		tightened := make([]any, 0, len(branches))
		for _, branch := range branches {
			if nested, ok := branch.(Schema); ok {
				tightened = append(tightened, Strict(nested))
				continue
			}
			tightened = append(tightened, branch)
		}
		out.Extra[keyword] = tightened
	}
	return out
}

func containsNil(values []any) bool {
	for _, value := range values {
		if value == nil {
			return true
		}
	}
	return false
}
