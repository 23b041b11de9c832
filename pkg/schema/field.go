package schema

import (
	"sort"
	"strings"
)

// Kind identifies the variant held by a Field.
type Kind uint8

const (
	// KindAny is the zero Field: an empty schema that accepts any value.
	KindAny Kind = iota
	KindPrimitive
	KindObject
	KindArray
	KindUnion
	KindRaw
)

func (k Kind) String() string {
	switch k {
	case KindPrimitive:
		return "primitive"
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	case KindUnion:
		return "union"
	case KindRaw:
		return "raw"
	default:
		return "any"
	}
}

// Field describes the accepted representation of a single value. Fields are
// immutable: every modifier returns a modified copy.
type Field struct {
	kind        Kind
	types       TypeSet
	nullable    bool
	format      string
	description string
	enum        []any
	minimum     *float64
	maximum     *float64
	minLength   *int
	maxLength   *int
	pattern     string
	fields      Compact
	item        *Field
	minItems    *int
	maxItems    *int
	variants    []Field
	raw         *Schema
}

// Types declares a primitive field accepting any of the named JSON types.
func Types(names ...string) Field {
	return Field{kind: KindPrimitive, types: normalizeTypes(names)}
}

// Integer declares an integer field.
func Integer() Field { return Types(TypeInteger) }

// Number declares a numeric field.
func Number() Field { return Types(TypeNumber) }

// String declares a string field.
func String() Field { return Types(TypeString) }

// Boolean declares a boolean field.
func Boolean() Field { return Types(TypeBoolean) }

// Null declares a field that must be null. A null-only type list is kept
// as is by the builders.
func Null() Field { return Types(TypeNull) }

// DateTime declares an RFC 3339 date-time string.
func DateTime() Field { return String().Format(FormatDateTime) }

// Date declares a full-date string.
func Date() Field { return String().Format(FormatDate) }

// Time declares a full-time string.
func Time() Field { return String().Format(FormatTime) }

// UUID declares a uuid string.
func UUID() Field { return String().Format(FormatUUID) }

// Object declares a nested object with the given fields.
func Object(fields Compact) Field {
	return Field{kind: KindObject, fields: fields.Clone()}
}

// Array declares an array whose elements match item.
func Array(item Field) Field {
	elem := item
	return Field{kind: KindArray, item: &elem}
}

// Raw embeds a complete schema. Builders copy it verbatim.
func Raw(s Schema) Field {
	cloned := s.Clone()
	return Field{kind: KindRaw, raw: &cloned}
}

// AnyOf merges alternatives. Primitive alternatives collapse into a single
// type set; when a plain string is accepted, string formats are dropped, and
// a single formatted string keeps its format. Object or array alternatives
// produce an anyOf schema.
func AnyOf(fields ...Field) Field {
	var (
		names       []string
		nullable    bool
		plainString bool
		formats     = make(map[string]struct{})
		composites  []Field
	)
	for _, f := range fields {
		if f.kind != KindPrimitive {
			composites = append(composites, f)
			continue
		}
		nullable = nullable || f.nullable
		for _, name := range f.types {
			if name == TypeString {
				if f.format == "" {
					plainString = true
				} else {
					formats[f.format] = struct{}{}
				}
			}
			names = append(names, name)
		}
	}

	var merged Field
	if len(names) > 0 || nullable {
		merged = Types(names...)
		merged.nullable = nullable
		if !plainString && len(formats) == 1 {
			for format := range formats {
				merged.format = format
			}
		}
	}

	if len(composites) == 0 {
		return merged
	}
	variants := append([]Field(nil), composites...)
	if merged.kind == KindPrimitive {
		variants = append(variants, merged)
	}
	if len(variants) == 1 {
		return variants[0]
	}
	return Field{kind: KindUnion, variants: variants}
}

// Nullable opts the field into accepting null.
func (f Field) Nullable() Field {
	f.nullable = true
	return f
}

// Format sets the string format.
func (f Field) Format(format string) Field {
	f.format = strings.TrimSpace(format)
	return f
}

// Describe attaches a description.
func (f Field) Describe(text string) Field {
	f.description = text
	return f
}

// Enum restricts the field to the listed values.
func (f Field) Enum(values ...any) Field {
	f.enum = append([]any(nil), values...)
	return f
}

// Min sets the inclusive numeric minimum.
func (f Field) Min(v float64) Field {
	f.minimum = &v
	return f
}

// Max sets the inclusive numeric maximum.
func (f Field) Max(v float64) Field {
	f.maximum = &v
	return f
}

// MinLength sets the minimum string length.
func (f Field) MinLength(n int) Field {
	f.minLength = &n
	return f
}

// MaxLength sets the maximum string length.
func (f Field) MaxLength(n int) Field {
	f.maxLength = &n
	return f
}

// Pattern sets a regular expression the string must match.
func (f Field) Pattern(expr string) Field {
	f.pattern = expr
	return f
}

// MinItems overrides the minimum array length. Arrays default to one item
// when built in strict mode.
func (f Field) MinItems(n int) Field {
	f.minItems = &n
	return f
}

// MaxItems sets the maximum array length.
func (f Field) MaxItems(n int) Field {
	f.maxItems = &n
	return f
}

// Kind returns the variant of the field.
func (f Field) Kind() Kind { return f.kind }

// TypeNames returns the declared primitive type names.
func (f Field) TypeNames() []string { return append([]string(nil), f.types...) }

// IsNullable reports whether the field opted into null.
func (f Field) IsNullable() bool { return f.nullable }

// FormatName returns the declared string format.
func (f Field) FormatName() string { return f.format }

// Fields returns a copy of the nested fields of an object field.
func (f Field) Fields() Compact { return f.fields.Clone() }

// Item returns the element field of an array field.
func (f Field) Item() (Field, bool) {
	if f.item == nil {
		return Field{}, false
	}
	return *f.item, true
}

// Variants returns the alternatives of a union field.
func (f Field) Variants() []Field { return append([]Field(nil), f.variants...) }

// Schema returns the embedded schema of a raw field.
func (f Field) Schema() (Schema, bool) {
	if f.raw == nil {
		return Schema{}, false
	}
	return f.raw.Clone(), true
}

func normalizeTypes(names []string) TypeSet {
	seen := make(map[string]struct{}, len(names))
	out := make(TypeSet, 0, len(names))
	for _, name := range names {
		trimmed := strings.ToLower(strings.TrimSpace(name))
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	sort.Strings(out)
	return out
}
