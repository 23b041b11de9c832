package schema

import (
	"reflect"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

var (
	timeType   = reflect.TypeOf(time.Time{})
	numberType = reflect.TypeOf(json.Number(""))
	bytesType  = reflect.TypeOf([]byte(nil))
)

// For derives the field describing the JSON encoding of T.
func For[T any]() Field {
	var zero T
	return FromType(reflect.TypeOf(&zero).Elem())
}

// FromType derives a field from a Go type using encoding/json conventions.
// Struct fields follow their json tags; omitempty is ignored so every
// encoded field is required. Pointers become nullable. Self-referencing
// types stop at an open object schema.
func FromType(t reflect.Type) Field {
	return fromType(t, make(map[reflect.Type]bool))
}

func fromType(t reflect.Type, visiting map[reflect.Type]bool) Field {
	if t == nil {
		return Field{}
	}
	switch t {
	case timeType:
		return DateTime()
	case numberType:
		return Number()
	case bytesType:
		return String()
	}

	switch t.Kind() {
	case reflect.Pointer:
		return fromType(t.Elem(), visiting).Nullable()
	case reflect.Bool:
		return Boolean()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return Integer()
	case reflect.Float32, reflect.Float64:
		return Number()
	case reflect.String:
		return String()
	case reflect.Slice, reflect.Array:
		return Array(fromType(t.Elem(), visiting))
	case reflect.Map:
		return Raw(Schema{Type: TypeSet{TypeObject}})
	case reflect.Interface:
		return Field{}
	case reflect.Struct:
		if visiting[t] {
			return Raw(Schema{Type: TypeSet{TypeObject}})
		}
		visiting[t] = true
		defer delete(visiting, t)
		fields := make(Compact)
		collectStructFields(t, fields, visiting)
		return Object(fields)
	default:
		return Field{}
	}
}

func collectStructFields(t reflect.Type, into Compact, visiting map[reflect.Type]bool) {
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		tag := sf.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, opts := parseJSONTag(tag)

		if sf.Anonymous && name == "" {
			embedded := sf.Type
			if embedded.Kind() == reflect.Pointer {
				embedded = embedded.Elem()
			}
			if embedded.Kind() == reflect.Struct {
				collectStructFields(embedded, into, visiting)
				continue
			}
		}
		if !sf.IsExported() {
			continue
		}
		if name == "" {
			name = sf.Name
		}

		field := fromType(sf.Type, visiting)
		if opts.has("string") {
			field = asStringField(field)
		}
		into[name] = field
	}
}

// asStringField mirrors the ",string" tag option, which quotes scalar values.
func asStringField(f Field) Field {
	if f.kind != KindPrimitive {
		return f
	}
	out := String()
	out.nullable = f.nullable
	return out
}

type tagOptions string

func parseJSONTag(tag string) (string, tagOptions) {
	name, opts, _ := strings.Cut(tag, ",")
	return name, tagOptions(opts)
}

func (o tagOptions) has(option string) bool {
	for _, item := range strings.Split(string(o), ",") {
		if item == option {
			return true
		}
	}
	return false
}
