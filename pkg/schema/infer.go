package schema

import (
	"math"
	"reflect"
	"time"

	"github.com/goccy/go-json"
)

// Infer derives a field from a decoded sample payload. Whole numbers become
// integers, RFC 3339 strings date-times and YYYY-MM-DD strings dates. Arrays
// take their item shape from the first non-null element and become nullable
// items when any element is null. A null sample yields a nullable string,
// the most common shape of an unset optional field.
func Infer(value any) Field {
	switch v := value.(type) {
	case nil:
		return String().Nullable()
	case bool:
		return Boolean()
	case json.Number:
		if _, err := v.Int64(); err == nil {
			return Integer()
		}
		return Number()
	case float64:
		if v == math.Trunc(v) && !math.IsInf(v, 0) {
			return Integer()
		}
		return Number()
	case float32:
		return Infer(float64(v))
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return Integer()
	case string:
		return inferString(v)
	case []any:
		return inferArray(v)
	case map[string]any:
		fields := make(Compact, len(v))
		for name, nested := range v {
			fields[name] = Infer(nested)
		}
		return Object(fields)
	default:
		return FromType(reflect.TypeOf(value))
	}
}

func inferString(v string) Field {
	if _, err := time.Parse(time.RFC3339Nano, v); err == nil {
		return DateTime()
	}
	if _, err := time.Parse(time.DateOnly, v); err == nil {
		return Date()
	}
	return String()
}

func inferArray(values []any) Field {
	var (
		item    Field
		found   bool
		sawNull bool
	)
	for _, value := range values {
		if value == nil {
			sawNull = true
			continue
		}
		if !found {
			item = Infer(value)
			found = true
		}
	}
	switch {
	case !found && sawNull:
		item = Null()
	case sawNull:
		item = item.Nullable()
	}
	return Array(item)
}
