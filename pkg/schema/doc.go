// Package schema turns compact field declarations into strict JSON Schema
// documents suitable for checking API responses.
//
// A Compact maps field names to Field descriptors. Fields are immutable
// values built from constructors (Integer, String, Object, Array, ...) and
// modifiers that return copies (Nullable, Format, MinItems, ...):
//
//	var Task = schema.Compact{
//	    "id":      schema.Integer(),
//	    "name":    schema.String(),
//	    "project": schema.Integer(),
//	    "due":     schema.DateTime().Nullable(),
//	}
//
//	detail := schema.ObjectSchema(Task)
//	list := schema.ArraySchema(detail)
//
// ObjectSchema marks every declared field as required, forbids additional
// properties and strips the null type variant from fields that did not opt in
// with Nullable. ArraySchema requires at least one item. Build with Loose emits the plain schema without
// those constraints.
//
// Compact schemas can also be authored as YAML or JSON files (ParseCompact),
// derived from Go types (FromType, For) or inferred from a sample payload
// (Infer).
package schema
