package schema

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestTypesNormalisesNames(t *testing.T) {
	got := Types(" String", "null", "string", "", "INTEGER").TypeNames()
	if diff := cmp.Diff([]string{"integer", "null", "string"}, got); diff != "" {
		t.Fatalf("type names mismatch (-want +got):\n%s", diff)
	}
}

func TestModifiersReturnCopies(t *testing.T) {
	base := String()
	nullable := base.Nullable()
	formatted := base.Format(FormatUUID)

	if base.IsNullable() || base.FormatName() != "" {
		t.Fatalf("modifier mutated the receiver")
	}
	if !nullable.IsNullable() {
		t.Fatalf("expected nullable copy")
	}
	if formatted.FormatName() != FormatUUID {
		t.Fatalf("expected uuid format, got %q", formatted.FormatName())
	}
}

func TestAnyOf(t *testing.T) {
	cases := []struct {
		name  string
		field Field
		want  Schema
	}{
		{
			name:  "primitives merge",
			field: AnyOf(Integer(), String()),
			want:  Schema{Type: TypeSet{TypeInteger, TypeString}},
		},
		{
			name:  "plain string drops formats",
			field: AnyOf(String(), DateTime()),
			want:  Schema{Type: TypeSet{TypeString}},
		},
		{
			name:  "single format kept",
			field: AnyOf(DateTime(), Integer()),
			want:  Schema{Type: TypeSet{TypeInteger, TypeString}, Format: FormatDateTime},
		},
		{
			name:  "conflicting formats dropped",
			field: AnyOf(Date(), DateTime()),
			want:  Schema{Type: TypeSet{TypeString}},
		},
		{
			name:  "nullable variant",
			field: AnyOf(Integer(), Number().Nullable()),
			want:  Schema{Type: TypeSet{TypeInteger, TypeNull, TypeNumber}},
		},
		{
			name:  "null variant stripped in strict mode",
			field: AnyOf(Integer(), Null()),
			want:  Schema{Type: TypeSet{TypeInteger}},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if diff := cmp.Diff(tc.want, Build(tc.field)); diff != "" {
				t.Fatalf("schema mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestAnyOfWithComposites(t *testing.T) {
	field := AnyOf(Object(Compact{"id": Integer()}), String())
	if field.Kind() != KindUnion {
		t.Fatalf("expected union, got %s", field.Kind())
	}

	got := Build(field)
	branches, ok := got.Extra["anyOf"].([]any)
	if !ok || len(branches) != 2 {
		t.Fatalf("expected two anyOf branches, got %#v", got.Extra)
	}
	object, ok := branches[0].(Schema)
	if !ok || !object.Type.Only(TypeObject) || object.AdditionalProperties == nil {
		t.Fatalf("expected strict object branch, got %#v", branches[0])
	}

	encoded, err := got.Map()
	if err != nil {
		t.Fatalf("map: %v", err)
	}
	if _, ok := encoded["anyOf"]; !ok {
		t.Fatalf("expected anyOf keyword in encoded schema: %v", encoded)
	}

	single := AnyOf(Array(Integer()))
	if single.Kind() != KindArray {
		t.Fatalf("expected single composite to be returned as is, got %s", single.Kind())
	}
}

func TestCompactHelpers(t *testing.T) {
	base := Compact{"id": Integer(), "name": String()}

	extended := base.With("slug", String())
	trimmed := base.Without("name")
	merged := base.Merge(Compact{"name": String().Nullable()})

	if len(base) != 2 {
		t.Fatalf("base compact mutated: %v", base.Keys())
	}
	if diff := cmp.Diff([]string{"id", "name", "slug"}, extended.Keys()); diff != "" {
		t.Fatalf("With mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"id"}, trimmed.Keys()); diff != "" {
		t.Fatalf("Without mismatch (-want +got):\n%s", diff)
	}
	if !merged["name"].IsNullable() {
		t.Fatalf("expected Merge to prefer the argument")
	}
	if diff := cmp.Diff([]string{"x"}, Compact(nil).With("x", Integer()).Keys()); diff != "" {
		t.Fatalf("With on nil compact mismatch (-want +got):\n%s", diff)
	}
}
