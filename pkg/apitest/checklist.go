package apitest

import (
	"sort"
	"testing"
)

// Check names a single API test.
type Check string

// Checks maps checks to their implementations.
type Checks map[Check]func(t *testing.T)

const (
	CheckAuthorization Check = "authorization"

	CheckReadPermissions    Check = "read_permissions"
	CheckListDefaultFilters Check = "list_default_filters"

	CheckListFilterParams    Check = "list_filter_params"
	CheckListOrderingParams  Check = "list_ordering_params"
	CheckListDefaultOrdering Check = "list_default_ordering"
	CheckListFormat          Check = "list_format"
	CheckObjectListSmoke     Check = "object_list_smoke"

	CheckDetailFormat         Check = "detail_format"
	CheckRetrieveObjectSmoke  Check = "retrieve_object_smoke"
	CheckCreateNotAllowed     Check = "create_not_allowed"
	CheckUpdateNotAllowed     Check = "update_not_allowed"
	CheckDeleteNotAllowed     Check = "delete_not_allowed"
	CheckCreatePermissions    Check = "create_permissions"
	CheckCreateValidation     Check = "create_validation"
	CheckCreateFormat         Check = "create_format"
	CheckCreateObjectSmoke    Check = "create_object_smoke"
	CheckUpdatePermissions    Check = "update_permissions"
	CheckFullUpdateValidation Check = "full_update_validation"
	CheckFullUpdateFormat     Check = "full_update_format"
	CheckFullUpdateSmoke      Check = "full_update_smoke"
	CheckFullUpdateReadOnly   Check = "full_update_read_only_fields"

	CheckPartialUpdateValidation Check = "partial_update_validation"
	CheckPartialUpdateReadOnly   Check = "partial_update_read_only_fields"
	CheckPartialUpdateFormat     Check = "partial_update_format"
	CheckPartialUpdateSmoke      Check = "partial_update_smoke"

	CheckDeletePermissions Check = "delete_permissions"
	CheckDeleteObjectSmoke Check = "delete_object_smoke"
)

// Checklist is an ordered set of checks an API of some kind should have.
type Checklist struct {
	Name   string
	Checks []Check
}

// Compose joins checklists into one, dropping duplicate checks.
func Compose(name string, lists ...Checklist) Checklist {
	seen := make(map[Check]bool)
	out := Checklist{Name: name}
	for _, list := range lists {
		for _, check := range list.Checks {
			if seen[check] {
				continue
			}
			seen[check] = true
			out.Checks = append(out.Checks, check)
		}
	}
	return out
}

// Has reports whether check belongs to the list.
func (c Checklist) Has(check Check) bool {
	for _, item := range c.Checks {
		if item == check {
			return true
		}
	}
	return false
}

var (
	CommonAPI = Checklist{Name: "common", Checks: []Check{CheckAuthorization}}

	ReadAPI = Compose("read", CommonAPI, Checklist{Checks: []Check{
		CheckReadPermissions,
		CheckListDefaultFilters,
	}})

	ListAPI = Compose("list", ReadAPI, Checklist{Checks: []Check{
		CheckListFilterParams,
		CheckListOrderingParams,
		CheckListDefaultOrdering,
		CheckListFormat,
		CheckObjectListSmoke,
	}})

	RetrieveAPI = Compose("retrieve", ReadAPI, Checklist{Checks: []Check{
		CheckDetailFormat,
		CheckRetrieveObjectSmoke,
	}})

	ReadOnlyAPI = Compose("read-only", ReadAPI, Checklist{Checks: []Check{
		CheckCreateNotAllowed,
		CheckUpdateNotAllowed,
		CheckDeleteNotAllowed,
	}})

	CreateAPI = Compose("create", CommonAPI, Checklist{Checks: []Check{
		CheckCreatePermissions,
		CheckCreateValidation,
		CheckCreateFormat,
		CheckCreateObjectSmoke,
	}})

	UpdateAPI = Compose("update", CommonAPI, Checklist{Checks: []Check{
		CheckUpdatePermissions,
	}})

	FullUpdateAPI = Compose("full-update", UpdateAPI, Checklist{Checks: []Check{
		CheckFullUpdateValidation,
		CheckFullUpdateFormat,
		CheckFullUpdateSmoke,
		CheckFullUpdateReadOnly,
	}})

	PartialUpdateAPI = Compose("partial-update", UpdateAPI, Checklist{Checks: []Check{
		CheckPartialUpdateValidation,
		CheckPartialUpdateReadOnly,
		CheckPartialUpdateFormat,
		CheckPartialUpdateSmoke,
	}})

	DeleteAPI = Compose("delete", CommonAPI, Checklist{Checks: []Check{
		CheckDeletePermissions,
		CheckDeleteObjectSmoke,
	}})

	CompleteAPI = Compose("complete", CreateAPI, RetrieveAPI, FullUpdateAPI, PartialUpdateAPI, DeleteAPI, ListAPI)
)

// Merge combines check implementations. Later maps win.
func Merge(sets ...Checks) Checks {
	out := make(Checks)
	for _, set := range sets {
		for check, fn := range set {
			out[check] = fn
		}
	}
	return out
}

// RunChecklist runs every check of list as a subtest. Checks without an
// implementation are skipped; implementations for checks outside the list
// fail t.
func RunChecklist(t *testing.T, list Checklist, impl Checks) {
	t.Helper()

	var unknown []string
	for check := range impl {
		if !list.Has(check) {
			unknown = append(unknown, string(check))
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		t.Errorf("%s checklist: unknown checks %v", list.Name, unknown)
	}

	for _, check := range list.Checks {
		fn := impl[check]
		t.Run(string(check), func(t *testing.T) {
			if fn == nil {
				t.Skip("implement me")
			}
			fn(t)
		})
	}
}
