package validation

import (
	"errors"
	"regexp"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Issue is a single violated keyword.
type Issue struct {
	// Path is the JSON pointer of the offending instance ("" for the root).
	Path string `json:"path"`
	// Field renders Path as a dotted name with [n] indices. Missing and
	// unexpected properties are reported on the property itself.
	Field   string `json:"field,omitempty"`
	Keyword string `json:"keyword,omitempty"`
	Message string `json:"message"`
}

// Result is the outcome of Validator.Check.
type Result struct {
	Valid  bool    `json:"valid"`
	Issues []Issue `json:"issues,omitempty"`
}

// Error reports a payload that does not match its schema.
type Error struct {
	Issues []Issue
	cause  error
}

func (e *Error) Error() string {
	if e == nil || len(e.Issues) == 0 {
		return "validation: payload does not match schema"
	}
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		field := issue.Field
		if field == "" {
			field = "(root)"
		}
		parts = append(parts, field+": "+issue.Message)
	}
	return "validation: " + strings.Join(parts, "; ")
}

// Unwrap exposes the underlying *jsonschema.ValidationError.
func (e *Error) Unwrap() error {
	return e.cause
}

// AsError extracts an *Error from err.
func AsError(err error) (*Error, bool) {
	var verr *Error
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}

func newError(cause *jsonschema.ValidationError) *Error {
	var issues []Issue
	collectIssues(cause, &issues)
	sort.SliceStable(issues, func(i, j int) bool {
		if issues[i].Path != issues[j].Path {
			return issues[i].Path < issues[j].Path
		}
		return issues[i].Keyword < issues[j].Keyword
	})
	return &Error{Issues: issues, cause: cause}
}

func collectIssues(err *jsonschema.ValidationError, into *[]Issue) {
	if err == nil {
		return
	}
	if len(err.Causes) > 0 {
		for _, cause := range err.Causes {
			collectIssues(cause, into)
		}
		return
	}

	keyword := lastSegment(err.KeywordLocation)
	field := fieldPathFromPointer(err.InstanceLocation)
	if keyword == "required" || keyword == "additionalProperties" {
		if names := quotedNames(err.Message); len(names) == 1 {
			field = joinField(field, names[0])
		}
	}
	*into = append(*into, Issue{
		Path:    err.InstanceLocation,
		Field:   field,
		Keyword: keyword,
		Message: strings.TrimSpace(err.Message),
	})
}

func lastSegment(pointer string) string {
	trimmed := strings.TrimRight(pointer, "/")
	if idx := strings.LastIndex(trimmed, "/"); idx >= 0 {
		return unescapePointer(trimmed[idx+1:])
	}
	return trimmed
}

var quotedName = regexp.MustCompile(`["']([^"']*)["']`)

func quotedNames(message string) []string {
	matches := quotedName.FindAllStringSubmatch(message, -1)
	out := make([]string, 0, len(matches))
	for _, match := range matches {
		out = append(out, match[1])
	}
	return out
}

// fieldPathFromPointer converts "/results/0/owner/name" into
// "results[0].owner.name".
func fieldPathFromPointer(pointer string) string {
	trimmed := strings.TrimPrefix(strings.TrimSpace(pointer), "#")
	trimmed = strings.TrimPrefix(trimmed, "/")
	if trimmed == "" {
		return ""
	}

	var field string
	for _, part := range strings.Split(trimmed, "/") {
		segment := unescapePointer(part)
		if isNumeric(segment) {
			field += "[" + segment + "]"
			continue
		}
		field = joinField(field, segment)
	}
	return field
}

func joinField(base, name string) string {
	if base == "" {
		return name
	}
	return base + "." + name
}

func unescapePointer(segment string) string {
	segment = strings.ReplaceAll(segment, "~1", "/")
	return strings.ReplaceAll(segment, "~0", "~")
}

func isNumeric(value string) bool {
	if value == "" {
		return false
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
