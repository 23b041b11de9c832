package apitest

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Well known route suffixes.
const (
	SuffixList   = "list"
	SuffixDetail = "detail"
)

// DefaultDetailArg names the path argument carrying the object key.
const DefaultDetailArg = "pk"

// Default path patterns relative to Routes.Prefix.
const (
	ListPattern         = "/{basename}/"
	DetailPattern       = "/{basename}/{pk}/"
	ListActionPattern   = "/{basename}/{action}/"
	DetailActionPattern = "/{basename}/{pk}/{action}/"
)

var placeholderRE = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Routes resolves endpoint paths for a resource. Patterns may reference
// {basename}, {action} and any path argument by name.
type Routes struct {
	Prefix    string
	Basename  string
	DetailArg string
	// Patterns overrides the path pattern for a suffix.
	Patterns map[string]string
}

func (r Routes) detailArg() string {
	if r.DetailArg == "" {
		return DefaultDetailArg
	}
	return r.DetailArg
}

// Pattern returns the path pattern used for suffix. Actions resolve to the
// detail action pattern when detail is set, the list action pattern
// otherwise.
func (r Routes) Pattern(suffix string, detail bool) string {
	if pattern, ok := r.Patterns[suffix]; ok {
		return pattern
	}
	arg := "{" + r.detailArg() + "}"
	switch {
	case suffix == SuffixList:
		return ListPattern
	case suffix == SuffixDetail:
		return strings.ReplaceAll(DetailPattern, "{pk}", arg)
	case detail:
		return strings.ReplaceAll(DetailActionPattern, "{pk}", arg)
	default:
		return ListActionPattern
	}
}

// Path expands the pattern for suffix with args. Every placeholder must be
// resolved; values are path escaped.
func (r Routes) Path(suffix string, detail bool, args map[string]string) (string, error) {
	if strings.TrimSpace(r.Basename) == "" {
		return "", fmt.Errorf("apitest: routes: basename is required")
	}
	values := map[string]string{
		"basename": r.Basename,
		"action":   suffix,
	}
	for key, value := range args {
		values[key] = url.PathEscape(value)
	}

	var missing []string
	path := placeholderRE.ReplaceAllStringFunc(r.Pattern(suffix, detail), func(match string) string {
		name := match[1 : len(match)-1]
		value, ok := values[name]
		if !ok {
			missing = append(missing, name)
			return match
		}
		return value
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("apitest: routes: %s: missing path argument(s) %s", suffix, strings.Join(missing, ", "))
	}
	return strings.TrimRight(r.Prefix, "/") + path, nil
}
