package schema

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// Source identifies where a compact schema or contract document came from.
// Loaders dispatch on Kind and resolve Location.
type Source interface {
	Kind() SourceKind
	Location() string
}

// SourceKind enumerates the supported origins.
type SourceKind string

const (
	SourceKindFile SourceKind = "file"
	SourceKindFS   SourceKind = "fs"
	SourceKindURL  SourceKind = "url"
)

type location struct {
	kind  SourceKind
	value string
}

func (l location) Kind() SourceKind { return l.kind }

func (l location) Location() string { return l.value }

func (l location) String() string { return string(l.kind) + ":" + l.value }

// SourceFromFile points at a path on disk.
func SourceFromFile(path string) Source {
	return location{kind: SourceKindFile, value: filepath.Clean(path)}
}

// SourceFromFS points at an entry of the loader's fs.FS.
func SourceFromFS(name string) Source {
	return location{kind: SourceKindFS, value: strings.TrimPrefix(name, "/")}
}

// SourceFromURL points at an HTTP(S) endpoint. It panics on an invalid URL
// so that misconfigured fixtures fail loudly.
func SourceFromURL(raw string) Source {
	src, err := parseURLSource(raw)
	if err != nil {
		panic(err)
	}
	return src
}

// ParseSource picks the source kind from a command line style reference:
// http and https URLs become URL sources, "fs:" prefixed names become fs.FS
// entries, and anything else is treated as a file path.
func ParseSource(raw string) (Source, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("schema: empty source reference")
	}
	lower := strings.ToLower(trimmed)
	switch {
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return parseURLSource(trimmed)
	case strings.HasPrefix(lower, "fs:"):
		return SourceFromFS(trimmed[len("fs:"):]), nil
	default:
		return SourceFromFile(trimmed), nil
	}
}

func parseURLSource(raw string) (Source, error) {
	if raw == "" {
		return nil, fmt.Errorf("schema: empty URL source")
	}
	parsed, err := url.ParseRequestURI(raw)
	if err != nil {
		return nil, fmt.Errorf("schema: invalid URL %q: %w", raw, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("schema: unsupported URL scheme %q", parsed.Scheme)
	}
	return location{kind: SourceKindURL, value: raw}, nil
}
