package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goliatone/go-apismoke"
	pkgopenapi "github.com/goliatone/go-apismoke/pkg/openapi"
	"github.com/goliatone/go-apismoke/pkg/schema"
)

type violation struct {
	file     string
	location string
	message  string
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(paths []string) int {
	if len(paths) == 0 {
		fmt.Fprintf(os.Stderr, "Usage: %s <openapi documents...>\n", filepath.Base(os.Args[0]))
		fmt.Fprintln(os.Stderr, "\nReport response schemas that strict checks cannot meaningfully enforce.")
		return 2
	}

	ctx := context.Background()
	parser := apismoke.NewParser(pkgopenapi.WithPartialDocuments(true))

	var violations []violation
	for _, path := range paths {
		linted, err := lintFile(ctx, parser, path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "lint %s: %v\n", path, err)
			return 2
		}
		violations = append(violations, linted...)
	}

	if len(violations) == 0 {
		return 0
	}
	sortViolations(violations)
	for _, v := range violations {
		fmt.Fprintf(os.Stderr, "%s: %s -> %s\n", v.file, v.location, v.message)
	}
	return 1
}

func sortViolations(violations []violation) {
	sort.Slice(violations, func(i, j int) bool {
		if violations[i].file == violations[j].file {
			if violations[i].location == violations[j].location {
				return violations[i].message < violations[j].message
			}
			return violations[i].location < violations[j].location
		}
		return violations[i].file < violations[j].file
	})
}

func lintFile(ctx context.Context, parser pkgopenapi.Parser, path string) ([]violation, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	doc, err := schema.NewDocument(schema.SourceFromFile(path), raw)
	if err != nil {
		return nil, fmt.Errorf("construct document: %w", err)
	}

	operations, err := parser.Operations(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("parse operations: %w", err)
	}

	var result []violation
	for id, op := range operations {
		base := []string{"operation", id}
		if op.Method == http.MethodGet && !hasSuccessSchema(op) {
			result = append(result, violation{
				file:     path,
				location: formatLocation(base),
				message:  "no JSON schema documented for a 2XX response",
			})
		}
		for _, code := range op.StatusCodes() {
			next := appendPath(base, "responses", code)
			result = append(result, lintSchema(path, next, op.Responses[code])...)
		}
	}

	return result, nil
}

func hasSuccessSchema(op pkgopenapi.Operation) bool {
	for _, code := range op.StatusCodes() {
		if strings.HasPrefix(code, "2") {
			return true
		}
	}
	return false
}

var compositionKeywords = []string{"allOf", "anyOf", "oneOf"}

func lintSchema(file string, path []string, s schema.Schema) []violation {
	var result []violation
	report := func(message string) {
		result = append(result, violation{file: file, location: formatLocation(path), message: message})
	}

	if ref, ok := s.Extra["$ref"].(string); ok {
		report(fmt.Sprintf("unresolved reference %q", ref))
		return result
	}

	composed := false
	for _, keyword := range compositionKeywords {
		branches, ok := s.Extra[keyword].([]any)
		if !ok {
			continue
		}
		composed = true
		for i, branch := range branches {
			nested, ok := branch.(schema.Schema)
			if !ok {
				continue
			}
			result = append(result, lintSchema(file, appendPath(path, fmt.Sprintf("%s[%d]", keyword, i)), nested)...)
		}
	}

	_, mapLike := s.Extra["additionalProperties"]
	switch {
	case len(s.Type) == 0 && !composed && len(s.Properties) == 0:
		report("schema declares no type; any value passes")
	case s.Type.Has(schema.TypeObject) && len(s.Properties) == 0 && !mapLike && s.AdditionalProperties == nil:
		report("object declares no properties; strict checks only accept {}")
	case s.Type.Has(schema.TypeArray) && s.Items == nil:
		report("array declares no items")
	}

	if len(s.Properties) > 0 {
		for _, key := range s.PropertyNames() {
			next := appendPath(path, "properties."+key)
			result = append(result, lintSchema(file, next, s.Properties[key])...)
		}
	}

	if s.Items != nil {
		result = append(result, lintSchema(file, appendPath(path, "items"), *s.Items)...)
	}

	return result
}

func appendPath(path []string, segments ...string) []string {
	next := append([]string(nil), path...)
	next = append(next, segments...)
	return next
}

func formatLocation(path []string) string {
	return strings.Join(path, " > ")
}
