// Package scaffold infers compact schemas from sample API responses and
// optionally refines them through terminal prompts.
package scaffold

import (
	"context"
	"fmt"

	"github.com/goliatone/go-apismoke/pkg/schema"
)

// Shape describes the layout of the sampled response.
type Shape string

const (
	ShapeObject Shape = "object"
	ShapeList   Shape = "list"
	ShapePage   Shape = "page"
)

// Options configures Scaffold.
type Options struct {
	// ResultsKey names the page key holding the objects of a paginated
	// sample. Defaults to schema.DefaultResultsKey.
	ResultsKey string
	// Driver asks about nullability and string formats of every leaf. Nil
	// keeps the inferred fields.
	Driver PromptDriver
}

// Result is a scaffolded compact schema.
type Result struct {
	Shape   Shape
	Compact schema.Compact
}

var noFormat = "(none)"

var stringFormats = []string{
	noFormat,
	schema.FormatDateTime,
	schema.FormatDate,
	schema.FormatTime,
	schema.FormatEmail,
	schema.FormatURI,
	schema.FormatUUID,
}

// Scaffold infers the compact schema of the objects in sample, a decoded
// JSON document. Objects, arrays of objects and page envelopes (an object
// with a count and a results array) are recognised.
func Scaffold(ctx context.Context, sample any, opts Options) (Result, error) {
	resultsKey := opts.ResultsKey
	if resultsKey == "" {
		resultsKey = schema.DefaultResultsKey
	}

	var (
		shape Shape
		field schema.Field
	)
	switch v := sample.(type) {
	case map[string]any:
		if results, ok := v[resultsKey].([]any); ok && isPage(v) {
			shape = ShapePage
			field = itemOf(results)
		} else {
			shape = ShapeObject
			field = schema.Infer(v)
		}
	case []any:
		shape = ShapeList
		field = itemOf(v)
	default:
		return Result{}, ErrNotObject
	}

	switch field.Kind() {
	case schema.KindObject:
	case schema.KindAny:
		return Result{}, ErrEmptySample
	default:
		return Result{}, ErrNotObject
	}

	compact := field.Fields()
	if opts.Driver != nil {
		refined, err := refineCompact(ctx, opts.Driver, compact, "")
		if err != nil {
			return Result{}, err
		}
		compact = refined
	}
	return Result{Shape: shape, Compact: compact}, nil
}

func isPage(v map[string]any) bool {
	_, hasCount := v["count"]
	_, hasNext := v["next"]
	return hasCount && hasNext
}

func itemOf(values []any) schema.Field {
	item, _ := schema.Infer(values).Item()
	return item
}

func refineCompact(ctx context.Context, driver PromptDriver, c schema.Compact, prefix string) (schema.Compact, error) {
	out := make(schema.Compact, len(c))
	for _, name := range c.Keys() {
		path := name
		if prefix != "" {
			path = prefix + "." + name
		}
		refined, err := refineField(ctx, driver, c[name], path)
		if err != nil {
			return nil, err
		}
		out[name] = refined
	}
	return out, nil
}

func refineField(ctx context.Context, driver PromptDriver, f schema.Field, path string) (schema.Field, error) {
	switch f.Kind() {
	case schema.KindObject:
		fields, err := refineCompact(ctx, driver, f.Fields(), path)
		if err != nil {
			return schema.Field{}, err
		}
		return askNullable(ctx, driver, schema.Object(fields), f.IsNullable(), path)
	case schema.KindArray:
		item, ok := f.Item()
		if ok {
			refined, err := refineField(ctx, driver, item, path+"[]")
			if err != nil {
				return schema.Field{}, err
			}
			item = refined
		}
		return askNullable(ctx, driver, schema.Array(item), f.IsNullable(), path)
	case schema.KindPrimitive:
		names := withoutNull(f.TypeNames())
		if len(names) == 0 {
			return f, nil
		}
		base := schema.Types(names...)
		format := f.FormatName()
		if len(names) == 1 && names[0] == schema.TypeString && format == "" {
			idx, err := driver.Select(ctx, SelectConfig{
				Message: fmt.Sprintf("Format of %s?", path),
				Options: stringFormats,
			})
			if err != nil {
				return schema.Field{}, err
			}
			if idx > 0 {
				format = stringFormats[idx]
			}
		}
		if format != "" {
			base = base.Format(format)
		}
		return askNullable(ctx, driver, base, f.IsNullable(), path)
	default:
		return f, nil
	}
}

func askNullable(ctx context.Context, driver PromptDriver, f schema.Field, nullable bool, path string) (schema.Field, error) {
	ok, err := driver.Confirm(ctx, ConfirmConfig{
		Message: fmt.Sprintf("Can %s be null?", path),
		Default: nullable,
	})
	if err != nil {
		return schema.Field{}, err
	}
	if ok {
		return f.Nullable(), nil
	}
	return f, nil
}

func withoutNull(names []string) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		if name != schema.TypeNull {
			out = append(out, name)
		}
	}
	return out
}
