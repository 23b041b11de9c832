package validation

import (
	"bytes"
	"errors"
	"fmt"
	"sync"

	"github.com/goccy/go-json"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/goliatone/go-apismoke/pkg/schema"
)

const resourceName = "schema.json"

// Options configures a Validator.
type Options struct {
	Draft        *jsonschema.Draft
	AssertFormat bool
	Cache        bool
}

// Option mutates Options.
type Option func(*Options)

// WithDraft selects the JSON Schema draft used to interpret schemas.
func WithDraft(draft *jsonschema.Draft) Option {
	return func(opts *Options) {
		opts.Draft = draft
	}
}

// WithFormatAssertions toggles whether "format" is asserted or only
// annotated. Assertions are on by default.
func WithFormatAssertions(enabled bool) Option {
	return func(opts *Options) {
		opts.AssertFormat = enabled
	}
}

// WithCache keeps compiled schemas keyed by their encoding.
func WithCache() Option {
	return func(opts *Options) {
		opts.Cache = true
	}
}

// NewOptions applies options over the defaults.
func NewOptions(options ...Option) Options {
	cfg := Options{
		Draft:        jsonschema.Draft2020,
		AssertFormat: true,
	}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// Validator compiles schemas and validates payloads against them. It is
// safe for concurrent use.
type Validator struct {
	options Options

	mu    sync.Mutex
	cache map[string]*jsonschema.Schema
}

// New constructs a Validator.
func New(options ...Option) *Validator {
	cfg := NewOptions(options...)
	v := &Validator{options: cfg}
	if cfg.Cache {
		v.cache = make(map[string]*jsonschema.Schema)
	}
	return v
}

var defaultValidator = New()

// Validate checks value against s with the default validator.
func Validate(s schema.Schema, value any) error {
	return defaultValidator.Validate(s, value)
}

// ValidateJSON decodes raw and checks it against s with the default
// validator.
func ValidateJSON(s schema.Schema, raw []byte) error {
	return defaultValidator.ValidateJSON(s, raw)
}

// Compile turns s into a validator schema.
func (v *Validator) Compile(s schema.Schema) (*jsonschema.Schema, error) {
	encoded, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("validation: marshal schema: %w", err)
	}

	if v.cache != nil {
		v.mu.Lock()
		compiled, ok := v.cache[string(encoded)]
		v.mu.Unlock()
		if ok {
			return compiled, nil
		}
	}

	compiler := jsonschema.NewCompiler()
	compiler.Draft = v.options.Draft
	compiler.AssertFormat = v.options.AssertFormat
	if err := compiler.AddResource(resourceName, bytes.NewReader(encoded)); err != nil {
		return nil, fmt.Errorf("validation: add schema resource: %w", err)
	}
	compiled, err := compiler.Compile(resourceName)
	if err != nil {
		return nil, fmt.Errorf("validation: compile schema: %w", err)
	}

	if v.cache != nil {
		v.mu.Lock()
		v.cache[string(encoded)] = compiled
		v.mu.Unlock()
	}
	return compiled, nil
}

// Validate checks value against s. Values that are not already decoded JSON
// (structs, typed slices, raw bytes) are normalised through an encoding
// round trip. A mismatch is returned as *Error.
func (v *Validator) Validate(s schema.Schema, value any) error {
	compiled, err := v.Compile(s)
	if err != nil {
		return err
	}
	instance, err := normalize(value)
	if err != nil {
		return err
	}
	if err := compiled.Validate(instance); err != nil {
		var verr *jsonschema.ValidationError
		if errors.As(err, &verr) {
			return newError(verr)
		}
		return fmt.Errorf("validation: %w", err)
	}
	return nil
}

// ValidateJSON decodes raw and validates it against s.
func (v *Validator) ValidateJSON(s schema.Schema, raw []byte) error {
	instance, err := Decode(raw)
	if err != nil {
		return err
	}
	return v.Validate(s, instance)
}

// Check validates raw and reports the outcome as a Result. Decoding and
// compilation failures become a single root issue.
func (v *Validator) Check(s schema.Schema, raw []byte) Result {
	err := v.ValidateJSON(s, raw)
	if err == nil {
		return Result{Valid: true}
	}
	if verr, ok := AsError(err); ok {
		return Result{Issues: append([]Issue(nil), verr.Issues...)}
	}
	return Result{Issues: []Issue{{Message: err.Error()}}}
}

// Decode parses a JSON document keeping numbers as json.Number so integer
// checks are exact.
func Decode(raw []byte) (any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, errors.New("validation: payload is empty")
	}
	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.UseNumber()
	var out any
	if err := decoder.Decode(&out); err != nil {
		return nil, fmt.Errorf("validation: decode payload: %w", err)
	}
	if decoder.More() {
		return nil, errors.New("validation: payload has trailing data")
	}
	return out, nil
}

func normalize(value any) (any, error) {
	switch v := value.(type) {
	case nil, bool, string, json.Number, float64, []any, map[string]any:
		return v, nil
	case []byte:
		return Decode(v)
	case json.RawMessage:
		return Decode(v)
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("validation: encode value: %w", err)
	}
	return Decode(encoded)
}
