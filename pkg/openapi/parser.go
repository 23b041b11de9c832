package openapi

import "context"

// Parser turns OpenAPI documents into operations keyed by operationId.
type Parser interface {
	Operations(ctx context.Context, doc Document) (map[string]Operation, error)
}

// ParserOptions configures parsing.
type ParserOptions struct {
	// ResolveReferences allows external $refs and validates the document
	// once loaded. Defaults to true.
	ResolveReferences bool

	// AllowPartialDocuments accepts documents without paths or operations.
	AllowPartialDocuments bool

	// MediaTypes lists the response content types inspected, in order. The
	// first match wins; defaults to JSON variants.
	MediaTypes []string
}

// ParserOption mutates ParserOptions.
type ParserOption func(*ParserOptions)

// WithReferenceResolution toggles reference resolution and validation.
func WithReferenceResolution(enabled bool) ParserOption {
	return func(opts *ParserOptions) {
		opts.ResolveReferences = enabled
	}
}

// WithPartialDocuments toggles support for documents without operations.
func WithPartialDocuments(enabled bool) ParserOption {
	return func(opts *ParserOptions) {
		opts.AllowPartialDocuments = enabled
	}
}

// WithMediaTypes replaces the inspected response content types.
func WithMediaTypes(mediaTypes ...string) ParserOption {
	return func(opts *ParserOptions) {
		opts.MediaTypes = append([]string(nil), mediaTypes...)
	}
}

// NewParserOptions applies options over the defaults.
func NewParserOptions(options ...ParserOption) ParserOptions {
	cfg := ParserOptions{
		ResolveReferences: true,
		MediaTypes:        []string{"application/json", "application/problem+json", "application/vnd.api+json"},
	}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}
