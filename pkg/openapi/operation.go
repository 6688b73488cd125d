// Package openapi exposes the public contract for reading the backend's
// OpenAPI description. The kin-openapi implementation lives under
// internal/openapi/parser.
package openapi

import (
	"context"
	"sort"
)

// FieldSchema is one property of an operation's JSON request body.
type FieldSchema struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Format      string `json:"format,omitempty"`
	Required    bool   `json:"required"`
	MinLength   int    `json:"minLength,omitempty"`
	Description string `json:"description,omitempty"`
}

// Operation is the subset of an OpenAPI operation a form needs.
type Operation struct {
	ID           string        `json:"id"`
	Method       string        `json:"method"`
	Path         string        `json:"path"`
	Summary      string        `json:"summary,omitempty"`
	RequiresAuth bool          `json:"requiresAuth,omitempty"`
	Fields       []FieldSchema `json:"fields,omitempty"`
}

// Field looks up a request property by name.
func (o Operation) Field(name string) (FieldSchema, bool) {
	for _, f := range o.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSchema{}, false
}

// SortFields orders fields by name so output is deterministic.
func SortFields(fields []FieldSchema) {
	sort.Slice(fields, func(i, j int) bool { return fields[i].Name < fields[j].Name })
}

// Parser turns a raw OpenAPI document into operations keyed by operationId.
type Parser interface {
	Operations(ctx context.Context, raw []byte) (map[string]Operation, error)
}

// ParserOptions holds parser toggles.
type ParserOptions struct {
	// Validate runs the kin-openapi document validator before extracting
	// operations.
	Validate bool
}

// ParserOption mutates ParserOptions during construction.
type ParserOption func(*ParserOptions)

// WithValidation toggles document validation.
func WithValidation(enabled bool) ParserOption {
	return func(opts *ParserOptions) {
		opts.Validate = enabled
	}
}

// NewParserOptions applies options over the defaults (validation on).
func NewParserOptions(options ...ParserOption) ParserOptions {
	cfg := ParserOptions{Validate: true}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}
