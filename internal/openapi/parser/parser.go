package parser

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	pkgopenapi "github.com/goliatone/go-formsubmit/pkg/openapi"
)

// Parser implements pkgopenapi.Parser using kin-openapi.
type Parser struct {
	options pkgopenapi.ParserOptions
}

var _ pkgopenapi.Parser = (*Parser)(nil)

// New constructs a Parser with the given options.
func New(options ...pkgopenapi.ParserOption) *Parser {
	return &Parser{options: pkgopenapi.NewParserOptions(options...)}
}

// Operations loads raw and extracts every operation with a JSON request body.
func (p *Parser) Operations(ctx context.Context, raw []byte) (map[string]pkgopenapi.Operation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, errors.New("openapi parser: document payload is empty")
	}

	loader := openapi3.NewLoader()
	loader.Context = ctx
	doc, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("openapi parser: load document: %w", err)
	}
	if p.options.Validate {
		if err := doc.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
			return nil, fmt.Errorf("openapi parser: validate: %w", err)
		}
	}
	if doc.Paths == nil || doc.Paths.Len() == 0 {
		return nil, errors.New("openapi parser: document does not contain any paths")
	}

	globalAuth := len(doc.Security) > 0
	operations := make(map[string]pkgopenapi.Operation)
	for path, item := range doc.Paths.Map() {
		if item == nil {
			continue
		}
		collect(operations, http.MethodPost, path, item.Post, globalAuth)
		collect(operations, http.MethodPut, path, item.Put, globalAuth)
		collect(operations, http.MethodPatch, path, item.Patch, globalAuth)
	}
	if len(operations) == 0 {
		return nil, errors.New("openapi parser: no operations extracted")
	}
	return operations, nil
}

func collect(target map[string]pkgopenapi.Operation, method, path string, op *openapi3.Operation, globalAuth bool) {
	if op == nil {
		return
	}
	id := op.OperationID
	if id == "" {
		id = strings.ToLower(method) + ":" + path
	}

	requiresAuth := globalAuth
	if op.Security != nil {
		requiresAuth = len(*op.Security) > 0
	}

	target[id] = pkgopenapi.Operation{
		ID:           id,
		Method:       method,
		Path:         path,
		Summary:      op.Summary,
		RequiresAuth: requiresAuth,
		Fields:       requestFields(op.RequestBody),
	}
}

func requestFields(body *openapi3.RequestBodyRef) []pkgopenapi.FieldSchema {
	if body == nil || body.Value == nil {
		return nil
	}
	media := body.Value.Content.Get("application/json")
	if media == nil || media.Schema == nil || media.Schema.Value == nil {
		return nil
	}
	schema := media.Schema.Value

	required := make(map[string]bool, len(schema.Required))
	for _, name := range schema.Required {
		required[name] = true
	}

	fields := make([]pkgopenapi.FieldSchema, 0, len(schema.Properties))
	for name, ref := range schema.Properties {
		field := pkgopenapi.FieldSchema{
			Name:     name,
			Required: required[name],
		}
		if ref != nil && ref.Value != nil {
			field.Type = firstSchemaType(ref.Value.Type)
			field.Format = ref.Value.Format
			field.Description = ref.Value.Description
			field.MinLength = int(ref.Value.MinLength)
		}
		fields = append(fields, field)
	}
	pkgopenapi.SortFields(fields)
	return fields
}

func firstSchemaType(types *openapi3.Types) string {
	if types == nil {
		return ""
	}
	for _, t := range types.Slice() {
		if t != "null" {
			return t
		}
	}
	return ""
}
