package main

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-formsubmit"
	"github.com/goliatone/go-formsubmit/internal/openapi/loader"
	"github.com/goliatone/go-formsubmit/internal/openapi/parser"
	"github.com/goliatone/go-formsubmit/pkg/forms"
	"github.com/goliatone/go-formsubmit/pkg/model"
	pkgopenapi "github.com/goliatone/go-formsubmit/pkg/openapi"
)

type violation struct {
	form    string
	message string
}

// check verifies that the forms this CLI submits still line up with a
// backend contract, typically the live /openapi.json.
func (a *app) check(ctx context.Context, args []string) int {
	flags := a.newFlagSet("check")
	contract := flags.String("contract", "", "contract path or URL (default <base-url>/openapi.json)")
	validate := flags.Bool("validate", true, "validate the contract document before checking")
	if err := flags.Parse(args); err != nil {
		return exitUsage
	}

	location := strings.TrimSpace(*contract)
	if location == "" {
		location = strings.TrimRight(a.cfg.BaseURL, "/") + "/openapi.json"
	}
	raw, err := loader.New(loader.WithTimeout(a.cfg.Timeout)).Load(ctx, location)
	if err != nil {
		fmt.Fprintf(a.stderr, "check %s: %v\n", location, err)
		return exitFailure
	}
	operations, err := parser.New(pkgopenapi.WithValidation(*validate)).Operations(ctx, raw)
	if err != nil {
		fmt.Fprintf(a.stderr, "check %s: %v\n", location, err)
		return exitFailure
	}

	registry, err := formsubmit.LoadForms(ctx, a.cfg.FormsDir)
	if err != nil {
		fmt.Fprintf(a.stderr, "formsubmit: %v\n", err)
		return exitFailure
	}

	violations := lintForms(registry, operations)
	if len(violations) > 0 {
		for _, v := range violations {
			fmt.Fprintf(a.stderr, "%s: %s\n", v.form, v.message)
		}
		return exitFailure
	}
	fmt.Fprintf(a.stdout, "%d forms match %s\n", len(registry.List()), location)
	return exitOK
}

// matchOperation finds the contract operation a form posts to. Contracts
// generated by the backend framework carry their own operationIds, so the
// form's method and endpoint are tried when the id is unknown.
func matchOperation(spec model.FormSpec, operations map[string]pkgopenapi.Operation) (pkgopenapi.Operation, bool) {
	if op, ok := operations[spec.ID]; ok {
		return op, true
	}
	method := spec.HTTPMethod()
	for _, op := range operations {
		if strings.EqualFold(op.Method, method) && op.Path == spec.Endpoint {
			return op, true
		}
	}
	return pkgopenapi.Operation{}, false
}

func lintForms(registry *forms.Registry, operations map[string]pkgopenapi.Operation) []violation {
	var result []violation
	for _, id := range registry.List() {
		spec, _ := registry.Get(id)
		op, ok := matchOperation(spec, operations)
		if !ok {
			result = append(result, violation{
				form:    id,
				message: fmt.Sprintf("no contract operation for %s %s", spec.HTTPMethod(), spec.Endpoint),
			})
			continue
		}
		if spec.Endpoint != op.Path {
			result = append(result, violation{
				form:    id,
				message: fmt.Sprintf("endpoint %s differs from contract path %s", spec.Endpoint, op.Path),
			})
		}
		for _, field := range spec.Fields {
			schema, ok := op.Field(field.Name)
			if !ok {
				result = append(result, violation{
					form:    id,
					message: fmt.Sprintf("field %q is not in the contract request body", field.Name),
				})
				continue
			}
			if schema.Required && !field.Required {
				result = append(result, violation{
					form:    id,
					message: fmt.Sprintf("field %q is required by the contract", field.Name),
				})
			}
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].form == result[j].form {
			return result[i].message < result[j].message
		}
		return result[i].form < result[j].form
	})
	return result
}
