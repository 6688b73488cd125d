package forms

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-formsubmit/pkg/model"
	pkgopenapi "github.com/goliatone/go-formsubmit/pkg/openapi"
)

var (
	errFormIDMissing     = errors.New("forms: form id is required")
	errFormEndpoint      = errors.New("forms: endpoint is required")
	errFormTargetMissing = errors.New("forms: action requires a navigation target")
)

// Build merges a contract operation with its overlay. Overlay fields keep
// their listed order; contract properties the overlay does not mention are
// appended in name order.
func Build(id string, op pkgopenapi.Operation, overlay Overlay) (model.FormSpec, error) {
	spec := model.FormSpec{
		ID:           id,
		Endpoint:     op.Path,
		Method:       op.Method,
		Summary:      op.Summary,
		RequiresAuth: op.RequiresAuth,
		Action:       overlay.Action,
		Target:       strings.TrimSpace(overlay.Target),
		Messages:     overlay.Messages,
	}
	if endpoint := strings.TrimSpace(overlay.Endpoint); endpoint != "" {
		spec.Endpoint = endpoint
	}
	if overlay.RequiresAuth != nil {
		spec.RequiresAuth = *overlay.RequiresAuth
	}
	if spec.Action == "" {
		spec.Action = model.ActionReset
	}

	if raw := strings.TrimSpace(overlay.RedirectDelay); raw != "" {
		delay, err := time.ParseDuration(raw)
		if err != nil || delay < 0 {
			return model.FormSpec{}, fmt.Errorf("forms: %s: invalid redirect_delay %q", id, raw)
		}
		spec.RedirectDelay = delay
	} else if spec.Action == model.ActionRedirect {
		spec.RedirectDelay = model.DefaultRedirectDelay
	}

	listed := make(map[string]bool, len(overlay.Fields))
	for _, fo := range overlay.Fields {
		name := strings.TrimSpace(fo.Name)
		if name == "" {
			return model.FormSpec{}, fmt.Errorf("forms: %s: field without a name", id)
		}
		if listed[name] {
			return model.FormSpec{}, fmt.Errorf("forms: %s: duplicate field %q", id, name)
		}
		listed[name] = true

		base, _ := op.Field(name)
		spec.Fields = append(spec.Fields, applyFieldOverlay(fieldFromSchema(name, base), fo))
	}
	for _, schema := range op.Fields {
		if listed[schema.Name] {
			continue
		}
		spec.Fields = append(spec.Fields, fieldFromSchema(schema.Name, schema))
	}

	if err := validateSpec(spec); err != nil {
		return model.FormSpec{}, err
	}
	return spec, nil
}

func fieldFromSchema(name string, schema pkgopenapi.FieldSchema) model.FieldSpec {
	field := model.FieldSpec{
		Name:      name,
		Type:      fieldType(schema.Type),
		Required:  schema.Required,
		MinLength: schema.MinLength,
		Secret:    schema.Format == "password",
		Help:      schema.Description,
	}
	return field
}

func applyFieldOverlay(field model.FieldSpec, fo FieldOverlay) model.FieldSpec {
	if v := strings.TrimSpace(fo.Element); v != "" {
		field.Element = v
	}
	if v := strings.TrimSpace(fo.Label); v != "" {
		field.Label = v
	}
	if v := strings.TrimSpace(fo.Help); v != "" {
		field.Help = v
	}
	if fo.Type != "" {
		field.Type = fo.Type
	}
	if fo.Required != nil {
		field.Required = *fo.Required
	}
	if fo.MinLength != nil {
		field.MinLength = *fo.MinLength
	}
	if fo.Secret != nil {
		field.Secret = *fo.Secret
	}
	if len(fo.Transforms) > 0 {
		field.Transforms = append([]model.Transform(nil), fo.Transforms...)
	}
	return field
}

func fieldType(raw string) model.FieldType {
	switch raw {
	case "number":
		return model.FieldTypeNumber
	case "integer":
		return model.FieldTypeInteger
	default:
		return model.FieldTypeString
	}
}

func validateSpec(spec model.FormSpec) error {
	if spec.ID == "" {
		return errFormIDMissing
	}
	if spec.Endpoint == "" {
		return fmt.Errorf("%w (form %s)", errFormEndpoint, spec.ID)
	}
	switch spec.Action {
	case model.ActionSession, model.ActionRedirect:
		if spec.Target == "" {
			return fmt.Errorf("%w (form %s)", errFormTargetMissing, spec.ID)
		}
	case model.ActionReset:
	default:
		return fmt.Errorf("forms: %s: unknown action %q", spec.ID, spec.Action)
	}
	for _, field := range spec.Fields {
		switch field.Type {
		case model.FieldTypeString, model.FieldTypeNumber, model.FieldTypeInteger:
		default:
			return fmt.Errorf("forms: %s: field %s has unknown type %q", spec.ID, field.Name, field.Type)
		}
	}
	return nil
}
