// Package collect reads field values from a rendering surface and turns them
// into a submission payload.
package collect

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/goliatone/go-formsubmit/pkg/model"
)

// Surface abstracts whatever holds the current field values: an in-memory map,
// terminal prompts, or a test double. Value reports false for elements that do
// not exist; the collector treats those as empty.
type Surface interface {
	Value(element string) (string, bool)
	Reset(elements ...string)
}

// FieldCollector is the capability the submitter depends on.
type FieldCollector interface {
	Collect(ctx context.Context, spec model.FormSpec) (model.Payload, error)
	Reset(ctx context.Context, spec model.FormSpec) error
}

// Collector implements FieldCollector over a Surface.
type Collector struct {
	surface Surface
}

var _ FieldCollector = (*Collector)(nil)

// New constructs a collector bound to surface.
func New(surface Surface) *Collector {
	return &Collector{surface: surface}
}

// Surface returns the bound surface.
func (c *Collector) Surface() Surface {
	if c == nil {
		return nil
	}
	return c.surface
}

// Collect reads every element referenced by spec and applies the field
// transforms. Missing elements read as "". Optional fields that end up empty
// are omitted; required ones are kept as "" so validation can report them.
// Values that fail numeric parsing stay as strings.
func (c *Collector) Collect(ctx context.Context, spec model.FormSpec) (model.Payload, error) {
	if ctx == nil {
		return nil, errors.New("collect: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c == nil || c.surface == nil {
		return nil, errors.New("collect: surface is nil")
	}

	payload := make(model.Payload, len(spec.Fields))
	for _, field := range spec.Fields {
		raw, _ := c.surface.Value(field.ElementID())
		value := applyTransforms(raw, transformsFor(field))
		if s, ok := value.(string); ok && s == "" && !field.Required {
			continue
		}
		payload[field.Name] = value
	}
	return payload, nil
}

// Reset empties every element referenced by spec.
func (c *Collector) Reset(ctx context.Context, spec model.FormSpec) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c == nil || c.surface == nil {
		return errors.New("collect: surface is nil")
	}
	c.surface.Reset(spec.Elements()...)
	return nil
}

func transformsFor(field model.FieldSpec) []model.Transform {
	if len(field.Transforms) > 0 {
		return field.Transforms
	}
	switch field.Type {
	case model.FieldTypeNumber:
		return []model.Transform{model.TransformTrim, model.TransformNumber}
	case model.FieldTypeInteger:
		return []model.Transform{model.TransformTrim, model.TransformInteger}
	default:
		return []model.Transform{model.TransformTrim}
	}
}

func applyTransforms(raw string, transforms []model.Transform) any {
	var value any = raw
	for _, transform := range transforms {
		s, ok := value.(string)
		if !ok {
			break
		}
		switch transform {
		case model.TransformTrim:
			value = strings.TrimSpace(s)
		case model.TransformNumber:
			if parsed, ok := parseNumber(s); ok {
				value = parsed
			}
		case model.TransformInteger:
			if parsed, ok := parseInteger(s); ok {
				value = parsed
			}
		}
	}
	return value
}

func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// parseInteger accepts integer literals and truncates decimal ones ("45.5"
// becomes 45). Values outside the int64 range are rejected.
func parseInteger(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	i, err := strconv.ParseInt(s, 10, 64)
	if err == nil {
		return i, true
	}
	if errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	f, ok := parseNumber(s)
	// float64(math.MaxInt64) rounds up to 2^63; both bounds are exclusive
	// because decimals near -2^63 round onto it.
	if !ok || f >= 0x1p63 || f <= -0x1p63 {
		return 0, false
	}
	return int64(math.Trunc(f)), true
}
