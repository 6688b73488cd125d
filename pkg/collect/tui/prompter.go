// Package tui turns the terminal into a rendering surface: it prompts for the
// fields of a form and stores the answers on a collect.MapSurface.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/goliatone/go-formsubmit/pkg/collect"
	"github.com/goliatone/go-formsubmit/pkg/model"
)

// Prompter fills a MapSurface by asking for each field of a form.
type Prompter struct {
	driver PromptDriver
	askAll bool
}

// New constructs a prompter with the survey driver unless overridden.
func New(options ...Option) *Prompter {
	p := &Prompter{}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(p)
	}
	if p.driver == nil {
		p.driver = NewSurveyDriver()
	}
	return p
}

// Fill prompts for the fields of spec that are missing from surface (or all of
// them when configured with WithAskAll) and writes the answers back.
func (p *Prompter) Fill(ctx context.Context, spec model.FormSpec, surface *collect.MapSurface) error {
	if ctx == nil {
		return errors.New("tui: context is required")
	}
	if surface == nil {
		return ErrNoSurface
	}
	for _, field := range spec.Fields {
		if err := ctx.Err(); err != nil {
			return err
		}
		element := field.ElementID()
		current, exists := surface.Value(element)
		if exists && !p.askAll {
			continue
		}
		answer, err := p.promptField(ctx, field, current)
		if err != nil {
			return fmt.Errorf("tui: prompt %s: %w", field.Name, err)
		}
		surface.Set(element, answer)
	}
	return nil
}

// Notify prints a status line through the driver.
func (p *Prompter) Notify(ctx context.Context, msg string) error {
	return p.driver.Info(ctx, msg)
}

func (p *Prompter) promptField(ctx context.Context, field model.FieldSpec, current string) (string, error) {
	cfg := InputConfig{
		Message:   field.DisplayLabel(),
		Help:      field.Help,
		Validator: fieldValidator(field),
	}
	if field.Secret {
		return p.driver.Password(ctx, cfg)
	}
	cfg.Default = current
	return p.driver.Input(ctx, cfg)
}

func fieldValidator(field model.FieldSpec) func(string) error {
	return func(value string) error {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			if field.Required {
				return errors.New("required")
			}
			return nil
		}
		if field.MinLength > 0 && utf8.RuneCountInString(trimmed) < field.MinLength {
			return fmt.Errorf("min length %d", field.MinLength)
		}
		if field.Numeric() {
			if _, err := strconv.ParseFloat(trimmed, 64); err != nil {
				return errors.New("must be a number")
			}
		}
		return nil
	}
}
