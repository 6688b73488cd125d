// Package validation checks a collected payload against its form before any
// network call is made.
package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/goliatone/go-formsubmit/pkg/formerr"
	"github.com/goliatone/go-formsubmit/pkg/model"
)

// Validator is the capability the submitter depends on.
type Validator interface {
	Validate(spec model.FormSpec, payload model.Payload) error
}

// Rules is the default Validator. Checks run in order and stop at the first
// failing class: required fields, minimum lengths, numeric format.
type Rules struct{}

var _ Validator = Rules{}

// New returns the default validator.
func New() Rules {
	return Rules{}
}

// Validate returns nil or a formerr precondition error whose message is meant
// for the user.
func (Rules) Validate(spec model.FormSpec, payload model.Payload) error {
	messages := spec.Messages.WithDefaults()

	for _, field := range spec.Fields {
		if field.Required && isEmpty(payload[field.Name]) {
			return formerr.Precondition(messages.Required)
		}
	}

	for _, field := range spec.Fields {
		if field.MinLength <= 0 {
			continue
		}
		value, ok := payload[field.Name].(string)
		if !ok || value == "" {
			continue
		}
		if utf8.RuneCountInString(strings.TrimSpace(value)) < field.MinLength {
			if msg := strings.TrimSpace(messages.MinLength); msg != "" {
				return formerr.Precondition(msg)
			}
			return formerr.Precondition(fmt.Sprintf("%s must be %d+ characters", field.DisplayLabel(), field.MinLength))
		}
	}

	for _, field := range spec.Fields {
		if !field.Numeric() {
			continue
		}
		value, present := payload[field.Name]
		if !present {
			continue
		}
		switch value.(type) {
		case float64, int64, int:
		default:
			return formerr.Precondition(fmt.Sprintf("%s must be a number", field.DisplayLabel()))
		}
	}

	return nil
}

func isEmpty(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	default:
		return false
	}
}
