package model

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"
)

// FieldType is the simplified enum for payload value kinds.
type FieldType string

const (
	FieldTypeString  FieldType = "string"
	FieldTypeInteger FieldType = "integer"
	FieldTypeNumber  FieldType = "number"
)

// Transform names a client-side conversion applied to a raw surface value
// before it enters the payload.
type Transform string

const (
	TransformTrim    Transform = "trim"
	TransformNumber  Transform = "number"
	TransformInteger Transform = "integer"
)

// Action selects the side effect applied after an accepted submission.
type Action string

const (
	// ActionSession persists the returned token and technician metadata, then
	// navigates to the form target.
	ActionSession Action = "session"
	// ActionReset reports success and empties every field of the form.
	ActionReset Action = "reset"
	// ActionRedirect reports success and navigates after RedirectDelay.
	ActionRedirect Action = "redirect"
)

// DefaultRedirectDelay is the pause before navigating away from a form whose
// action is ActionRedirect.
const DefaultRedirectDelay = 1200 * time.Millisecond

// FieldSpec describes one payload entry and the surface element it is read
// from.
type FieldSpec struct {
	Name       string      `json:"name" yaml:"name"`
	Element    string      `json:"element,omitempty" yaml:"element,omitempty"`
	Type       FieldType   `json:"type" yaml:"type"`
	Required   bool        `json:"required" yaml:"required"`
	MinLength  int         `json:"minLength,omitempty" yaml:"min_length,omitempty"`
	Transforms []Transform `json:"transforms,omitempty" yaml:"transforms,omitempty"`
	Label      string      `json:"label,omitempty" yaml:"label,omitempty"`
	Secret     bool        `json:"secret,omitempty" yaml:"secret,omitempty"`
	Help       string      `json:"help,omitempty" yaml:"help,omitempty"`
}

// ElementID returns the surface element identifier, defaulting to the payload
// name when no explicit element is configured.
func (f FieldSpec) ElementID() string {
	if id := strings.TrimSpace(f.Element); id != "" {
		return id
	}
	return f.Name
}

// DisplayLabel returns the label shown to users.
func (f FieldSpec) DisplayLabel() string {
	if f.Label != "" {
		return f.Label
	}
	return DefaultLabeler(f.Name)
}

// Numeric reports whether the field holds a parsed number.
func (f FieldSpec) Numeric() bool {
	return f.Type == FieldTypeNumber || f.Type == FieldTypeInteger
}

// Messages holds the user-facing strings a form shows for each outcome. Empty
// entries fall back to DefaultMessages.
type Messages struct {
	Pending         string `json:"pending,omitempty" yaml:"pending,omitempty"`
	Required        string `json:"required,omitempty" yaml:"required,omitempty"`
	MinLength       string `json:"minLength,omitempty" yaml:"min_length,omitempty"`
	Success         string `json:"success,omitempty" yaml:"success,omitempty"`
	Failure         string `json:"failure,omitempty" yaml:"failure,omitempty"`
	Unauthenticated string `json:"unauthenticated,omitempty" yaml:"unauthenticated,omitempty"`
	Unavailable     string `json:"unavailable,omitempty" yaml:"unavailable,omitempty"`
	Unexpected      string `json:"unexpected,omitempty" yaml:"unexpected,omitempty"`
	Busy            string `json:"busy,omitempty" yaml:"busy,omitempty"`
}

// DefaultMessages are used for any message a form leaves empty.
var DefaultMessages = Messages{
	Required:        "Please fill all required fields",
	Success:         "Submitted successfully",
	Failure:         "Submission failed",
	Unauthenticated: "Login required",
	Unavailable:     "Server unavailable.",
	Unexpected:      "Unexpected error",
	Busy:            "Submission already in progress",
}

// WithDefaults returns m with empty entries filled from DefaultMessages.
func (m Messages) WithDefaults() Messages {
	out := m
	fill := func(dst *string, src string) {
		if strings.TrimSpace(*dst) == "" {
			*dst = src
		}
	}
	fill(&out.Required, DefaultMessages.Required)
	fill(&out.Success, DefaultMessages.Success)
	fill(&out.Failure, DefaultMessages.Failure)
	fill(&out.Unauthenticated, DefaultMessages.Unauthenticated)
	fill(&out.Unavailable, DefaultMessages.Unavailable)
	fill(&out.Unexpected, DefaultMessages.Unexpected)
	fill(&out.Busy, DefaultMessages.Busy)
	return out
}

// FormSpec is the static, declarative description of one submittable form.
type FormSpec struct {
	ID            string        `json:"id"`
	Endpoint      string        `json:"endpoint"`
	Method        string        `json:"method"`
	Summary       string        `json:"summary,omitempty"`
	Fields        []FieldSpec   `json:"fields"`
	RequiresAuth  bool          `json:"requiresAuth,omitempty"`
	Action        Action        `json:"action,omitempty"`
	Target        string        `json:"target,omitempty"`
	RedirectDelay time.Duration `json:"redirectDelay,omitempty"`
	Messages      Messages      `json:"messages"`
}

// HTTPMethod returns the request method, defaulting to POST.
func (s FormSpec) HTTPMethod() string {
	if m := strings.ToUpper(strings.TrimSpace(s.Method)); m != "" {
		return m
	}
	return http.MethodPost
}

// Field looks up a field by payload name.
func (s FormSpec) Field(name string) (FieldSpec, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// RequiredFields lists the payload names that must be non-empty.
func (s FormSpec) RequiredFields() []string {
	var out []string
	for _, f := range s.Fields {
		if f.Required {
			out = append(out, f.Name)
		}
	}
	return out
}

// Elements lists every surface element the form reads.
func (s FormSpec) Elements() []string {
	out := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		out = append(out, f.ElementID())
	}
	return out
}

// Payload is the key/value body sent for one submission attempt. Values are
// strings, float64 or int64.
type Payload map[string]any

// String returns the value stored under key as a string, or "" when absent.
func (p Payload) String(key string) string {
	switch v := p[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(raw)
	}
}
