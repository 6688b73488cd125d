package submit

import (
	"context"
	"encoding/json"
)

// Outcome is the terminal state of one submission attempt.
type Outcome string

const (
	// OutcomeAccepted: 2xx response, side effects applied.
	OutcomeAccepted Outcome = "accepted"
	// OutcomeRejected: non-2xx response.
	OutcomeRejected Outcome = "rejected"
	// OutcomeUnauthenticated: the form needs a token and none is stored.
	OutcomeUnauthenticated Outcome = "unauthenticated"
	// OutcomeInvalid: local validation failed; nothing was sent.
	OutcomeInvalid Outcome = "invalid"
	// OutcomeUnavailable: the request could not be completed at all.
	OutcomeUnavailable Outcome = "unavailable"
	// OutcomeFailed: anything else, including malformed success bodies.
	OutcomeFailed Outcome = "failed"
	// OutcomeBusy: another attempt for the same form is still in flight.
	OutcomeBusy Outcome = "busy"
)

// Result describes one submission attempt. It is built fresh per attempt.
type Result struct {
	Form      string
	Outcome   Outcome
	Status    int
	Message   string
	Body      json.RawMessage
	Navigated string
	RequestID string
	Err       error
}

// Success reports whether the attempt was accepted.
func (r Result) Success() bool {
	return r.Outcome == OutcomeAccepted
}

// Level tags a status message for display.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Status is one user-visible status update (the toast / status line).
type Status struct {
	Form    string
	Level   Level
	Message string
}

// Reporter receives status updates.
type Reporter interface {
	Report(ctx context.Context, status Status)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(ctx context.Context, status Status)

func (f ReporterFunc) Report(ctx context.Context, status Status) { f(ctx, status) }

// Navigator moves the user to another page or screen.
type Navigator interface {
	Navigate(ctx context.Context, target string) error
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(ctx context.Context, target string) error

func (f NavigatorFunc) Navigate(ctx context.Context, target string) error { return f(ctx, target) }

type nopReporter struct{}

func (nopReporter) Report(context.Context, Status) {}

type nopNavigator struct{}

func (nopNavigator) Navigate(context.Context, string) error { return nil }
