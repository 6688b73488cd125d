package submit

import (
	"log/slog"

	"github.com/goliatone/go-formsubmit/pkg/validation"
)

// Option configures a Submitter.
type Option func(*Submitter)

// WithValidator replaces the default validation rules.
func WithValidator(v validation.Validator) Option {
	return func(s *Submitter) {
		if v != nil {
			s.validator = v
		}
	}
}

// WithNavigator sets where accepted login and signup flows navigate.
func WithNavigator(n Navigator) Option {
	return func(s *Submitter) {
		if n != nil {
			s.navigator = n
		}
	}
}

// WithReporter receives pending, success and error status updates.
func WithReporter(r Reporter) Option {
	return func(s *Submitter) {
		if r != nil {
			s.reporter = r
		}
	}
}

// WithLogger routes submission diagnostics to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Submitter) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics records outcomes on m.
func WithMetrics(m *Metrics) Option {
	return func(s *Submitter) {
		s.metrics = m
	}
}

// WithWait overrides how the redirect delay is waited out. Tests use it to
// avoid real sleeps.
func WithWait(wait WaitFunc) Option {
	return func(s *Submitter) {
		if wait != nil {
			s.wait = wait
		}
	}
}
