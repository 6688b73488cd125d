// Package formerr classifies submission failures so callers can decide how to
// surface them. Every failure is terminal for the attempt that produced it.
package formerr

import (
	"errors"
	"fmt"
)

// Kind identifies the failure class.
type Kind string

const (
	// KindPrecondition covers failures detected before any network call:
	// missing token, missing required field, value too short.
	KindPrecondition Kind = "precondition"
	// KindTransport covers failures to complete the HTTP exchange at all.
	KindTransport Kind = "transport"
	// KindApplication covers non-2xx responses.
	KindApplication Kind = "application"
	// KindUnexpected covers anything else, such as a malformed success body.
	KindUnexpected Kind = "unexpected"
)

// Error is the classified failure returned by the collector, validator,
// client and submitter packages.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch {
	case e.Status != 0 && e.Message != "":
		return fmt.Sprintf("%s error (status %d): %s", e.Kind, e.Status, e.Message)
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s error: %s: %v", e.Kind, e.Message, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("%s error", e.Kind)
	}
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Precondition builds a local validation failure with a user-facing message.
func Precondition(message string) *Error {
	return &Error{Kind: KindPrecondition, Message: message}
}

// Transport wraps a network-level failure.
func Transport(err error) *Error {
	return &Error{Kind: KindTransport, Err: err}
}

// Application records a non-2xx response. detail is the server-supplied
// message and may be empty.
func Application(status int, detail string) *Error {
	return &Error{Kind: KindApplication, Status: status, Message: detail}
}

// Unexpected wraps any other failure.
func Unexpected(message string, err error) *Error {
	return &Error{Kind: KindUnexpected, Message: message, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain. Errors that are
// not classified report KindUnexpected.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var target *Error
	if errors.As(err, &target) {
		return target.Kind
	}
	return KindUnexpected
}

// As extracts the classified error from err's chain.
func As(err error) (*Error, bool) {
	var target *Error
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}

func IsPrecondition(err error) bool { return err != nil && KindOf(err) == KindPrecondition }
func IsTransport(err error) bool    { return err != nil && KindOf(err) == KindTransport }
func IsApplication(err error) bool  { return err != nil && KindOf(err) == KindApplication }
func IsUnexpected(err error) bool   { return err != nil && KindOf(err) == KindUnexpected }
