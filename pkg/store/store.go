// Package store provides the durable key-value capability that holds the
// session token and technician metadata between runs.
package store

import (
	"context"
	"errors"
)

// Keys written by the login flow. The session token lives under a single key
// for every form.
const (
	KeySessionToken    = "aiva_token"
	KeyTechnicianName  = "aiva_technician_name"
	KeyTechnicianEmail = "aiva_technician_email"

	// LegacyKeySessionToken is the key older service pages read the token
	// from. It is neither read nor written here.
	LegacyKeySessionToken = "auth_token"
)

// ErrStoreClosed indicates the store was closed or never opened.
var ErrStoreClosed = errors.New("store: closed")

// Store is a string key-value store. Implementations are safe for concurrent
// use. SetMany applies every entry or none.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	SetMany(ctx context.Context, entries map[string]string) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}
