// Package session reads and writes the login session kept in a store.Store.
// The token is treated as opaque: it is passed through as a bearer credential
// and never expires locally.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/goliatone/go-formsubmit/pkg/store"
)

// ErrNoSession is returned when no token is stored.
var ErrNoSession = errors.New("session: not logged in")

// Session is the persisted login state.
type Session struct {
	Token string
	Name  string
	Email string
}

// Entries returns the store writes that persist s.
func (s Session) Entries() map[string]string {
	return map[string]string{
		store.KeySessionToken:    s.Token,
		store.KeyTechnicianName:  s.Name,
		store.KeyTechnicianEmail: s.Email,
	}
}

// Save writes the token and technician metadata in one all-or-nothing call.
func Save(ctx context.Context, kv store.Store, s Session) error {
	if strings.TrimSpace(s.Token) == "" {
		return errors.New("session: token is required")
	}
	if err := kv.SetMany(ctx, s.Entries()); err != nil {
		return fmt.Errorf("session: save: %w", err)
	}
	return nil
}

// Token returns the stored token or "" when there is none.
func Token(ctx context.Context, kv store.Store) (string, error) {
	token, ok, err := kv.Get(ctx, store.KeySessionToken)
	if err != nil {
		return "", fmt.Errorf("session: read token: %w", err)
	}
	if !ok {
		return "", nil
	}
	return strings.TrimSpace(token), nil
}

// Load returns the stored session or ErrNoSession.
func Load(ctx context.Context, kv store.Store) (Session, error) {
	token, err := Token(ctx, kv)
	if err != nil {
		return Session{}, err
	}
	if token == "" {
		return Session{}, ErrNoSession
	}
	out := Session{Token: token}
	if out.Name, _, err = kv.Get(ctx, store.KeyTechnicianName); err != nil {
		return Session{}, fmt.Errorf("session: read name: %w", err)
	}
	if out.Email, _, err = kv.Get(ctx, store.KeyTechnicianEmail); err != nil {
		return Session{}, fmt.Errorf("session: read email: %w", err)
	}
	return out, nil
}

// Clear removes every session key.
func Clear(ctx context.Context, kv store.Store) error {
	if err := kv.Delete(ctx, store.KeySessionToken, store.KeyTechnicianName, store.KeyTechnicianEmail); err != nil {
		return fmt.Errorf("session: clear: %w", err)
	}
	return nil
}

// Claims summarises what a token says about itself.
type Claims struct {
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Expired reports whether the token claims an expiry before now. Callers use
// it for display only.
func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

// Inspect decodes the token's JWT claims without verifying the signature.
// Tokens that are not JWTs return an error; that does not make them invalid
// for submission.
func Inspect(token string) (Claims, error) {
	parsed, _, err := jwt.NewParser().ParseUnverified(strings.TrimSpace(token), jwt.MapClaims{})
	if err != nil {
		return Claims{}, fmt.Errorf("session: inspect token: %w", err)
	}
	var out Claims
	if sub, err := parsed.Claims.GetSubject(); err == nil {
		out.Subject = sub
	}
	if iat, err := parsed.Claims.GetIssuedAt(); err == nil && iat != nil {
		out.IssuedAt = iat.Time
	}
	if exp, err := parsed.Claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	return out, nil
}
