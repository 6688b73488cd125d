// Package loader fetches OpenAPI contracts from a file path, an fs.FS or an
// http(s) URL.
package loader

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"strings"
	"time"
)

// Loader resolves a location string to contract bytes.
type Loader struct {
	fs        fs.FS
	http      *http.Client
	allowHTTP bool
	timeout   time.Duration
}

// Option configures a Loader.
type Option func(*Loader)

// WithFS resolves relative locations inside files instead of the working
// directory.
func WithFS(files fs.FS) Option {
	return func(l *Loader) {
		l.fs = files
	}
}

// WithHTTPClient enables URL locations using client.
func WithHTTPClient(client *http.Client) Option {
	return func(l *Loader) {
		if client != nil {
			l.http = client
			l.allowHTTP = true
		}
	}
}

// WithHTTP toggles URL support with a default client.
func WithHTTP(enabled bool) Option {
	return func(l *Loader) {
		l.allowHTTP = enabled
	}
}

// WithTimeout bounds HTTP fetches.
func WithTimeout(timeout time.Duration) Option {
	return func(l *Loader) {
		if timeout >= 0 {
			l.timeout = timeout
		}
	}
}

// New constructs a Loader. URL support is on by default.
func New(options ...Option) *Loader {
	l := &Loader{allowHTTP: true}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(l)
	}
	if l.allowHTTP && l.http == nil {
		l.http = &http.Client{}
	}
	return l
}

// Load returns the raw contract at location.
func (l *Loader) Load(ctx context.Context, location string) ([]byte, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, errors.New("openapi loader: location is required")
	}

	switch {
	case isURL(location):
		if !l.allowHTTP {
			return nil, errors.New("openapi loader: http support disabled")
		}
		return loadHTTP(ctx, l.http, location, l.timeout)
	case l.fs != nil:
		return loadFromFS(ctx, l.fs, location)
	default:
		return loadFile(ctx, location)
	}
}

func isURL(location string) bool {
	lower := strings.ToLower(location)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
