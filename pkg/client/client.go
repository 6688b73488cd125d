// Package client issues the single JSON POST behind every form submission and
// classifies what comes back.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-formsubmit/pkg/formerr"
	"github.com/goliatone/go-formsubmit/pkg/logging"
)

// DefaultBaseURL is the backend the browser forms were written against.
const DefaultBaseURL = "http://127.0.0.1:8000"

const (
	headerRequestID = "X-Request-ID"
	defaultAgent    = "go-formsubmit"
)

// Requester is the capability the submitter depends on.
type Requester interface {
	Post(ctx context.Context, path string, payload any, token string) (*Response, error)
}

// Response is a fully read 2xx response.
type Response struct {
	Status    int
	Header    http.Header
	Body      []byte
	RequestID string
}

// DecodeJSON strictly decodes the body into v. Unknown fields are allowed;
// an empty or malformed body is an error.
func (r *Response) DecodeJSON(v any) error {
	if r == nil || len(bytes.TrimSpace(r.Body)) == 0 {
		return errors.New("client: empty response body")
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("client: decode response: %w", err)
	}
	return nil
}

// Client posts JSON payloads to a fixed base URL.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	userAgent  string
	logger     *slog.Logger
	newID      func() string
}

var _ Requester = (*Client)(nil)

// New constructs a client. Without options it targets DefaultBaseURL with
// http.DefaultClient and no timeout.
func New(options ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: http.DefaultClient,
		userAgent:  defaultAgent,
		logger:     logging.Discard(),
		newID:      func() string { return uuid.NewString() },
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(c)
	}
	return c
}

// BaseURL reports the configured base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Post serialises payload as JSON and posts it to path. token, when not
// empty, is sent as a bearer credential.
//
// Failures to complete the exchange come back as formerr transport errors;
// non-2xx statuses come back as formerr application errors carrying the
// server detail.
func (c *Client) Post(ctx context.Context, path string, payload any, token string) (*Response, error) {
	if ctx == nil {
		return nil, errors.New("client: context is required")
	}
	endpoint, err := c.resolve(path)
	if err != nil {
		return nil, formerr.Unexpected("invalid endpoint", err)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, formerr.Unexpected("encode payload", err)
	}

	reqCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, formerr.Unexpected("build request", err)
	}
	requestID := c.newID()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(headerRequestID, requestID)
	if token = strings.TrimSpace(token); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "request failed",
			slog.String("endpoint", endpoint),
			slog.String("request_id", requestID),
			slog.Any("error", err),
		)
		return nil, formerr.Transport(err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, formerr.Transport(fmt.Errorf("read response: %w", err))
	}

	c.logger.DebugContext(ctx, "request completed",
		slog.String("endpoint", endpoint),
		slog.String("request_id", requestID),
		slog.Int("status", resp.StatusCode),
		slog.Duration("elapsed", time.Since(started)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, formerr.Application(resp.StatusCode, ExtractDetail(data))
	}

	return &Response{
		Status:    resp.StatusCode,
		Header:    resp.Header.Clone(),
		Body:      data,
		RequestID: requestID,
	}, nil
}

func (c *Client) resolve(path string) (string, error) {
	path = strings.TrimSpace(path)
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		u, err := url.Parse(path)
		if err != nil {
			return "", err
		}
		return u.String(), nil
	}
	base := strings.TrimSpace(c.baseURL)
	if base == "" {
		return "", errors.New("client: base url is not configured")
	}
	return url.JoinPath(base, path)
}
