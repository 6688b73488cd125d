// Package submit runs one form submission from field collection to its
// terminal outcome: validate locally, post the payload, classify the response
// and apply the form's success action.
package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/goliatone/go-formsubmit/pkg/client"
	"github.com/goliatone/go-formsubmit/pkg/collect"
	"github.com/goliatone/go-formsubmit/pkg/formerr"
	"github.com/goliatone/go-formsubmit/pkg/logging"
	"github.com/goliatone/go-formsubmit/pkg/model"
	"github.com/goliatone/go-formsubmit/pkg/session"
	"github.com/goliatone/go-formsubmit/pkg/store"
	"github.com/goliatone/go-formsubmit/pkg/validation"
)

var (
	// ErrNilCollector is returned by New when no collector is supplied.
	ErrNilCollector = errors.New("submit: collector is nil")
	// ErrNilRequester is returned by New when no requester is supplied.
	ErrNilRequester = errors.New("submit: requester is nil")
	// ErrNilStore is returned by New when no store is supplied.
	ErrNilStore = errors.New("submit: store is nil")
)

// WaitFunc blocks for d or until ctx is done.
type WaitFunc func(ctx context.Context, d time.Duration) error

// Submitter submits one form. It is safe for concurrent use; at most one
// attempt per Submitter is in flight and the rest return OutcomeBusy.
type Submitter struct {
	spec      model.FormSpec
	messages  model.Messages
	collector collect.FieldCollector
	validator validation.Validator
	requester client.Requester
	store     store.Store
	navigator Navigator
	reporter  Reporter
	logger    *slog.Logger
	metrics   *Metrics
	wait      WaitFunc
	inflight  *semaphore.Weighted
	now       func() time.Time
}

// New binds spec to its collaborators.
func New(spec model.FormSpec, collector collect.FieldCollector, requester client.Requester, kv store.Store, options ...Option) (*Submitter, error) {
	switch {
	case collector == nil:
		return nil, ErrNilCollector
	case requester == nil:
		return nil, ErrNilRequester
	case kv == nil:
		return nil, ErrNilStore
	}
	if strings.TrimSpace(spec.ID) == "" {
		return nil, errors.New("submit: form id is required")
	}
	if strings.TrimSpace(spec.Endpoint) == "" {
		return nil, fmt.Errorf("submit: form %q has no endpoint", spec.ID)
	}

	s := &Submitter{
		spec:      spec,
		messages:  spec.Messages.WithDefaults(),
		collector: collector,
		validator: validation.New(),
		requester: requester,
		store:     kv,
		navigator: nopNavigator{},
		reporter:  nopReporter{},
		logger:    logging.Discard(),
		wait:      waitContext,
		inflight:  semaphore.NewWeighted(1),
		now:       time.Now,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(s)
	}
	s.logger = s.logger.With(slog.String("form", spec.ID))
	return s, nil
}

// Spec returns the form this submitter was built for.
func (s *Submitter) Spec() model.FormSpec {
	return s.spec
}

// Submit runs one attempt. It never returns an error directly; failures are
// reported through Result.Outcome and Result.Err.
func (s *Submitter) Submit(ctx context.Context) Result {
	if ctx == nil {
		ctx = context.Background()
	}
	start := s.now()

	if !s.inflight.TryAcquire(1) {
		res := Result{Form: s.spec.ID, Outcome: OutcomeBusy, Message: s.messages.Busy}
		s.logger.Debug("submission skipped", slog.String("reason", "in flight"))
		s.reporter.Report(ctx, Status{Form: s.spec.ID, Level: LevelError, Message: res.Message})
		s.metrics.observe(s.spec.ID, res.Outcome, 0)
		return res
	}
	defer s.inflight.Release(1)

	res := s.run(ctx)
	res.Form = s.spec.ID
	s.finish(ctx, res, s.now().Sub(start))
	return res
}

func (s *Submitter) run(ctx context.Context) Result {
	var token string
	if s.spec.RequiresAuth {
		var err error
		token, err = session.Token(ctx, s.store)
		if err != nil {
			return s.failed(formerr.Unexpected("read session", err))
		}
		if token == "" {
			return Result{Outcome: OutcomeUnauthenticated, Message: s.messages.Unauthenticated}
		}
	}

	payload, err := s.collector.Collect(ctx, s.spec)
	if err != nil {
		return s.failed(formerr.Unexpected("collect fields", err))
	}
	if err := s.validator.Validate(s.spec, payload); err != nil {
		var ferr *formerr.Error
		if errors.As(err, &ferr) && ferr.Kind == formerr.KindPrecondition {
			return Result{Outcome: OutcomeInvalid, Message: ferr.Message, Err: err}
		}
		return s.failed(formerr.Unexpected("validate", err))
	}

	if pending := strings.TrimSpace(s.messages.Pending); pending != "" {
		s.reporter.Report(ctx, Status{Form: s.spec.ID, Level: LevelInfo, Message: pending})
	}
	s.logger.Debug("submitting", slog.String("endpoint", s.spec.Endpoint), slog.Int("fields", len(payload)))

	resp, err := s.requester.Post(ctx, s.spec.Endpoint, payload, token)
	if err != nil {
		return s.classify(err)
	}

	res := Result{Outcome: OutcomeAccepted, Status: resp.Status, RequestID: resp.RequestID}
	if err := s.accept(ctx, resp, &res); err != nil {
		failed := s.failed(err)
		failed.Status = resp.Status
		failed.RequestID = resp.RequestID
		return failed
	}
	return res
}

func (s *Submitter) classify(err error) Result {
	ferr, ok := formerr.As(err)
	if !ok {
		return s.failed(formerr.Unexpected("post", err))
	}
	switch ferr.Kind {
	case formerr.KindTransport:
		return Result{Outcome: OutcomeUnavailable, Message: s.messages.Unavailable, Err: err}
	case formerr.KindApplication:
		msg := strings.TrimSpace(ferr.Message)
		if msg == "" {
			msg = s.messages.Failure
		}
		return Result{Outcome: OutcomeRejected, Status: ferr.Status, Message: msg, Err: err}
	default:
		return s.failed(err)
	}
}

func (s *Submitter) failed(err error) Result {
	return Result{Outcome: OutcomeFailed, Message: s.messages.Unexpected, Err: err}
}

// accept applies the success action. Nothing observable happens until the
// body has been decoded, so a malformed body leaves no side effects.
func (s *Submitter) accept(ctx context.Context, resp *client.Response, res *Result) error {
	body := bytes.TrimSpace(resp.Body)
	if !json.Valid(body) {
		return formerr.Unexpected("success body is not JSON", nil)
	}
	res.Body = json.RawMessage(body)
	res.Message = s.messages.Success

	switch s.spec.Action {
	case model.ActionSession:
		sess, err := decodeLogin(resp)
		if err != nil {
			return err
		}
		if err := session.Save(ctx, s.store, sess); err != nil {
			return formerr.Unexpected("save session", err)
		}
		s.reportSuccess(ctx)
		s.navigate(ctx, res)

	case model.ActionRedirect:
		s.reportSuccess(ctx)
		delay := s.spec.RedirectDelay
		if delay <= 0 {
			delay = model.DefaultRedirectDelay
		}
		if err := s.wait(ctx, delay); err != nil {
			// Account exists; only the navigation was abandoned.
			s.logger.Info("redirect cancelled", slog.String("target", s.spec.Target), slog.Any("error", err))
			res.Err = err
			return nil
		}
		s.navigate(ctx, res)

	default:
		s.reportSuccess(ctx)
		if err := s.collector.Reset(ctx, s.spec); err != nil {
			return formerr.Unexpected("reset fields", err)
		}
	}
	return nil
}

// navigate moves to the form's target. The submission was already accepted,
// so a navigator error is kept on res.Err without changing the outcome.
func (s *Submitter) navigate(ctx context.Context, res *Result) {
	if err := s.navigator.Navigate(ctx, s.spec.Target); err != nil {
		s.logger.Warn("navigation failed", slog.String("target", s.spec.Target), slog.Any("error", err))
		res.Err = err
		return
	}
	res.Navigated = s.spec.Target
}

func (s *Submitter) reportSuccess(ctx context.Context) {
	s.reporter.Report(ctx, Status{Form: s.spec.ID, Level: LevelSuccess, Message: s.messages.Success})
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	Technician  *struct {
		FullName *string `json:"full_name"`
		Email    *string `json:"email"`
	} `json:"technician"`
}

func decodeLogin(resp *client.Response) (session.Session, error) {
	var out loginResponse
	if err := resp.DecodeJSON(&out); err != nil {
		return session.Session{}, formerr.Unexpected("decode login response", err)
	}
	token := strings.TrimSpace(out.AccessToken)
	switch {
	case token == "":
		return session.Session{}, formerr.Unexpected("login response has no access_token", nil)
	case out.Technician == nil:
		return session.Session{}, formerr.Unexpected("login response has no technician", nil)
	case out.Technician.FullName == nil || out.Technician.Email == nil:
		return session.Session{}, formerr.Unexpected("login response technician is incomplete", nil)
	}
	return session.Session{
		Token: token,
		Name:  *out.Technician.FullName,
		Email: *out.Technician.Email,
	}, nil
}

func (s *Submitter) finish(ctx context.Context, res Result, elapsed time.Duration) {
	// Success was reported before navigation.
	if res.Outcome != OutcomeAccepted {
		s.reporter.Report(ctx, Status{Form: s.spec.ID, Level: LevelError, Message: res.Message})
	}

	attrs := []any{
		slog.String("outcome", string(res.Outcome)),
		slog.Int("status", res.Status),
		slog.Duration("elapsed", elapsed),
	}
	if res.RequestID != "" {
		attrs = append(attrs, slog.String("request_id", res.RequestID))
	}
	switch res.Outcome {
	case OutcomeFailed:
		s.logger.Error("submission failed", append(attrs, slog.Any("error", res.Err))...)
	case OutcomeAccepted:
		s.logger.Info("submission accepted", attrs...)
	default:
		s.logger.Warn("submission not accepted", attrs...)
	}
	s.metrics.observe(s.spec.ID, res.Outcome, elapsed)
}

func waitContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
