package mockapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

func newRequestCounter() *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "formsubmit",
		Subsystem: "mock",
		Name:      "requests_total",
		Help:      "Requests served by the mock backend by method, route and status.",
	}, []string{"method", "route", "status"})
}

// WithMetrics registers the request counter on reg. A counter already
// registered there by another Server is shared.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(s *Server) {
		s.registerer = reg
	}
}

func (s *Server) registerMetrics() {
	if s.registerer == nil {
		return
	}
	counter := newRequestCounter()
	if err := s.registerer.Register(counter); err != nil {
		var already prometheus.AlreadyRegisteredError
		if !errors.As(err, &already) {
			s.logger.Warn("register metrics", slog.Any("error", err))
			return
		}
		existing, ok := already.ExistingCollector.(*prometheus.CounterVec)
		if !ok {
			s.logger.Warn("register metrics", slog.Any("error", err))
			return
		}
		counter = existing
	}
	s.requests = counter
}

func (s *Server) countRequest(r *http.Request, status int) {
	if s.requests == nil {
		return
	}
	route := "unmatched"
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			route = pattern
		}
	}
	s.requests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
}
