package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/goliatone/go-formsubmit/internal/mockapi"
)

func (a *app) mock(ctx context.Context, args []string) int {
	fs := a.newFlagSet("mock")
	addr := fs.String("addr", "127.0.0.1:8000", "listen address")
	secret := fs.String("secret", "", "token signing secret (built-in default when empty)")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	logger := a.logger.With(slog.String("service", "mockapi"))
	api := mockapi.New(
		mockapi.WithSecret(*secret),
		mockapi.WithLogger(logger),
		mockapi.WithMetrics(prometheus.DefaultRegisterer),
	)

	router := chi.NewRouter()
	router.Handle("/metrics", promhttp.Handler())
	router.Mount("/", api)

	srv := &http.Server{
		Addr:              *addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", slog.String("addr", *addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintf(a.stderr, "formsubmit: %v\n", err)
			return exitFailure
		}
		return exitOK
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(a.stderr, "formsubmit: shutdown: %v\n", err)
		return exitFailure
	}
	return exitOK
}
