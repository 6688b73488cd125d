package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/goliatone/go-formsubmit"
	"github.com/goliatone/go-formsubmit/pkg/client"
	"github.com/goliatone/go-formsubmit/pkg/collect"
	"github.com/goliatone/go-formsubmit/pkg/collect/tui"
	"github.com/goliatone/go-formsubmit/pkg/model"
	"github.com/goliatone/go-formsubmit/pkg/session"
	"github.com/goliatone/go-formsubmit/pkg/store"
	"github.com/goliatone/go-formsubmit/pkg/submit"
)

func (a *app) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	return fs
}

func (a *app) openStore() (store.Store, error) {
	kv, err := formsubmit.OpenStore(a.cfg.StorePath)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", a.cfg.StorePath, err)
	}
	return kv, nil
}

func (a *app) submitCommand(ctx context.Context, formID string, args []string) int {
	fs := a.newFlagSet(formID)
	values := fieldValues{}
	fs.Var(values, "set", "field value as element=value (repeatable)")
	prompt := fs.Bool("prompt", false, "prompt for fields not given with -set")
	askAll := fs.Bool("prompt-all", false, "prompt for every field, using -set values as defaults")
	baseURL := fs.String("base-url", a.cfg.BaseURL, "backend base URL")
	timeout := fs.Duration("timeout", a.cfg.Timeout, "request timeout (0 waits indefinitely)")
	metricsFile := fs.String("metrics-file", "", "write submission metrics in text format to this file")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	registry, err := formsubmit.LoadForms(ctx, a.cfg.FormsDir)
	if err != nil {
		fmt.Fprintf(a.stderr, "formsubmit: %v\n", err)
		return exitFailure
	}
	spec, ok := registry.Get(formID)
	if !ok {
		fmt.Fprintf(a.stderr, "formsubmit: form %q is not defined\n", formID)
		return exitFailure
	}

	surface := collect.NewMapSurface(values)
	reporter := submit.ReporterFunc(a.report)
	if *prompt || *askAll {
		prompter := tui.New(tui.WithAskAll(*askAll))
		reporter = promptReporter(prompter, a.report)
		if err := prompter.Fill(ctx, spec, surface); err != nil {
			if errors.Is(err, tui.ErrAborted) {
				fmt.Fprintln(a.stderr, "aborted")
				return exitFailure
			}
			fmt.Fprintf(a.stderr, "formsubmit: %v\n", err)
			return exitFailure
		}
	}

	kv, err := a.openStore()
	if err != nil {
		fmt.Fprintf(a.stderr, "formsubmit: %v\n", err)
		return exitFailure
	}
	defer kv.Close()

	reg := prometheus.NewRegistry()
	metrics, err := submit.NewMetrics(reg)
	if err != nil {
		fmt.Fprintf(a.stderr, "formsubmit: %v\n", err)
		return exitFailure
	}

	requester := client.New(
		client.WithBaseURL(*baseURL),
		client.WithTimeout(*timeout),
		client.WithLogger(a.logger),
	)
	submitter, err := submit.New(spec, collect.New(surface), requester, kv,
		submit.WithLogger(a.logger),
		submit.WithMetrics(metrics),
		submit.WithReporter(reporter),
		submit.WithNavigator(submit.NavigatorFunc(a.navigate)),
	)
	if err != nil {
		fmt.Fprintf(a.stderr, "formsubmit: %v\n", err)
		return exitFailure
	}

	res := submitter.Submit(ctx)

	if *metricsFile != "" {
		if err := prometheus.WriteToTextfile(*metricsFile, reg); err != nil {
			a.logger.Warn("write metrics", slog.Any("error", err))
		}
	}
	if !res.Success() {
		return exitFailure
	}
	if spec.Action == model.ActionReset && len(res.Body) > 0 {
		fmt.Fprintln(a.stdout, string(res.Body))
	}
	return exitOK
}

// promptReporter sends pending lines through the prompt driver so they share
// the prompts' output. Everything else, and any line the driver fails to
// print, goes to fallback.
func promptReporter(prompter *tui.Prompter, fallback submit.ReporterFunc) submit.ReporterFunc {
	return func(ctx context.Context, status submit.Status) {
		if status.Level == submit.LevelInfo && prompter.Notify(ctx, status.Message) == nil {
			return
		}
		fallback(ctx, status)
	}
}

func (a *app) report(_ context.Context, status submit.Status) {
	switch status.Level {
	case submit.LevelError:
		fmt.Fprintf(a.stderr, "✗ %s\n", status.Message)
	case submit.LevelSuccess:
		fmt.Fprintf(a.stdout, "✓ %s\n", status.Message)
	default:
		fmt.Fprintln(a.stdout, status.Message)
	}
}

func (a *app) navigate(_ context.Context, target string) error {
	fmt.Fprintf(a.stdout, "→ %s\n", target)
	return nil
}

func (a *app) whoami(ctx context.Context, args []string) int {
	fs := a.newFlagSet("whoami")
	showToken := fs.Bool("token", false, "print the raw token")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	kv, err := a.openStore()
	if err != nil {
		fmt.Fprintf(a.stderr, "formsubmit: %v\n", err)
		return exitFailure
	}
	defer kv.Close()

	sess, err := session.Load(ctx, kv)
	if errors.Is(err, session.ErrNoSession) {
		fmt.Fprintln(a.stderr, "not logged in")
		return exitFailure
	}
	if err != nil {
		fmt.Fprintf(a.stderr, "formsubmit: %v\n", err)
		return exitFailure
	}

	fmt.Fprintf(a.stdout, "name:  %s\nemail: %s\n", sess.Name, sess.Email)
	if claims, err := session.Inspect(sess.Token); err == nil {
		if claims.Subject != "" {
			fmt.Fprintf(a.stdout, "subject: %s\n", claims.Subject)
		}
		if !claims.ExpiresAt.IsZero() {
			note := ""
			if claims.Expired(time.Now()) {
				note = " (expired)"
			}
			fmt.Fprintf(a.stdout, "expires: %s%s\n", claims.ExpiresAt.Format(time.RFC3339), note)
		}
	}
	if *showToken {
		fmt.Fprintf(a.stdout, "token: %s\n", sess.Token)
	}
	return exitOK
}

func (a *app) logout(ctx context.Context, args []string) int {
	fs := a.newFlagSet("logout")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	kv, err := a.openStore()
	if err != nil {
		fmt.Fprintf(a.stderr, "formsubmit: %v\n", err)
		return exitFailure
	}
	defer kv.Close()

	if err := session.Clear(ctx, kv); err != nil {
		fmt.Fprintf(a.stderr, "formsubmit: %v\n", err)
		return exitFailure
	}
	fmt.Fprintln(a.stdout, "logged out")
	return exitOK
}

func (a *app) listForms(ctx context.Context, args []string) int {
	fs := a.newFlagSet("forms")
	only := fs.String("form", "", "print a single form")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	registry, err := formsubmit.LoadForms(ctx, a.cfg.FormsDir)
	if err != nil {
		fmt.Fprintf(a.stderr, "formsubmit: %v\n", err)
		return exitFailure
	}

	ids := registry.List()
	if *only != "" {
		ids = []string{*only}
	}
	specs := make([]model.FormSpec, 0, len(ids))
	for _, id := range ids {
		spec, ok := registry.Get(id)
		if !ok {
			fmt.Fprintf(a.stderr, "formsubmit: form %q is not defined\n", id)
			return exitFailure
		}
		specs = append(specs, spec)
	}

	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(specs); err != nil {
		fmt.Fprintf(a.stderr, "formsubmit: %v\n", err)
		return exitFailure
	}
	return exitOK
}
