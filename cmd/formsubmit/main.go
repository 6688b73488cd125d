package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/goliatone/go-formsubmit/pkg/config"
	"github.com/goliatone/go-formsubmit/pkg/logging"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

type app struct {
	cfg    config.Config
	logger *slog.Logger
	stdout io.Writer
	stderr io.Writer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	global := flag.NewFlagSet("formsubmit", flag.ContinueOnError)
	global.SetOutput(stderr)
	configPath := global.String("config", "", "YAML config file (default formsubmit.yaml when present)")
	envPath := global.String("env", ".env", "dotenv file read before FORMSUBMIT_* variables")
	global.Usage = func() { usage(global) }
	if err := global.Parse(args); err != nil {
		return exitUsage
	}

	rest := global.Args()
	if len(rest) == 0 {
		usage(global)
		return exitUsage
	}

	file, required := *configPath, true
	if file == "" {
		file, required = "formsubmit.yaml", false
	}
	cfg, err := config.Load(config.WithFile(file, required), config.WithDotEnv(*envPath))
	if err != nil {
		fmt.Fprintf(stderr, "formsubmit: %v\n", err)
		return exitFailure
	}
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(stderr, "formsubmit: %v\n", err)
		return exitFailure
	}
	format, err := logging.ParseFormat(cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(stderr, "formsubmit: %v\n", err)
		return exitFailure
	}

	a := &app{
		cfg:    cfg,
		logger: logging.New(stderr, "formsubmit", level, format),
		stdout: stdout,
		stderr: stderr,
	}

	cmd, cmdArgs := rest[0], rest[1:]
	switch cmd {
	case "login", "signup", "service":
		return a.submitCommand(ctx, cmd, cmdArgs)
	case "whoami":
		return a.whoami(ctx, cmdArgs)
	case "logout":
		return a.logout(ctx, cmdArgs)
	case "forms":
		return a.listForms(ctx, cmdArgs)
	case "check":
		return a.check(ctx, cmdArgs)
	case "mock":
		return a.mock(ctx, cmdArgs)
	case "help", "-h", "--help":
		usage(global)
		return exitOK
	default:
		fmt.Fprintf(stderr, "formsubmit: unknown command %q\n\n", cmd)
		usage(global)
		return exitUsage
	}
}

func usage(fs *flag.FlagSet) {
	out := fs.Output()
	fmt.Fprintf(out, "Usage: %s [global flags] <command> [flags]\n\n", filepath.Base(os.Args[0]))
	fmt.Fprintln(out, "Commands:")
	fmt.Fprintln(out, "  login     submit the technician login form and store the session")
	fmt.Fprintln(out, "  signup    submit the technician signup form")
	fmt.Fprintln(out, "  service   submit the create-service form (requires login)")
	fmt.Fprintln(out, "  whoami    show the stored session")
	fmt.Fprintln(out, "  logout    remove the stored session")
	fmt.Fprintln(out, "  forms     print the form catalogue as JSON")
	fmt.Fprintln(out, "  check     compare the form catalogue with a backend contract")
	fmt.Fprintln(out, "  mock      run an in-memory backend for local testing")
	fmt.Fprintln(out, "\nGlobal flags:")
	fs.PrintDefaults()
}
