package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func env(values map[string]string) Option {
	return WithLookup(func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	})
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(env(nil))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Fatalf("defaults mismatch (-want +got):\n%s", diff)
	}
	if cfg.BaseURL != "http://127.0.0.1:8000" {
		t.Fatalf("base url = %q", cfg.BaseURL)
	}
}

func TestLoad_Precedence(t *testing.T) {
	file := writeFile(t, "formsubmit.yaml", `base_url: http://file.example
store_path: /tmp/file.db
timeout: 5s
log_level: debug
`)
	dotenv := writeFile(t, ".env", "FORMSUBMIT_BASE_URL=http://dotenv.example\nFORMSUBMIT_LOG_FORMAT=json\n")

	cfg, err := Load(
		WithFile(file, true),
		WithDotEnv(dotenv),
		env(map[string]string{EnvBaseURL: "http://env.example", EnvTimeout: "2s"}),
	)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	want := Config{
		BaseURL:   "http://env.example",
		StorePath: "/tmp/file.db",
		Timeout:   2 * time.Second,
		LogLevel:  "debug",
		LogFormat: "json",
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_MissingFiles(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.yaml")
	if _, err := Load(WithFile(missing, false), WithDotEnv(missing+".env"), env(nil)); err != nil {
		t.Fatalf("optional files should be ignored: %v", err)
	}
	if _, err := Load(WithFile(missing, true), env(nil)); err == nil {
		t.Fatalf("expected error for required missing file")
	}
}

func TestLoad_Errors(t *testing.T) {
	bad := writeFile(t, "bad.yaml", "timeout: [1")
	if _, err := Load(WithFile(bad, true), env(nil)); err == nil {
		t.Fatalf("expected parse error")
	}
	_, err := Load(env(map[string]string{EnvTimeout: "soon"}))
	if err == nil || !strings.Contains(err.Error(), EnvTimeout) {
		t.Fatalf("expected timeout error, got %v", err)
	}
	_, err = Load(env(map[string]string{EnvTimeout: "-1s"}))
	if err == nil {
		t.Fatalf("expected negative timeout to be rejected")
	}
}
