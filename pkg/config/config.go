// Package config resolves CLI settings from defaults, an optional YAML file,
// an optional .env file and FORMSUBMIT_* environment variables, in that order
// of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formsubmit/pkg/client"
)

const (
	EnvBaseURL   = "FORMSUBMIT_BASE_URL"
	EnvStore     = "FORMSUBMIT_STORE"
	EnvTimeout   = "FORMSUBMIT_TIMEOUT"
	EnvLogLevel  = "FORMSUBMIT_LOG_LEVEL"
	EnvLogFormat = "FORMSUBMIT_LOG_FORMAT"
	EnvFormsDir  = "FORMSUBMIT_FORMS_DIR"
)

// Config holds the resolved settings.
type Config struct {
	BaseURL   string        `yaml:"base_url"`
	StorePath string        `yaml:"store_path"`
	Timeout   time.Duration `yaml:"timeout"`
	LogLevel  string        `yaml:"log_level"`
	LogFormat string        `yaml:"log_format"`
	FormsDir  string        `yaml:"forms_dir"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		BaseURL:   client.DefaultBaseURL,
		StorePath: DefaultStorePath(),
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// DefaultStorePath is ~/.formsubmit/store.db, or a relative path when the
// home directory is unknown.
func DefaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(".formsubmit", "store.db")
	}
	return filepath.Join(home, ".formsubmit", "store.db")
}

type loader struct {
	file    string
	dotenv  string
	lookup  func(string) (string, bool)
	require bool
}

// Option configures Load.
type Option func(*loader)

// WithFile reads settings from a YAML file. A missing file is ignored unless
// required is true.
func WithFile(path string, required bool) Option {
	return func(l *loader) {
		l.file = strings.TrimSpace(path)
		l.require = required
	}
}

// WithDotEnv reads KEY=value pairs from path. Values already present in the
// environment win. A missing file is ignored.
func WithDotEnv(path string) Option {
	return func(l *loader) {
		l.dotenv = strings.TrimSpace(path)
	}
}

// WithLookup replaces os.LookupEnv.
func WithLookup(fn func(string) (string, bool)) Option {
	return func(l *loader) {
		if fn != nil {
			l.lookup = fn
		}
	}
}

// Load resolves the configuration.
func Load(options ...Option) (Config, error) {
	l := &loader{lookup: os.LookupEnv}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(l)
	}

	cfg := Default()
	if l.file != "" {
		if err := mergeFile(&cfg, l.file, l.require); err != nil {
			return Config{}, err
		}
	}

	lookup := l.lookup
	if l.dotenv != "" {
		values, err := godotenv.Read(l.dotenv)
		switch {
		case err == nil:
			lookup = layered(l.lookup, values)
		case errors.Is(err, fs.ErrNotExist):
		default:
			return Config{}, fmt.Errorf("config: read %s: %w", l.dotenv, err)
		}
	}

	if err := applyEnv(&cfg, lookup); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings that cannot work.
func (c Config) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return errors.New("config: base_url is required")
	}
	if strings.TrimSpace(c.StorePath) == "" {
		return errors.New("config: store_path is required")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("config: timeout must not be negative, got %s", c.Timeout)
	}
	return nil
}

func mergeFile(cfg *Config, path string, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !required {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	overlay(cfg, file)
	return nil
}

func overlay(dst *Config, src Config) {
	set := func(target *string, value string) {
		if v := strings.TrimSpace(value); v != "" {
			*target = v
		}
	}
	set(&dst.BaseURL, src.BaseURL)
	set(&dst.StorePath, src.StorePath)
	set(&dst.LogLevel, src.LogLevel)
	set(&dst.LogFormat, src.LogFormat)
	set(&dst.FormsDir, src.FormsDir)
	if src.Timeout != 0 {
		dst.Timeout = src.Timeout
	}
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	env := Config{}
	get := func(key string) string {
		v, _ := lookup(key)
		return v
	}
	env.BaseURL = get(EnvBaseURL)
	env.StorePath = get(EnvStore)
	env.LogLevel = get(EnvLogLevel)
	env.LogFormat = get(EnvLogFormat)
	env.FormsDir = get(EnvFormsDir)
	if raw := strings.TrimSpace(get(EnvTimeout)); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("config: %s: %w", EnvTimeout, err)
		}
		env.Timeout = d
	}
	overlay(cfg, env)
	return nil
}

func layered(primary func(string) (string, bool), fallback map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		if v, ok := primary(key); ok {
			return v, true
		}
		v, ok := fallback[key]
		return v, ok
	}
}
