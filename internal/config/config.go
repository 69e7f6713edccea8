// Package config loads workbench configuration from the user config file
// with environment overrides.
//
// Resolution order (highest to lowest precedence):
//  1. Environment variables (WORKBENCH_*)
//  2. Config file (~/.workbench/config.yaml by default)
//  3. Built-in defaults
package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/intraworks/workbench/internal/errors"
)

// Config holds all workbench client configuration.
type Config struct {
	// ServerURL is the base URL of the workspace server
	ServerURL string `yaml:"server_url"`

	// RequestTimeout bounds every API request
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// RefreshInterval is the background refresh check period
	RefreshInterval time.Duration `yaml:"refresh_interval"`

	// RefreshAhead is how far before access token expiry a refresh
	// is triggered
	RefreshAhead time.Duration `yaml:"refresh_ahead"`

	// ScanDebounce batches bursts of content changes into one
	// image-enhancement pass
	ScanDebounce time.Duration `yaml:"scan_debounce"`

	// LogLevel is debug, info, warn, or error
	LogLevel string `yaml:"log_level"`

	// LogFormat is json or text
	LogFormat string `yaml:"log_format"`
}

// Default returns the built-in configuration defaults.
func Default() *Config {
	return &Config{
		ServerURL:       "http://localhost:8080",
		RequestTimeout:  30 * time.Second,
		RefreshInterval: 2 * time.Minute,
		RefreshAhead:    5 * time.Minute,
		ScanDebounce:    200 * time.Millisecond,
		LogLevel:        "info",
		LogFormat:       "json",
	}
}

// Dir returns the workbench user config directory (~/.workbench).
func Dir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".workbench"
	}
	return filepath.Join(homeDir, ".workbench")
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// Load reads configuration from path, layering it over defaults and
// applying environment overrides. A missing file is not an error; a file
// that exists but does not parse is.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrap(errors.ErrCodeConfigInvalid, "cannot parse "+path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileReadFailed, "cannot read "+path, err)
	}

	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnv layers WORKBENCH_* environment variables over the config.
func (c *Config) applyEnv() {
	if v := os.Getenv("WORKBENCH_SERVER_URL"); v != "" {
		c.ServerURL = v
	}
	if v := os.Getenv("WORKBENCH_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("WORKBENCH_LOG_FORMAT"); v != "" {
		c.LogFormat = v
	}
	if d, ok := envDuration("WORKBENCH_REQUEST_TIMEOUT"); ok {
		c.RequestTimeout = d
	}
	if d, ok := envDuration("WORKBENCH_REFRESH_INTERVAL"); ok {
		c.RefreshInterval = d
	}
	if d, ok := envDuration("WORKBENCH_REFRESH_AHEAD"); ok {
		c.RefreshAhead = d
	}
}

func (c *Config) validate() error {
	if c.ServerURL == "" {
		return errors.NewConfigInvalidError("server_url must not be empty")
	}
	if c.RequestTimeout <= 0 {
		return errors.NewConfigInvalidError("request_timeout must be positive")
	}
	if c.RefreshInterval <= 0 {
		return errors.NewConfigInvalidError("refresh_interval must be positive")
	}
	if c.RefreshAhead <= 0 {
		return errors.NewConfigInvalidError("refresh_ahead must be positive")
	}
	return nil
}

func envDuration(key string) (time.Duration, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, false
	}
	return d, true
}
