// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Custos Contributors

// Package config loads Custos configuration: built-in defaults, then an
// optional YAML file, then CUSTOS_-prefixed environment variables, then
// command-line flags. Later sources win.
package config

import (
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// envPrefix marks the environment variables config reads.
const envPrefix = "CUSTOS_"

// Config is the full runtime configuration. Keys are flat; the same names
// work in YAML, as CUSTOS_<UPPER_NAME> env variables, and as flags.
type Config struct {
	HTTPAddr    string `koanf:"http_addr"`
	MetricsAddr string `koanf:"metrics_addr"`

	DatabaseURL string `koanf:"database_url"`

	JWTSecret  string        `koanf:"jwt_secret"`
	SessionTTL time.Duration `koanf:"session_ttl"`
	ResetTTL   time.Duration `koanf:"reset_ttl"`

	SMTPHost     string `koanf:"smtp_host"`
	SMTPPort     int    `koanf:"smtp_port"`
	SMTPUsername string `koanf:"smtp_username"`
	SMTPPassword string `koanf:"smtp_password"`
	SMTPFrom     string `koanf:"smtp_from"`
	FrontendURL  string `koanf:"frontend_url"`

	SuperAdminEmail    string `koanf:"superadmin_email"`
	SuperAdminPassword string `koanf:"superadmin_password"`

	UploadDir string `koanf:"upload_dir"`
	LogFormat string `koanf:"log_format"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		HTTPAddr:    ":8080",
		MetricsAddr: ":9100",
		SessionTTL:  24 * time.Hour,
		ResetTTL:    time.Hour,
		SMTPPort:    587,
		UploadDir:   "uploads",
		LogFormat:   "json",
	}
}

// Load builds the configuration from defaults, then path (when non-empty),
// then environment, then flags (when non-nil).
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, oops.Code("CONFIG_LOAD_FAILED").
				With("path", path).
				Wrap(err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envToKey), nil); err != nil {
		return Config{}, oops.Code("CONFIG_LOAD_FAILED").
			With("source", "env").
			Wrap(err)
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return Config{}, oops.Code("CONFIG_LOAD_FAILED").
				With("source", "flags").
				Wrap(err)
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, oops.Code("CONFIG_INVALID").Wrap(err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the settings every deployment must supply.
func (c Config) Validate() error {
	if c.DatabaseURL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("database_url is required")
	}
	if c.JWTSecret == "" {
		return oops.Code("CONFIG_INVALID").Errorf("jwt_secret is required")
	}
	if len(c.JWTSecret) < 32 {
		return oops.Code("CONFIG_INVALID").Errorf("jwt_secret must be at least 32 bytes")
	}
	if c.SessionTTL <= 0 {
		return oops.Code("CONFIG_INVALID").Errorf("session_ttl must be positive")
	}
	if c.ResetTTL <= 0 {
		return oops.Code("CONFIG_INVALID").Errorf("reset_ttl must be positive")
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return oops.Code("CONFIG_INVALID").
			With("log_format", c.LogFormat).
			Errorf("log_format must be json or text")
	}
	return nil
}

// MailConfigured reports whether outbound SMTP is usable. Without it the
// server logs reset tokens instead of mailing them.
func (c Config) MailConfigured() bool {
	return c.SMTPHost != "" && c.SMTPFrom != "" && c.FrontendURL != ""
}

// envToKey maps CUSTOS_DATABASE_URL to database_url.
func envToKey(s string) string {
	return strings.ToLower(strings.TrimPrefix(s, envPrefix))
}
