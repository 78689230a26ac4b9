// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 RealmDir Contributors

// Package config loads service configuration from an optional YAML file and
// command-line flags, with flags taking precedence.
package config

import (
	"os"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Default values for the serve command.
const (
	DefaultListenAddr  = "127.0.0.1:8000"
	DefaultMetricsAddr = "127.0.0.1:9100"
	DefaultLogFormat   = "json"
	DefaultOpTimeout   = 5 * time.Second
)

// Config holds everything the directory service consumes. The backing
// store itself only needs DatabaseURL; the rest configures the glue around
// the core.
type Config struct {
	ListenAddr       string        `koanf:"listen_addr"`
	MetricsAddr      string        `koanf:"metrics_addr"`
	DatabaseURL      string        `koanf:"database_url"`
	LogFormat        string        `koanf:"log_format"`
	AdminUser        string        `koanf:"admin_user"`
	AdminPassword    string        `koanf:"admin_password"`
	OperationTimeout time.Duration `koanf:"operation_timeout"`
}

// Load builds a Config from the optional YAML file at path and the given
// flag set. Precedence: changed flags > file values > flag defaults. An
// empty database URL falls back to the DATABASE_URL environment variable.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_FILE_FAILED").With("path", path).Wrap(err)
		}
	}

	if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
		return nil, oops.Code("CONFIG_FLAGS_FAILED").Wrap(err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, oops.Code("CONFIG_UNMARSHAL_FAILED").Wrap(err)
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.OperationTimeout <= 0 {
		cfg.OperationTimeout = DefaultOpTimeout
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return oops.Code("CONFIG_INVALID").Errorf("listen_addr is required")
	}
	if c.DatabaseURL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("database_url is required (flag, file, or DATABASE_URL)")
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return oops.Code("CONFIG_INVALID").Errorf("log_format must be 'json' or 'text', got %q", c.LogFormat)
	}
	return nil
}

// Flags returns the serve command's flag set with defaults, bound to the
// koanf keys in Config.
func Flags() *pflag.FlagSet {
	f := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	f.String("listen_addr", DefaultListenAddr, "API listen address")
	f.String("metrics_addr", DefaultMetricsAddr, "metrics/health HTTP address (empty = disabled)")
	f.String("database_url", "", "backing store connection URL (or DATABASE_URL)")
	f.String("log_format", DefaultLogFormat, "log format (json or text)")
	f.String("admin_user", "", "basic-auth user for the API (empty = gate disabled)")
	f.String("admin_password", "", "basic-auth password for the API")
	f.Duration("operation_timeout", DefaultOpTimeout, "bound on each directory operation")
	return f
}
