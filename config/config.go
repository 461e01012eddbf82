// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

// Package config loads the configuration of the icecap resource tools.
//
// Configuration is read from a single YAML file named by:
//   - the ICECAP_CONFIG environment variable, or
//   - the --config flag passed to the command
//
// There is no automatic discovery. Values missing from the file keep the
// defaults returned by Default.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/suprsokr/icecap/mpq"
)

// EnvVar names the environment variable holding the config file path.
const EnvVar = "ICECAP_CONFIG"

// Config is the configuration of the resource tools.
type Config struct {
	// DataRoot is the client data directory searched for MPQ archives.
	DataRoot string `yaml:"data_root"`

	// ArchivePriorities orders archives by path pattern, highest priority
	// first. Default: mpq.DefaultPriorities
	ArchivePriorities []string `yaml:"archive_priorities"`

	// LogLevel is one of debug, info, warn or error. Default: info
	LogLevel string `yaml:"log_level"`

	// Concurrency bounds how many archives are opened at once.
	// Zero uses one worker per CPU.
	Concurrency int `yaml:"concurrency"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		ArchivePriorities: append([]string(nil), mpq.DefaultPriorities...),
		LogLevel:          "info",
	}
}

// Load loads configuration from the file named by ICECAP_CONFIG.
func Load() (*Config, error) {
	path := os.Getenv(EnvVar)
	if path == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your icecap.yaml config file, or use --config flag", EnvVar)
	}
	return LoadFile(path)
}

// LoadFile loads configuration from path on top of Default. ${VAR} and
// ${VAR:-default} in data_root are expanded from the environment.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.DataRoot = expandVars(cfg.DataRoot)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default} patterns.
func expandVars(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		return parts[2]
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.DataRoot == "" {
		errs = append(errs, errors.New("data_root is required"))
	}
	if len(c.ArchivePriorities) == 0 {
		errs = append(errs, errors.New("archive_priorities must not be empty"))
	}
	for i, p := range c.ArchivePriorities {
		if strings.TrimSpace(p) == "" {
			errs = append(errs, fmt.Errorf("archive_priorities[%d] is empty", i))
		}
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	if c.Concurrency < 0 {
		errs = append(errs, fmt.Errorf("concurrency must not be negative, got %d", c.Concurrency))
	}

	return errors.Join(errs...)
}

// Level returns LogLevel as a slog level.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	return level, nil
}
