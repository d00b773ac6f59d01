// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads glicpatch settings from YAML and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tombee/glicpatch/internal/platform"
	pkgerrors "github.com/tombee/glicpatch/pkg/errors"
)

// Config represents the complete glicpatch configuration.
type Config struct {
	// Log configures logging behavior.
	Log LogConfig `yaml:"log"`

	// Shutdown configures the wait phases of the shutdown escalation.
	Shutdown ShutdownConfig `yaml:"shutdown"`

	// Channels limits patching to these release channels. Empty means all.
	// Environment: GLICPATCH_CHANNELS (comma separated)
	Channels []string `yaml:"channels,omitempty"`

	// Restart relaunches the executables that were stopped.
	// Environment: GLICPATCH_NO_RESTART=1 disables it
	// Default: true
	Restart bool `yaml:"restart"`

	// Country is written to variations_country and the consistency pair.
	// Environment: GLICPATCH_COUNTRY
	// Default: us
	Country string `yaml:"country"`

	// AuditLog is the JSON-lines lifecycle log.
	// Default: <data dir>/lifecycle.log
	AuditLog string `yaml:"audit_log,omitempty"`

	// LockFile is the single-instance PID file.
	// Default: <data dir>/glicpatch.pid
	LockFile string `yaml:"lock_file,omitempty"`

	// MetricsFile, when set, receives run metrics in Prometheus text format.
	// Environment: GLICPATCH_METRICS_FILE
	MetricsFile string `yaml:"metrics_file,omitempty"`

	// Watch configures the watch command.
	Watch WatchConfig `yaml:"watch"`
}

// LogConfig configures logging behavior.
type LogConfig struct {
	// Level sets the minimum log level (debug, info, warn, error).
	// Environment: LOG_LEVEL
	// Default: info
	Level string `yaml:"level"`

	// Format sets the output format (json, text).
	// Environment: LOG_FORMAT
	// Default: text
	Format string `yaml:"format"`

	// AddSource adds source file and line information to logs.
	// Environment: LOG_SOURCE
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// ShutdownConfig bounds each shutdown phase.
type ShutdownConfig struct {
	// PollInterval is the delay between liveness checks.
	// Default: 200ms
	PollInterval time.Duration `yaml:"poll_interval"`

	// GracefulTimeout is how long to wait after asking applications to quit.
	// Environment: GLICPATCH_GRACEFUL_TIMEOUT
	// Default: 10s
	GracefulTimeout time.Duration `yaml:"graceful_timeout"`

	// TerminateTimeout is how long to wait after terminate before killing.
	// Environment: GLICPATCH_TERMINATE_TIMEOUT
	// Default: 5s
	TerminateTimeout time.Duration `yaml:"terminate_timeout"`
}

// WatchConfig configures the Last Version watcher.
type WatchConfig struct {
	// Debounce is the quiet period before a change triggers a cycle.
	// Default: 2s
	Debounce time.Duration `yaml:"debounce"`

	// Patterns select the files, relative to a channel directory, whose
	// changes trigger a cycle (doublestar syntax).
	// Default: ["**/Last Version"]
	Patterns []string `yaml:"patterns"`
}

var countryPattern = regexp.MustCompile(`^[a-z]{2}$`)

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:     "info",
			Format:    "text",
			AddSource: false,
		},
		Shutdown: ShutdownConfig{
			PollInterval:     200 * time.Millisecond,
			GracefulTimeout:  10 * time.Second,
			TerminateTimeout: 5 * time.Second,
		},
		Restart: true,
		Country: "us",
		Watch: WatchConfig{
			Debounce: 2 * time.Second,
			Patterns: []string{"**/Last Version"},
		},
	}
}

// Load loads configuration from a YAML file and environment variables.
// Environment variables take precedence over file-based configuration.
// If configPath is empty, the default path is used when it exists.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	path, explicit := configPath, configPath != ""
	if !explicit {
		if p, err := ConfigPath(); err == nil {
			path = p
		}
	}

	if path != "" {
		if err := cfg.loadFromFile(path); err != nil {
			if explicit || !errors.Is(err, fs.ErrNotExist) {
				return nil, &pkgerrors.ConfigError{
					Key:    "config_file",
					Reason: fmt.Sprintf("failed to load from %s", path),
					Cause:  err,
				}
			}
		}
	}

	// Apply defaults to any zero values (handles minimal configs)
	cfg.applyDefaults()

	// Override with environment variables
	cfg.loadFromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, &pkgerrors.ConfigError{
			Key:    "validation",
			Reason: "configuration validation failed",
			Cause:  err,
		}
	}

	return cfg, nil
}

// applyDefaults fills in zero values with sensible defaults.
func (c *Config) applyDefaults() {
	defaults := Default()

	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = defaults.Log.Format
	}
	if c.Shutdown.PollInterval == 0 {
		c.Shutdown.PollInterval = defaults.Shutdown.PollInterval
	}
	if c.Shutdown.GracefulTimeout == 0 {
		c.Shutdown.GracefulTimeout = defaults.Shutdown.GracefulTimeout
	}
	if c.Shutdown.TerminateTimeout == 0 {
		c.Shutdown.TerminateTimeout = defaults.Shutdown.TerminateTimeout
	}
	if c.Country == "" {
		c.Country = defaults.Country
	}
	if c.Watch.Debounce == 0 {
		c.Watch.Debounce = defaults.Watch.Debounce
	}
	if len(c.Watch.Patterns) == 0 {
		c.Watch.Patterns = defaults.Watch.Patterns
	}
	if c.AuditLog == "" {
		c.AuditLog = filepath.Join(DataDir(), "lifecycle.log")
	}
	if c.LockFile == "" {
		c.LockFile = filepath.Join(DataDir(), "glicpatch.pid")
	}
}

// loadFromFile loads configuration from a YAML file.
func (c *Config) loadFromFile(path string) error {
	// Expand home directory if present
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	return nil
}

// loadFromEnv loads configuration from environment variables.
func (c *Config) loadFromEnv() {
	if val := os.Getenv("GLICPATCH_CHANNELS"); val != "" {
		var channels []string
		for _, ch := range strings.Split(val, ",") {
			if ch = strings.TrimSpace(strings.ToLower(ch)); ch != "" {
				channels = append(channels, ch)
			}
		}
		c.Channels = channels
	}

	if val := os.Getenv("GLICPATCH_NO_RESTART"); val == "1" || strings.EqualFold(val, "true") {
		c.Restart = false
	}

	if val := os.Getenv("GLICPATCH_COUNTRY"); val != "" {
		c.Country = strings.ToLower(val)
	}

	if val := os.Getenv("GLICPATCH_METRICS_FILE"); val != "" {
		c.MetricsFile = val
	}

	if val := os.Getenv("GLICPATCH_GRACEFUL_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			c.Shutdown.GracefulTimeout = d
		}
	}

	if val := os.Getenv("GLICPATCH_TERMINATE_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			c.Shutdown.TerminateTimeout = d
		}
	}

	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = strings.ToLower(val)
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = strings.ToLower(val)
	}
	if os.Getenv("LOG_SOURCE") == "1" {
		c.Log.AddSource = true
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	var errs []string

	if c.Shutdown.PollInterval <= 0 {
		errs = append(errs, fmt.Sprintf("shutdown.poll_interval must be positive, got %v", c.Shutdown.PollInterval))
	}
	if c.Shutdown.GracefulTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("shutdown.graceful_timeout must be positive, got %v", c.Shutdown.GracefulTimeout))
	}
	if c.Shutdown.TerminateTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("shutdown.terminate_timeout must be positive, got %v", c.Shutdown.TerminateTimeout))
	}

	validLevels := map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "warning": true, "error": true}
	if !validLevels[c.Log.Level] {
		errs = append(errs, fmt.Sprintf("log.level must be one of [trace, debug, info, warn, warning, error], got %q", c.Log.Level))
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Log.Format] {
		errs = append(errs, fmt.Sprintf("log.format must be one of [json, text], got %q", c.Log.Format))
	}

	for _, ch := range c.Channels {
		if _, err := platform.ParseChannel(ch); err != nil {
			errs = append(errs, fmt.Sprintf("channels: %v", err))
		}
	}

	if !countryPattern.MatchString(c.Country) {
		errs = append(errs, fmt.Sprintf("country must be two lowercase letters, got %q", c.Country))
	}

	if c.Watch.Debounce <= 0 {
		errs = append(errs, fmt.Sprintf("watch.debounce must be positive, got %v", c.Watch.Debounce))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// ChannelFilter returns the configured channels. It is empty when every
// channel should be patched.
func (c *Config) ChannelFilter() []platform.Channel {
	var out []platform.Channel
	for _, name := range c.Channels {
		if ch, err := platform.ParseChannel(name); err == nil {
			out = append(out, ch)
		}
	}
	return out
}
