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

package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tombee/glicpatch/internal/platform"
	pkgerrors "github.com/tombee/glicpatch/pkg/errors"
)

var envKeys = []string{
	"GLICPATCH_CHANNELS", "GLICPATCH_NO_RESTART", "GLICPATCH_COUNTRY",
	"GLICPATCH_METRICS_FILE", "GLICPATCH_GRACEFUL_TIMEOUT", "GLICPATCH_TERMINATE_TIMEOUT",
	"LOG_LEVEL", "LOG_FORMAT", "LOG_SOURCE",
}

// isolate points XDG lookups at a temp dir and clears config env vars.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
	return dir
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Shutdown.PollInterval != 200*time.Millisecond {
		t.Errorf("expected poll interval 200ms, got %v", cfg.Shutdown.PollInterval)
	}
	if cfg.Shutdown.GracefulTimeout != 10*time.Second {
		t.Errorf("expected graceful timeout 10s, got %v", cfg.Shutdown.GracefulTimeout)
	}
	if cfg.Shutdown.TerminateTimeout != 5*time.Second {
		t.Errorf("expected terminate timeout 5s, got %v", cfg.Shutdown.TerminateTimeout)
	}
	if !cfg.Restart {
		t.Errorf("expected restart enabled by default")
	}
	if cfg.Country != "us" {
		t.Errorf("expected country 'us', got %q", cfg.Country)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "text" {
		t.Errorf("expected log info/text, got %s/%s", cfg.Log.Level, cfg.Log.Format)
	}
	if len(cfg.Watch.Patterns) != 1 || cfg.Watch.Patterns[0] != "**/Last Version" {
		t.Errorf("unexpected watch patterns %v", cfg.Watch.Patterns)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
		errText string
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "zero poll interval",
			modify:  func(c *Config) { c.Shutdown.PollInterval = 0 },
			wantErr: true,
			errText: "shutdown.poll_interval must be positive",
		},
		{
			name:    "negative graceful timeout",
			modify:  func(c *Config) { c.Shutdown.GracefulTimeout = -time.Second },
			wantErr: true,
			errText: "shutdown.graceful_timeout must be positive",
		},
		{
			name:    "unknown channel",
			modify:  func(c *Config) { c.Channels = []string{"stable", "nightly"} },
			wantErr: true,
			errText: `unknown channel "nightly"`,
		},
		{
			name:    "uppercase country",
			modify:  func(c *Config) { c.Country = "US" },
			wantErr: true,
			errText: "country must be two lowercase letters",
		},
		{
			name:    "invalid log level",
			modify:  func(c *Config) { c.Log.Level = "loud" },
			wantErr: true,
			errText: "log.level must be one of",
		},
		{
			name:    "invalid log format",
			modify:  func(c *Config) { c.Log.Format = "xml" },
			wantErr: true,
			errText: "log.format must be one of",
		},
		{
			name: "multiple errors",
			modify: func(c *Config) {
				c.Shutdown.TerminateTimeout = 0
				c.Watch.Debounce = 0
			},
			wantErr: true,
			errText: "watch.debounce must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got nil")
				}
				if !strings.Contains(err.Error(), tt.errText) {
					t.Errorf("expected error containing %q, got %q", tt.errText, err.Error())
				}
			} else if err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		})
	}
}

func TestLoad_NoFile(t *testing.T) {
	dir := isolate(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if want := filepath.Join(dir, "data", "glicpatch", "lifecycle.log"); cfg.AuditLog != want {
		t.Errorf("expected audit log %q, got %q", want, cfg.AuditLog)
	}
	if want := filepath.Join(dir, "data", "glicpatch", "glicpatch.pid"); cfg.LockFile != want {
		t.Errorf("expected lock file %q, got %q", want, cfg.LockFile)
	}
}

func TestLoad_DefaultPath(t *testing.T) {
	isolate(t)
	path, err := ConfigPath()
	if err != nil {
		t.Fatalf("ConfigPath() error = %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("country: de\n"), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Country != "de" {
		t.Errorf("expected country 'de' from default path, got %q", cfg.Country)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "glicpatch.yaml")
	content := `
log:
  level: debug
  format: json
shutdown:
  graceful_timeout: 3s
channels: [stable, beta]
restart: false
metrics_file: /tmp/glicpatch.prom
watch:
  debounce: 500ms
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("expected log debug/json, got %s/%s", cfg.Log.Level, cfg.Log.Format)
	}
	if cfg.Shutdown.GracefulTimeout != 3*time.Second {
		t.Errorf("expected graceful timeout 3s, got %v", cfg.Shutdown.GracefulTimeout)
	}
	if cfg.Shutdown.TerminateTimeout != 5*time.Second {
		t.Errorf("expected default terminate timeout 5s, got %v", cfg.Shutdown.TerminateTimeout)
	}
	if cfg.Restart {
		t.Errorf("expected restart disabled")
	}
	if cfg.MetricsFile != "/tmp/glicpatch.prom" {
		t.Errorf("unexpected metrics file %q", cfg.MetricsFile)
	}
	if cfg.Watch.Debounce != 500*time.Millisecond {
		t.Errorf("expected debounce 500ms, got %v", cfg.Watch.Debounce)
	}
	got := cfg.ChannelFilter()
	if len(got) != 2 || got[0] != platform.Stable || got[1] != platform.Beta {
		t.Errorf("ChannelFilter() = %v, want [stable beta]", got)
	}
}

func TestLoadFromEnv(t *testing.T) {
	isolate(t)
	t.Setenv("GLICPATCH_CHANNELS", " Dev , canary,")
	t.Setenv("GLICPATCH_NO_RESTART", "true")
	t.Setenv("GLICPATCH_COUNTRY", "GB")
	t.Setenv("GLICPATCH_TERMINATE_TIMEOUT", "1s")
	t.Setenv("GLICPATCH_GRACEFUL_TIMEOUT", "not-a-duration")
	t.Setenv("LOG_LEVEL", "WARN")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if strings.Join(cfg.Channels, ",") != "dev,canary" {
		t.Errorf("expected channels dev,canary, got %v", cfg.Channels)
	}
	if cfg.Restart {
		t.Errorf("expected restart disabled by env")
	}
	if cfg.Country != "gb" {
		t.Errorf("expected country 'gb', got %q", cfg.Country)
	}
	if cfg.Shutdown.TerminateTimeout != time.Second {
		t.Errorf("expected terminate timeout 1s, got %v", cfg.Shutdown.TerminateTimeout)
	}
	if cfg.Shutdown.GracefulTimeout != 10*time.Second {
		t.Errorf("invalid duration should be ignored, got %v", cfg.Shutdown.GracefulTimeout)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("expected log level 'warn', got %q", cfg.Log.Level)
	}
}

func TestLoadInvalidFile(t *testing.T) {
	isolate(t)

	_, err := Load("/nonexistent/glicpatch.yaml")
	var cfgErr *pkgerrors.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
	if cfgErr.Key != "config_file" {
		t.Errorf("expected key 'config_file', got %q", cfgErr.Key)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("shutdown: [unclosed"), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoadValidationFailure(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "invalid.yaml")
	if err := os.WriteFile(path, []byte("country: usa\n"), 0600); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path)
	var cfgErr *pkgerrors.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
	if cfgErr.Key != "validation" {
		t.Errorf("expected key 'validation', got %q", cfgErr.Key)
	}
}
