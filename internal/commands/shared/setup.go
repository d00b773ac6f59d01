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

package shared

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/tombee/glicpatch/internal/config"
	"github.com/tombee/glicpatch/internal/lifecycle"
	"github.com/tombee/glicpatch/internal/log"
	"github.com/tombee/glicpatch/internal/platform"
)

// LoadConfig loads the file named by --config, or the default file.
func LoadConfig() (*config.Config, error) {
	cfg, err := config.Load(GetConfigPath())
	if err != nil {
		return nil, NewConfigError("failed to load configuration", err)
	}
	return cfg, nil
}

// NewLogger builds the diagnostic logger. --verbose forces debug and
// --quiet limits output to errors; the environment is applied on top.
func NewLogger(cfg *config.Config, out io.Writer) *slog.Logger {
	lc := &log.Config{
		Level:     cfg.Log.Level,
		Format:    log.Format(cfg.Log.Format),
		Output:    out,
		AddSource: cfg.Log.AddSource,
	}
	lc = log.FromEnvWith(lc)
	switch {
	case GetVerbose():
		lc.Level = "debug"
	case GetQuiet():
		lc.Level = "error"
	}
	return log.New(lc)
}

// ResolvePlatform returns the current platform and home directory.
func ResolvePlatform() (*platform.Platform, string, error) {
	p, err := platform.Current()
	if err != nil {
		return nil, "", NewFailedError("unsupported platform", err)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, "", NewFailedError("failed to resolve home directory", err)
	}
	return p, home, nil
}

// AcquireLock takes the single-instance lock at path. The returned release
// function removes it. A stale lock left by a dead process is reclaimed and
// recorded in audit.
func AcquireLock(path string, audit *lifecycle.LifecycleLogger, logger *slog.Logger) (func(), error) {
	mgr := lifecycle.NewPIDFileManager(path)
	stale, err := mgr.Acquire(os.Getpid())
	if err != nil {
		if errors.Is(err, lifecycle.ErrAlreadyRunning) {
			return nil, NewBusyError("another glicpatch is running", err)
		}
		return nil, NewFailedError(fmt.Sprintf("failed to acquire lock %s", path), err)
	}
	if stale != 0 {
		logger.Warn("reclaimed stale lock", log.Int("stale_pid", stale), log.String(log.PathKey, path))
		if err := audit.LogStalePID(stale, path); err != nil {
			logger.Debug("audit log write failed", log.Error(err))
		}
	}
	return func() {
		if err := mgr.Remove(); err != nil {
			logger.Debug("failed to remove lock", log.Error(err))
		}
	}, nil
}
