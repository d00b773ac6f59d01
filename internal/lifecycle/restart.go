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

package lifecycle

import (
	"log/slog"
	"os"
)

// LaunchMethod is how an executable was relaunched.
type LaunchMethod string

const (
	LaunchBundle     LaunchMethod = "bundle"
	LaunchExecutable LaunchMethod = "executable"
)

// LaunchResult is the outcome of relaunching one executable.
type LaunchResult struct {
	Executable string
	Method     LaunchMethod
	// Target is the path actually launched: the bundle or the executable.
	Target string
	// PID is set for direct launches only.
	PID int
	Err error
}

// Launcher relaunches the executables captured by a shutdown.
type Launcher struct {
	Runner Runner
	// UseBundles prefers "open -a <bundle>" for executables inside an
	// application bundle.
	UseBundles   bool
	BundleExists func(path string) bool
	Logger       *slog.Logger
}

// NewLauncher returns a Launcher that spawns real processes.
func NewLauncher(useBundles bool) *Launcher {
	return &Launcher{
		Runner:       NewSpawner(),
		UseBundles:   useBundles,
		BundleExists: dirExists,
	}
}

// Restart launches every executable once. A failure is recorded in its
// result and does not stop the remaining launches.
func (l *Launcher) Restart(executables ExecutableSet) []LaunchResult {
	logger := l.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	results := make([]LaunchResult, 0, executables.Len())
	for _, exe := range executables.Sorted() {
		res := l.launch(exe)
		if res.Err != nil {
			logger.Warn("failed to restart executable",
				slog.String("path", exe),
				slog.String("method", string(res.Method)),
				slog.Any("error", res.Err))
		} else {
			logger.Debug("restarted executable",
				slog.String("path", res.Target),
				slog.String("method", string(res.Method)))
		}
		results = append(results, res)
	}
	return results
}

func (l *Launcher) launch(exe string) LaunchResult {
	if l.UseBundles {
		if bundle, ok := AppBundle(exe); ok && l.bundleExists(bundle) {
			return LaunchResult{
				Executable: exe,
				Method:     LaunchBundle,
				Target:     bundle,
				Err:        l.Runner.Run("open", "-a", bundle),
			}
		}
	}

	pid, err := l.Runner.Start(exe)
	return LaunchResult{
		Executable: exe,
		Method:     LaunchExecutable,
		Target:     exe,
		PID:        pid,
		Err:        err,
	}
}

func (l *Launcher) bundleExists(path string) bool {
	if l.BundleExists == nil {
		return dirExists(path)
	}
	return l.BundleExists(path)
}

func dirExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
