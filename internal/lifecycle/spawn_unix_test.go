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

//go:build !windows

package lifecycle

import (
	"os"
	"strings"
	"testing"
)

// skipOnSpawnError checks if an error is a spawn permission error and skips if so.
// Some environments (sandboxed test runners, containers) block fork/exec.
func skipOnSpawnError(t *testing.T, err error) {
	t.Helper()
	if err != nil && strings.Contains(err.Error(), "operation not permitted") {
		t.Skipf("Skipping: spawn not permitted in this environment: %v", err)
	}
}

func TestSpawner(t *testing.T) {
	if os.Getenv("SKIP_SPAWN_TESTS") != "" {
		t.Skip("Skipping spawn tests (SKIP_SPAWN_TESTS is set)")
	}

	t.Run("starts detached process", func(t *testing.T) {
		pid, err := NewSpawner().Start("sh", "-c", "exit 0")
		skipOnSpawnError(t, err)
		if err != nil {
			t.Fatalf("Start() error = %v", err)
		}
		if pid <= 0 {
			t.Errorf("Start() pid = %d, want > 0", pid)
		}
	})

	t.Run("run reports exit status", func(t *testing.T) {
		err := NewSpawner().Run("sh", "-c", "exit 3")
		skipOnSpawnError(t, err)
		if err == nil {
			t.Error("Run() error = nil, want exit status")
		}
	})

	t.Run("start fails for missing binary", func(t *testing.T) {
		if _, err := NewSpawner().Start("/nonexistent/chrome"); err == nil {
			t.Error("Start() error = nil, want error")
		}
	})
}
