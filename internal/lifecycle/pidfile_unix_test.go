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
	"path/filepath"
	"syscall"
	"testing"
)

func TestPIDFileManager_FileLocking(t *testing.T) {
	tmpDir := t.TempDir()
	pidPath := filepath.Join(tmpDir, "flock.pid")

	t.Run("holds exclusive lock while file is open", func(t *testing.T) {
		m := NewPIDFileManager(pidPath)
		defer m.Remove()

		if err := m.Create(1234); err != nil {
			t.Fatalf("Create() error = %v", err)
		}

		f, err := os.OpenFile(pidPath, os.O_RDWR, 0600)
		if err != nil {
			t.Fatalf("Failed to open PID file: %v", err)
		}
		defer f.Close()

		err = syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
		if err == nil {
			t.Error("Acquired lock on already-locked file")
			syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
		}
		if err != syscall.EWOULDBLOCK {
			t.Errorf("Flock error = %v, want EWOULDBLOCK", err)
		}
	})

	t.Run("lockFile reports contention", func(t *testing.T) {
		path := filepath.Join(tmpDir, "contended.pid")
		m := NewPIDFileManager(path)
		defer m.Remove()

		if err := m.Create(1234); err != nil {
			t.Fatalf("Create() error = %v", err)
		}

		f, err := os.OpenFile(path, os.O_RDWR, 0600)
		if err != nil {
			t.Fatalf("Failed to open PID file: %v", err)
		}
		defer f.Close()

		if err := lockFile(f); err != ErrPIDFileLocked {
			t.Errorf("lockFile() error = %v, want ErrPIDFileLocked", err)
		}
	})
}
