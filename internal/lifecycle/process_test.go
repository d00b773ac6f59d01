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
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"syscall"
	"testing"

	"github.com/shirou/gopsutil/v4/process"
)

func TestIsProcessRunning(t *testing.T) {
	t.Run("returns true for current process", func(t *testing.T) {
		if !IsProcessRunning(os.Getpid()) {
			t.Error("IsProcessRunning(os.Getpid()) = false, want true")
		}
	})

	t.Run("returns false for non-existent PID", func(t *testing.T) {
		// Use a very high PID that's unlikely to exist
		if IsProcessRunning(999999) {
			t.Error("IsProcessRunning(999999) = true, want false")
		}
	})

	t.Run("returns false for non-positive PID", func(t *testing.T) {
		if IsProcessRunning(0) || IsProcessRunning(-1) {
			t.Error("IsProcessRunning() = true for non-positive PID")
		}
	})
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		gone   bool
		denied bool
	}{
		{"sentinel", ErrProcessNotRunning, true, false},
		{"zombie", ErrZombie, true, false},
		{"gopsutil not running", process.ErrorProcessNotRunning, true, false},
		{"wrapped ESRCH", fmt.Errorf("signal: %w", syscall.ESRCH), true, false},
		{"proc entry removed", &fs.PathError{Op: "open", Path: "/proc/1/stat", Err: fs.ErrNotExist}, true, false},
		{"process done", os.ErrProcessDone, true, false},
		{"permission", fs.ErrPermission, false, true},
		{"gopsutil not permitted", process.ErrorNotPermitted, false, true},
		{"other", errors.New("boom"), false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsGone(tt.err); got != tt.gone {
				t.Errorf("IsGone() = %v, want %v", got, tt.gone)
			}
			if got := IsDenied(tt.err); got != tt.denied {
				t.Errorf("IsDenied() = %v, want %v", got, tt.denied)
			}
		})
	}
}

func TestSystemTable(t *testing.T) {
	procs, err := NewSystemTable().Processes(context.Background())
	if err != nil {
		t.Skipf("process table unavailable: %v", err)
	}

	self := int32(os.Getpid())
	for _, p := range procs {
		if p.PID() != self {
			continue
		}
		running, err := p.IsRunning()
		if err != nil || !running {
			t.Errorf("IsRunning() = %v, %v for current process", running, err)
		}
		if _, err := p.Name(); err != nil {
			t.Errorf("Name() error = %v", err)
		}
		return
	}
	t.Error("current process not found in process table")
}

func TestExecutableSet(t *testing.T) {
	s := ExecutableSet{}
	s.Add("/b")
	s.Add("/a")
	s.Add("/b")
	s.Add("")

	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}
	got := s.Sorted()
	if len(got) != 2 || got[0] != "/a" || got[1] != "/b" {
		t.Errorf("Sorted() = %v, want [/a /b]", got)
	}
}
