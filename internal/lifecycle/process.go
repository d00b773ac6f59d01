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
	"io/fs"
	"os"
	"sort"
	"syscall"

	"github.com/shirou/gopsutil/v4/process"
)

var (
	// ErrProcessNotRunning is returned when the process does not exist.
	ErrProcessNotRunning = errors.New("process not running")

	// ErrZombie is returned when the process has exited but not been reaped.
	ErrZombie = errors.New("process is a zombie")
)

// Process is a handle to one entry of the OS process table.
// Any method may fail once the process has exited; IsGone reports those errors.
type Process interface {
	PID() int32
	Name() (string, error)
	Exe() (string, error)
	// Parent returns nil, nil when the process has no live parent.
	Parent() (Process, error)
	IsRunning() (bool, error)
	Terminate() error
	Kill() error
}

// ProcessTable enumerates live processes.
type ProcessTable interface {
	Processes(ctx context.Context) ([]Process, error)
}

// IsGone reports whether err means the process no longer exists.
func IsGone(err error) bool {
	return errors.Is(err, ErrProcessNotRunning) ||
		errors.Is(err, ErrZombie) ||
		errors.Is(err, process.ErrorProcessNotRunning) ||
		errors.Is(err, os.ErrProcessDone) ||
		errors.Is(err, syscall.ESRCH) ||
		errors.Is(err, fs.ErrNotExist)
}

// IsDenied reports whether err is a permission failure.
func IsDenied(err error) bool {
	return errors.Is(err, process.ErrorNotPermitted) ||
		errors.Is(err, fs.ErrPermission)
}

// IsProcessRunning checks if a process with the given PID exists.
func IsProcessRunning(pid int) bool {
	if pid <= 0 {
		return false
	}
	ok, err := process.PidExists(int32(pid))
	return err == nil && ok
}

// TargetSet is the result of discovery: distinct processes in table order.
type TargetSet []Process

// PIDs returns the process ids of the set.
func (s TargetSet) PIDs() []int32 {
	pids := make([]int32, len(s))
	for i, p := range s {
		pids[i] = p.PID()
	}
	return pids
}

// ExecutableSet holds the distinct executable paths captured at shutdown.
type ExecutableSet map[string]struct{}

// Add records path. Empty paths are ignored.
func (s ExecutableSet) Add(path string) {
	if path != "" {
		s[path] = struct{}{}
	}
}

// Len returns the number of paths.
func (s ExecutableSet) Len() int {
	return len(s)
}

// Sorted returns the paths in lexical order.
func (s ExecutableSet) Sorted() []string {
	paths := make([]string, 0, len(s))
	for p := range s {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
