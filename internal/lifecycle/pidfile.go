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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

var (
	// ErrPIDFileExists is returned when trying to create a PID file that already exists.
	ErrPIDFileExists = errors.New("PID file already exists")

	// ErrPIDFileLocked is returned when another process holds the PID file lock.
	ErrPIDFileLocked = errors.New("PID file is locked by another process")

	// ErrInvalidPID is returned when the PID file contains invalid data.
	ErrInvalidPID = errors.New("invalid PID in file")

	// ErrUnsafeDirectory is returned when the PID file parent is world-writable.
	ErrUnsafeDirectory = errors.New("PID file directory is world-writable")

	// ErrAlreadyRunning is returned by Acquire when a live process owns the PID file.
	ErrAlreadyRunning = errors.New("another glicpatch run is in progress")
)

// PIDFileManager guards a run against concurrent runs on the same host.
// It uses an exclusive file lock and atomic creation (O_EXCL)
// to prevent race conditions and symlink attacks.
type PIDFileManager struct {
	path     string
	lockFile *os.File
}

// NewPIDFileManager creates a new PID file manager for the given path.
func NewPIDFileManager(path string) *PIDFileManager {
	return &PIDFileManager{
		path: path,
	}
}

// Path returns the PID file location.
func (m *PIDFileManager) Path() string {
	return m.path
}

// Acquire creates the PID file for pid. A PID file left behind by a process
// that is no longer running is removed and creation retried once.
// Returns an error wrapping ErrAlreadyRunning when the owner is alive.
func (m *PIDFileManager) Acquire(pid int) (stalePID int, err error) {
	err = m.Create(pid)
	if !errors.Is(err, ErrPIDFileExists) {
		return 0, err
	}

	owner, readErr := m.Read()
	if readErr == nil && IsProcessRunning(owner) {
		return 0, fmt.Errorf("%w (pid %d, lock %s)", ErrAlreadyRunning, owner, m.path)
	}
	if readErr != nil && !errors.Is(readErr, ErrInvalidPID) && !os.IsNotExist(readErr) {
		// Windows refuses reads of a locked range.
		return 0, fmt.Errorf("%w (lock %s): %v", ErrAlreadyRunning, m.path, readErr)
	}

	if err := os.Remove(m.path); err != nil && !os.IsNotExist(err) {
		return 0, fmt.Errorf("failed to remove stale PID file: %w", err)
	}
	if err := m.Create(pid); err != nil {
		if errors.Is(err, ErrPIDFileExists) || errors.Is(err, ErrPIDFileLocked) {
			return 0, fmt.Errorf("%w (lock %s)", ErrAlreadyRunning, m.path)
		}
		return 0, err
	}
	return owner, nil
}

// Create writes the given PID to the file with exclusive locking.
// It creates the parent directory if needed and sets restrictive permissions.
// Returns ErrPIDFileExists if the file already exists.
func (m *PIDFileManager) Create(pid int) error {
	parentDir := filepath.Dir(m.path)
	if err := m.verifyDirectorySafety(parentDir); err != nil {
		return fmt.Errorf("unsafe PID file location: %w", err)
	}

	if err := os.MkdirAll(parentDir, 0700); err != nil {
		return fmt.Errorf("failed to create PID file directory: %w", err)
	}

	// O_EXCL prevents symlink attacks; O_RDWR is needed for the lock
	f, err := os.OpenFile(m.path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		if os.IsExist(err) {
			return ErrPIDFileExists
		}
		return fmt.Errorf("failed to create PID file: %w", err)
	}

	if err := lockFile(f); err != nil {
		f.Close()
		os.Remove(m.path)
		return err
	}

	if _, err := f.WriteString(fmt.Sprintf("%d\n", pid)); err != nil {
		m.abandon(f)
		return fmt.Errorf("failed to write PID: %w", err)
	}

	if err := f.Sync(); err != nil {
		m.abandon(f)
		return fmt.Errorf("failed to sync PID file: %w", err)
	}

	// Keep file open to maintain lock
	m.lockFile = f
	return nil
}

// Read reads the PID from the file.
// Returns ErrInvalidPID if the file contains non-numeric data.
func (m *PIDFileManager) Read() (int, error) {
	data, err := os.ReadFile(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, err
		}
		return 0, fmt.Errorf("failed to read PID file: %w", err)
	}

	pidStr := strings.TrimSpace(string(data))
	pid, err := strconv.Atoi(pidStr)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrInvalidPID, pidStr)
	}

	if pid <= 0 {
		return 0, fmt.Errorf("%w: PID must be positive, got %d", ErrInvalidPID, pid)
	}

	return pid, nil
}

// Remove releases the lock and deletes the PID file.
func (m *PIDFileManager) Remove() error {
	if m.lockFile != nil {
		unlockFile(m.lockFile)
		m.lockFile.Close()
		m.lockFile = nil
	}

	if err := os.Remove(m.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove PID file: %w", err)
	}

	return nil
}

// Exists returns true if the PID file exists.
func (m *PIDFileManager) Exists() bool {
	_, err := os.Stat(m.path)
	return err == nil
}

func (m *PIDFileManager) abandon(f *os.File) {
	unlockFile(f)
	f.Close()
	os.Remove(m.path)
}

// verifyDirectorySafety checks that the directory is not world-writable.
func (m *PIDFileManager) verifyDirectorySafety(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		// Directory doesn't exist yet - that's fine, we'll create it
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to stat directory: %w", err)
	}

	mode := info.Mode()
	if mode&0002 != 0 {
		return fmt.Errorf("%w: %s has mode %04o", ErrUnsafeDirectory, dir, mode&os.ModePerm)
	}

	return nil
}
