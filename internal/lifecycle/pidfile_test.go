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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLock(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "glicpatch.pid")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestPIDFileManager_Create(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "glicpatch.pid")
	m := NewPIDFileManager(path)
	defer m.Remove()

	require.NoError(t, m.Create(1234))

	pid, err := m.Read()
	require.NoError(t, err)
	assert.Equal(t, 1234, pid)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode()&os.ModePerm)

	dirInfo, err := os.Stat(filepath.Dir(path))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o700), dirInfo.Mode()&os.ModePerm)

	assert.ErrorIs(t, NewPIDFileManager(path).Create(5678), ErrPIDFileExists)
}

func TestPIDFileManager_Read(t *testing.T) {
	pid, err := NewPIDFileManager(writeLock(t, "  9999  \n")).Read()
	require.NoError(t, err)
	assert.Equal(t, 9999, pid)

	_, err = NewPIDFileManager(filepath.Join(t.TempDir(), "missing.pid")).Read()
	assert.True(t, os.IsNotExist(err))

	for _, content := range []string{"not-a-number\n", "-123\n", "0\n", "123.45\n", ""} {
		_, err := NewPIDFileManager(writeLock(t, content)).Read()
		assert.ErrorIs(t, err, ErrInvalidPID, "content %q", content)
	}
}

func TestPIDFileManager_Remove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "glicpatch.pid")
	m := NewPIDFileManager(path)
	require.NoError(t, m.Create(1234))
	require.NoError(t, m.Remove())
	assert.False(t, m.Exists())

	// Removing twice is fine and the lock can be taken again.
	require.NoError(t, m.Remove())
	again := NewPIDFileManager(path)
	defer again.Remove()
	assert.NoError(t, again.Create(5678))
}

func TestPIDFileManager_RejectsWorldWritableDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "unsafe")
	require.NoError(t, os.Mkdir(dir, 0o777))
	require.NoError(t, os.Chmod(dir, 0o777))
	info, err := os.Stat(dir)
	require.NoError(t, err)
	if info.Mode()&0o002 == 0 {
		t.Skip("directory is not world-writable on this platform")
	}

	m := NewPIDFileManager(filepath.Join(dir, "glicpatch.pid"))
	err = m.Create(1234)
	if err == nil {
		m.Remove()
	}
	assert.ErrorIs(t, err, ErrUnsafeDirectory)
}

func TestPIDFileManager_Acquire(t *testing.T) {
	t.Run("creates when absent", func(t *testing.T) {
		m := NewPIDFileManager(filepath.Join(t.TempDir(), "glicpatch.pid"))
		defer m.Remove()

		stale, err := m.Acquire(4321)
		require.NoError(t, err)
		assert.Zero(t, stale)
	})

	t.Run("reclaims lock of exited process", func(t *testing.T) {
		m := NewPIDFileManager(writeLock(t, "999999\n"))
		defer m.Remove()

		stale, err := m.Acquire(4321)
		require.NoError(t, err)
		assert.Equal(t, 999999, stale)
		pid, _ := m.Read()
		assert.Equal(t, 4321, pid)
	})

	t.Run("reclaims corrupt lock", func(t *testing.T) {
		m := NewPIDFileManager(writeLock(t, "garbage"))
		defer m.Remove()

		_, err := m.Acquire(4321)
		assert.NoError(t, err)
	})

	t.Run("refuses while owner is alive", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "glicpatch.pid")
		owner := NewPIDFileManager(path)
		require.NoError(t, owner.Create(os.Getpid()))
		defer owner.Remove()

		_, err := NewPIDFileManager(path).Acquire(4321)
		assert.ErrorIs(t, err, ErrAlreadyRunning)
		assert.True(t, owner.Exists())
	})
}
