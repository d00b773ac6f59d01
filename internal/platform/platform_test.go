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

package platform

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/tombee/glicpatch/pkg/errors"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		goos        string
		wantBundles bool
	}{
		{goos: "windows", wantBundles: false},
		{goos: "linux", wantBundles: false},
		{goos: "darwin", wantBundles: true},
	}

	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			p, err := Resolve(tt.goos)
			require.NoError(t, err)
			assert.Equal(t, tt.goos, p.GOOS)
			assert.Equal(t, tt.wantBundles, p.UsesBundles())
			for _, ch := range Channels {
				assert.NotEmpty(t, p.UserDataDir(ch, "/home/u"), "channel %s", ch)
			}
		})
	}

	t.Run("unsupported platform", func(t *testing.T) {
		_, err := Resolve("plan9")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUnsupported))

		var pe *pkgerrors.PlatformError
		require.True(t, errors.As(err, &pe))
		assert.Equal(t, "plan9", pe.Platform)
	})
}

func TestUserDataDir(t *testing.T) {
	p, err := Resolve("linux")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join("/home/u", ".config", "google-chrome-unstable"), p.UserDataDir(Dev, "/home/u"))
	assert.Empty(t, p.UserDataDir(Channel("nightly"), "/home/u"))

	mac, err := Resolve("darwin")
	require.NoError(t, err)
	assert.Equal(t,
		filepath.Join("/Users/u", "Library", "Application Support", "Google", "Chrome Canary"),
		mac.UserDataDir(Canary, "/Users/u"))
}

func TestChannelDirs(t *testing.T) {
	home := t.TempDir()
	p, err := Resolve("linux")
	require.NoError(t, err)

	require.NoError(t, os.MkdirAll(p.UserDataDir(Stable, home), 0o755))
	require.NoError(t, os.MkdirAll(p.UserDataDir(Beta, home), 0o755))
	// A regular file where a directory is expected is not a channel.
	require.NoError(t, os.MkdirAll(filepath.Join(home, ".config"), 0o755))
	require.NoError(t, os.WriteFile(p.UserDataDir(Canary, home), []byte("x"), 0o644))

	t.Run("existing channels in order", func(t *testing.T) {
		dirs := p.ChannelDirs(home)
		require.Len(t, dirs, 2)
		assert.Equal(t, Stable, dirs[0].Channel)
		assert.Equal(t, Beta, dirs[1].Channel)
		assert.Equal(t, p.UserDataDir(Beta, home), dirs[1].Dir)
	})

	t.Run("filtered", func(t *testing.T) {
		dirs := p.ChannelDirs(home, Beta, Dev)
		require.Len(t, dirs, 1)
		assert.Equal(t, Beta, dirs[0].Channel)
	})

	t.Run("none exist", func(t *testing.T) {
		assert.Empty(t, p.ChannelDirs(t.TempDir()))
	})
}

func TestParseChannel(t *testing.T) {
	ch, err := ParseChannel("canary")
	require.NoError(t, err)
	assert.Equal(t, Canary, ch)

	_, err = ParseChannel("nightly")
	assert.Error(t, err)
}
