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

// Package platform holds the per-OS facts glicpatch needs about Chrome:
// where each release channel keeps its user data directory, how the
// browser process is named, and whether the OS can ask an application
// to quit by name.
package platform

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	pkgerrors "github.com/tombee/glicpatch/pkg/errors"
)

// ErrUnsupported is returned for a GOOS with no entry in the platform table.
var ErrUnsupported = errors.New("unsupported platform")

// Channel is a Chrome release track.
type Channel string

const (
	Stable Channel = "stable"
	Canary Channel = "canary"
	Dev    Channel = "dev"
	Beta   Channel = "beta"
)

// Channels lists every channel in the order they are patched.
var Channels = []Channel{Stable, Canary, Dev, Beta}

// ParseChannel validates a channel name.
func ParseChannel(name string) (Channel, error) {
	for _, ch := range Channels {
		if string(ch) == name {
			return ch, nil
		}
	}
	return "", fmt.Errorf("unknown channel %q (valid: stable, canary, dev, beta)", name)
}

// Platform describes Chrome on one operating system.
type Platform struct {
	// GOOS is the runtime.GOOS value this entry applies to.
	GOOS string

	// BundleNames are the application names of each channel's .app bundle.
	// Non-empty only where Chrome ships as a desktop bundle; processes are
	// then matched by display name and quit through the OS first.
	BundleNames []string

	// BinaryName is the executable base name (without extension) of the
	// browser process on platforms without bundles.
	BinaryName string

	// userDataDirs are slash-separated paths relative to the home directory.
	userDataDirs map[Channel]string
}

var table = map[string]*Platform{
	"windows": {
		GOOS:       "windows",
		BinaryName: "chrome",
		userDataDirs: map[Channel]string{
			Stable: "AppData/Local/Google/Chrome/User Data",
			Canary: "AppData/Local/Google/Chrome SxS/User Data",
			Dev:    "AppData/Local/Google/Chrome Dev/User Data",
			Beta:   "AppData/Local/Google/Chrome Beta/User Data",
		},
	},
	"linux": {
		GOOS:       "linux",
		BinaryName: "chrome",
		userDataDirs: map[Channel]string{
			Stable: ".config/google-chrome",
			Canary: ".config/google-chrome-canary",
			Dev:    ".config/google-chrome-unstable",
			Beta:   ".config/google-chrome-beta",
		},
	},
	"darwin": {
		GOOS: "darwin",
		BundleNames: []string{
			"Google Chrome",
			"Google Chrome Canary",
			"Google Chrome Dev",
			"Google Chrome Beta",
		},
		BinaryName: "Google Chrome",
		userDataDirs: map[Channel]string{
			Stable: "Library/Application Support/Google/Chrome",
			Canary: "Library/Application Support/Google/Chrome Canary",
			Dev:    "Library/Application Support/Google/Chrome Dev",
			Beta:   "Library/Application Support/Google/Chrome Beta",
		},
	},
}

// Resolve returns the platform entry for goos.
func Resolve(goos string) (*Platform, error) {
	p, ok := table[goos]
	if !ok {
		return nil, &pkgerrors.PlatformError{Platform: goos, Cause: ErrUnsupported}
	}
	return p, nil
}

// Current returns the entry for the running OS.
func Current() (*Platform, error) {
	return Resolve(runtime.GOOS)
}

// UsesBundles reports whether Chrome ships as application bundles here.
func (p *Platform) UsesBundles() bool {
	return len(p.BundleNames) > 0
}

// UserDataDir returns the absolute user data directory of ch under home.
func (p *Platform) UserDataDir(ch Channel, home string) string {
	rel, ok := p.userDataDirs[ch]
	if !ok {
		return ""
	}
	return filepath.Join(home, filepath.FromSlash(rel))
}

// ChannelDir pairs a channel with its existing user data directory.
type ChannelDir struct {
	Channel Channel
	Dir     string
}

// ChannelDirs returns the channels whose user data directory exists under
// home, in Channels order. If only is non-empty the result is limited to
// those channels.
func (p *Platform) ChannelDirs(home string, only ...Channel) []ChannelDir {
	var dirs []ChannelDir
	for _, ch := range Channels {
		if len(only) > 0 && !containsChannel(only, ch) {
			continue
		}
		dir := p.UserDataDir(ch, home)
		if dir == "" {
			continue
		}
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			continue
		}
		dirs = append(dirs, ChannelDir{Channel: ch, Dir: dir})
	}
	return dirs
}

func containsChannel(list []Channel, ch Channel) bool {
	for _, c := range list {
		if c == ch {
			return true
		}
	}
	return false
}
