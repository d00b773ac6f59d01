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

package orchestrator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/glicpatch/internal/lifecycle"
	"github.com/tombee/glicpatch/internal/platform"
)

func TestNew(t *testing.T) {
	tests := []struct {
		goos        string
		wantQuitter bool
		wantBundles bool
	}{
		{goos: "darwin", wantQuitter: true, wantBundles: true},
		{goos: "linux"},
		{goos: "windows"},
	}

	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			p, err := platform.Resolve(tt.goos)
			require.NoError(t, err)

			o := New(Options{
				Platform:         p,
				Home:             "/home/u",
				Restart:          true,
				GracefulTimeout:  3 * time.Second,
				TerminateTimeout: time.Second,
				PollInterval:     50 * time.Millisecond,
			})

			stopper, ok := o.Stopper.(*lifecycle.ShutdownController)
			require.True(t, ok)
			assert.Equal(t, tt.wantQuitter, stopper.Quitter != nil)
			assert.Equal(t, 3*time.Second, stopper.GracefulTimeout)
			assert.Equal(t, time.Second, stopper.TerminateTimeout)
			assert.NotNil(t, stopper.Observer)

			launcher, ok := o.Launcher.(*lifecycle.Launcher)
			require.True(t, ok)
			assert.Equal(t, tt.wantBundles, launcher.UseBundles)

			discovery, ok := o.Discovery.(*lifecycle.Discovery)
			require.True(t, ok)
			assert.NotNil(t, discovery.Classifier)
			assert.True(t, o.Restart)
		})
	}
}
