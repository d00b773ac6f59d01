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
	"github.com/tombee/glicpatch/internal/lifecycle"
	"github.com/tombee/glicpatch/internal/platform"
)

// Reporter receives user-facing progress of a cycle.
type Reporter interface {
	// Stopping is called before count running processes are shut down.
	Stopping(count int)
	// Shutdown is called after the processes announced by Stopping were
	// shut down, with the executables they ran from (possibly none).
	Shutdown(executables []string)
	// Patching is called before a channel's Local State is patched.
	Patching(ch platform.Channel, version, dir string)
	// ChannelDone is called for every channel, including skipped ones.
	ChannelDone(outcome ChannelOutcome)
	// Restart is called with the results of relaunching.
	Restart(results []lifecycle.LaunchResult)
}

// NopReporter discards progress.
type NopReporter struct{}

func (NopReporter) Stopping(int)                              {}
func (NopReporter) Shutdown([]string)                         {}
func (NopReporter) Patching(platform.Channel, string, string) {}
func (NopReporter) ChannelDone(ChannelOutcome)                {}
func (NopReporter) Restart([]lifecycle.LaunchResult)          {}
