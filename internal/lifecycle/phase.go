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

// Phase is the shutdown state of one target process. Phases only move
// forward: Discovered, GracefulRequested, Terminated, Killed, with Exited
// reachable from any of them.
type Phase int

const (
	PhaseDiscovered Phase = iota
	PhaseGracefulRequested
	PhaseTerminated
	PhaseKilled
	PhaseExited
)

func (p Phase) String() string {
	switch p {
	case PhaseDiscovered:
		return "discovered"
	case PhaseGracefulRequested:
		return "graceful_requested"
	case PhaseTerminated:
		return "terminated"
	case PhaseKilled:
		return "killed"
	case PhaseExited:
		return "exited"
	default:
		return "unknown"
	}
}

// Next returns the phase a process enters at the next escalation step.
// A process that is no longer alive is Exited. Graceful is skipped when the
// platform has no graceful quit. Killed and Exited are final.
func Next(current Phase, alive, graceful bool) Phase {
	if !alive || current == PhaseExited {
		return PhaseExited
	}
	switch current {
	case PhaseDiscovered:
		if graceful {
			return PhaseGracefulRequested
		}
		return PhaseTerminated
	case PhaseGracefulRequested:
		return PhaseTerminated
	default:
		return PhaseKilled
	}
}
