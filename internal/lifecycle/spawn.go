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
	"fmt"
	"os"
	"os/exec"
)

// Runner starts commands.
type Runner interface {
	// Start launches a detached process and returns its PID without waiting.
	Start(binary string, args ...string) (int, error)
	// Run executes a short-lived helper and waits for it.
	Run(binary string, args ...string) error
}

// Spawner launches processes that outlive this one.
type Spawner struct {
	// Environment passed to the child process
	Env []string
}

// NewSpawner creates a new process spawner.
func NewSpawner() *Spawner {
	return &Spawner{
		Env: os.Environ(),
	}
}

// Start spawns a detached process. The child:
// - has stdin, stdout and stderr connected to the null device
// - is detached from this process's session or console
//
// Returns the PID of the spawned process.
func (s *Spawner) Start(binary string, args ...string) (int, error) {
	cmd := s.command(binary, args)
	cmd.SysProcAttr = detachedAttr()

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("failed to start %s: %w", binary, err)
	}

	pid := cmd.Process.Pid

	// Release the process (don't wait for it)
	if err := cmd.Process.Release(); err != nil {
		return pid, fmt.Errorf("process started but failed to release: %w", err)
	}

	return pid, nil
}

// Run executes binary with its output discarded and waits for it to exit.
func (s *Spawner) Run(binary string, args ...string) error {
	cmd := s.command(binary, args)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w", binary, err)
	}
	return nil
}

func (s *Spawner) command(binary string, args []string) *exec.Cmd {
	cmd := exec.Command(binary, args...)
	cmd.Env = s.Env
	// nil stdio is the null device
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil
	return cmd
}
