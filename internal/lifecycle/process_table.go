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
	"fmt"
	"slices"

	"github.com/shirou/gopsutil/v4/process"
)

// SystemTable is the ProcessTable of the running host.
type SystemTable struct{}

// NewSystemTable returns the host process table.
func NewSystemTable() *SystemTable {
	return &SystemTable{}
}

// Processes lists every process visible to the current user.
func (SystemTable) Processes(ctx context.Context) ([]Process, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list processes: %w", err)
	}
	out := make([]Process, 0, len(procs))
	for _, p := range procs {
		out = append(out, &systemProcess{ctx: ctx, p: p})
	}
	return out, nil
}

type systemProcess struct {
	ctx context.Context
	p   *process.Process
}

func (s *systemProcess) PID() int32 { return s.p.Pid }

func (s *systemProcess) Name() (string, error) {
	return s.p.NameWithContext(s.ctx)
}

func (s *systemProcess) Exe() (string, error) {
	return s.p.ExeWithContext(s.ctx)
}

func (s *systemProcess) Parent() (Process, error) {
	ppid, err := s.p.PpidWithContext(s.ctx)
	if err != nil {
		return nil, err
	}
	if ppid <= 0 {
		return nil, nil
	}
	parent, err := process.NewProcessWithContext(s.ctx, ppid)
	if err != nil {
		if IsGone(err) {
			return nil, nil
		}
		return nil, err
	}
	return &systemProcess{ctx: s.ctx, p: parent}, nil
}

// IsRunning treats a zombie as exited: it cannot be signalled and only
// its parent can reap it.
func (s *systemProcess) IsRunning() (bool, error) {
	running, err := s.p.IsRunningWithContext(s.ctx)
	if err != nil || !running {
		return false, err
	}
	status, err := s.p.StatusWithContext(s.ctx)
	if err != nil {
		if IsGone(err) {
			return false, nil
		}
		// Status is unsupported on some platforms; trust IsRunning.
		return true, nil
	}
	return !slices.Contains(status, process.Zombie), nil
}

func (s *systemProcess) Terminate() error {
	return s.p.TerminateWithContext(s.ctx)
}

func (s *systemProcess) Kill() error {
	return s.p.KillWithContext(s.ctx)
}
