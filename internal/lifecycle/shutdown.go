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
	"log/slog"
	"time"
)

const (
	DefaultPollInterval     = 200 * time.Millisecond
	DefaultGracefulTimeout  = 10 * time.Second
	DefaultTerminateTimeout = 5 * time.Second
)

// ShutdownController stops a set of target processes, escalating from a
// graceful quit (when Quitter is set) to terminate and finally kill.
type ShutdownController struct {
	// Quitter asks applications to quit by name. Nil skips the graceful phase.
	Quitter GracefulQuitter
	Clock   Clock

	// Zero or negative durations fall back to the Default values.
	PollInterval     time.Duration
	GracefulTimeout  time.Duration
	TerminateTimeout time.Duration

	Logger *slog.Logger

	// Observer, when set, is called each time a phase is requested for a
	// batch of processes.
	Observer func(phase Phase, pids []int32)
}

// ShutdownResult reports what Shutdown did.
type ShutdownResult struct {
	// Executables holds the paths captured before any process was signalled.
	Executables ExecutableSet
	// Phases is the last phase reached by each target.
	Phases map[int32]Phase
}

// Count returns how many targets ended in phase.
func (r *ShutdownResult) Count(phase Phase) int {
	n := 0
	for _, p := range r.Phases {
		if p == phase {
			n++
		}
	}
	return n
}

// Shutdown stops targets and returns the executable paths they ran from.
// Every wait is bounded by its timeout, so Shutdown always returns; processes
// still alive after the kill request are reported in Phases as Killed.
func (c *ShutdownController) Shutdown(targets TargetSet) *ShutdownResult {
	res := &ShutdownResult{
		Executables: ExecutableSet{},
		Phases:      make(map[int32]Phase, len(targets)),
	}
	if len(targets) == 0 {
		return res
	}

	logger := c.logger()
	for _, p := range targets {
		res.Phases[p.PID()] = PhaseDiscovered
		exe, err := p.Exe()
		if err != nil {
			logger.Debug("could not read executable", slog.Int("pid", int(p.PID())), slog.Any("error", err))
			continue
		}
		res.Executables.Add(exe)
	}

	graceful := c.Quitter != nil
	remaining := []Process(targets)

	if graceful {
		c.quit(remaining)
		for _, p := range remaining {
			res.Phases[p.PID()] = Next(res.Phases[p.PID()], true, true)
		}
		c.notify(PhaseGracefulRequested, remaining)
		remaining = c.wait(res, remaining, orDefault(c.GracefulTimeout, DefaultGracefulTimeout))
	}

	remaining = c.escalate(res, remaining, graceful, Process.Terminate)
	c.notify(PhaseTerminated, remaining)
	remaining = c.wait(res, remaining, orDefault(c.TerminateTimeout, DefaultTerminateTimeout))

	remaining = c.escalate(res, remaining, graceful, Process.Kill)
	c.notify(PhaseKilled, remaining)

	logger.Debug("shutdown finished",
		slog.Int("exited", res.Count(PhaseExited)),
		slog.Int("killed", res.Count(PhaseKilled)))
	return res
}

func (c *ShutdownController) quit(procs []Process) {
	logger := c.logger()
	seen := make(map[string]struct{})
	for _, p := range procs {
		name, err := p.Name()
		if err != nil {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		if err := c.Quitter.Quit(name); err != nil {
			logger.Debug("graceful quit failed", slog.String("app", name), slog.Any("error", err))
		}
	}
}

// escalate re-checks each process and applies action to those still alive.
// It returns the processes the action was applied to.
func (c *ShutdownController) escalate(res *ShutdownResult, procs []Process, graceful bool, action func(Process) error) []Process {
	logger := c.logger()
	var next []Process
	for _, p := range procs {
		pid := p.PID()
		if !alive(p) {
			res.Phases[pid] = PhaseExited
			continue
		}
		if err := action(p); err != nil {
			if IsGone(err) {
				res.Phases[pid] = PhaseExited
				continue
			}
			logger.Debug("signal failed", slog.Int("pid", int(pid)), slog.Any("error", err))
		}
		res.Phases[pid] = Next(res.Phases[pid], true, graceful)
		next = append(next, p)
	}
	return next
}

// wait polls until every process has exited or timeout elapses and returns
// the processes not yet confirmed gone.
func (c *ShutdownController) wait(res *ShutdownResult, procs []Process, timeout time.Duration) []Process {
	clock := c.clock()
	interval := orDefault(c.PollInterval, DefaultPollInterval)

	deadline := clock.Now().Add(timeout)
	remaining := procs
	for len(remaining) > 0 && clock.Now().Before(deadline) {
		var still []Process
		for _, p := range remaining {
			if alive(p) {
				still = append(still, p)
				continue
			}
			res.Phases[p.PID()] = PhaseExited
		}
		remaining = still
		if len(remaining) > 0 {
			clock.Sleep(interval)
		}
	}
	return remaining
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

// alive treats an unreadable process as alive unless it is known to be gone.
func alive(p Process) bool {
	running, err := p.IsRunning()
	if err != nil {
		return !IsGone(err)
	}
	return running
}

func (c *ShutdownController) notify(phase Phase, procs []Process) {
	if len(procs) == 0 {
		return
	}
	c.logger().Info("shutdown phase", slog.String("phase", phase.String()), slog.Int("count", len(procs)))
	if c.Observer != nil {
		c.Observer(phase, TargetSet(procs).PIDs())
	}
}

func (c *ShutdownController) clock() Clock {
	if c.Clock == nil {
		return RealClock()
	}
	return c.Clock
}

func (c *ShutdownController) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.Logger
}
