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

// Package orchestrator runs one stop, patch and restart cycle.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tombee/glicpatch/internal/lifecycle"
	"github.com/tombee/glicpatch/internal/localstate"
	"github.com/tombee/glicpatch/internal/log"
	"github.com/tombee/glicpatch/internal/metrics"
	"github.com/tombee/glicpatch/internal/platform"
	pkgerrors "github.com/tombee/glicpatch/pkg/errors"
)

var (
	// ErrNoChannels is returned when no channel has a user data directory.
	ErrNoChannels = errors.New("no available user data path found")

	// ErrPatchFailed is returned when a channel's Local State could not be
	// patched for a reason other than a missing file.
	ErrPatchFailed = errors.New("failed to patch Local State")
)

// Discoverer finds the processes to stop.
type Discoverer interface {
	Discover(ctx context.Context) (lifecycle.TargetSet, error)
}

// Stopper shuts processes down and reports their executables.
type Stopper interface {
	Shutdown(targets lifecycle.TargetSet) *lifecycle.ShutdownResult
}

// Restarter relaunches executables.
type Restarter interface {
	Restart(executables lifecycle.ExecutableSet) []lifecycle.LaunchResult
}

// Orchestrator sequences discovery, shutdown, Local State patching and
// restart. The zero values of Audit, Metrics, Reporter and Logger are
// usable.
type Orchestrator struct {
	Platform *platform.Platform
	Home     string
	// Channels limits the channels patched. Empty means all.
	Channels []platform.Channel

	Discovery Discoverer
	Stopper   Stopper
	Launcher  Restarter

	Country string
	// Restart relaunches stopped executables after patching.
	Restart bool
	// DryRun reports what would change without stopping or writing anything.
	DryRun bool

	// Confirm, when set, is asked before running processes are stopped.
	// Declining aborts the cycle without changes.
	Confirm func(targets lifecycle.TargetSet) (bool, error)

	Version     string
	MetricsFile string
	Audit       *lifecycle.LifecycleLogger
	Metrics     *metrics.Recorder
	Reporter    Reporter
	Logger      *slog.Logger

	now      func() time.Time
	runAudit *lifecycle.LifecycleLogger
}

// Summary describes a finished cycle.
type Summary struct {
	RunID      string           `json:"run_id"`
	DryRun     bool             `json:"dry_run,omitempty"`
	Aborted    bool             `json:"aborted,omitempty"`
	Discovered int              `json:"discovered"`
	Phases     map[string]int   `json:"phases,omitempty"`
	Stopped    []string         `json:"stopped_executables,omitempty"`
	Channels   []ChannelOutcome `json:"channels"`
	Launches   []LaunchReport   `json:"launches,omitempty"`
	Duration   time.Duration    `json:"duration_ns"`
}

// ChannelOutcome is the result of patching one channel.
type ChannelOutcome struct {
	Channel platform.Channel   `json:"channel"`
	Dir     string             `json:"dir"`
	Version string             `json:"version,omitempty"`
	Result  *localstate.Result `json:"result,omitempty"`
	// Skipped is set when Last Version or Local State does not exist.
	Skipped bool   `json:"skipped,omitempty"`
	Error   string `json:"error,omitempty"`
	Err     error  `json:"-"`
}

// LaunchReport is the serializable form of a lifecycle.LaunchResult.
type LaunchReport struct {
	Executable string `json:"executable"`
	Method     string `json:"method"`
	Target     string `json:"target"`
	PID        int    `json:"pid,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Run executes one cycle. Channels are patched whether or not any browser
// was running, and executables that were stopped are always restarted
// (unless Restart is off) even when a channel failed.
func (o *Orchestrator) Run(ctx context.Context) (*Summary, error) {
	start := o.clock()
	runID := uuid.NewString()
	logger := log.WithRunContext(o.logger(), runID)
	audit := o.audit().WithRunID(runID)
	o.runAudit = audit
	defer func() { o.runAudit = nil }()

	sum := &Summary{RunID: runID, DryRun: o.DryRun, Phases: map[string]int{}}
	audit.LogRunStart(o.Version, o.Platform.GOOS, o.DryRun)

	dirs := o.Platform.ChannelDirs(o.Home, o.Channels...)
	if len(dirs) == 0 {
		return o.finish(logger, sum, start, ErrNoChannels)
	}

	targets, err := o.Discovery.Discover(ctx)
	if err != nil {
		return o.finish(logger, sum, start, fmt.Errorf("failed to discover processes: %w", err))
	}
	sum.Discovered = len(targets)
	o.recorder().Discovered(len(targets))
	audit.LogDiscovered(targets.PIDs())
	logger.Debug("discovery complete", slog.Int("count", len(targets)))

	var executables lifecycle.ExecutableSet
	if len(targets) > 0 && !o.DryRun {
		if err := ctx.Err(); err != nil {
			return o.finish(logger, sum, start, err)
		}
		if o.Confirm != nil {
			ok, err := o.Confirm(targets)
			if err != nil {
				return o.finish(logger, sum, start, err)
			}
			if !ok {
				sum.Aborted = true
				logger.Info("cycle declined by user")
				return o.finish(logger, sum, start, nil)
			}
		}

		o.reporter().Stopping(len(targets))
		res := o.Stopper.Shutdown(targets)
		executables = res.Executables
		for _, phase := range res.Phases {
			sum.Phases[phase.String()]++
		}
		for phase, n := range sum.Phases {
			o.recorder().Stopped(phase, n)
		}
		sum.Stopped = executables.Sorted()
		o.reporter().Shutdown(sum.Stopped)
	}

	var failed []error
	for _, cd := range dirs {
		outcome := o.patchChannel(logger, audit, cd)
		sum.Channels = append(sum.Channels, outcome)
		if outcome.Err != nil && !outcome.Skipped {
			failed = append(failed, outcome.Err)
		}
	}

	if executables.Len() > 0 {
		if o.Restart {
			results := o.Launcher.Restart(executables)
			for _, r := range results {
				sum.Launches = append(sum.Launches, launchReport(r))
				audit.LogLaunch(r)
				o.recorder().Launch(string(r.Method), r.Err)
			}
			o.reporter().Restart(results)
		} else {
			logger.Info("restart disabled, leaving browser stopped", slog.Int("executables", executables.Len()))
		}
	}

	var runErr error
	if len(failed) > 0 {
		runErr = fmt.Errorf("%w: %w", ErrPatchFailed, errors.Join(failed...))
	}
	return o.finish(logger, sum, start, runErr)
}

func (o *Orchestrator) patchChannel(logger *slog.Logger, audit *lifecycle.LifecycleLogger, cd platform.ChannelDir) ChannelOutcome {
	logger = log.WithChannel(logger, string(cd.Channel), cd.Dir)
	out := ChannelOutcome{Channel: cd.Channel, Dir: cd.Dir}

	fail := func(err error) ChannelOutcome {
		out.Err = err
		out.Error = err.Error()
		out.Skipped = pkgerrors.IsNotFound(err)
		result := metrics.ResultFailed
		if out.Skipped {
			result = metrics.ResultSkipped
			logger.Warn("skipping channel", log.Error(err))
		} else {
			logger.Error("failed to patch channel", log.Error(err))
		}
		o.recorder().ChannelPatched(result)
		audit.LogChannelSkipped(string(cd.Channel), cd.Dir, err)
		o.reporter().ChannelDone(out)
		return out
	}

	version, err := localstate.ReadVersion(cd.Dir)
	if err != nil {
		return fail(err)
	}
	out.Version = version
	o.reporter().Patching(cd.Channel, version, cd.Dir)

	res, err := localstate.PatchFile(cd.Dir, version, localstate.Options{Country: o.Country, DryRun: o.DryRun})
	if err != nil {
		return fail(err)
	}
	out.Result = res

	changes := make([]string, len(res.Changes))
	for i, c := range res.Changes {
		changes[i] = string(c)
	}
	result := metrics.ResultUnchanged
	if res.Modified() {
		result = metrics.ResultPatched
	}
	o.recorder().ChannelPatched(result)
	audit.LogChannelPatched(string(cd.Channel), res.Path, changes, res.Written)
	logger.Debug("channel processed", slog.Any("changes", changes), slog.Bool("written", res.Written))
	o.reporter().ChannelDone(out)
	return out
}

func (o *Orchestrator) finish(logger *slog.Logger, sum *Summary, start time.Time, err error) (*Summary, error) {
	end := o.clock()
	sum.Duration = end.Sub(start)
	o.recorder().RunFinished(sum.Duration, end)
	o.runAudit.LogRunComplete(sum.Duration, err)
	if aerr := o.runAudit.Err(); aerr != nil {
		logger.Debug("audit log write failed", log.Error(aerr))
	}

	if o.MetricsFile != "" {
		if werr := o.recorder().WriteTextfile(o.MetricsFile); werr != nil {
			logger.Warn("failed to write metrics", log.Error(werr))
		}
	}
	if err != nil {
		logger.Debug("cycle failed", log.Error(err), log.Duration("duration", sum.Duration.Milliseconds()))
	} else {
		logger.Debug("cycle complete", log.Duration("duration", sum.Duration.Milliseconds()))
	}
	return sum, err
}

// PhaseObserver returns a shutdown observer that records phases in the
// audit log of the running cycle.
func (o *Orchestrator) PhaseObserver() func(lifecycle.Phase, []int32) {
	return func(phase lifecycle.Phase, pids []int32) {
		if o.runAudit != nil {
			o.runAudit.LogPhase(phase, pids)
		}
	}
}

func launchReport(r lifecycle.LaunchResult) LaunchReport {
	rep := LaunchReport{
		Executable: r.Executable,
		Method:     string(r.Method),
		Target:     r.Target,
		PID:        r.PID,
	}
	if r.Err != nil {
		rep.Error = r.Err.Error()
	}
	return rep
}

func (o *Orchestrator) clock() time.Time {
	if o.now != nil {
		return o.now()
	}
	return time.Now()
}

func (o *Orchestrator) logger() *slog.Logger {
	if o.Logger == nil {
		return log.Discard()
	}
	return log.WithComponent(o.Logger, "orchestrator")
}

func (o *Orchestrator) audit() *lifecycle.LifecycleLogger {
	if o.Audit == nil {
		o.Audit = lifecycle.NewLifecycleLogger("")
	}
	return o.Audit
}

func (o *Orchestrator) recorder() *metrics.Recorder {
	if o.Metrics == nil {
		o.Metrics = metrics.NewRecorder()
	}
	return o.Metrics
}

func (o *Orchestrator) reporter() Reporter {
	if o.Reporter == nil {
		return NopReporter{}
	}
	return o.Reporter
}
