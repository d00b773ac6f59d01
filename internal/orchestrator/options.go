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
	"log/slog"
	"time"

	"github.com/tombee/glicpatch/internal/lifecycle"
	"github.com/tombee/glicpatch/internal/log"
	"github.com/tombee/glicpatch/internal/metrics"
	"github.com/tombee/glicpatch/internal/platform"
)

// Options configure an Orchestrator backed by the real process table.
type Options struct {
	Platform *platform.Platform
	Home     string
	Channels []platform.Channel

	Country string
	Restart bool
	DryRun  bool

	PollInterval     time.Duration
	GracefulTimeout  time.Duration
	TerminateTimeout time.Duration

	Confirm func(targets lifecycle.TargetSet) (bool, error)

	Version     string
	MetricsFile string
	Audit       *lifecycle.LifecycleLogger
	Metrics     *metrics.Recorder
	Reporter    Reporter
	Logger      *slog.Logger
}

// New builds an Orchestrator for opts.Platform. Bundle platforms match
// processes by application name, ask them to quit through AppleScript and
// relaunch through their bundles; others match the browser binary name and
// go straight to terminate.
func New(opts Options) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}

	p := opts.Platform
	var quitter lifecycle.GracefulQuitter
	if p.UsesBundles() {
		quitter = lifecycle.NewAppleScriptQuitter()
	}

	o := &Orchestrator{
		Platform:    p,
		Home:        opts.Home,
		Channels:    opts.Channels,
		Country:     opts.Country,
		Restart:     opts.Restart,
		DryRun:      opts.DryRun,
		Confirm:     opts.Confirm,
		Version:     opts.Version,
		MetricsFile: opts.MetricsFile,
		Audit:       opts.Audit,
		Metrics:     opts.Metrics,
		Reporter:    opts.Reporter,
		Logger:      opts.Logger,
	}

	o.Discovery = NewDiscovery(p, logger)
	o.Stopper = &lifecycle.ShutdownController{
		Quitter:          quitter,
		Clock:            lifecycle.RealClock(),
		PollInterval:     opts.PollInterval,
		GracefulTimeout:  opts.GracefulTimeout,
		TerminateTimeout: opts.TerminateTimeout,
		Logger:           log.WithComponent(logger, "shutdown"),
		Observer:         o.PhaseObserver(),
	}
	launcher := lifecycle.NewLauncher(p.UsesBundles())
	launcher.Logger = log.WithComponent(logger, "launcher")
	o.Launcher = launcher

	return o
}

// NewDiscovery returns a Discovery over the system process table that
// matches p's browser processes.
func NewDiscovery(p *platform.Platform, logger *slog.Logger) *lifecycle.Discovery {
	if logger == nil {
		logger = log.Discard()
	}
	classifier := lifecycle.NewBinaryClassifier(p.BinaryName)
	if p.UsesBundles() {
		classifier = lifecycle.NewBundleClassifier(p.BundleNames)
	}
	return &lifecycle.Discovery{
		Table:      lifecycle.NewSystemTable(),
		Classifier: classifier,
		Logger:     log.WithComponent(logger, "discovery"),
	}
}
