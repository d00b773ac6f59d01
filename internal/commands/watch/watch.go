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

// Package watch implements the watch command.
package watch

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tombee/glicpatch/internal/commands/patch"
	"github.com/tombee/glicpatch/internal/commands/shared"
	"github.com/tombee/glicpatch/internal/config"
	"github.com/tombee/glicpatch/internal/lifecycle"
	"github.com/tombee/glicpatch/internal/log"
	"github.com/tombee/glicpatch/internal/orchestrator"
	"github.com/tombee/glicpatch/internal/platform"
	filewatch "github.com/tombee/glicpatch/internal/watch"
)

// Options holds the watch flags.
type Options struct {
	Channels  []string
	NoRestart bool
	RunNow    bool
}

// NewCommand creates the watch command.
func NewCommand() *cobra.Command {
	opts := &Options{}
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Patch again whenever Chrome updates itself",
		Long: `Watch every channel's Last Version file and run the patch cycle when
it changes, which happens when Chrome installs an update.

Cycles run unattended: Chrome is closed without asking. Stop with Ctrl+C.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts)
		},
	}
	cmd.Flags().StringSliceVar(&opts.Channels, "channel", nil, "Limit to a release channel; repeatable")
	cmd.Flags().BoolVar(&opts.NoRestart, "no-restart", false, "Leave Chrome closed after patching")
	cmd.Flags().BoolVar(&opts.RunNow, "run-now", false, "Run one cycle before waiting for changes")
	return cmd
}

func run(cmd *cobra.Command, opts *Options) error {
	cfg, err := shared.LoadConfig()
	if err != nil {
		return err
	}
	channels, err := patch.ResolveChannels(cfg, opts.Channels)
	if err != nil {
		return shared.NewConfigError("invalid --channel", err)
	}
	logger := shared.NewLogger(cfg, cmd.ErrOrStderr())

	p, home, err := shared.ResolvePlatform()
	if err != nil {
		return err
	}

	audit := lifecycle.NewLifecycleLogger(cfg.AuditLog)
	defer audit.Close()

	release, err := shared.AcquireLock(cfg.LockFile, audit, logger)
	if err != nil {
		return err
	}
	defer release()

	dirs := p.ChannelDirs(home, channels...)
	if len(dirs) == 0 {
		return patch.ExitError(orchestrator.ErrNoChannels)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cycle := func(ctx context.Context) error {
		o := patch.BaseOptions(cfg, p, home, channels, audit, logger)
		if opts.NoRestart {
			o.Restart = false
		}
		if !shared.GetJSON() {
			o.Reporter = patch.NewConsoleReporter(cmd.OutOrStdout(), shared.ColorEnabled(), shared.GetQuiet(), shared.GetVerbose(), false)
		}
		sum, err := orchestrator.New(o).Run(ctx)
		if shared.GetJSON() && sum != nil {
			resp := struct {
				shared.JSONResponse
				*orchestrator.Summary
			}{shared.NewJSONResponse("watch", err), sum}
			if jerr := shared.EmitJSON(cmd.OutOrStdout(), resp); jerr != nil {
				logger.Warn("failed to write JSON output", log.Error(jerr))
			}
		}
		return err
	}

	w, err := NewWatcher(cfg, dirs, cycle)
	if err != nil {
		return err
	}
	w.Logger = logger

	if opts.RunNow {
		if err := cycle(ctx); err != nil {
			logger.Error("cycle failed", log.Error(err))
		}
	}

	if !shared.GetQuiet() && !shared.GetJSON() {
		fmt.Fprintln(cmd.OutOrStdout(), shared.RenderInfo(fmt.Sprintf("Watching %d channel(s) for Chrome updates", len(dirs))))
	}
	if err := w.Run(ctx); err != nil {
		return shared.NewFailedError("watch failed", err)
	}
	return nil
}

// NewWatcher builds a Watcher over dirs using the configured patterns.
func NewWatcher(cfg *config.Config, dirs []platform.ChannelDir, cycle func(context.Context) error) (*filewatch.Watcher, error) {
	matcher, err := filewatch.NewPatternMatcher(cfg.Watch.Patterns, filewatch.DefaultExcludePatterns())
	if err != nil {
		return nil, shared.NewConfigError("invalid watch pattern", err)
	}
	paths := make([]string, len(dirs))
	for i, d := range dirs {
		paths[i] = d.Dir
	}
	return &filewatch.Watcher{
		Dirs:     paths,
		Matcher:  matcher,
		Debounce: cfg.Watch.Debounce,
		Cycle:    cycle,
	}, nil
}
