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

// Package patch implements the patch command, which closes Chrome, patches
// every channel's Local State and starts Chrome again.
package patch

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/tombee/glicpatch/internal/cli/prompt"
	"github.com/tombee/glicpatch/internal/commands/shared"
	"github.com/tombee/glicpatch/internal/config"
	"github.com/tombee/glicpatch/internal/lifecycle"
	"github.com/tombee/glicpatch/internal/metrics"
	"github.com/tombee/glicpatch/internal/orchestrator"
	"github.com/tombee/glicpatch/internal/platform"
)

// Options holds the patch flags.
type Options struct {
	Yes       bool
	NoRestart bool
	DryRun    bool
	Pause     bool
	Channels  []string
}

// BindFlags registers the patch flags on fs. The root command binds them
// too, so that a bare "glicpatch" runs a patch.
func BindFlags(fs *pflag.FlagSet, opts *Options) {
	fs.BoolVarP(&opts.Yes, "yes", "y", false, "Close Chrome without asking")
	fs.BoolVar(&opts.NoRestart, "no-restart", false, "Leave Chrome closed after patching")
	fs.BoolVar(&opts.DryRun, "dry-run", false, "Show what would change without closing Chrome or writing files")
	fs.BoolVar(&opts.Pause, "pause", runtime.GOOS == "windows", "Wait for Enter before exiting")
	fs.StringSliceVar(&opts.Channels, "channel", nil, "Limit to a release channel (stable, canary, dev, beta); repeatable")
}

// NewCommand creates the patch command.
func NewCommand() *cobra.Command {
	opts := &Options{}
	cmd := &cobra.Command{
		Use:   "patch",
		Short: "Close Chrome, patch Local State and restart it",
		Long: `Close every running Chrome, enable Gemini in Chrome in each release
channel's Local State and start Chrome again.

Chrome is first asked to quit (macOS), then terminated, and finally killed
if it does not exit in time. Local State is only rewritten when a value
actually changes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return Run(cmd, opts)
		},
	}
	BindFlags(cmd.Flags(), opts)
	return cmd
}

// Run executes one patch cycle for cmd.
func Run(cmd *cobra.Command, opts *Options) error {
	cfg, err := shared.LoadConfig()
	if err != nil {
		return err
	}
	channels, err := ResolveChannels(cfg, opts.Channels)
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

	if !opts.DryRun {
		release, err := shared.AcquireLock(cfg.LockFile, audit, logger)
		if err != nil {
			return err
		}
		defer release()
	}

	ctx := cmd.Context()
	prompter := prompt.NewSurveyPrompter(!shared.IsNonInteractive())
	jsonOut := shared.GetJSON()

	o := BaseOptions(cfg, p, home, channels, audit, logger)
	o.DryRun = opts.DryRun
	if opts.NoRestart {
		o.Restart = false
	}
	if !opts.Yes {
		o.Confirm = func(targets lifecycle.TargetSet) (bool, error) {
			return prompt.ConfirmShutdown(ctx, prompter, len(targets))
		}
	}
	if !jsonOut {
		o.Reporter = NewConsoleReporter(cmd.OutOrStdout(), shared.ColorEnabled(), shared.GetQuiet(), shared.GetVerbose(), opts.DryRun)
	}

	sum, runErr := orchestrator.New(o).Run(ctx)

	if jsonOut {
		resp := struct {
			shared.JSONResponse
			*orchestrator.Summary
		}{shared.NewJSONResponse("patch", runErr), sum}
		if err := shared.EmitJSON(cmd.OutOrStdout(), resp); err != nil {
			return fmt.Errorf("failed to write JSON output: %w", err)
		}
	} else if sum != nil && sum.Aborted && !shared.GetQuiet() {
		fmt.Fprintln(cmd.OutOrStdout(), shared.RenderWarn("Aborted, nothing was changed"))
	}

	if opts.Pause && !jsonOut {
		if err := prompter.Pause(ctx, prompt.PauseMessage); err != nil {
			logger.Debug("pause failed", slog.String("error", err.Error()))
		}
	}

	return ExitError(runErr)
}

// BaseOptions fills the orchestrator options that come from configuration.
func BaseOptions(cfg *config.Config, p *platform.Platform, home string, channels []platform.Channel, audit *lifecycle.LifecycleLogger, logger *slog.Logger) orchestrator.Options {
	v, _, _ := shared.GetVersion()
	return orchestrator.Options{
		Platform:         p,
		Home:             home,
		Channels:         channels,
		Country:          cfg.Country,
		Restart:          cfg.Restart,
		PollInterval:     cfg.Shutdown.PollInterval,
		GracefulTimeout:  cfg.Shutdown.GracefulTimeout,
		TerminateTimeout: cfg.Shutdown.TerminateTimeout,
		Version:          v,
		MetricsFile:      cfg.MetricsFile,
		Audit:            audit,
		Metrics:          metrics.NewRecorder(),
		Logger:           logger,
	}
}

// ResolveChannels returns the channels named by flags, or the configured
// filter when no flag was given.
func ResolveChannels(cfg *config.Config, names []string) ([]platform.Channel, error) {
	if len(names) == 0 {
		return cfg.ChannelFilter(), nil
	}
	out := make([]platform.Channel, 0, len(names))
	for _, name := range names {
		ch, err := platform.ParseChannel(strings.ToLower(strings.TrimSpace(name)))
		if err != nil {
			return nil, err
		}
		out = append(out, ch)
	}
	return out, nil
}

// ExitError maps a cycle error to the exit code it should produce.
func ExitError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, orchestrator.ErrNoChannels):
		return shared.NewFailedError("no Chrome user data directory found", err)
	case errors.Is(err, orchestrator.ErrPatchFailed):
		return shared.NewFailedError("some channels could not be patched", err)
	default:
		return shared.NewFailedError("patch failed", err)
	}
}
