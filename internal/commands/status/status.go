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

// Package status implements the status command.
package status

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/tombee/glicpatch/internal/commands/patch"
	"github.com/tombee/glicpatch/internal/commands/shared"
	"github.com/tombee/glicpatch/internal/lifecycle"
	"github.com/tombee/glicpatch/internal/localstate"
	"github.com/tombee/glicpatch/internal/orchestrator"
	"github.com/tombee/glicpatch/internal/platform"
)

// Report is the status of the browser and every channel.
type Report struct {
	Processes []ProcessInfo   `json:"processes"`
	Channels  []ChannelStatus `json:"channels"`
}

// ProcessInfo describes a running browser process.
type ProcessInfo struct {
	PID  int32  `json:"pid"`
	Name string `json:"name,omitempty"`
	Exe  string `json:"exe,omitempty"`
}

// ChannelStatus is the inspected state of one channel.
type ChannelStatus struct {
	Channel platform.Channel   `json:"channel"`
	Dir     string             `json:"dir"`
	Status  *localstate.Status `json:"status,omitempty"`
	Error   string             `json:"error,omitempty"`
}

// NewCommand creates the status command.
func NewCommand() *cobra.Command {
	var channels []string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show running Chrome processes and the patched Local State values",
		Long: `List the running Chrome processes that a patch would close, and for
every release channel the current values of is_glic_eligible,
variations_country and variations_permanent_consistency_country.

Nothing is modified.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, channels)
		},
	}
	cmd.Flags().StringSliceVar(&channels, "channel", nil, "Limit to a release channel; repeatable")
	return cmd
}

func run(cmd *cobra.Command, channelFlags []string) error {
	cfg, err := shared.LoadConfig()
	if err != nil {
		return err
	}
	channels, err := patch.ResolveChannels(cfg, channelFlags)
	if err != nil {
		return shared.NewConfigError("invalid --channel", err)
	}
	logger := shared.NewLogger(cfg, cmd.ErrOrStderr())

	p, home, err := shared.ResolvePlatform()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	targets, err := orchestrator.NewDiscovery(p, logger).Discover(ctx)
	if err != nil {
		return shared.NewFailedError("failed to list processes", err)
	}

	report := Build(ctx, targets, p.ChannelDirs(home, channels...), cfg.Country)

	if shared.GetJSON() {
		resp := struct {
			shared.JSONResponse
			Report
		}{shared.NewJSONResponse("status", nil), report}
		return shared.EmitJSON(cmd.OutOrStdout(), resp)
	}
	Print(cmd.OutOrStdout(), report)
	return nil
}

// Build inspects targets and every channel directory.
func Build(ctx context.Context, targets lifecycle.TargetSet, dirs []platform.ChannelDir, country string) Report {
	report := Report{
		Processes: make([]ProcessInfo, 0, len(targets)),
		Channels:  make([]ChannelStatus, 0, len(dirs)),
	}
	for _, t := range targets {
		info := ProcessInfo{PID: t.PID()}
		info.Name, _ = t.Name()
		info.Exe, _ = t.Exe()
		report.Processes = append(report.Processes, info)
	}
	for _, cd := range dirs {
		cs := ChannelStatus{Channel: cd.Channel, Dir: cd.Dir}
		st, err := localstate.Inspect(ctx, cd.Dir, country)
		if err != nil {
			cs.Error = err.Error()
		} else {
			cs.Status = st
		}
		report.Channels = append(report.Channels, cs)
	}
	return report
}

// Print renders report for a terminal.
func Print(w io.Writer, report Report) {
	fmt.Fprintln(w, shared.Header.Render("Chrome processes"))
	if len(report.Processes) == 0 {
		fmt.Fprintln(w, "  "+shared.RenderLabel("none running"))
	}
	for _, p := range report.Processes {
		fmt.Fprintf(w, "  %d  %s  %s\n", p.PID, p.Name, shared.RenderLabel(p.Exe))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, shared.Header.Render("Channels"))
	if len(report.Channels) == 0 {
		fmt.Fprintln(w, "  "+shared.RenderLabel("no user data directory found"))
	}
	for _, c := range report.Channels {
		fmt.Fprintf(w, "  %s %s\n", shared.Bold.Render(string(c.Channel)), shared.RenderLabel(c.Dir))
		if c.Error != "" {
			fmt.Fprintln(w, "    "+shared.RenderWarn(c.Error))
			continue
		}
		st := c.Status
		fmt.Fprintf(w, "    %s %s\n", shared.RenderLabel("version:"), st.Version)
		fmt.Fprintf(w, "    %s %s\n", shared.RenderLabel("variations_country:"), compact(st.VariationsCountry))
		fmt.Fprintf(w, "    %s %s\n", shared.RenderLabel("variations_permanent_consistency_country:"), compact(st.ConsistencyCountry))
		eligible := "(none)"
		if len(st.GlicEligible) > 0 {
			eligible = compact(st.GlicEligible)
		}
		fmt.Fprintf(w, "    %s %s\n", shared.RenderLabel("is_glic_eligible:"), eligible)
		if st.NeedsPatch() {
			fmt.Fprintln(w, "    "+shared.RenderWarn(fmt.Sprintf("needs patch (%d fields)", len(st.Pending))))
		} else {
			fmt.Fprintln(w, "    "+shared.RenderOK("patched"))
		}
	}
}

func compact(v any) string {
	if v == nil {
		return "(unset)"
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}
