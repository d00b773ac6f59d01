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

package patch

import (
	"errors"
	"fmt"
	"io"

	"github.com/tombee/glicpatch/internal/commands/shared"
	"github.com/tombee/glicpatch/internal/lifecycle"
	"github.com/tombee/glicpatch/internal/localstate"
	"github.com/tombee/glicpatch/internal/orchestrator"
	"github.com/tombee/glicpatch/internal/platform"
	pkgerrors "github.com/tombee/glicpatch/pkg/errors"
)

// ConsoleReporter prints cycle progress for people. Errors are printed even
// when quiet.
type ConsoleReporter struct {
	out     io.Writer
	quiet   bool
	verbose bool
	dryRun  bool
	spinner *shared.Spinner
}

// NewConsoleReporter creates a reporter writing to out. The spinner is
// only drawn when tty is true.
func NewConsoleReporter(out io.Writer, tty, quiet, verbose, dryRun bool) *ConsoleReporter {
	return &ConsoleReporter{
		out:     out,
		quiet:   quiet,
		verbose: verbose,
		dryRun:  dryRun,
		spinner: shared.NewSpinner(out, tty && !quiet),
	}
}

func (r *ConsoleReporter) println(line string) {
	if !r.quiet {
		fmt.Fprintln(r.out, line)
	}
}

func (r *ConsoleReporter) Stopping(count int) {
	r.spinner.Start("Shutting down Chrome")
}

func (r *ConsoleReporter) Shutdown(executables []string) {
	r.spinner.Stop()
	if len(executables) == 0 {
		return
	}
	r.println(shared.RenderInfo("Shutdown Chrome"))
	if r.verbose {
		for _, exe := range executables {
			r.println("  " + shared.RenderLabel(exe))
		}
	}
}

func (r *ConsoleReporter) Patching(ch platform.Channel, version, dir string) {
	r.println(shared.RenderInfo(fmt.Sprintf("Patching Chrome %s %s %q", ch, version, dir)))
}

func (r *ConsoleReporter) ChannelDone(o orchestrator.ChannelOutcome) {
	if o.Err != nil {
		r.channelError(o)
		return
	}

	verb := "Patched"
	if r.dryRun {
		verb = "Would patch"
	}
	for _, c := range o.Result.Changes {
		r.println(fmt.Sprintf("  %s %s", verb, c))
	}

	switch {
	case !o.Result.Modified():
		r.println(shared.RenderOK("No need to patch Local State"))
	case o.Result.Written:
		r.println(shared.RenderOK("Succeeded in patching Local State"))
	default:
		r.println(shared.RenderWarn("Local State not written (dry run)"))
	}
}

func (r *ConsoleReporter) channelError(o orchestrator.ChannelOutcome) {
	var nf *pkgerrors.NotFoundError
	if errors.As(o.Err, &nf) {
		switch nf.Resource {
		case localstate.LastVersionFile:
			r.println(shared.RenderWarn(fmt.Sprintf("Failed to get version of Chrome %s. File not found %s", o.Channel, nf.ID)))
		default:
			r.println(shared.RenderWarn(fmt.Sprintf("Failed to patch Local State. File not found %s", nf.ID)))
		}
		return
	}
	fmt.Fprintln(r.out, shared.RenderError(fmt.Sprintf("Failed to patch Local State of Chrome %s: %v", o.Channel, o.Err)))
}

func (r *ConsoleReporter) Restart(results []lifecycle.LaunchResult) {
	r.println(shared.RenderInfo("Restart Chrome"))
	for _, res := range results {
		if res.Err != nil {
			fmt.Fprintln(r.out, shared.RenderError(fmt.Sprintf("Failed to restart Chrome executable %s: %v", res.Executable, res.Err)))
			continue
		}
		if r.verbose {
			r.println("  " + shared.RenderLabel(fmt.Sprintf("%s (%s %s)", res.Executable, res.Method, res.Target)))
		}
	}
}
