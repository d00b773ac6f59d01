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
	"log/slog"
)

// Discovery collects the target processes from a process table.
type Discovery struct {
	Table      ProcessTable
	Classifier *Classifier
	Logger     *slog.Logger
}

// Discover returns every live target process, deduplicated by PID.
// Processes that vanish or deny inspection while being examined are
// skipped; only a failure to enumerate the table is returned.
func (d *Discovery) Discover(ctx context.Context) (TargetSet, error) {
	procs, err := d.Table.Processes(ctx)
	if err != nil {
		return nil, err
	}

	logger := d.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	seen := make(map[int32]struct{}, len(procs))
	var targets TargetSet
	for _, p := range procs {
		if _, dup := seen[p.PID()]; dup {
			continue
		}
		running, err := p.IsRunning()
		if err != nil {
			if !IsGone(err) && !IsDenied(err) {
				logger.Debug("skipping unreadable process", slog.Int("pid", int(p.PID())), slog.Any("error", err))
			}
			continue
		}
		if !running || !d.Classifier.IsTarget(p) {
			continue
		}
		seen[p.PID()] = struct{}{}
		targets = append(targets, p)
	}

	logger.Debug("discovered processes", slog.Int("count", len(targets)))
	return targets, nil
}
