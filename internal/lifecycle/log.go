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
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// LifecycleEvent is one line of the audit log.
type LifecycleEvent struct {
	Timestamp time.Time `json:"timestamp"`
	RunID     string    `json:"run_id,omitempty"`
	Event     string    `json:"event"` // "run_start", "phase", "channel_patched", etc.
	PID       int       `json:"pid,omitempty"`
	Version   string    `json:"version,omitempty"`
	Phase     string    `json:"phase,omitempty"`
	Channel   string    `json:"channel,omitempty"`
	Path      string    `json:"path,omitempty"`
	Method    string    `json:"method,omitempty"`
	Count     int       `json:"count,omitempty"`
	PIDs      []int32   `json:"pids,omitempty"`
	Changes   []string  `json:"changes,omitempty"`
	Success   bool      `json:"success"`
	Message   string    `json:"message,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// LifecycleLogger appends run events to a size-rotated JSON-lines file.
// A logger created with an empty path discards events.
type LifecycleLogger struct {
	runID string
	out   *eventSink
	// err is the first write failure seen through this logger.
	err   error
}

type eventSink struct {
	mu sync.Mutex
	w  io.WriteCloser
}

// NewLifecycleLogger creates a new lifecycle logger writing to logPath.
func NewLifecycleLogger(logPath string) *LifecycleLogger {
	sink := &eventSink{}
	if logPath != "" {
		sink.w = &lumberjack.Logger{
			Filename:   logPath,
			MaxSize:    5, // megabytes
			MaxBackups: 3,
			MaxAge:     90, // days
		}
	}
	return &LifecycleLogger{out: sink}
}

// WithRunID returns a logger that tags every event with runID.
func (l *LifecycleLogger) WithRunID(runID string) *LifecycleLogger {
	return &LifecycleLogger{runID: runID, out: l.out}
}

// Err returns the first error any Log method of l returned, or nil.
// Loggers derived with WithRunID start clean.
func (l *LifecycleLogger) Err() error {
	l.out.mu.Lock()
	defer l.out.mu.Unlock()
	return l.err
}

// Close flushes and closes the underlying file.
func (l *LifecycleLogger) Close() error {
	l.out.mu.Lock()
	defer l.out.mu.Unlock()
	if l.out.w == nil {
		return nil
	}
	return l.out.w.Close()
}

// LogRunStart logs the start of a run.
func (l *LifecycleLogger) LogRunStart(version, goos string, dryRun bool) error {
	msg := "Run started on " + goos
	if dryRun {
		msg += " (dry run)"
	}
	return l.writeEvent(LifecycleEvent{
		Event:   "run_start",
		PID:     os.Getpid(),
		Version: version,
		Success: true,
		Message: msg,
	})
}

// LogDiscovered logs the processes selected for shutdown.
func (l *LifecycleLogger) LogDiscovered(pids []int32) error {
	return l.writeEvent(LifecycleEvent{
		Event:   "discovered",
		Count:   len(pids),
		PIDs:    pids,
		Success: true,
	})
}

// LogPhase logs a shutdown phase being requested for pids.
func (l *LifecycleLogger) LogPhase(phase Phase, pids []int32) error {
	return l.writeEvent(LifecycleEvent{
		Event:   "phase",
		Phase:   phase.String(),
		Count:   len(pids),
		PIDs:    pids,
		Success: true,
	})
}

// LogChannelPatched logs the result of patching one channel.
func (l *LifecycleLogger) LogChannelPatched(channel, path string, changes []string, written bool) error {
	msg := "No need to patch Local State"
	if len(changes) > 0 && written {
		msg = "Succeeded in patching Local State"
	} else if len(changes) > 0 {
		msg = "Local State would be patched"
	}
	return l.writeEvent(LifecycleEvent{
		Event:   "channel_patched",
		Channel: channel,
		Path:    path,
		Changes: changes,
		Success: true,
		Message: msg,
	})
}

// LogChannelSkipped logs a channel that could not be patched.
func (l *LifecycleLogger) LogChannelSkipped(channel, path string, err error) error {
	return l.writeEvent(LifecycleEvent{
		Event:   "channel_skipped",
		Channel: channel,
		Path:    path,
		Success: false,
		Error:   errString(err),
	})
}

// LogLaunch logs a relaunch attempt.
func (l *LifecycleLogger) LogLaunch(res LaunchResult) error {
	event := LifecycleEvent{
		Event:   "launch",
		PID:     res.PID,
		Path:    res.Target,
		Method:  string(res.Method),
		Success: res.Err == nil,
	}
	if res.Err != nil {
		event.Event = "launch_failure"
		event.Message = "Failed to restart Chrome executable"
		event.Error = res.Err.Error()
	}
	return l.writeEvent(event)
}

// LogRunComplete logs the end of a run.
func (l *LifecycleLogger) LogRunComplete(duration time.Duration, err error) error {
	return l.writeEvent(LifecycleEvent{
		Event:   "run_complete",
		Success: err == nil,
		Message: fmt.Sprintf("Run finished (duration: %v)", duration),
		Error:   errString(err),
	})
}

// LogStalePID logs detection of a stale PID file.
func (l *LifecycleLogger) LogStalePID(pid int, lockPath string) error {
	return l.writeEvent(LifecycleEvent{
		Event:   "stale_pid_detected",
		PID:     pid,
		Path:    lockPath,
		Success: true,
		Message: "Stale PID file detected and removed",
	})
}

// writeEvent appends a lifecycle event to the log file.
func (l *LifecycleLogger) writeEvent(event LifecycleEvent) error {
	l.out.mu.Lock()
	defer l.out.mu.Unlock()
	err := l.write(event)
	if err != nil && l.err == nil {
		l.err = err
	}
	return err
}

func (l *LifecycleLogger) write(event LifecycleEvent) error {
	if l.out.w == nil {
		return nil
	}

	if lj, ok := l.out.w.(*lumberjack.Logger); ok {
		if err := os.MkdirAll(filepath.Dir(lj.Filename), 0700); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	event.RunID = l.runID

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if _, err := l.out.w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}

	return nil
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
