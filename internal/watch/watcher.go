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

// Package watch reruns the patch cycle when Chrome updates itself.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet window used when Watcher.Debounce is zero.
const DefaultDebounce = 2 * time.Second

// Watcher watches channel directories and calls Cycle after a matching
// file changed its contents. Cycles run one at a time on the goroutine
// that called Run; events arriving meanwhile are handled afterwards.
type Watcher struct {
	Dirs     []string
	Matcher  *PatternMatcher
	Debounce time.Duration
	Cycle    func(ctx context.Context) error
	Logger   *slog.Logger

	mu      sync.Mutex
	pending map[string]Event
	// seen holds the trimmed contents of each matching file that the last
	// cycle ran for, so rewrites with identical contents (Chrome rewrites
	// Last Version on every start) do not trigger another cycle.
	seen map[string]string
	dirs []string
}

// Run blocks until ctx is cancelled. It fails only if the directories
// cannot be watched.
func (w *Watcher) Run(ctx context.Context) error {
	if len(w.Dirs) == 0 {
		return errors.New("no directories to watch")
	}
	if w.Cycle == nil {
		return errors.New("watcher has no cycle")
	}
	logger := w.logger()

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer fsw.Close()

	w.dirs = w.dirs[:0]
	for _, dir := range w.Dirs {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return fmt.Errorf("failed to get absolute path: %w", err)
		}
		if err := fsw.Add(abs); err != nil {
			return fmt.Errorf("failed to watch %s: %w", abs, err)
		}
		w.dirs = append(w.dirs, abs)
	}

	w.pending = make(map[string]Event)
	w.seen = make(map[string]string)
	w.snapshot()

	trigger := make(chan struct{}, 1)
	window := w.Debounce
	if window <= 0 {
		window = DefaultDebounce
	}
	debouncer := NewDebouncer(window, func(events []Event) {
		w.mu.Lock()
		for _, ev := range events {
			w.pending[ev.Path] = ev
		}
		w.mu.Unlock()
		select {
		case trigger <- struct{}{}:
		default:
		}
	})
	defer debouncer.Stop()

	logger.Info("watching channel directories", slog.Int("count", len(w.Dirs)), slog.Duration("debounce", window))

	for {
		select {
		case <-ctx.Done():
			logger.Info("watcher stopped")
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return errors.New("fsnotify event channel closed")
			}
			if ev, ok := w.convert(event); ok {
				logger.Debug("file event", slog.String("op", ev.Op), slog.String("path", ev.Path))
				debouncer.Add(ev)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return errors.New("fsnotify error channel closed")
			}
			logger.Error("file watcher error", slog.String("error", err.Error()))
		case <-trigger:
			changed := w.takeChanged()
			if len(changed) == 0 {
				logger.Debug("matching files unchanged, skipping cycle")
				continue
			}
			logger.Info("change detected, running cycle", slog.Any("paths", changed))
			if err := w.Cycle(ctx); err != nil {
				logger.Error("cycle failed", slog.String("error", err.Error()))
			}
		}
	}
}

func (w *Watcher) convert(event fsnotify.Event) (Event, bool) {
	var op string
	switch {
	case event.Has(fsnotify.Create):
		op = "created"
	case event.Has(fsnotify.Write):
		op = "modified"
	case event.Has(fsnotify.Rename):
		op = "renamed"
	case event.Has(fsnotify.Remove):
		op = "deleted"
	default:
		return Event{}, false
	}
	if w.Matcher != nil && !w.Matcher.Match(event.Name) {
		return Event{}, false
	}
	return Event{Path: event.Name, Op: op, At: time.Now()}, true
}

// takeChanged drains the pending events, returns the paths whose contents
// differ from what was last seen and records their new contents.
func (w *Watcher) takeChanged() []string {
	w.mu.Lock()
	pending := w.pending
	w.pending = make(map[string]Event)
	w.mu.Unlock()

	var changed []string
	for path := range pending {
		current, ok := readTrimmed(path)
		if !ok {
			continue
		}
		if prev, seen := w.seen[path]; seen && prev == current {
			continue
		}
		w.seen[path] = current
		changed = append(changed, path)
	}
	return changed
}

// snapshot records the contents of every matching file in the watched
// directories before the first event.
func (w *Watcher) snapshot() {
	for _, dir := range w.dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			path := filepath.Join(dir, e.Name())
			if w.Matcher != nil && !w.Matcher.Match(path) {
				continue
			}
			if contents, ok := readTrimmed(path); ok {
				w.seen[path] = contents
			}
		}
	}
}

func readTrimmed(path string) (string, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(string(data)), true
}

func (w *Watcher) logger() *slog.Logger {
	if w.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return w.Logger.With(slog.String("component", "watch"))
}
