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

package watch

import (
	"sync"
	"time"
)

// Event is a filesystem change on one path.
type Event struct {
	Path string
	Op   string
	At   time.Time
}

// Debouncer holds a timer per path and delivers the latest event for the
// path once no new event arrived for the window. Chrome replaces files in
// several steps, so one update produces a burst of events.
type Debouncer struct {
	mu      sync.Mutex
	window  time.Duration
	timers  map[string]*debounceTimer
	onFlush func([]Event)
	stopped bool
}

type debounceTimer struct {
	timer *time.Timer
	last  Event
}

// NewDebouncer creates a debouncer that calls onFlush from a timer
// goroutine.
func NewDebouncer(window time.Duration, onFlush func([]Event)) *Debouncer {
	return &Debouncer{
		window:  window,
		timers:  make(map[string]*debounceTimer),
		onFlush: onFlush,
	}
}

// Add records ev and restarts the timer of its path.
func (d *Debouncer) Add(ev Event) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	path := ev.Path
	dt, exists := d.timers[path]
	if exists {
		dt.timer.Stop()
		dt.last = ev
	} else {
		dt = &debounceTimer{last: ev}
		d.timers[path] = dt
	}

	dt.timer = time.AfterFunc(d.window, func() {
		d.flush(path)
	})
}

func (d *Debouncer) flush(path string) {
	d.mu.Lock()
	dt, exists := d.timers[path]
	if !exists || d.stopped {
		d.mu.Unlock()
		return
	}
	delete(d.timers, path)
	d.mu.Unlock()

	// outside the lock: onFlush may block
	if d.onFlush != nil {
		d.onFlush([]Event{dt.last})
	}
}

// Stop cancels pending timers and drops their events. Add is a no-op
// afterwards.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.stopped = true
	for path, dt := range d.timers {
		dt.timer.Stop()
		delete(d.timers, path)
	}
}

// Pending returns the number of paths with a running timer.
func (d *Debouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.timers)
}
