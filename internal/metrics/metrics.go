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

// Package metrics records run statistics for the node_exporter textfile
// collector.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Patch results used as the result label of glicpatch_channels_patched_total.
const (
	ResultPatched   = "patched"
	ResultUnchanged = "unchanged"
	ResultSkipped   = "skipped"
	ResultFailed    = "failed"
)

// Recorder holds the metrics of one process on a private registry.
type Recorder struct {
	registry *prometheus.Registry

	discovered      prometheus.Gauge
	stopped         *prometheus.CounterVec
	channelsPatched *prometheus.CounterVec
	launches        *prometheus.CounterVec
	runDuration     prometheus.Histogram
	lastRun         prometheus.Gauge
}

// NewRecorder creates a Recorder with all metrics registered.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,

		discovered: factory.NewGauge(prometheus.GaugeOpts{
			Name: "glicpatch_processes_discovered",
			Help: "Browser processes found by the last discovery",
		}),

		stopped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "glicpatch_processes_stopped_total",
				Help: "Processes by the shutdown phase they finished in",
			},
			[]string{"phase"},
		),

		channelsPatched: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "glicpatch_channels_patched_total",
				Help: "Channel Local State files processed by result",
			},
			[]string{"result"},
		),

		launches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "glicpatch_launch_total",
				Help: "Relaunch attempts by method and result",
			},
			[]string{"method", "result"},
		),

		runDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "glicpatch_run_duration_seconds",
			Help:    "Duration of a full stop, patch and restart cycle",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 15, 20, 30, 60},
		}),

		lastRun: factory.NewGauge(prometheus.GaugeOpts{
			Name: "glicpatch_last_run_timestamp_seconds",
			Help: "Unix time the last cycle finished",
		}),
	}
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Discovered records the size of the target set.
func (r *Recorder) Discovered(n int) {
	r.discovered.Set(float64(n))
}

// Stopped records how many processes ended in phase.
func (r *Recorder) Stopped(phase string, n int) {
	if n > 0 {
		r.stopped.WithLabelValues(phase).Add(float64(n))
	}
}

// ChannelPatched records one channel outcome.
func (r *Recorder) ChannelPatched(result string) {
	r.channelsPatched.WithLabelValues(result).Inc()
}

// Launch records one relaunch attempt.
func (r *Recorder) Launch(method string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	r.launches.WithLabelValues(method, result).Inc()
}

// RunFinished records the duration of a cycle and stamps its end time.
func (r *Recorder) RunFinished(d time.Duration, at time.Time) {
	r.runDuration.Observe(d.Seconds())
	r.lastRun.Set(float64(at.Unix()))
}

// WriteTextfile writes every metric to path in the Prometheus text format.
// The file is replaced atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
