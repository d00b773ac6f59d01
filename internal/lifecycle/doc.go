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

/*
Package lifecycle stops and restarts running browser instances.

It provides process discovery, the shutdown escalation, relaunching of the
stopped executables, a single-instance PID file, and audit logging.

# Discovery

A Classifier selects top-level browser processes from the process table:

	d := &lifecycle.Discovery{
	    Table:      lifecycle.NewSystemTable(),
	    Classifier: lifecycle.NewBinaryClassifier("chrome"),
	}
	targets, err := d.Discover(ctx)

Processes that exit or deny access while being inspected are skipped.

# Shutdown

ShutdownController walks each target through the phases

	Discovered -> GracefulRequested -> Terminated -> Killed

where GracefulRequested only happens when a GracefulQuitter is configured
(osascript on macOS) and any process may drop to Exited at any point.
Every wait is bounded by a timeout, and liveness is re-checked right before
each terminate or kill so exited processes are never signalled:

	ctl := &lifecycle.ShutdownController{
	    GracefulTimeout:  10 * time.Second,
	    TerminateTimeout: 5 * time.Second,
	}
	res := ctl.Shutdown(targets)

The executable paths are captured before the first signal and returned in
res.Executables.

# Restart

	results := lifecycle.NewLauncher(useBundles).Restart(res.Executables)

Each executable is launched once. With bundles enabled, an executable inside
"X.app/Contents/MacOS/" is launched through "open -a X.app" when the bundle
still exists.

# PID File Management

The PID file keeps two runs from stopping the browser at the same time. It
uses an exclusive file lock and atomic creation (O_EXCL):

	manager := lifecycle.NewPIDFileManager("/path/to/glicpatch.pid")
	if _, err := manager.Acquire(os.Getpid()); err != nil {
	    // errors.Is(err, lifecycle.ErrAlreadyRunning)
	}
	defer manager.Remove()

# Lifecycle Logging

Run events are appended as JSON lines to a rotated audit log:

	logger := lifecycle.NewLifecycleLogger(path).WithRunID(id)
	logger.LogRunStart(version, runtime.GOOS, false)
*/
package lifecycle
