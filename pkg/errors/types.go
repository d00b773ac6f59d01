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

package errors

import (
	"fmt"
	"runtime"
)

// NotFoundError represents a file glicpatch expected to find in a channel directory.
type NotFoundError struct {
	// Resource is the kind of thing that is missing (e.g., "Local State", "Last Version")
	Resource string

	// ID identifies the missing resource, usually a filesystem path
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ConfigError represents a problem with the glicpatch configuration.
type ConfigError struct {
	// Key is the configuration key that has the problem (e.g., "shutdown.poll_interval")
	Key string

	// Reason explains what's wrong with the configuration
	Reason string

	// Cause is the underlying error (e.g., file read error, parse error)
	Cause error
}

func (e *ConfigError) Error() string {
	msg := "config error"
	if e.Key != "" {
		msg = fmt.Sprintf("config error at %s", e.Key)
	}
	msg = fmt.Sprintf("%s: %s", msg, e.Reason)
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *ConfigError) Unwrap() error {
	return e.Cause
}

func (e *ConfigError) IsUserVisible() bool { return true }

func (e *ConfigError) UserMessage() string { return e.Error() }

func (e *ConfigError) Suggestion() string {
	return "Check the file passed with --config (default: ~/.config/glicpatch/config.yaml)"
}

// PlatformError is returned when the host operating system is not one
// Chrome ships for. No channel directory can be resolved, so it is fatal.
type PlatformError struct {
	// Platform is the GOOS value that was rejected
	Platform string

	// Cause is the underlying sentinel error
	Cause error
}

func (e *PlatformError) Error() string {
	return fmt.Sprintf("unsupported platform %s", e.Platform)
}

func (e *PlatformError) Unwrap() error {
	return e.Cause
}

func (e *PlatformError) IsUserVisible() bool { return true }

func (e *PlatformError) UserMessage() string { return e.Error() }

func (e *PlatformError) Suggestion() string {
	return fmt.Sprintf("glicpatch supports windows, linux and darwin (this binary is %s/%s)", runtime.GOOS, runtime.GOARCH)
}
