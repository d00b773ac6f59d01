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
	"fmt"
	"strings"
)

// GracefulQuitter asks a running application to quit on its own.
type GracefulQuitter interface {
	Quit(appName string) error
}

// AppleScriptQuitter sends "quit" to an application through osascript.
// Output is discarded and errors are only worth logging.
type AppleScriptQuitter struct {
	Runner Runner
}

// NewAppleScriptQuitter returns a quitter that runs osascript directly.
func NewAppleScriptQuitter() *AppleScriptQuitter {
	return &AppleScriptQuitter{Runner: NewSpawner()}
}

func (q *AppleScriptQuitter) Quit(appName string) error {
	script := fmt.Sprintf(`tell application "%s" to quit`, escapeAppleScript(appName))
	if err := q.Runner.Run("osascript", "-e", script); err != nil {
		return fmt.Errorf("osascript quit %q: %w", appName, err)
	}
	return nil
}

func escapeAppleScript(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}
