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
Package cli provides the root command for glicpatch.

Individual commands live in the internal/commands subpackages and are added
by main.

# Command Tree

	glicpatch         Patch (same as "glicpatch patch")
	├── patch         Close Chrome, patch Local State, restart
	├── status        Show running Chrome and patched values
	├── watch         Patch again after every Chrome update
	└── version       Show version

# Usage

From main.go:

	cli.SetVersion(version, commit, date)
	rootCmd := cli.NewRootCommand()
	// ... add commands ...
	if err := rootCmd.Execute(); err != nil {
	    cli.HandleExitError(err)
	}

# Global Flags

	--verbose, -v    Debug logging
	--quiet, -q      Only errors
	--json           Output in JSON format
	--config         Path to config file

# Exit Codes

  - 0: Success
  - 1: A cycle failed or a channel could not be patched
  - 2: Invalid configuration or flags
  - 3: Another glicpatch is running
*/
package cli
