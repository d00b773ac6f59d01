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
Package localstate edits Chrome's "Local State" document.

The document is held as a tree of Node values (object, array, string,
number, bool, null). Objects keep their key order and numbers keep their
literal text, so a rewritten file differs from the original only in the
edited fields.

# Edits

Apply runs three idempotent edits:

  - every is_glic_eligible field, at any depth, is set to true
  - the root variations_country is set to "us"
  - the root variations_permanent_consistency_country pair, when present,
    becomes [<Last Version>, "us"]

# Patching a user data directory

	res, err := localstate.PatchDir(dir, localstate.Options{})
	if errors.IsNotFound(err) {
	    // Last Version or Local State missing: skip this channel
	}

The file is replaced through a temp file and rename, and only when at least
one edit changed a value.
*/
package localstate
