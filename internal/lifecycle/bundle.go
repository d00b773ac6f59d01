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

import "strings"

const bundleMarker = ".app/Contents/MacOS/"

// AppBundle returns the application bundle directory that contains exe,
// e.g. "/Applications/Google Chrome.app" for the browser binary inside it.
func AppBundle(exe string) (string, bool) {
	prefix, _, ok := strings.Cut(exe, bundleMarker)
	if !ok || prefix == "" {
		return "", false
	}
	return prefix + ".app", true
}
