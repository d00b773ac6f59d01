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
	"path/filepath"
	"strings"
)

// Classifier decides whether a process is a top-level browser instance.
//
// On bundle platforms a process matches when its display name is one of the
// known application names. Elsewhere it matches when its name, with any
// extension removed, equals the binary name and its parent is not itself a
// process of the same name (helpers share the browser's name).
type Classifier struct {
	bundleNames map[string]struct{}
	binaryName  string
}

// NewBundleClassifier matches processes by application display name.
func NewBundleClassifier(names []string) *Classifier {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return &Classifier{bundleNames: set}
}

// NewBinaryClassifier matches top-level processes of the given binary.
func NewBinaryClassifier(binary string) *Classifier {
	return &Classifier{binaryName: binary}
}

// IsTarget reports whether p should be shut down. A process whose
// attributes cannot be read is never a target.
func (c *Classifier) IsTarget(p Process) bool {
	name, err := p.Name()
	if err != nil {
		return false
	}

	if c.bundleNames != nil {
		_, ok := c.bundleNames[name]
		return ok
	}

	if stem(name) != c.binaryName {
		return false
	}

	parent, err := p.Parent()
	if err != nil {
		return false
	}
	if parent == nil {
		return true
	}
	parentName, err := parent.Name()
	if err != nil {
		// A parent that exited meanwhile leaves p top-level.
		return IsGone(err)
	}
	return parentName != name
}

func stem(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}
