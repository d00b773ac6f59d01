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
	"fmt"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// PatternMatcher selects the event paths that may trigger a cycle.
// Patterns use doublestar syntax, so "**/Last Version" matches the marker
// file in any watched directory.
type PatternMatcher struct {
	include []string
	exclude []string
}

// NewPatternMatcher validates and stores the patterns. An empty include
// list matches every path; exclude patterns are applied afterwards.
func NewPatternMatcher(include, exclude []string) (*PatternMatcher, error) {
	for _, pattern := range include {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid include pattern %q: %w", pattern, doublestar.ErrBadPattern)
		}
	}
	for _, pattern := range exclude {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", pattern, doublestar.ErrBadPattern)
		}
	}
	return &PatternMatcher{include: include, exclude: exclude}, nil
}

// Match reports whether path is included and not excluded. Each pattern is
// tried against the full path and against its base name.
func (pm *PatternMatcher) Match(path string) bool {
	included := len(pm.include) == 0
	for _, pattern := range pm.include {
		if matchPattern(pattern, path) {
			included = true
			break
		}
	}
	if !included {
		return false
	}

	for _, pattern := range pm.exclude {
		if matchPattern(pattern, path) {
			return false
		}
	}
	return true
}

func matchPattern(pattern, path string) bool {
	slashed := filepath.ToSlash(path)
	if matched, _ := doublestar.Match(pattern, slashed); matched {
		return true
	}
	matched, _ := doublestar.Match(pattern, filepath.Base(path))
	return matched
}

// DefaultExcludePatterns are the scratch files Chrome and the patcher leave
// next to the files they replace.
func DefaultExcludePatterns() []string {
	return []string{
		"*.tmp",
		"*~",
		".org.chromium.Chromium.*",
		".com.google.Chrome.*",
		".Local State*",
	}
}
