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

package localstate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/itchyny/gojq"

	pkgerrors "github.com/tombee/glicpatch/pkg/errors"
)

var (
	countryQuery      = mustCompile("." + VariationsCountryKey)
	consistencyQuery  = mustCompile("." + ConsistencyCountryKey)
	glicEligibleQuery = mustCompile(`[.. | objects | select(has("` + GlicEligibleKey + `")) | .` + GlicEligibleKey + `]`)
)

func mustCompile(expression string) *gojq.Code {
	query, err := gojq.Parse(expression)
	if err != nil {
		panic(fmt.Sprintf("parse %q: %v", expression, err))
	}
	code, err := gojq.Compile(query)
	if err != nil {
		panic(fmt.Sprintf("compile %q: %v", expression, err))
	}
	return code
}

// Status is a read-only view of the patched fields of one Local State.
type Status struct {
	Path               string   `json:"path"`
	Version            string   `json:"version"`
	VariationsCountry  any      `json:"variations_country"`
	ConsistencyCountry any      `json:"variations_permanent_consistency_country"`
	GlicEligible       []any    `json:"is_glic_eligible"`
	Pending            []Change `json:"pending"`
}

// NeedsPatch reports whether patching would change the document.
func (s *Status) NeedsPatch() bool {
	return len(s.Pending) > 0
}

// Inspect reads dir's Last Version and Local State without modifying them.
func Inspect(ctx context.Context, dir, country string) (*Status, error) {
	version, err := ReadVersion(dir)
	if err != nil {
		return nil, err
	}

	path := filepath.Join(dir, LocalStateFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &pkgerrors.NotFoundError{Resource: LocalStateFile, ID: path}
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	root, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if root.Kind() != KindObject {
		return nil, fmt.Errorf("%s: %w", path, ErrNotObject)
	}

	var doc any
	if err := json.Unmarshal(bytes.TrimPrefix(data, utf8BOM), &doc); err != nil {
		return nil, fmt.Errorf("%s: failed to parse JSON: %w", path, err)
	}

	st := &Status{Path: path, Version: version}
	if st.VariationsCountry, err = first(ctx, countryQuery, doc); err != nil {
		return nil, err
	}
	if st.ConsistencyCountry, err = first(ctx, consistencyQuery, doc); err != nil {
		return nil, err
	}
	eligible, err := first(ctx, glicEligibleQuery, doc)
	if err != nil {
		return nil, err
	}
	if list, ok := eligible.([]any); ok {
		st.GlicEligible = list
	}

	// Dry-run the edits on the parsed tree to find what a patch would touch.
	if st.Pending, err = Apply(root, version, country); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return st, nil
}

func first(ctx context.Context, code *gojq.Code, input any) (any, error) {
	iter := code.RunWithContext(ctx, input)
	v, ok := iter.Next()
	if !ok {
		return nil, nil
	}
	if err, isErr := v.(error); isErr {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	return v, nil
}
