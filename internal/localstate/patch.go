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
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	pkgerrors "github.com/tombee/glicpatch/pkg/errors"
)

const (
	// LocalStateFile is the document Chrome keeps in its user data directory.
	LocalStateFile = "Local State"

	// LastVersionFile holds the version of the last Chrome that used the directory.
	LastVersionFile = "Last Version"
)

// Options tune a patch.
type Options struct {
	// Country overrides DefaultCountry.
	Country string

	// DryRun computes the changes without writing the file.
	DryRun bool
}

// Result describes the outcome of patching one user data directory.
type Result struct {
	Path    string
	Version string
	Changes []Change
	Written bool
}

// Modified reports whether any edit changed a value.
func (r *Result) Modified() bool {
	return len(r.Changes) > 0
}

// ReadVersion returns the trimmed contents of dir's Last Version file.
func ReadVersion(dir string) (string, error) {
	path := filepath.Join(dir, LastVersionFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", &pkgerrors.NotFoundError{Resource: LastVersionFile, ID: path}
		}
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// PatchDir reads the version marker in dir and patches its Local State.
func PatchDir(dir string, opts Options) (*Result, error) {
	version, err := ReadVersion(dir)
	if err != nil {
		return nil, err
	}
	return PatchFile(dir, version, opts)
}

// PatchFile applies the edits to dir's Local State using version. The file
// is rewritten only when an edit changed a value.
func PatchFile(dir, version string, opts Options) (*Result, error) {
	path := filepath.Join(dir, LocalStateFile)

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &pkgerrors.NotFoundError{Resource: LocalStateFile, ID: path}
		}
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	root, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	changes, err := Apply(root, version, opts.Country)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	res := &Result{Path: path, Version: version, Changes: changes}
	if !res.Modified() || opts.DryRun {
		return res, nil
	}

	out, err := Encode(root)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := writeFileAtomic(path, out, info.Mode().Perm()); err != nil {
		return nil, err
	}
	res.Written = true
	return res, nil
}

// writeFileAtomic replaces path through a temp file in the same directory.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("failed to write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("failed to sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to set mode on %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
