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
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/tombee/glicpatch/pkg/errors"
)

func writeChannelDir(t *testing.T, version, localState string) string {
	t.Helper()
	dir := t.TempDir()
	if version != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, LastVersionFile), []byte(version), 0o644))
	}
	if localState != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, LocalStateFile), []byte(localState), 0o600))
	}
	return dir
}

func readLocalState(t *testing.T, dir string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, LocalStateFile))
	require.NoError(t, err)
	return string(data)
}

func TestPatchDir(t *testing.T) {
	t.Run("rewrites modified document", func(t *testing.T) {
		dir := writeChannelDir(t, "120.0\n",
			`{"variations_country":"uk","variations_permanent_consistency_country":["42.0","uk"],"nested":{"is_glic_eligible":false}}`)

		res, err := PatchDir(dir, Options{})
		require.NoError(t, err)
		assert.True(t, res.Modified())
		assert.True(t, res.Written)
		assert.Equal(t, "120.0", res.Version)
		assert.Equal(t,
			`{"variations_country":"us","variations_permanent_consistency_country":["120.0","us"],"nested":{"is_glic_eligible":true}}`,
			readLocalState(t, dir))

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Len(t, entries, 2, "temp file must not be left behind")
	})

	t.Run("preserves file mode", func(t *testing.T) {
		if runtime.GOOS == "windows" {
			t.Skip("unix permissions")
		}
		dir := writeChannelDir(t, "1.0", `{"variations_country":"uk"}`)

		_, err := PatchDir(dir, Options{})
		require.NoError(t, err)

		info, err := os.Stat(filepath.Join(dir, LocalStateFile))
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	})

	t.Run("leaves unmodified document untouched", func(t *testing.T) {
		original := "{\n  \"variations_country\": \"us\"\n}"
		dir := writeChannelDir(t, "1.0", original)

		res, err := PatchDir(dir, Options{})
		require.NoError(t, err)
		assert.False(t, res.Modified())
		assert.False(t, res.Written)
		assert.Equal(t, original, readLocalState(t, dir))
	})

	t.Run("dry run does not write", func(t *testing.T) {
		original := `{"variations_country":"uk"}`
		dir := writeChannelDir(t, "1.0", original)

		res, err := PatchDir(dir, Options{DryRun: true})
		require.NoError(t, err)
		assert.Equal(t, []Change{ChangeVariationsCountry}, res.Changes)
		assert.False(t, res.Written)
		assert.Equal(t, original, readLocalState(t, dir))
	})

	t.Run("missing Last Version", func(t *testing.T) {
		dir := writeChannelDir(t, "", `{}`)

		_, err := PatchDir(dir, Options{})
		require.Error(t, err)
		assert.True(t, pkgerrors.IsNotFound(err))
		assert.Contains(t, err.Error(), LastVersionFile)
	})

	t.Run("missing Local State", func(t *testing.T) {
		dir := writeChannelDir(t, "1.0", "")

		_, err := PatchDir(dir, Options{})
		require.Error(t, err)
		assert.True(t, pkgerrors.IsNotFound(err))
		assert.Contains(t, err.Error(), LocalStateFile)
	})

	t.Run("invalid JSON is an error", func(t *testing.T) {
		dir := writeChannelDir(t, "1.0", `{not json`)

		_, err := PatchDir(dir, Options{})
		require.Error(t, err)
		assert.False(t, pkgerrors.IsNotFound(err))
	})

	t.Run("invalid UTF-8 is left untouched", func(t *testing.T) {
		original := "{\"variations_country\":\"a\xffb\"}"
		dir := writeChannelDir(t, "1.0", original)

		_, err := PatchDir(dir, Options{})
		assert.ErrorIs(t, err, ErrInvalidUTF8)
		assert.Equal(t, original, readLocalState(t, dir))
	})
}

func TestInspect(t *testing.T) {
	t.Run("reports current values and pending edits", func(t *testing.T) {
		dir := writeChannelDir(t, "120.0",
			`{"variations_country":"uk","variations_permanent_consistency_country":["42.0","uk"],"p":[{"is_glic_eligible":false},{"is_glic_eligible":true}]}`)

		st, err := Inspect(context.Background(), dir, "")
		require.NoError(t, err)
		assert.Equal(t, "120.0", st.Version)
		assert.Equal(t, "uk", st.VariationsCountry)
		assert.Equal(t, []any{"42.0", "uk"}, st.ConsistencyCountry)
		assert.Equal(t, []any{false, true}, st.GlicEligible)
		assert.True(t, st.NeedsPatch())
		assert.Len(t, st.Pending, 3)

		assert.Contains(t, readLocalState(t, dir), `"uk"`, "inspect must not write")
	})

	t.Run("patched document needs nothing", func(t *testing.T) {
		dir := writeChannelDir(t, "120.0", `{"variations_country":"uk","x":{"is_glic_eligible":false}}`)
		_, err := PatchDir(dir, Options{})
		require.NoError(t, err)

		st, err := Inspect(context.Background(), dir, "")
		require.NoError(t, err)
		assert.False(t, st.NeedsPatch())
		assert.Equal(t, "us", st.VariationsCountry)
		assert.Nil(t, st.ConsistencyCountry)
	})

	t.Run("non-object root", func(t *testing.T) {
		for _, doc := range []string{`[1,2]`, `"x"`, `null`} {
			dir := writeChannelDir(t, "1.0", doc)
			_, err := Inspect(context.Background(), dir, "")
			assert.ErrorIs(t, err, ErrNotObject, doc)

			_, err = PatchDir(dir, Options{})
			assert.ErrorIs(t, err, ErrNotObject, doc)
		}
	})

	t.Run("missing files", func(t *testing.T) {
		_, err := Inspect(context.Background(), t.TempDir(), "")
		assert.True(t, pkgerrors.IsNotFound(err))
	})
}
