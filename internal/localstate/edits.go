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
)

const (
	// GlicEligibleKey is flipped to true at every depth of the document.
	GlicEligibleKey = "is_glic_eligible"

	// VariationsCountryKey is the root field holding the variations country.
	VariationsCountryKey = "variations_country"

	// ConsistencyCountryKey is the root [version, country] pair Chrome uses
	// to keep the permanent-consistency country stable across a version.
	ConsistencyCountryKey = "variations_permanent_consistency_country"

	// DefaultCountry is the country code written by the edits.
	DefaultCountry = "us"
)

// ErrNotObject is returned when the document root is not a JSON object.
var ErrNotObject = errors.New("document root is not an object")

// Change names a field that an edit modified.
type Change string

const (
	ChangeGlicEligible       Change = GlicEligibleKey
	ChangeVariationsCountry  Change = VariationsCountryKey
	ChangeConsistencyCountry Change = ConsistencyCountryKey
)

// SetGlicEligible sets every is_glic_eligible field that is not the
// boolean true to true, at any depth, and reports whether anything changed.
func SetGlicEligible(n *Node) bool {
	modified := false

	switch n.Kind() {
	case KindObject:
		n.Fields(func(key string, v *Node) {
			if key == GlicEligibleKey && !v.IsTrue() {
				n.Set(key, Bool(true))
				modified = true
				return
			}
			if SetGlicEligible(v) {
				modified = true
			}
		})
	case KindArray:
		n.Elements(func(_ int, v *Node) {
			if SetGlicEligible(v) {
				modified = true
			}
		})
	}

	return modified
}

// SetVariationsCountry sets the root variations_country to country.
func SetVariationsCountry(root *Node, country string) bool {
	if v, ok := root.Get(VariationsCountryKey); ok && v.IsString(country) {
		return false
	}
	root.Set(VariationsCountryKey, String(country))
	return true
}

// SetConsistencyCountry rewrites the first two elements of the root
// variations_permanent_consistency_country array to version and country.
// Missing fields, non-arrays and arrays shorter than two are left alone.
func SetConsistencyCountry(root *Node, version, country string) bool {
	arr, ok := root.Get(ConsistencyCountryKey)
	if !ok || arr.Kind() != KindArray || arr.Len() < 2 {
		return false
	}
	if arr.Index(0).IsString(version) && arr.Index(1).IsString(country) {
		return false
	}
	arr.SetIndex(0, String(version))
	arr.SetIndex(1, String(country))
	return true
}

// Apply runs the three edits against root in order and returns the fields
// that changed. Applying twice yields the same document as applying once.
func Apply(root *Node, version, country string) ([]Change, error) {
	if root == nil || root.Kind() != KindObject {
		return nil, ErrNotObject
	}
	if country == "" {
		country = DefaultCountry
	}

	var changes []Change
	if SetGlicEligible(root) {
		changes = append(changes, ChangeGlicEligible)
	}
	if SetVariationsCountry(root, country) {
		changes = append(changes, ChangeVariationsCountry)
	}
	if SetConsistencyCountry(root, version, country) {
		changes = append(changes, ChangeConsistencyCountry)
	}
	return changes, nil
}
