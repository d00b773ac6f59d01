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
	"encoding/json"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Kind tags the variant held by a Node.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Node is one value of a JSON document. Objects keep their key order so a
// rewritten Local State differs from the original only where it was edited.
type Node struct {
	kind Kind
	b    bool
	text string // string value, or the literal of a number
	arr  []*Node
	obj  *orderedmap.OrderedMap[string, *Node]
}

func Null() *Node { return &Node{kind: KindNull} }

func Bool(b bool) *Node { return &Node{kind: KindBool, b: b} }

func String(s string) *Node { return &Node{kind: KindString, text: s} }

// Number keeps the literal as written so large integers survive a round trip.
func Number(n json.Number) *Node { return &Node{kind: KindNumber, text: string(n)} }

func Array(items ...*Node) *Node { return &Node{kind: KindArray, arr: items} }

func Object() *Node {
	return &Node{kind: KindObject, obj: orderedmap.New[string, *Node]()}
}

func (n *Node) Kind() Kind { return n.kind }

// IsTrue reports whether n is the boolean true.
func (n *Node) IsTrue() bool { return n.kind == KindBool && n.b }

// IsString reports whether n is a string equal to s.
func (n *Node) IsString(s string) bool { return n.kind == KindString && n.text == s }

// Str returns the string value and whether n is a string.
func (n *Node) Str() (string, bool) {
	if n.kind != KindString {
		return "", false
	}
	return n.text, true
}

// Len returns the number of elements of an array or fields of an object.
func (n *Node) Len() int {
	switch n.kind {
	case KindArray:
		return len(n.arr)
	case KindObject:
		return n.obj.Len()
	default:
		return 0
	}
}

// Index returns element i of an array, or nil.
func (n *Node) Index(i int) *Node {
	if n.kind != KindArray || i < 0 || i >= len(n.arr) {
		return nil
	}
	return n.arr[i]
}

// SetIndex replaces element i of an array. Out of range is a no-op.
func (n *Node) SetIndex(i int, v *Node) {
	if n.kind != KindArray || i < 0 || i >= len(n.arr) {
		return
	}
	n.arr[i] = v
}

// Append adds v to the end of an array.
func (n *Node) Append(v *Node) {
	if n.kind == KindArray {
		n.arr = append(n.arr, v)
	}
}

// Get returns the field key of an object.
func (n *Node) Get(key string) (*Node, bool) {
	if n.kind != KindObject {
		return nil, false
	}
	return n.obj.Get(key)
}

// Set assigns field key of an object. A new key is appended; an existing
// key keeps its position.
func (n *Node) Set(key string, v *Node) {
	if n.kind == KindObject {
		n.obj.Set(key, v)
	}
}

// Fields calls fn for every field of an object in document order.
func (n *Node) Fields(fn func(key string, v *Node)) {
	if n.kind != KindObject {
		return
	}
	for pair := n.obj.Oldest(); pair != nil; pair = pair.Next() {
		fn(pair.Key, pair.Value)
	}
}

// Elements calls fn for every element of an array.
func (n *Node) Elements(fn func(i int, v *Node)) {
	if n.kind != KindArray {
		return
	}
	for i, v := range n.arr {
		fn(i, v)
	}
}

// Equal reports deep equality. Numbers compare by literal.
func (n *Node) Equal(o *Node) bool {
	if n == nil || o == nil {
		return n == o
	}
	if n.kind != o.kind {
		return false
	}
	switch n.kind {
	case KindNull:
		return true
	case KindBool:
		return n.b == o.b
	case KindNumber, KindString:
		return n.text == o.text
	case KindArray:
		if len(n.arr) != len(o.arr) {
			return false
		}
		for i := range n.arr {
			if !n.arr[i].Equal(o.arr[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if n.obj.Len() != o.obj.Len() {
			return false
		}
		for pair := n.obj.Oldest(); pair != nil; pair = pair.Next() {
			other, ok := o.obj.Get(pair.Key)
			if !ok || !pair.Value.Equal(other) {
				return false
			}
		}
		return true
	}
	return false
}
