// Copyright 2025 Esteban Alvarez. All Rights Reserved.
//
// Created: October 2025
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

// Package limittree provides a stateful walk over a pre-built complete
// binary tree of candidate request-rate values. It is the search structure
// an adaptive rate controller uses to pick a slightly higher or slightly
// lower neighboring rate without recomputing the whole candidate set on
// every adjustment.
package limittree

// Size is the number of nodes in the tree: a complete binary tree eight
// levels deep (root at depth 0, leaves at depth 7).
const Size = 255

// firstLeaf is the smallest index with no children.
const firstLeaf = 127

// LimitTree is an index-addressed complete binary tree of 255 candidate
// rate values. It is not safe for concurrent use; callers that share a
// LimitTree across goroutines must serialize access themselves (see
// internal/ratectl/policy, which guards one behind a sync.RWMutex).
type LimitTree struct {
	inner    [Size]int
	original int
	current  int
}

// New returns a zero-valued LimitTree. Call Build to populate it.
func New() *LimitTree {
	return &LimitTree{}
}

// Build derives all 255 candidate values from the seed requests-per-second
// value and resets the cursor to the root.
//
// inner[0] is original/2. Every other internal node i derives its two
// children from its own value v and its parent's value p (or original, at
// the root, which has no real parent):
//
//	left  = |p - v| / 2 + v
//	right = v - |p - v| / 2
//
// Nodes are visited in index order; a child slot is only ever written once
// because legitimate derived values are strictly positive for any positive
// original, and recomputing from an already-written value would be
// idempotent (equal parent/child values only ever reproduce the same child
// values) — so a zero child slot is a safe "not yet written" sentinel for
// every original but the degenerate original=0 case, where the whole tree
// is legitimately all zero and never gets (or needs) a second write anyway.
func (t *LimitTree) Build(original int) {
	var inner [Size]int
	inner[0] = original / 2
	for i := 0; i < Size; i++ {
		if !hasChildren(i) {
			continue
		}
		right := 2*i + 2
		if inner[right] != 0 {
			continue
		}
		v := inner[i]
		p := original
		if i != 0 {
			p = inner[parent(i)]
		}
		diff := abs(p - v)
		inner[2*i+1] = diff/2 + v
		inner[right] = v - diff/2
	}
	t.inner = inner
	t.original = original
	t.current = 0
}

// Original returns the seed requests-per-second value the tree was built from.
func (t *LimitTree) Original() int { return t.original }

// Current returns the cursor's current index.
func (t *LimitTree) Current() int { return t.current }

// Value returns the candidate value at the cursor.
func (t *LimitTree) Value() int { return t.inner[t.current] }

// SetValue overwrites the candidate value at the cursor.
func (t *LimitTree) SetValue(v int) { t.inner[t.current] = v }

// ValueAt returns the candidate value at an arbitrary index, for inspection
// (e.g. by tests) without disturbing the cursor.
func (t *LimitTree) ValueAt(i int) int { return t.inner[i] }

// HasChildren reports whether the cursor has a left and right child.
func (t *LimitTree) HasChildren() bool { return hasChildren(t.current) }

// HasParent reports whether the cursor is not the root.
func (t *LimitTree) HasParent() bool { return t.current > 0 }

// MoveLeft moves the cursor to its left child, if any, and returns the
// index the cursor moved from. If the cursor has no children, it is a
// no-op and the cursor's own (unchanged) index is returned.
func (t *LimitTree) MoveLeft() int {
	if !t.HasChildren() {
		return t.current
	}
	from := t.current
	t.current = 2*t.current + 1
	return from
}

// MoveRight moves the cursor to its right child, if any, and returns the
// index the cursor moved from. No-op (as MoveLeft) if there are no children.
func (t *LimitTree) MoveRight() int {
	if !t.HasChildren() {
		return t.current
	}
	from := t.current
	t.current = 2*t.current + 2
	return from
}

// MoveUp moves the cursor to its parent, if any, and returns the index the
// cursor moved from. No-op at the root.
func (t *LimitTree) MoveUp() int {
	if !t.HasParent() {
		return t.current
	}
	from := t.current
	t.current = parent(t.current)
	return from
}

// MoveTo jumps the cursor to an arbitrary index unconditionally.
func (t *LimitTree) MoveTo(i int) { t.current = i }

// ParentValue reads the value at the cursor's parent without disturbing the
// cursor. At the root it returns the seed original value, since the root's
// conceptual parent is the un-halved seed rate.
func (t *LimitTree) ParentValue() int {
	if !t.HasParent() {
		return t.original
	}
	saved := t.current
	t.current = parent(t.current)
	v := t.Value()
	t.current = saved
	return v
}

// RightChildValue reads the value at the cursor's right child without
// disturbing the cursor. If the cursor has no children, it returns the
// cursor's own value (there is no lower candidate down this branch).
func (t *LimitTree) RightChildValue() int {
	if !t.HasChildren() {
		return t.Value()
	}
	saved := t.current
	t.current = 2*t.current + 2
	v := t.Value()
	t.current = saved
	return v
}

func hasChildren(i int) bool { return i*2+2 <= Size-1 }

func parent(i int) int { return (i - 1) / 2 }

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
