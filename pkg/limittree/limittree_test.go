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

package limittree

import "testing"

func TestBuildFrom400(t *testing.T) {
	tree := New()
	tree.Build(400)

	if got := tree.ValueAt(0); got != 200 {
		t.Fatalf("inner[0] = %d, want 200", got)
	}
	if got := tree.ValueAt(1); got != 300 {
		t.Fatalf("inner[1] = %d, want 300", got)
	}
	if got := tree.ValueAt(2); got != 100 {
		t.Fatalf("inner[2] = %d, want 100", got)
	}
	if tree.Current() != 0 {
		t.Fatalf("current = %d, want 0", tree.Current())
	}
	if tree.Value() != 200 {
		t.Fatalf("Value() = %d, want 200", tree.Value())
	}
}

func TestBuildZero(t *testing.T) {
	tree := New()
	tree.Build(0)
	for i := 0; i < Size; i++ {
		if v := tree.ValueAt(i); v != 0 {
			t.Fatalf("inner[%d] = %d, want 0 for original=0", i, v)
		}
	}
}

func TestBuildDeterministic(t *testing.T) {
	a, b := New(), New()
	a.Build(777)
	b.Build(777)
	for i := 0; i < Size; i++ {
		if a.ValueAt(i) != b.ValueAt(i) {
			t.Fatalf("index %d diverged: %d vs %d", i, a.ValueAt(i), b.ValueAt(i))
		}
	}
}

func TestChildOrderingInvariant(t *testing.T) {
	tree := New()
	tree.Build(1000)
	for i := 0; i*2+2 < Size; i++ {
		left := tree.ValueAt(2*i + 1)
		right := tree.ValueAt(2*i + 2)
		v := tree.ValueAt(i)
		if !(left >= v && v >= right) {
			t.Fatalf("node %d: left=%d value=%d right=%d violates left>=value>=right", i, left, v, right)
		}
	}
}

func TestNavigationLeafNoOp(t *testing.T) {
	tree := New()
	tree.Build(400)
	tree.MoveTo(127) // first leaf
	if tree.HasChildren() {
		t.Fatalf("index 127 should be a leaf")
	}
	before := tree.Current()
	if got := tree.MoveLeft(); got != before {
		t.Fatalf("MoveLeft at leaf returned %d, want %d", got, before)
	}
	if tree.Current() != before {
		t.Fatalf("MoveLeft at leaf moved the cursor")
	}
	if got := tree.MoveRight(); got != before {
		t.Fatalf("MoveRight at leaf returned %d, want %d", got, before)
	}
}

func TestParentValueAtRoot(t *testing.T) {
	tree := New()
	tree.Build(400)
	if got := tree.ParentValue(); got != 400 {
		t.Fatalf("ParentValue() at root = %d, want original 400", got)
	}
}

func TestMoveUpDownRoundTrip(t *testing.T) {
	tree := New()
	tree.Build(400)
	tree.MoveLeft() // -> 1
	tree.MoveRight() // -> 4
	if tree.Current() != 4 {
		t.Fatalf("current = %d, want 4", tree.Current())
	}
	if got := tree.Value(); got != 250 {
		t.Fatalf("value at index 4 = %d, want 250", got)
	}
	from := tree.MoveUp()
	if from != 4 {
		t.Fatalf("MoveUp returned %d, want 4", from)
	}
	if tree.Current() != 1 {
		t.Fatalf("current after MoveUp = %d, want 1", tree.Current())
	}
}

func TestSetValue(t *testing.T) {
	tree := New()
	tree.Build(400)
	tree.MoveTo(10)
	tree.SetValue(999)
	if tree.Value() != 999 {
		t.Fatalf("SetValue did not stick")
	}
}
