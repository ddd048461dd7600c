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

package scan

import (
	"sync"
	"testing"
)

func TestGetOrCreateReturnsSameScan(t *testing.T) {
	r := NewRegistry()
	a := r.GetOrCreate("http://a")
	b := r.GetOrCreate("http://a")
	if a != b {
		t.Fatalf("GetOrCreate returned two different scans for the same id")
	}
}

func TestGetOrCreateConcurrentCreatesExactlyOne(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	results := make([]*Scan, 32)

	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			results[idx] = r.GetOrCreate("http://shared")
		}(i)
	}
	wg.Wait()

	first := results[0]
	for _, s := range results {
		if s != first {
			t.Fatalf("concurrent GetOrCreate produced divergent scans")
		}
	}
}

func TestDeleteRemovesEntry(t *testing.T) {
	r := NewRegistry()
	r.GetOrCreate("http://a")
	r.Delete("http://a")
	if _, ok := r.Get("http://a"); ok {
		t.Fatalf("scan should no longer be present after Delete")
	}
}

func TestBailLeavesOtherScansActive(t *testing.T) {
	r := NewRegistry()
	targets := []string{"http://a", "http://b", "http://c", "http://d"}
	for _, target := range targets {
		r.GetOrCreate(target)
	}

	s, _ := r.Get("http://b")
	s.SetStatus(StatusCancelled)
	_ = s.Abort(nil)

	if r.ActiveCount() != 3 {
		t.Fatalf("ActiveCount() = %d, want 3 after bailing exactly one scan", r.ActiveCount())
	}
	for _, target := range []string{"http://a", "http://c", "http://d"} {
		other, _ := r.Get(target)
		if !other.IsActive() {
			t.Fatalf("scan %s should remain active", target)
		}
	}
	bailed, _ := r.Get("http://b")
	if bailed.IsActive() {
		t.Fatalf("scan http://b should have been cancelled")
	}
}

func TestForEachVisitsAllRegisteredScans(t *testing.T) {
	r := NewRegistry()
	ids := []string{"x", "y", "z"}
	for _, id := range ids {
		r.GetOrCreate(id)
	}

	seen := map[string]bool{}
	r.ForEach(func(id string, s *Scan) {
		seen[id] = true
	})
	for _, id := range ids {
		if !seen[id] {
			t.Fatalf("ForEach did not visit scan %q", id)
		}
	}
}
