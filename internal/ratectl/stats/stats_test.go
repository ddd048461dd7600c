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

package stats

import (
	"sync"
	"testing"
	"time"
)

func TestIncRequests(t *testing.T) {
	a := New(8)
	defer a.Close()

	for i := 0; i < 5; i++ {
		a.IncRequests()
	}
	if a.Requests() != 5 {
		t.Fatalf("Requests() = %d, want 5", a.Requests())
	}
}

func TestAddErrorAccumulatesByKind(t *testing.T) {
	a := New(8)

	a.AddError(ErrorOther)
	a.AddError(ErrorStatus403)
	a.AddError(ErrorStatus403)
	a.AddError(ErrorStatus429)

	a.Close() // drains pending commands before returning

	if a.ErrorCount(ErrorOther) != 1 {
		t.Fatalf("ErrorCount(Other) = %d, want 1", a.ErrorCount(ErrorOther))
	}
	if a.ErrorCount(ErrorStatus403) != 2 {
		t.Fatalf("ErrorCount(Status403) = %d, want 2", a.ErrorCount(ErrorStatus403))
	}
	if a.ErrorCount(ErrorStatus429) != 1 {
		t.Fatalf("ErrorCount(Status429) = %d, want 1", a.ErrorCount(ErrorStatus429))
	}
}

func TestSubtractFromUsizeFieldSaturates(t *testing.T) {
	a := New(8)
	a.SetTotalExpected(10)
	a.SubtractFromUsizeField(FieldTotalExpected, 50)
	a.Close()

	if a.TotalExpected() != 0 {
		t.Fatalf("TotalExpected() = %d, want 0 (saturating subtract)", a.TotalExpected())
	}
}

func TestConcurrentErrorReportsAreNotLost(t *testing.T) {
	a := New(64)
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.AddError(ErrorOther)
		}()
	}
	wg.Wait()

	// Give the drain goroutine a moment to catch up before closing, so the
	// final Close() doesn't race the channel being drained concurrently
	// with in-flight sends beyond what Close itself already serializes.
	time.Sleep(10 * time.Millisecond)
	a.Close()

	if a.ErrorCount(ErrorOther) != 100 {
		t.Fatalf("ErrorCount(Other) = %d, want 100", a.ErrorCount(ErrorOther))
	}
}
