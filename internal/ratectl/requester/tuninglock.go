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

package requester

import "sync"

// tuningLock is a non-blocking mutex wrapping a streak counter. A contender
// that cannot acquire it must proceed without adjusting the limit rather
// than wait — this serializes tree mutation to one worker at a time while
// every other worker's cooldown/bucket-swap path still runs concurrently.
type tuningLock struct {
	mu     sync.Mutex
	streak int
}

// tryAdjust attempts to acquire the lock. If it succeeds, f runs with the
// current streak value and its return value becomes the new streak; ok is
// true. If the lock is already held, tryAdjust returns immediately with
// ok == false and does not call f.
func (l *tuningLock) tryAdjust(f func(streak int) int) (ok bool) {
	if !l.mu.TryLock() {
		return false
	}
	defer l.mu.Unlock()
	l.streak = f(l.streak)
	return true
}
