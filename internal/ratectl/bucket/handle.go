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

package bucket

import (
	"context"
	"errors"
	"sync"
)

// Handle is an optional bucket behind a single-writer/multi-reader lock.
// The hot path (AcquireOne) takes the read lock; Set, which swaps the
// whole bucket in or out, takes the write lock. The core never mutates an
// existing bucket's parameters — replacement is always a fresh Bucket
// swapped in atomically from the consumer's point of view.
type Handle struct {
	mu sync.RWMutex
	b  *Bucket
}

// AcquireOne forwards to the current bucket's AcquireOne, blocking until a
// token is available. If no bucket is installed, it succeeds trivially (an
// absent limiter means unlimited). If the installed bucket is torn down
// mid-wait — Set swapped it out from under a parked caller — the wait is
// retried against whatever bucket (if any) replaced it, so a tune-driven
// swap never surfaces as a spurious caller-visible error.
func (h *Handle) AcquireOne(ctx context.Context) error {
	for {
		h.mu.RLock()
		b := h.b
		h.mu.RUnlock()
		if b == nil {
			return nil
		}

		err := b.AcquireOne(ctx)
		if errors.Is(err, ErrExhausted) {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
				continue
			}
		}
		return err
	}
}

// Present reports whether a bucket is currently installed.
func (h *Handle) Present() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.b != nil
}

// Max returns the installed bucket's ceiling, or (0, false) if none is
// installed.
func (h *Handle) Max() (int64, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.b == nil {
		return 0, false
	}
	return h.b.Max(), true
}

// Set installs newLimit as the active bucket, following the three cases
// from the source design:
//
//   - newLimit == nil: replace with no bucket.
//   - newLimit points at n and the existing bucket already has Max() == n:
//     no-op (this is the hot path; rebuilding would be wasted work).
//   - otherwise: construct a fresh bucket sized to n and swap it in.
//
// The previous bucket, if replaced, is closed after the swap.
func (h *Handle) Set(newLimit *int64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if newLimit == nil {
		old := h.b
		h.b = nil
		if old != nil {
			old.Close()
		}
		return
	}

	n := *newLimit
	if h.b != nil && h.b.Max() == n {
		return
	}

	old := h.b
	h.b = New(n)
	if old != nil {
		old.Close()
	}
}

// Close releases the currently installed bucket, if any.
func (h *Handle) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.b != nil {
		h.b.Close()
		h.b = nil
	}
}
