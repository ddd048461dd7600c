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

// Package bucket implements the swappable token-bucket limiter the
// controller sits in front of. Token accounting is a plain CAS loop over an
// atomic counter, topped up by a background refill goroutine; callers that
// find the bucket empty park on a notify channel instead of failing, so
// AcquireOne is the async suspension point the source design calls it.
package bucket

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"time"
)

// ErrExhausted is returned by AcquireOne when the bucket is closed while a
// caller is parked waiting for a token. It is not returned for ordinary
// exhaustion — an empty bucket blocks the caller until the next refill tick
// delivers a token, since that blocking is what enforces the req/sec
// ceiling in the first place.
var ErrExhausted = errors.New("bucket: closed while acquiring")

// Bucket is a single token bucket: a capped counter topped up at a fixed
// interval by a fixed amount.
type Bucket struct {
	tokens atomic.Int64
	max    int64

	refillAmount   int64
	refillInterval time.Duration

	notifyMu sync.Mutex
	notify   chan struct{} // closed and replaced whenever a token becomes available

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// New constructs a Bucket sized for a target limit of limit requests per
// second, following the construction rule:
//
//	refillAmount   = max(round(limit / 10), 1)
//	initialTokens  = max(round(limit / 2), 1)
//	refillInterval = 1s if refillAmount == 1, else 100ms
//	max            = limit
//
// The background refill goroutine is started immediately; callers must
// call Close when the bucket is no longer needed.
func New(limit int64) *Bucket {
	refillAmount := maxInt64(roundDiv(limit, 10), 1)
	initial := maxInt64(roundDiv(limit, 2), 1)
	interval := 100 * time.Millisecond
	if refillAmount == 1 {
		interval = time.Second
	}

	b := &Bucket{
		max:            limit,
		refillAmount:   refillAmount,
		refillInterval: interval,
		notify:         make(chan struct{}),
		stopCh:         make(chan struct{}),
	}
	b.tokens.Store(initial)

	b.wg.Add(1)
	go b.refillLoop()
	return b
}

// Max reports the bucket's configured ceiling (the limit it was built
// with). Used by set_rate_limiter to detect the "rebuild would be a no-op"
// fast path.
func (b *Bucket) Max() int64 { return b.max }

// tryAcquire attempts a single non-blocking CAS decrement, reporting
// whether it won a token.
func (b *Bucket) tryAcquire() bool {
	for {
		old := b.tokens.Load()
		if old <= 0 {
			return false
		}
		if b.tokens.CompareAndSwap(old, old-1) {
			return true
		}
	}
}

// AcquireOne blocks until a token is available, the bucket is closed, or
// ctx is done. This is the async acquire_one from the source design: a
// caller that loses the race parks on the refill notification rather than
// failing, so the ceiling is actually enforced rather than bypassed the
// moment the initial burst is spent.
func (b *Bucket) AcquireOne(ctx context.Context) error {
	for {
		if b.tryAcquire() {
			return nil
		}

		b.notifyMu.Lock()
		wait := b.notify
		b.notifyMu.Unlock()

		select {
		case <-wait:
			// a refill happened; loop and re-check tryAcquire. A closed
			// bucket is seen through stopCh below.
		case <-b.stopCh:
			return ErrExhausted
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close stops the background refill goroutine and releases any callers
// currently parked in AcquireOne. Safe to call more than once.
func (b *Bucket) Close() {
	b.stopOnce.Do(func() {
		close(b.stopCh)
	})
	b.wg.Wait()
}

func (b *Bucket) refillLoop() {
	defer b.wg.Done()
	ticker := time.NewTicker(b.refillInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			b.refill()
		case <-b.stopCh:
			return
		}
	}
}

func (b *Bucket) refill() {
	for {
		old := b.tokens.Load()
		next := old + b.refillAmount
		if next > b.max {
			next = b.max
		}
		if next == old {
			return
		}
		if b.tokens.CompareAndSwap(old, next) {
			b.wake()
			return
		}
	}
}

// wake releases every goroutine currently parked in AcquireOne by closing
// the current notify channel and installing a fresh one for the next wait.
func (b *Bucket) wake() {
	b.notifyMu.Lock()
	close(b.notify)
	b.notify = make(chan struct{})
	b.notifyMu.Unlock()
}

func roundDiv(n, d int64) int64 {
	return int64(math.Round(float64(n) / float64(d)))
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
