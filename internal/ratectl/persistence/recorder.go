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

package persistence

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"
)

// NoopLedger discards every entry. Used when no durable adjustment history
// is configured.
type NoopLedger struct{}

func (NoopLedger) CommitBatch(context.Context, []AdjustmentEntry) error { return nil }

// Recorder batches adjustment entries off the hot path and flushes them to
// a Ledger on a fixed interval, mirroring the background-worker commit loop
// shape: entries accumulate in memory and are committed as a batch rather
// than one write per adjustment.
type Recorder struct {
	ledger   Ledger
	interval time.Duration

	mu      sync.Mutex
	pending []AdjustmentEntry

	stopChan chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewRecorder creates a Recorder flushing to ledger every interval, and
// starts its background flush loop.
func NewRecorder(ledger Ledger, interval time.Duration) *Recorder {
	if interval <= 0 {
		interval = time.Second
	}
	r := &Recorder{ledger: ledger, interval: interval, stopChan: make(chan struct{})}
	r.wg.Add(1)
	go r.loop()
	return r
}

// Record enqueues a rate-limit adjustment for target with its new limit. A
// fresh idempotency id is generated per call.
func (r *Recorder) Record(target string, limit int64) {
	r.mu.Lock()
	r.pending = append(r.pending, AdjustmentEntry{Target: target, Limit: limit, CommitID: randomID()})
	r.mu.Unlock()
}

// Stop flushes any pending entries and stops the background loop.
func (r *Recorder) Stop() {
	r.stopOnce.Do(func() { close(r.stopChan) })
	r.wg.Wait()
}

func (r *Recorder) loop() {
	defer r.wg.Done()
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			r.flush()
		case <-r.stopChan:
			r.flush()
			return
		}
	}
}

func (r *Recorder) flush() {
	r.mu.Lock()
	if len(r.pending) == 0 {
		r.mu.Unlock()
		return
	}
	batch := r.pending
	r.pending = nil
	r.mu.Unlock()

	if err := r.ledger.CommitBatch(context.Background(), batch); err != nil {
		fmt.Printf("persistence: commit batch failed (%d entries): %v\n", len(batch), err)
	}
}

func randomID() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	dst := make([]byte, 32)
	hex.Encode(dst, b[:])
	return string(dst)
}
