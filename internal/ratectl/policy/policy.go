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

package policy

import (
	"sync"
	"sync/atomic"
	"time"

	"ratectl/pkg/limittree"
)

// PolicyData owns the LimitTree search cursor plus the small set of
// cross-goroutine signals a Requester reads on every request: the current
// rate ceiling, the last-observed error count, the cooldown latch, and the
// one-shot "drop the limiter entirely" flag.
//
// The tree is guarded by mu (single-writer/multi-reader: only
// AdjustUp/AdjustDown/SetReqsSec and the test helper TreeMoveTo take the
// write lock). The four scalar
// signals are atomics so the hot request path never blocks on mu just to
// read the current limit.
type PolicyData struct {
	policy     RequesterPolicy
	waitTimeMS uint64

	coolingDown atomic.Bool
	limit       atomic.Int64
	errors      atomic.Int64
	removeLimit atomic.Bool

	mu   sync.RWMutex
	tree *limittree.LimitTree
}

// New creates a PolicyData for the given policy. wait_time_ms is derived
// from timeoutSeconds the way the source does: timeoutSeconds * 500.
func New(p RequesterPolicy, timeoutSeconds int) *PolicyData {
	return &PolicyData{
		policy:     p,
		waitTimeMS: uint64(timeoutSeconds) * 500,
		tree:       limittree.New(),
	}
}

// Policy returns the immutable policy this PolicyData was constructed with.
func (p *PolicyData) Policy() RequesterPolicy { return p.policy }

// WaitTime returns the cooldown window duration.
func (p *PolicyData) WaitTime() time.Duration {
	return time.Duration(p.waitTimeMS) * time.Millisecond
}

// Limit returns the current rate ceiling in req/sec.
func (p *PolicyData) Limit() int64 { return p.limit.Load() }

// Errors returns the last-observed scan error count recorded at the moment
// of the last adjustment.
func (p *PolicyData) Errors() int64 { return p.errors.Load() }

// SetErrors records the scan error count observed at this adjustment.
func (p *PolicyData) SetErrors(n int64) { p.errors.Store(n) }

// CoolingDown reports whether a cooldown window is currently active.
func (p *PolicyData) CoolingDown() bool { return p.coolingDown.Load() }

// TakeRemoveLimit atomically reads and clears the one-shot "drop the rate
// limiter" signal, returning its prior value.
func (p *PolicyData) TakeRemoveLimit() bool { return p.removeLimit.Swap(false) }

// SetReqsSec is the entry point when tuning first engages: it seeds the
// tree from an observed requests-per-second value and adopts the resulting
// root candidate (original/2) as the current limit.
func (p *PolicyData) SetReqsSec(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tree.Build(n)
	p.limit.Store(int64(p.tree.Value()))
}

// AdjustDown moves the search cursor to the right (lower) child and adopts
// its value as the new limit. It is a no-op at a leaf. Called when the
// error count has increased since the last adjustment.
func (p *PolicyData) AdjustDown() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.tree.HasChildren() {
		return
	}
	p.tree.MoveRight()
	p.limit.Store(int64(p.tree.Value()))
}

// AdjustUp rewards a streak of streak consecutive non-worsening adjustments.
// A short streak (<=2) descends one step down the left (higher) spine. A
// longer streak (>2) backs the cursor out toward the root, on the theory
// that the tree is over-conservative at depth; reaching the root earns
// RemoveLimit — the scan has earned the right to run unthrottled. Reaching
// a leaf with no children to offer also backs the cursor up.
func (p *PolicyData) AdjustUp(streak int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch {
	case streak > 2:
		currentVal := p.tree.Value()
		p.tree.MoveUp()
		p.tree.MoveUp()
		if currentVal > p.tree.Value() {
			if p.tree.HasParent() && p.tree.ParentValue() > currentVal {
				p.tree.MoveUp()
			} else if !p.tree.HasParent() {
				p.removeLimit.Store(true)
			}
		}
		p.limit.Store(int64(p.tree.Value()))

	case p.tree.HasChildren():
		p.tree.MoveLeft()
		p.limit.Store(int64(p.tree.Value()))

	default: // leaf reached: no more candidates down this branch
		currentVal := p.tree.Value()
		p.tree.MoveUp()
		p.tree.MoveUp()
		if currentVal > p.tree.Value() {
			p.tree.MoveUp()
		}
		p.limit.Store(int64(p.tree.Value()))
	}
}

// TreeCurrent and TreeValueAt expose the search cursor read-only, for tests
// that need to position or inspect the tree directly (the RWMutex is taken
// for the duration of the read, matching the "readers touch it only in
// tests" discipline the source documents).
func (p *PolicyData) TreeCurrent() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.tree.Current()
}

func (p *PolicyData) TreeValueAt(i int) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.tree.ValueAt(i)
}

// TreeMoveTo repositions the search cursor directly. Exposed for tests that
// need to exercise AdjustUp/AdjustDown from a specific node without driving
// a full sequence of adjustments to get there.
func (p *PolicyData) TreeMoveTo(i int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tree.MoveTo(i)
}

// CoolDown is the single-entry cooldown window. If another goroutine is
// already cooling down, it returns immediately; otherwise it latches
// cooling_down, sleeps the configured wait time, and clears the latch. The
// CompareAndSwap gives exactly one winner among concurrent callers, so at
// most one cooldown window is ever active at a time — the same
// "already in progress, bail out" shape as a non-blocking stop flag.
func (p *PolicyData) CoolDown() {
	if !p.coolingDown.CompareAndSwap(false, true) {
		return
	}
	defer p.coolingDown.Store(false)
	time.Sleep(p.WaitTime())
}
