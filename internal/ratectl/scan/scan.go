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

// Package scan holds the per-target scan record (the FeroxScan collaborator
// from the controller's point of view): counters, status, a progress bar,
// and an abortable lifecycle. Everything recursion, filtering, extraction,
// and reporting need lives outside this package; the controller only ever
// touches the narrow surface defined here.
package scan

import (
	"context"
	"sync/atomic"
	"time"

	"ratectl/internal/ratectl/policy"
)

// Status is the lifecycle state of a scan.
type Status int32

const (
	StatusPending Status = iota
	StatusRunning
	StatusComplete
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusComplete:
		return "complete"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Scan is a single target's in-progress (or finished) scan record.
type Scan struct {
	id        string
	startedAt time.Time

	status   atomic.Int32
	requests atomic.Int64

	errorsGeneral atomic.Int64
	errors403     atomic.Int64
	errors429     atomic.Int64

	progressLength   atomic.Int64
	progressPosition atomic.Int64

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a Scan in the Running state.
func New(id string) *Scan {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scan{id: id, startedAt: time.Now(), ctx: ctx, cancel: cancel}
	s.status.Store(int32(StatusRunning))
	return s
}

// ID returns the scan's target identifier.
func (s *Scan) ID() string { return s.id }

// IncRequests records one completed request against this scan.
func (s *Scan) IncRequests() { s.requests.Add(1) }

// Requests returns the number of requests this scan has made so far.
func (s *Scan) Requests() int { return int(s.requests.Load()) }

// RequestsPerSecond returns the scan's observed throughput since it began.
func (s *Scan) RequestsPerSecond() float64 {
	elapsed := time.Since(s.startedAt).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(s.requests.Load()) / elapsed
}

// AddError records one occurrence of the given trigger category.
func (s *Scan) AddError(tr policy.Trigger) {
	switch tr {
	case policy.TriggerErrors:
		s.errorsGeneral.Add(1)
	case policy.TriggerStatus403:
		s.errors403.Add(1)
	case policy.TriggerStatus429:
		s.errors429.Add(1)
	}
}

// NumErrors returns the current count for the given trigger category.
// Implements policy.ScanCounters.
func (s *Scan) NumErrors(tr policy.Trigger) int {
	switch tr {
	case policy.TriggerErrors:
		return int(s.errorsGeneral.Load())
	case policy.TriggerStatus403:
		return int(s.errors403.Load())
	case policy.TriggerStatus429:
		return int(s.errors429.Load())
	default:
		return 0
	}
}

// Status returns the scan's current lifecycle state.
func (s *Scan) Status() Status { return Status(s.status.Load()) }

// SetStatus transitions the scan to a new lifecycle state.
func (s *Scan) SetStatus(st Status) { s.status.Store(int32(st)) }

// IsActive reports whether the scan is still running.
func (s *Scan) IsActive() bool { return s.Status() == StatusRunning }

// Abort cancels the scan's underlying task. It always returns nil: per the
// source design, bail-path failures are logged and swallowed rather than
// propagated.
func (s *Scan) Abort(ctx context.Context) error {
	s.cancel()
	return nil
}

// Done returns a channel closed once the scan has been aborted, so a
// worker's in-flight await can observe cancellation.
func (s *Scan) Done() <-chan struct{} { return s.ctx.Done() }

// SetProgressLength sets the total expected unit count for the progress bar.
func (s *Scan) SetProgressLength(n int64) { s.progressLength.Store(n) }

// SubtractProgressLength reduces the total expected unit count, e.g. when a
// bail skips the remainder of a scan.
func (s *Scan) SubtractProgressLength(n int64) {
	for {
		old := s.progressLength.Load()
		next := old - n
		if next < 0 {
			next = 0
		}
		if s.progressLength.CompareAndSwap(old, next) {
			return
		}
	}
}

// AddProgress advances the progress bar's position.
func (s *Scan) AddProgress(n int64) { s.progressPosition.Add(n) }

// ProgressBar returns the progress bar's length and current position.
func (s *Scan) ProgressBar() (length, position int64) {
	return s.progressLength.Load(), s.progressPosition.Load()
}
