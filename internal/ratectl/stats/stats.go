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

// Package stats holds the process-wide counters the controller reads to
// decide whether it has seen enough traffic to evaluate a policy trigger,
// plus the buffered command channel used to report errors and progress
// corrections back to the aggregator without blocking a request worker
// while the channel buffer has room.
package stats

import (
	"sync/atomic"
)

// StatErrorKind classifies an error reported to the aggregator.
type StatErrorKind int

const (
	// ErrorOther covers transient, non-HTTP failures such as an
	// aborted rate-limiter wait.
	ErrorOther StatErrorKind = iota
	ErrorStatus403
	ErrorStatus429
	ErrorTimeout
)

func (k StatErrorKind) String() string {
	switch k {
	case ErrorOther:
		return "other"
	case ErrorStatus403:
		return "status403"
	case ErrorStatus429:
		return "status429"
	case ErrorTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Field identifies a usize-valued aggregate field the controller can
// subtract from, e.g. when a bail skips the untouched remainder of a scan.
type Field int

const (
	FieldTotalExpected Field = iota
)

// Command is a message sent down the stats channel. Exactly one of AddError
// or SubtractField is set, following the two inbound variants.
type Command struct {
	AddError      *StatErrorKind
	SubtractField *FieldDelta
}

// FieldDelta names a Field and the amount to subtract from it.
type FieldDelta struct {
	Field Field
	N     int64
}

// Aggregator is the process-wide stats counter plus its command channel.
// Requests is incremented synchronously on the hot path (it gates trigger
// evaluation); everything else flows through the buffered channel so a
// worker reporting an error only blocks when the buffer is full.
type Aggregator struct {
	requests atomic.Int64

	errorsOther     atomic.Int64
	errorsStatus403 atomic.Int64
	errorsStatus429 atomic.Int64
	errorsTimeout   atomic.Int64

	totalExpected atomic.Int64

	commands chan Command
	done     chan struct{}
}

// New creates an Aggregator and starts its background command-draining
// goroutine. bufferSize sizes the command channel; a full buffer makes
// AddError and SubtractFromUsizeField block, so callers should size it generously relative to worker
// count.
func New(bufferSize int) *Aggregator {
	a := &Aggregator{
		commands: make(chan Command, bufferSize),
		done:     make(chan struct{}),
	}
	go a.run()
	return a
}

// IncRequests records one completed request against the process-wide
// counter that gates trigger evaluation.
func (a *Aggregator) IncRequests() { a.requests.Add(1) }

// Requests returns the process-wide request count.
func (a *Aggregator) Requests() int { return int(a.requests.Load()) }

// AddError enqueues an error report. Never blocks the caller for long: if
// the channel is full this degrades to a synchronous send, matching the
// source's "best effort, but never silently drop" stance on error
// accounting.
func (a *Aggregator) AddError(kind StatErrorKind) {
	a.commands <- Command{AddError: &kind}
}

// SubtractFromUsizeField enqueues a subtraction against an aggregate field.
func (a *Aggregator) SubtractFromUsizeField(field Field, n int64) {
	a.commands <- Command{SubtractField: &FieldDelta{Field: field, N: n}}
}

// SetTotalExpected initializes the total-expected-requests field, normally
// called once per scan as work is enqueued.
func (a *Aggregator) SetTotalExpected(n int64) { a.totalExpected.Store(n) }

// TotalExpected returns the current value of the total-expected field.
func (a *Aggregator) TotalExpected() int64 { return a.totalExpected.Load() }

// ErrorCount returns the accumulated count for a single error kind.
func (a *Aggregator) ErrorCount(kind StatErrorKind) int64 {
	switch kind {
	case ErrorOther:
		return a.errorsOther.Load()
	case ErrorStatus403:
		return a.errorsStatus403.Load()
	case ErrorStatus429:
		return a.errorsStatus429.Load()
	case ErrorTimeout:
		return a.errorsTimeout.Load()
	default:
		return 0
	}
}

// Close stops the background drain goroutine. Pending commands already in
// the channel buffer are processed before it returns.
func (a *Aggregator) Close() {
	close(a.commands)
	<-a.done
}

func (a *Aggregator) run() {
	defer close(a.done)
	for cmd := range a.commands {
		switch {
		case cmd.AddError != nil:
			a.applyError(*cmd.AddError)
		case cmd.SubtractField != nil:
			a.applySubtract(*cmd.SubtractField)
		}
	}
}

func (a *Aggregator) applyError(kind StatErrorKind) {
	switch kind {
	case ErrorOther:
		a.errorsOther.Add(1)
	case ErrorStatus403:
		a.errorsStatus403.Add(1)
	case ErrorStatus429:
		a.errorsStatus429.Add(1)
	case ErrorTimeout:
		a.errorsTimeout.Add(1)
	}
}

func (a *Aggregator) applySubtract(d FieldDelta) {
	if d.Field != FieldTotalExpected {
		return
	}
	for {
		old := a.totalExpected.Load()
		next := old - d.N
		if next < 0 {
			next = 0
		}
		if a.totalExpected.CompareAndSwap(old, next) {
			return
		}
	}
}
