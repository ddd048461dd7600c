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

// Package persistence provides idempotent adapters for recording the rate
// controller's adjustment history durably — which target was tuned to what
// ceiling, and when — for Postgres, Redis, and Kafka.
//
// Each adapter implements a common ledger-entry shape carrying an
// idempotency key (CommitID) and an optional fencing token, so that a
// retried write (crash, timeout, duplicate delivery) applying the same
// entry again is a no-op.
package persistence

import "context"

// AdjustmentEntry is the adapter-facing record of a single rate-limit
// adjustment.
//
// Fields:
//   - Target: the scan target the adjustment applies to.
//   - Limit: the new request-per-second ceiling set by this adjustment.
//   - CommitID: globally unique idempotency key. Re-using the same id for a
//     retried write makes the operation idempotent.
//   - FencingToken: optional monotonic token to prevent out-of-order
//     application when multiple writers exist. Semantics are
//     adapter-specific and disabled if nil.
//
// Callers are responsible for generating stable CommitIDs across retries.
type AdjustmentEntry struct {
	Target       string
	Limit        int64
	CommitID     string
	FencingToken *int64
}

// Ledger defines the minimal API supported by all adapters. Implementations
// must apply each entry exactly once with respect to its idempotency key,
// and must be safe to retry.
type Ledger interface {
	CommitBatch(ctx context.Context, entries []AdjustmentEntry) error
}
