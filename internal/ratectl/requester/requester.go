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

// Package requester implements the per-scan orchestrator: it evaluates
// triggers, acquires tokens ahead of each request, drives tune and bail,
// and swaps the underlying token bucket. This is the largest and most
// concurrency-sensitive piece of the controller; every other package here
// exists to be composed by this one.
package requester

import (
	"context"
	"fmt"

	"ratectl/internal/ratectl/bucket"
	"ratectl/internal/ratectl/config"
	"ratectl/internal/ratectl/fetch"
	"ratectl/internal/ratectl/persistence"
	"ratectl/internal/ratectl/policy"
	"ratectl/internal/ratectl/scan"
	"ratectl/internal/ratectl/stats"
	"ratectl/internal/ratectl/telemetry"
)

// Handles bundles the shared collaborators a Requester needs beyond its own
// per-scan state: configuration, the process-wide stats aggregator, the
// HTTP client, the outbound scan command channel, and the adjustment
// recorder. Recorder may be nil, in which case adjustments are not
// persisted anywhere.
type Handles struct {
	Config   *config.Config
	Stats    *stats.Aggregator
	Client   *fetch.Client
	Commands CommandChannel
	Recorder *persistence.Recorder
}

// Requester is the per-scan rate controller. One is constructed per scan
// and lives exactly as long as it does.
type Requester struct {
	handles    Handles
	targetURL  string
	rateLimiter bucket.Handle
	policyData *policy.PolicyData
	feroxScan  *scan.Scan
	tuning     tuningLock
}

// New constructs a Requester for targetURL. If handles.Config.RateLimit > 0,
// a token bucket is installed immediately; otherwise the limiter starts
// absent.
func New(handles Handles, targetURL string, s *scan.Scan) *Requester {
	r := &Requester{
		handles:    handles,
		targetURL:  targetURL,
		policyData: policy.New(handles.Config.RequesterPolicy, handles.Config.Timeout),
		feroxScan:  s,
	}
	if handles.Config.RateLimit > 0 {
		r.rateLimiter.Set(&handles.Config.RateLimit)
	}
	return r
}

// limit blocks until the current bucket yields a token, ctx is done, or the
// bucket is torn down mid-wait. Blocking is what enforces the req/sec
// ceiling; a returned error means the wait was aborted for a real reason
// (scan cancellation, shutdown), not that the limiter ran dry, so it is
// recorded as a stats error and propagated rather than swallowed.
func (r *Requester) limit(ctx context.Context) error {
	if err := r.rateLimiter.AcquireOne(ctx); err != nil {
		r.handles.Stats.AddError(stats.ErrorOther)
		return err
	}
	return nil
}

// tune is called on the first and every subsequent trigger while the
// policy is AutoTune. On the first call (policy_data.errors == 0) it reads
// the scan's current observed throughput, seeds the tree from it, and
// installs a bucket at the resulting limit — this first install is
// deliberately not covered by tuningLock, matching the documented
// first-call race: concurrent first-callers may each install a bucket, and
// convergence follows once policy_data.errors goes non-zero via
// adjustLimit.
func (r *Requester) tune(trigger policy.Trigger) {
	telemetry.RecordTune()
	telemetry.RecordScanTune(r.targetURL)

	if r.policyData.Errors() == 0 {
		observed := int(r.feroxScan.RequestsPerSecond())
		r.policyData.SetReqsSec(observed)
		r.setRateLimiter(limitPtr(r.policyData.Limit()))
	}

	r.adjustLimit(trigger, true)
	r.policyData.CoolDown()
	telemetry.RecordCooldown()
}

// adjustLimit mutates the LimitTree under tuningLock's non-blocking
// acquisition. If the lock is contended, the tree mutation this pass is
// skipped entirely, but the remove_limit side effect below still runs
// unconditionally — that ordering is load-bearing, not an oversight:
// preserve it.
func (r *Requester) adjustLimit(trigger policy.Trigger, createBucket bool) {
	r.tuning.tryAdjust(func(streak int) int {
		scanErrors := r.feroxScan.NumErrors(trigger)
		policyErrors := r.policyData.Errors()

		if scanErrors > policyErrors {
			streak = 0
			if policyErrors != 0 {
				r.policyData.AdjustDown()
			}
			r.policyData.SetErrors(int64(scanErrors))
			return streak
		}

		streak++
		r.policyData.AdjustUp(streak)
		return streak
	})

	if r.policyData.TakeRemoveLimit() {
		r.setRateLimiter(nil)
		return
	}
	if createBucket {
		r.setRateLimiter(limitPtr(r.policyData.Limit()))
	}
}

// setRateLimiter installs newLimit as the active bucket. nil removes the
// limiter entirely.
func (r *Requester) setRateLimiter(newLimit *int64) {
	r.rateLimiter.Set(newLimit)
	if newLimit != nil {
		telemetry.RecordLimit(r.targetURL, *newLimit)
		if r.handles.Recorder != nil {
			r.handles.Recorder.Record(r.targetURL, *newLimit)
		}
	}
}

// bail cancels the scan if it is still active. Status-set and abort
// failures are logged and swallowed: bail always reports success, per the
// bail-path error taxonomy.
func (r *Requester) bail(trigger policy.Trigger) {
	if !r.feroxScan.IsActive() {
		return
	}

	fmt.Printf("requester: bailing scan %s due to trigger %s\n", r.targetURL, trigger)
	telemetry.RecordBail()
	telemetry.RecordScanBail(r.targetURL)

	r.feroxScan.SetStatus(scan.StatusCancelled)
	if err := r.feroxScan.Abort(context.Background()); err != nil {
		fmt.Printf("requester: abort error for scan %s (swallowed): %v\n", r.targetURL, err)
	}

	length, position := r.feroxScan.ProgressBar()
	numSkipped := length - position
	if numSkipped < 0 {
		numSkipped = 0
	}
	r.handles.Stats.SubtractFromUsizeField(stats.FieldTotalExpected, numSkipped)
}

// Request runs the per-word pipeline: build the URL, maybe acquire a
// token, issue the request, dispatch tune/bail, and hand the result to
// recursion and link extraction if enabled.
func (r *Requester) Request(ctx context.Context, word string) error {
	target := fetch.BuildURL(r.targetURL, word)

	cfg := r.handles.Config
	shouldTune := cfg.ShouldTune()
	shouldLimit := shouldTune && r.rateLimiter.Present()
	if shouldLimit {
		if err := r.limit(ctx); err != nil {
			return err
		}
	}

	resp, err := r.handles.Client.Get(ctx, target)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	r.handles.Stats.IncRequests()
	r.feroxScan.IncRequests()

	r.recordStatusError(resp.StatusCode)

	if (shouldTune || cfg.AutoBail) && !r.policyData.CoolingDown() {
		if trigger, ok := policy.Evaluate(r.policyData.CoolingDown(), r.handles.Stats.Requests(), cfg.Threads, r.feroxScan); ok {
			telemetry.RecordTrigger(trigger)
			switch r.policyData.Policy() {
			case policy.AutoTune:
				r.tune(trigger)
			case policy.AutoBail:
				r.bail(trigger)
			case policy.Default:
				// no-op
			}
		}
	}

	converted := Response{URL: target, StatusCode: resp.StatusCode, Header: resp.Header}
	if !cfg.NoRecursion && r.handles.Commands != nil {
		if _, err := SendTryRecursion(r.handles.Commands, converted, r.policyData.WaitTime()); err != nil {
			fmt.Printf("requester: scan command channel error for %s (recoverable, skipping step): %v\n", target, err)
		}
	}
	if cfg.ExtractLinks && !converted.IsRedirect() && r.handles.Commands != nil {
		if _, err := SendExtractLinks(r.handles.Commands, converted, r.policyData.WaitTime()); err != nil {
			fmt.Printf("requester: scan command channel error for %s (recoverable, skipping step): %v\n", target, err)
		}
	}

	return nil
}

func (r *Requester) recordStatusError(status int) {
	switch status {
	case 403:
		r.feroxScan.AddError(policy.TriggerStatus403)
		r.handles.Stats.AddError(stats.ErrorStatus403)
	case 429:
		r.feroxScan.AddError(policy.TriggerStatus429)
		r.handles.Stats.AddError(stats.ErrorStatus429)
	case 0:
	default:
		if status >= 500 {
			r.feroxScan.AddError(policy.TriggerErrors)
		}
	}
}

func limitPtr(n int64) *int64 {
	return &n
}
