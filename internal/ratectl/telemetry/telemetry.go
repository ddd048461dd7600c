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

// Package telemetry provides opt-in, low-overhead metrics for the rate
// controller: how often each trigger fires, how often tune and bail run,
// and how many cooldown windows scans enter. Safe to call from hot paths —
// when disabled, every Record* function is a no-op.
package telemetry

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ratectl/internal/ratectl/policy"
)

var (
	enabled atomic.Bool

	triggersTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ratectl_triggers_total",
		Help: "Total number of times the trigger evaluator returned each trigger kind",
	}, []string{"trigger"})

	tunesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ratectl_tunes_total",
		Help: "Total number of tune() invocations across all scans",
	})
	bailsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ratectl_bails_total",
		Help: "Total number of bail() invocations across all scans",
	})
	cooldownsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ratectl_cooldowns_total",
		Help: "Total number of cooldown windows entered",
	})
	limitGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "ratectl_scan_limit",
		Help: "Current request-per-second ceiling per scan target",
	}, []string{"target"})
)

func init() {
	prometheus.MustRegister(triggersTotal, tunesTotal, bailsTotal, cooldownsTotal, limitGauge)
}

// Enable turns metric recording on. It is a one-time boolean flip, not a
// Config struct, because this package carries no per-key sampling and no
// rolling-window aggregate beyond what Prometheus already gives callers —
// the churn-style exporter lives in StartActivityLog (exporter.go) for cases that
// genuinely need in-process top-N reporting.
func Enable() { enabled.Store(true) }

// Enabled reports whether telemetry recording is active.
func Enabled() bool { return enabled.Load() }

// ServeMetrics starts a dedicated HTTP server exposing /metrics on addr.
func ServeMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		_ = srv.ListenAndServe()
	}()
}

// RecordTrigger increments the per-kind trigger counter.
func RecordTrigger(tr policy.Trigger) {
	if !enabled.Load() {
		return
	}
	triggersTotal.WithLabelValues(tr.String()).Inc()
}

// RecordTune increments the tune counter.
func RecordTune() {
	if !enabled.Load() {
		return
	}
	tunesTotal.Inc()
}

// RecordBail increments the bail counter.
func RecordBail() {
	if !enabled.Load() {
		return
	}
	bailsTotal.Inc()
}

// RecordCooldown increments the cooldown counter.
func RecordCooldown() {
	if !enabled.Load() {
		return
	}
	cooldownsTotal.Inc()
}

// RecordLimit publishes the current rate ceiling for a scan target.
func RecordLimit(target string, limit int64) {
	if !enabled.Load() {
		return
	}
	limitGauge.WithLabelValues(target).Set(float64(limit))
}
