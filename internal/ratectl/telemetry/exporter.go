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

package telemetry

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// scanActivity tracks how many adjustments a single scan target has
// triggered, for the periodic top-N summary log.
type scanActivity struct {
	tunes      atomic.Int64
	bails      atomic.Int64
	lastActive atomic.Int64 // unix nano
}

var activity sync.Map // map[string]*scanActivity

// RecordScanTune records a tune against target for the rolling activity log.
func RecordScanTune(target string) {
	if !enabled.Load() {
		return
	}
	a := activityFor(target)
	a.tunes.Add(1)
	a.lastActive.Store(time.Now().UnixNano())
}

// RecordScanBail records a bail against target for the rolling activity log.
func RecordScanBail(target string) {
	if !enabled.Load() {
		return
	}
	a := activityFor(target)
	a.bails.Add(1)
	a.lastActive.Store(time.Now().UnixNano())
}

func activityFor(target string) *scanActivity {
	if v, ok := activity.Load(target); ok {
		return v.(*scanActivity)
	}
	a := &scanActivity{}
	actual, _ := activity.LoadOrStore(target, a)
	return actual.(*scanActivity)
}

var (
	exporterMu   sync.Mutex
	exporterStop chan struct{}
	exporterDone chan struct{}
)

// StartActivityLog launches a background goroutine that logs the topN
// busiest scan targets (by tunes+bails) every interval, and evicts entries
// idle for longer than 2*interval. Calling it again replaces the previous
// loop.
func StartActivityLog(interval time.Duration, topN int) {
	exporterMu.Lock()
	defer exporterMu.Unlock()

	if exporterStop != nil {
		close(exporterStop)
		<-exporterDone
		exporterStop, exporterDone = nil, nil
	}
	if interval <= 0 {
		return
	}
	if topN <= 0 {
		topN = 10
	}

	exporterStop = make(chan struct{})
	exporterDone = make(chan struct{})
	go activityLoop(interval, topN, exporterStop, exporterDone)
}

func activityLoop(interval time.Duration, topN int, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			publishActivitySnapshot(interval, topN)
		case <-stop:
			return
		}
	}
}

type activityRow struct {
	target string
	tunes  int64
	bails  int64
}

func publishActivitySnapshot(interval time.Duration, topN int) {
	cutoff := time.Now().Add(-2 * interval).UnixNano()
	rows := make([]activityRow, 0, 16)

	activity.Range(func(k, v any) bool {
		a := v.(*scanActivity)
		last := a.lastActive.Load()
		if last < cutoff {
			activity.Delete(k)
			return true
		}
		rows = append(rows, activityRow{target: k.(string), tunes: a.tunes.Load(), bails: a.bails.Load()})
		return true
	})

	sort.Slice(rows, func(i, j int) bool {
		return rows[i].tunes+rows[i].bails > rows[j].tunes+rows[j].bails
	})
	if len(rows) > topN {
		rows = rows[:topN]
	}

	for _, r := range rows {
		fmt.Printf("ratectl: target=%s tunes=%d bails=%d\n", r.target, r.tunes, r.bails)
	}
}
