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

// Package main provides a runnable demo of the adaptive request-rate
// controller.
//
// It spins up a local HTTP target that starts failing once it has taken
// enough load (so AutoTune/AutoBail have something to react to), registers
// one scan per configured target against the controller's scan registry,
// and runs a pool of worker goroutines per scan pulling words off a small
// in-memory wordlist and issuing them through requester.Requester.
//
// Try it with:
//
//	go run ./cmd/ratectl-demo -requester_policy=auto-tune -auto_tune -metrics_addr=:9090
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"ratectl/internal/ratectl/config"
	"ratectl/internal/ratectl/fetch"
	"ratectl/internal/ratectl/persistence"
	"ratectl/internal/ratectl/requester"
	"ratectl/internal/ratectl/scan"
	"ratectl/internal/ratectl/stats"
	"ratectl/internal/ratectl/telemetry"
)

func main() {
	fs := flag.NewFlagSet("ratectl-demo", flag.ExitOnError)
	cfg, resolvePolicy := config.RegisterFlags(fs)

	metricsAddr := fs.String("metrics_addr", "", "If non-empty, expose Prometheus /metrics on this address (e.g., :9090)")
	targets := fs.Int("targets", 2, "Number of simulated scan targets to run concurrently")
	wordsPerTarget := fs.Int("words", 400, "Number of words to request against each target")
	failAfter := fs.Int("fail_after", 60, "Requests the demo target serves before it starts returning 429/403")
	persistAdapter := fs.String("persist", "none", "Adjustment persistence adapter: none|redis|kafka")
	fs.Parse(os.Args[1:])
	resolvePolicy()

	if *metricsAddr != "" {
		telemetry.Enable()
		telemetry.ServeMetrics(*metricsAddr)
		fmt.Printf("metrics listening on %s\n", *metricsAddr)
	}

	ledger, err := persistence.BuildLedger(*persistAdapter, persistence.DemoOptions{})
	if err != nil {
		log.Fatalf("persistence: %v", err)
	}
	recorder := persistence.NewRecorder(ledger, 2*time.Second)
	defer recorder.Stop()

	server := httptest.NewServer(demoTargetHandler(*failAfter))
	defer server.Close()
	fmt.Printf("demo target listening on %s (fails after %d requests across all targets)\n", server.URL, *failAfter)

	telemetry.StartActivityLog(5*time.Second, 10)

	st := stats.New(256)
	defer st.Close()

	registry := scan.NewRegistry()
	commands := requester.NewCommandChannel(64)
	go drainCommands(commands)

	clientCfg := fetch.DefaultConfig()
	clientCfg.Timeout = time.Duration(cfg.Timeout) * time.Second
	handles := requester.Handles{
		Config:   cfg,
		Stats:    st,
		Client:   fetch.New(clientCfg),
		Commands: commands,
		Recorder: recorder,
	}
	defer handles.Client.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	for i := 0; i < *targets; i++ {
		targetID := fmt.Sprintf("target-%d", i)
		s := registry.GetOrCreate(targetID)
		s.SetProgressLength(int64(*wordsPerTarget))
		req := requester.New(handles, server.URL, s)

		wg.Add(1)
		go func(s *scan.Scan, req *requester.Requester) {
			defer wg.Done()
			runScan(ctx, s, req, *wordsPerTarget)
		}(s, req)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		fmt.Println("scan complete")
	case <-ctx.Done():
		fmt.Println("\nshutting down, waiting for in-flight requests...")
		<-done
	}

	recorder.Stop()
	fmt.Printf("total requests: %d\n", st.Requests())
}

// runScan drives one scan: word-for-word requests up to wordCount, or until
// the scan is aborted (bailed) or the context is cancelled.
func runScan(ctx context.Context, s *scan.Scan, req *requester.Requester, wordCount int) {
	for i := 0; i < wordCount; i++ {
		select {
		case <-ctx.Done():
			return
		case <-s.Done():
			return
		default:
		}
		if !s.IsActive() {
			return
		}
		word := strconv.Itoa(i)
		if err := req.Request(ctx, word); err != nil {
			continue
		}
		s.AddProgress(1)
	}
	if s.IsActive() {
		s.SetStatus(scan.StatusComplete)
	}
}

// drainCommands answers every TryRecursion or ExtractLinks command with a
// flat "no", standing in for a real recursion/link-extraction collaborator.
func drainCommands(ch requester.CommandChannel) {
	for cmd := range ch {
		if cmd.Sync != nil {
			cmd.Sync <- false
		}
	}
}

// demoTargetHandler returns an HTTP handler that serves normally for the
// first failAfter requests, then alternates between 429 and 403 so AutoTune
// and AutoBail both have triggers to react to.
func demoTargetHandler(failAfter int) http.Handler {
	var count int64
	var mu sync.Mutex
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		count++
		n := count
		mu.Unlock()

		if int(n) <= failAfter {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
			return
		}
		if n%2 == 0 {
			w.WriteHeader(http.StatusTooManyRequests)
		} else {
			w.WriteHeader(http.StatusForbidden)
		}
	})
}
