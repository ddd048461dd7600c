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

// Package config holds the scan-wide knobs a Requester is built from, and
// the flag wiring that turns command-line input into one.
package config

import (
	"flag"
	"time"

	"ratectl/internal/ratectl/policy"
)

// Config is the set of per-scan knobs that shape how a Requester behaves.
type Config struct {
	RequesterPolicy policy.RequesterPolicy
	Timeout         int // seconds; feeds the cooldown window
	Threads         int
	RateLimit       int64 // requests/sec, 0 = unlimited
	AutoTune        bool
	AutoBail        bool
	NoRecursion     bool
	ExtractLinks    bool
}

// ShouldTune reports whether the requester must evaluate triggers and call
// tune on this config.
func (c Config) ShouldTune() bool {
	return c.AutoTune || c.RateLimit > 0
}

// WaitTime reports the cooldown window this config implies, mirroring
// policy.New's waitTimeMS derivation.
func (c Config) WaitTime() time.Duration {
	return time.Duration(c.Timeout) * 500 * time.Millisecond
}

// RegisterFlags binds Config's fields onto fs and returns cfg along with a
// resolve function that must be called after fs.Parse to finish populating
// cfg (the requester_policy flag is a string on the command line but an
// enum in Config).
func RegisterFlags(fs *flag.FlagSet) (*Config, func()) {
	cfg := &Config{}

	policyName := fs.String("requester_policy", "default", "Rate control policy: default|auto-tune|auto-bail")
	fs.IntVar(&cfg.Timeout, "timeout", 7, "HTTP request timeout in seconds; also sizes the cooldown window (timeout*500ms)")
	fs.IntVar(&cfg.Threads, "threads", 50, "Number of concurrent request workers per scan")
	fs.Int64Var(&cfg.RateLimit, "rate_limit", 0, "Requests/sec ceiling; 0 disables the limiter entirely")
	fs.BoolVar(&cfg.AutoTune, "auto_tune", false, "Automatically back off the rate limit on sustained errors")
	fs.BoolVar(&cfg.AutoBail, "auto_bail", false, "Automatically cancel a scan on sustained errors")
	fs.BoolVar(&cfg.NoRecursion, "no_recursion", false, "Disable recursion into discovered directories")
	fs.BoolVar(&cfg.ExtractLinks, "extract_links", false, "Extract links from non-redirect responses")

	resolve := func() {
		switch *policyName {
		case "auto-tune":
			cfg.RequesterPolicy = policy.AutoTune
		case "auto-bail":
			cfg.RequesterPolicy = policy.AutoBail
		default:
			cfg.RequesterPolicy = policy.Default
		}
	}
	return cfg, resolve
}
