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

package scan

import (
	"sync"
	"sync/atomic"
	"time"
)

// managedScan wraps a Scan with a last-accessed timestamp, refreshed on
// every GetOrCreate and Get. The registry only records it; no method reads
// it back or reports idle scans.
type managedScan struct {
	scan         *Scan
	lastAccessed atomic.Int64 // unix nano
}

func newManagedScan(id string) *managedScan {
	m := &managedScan{scan: New(id)}
	m.lastAccessed.Store(time.Now().UnixNano())
	return m
}

func (m *managedScan) touch() {
	m.lastAccessed.Store(time.Now().UnixNano())
}

// Registry is the live set of scans the controller is tuning, keyed by
// target identifier. It is safe for concurrent use by many request
// goroutines at once.
type Registry struct {
	scans sync.Map // string -> *managedScan
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// GetOrCreate returns the Scan for id, creating and registering one in the
// Running state if this is the first time id has been seen. Mirrors the
// fast-path Load before the slow-path LoadOrStore: the common case (the
// scan already exists) never allocates a managedScan just to discard it.
func (r *Registry) GetOrCreate(id string) *Scan {
	if v, ok := r.scans.Load(id); ok {
		m := v.(*managedScan)
		m.touch()
		return m.scan
	}

	m := newManagedScan(id)
	actual, loaded := r.scans.LoadOrStore(id, m)
	am := actual.(*managedScan)
	if loaded {
		am.touch()
	}
	return am.scan
}

// Get returns the Scan for id, if one is registered.
func (r *Registry) Get(id string) (*Scan, bool) {
	v, ok := r.scans.Load(id)
	if !ok {
		return nil, false
	}
	m := v.(*managedScan)
	m.touch()
	return m.scan, true
}

// Delete removes id from the registry. It does not abort the scan; callers
// that want both should call Abort on the Scan first.
func (r *Registry) Delete(id string) {
	r.scans.Delete(id)
}

// ForEach invokes f for every registered scan. f must not block for long:
// it runs while sync.Map's internal range is in progress.
func (r *Registry) ForEach(f func(id string, s *Scan)) {
	r.scans.Range(func(key, value any) bool {
		m := value.(*managedScan)
		f(key.(string), m.scan)
		return true
	})
}

// ActiveCount returns the number of registered scans still in the Running
// state.
func (r *Registry) ActiveCount() int {
	n := 0
	r.ForEach(func(_ string, s *Scan) {
		if s.IsActive() {
			n++
		}
	})
	return n
}
