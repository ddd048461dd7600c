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

package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// RedisEvaler abstracts the minimal surface needed from a Redis client.
// Implementations may wrap github.com/redis/go-redis/v9 (Cmdable.Eval) or
// any equivalent.
type RedisEvaler interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) (interface{}, error)
}

// RedisLedger applies adjustments idempotently using a Lua script:
//  1. SETNX commit:<target>:<commit_id> 1
//  2. If set -> HSET rates:<target> limit <limit>
//  3. EXPIRE the marker (TTL) for leak protection
//
// If SETNX fails (already applied), returns OK and makes no changes.
type RedisLedger struct {
	client    RedisEvaler
	markerTTL time.Duration
}

// NewRedisLedger returns a ledger with the given client and marker TTL.
// markerTTL guards against unbounded growth of commit markers; choose a
// duration comfortably larger than your maximum retry window.
func NewRedisLedger(client RedisEvaler, markerTTL time.Duration) *RedisLedger {
	if markerTTL <= 0 {
		markerTTL = 24 * time.Hour
	}
	return &RedisLedger{client: client, markerTTL: markerTTL}
}

// redisLuaScript performs the idempotent update. It returns 1 if applied, 0
// if already applied.
const redisLuaScript = `
local ratesKey = KEYS[1]
local markerKey = KEYS[2]
local limit = tonumber(ARGV[1])
local ttlSeconds = tonumber(ARGV[2])
local set = redis.call('SETNX', markerKey, 1)
if set == 1 then
  redis.call('HSET', ratesKey, 'limit', limit)
  if ttlSeconds and ttlSeconds > 0 then
    redis.call('EXPIRE', markerKey, ttlSeconds)
  end
  return 1
else
  return 0
end
`

// Keys layout helpers (public for interoperability with other components).
func RedisRatesKey(target string) string { return fmt.Sprintf("rates:%s", target) }
func RedisCommitMarkerKey(target, commitID string) string {
	return fmt.Sprintf("commit:%s:%s", target, commitID)
}

// CommitBatch applies entries using one EVAL per entry to reduce RTT via
// server-side scripting. Callers that need pipelining can wrap batching
// externally.
func (r *RedisLedger) CommitBatch(ctx context.Context, entries []AdjustmentEntry) error {
	if len(entries) == 0 {
		return nil
	}
	for _, e := range entries {
		if e.CommitID == "" {
			return errors.New("AdjustmentEntry.CommitID must be set")
		}
		keys := []string{RedisRatesKey(e.Target), RedisCommitMarkerKey(e.Target, e.CommitID)}
		args := []interface{}{e.Limit, int(r.markerTTL.Seconds())}
		if _, err := r.client.Eval(ctx, redisLuaScript, keys, args...); err != nil {
			return fmt.Errorf("redis eval target=%s commit=%s: %w", e.Target, e.CommitID, err)
		}
	}
	return nil
}
