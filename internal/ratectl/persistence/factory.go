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
	"errors"
	"fmt"
	"time"
)

// BuildLedger constructs a Ledger for the demo based on a string selector.
// Supported adapters:
//   - "none": no-op ledger (default)
//   - "redis": idempotent Redis adapter, real client if RedisAddr is set,
//     otherwise a logging client
//   - "kafka": idempotent Kafka adapter using a logging producer (no broker)
//   - "postgres": not wired for the demo binary (returns an error to avoid
//     hidden nil *sql.DB usage)
func BuildLedger(adapter string, opts DemoOptions) (Ledger, error) {
	switch adapter {
	case "", "none":
		return NoopLedger{}, nil
	case "redis":
		ttl := opts.RedisMarkerTTL
		if ttl <= 0 {
			ttl = 24 * time.Hour
		}
		var evaler RedisEvaler
		if opts.RedisAddr != "" {
			evaler = NewGoRedisEvaler(opts.RedisAddr)
		} else {
			evaler = LoggingRedisEvaler{}
		}
		return NewRedisLedger(evaler, ttl), nil
	case "kafka":
		topic := opts.KafkaTopic
		if topic == "" {
			topic = "ratectl-adjustments"
		}
		return NewKafkaLedger(LoggingKafkaProducer{}, topic), nil
	case "postgres":
		return nil, errors.New("postgres adapter is not enabled in the demo build; please wire a real *sql.DB and create tables")
	default:
		return nil, fmt.Errorf("unknown persistence adapter: %s", adapter)
	}
}
