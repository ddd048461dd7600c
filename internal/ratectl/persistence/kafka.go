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
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// KafkaProducer is a minimal abstraction over a Kafka client.
//
// Requirements:
//   - Idempotent producer ON (enable.idempotence=true)
//   - Use CommitID as the Kafka message key so broker dedup and per-key
//     ordering are preserved
//   - Acks=all is recommended
type KafkaProducer interface {
	Produce(ctx context.Context, topic string, key []byte, value []byte, headers map[string]string) error
}

// KafkaLedger publishes adjustments as Kafka messages (a write-ahead log of
// rate-limit decisions). This ledger does not apply state locally; it
// delegates materialization to downstream consumers, which must track
// last-applied CommitID per target or enforce a monotonic FencingToken.
type KafkaLedger struct {
	producer       KafkaProducer
	topic          string
	defaultTimeout time.Duration
}

// NewKafkaLedger returns a ledger publishing to topic via p.
func NewKafkaLedger(p KafkaProducer, topic string) *KafkaLedger {
	return &KafkaLedger{producer: p, topic: topic, defaultTimeout: 10 * time.Second}
}

// AdjustmentMessage is the serialized payload sent to Kafka.
type AdjustmentMessage struct {
	Target       string `json:"target"`
	Limit        int64  `json:"limit"`
	CommitID     string `json:"commit_id"`
	FencingToken *int64 `json:"fencing_token,omitempty"`
	TsUnixMs     int64  `json:"ts_unix_ms"`
}

func (k *KafkaLedger) CommitBatch(ctx context.Context, entries []AdjustmentEntry) error {
	if len(entries) == 0 {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Deadline(); !ok && k.defaultTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, k.defaultTimeout)
		defer cancel()
	}
	nowMs := time.Now().UnixMilli()
	for _, e := range entries {
		if e.CommitID == "" {
			return errors.New("AdjustmentEntry.CommitID must be set")
		}
		msg := AdjustmentMessage{
			Target:       e.Target,
			Limit:        e.Limit,
			CommitID:     e.CommitID,
			FencingToken: e.FencingToken,
			TsUnixMs:     nowMs,
		}
		b, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("marshal kafka message: %w", err)
		}
		headers := map[string]string{"content-type": "application/json"}
		if err := k.producer.Produce(ctx, k.topic, []byte(e.CommitID), b, headers); err != nil {
			return fmt.Errorf("kafka produce target=%s commit=%s: %w", e.Target, e.CommitID, err)
		}
	}
	return nil
}
