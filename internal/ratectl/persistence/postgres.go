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
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Postgres schema (reference):
//
// CREATE TABLE IF NOT EXISTS rate_ceilings (
//   target TEXT PRIMARY KEY,
//   limit_value BIGINT NOT NULL,
//   last_token BIGINT
// );
//
// CREATE TABLE IF NOT EXISTS applied_adjustments (
//   commit_id TEXT PRIMARY KEY,
//   target TEXT NOT NULL,
//   limit_value BIGINT NOT NULL,
//   ts TIMESTAMPTZ NOT NULL DEFAULT now()
// );
// CREATE INDEX IF NOT EXISTS idx_applied_adjustments_target ON applied_adjustments(target);
//
// Idempotent transaction per entry (the update runs before the marker
// insert, so NOT EXISTS only holds for a commit_id not yet applied):
//   UPDATE rate_ceilings
//     SET limit_value = $3
//     WHERE target = $2 AND NOT EXISTS (
//       SELECT 1 FROM applied_adjustments WHERE commit_id = $1
//     );
//   INSERT INTO applied_adjustments(commit_id, target, limit_value) VALUES ($1,$2,$3)
//     ON CONFLICT DO NOTHING;

// PostgresLedger applies adjustments idempotently using the pattern above.
// It can optionally auto-create missing rate_ceilings rows.
type PostgresLedger struct {
	db                *sql.DB
	createMissingRows bool
	defaultTimeout    time.Duration
}

// NewPostgresLedger creates a ledger. If createMissingRows is true, the
// ledger inserts rate_ceilings rows with limit_value=0 on first sight.
func NewPostgresLedger(db *sql.DB, createMissingRows bool) *PostgresLedger {
	return &PostgresLedger{db: db, createMissingRows: createMissingRows, defaultTimeout: 10 * time.Second}
}

// CommitBatch applies the provided entries within a single transaction.
// Each entry remains idempotent: if the commit_id already exists, its
// effects are skipped.
func (p *PostgresLedger) CommitBatch(ctx context.Context, entries []AdjustmentEntry) error {
	if len(entries) == 0 {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Deadline(); !ok && p.defaultTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.defaultTimeout)
		defer cancel()
	}

	tx, err := p.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if p.createMissingRows {
		for _, e := range entries {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO rate_ceilings(target, limit_value) VALUES ($1, 0) ON CONFLICT DO NOTHING`, e.Target); err != nil {
				return fmt.Errorf("insert rate_ceilings(%s): %w", e.Target, err)
			}
		}
	}

	for _, e := range entries {
		if e.CommitID == "" {
			return errors.New("AdjustmentEntry.CommitID must be set")
		}
		if e.FencingToken != nil {
			if _, err := tx.ExecContext(ctx,
				`UPDATE rate_ceilings SET last_token = GREATEST(COALESCE(last_token, $3), $3)
                  WHERE target = $1 AND NOT EXISTS (SELECT 1 FROM applied_adjustments WHERE commit_id = $2) AND (last_token IS NULL OR $3 >= last_token)`,
				e.Target, e.CommitID, *e.FencingToken); err != nil {
				return fmt.Errorf("update last_token(%s): %w", e.Target, err)
			}
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE rate_ceilings SET limit_value = $3
               WHERE target = $2 AND NOT EXISTS (SELECT 1 FROM applied_adjustments WHERE commit_id = $1)`,
			e.CommitID, e.Target, e.Limit); err != nil {
			return fmt.Errorf("update rate_ceilings(%s): %w", e.Target, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO applied_adjustments(commit_id, target, limit_value) VALUES ($1,$2,$3) ON CONFLICT DO NOTHING`,
			e.CommitID, e.Target, e.Limit); err != nil {
			return fmt.Errorf("insert applied_adjustments(%s): %w", e.CommitID, err)
		}
	}

	return tx.Commit()
}
