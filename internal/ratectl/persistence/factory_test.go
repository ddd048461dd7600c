package persistence

import (
	"context"
	"testing"
	"time"
)

func TestBuildLedgerDefaultNoop(t *testing.T) {
	l, err := BuildLedger("", DemoOptions{})
	if err != nil {
		t.Fatalf("unexpected: %v", err)
	}
	if l == nil {
		t.Fatalf("expected non-nil ledger")
	}
	if err := l.CommitBatch(context.Background(), []AdjustmentEntry{{Target: "k", Limit: 1}}); err != nil {
		t.Fatalf("commit failed: %v", err)
	}

	l2, err := BuildLedger("none", DemoOptions{})
	if err != nil || l2 == nil {
		t.Fatalf("unexpected: %v %v", l2, err)
	}
}

func TestBuildLedgerRedisLoggingAndReal(t *testing.T) {
	l, err := BuildLedger("redis", DemoOptions{RedisMarkerTTL: time.Hour})
	if err != nil {
		t.Fatalf("unexpected: %v", err)
	}
	if l == nil {
		t.Fatalf("nil ledger")
	}
	l2, err := BuildLedger("redis", DemoOptions{RedisAddr: "127.0.0.1:0"})
	if err != nil || l2 == nil {
		t.Fatalf("unexpected: %v %v", l2, err)
	}
}

func TestBuildLedgerKafka(t *testing.T) {
	l, err := BuildLedger("kafka", DemoOptions{KafkaTopic: "t"})
	if err != nil || l == nil {
		t.Fatalf("unexpected: %v %v", l, err)
	}
}

func TestBuildLedgerPostgresReturnsError(t *testing.T) {
	l, err := BuildLedger("postgres", DemoOptions{})
	if err == nil || l != nil {
		t.Fatalf("expected error for postgres adapter")
	}
}

func TestBuildLedgerUnknownAdapter(t *testing.T) {
	_, err := BuildLedger("does-not-exist", DemoOptions{})
	if err == nil {
		t.Fatalf("expected error for unknown adapter")
	}
}
