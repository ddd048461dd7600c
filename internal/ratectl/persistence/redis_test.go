package persistence

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"
)

type fakeRedisEvaler struct {
	calls []struct {
		script string
		keys   []string
		args   []interface{}
	}
	returnErr error
}

func (f *fakeRedisEvaler) Eval(ctx context.Context, script string, keys []string, args ...interface{}) (interface{}, error) {
	if f.returnErr != nil {
		return nil, f.returnErr
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	f.calls = append(f.calls, struct {
		script string
		keys   []string
		args   []interface{}
	}{script: script, keys: append([]string{}, keys...), args: append([]interface{}{}, args...)})
	return int64(1), nil
}

func TestRedisKeysHelpers(t *testing.T) {
	if got, want := RedisRatesKey("target1"), "rates:target1"; got != want {
		t.Fatalf("got %q want %q", got, want)
	}
	if got, want := RedisCommitMarkerKey("t", "c"), "commit:t:c"; got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestNewRedisLedgerDefaultTTL(t *testing.T) {
	r := NewRedisLedger(&fakeRedisEvaler{}, 0)
	if r.markerTTL != 24*time.Hour {
		t.Fatalf("expected default TTL 24h, got %v", r.markerTTL)
	}
}

func TestRedisLedgerCommitBatchEmpty(t *testing.T) {
	r := NewRedisLedger(&fakeRedisEvaler{}, time.Hour)
	if err := r.CommitBatch(context.Background(), nil); err != nil {
		t.Fatalf("unexpected: %v", err)
	}
}

func TestRedisLedgerCommitBatchSuccess(t *testing.T) {
	fake := &fakeRedisEvaler{}
	r := NewRedisLedger(fake, 0)
	entries := []AdjustmentEntry{{Target: "example.com", Limit: 25, CommitID: "id-1"}}
	if err := r.CommitBatch(context.Background(), entries); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fake.calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(fake.calls))
	}
	c := fake.calls[0]
	if c.script == "" {
		t.Fatalf("expected lua script to be non-empty")
	}
	wantKeys := []string{RedisRatesKey("example.com"), RedisCommitMarkerKey("example.com", "id-1")}
	if !reflect.DeepEqual(c.keys, wantKeys) {
		t.Fatalf("keys mismatch: got %v want %v", c.keys, wantKeys)
	}
	if len(c.args) != 2 {
		t.Fatalf("expected 2 args, got %d", len(c.args))
	}
}

func TestRedisLedgerCommitBatchCommitIDRequired(t *testing.T) {
	r := NewRedisLedger(&fakeRedisEvaler{}, time.Second)
	err := r.CommitBatch(context.Background(), []AdjustmentEntry{{Target: "k"}})
	if err == nil || err.Error() != "AdjustmentEntry.CommitID must be set" {
		t.Fatalf("expected commit id error, got: %v", err)
	}
}

func TestRedisLedgerCommitBatchContextCanceled(t *testing.T) {
	fake := &fakeRedisEvaler{}
	r := NewRedisLedger(fake, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := r.CommitBatch(ctx, []AdjustmentEntry{{Target: "k", Limit: 1, CommitID: "c"}})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRedisLedgerCommitBatchClientErrorPropagates(t *testing.T) {
	fake := &fakeRedisEvaler{returnErr: errors.New("boom")}
	r := NewRedisLedger(fake, time.Second)
	err := r.CommitBatch(context.Background(), []AdjustmentEntry{{Target: "k", Limit: 1, CommitID: "c"}})
	if err == nil || err.Error() != "redis eval target=k commit=c: boom" {
		t.Fatalf("unexpected error: %v", err)
	}
}
