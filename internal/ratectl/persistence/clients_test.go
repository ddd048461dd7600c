package persistence

import (
	"context"
	"testing"
	"time"
)

func TestLoggingRedisEvalerEval(t *testing.T) {
	lr := LoggingRedisEvaler{}
	out, err := lr.Eval(context.Background(), "return 1", []string{"k"}, 1, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.(int64) != 1 {
		t.Fatalf("unexpected eval result: %v", out)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = lr.Eval(ctx, "", nil)
	if err == nil {
		t.Fatalf("expected error for canceled context")
	}
}

func TestNewGoRedisEvaler(t *testing.T) {
	g := NewGoRedisEvaler("127.0.0.1:0")
	if g == nil {
		t.Fatalf("expected non-nil GoRedisEvaler")
	}
}

func TestLoggingKafkaProducerProduce(t *testing.T) {
	kp := LoggingKafkaProducer{}
	err := kp.Produce(context.Background(), "topic", []byte("k"), []byte("v"), map[string]string{"a": "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	<-ctx.Done()
	cancel()
	err = kp.Produce(ctx, "topic", nil, nil, nil)
	if err == nil {
		t.Fatalf("expected error for canceled context")
	}
}

func TestTruncate(t *testing.T) {
	short := truncate("hello", 10)
	if short != "hello" {
		t.Fatalf("unexpected short truncate: %q", short)
	}
	long := truncate("abcdefghijklmnopqrstuvwxyz", 5)
	if long != "abcde..." {
		t.Fatalf("unexpected long truncate: %q", long)
	}
}
