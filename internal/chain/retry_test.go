package chain

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRetryLogsEachFailedAttempt(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	r := Retry{Retries: 3, Backoff: time.Millisecond, Logger: zap.New(core)}

	calls := 0
	err := r.Do(context.Background(), "dial rpc", func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("unavailable")
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Fatalf("calls=%d err=%v", calls, err)
	}
	if got := logs.FilterMessage("attempt failed").Len(); got != 2 {
		t.Fatalf("expected 2 failed attempts logged, got %d", got)
	}
	entry := logs.FilterMessage("connected after retry").All()
	if len(entry) != 1 || entry[0].ContextMap()["attempt"] != int64(3) {
		t.Fatalf("expected success on attempt 3 to be logged, got %v", entry)
	}
}

func TestRetryGivesUp(t *testing.T) {
	calls := 0
	boom := errors.New("boom")
	err := Retry{Retries: 1, Backoff: time.Millisecond}.Do(context.Background(), "dial postgres", func(context.Context) error {
		calls++
		return boom
	})
	if !errors.Is(err, boom) || calls != 2 {
		t.Fatalf("calls=%d err=%v", calls, err)
	}
	if !strings.Contains(err.Error(), "dial postgres: giving up after 2 attempts") {
		t.Fatalf("unexpected error text %q", err)
	}
}

func TestRetryStopsOnContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Retry{Retries: 5, Backoff: time.Hour}.Do(ctx, "dial", func(context.Context) error {
		return errors.New("refused")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}

	calls := 0
	err = Retry{Retries: 5, Backoff: time.Millisecond}.Do(context.Background(), "dial", func(context.Context) error {
		calls++
		return context.DeadlineExceeded
	})
	if !errors.Is(err, context.DeadlineExceeded) || calls != 1 {
		t.Fatalf("context errors must not be retried: calls=%d err=%v", calls, err)
	}
}
