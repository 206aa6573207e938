package fetch

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"wbledger/internal/client/wb"
)

var testBackoff = []time.Duration{time.Millisecond, time.Millisecond}

func rateLimitErr() error {
	return &wb.APIError{Status: http.StatusTooManyRequests, Body: "slow down"}
}

func TestRetryRateLimited_Exhausted(t *testing.T) {
	calls := 0
	exhausted, err := retryRateLimited(context.Background(), testBackoff, func() error {
		calls++
		return rateLimitErr()
	})
	if !exhausted {
		t.Fatalf("exhausted=false")
	}
	if !wb.IsRateLimited(err) {
		t.Fatalf("err=%v want rate limited", err)
	}
	if calls != len(testBackoff)+1 {
		t.Fatalf("calls=%d want %d", calls, len(testBackoff)+1)
	}
}

func TestRetryRateLimited_RecoversMidSequence(t *testing.T) {
	calls := 0
	exhausted, err := retryRateLimited(context.Background(), testBackoff, func() error {
		calls++
		if calls < 2 {
			return rateLimitErr()
		}
		return nil
	})
	if exhausted || err != nil {
		t.Fatalf("exhausted=%v err=%v", exhausted, err)
	}
	if calls != 2 {
		t.Fatalf("calls=%d want 2", calls)
	}
}

func TestRetryRateLimited_OtherErrorsPassThrough(t *testing.T) {
	calls := 0
	boom := errors.New("boom")
	exhausted, err := retryRateLimited(context.Background(), testBackoff, func() error {
		calls++
		return boom
	})
	if exhausted {
		t.Fatalf("exhausted=true for non-429 error")
	}
	if !errors.Is(err, boom) {
		t.Fatalf("err=%v want boom", err)
	}
	if calls != 1 {
		t.Fatalf("calls=%d want 1, non-429 errors must not retry", calls)
	}
}

func TestRetryRateLimited_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := retryRateLimited(ctx, testBackoff, func() error {
		return rateLimitErr()
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err=%v want context.Canceled", err)
	}
}
