package fetch

import (
	"context"
	"time"

	"wbledger/internal/client/wb"
)

// rateLimitBackoff is the shared backoff sequence for 429 responses. Every
// call site that exhausts it degrades to an empty contribution instead of
// failing the report.
var rateLimitBackoff = []time.Duration{
	5 * time.Second,
	10 * time.Second,
	20 * time.Second,
	40 * time.Second,
	80 * time.Second,
}

// retryRateLimited runs fn, sleeping through delays on each 429. It returns
// exhausted=true when the whole sequence was spent on 429s; any other error
// is returned as-is without retrying.
func retryRateLimited(ctx context.Context, delays []time.Duration, fn func() error) (bool, error) {
	if len(delays) == 0 {
		delays = rateLimitBackoff
	}
	err := fn()
	if err == nil || !wb.IsRateLimited(err) {
		return false, err
	}
	for _, delay := range delays {
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(delay):
		}
		err = fn()
		if err == nil || !wb.IsRateLimited(err) {
			return false, err
		}
	}
	return true, err
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
