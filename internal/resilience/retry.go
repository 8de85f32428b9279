// Package resilience provides a generic retry helper used to open
// sources whose backing storage may not be immediately visible (e.g. a
// shared filesystem mount that lags slightly behind a writer process).
package resilience

import (
	"context"
	"math/rand"
	"time"

	"go.opentelemetry.io/otel"
)

// Retry executes fn with exponential backoff and full jitter, up to
// attempts times. It is meant for the open/connect step of a resource,
// never for steady-state record processing — mid-stream parse errors are
// the caller's job to skip, not retry.
func Retry[T any](ctx context.Context, attempts int, delay time.Duration, fn func() (T, error)) (T, error) {
	var zero T
	if attempts <= 0 {
		return zero, nil
	}

	meter := otel.Meter("crgp")
	attemptCounter, _ := meter.Int64Counter("crgp_resilience_retry_attempts_total")
	successCounter, _ := meter.Int64Counter("crgp_resilience_retry_success_total")
	failCounter, _ := meter.Int64Counter("crgp_resilience_retry_fail_total")

	cur := delay
	var lastErr error
	for i := 0; i < attempts; i++ {
		v, err := fn()
		attemptCounter.Add(ctx, 1)
		if err == nil {
			successCounter.Add(ctx, 1)
			return v, nil
		}
		lastErr = err
		if i == attempts-1 {
			break
		}
		if cur > 60*time.Second {
			cur = 60 * time.Second
		}
		sleep := time.Duration(rand.Int63n(int64(cur) + 1))
		select {
		case <-ctx.Done():
			failCounter.Add(ctx, 1)
			return zero, ctx.Err()
		case <-time.After(sleep):
		}
		cur *= 2
	}
	failCounter.Add(ctx, 1)
	return zero, lastErr
}
