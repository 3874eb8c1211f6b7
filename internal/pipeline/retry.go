package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/dgallion1/cvparse/internal/extract"
)

const MaxRetries = 3

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	var retryErr *extract.RetryableError
	return errors.As(err, &retryErr)
}

// Backoff returns a duration for attempt n (0-indexed) with up to 50% jitter,
// capped at 30s before jitter.
func Backoff(attempt int) time.Duration {
	base := min(time.Duration(1<<uint(attempt))*time.Second, 30*time.Second)
	return base + time.Duration(rand.Int64N(int64(base)/2))
}

// retry calls fn up to MaxRetries times while it fails with a retryable
// error, sleeping wait(attempt) in between.
func retry[T any](ctx context.Context, log *slog.Logger, wait func(int) time.Duration, fn func() (T, error)) (T, error) {
	var (
		out T
		err error
	)
	for attempt := range MaxRetries {
		out, err = fn()
		if err == nil || !IsRetryable(err) || attempt == MaxRetries-1 {
			return out, err
		}
		log.Warn("retryable llm error", "attempt", attempt, "error", err)
		select {
		case <-time.After(wait(attempt)):
		case <-ctx.Done():
			return out, ctx.Err()
		}
	}
	return out, err
}
