package util

import (
	"context"
	"errors"
	"time"
)

// RetryParams tunes RetryIf.
//
// Backoff is the wait before the second attempt and doubles after every
// further failure. Retryable decides whether an error is worth another
// attempt; nil retries every error that is not a context error.
type RetryParams struct {
	MaxTries  int
	Backoff   time.Duration
	Retryable func(error) bool
}

// RetryIf calls fn until it succeeds, params.MaxTries is reached, ctx is
// done or fn returns an error params.Retryable rejects. If MaxTries <= 0,
// fn is called once. Returns ctx.Err() if the context is canceled,
// otherwise the last error.
func RetryIf[T any](ctx context.Context, params RetryParams, fn func(context.Context) (T, error)) (T, error) {
	maxTries := params.MaxTries
	if maxTries <= 0 {
		maxTries = 1
	}
	wait := params.Backoff

	var lastErr error
	var zero T
	for i := 0; i < maxTries; i++ {
		if i > 0 && wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return zero, ctx.Err()
			case <-timer.C:
			}
			wait *= 2
		}
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return zero, err
		}
		lastErr = err
		if params.Retryable != nil && !params.Retryable(err) {
			return zero, err
		}
	}
	return zero, lastErr
}
