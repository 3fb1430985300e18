package errors

import (
	"context"
	"errors"
	"time"
)

// RetryPolicy bounds how often and how patiently a retryable operation is repeated.
type RetryPolicy struct {
	Attempts int
	Initial  time.Duration
	Max      time.Duration
}

// DefaultRetry waits 200ms, 400ms and 800ms between four attempts.
var DefaultRetry = RetryPolicy{
	Attempts: 4,
	Initial:  200 * time.Millisecond,
	Max:      5 * time.Second,
}

// WithRetry runs fn under DefaultRetry.
func WithRetry(ctx context.Context, fn func() error) error {
	return DefaultRetry.Do(ctx, fn)
}

// Do runs fn until it succeeds, returns a non-retryable error, or the attempts
// run out. Backoff waits are cut short by ctx.
func (p RetryPolicy) Do(ctx context.Context, fn func() error) error {
	if fn == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	attempts := max(p.Attempts, 1)

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if err = fn(); err == nil || !IsRetryable(err) || attempt == attempts {
			return err
		}

		timer := time.NewTimer(p.backoff(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return err
}

// backoff doubles the wait after every failed attempt, up to Max.
func (p RetryPolicy) backoff(attempt int) time.Duration {
	wait := p.Initial << (attempt - 1)
	if p.Max > 0 && (wait > p.Max || wait <= 0) {
		return p.Max
	}
	return wait
}

// IsRetryable reports whether err is an AppError marked retryable.
func IsRetryable(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr != nil && appErr.Retryable
}
