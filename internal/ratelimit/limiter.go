// Package ratelimit implements sliding-window limits for Telegram users and
// HTTP clients, backed by Redis with an in-process fallback.
package ratelimit

import (
	"context"
	"errors"
	"math"
	"time"
)

// ErrLimitExceeded is returned by AdaptiveLimiter when a key is over its limit.
var ErrLimitExceeded = errors.New("rate limit exceeded")

// Result is the verdict for one hit.
type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// RetryAfter returns the whole seconds until the window frees up, at least one.
func (r *Result) RetryAfter(now time.Time) int {
	if r == nil {
		return 1
	}
	return max(int(math.Ceil(r.ResetAt.Sub(now).Seconds())), 1)
}

// Limiter counts a hit against key and reports whether it fits in limit per window.
// Base limiters report a denial through Result.Allowed with a nil error.
type Limiter interface {
	Check(ctx context.Context, key string, limit int, window time.Duration) (*Result, error)
}
