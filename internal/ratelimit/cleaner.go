package ratelimit

import (
	"context"
	"log/slog"
	"time"
)

// RunCleanup drops idle in-memory buckets every interval until ctx is done.
// Redis keys need no sweeping; they expire after twice their window.
func RunCleanup(ctx context.Context, limiter *MemoryLimiter, interval, maxAge time.Duration, log *slog.Logger) {
	if limiter == nil || interval <= 0 {
		return
	}
	if log == nil {
		log = slog.Default()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("rate limit cleanup stopped", slog.String("reason", ctx.Err().Error()))
			return
		case <-ticker.C:
			if removed := limiter.Cleanup(maxAge); removed > 0 {
				log.Debug("rate limit buckets cleaned", slog.Int("buckets_removed", removed))
			}
		}
	}
}
