package ratelimit

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	rateLimitChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ratelimit_checks_total",
		Help: "Rate limit checks by backend and result.",
	}, []string{"backend", "result"})

	rateLimitBackendErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ratelimit_backend_errors_total",
		Help: "Primary limiter failures that forced the in-memory fallback.",
	})
)

// AdaptiveLimiter asks the primary (Redis) limiter and, when it fails, a
// stricter in-memory one. A denied check returns ErrLimitExceeded.
type AdaptiveLimiter struct {
	primary  Limiter
	fallback Limiter
	log      *slog.Logger
}

func NewAdaptiveLimiter(primary, fallback Limiter, log *slog.Logger) *AdaptiveLimiter {
	if log == nil {
		log = slog.Default()
	}

	return &AdaptiveLimiter{
		primary:  primary,
		fallback: fallback,
		log:      log,
	}
}

func (a *AdaptiveLimiter) Check(ctx context.Context, key string, limit int, window time.Duration) (*Result, error) {
	result, err := a.primary.Check(ctx, key, limit, window)
	if err == nil {
		return a.verdict("redis", result)
	}

	rateLimitBackendErrorsTotal.Inc()
	a.log.WarnContext(ctx, "primary rate limiter failed, using in-memory fallback", slog.String("key", key), slog.Any("error", err))

	// each replica counts on its own, so halve the budget
	result, err = a.fallback.Check(ctx, key, max(limit/2, 1), window)
	if err != nil {
		return nil, err
	}

	return a.verdict("memory", result)
}

func (a *AdaptiveLimiter) verdict(backend string, result *Result) (*Result, error) {
	if !result.Allowed {
		rateLimitChecksTotal.WithLabelValues(backend, "rejected").Inc()
		return result, ErrLimitExceeded
	}

	rateLimitChecksTotal.WithLabelValues(backend, "allowed").Inc()
	return result, nil
}
