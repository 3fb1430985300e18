package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/oficina-bot/internal/bot/handlers"
	apperrors "github.com/Proton-105/oficina-bot/internal/errors"
	"github.com/Proton-105/oficina-bot/internal/i18n"
	"github.com/Proton-105/oficina-bot/internal/ratelimit"
	"github.com/Proton-105/oficina-bot/pkg/metrics"
)

// RateLimitMiddleware enforces the configured limits on both transports.
// Limiter failures let the request through.
type RateLimitMiddleware struct {
	limiter ratelimit.Limiter
	rules   *ratelimit.Rules
	tr      i18n.Translator
	log     *slog.Logger
}

func NewRateLimitMiddleware(limiter ratelimit.Limiter, rules *ratelimit.Rules, tr i18n.Translator, log *slog.Logger) *RateLimitMiddleware {
	if log == nil {
		log = slog.Default()
	}

	return &RateLimitMiddleware{
		limiter: limiter,
		rules:   rules,
		tr:      tr,
		log:     log,
	}
}

// Handle limits Telegram messages per user.
func (m *RateLimitMiddleware) Handle(next handlers.Handler) handlers.Handler {
	return func(c telebot.Context) error {
		sender := c.Sender()
		if sender == nil || m.rules.IsWhitelisted(sender.ID) {
			return next(c)
		}

		if res := m.check(context.Background(), ratelimit.ScopeMessage, strconv.FormatInt(sender.ID, 10)); res != nil {
			return c.Send(m.tr.T("bot.rate_limited"))
		}

		return next(c)
	}
}

// AllowQuery limits turns that may end up at the completion service.
func (m *RateLimitMiddleware) AllowQuery(ctx context.Context, userID int64) bool {
	if m.rules.IsWhitelisted(userID) {
		return true
	}
	return m.check(ctx, ratelimit.ScopeQuery, strconv.FormatInt(userID, 10)) == nil
}

// HTTP limits API requests per client IP.
func (m *RateLimitMiddleware) HTTP() gin.HandlerFunc {
	return func(c *gin.Context) {
		res := m.check(c.Request.Context(), ratelimit.ScopeHTTP, c.ClientIP())
		if res == nil {
			c.Next()
			return
		}

		retryAfter := res.RetryAfter(time.Now())
		appErr := apperrors.NewRateLimitError(retryAfter)
		metrics.RecordError(appErr.Code, string(appErr.Severity))

		c.Header("Retry-After", strconv.Itoa(retryAfter))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": appErr.UserMessage, "code": appErr.Code})
	}
}

// check returns the rejecting result, or nil when the request may proceed.
func (m *RateLimitMiddleware) check(ctx context.Context, scope ratelimit.Scope, subject string) *ratelimit.Result {
	if m.limiter == nil || !m.rules.Enabled() {
		return nil
	}

	limit, window, err := m.rules.Limit(scope)
	if err != nil || limit <= 0 {
		return nil
	}

	res, err := m.limiter.Check(ctx, ratelimit.Key(scope, subject), limit, window)
	switch {
	case errors.Is(err, ratelimit.ErrLimitExceeded) || (err == nil && !res.Allowed):
		m.log.WarnContext(ctx, "rate limit exceeded", slog.String("scope", string(scope)), slog.String("subject", subject))
		return res
	case err != nil:
		m.log.WarnContext(ctx, "rate limiter error", slog.String("scope", string(scope)), slog.Any("error", err))
	}

	return nil
}
