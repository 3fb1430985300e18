package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Proton-105/oficina-bot/internal/middleware"
)

const healthTimeout = 3 * time.Second

// HealthChecker reports per-component status; "OK" means healthy.
type HealthChecker interface {
	Check(ctx context.Context) map[string]string
}

type RouterOptions struct {
	Handler   *Handler
	Health    HealthChecker
	RateLimit *middleware.RateLimitMiddleware
	// Webhook receives Telegram updates when the bot runs in webhook mode.
	Webhook http.Handler
	Logger  *slog.Logger
}

// NewRouter assembles the gin engine. Wrap it with logger.Middleware so
// requests carry a correlation id.
func NewRouter(opts RouterOptions) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(opts.Logger))
	router.Use(middleware.HTTPMetrics())

	router.GET("/health", healthHandler(opts.Health))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if opts.Webhook != nil {
		router.POST("/telegram/webhook", gin.WrapH(opts.Webhook))
	}

	api := router.Group("/api")
	if opts.RateLimit != nil {
		api.Use(opts.RateLimit.HTTP())
	}
	api.POST("/ai/consulta", opts.Handler.Query)

	return router
}

func healthHandler(checker HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if checker == nil {
			c.JSON(http.StatusOK, gin.H{"status": "healthy"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		defer cancel()

		components := checker.Check(ctx)
		status, code := "healthy", http.StatusOK
		for _, result := range components {
			if result != "OK" {
				status, code = "unhealthy", http.StatusServiceUnavailable
				break
			}
		}

		c.JSON(code, gin.H{"status": status, "components": components})
	}
}
