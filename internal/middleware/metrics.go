package middleware

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/oficina-bot/internal/bot/handlers"
	"github.com/Proton-105/oficina-bot/pkg/metrics"
)

// Metrics measures execution time and status for bot handlers, reporting them to Prometheus.
func Metrics(next handlers.Handler) handlers.Handler {
	return func(c telebot.Context) error {
		start := time.Now()
		err := next(c)

		status := "ok"
		if err != nil {
			status = "error"
		}

		metrics.RecordCommand(commandName(c.Text()), status, time.Since(start))

		return err
	}
}

// commandName keeps label cardinality bounded: free text is never a label.
func commandName(text string) string {
	if !strings.HasPrefix(text, "/") {
		return "text"
	}
	if i := strings.IndexAny(text, " @"); i > 0 {
		text = text[:i]
	}
	return text
}

// HTTPMetrics records request count and latency per route template.
func HTTPMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		metrics.RecordHTTPRequest(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
