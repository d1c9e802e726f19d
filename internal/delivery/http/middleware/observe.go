package middleware

import (
	"strconv"
	"time"

	"github.com/gdugdh24/mpit2026-discovery/internal/logging"
	"github.com/gdugdh24/mpit2026-discovery/internal/metrics"
	"github.com/gin-gonic/gin"
)

// Observe records request latency and logs every request.
func Observe(log logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		elapsed := time.Since(start)

		metrics.HTTPRequestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).
			Observe(elapsed.Seconds())

		args := []any{
			"method", c.Request.Method,
			"route", route,
			"status", status,
			"duration_ms", elapsed.Milliseconds(),
		}
		if id, ok := ProfileID(c); ok {
			args = append(args, "profile_id", id)
		}
		if len(c.Errors) > 0 {
			args = append(args, "error", c.Errors.String())
		}

		switch {
		case status >= 500:
			log.Error(c.Request.Context(), "request failed", args...)
		case status >= 400:
			log.Warn(c.Request.Context(), "request rejected", args...)
		default:
			log.Debug(c.Request.Context(), "request", args...)
		}
	}
}
