package middleware

import (
	"time"

	"github.com/gdugdh24/mpit2026-discovery/internal/usecase/usage"
	"github.com/gin-gonic/gin"
)

// UsageDay resolves the viewer's local calendar day from the X-Timezone header
// (IANA name, UTC when absent or unknown) and stores it under ContextUsageDay.
func UsageDay(now func() time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		loc := usage.LoadLocation(c.GetHeader(TimezoneHeader))
		c.Set(ContextUsageDay, usage.Day(now(), loc))
		c.Next()
	}
}

// Day returns the usage day set by UsageDay, or today in UTC.
func Day(c *gin.Context) string {
	if day := c.GetString(ContextUsageDay); day != "" {
		return day
	}
	return usage.Day(time.Now(), time.UTC)
}
