package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/policy-auditor/policy-auditor/internal/telemetry"
)

// MetricsMiddleware records http_requests_total and
// http_request_duration_seconds for every request.
//
// The path label is the matched route template from c.FullPath() (e.g.
// /admin/users/:id/password). Unmatched requests use "<no-route>" to keep
// label cardinality bounded.
//
// Register after gin.Recovery() so statuses written by recovery are captured.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "<no-route>"
		}
		method := c.Request.Method
		telemetry.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
		telemetry.HTTPRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}
