package middleware

import (
	"strconv"

	"dm-messenger/backend/pkg/metrics"

	"github.com/gin-gonic/gin"
)

// MetricsMiddleware counts completed requests by method, route and status.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.HTTPRequestsTotal.
			WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).
			Inc()
	}
}
