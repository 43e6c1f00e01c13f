package logger

import (
	"time"

	"github.com/gin-gonic/gin"
)

// Middleware returns a Gin middleware function that logs requests
func Middleware(logger *Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		reqLogger := logger.WithRequestID(c.GetString("requestID"))
		reqLogger.Info("request completed",
			"method", method,
			"path", path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
		)

		for _, err := range c.Errors {
			reqLogger.Error("request error",
				"method", method,
				"path", path,
				"error", err.Err.Error(),
			)
		}
	}
}
