package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"smartfilter/pkg/logger"
)

// Logger middleware logs HTTP requests with timing and status.
// The request-scoped logger is stored in the request context so the
// compiler's debug output carries the same trace fields.
func Logger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		reqLog := log.WithContext(c.Request.Context())
		c.Request = c.Request.WithContext(logger.WithLogger(c.Request.Context(), reqLog))

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		reqLog.Infow("http request",
			"method", c.Request.Method,
			"path", path,
			"query", query,
			"status", status,
			"latency_ms", latency.Milliseconds(),
			"client_ip", c.ClientIP(),
			"user_agent", c.Request.UserAgent(),
			"error", c.Errors.ByType(gin.ErrorTypePrivate).String(),
		)
	}
}
