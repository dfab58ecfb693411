package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	appctx "partsflow/internal/core/context"
	"partsflow/pkg/logger"
)

// Logger middleware logs HTTP requests with timing and status.
// Health probes are logged at debug level.
func Logger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		ctx := c.Request.Context()
		status := c.Writer.Status()
		fields := []any{
			"method", c.Request.Method,
			"path", path,
			"query", query,
			"status", status,
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
			"user_id", appctx.GetUserID(ctx),
		}
		if errs := c.Errors.ByType(gin.ErrorTypePrivate).String(); errs != "" {
			fields = append(fields, "error", errs)
		}

		l := log.WithContext(ctx)
		switch {
		case strings.HasPrefix(path, "/health"):
			l.Debugw("http request", fields...)
		case status >= 500:
			l.Errorw("http request", fields...)
		default:
			l.Infow("http request", fields...)
		}
	}
}
