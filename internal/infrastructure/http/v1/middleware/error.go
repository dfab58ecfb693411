package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"partsflow/internal/core/apperror"
	appctx "partsflow/internal/core/context"
	"partsflow/pkg/logger"
)

// ErrorHandler middleware transforms errors into consistent JSON responses.
// Hides internal errors from clients while logging full details.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		// If response already written by handler, do not override it.
		if c.Writer.Written() {
			return
		}

		renderError(c, c.Errors.Last().Err)
	}
}

// renderError writes the JSON error body for err and returns its status.
func renderError(c *gin.Context, err error) int {
	ctx := c.Request.Context()

	if appErr, ok := apperror.AsAppError(err); ok {
		if appErr.Err != nil {
			logger.Error(ctx, "request error",
				"code", appErr.Code,
				"cause", appErr.Err,
			)
		}

		status := appErr.HTTPStatus
		if status == 0 {
			status = http.StatusInternalServerError
		}
		message := appErr.Message
		details := appErr.Details
		if status >= http.StatusInternalServerError {
			message = "Internal server error"
			details = map[string]any{"request_id": appctx.GetRequestID(ctx)}
		}

		c.AbortWithStatusJSON(status, gin.H{
			"code":    appErr.Code,
			"message": message,
			"details": details,
		})
		return status
	}

	// Unknown error - log and return generic message
	logger.Error(ctx, "unhandled error", "error", err)

	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
		"code":    apperror.CodeInternal,
		"message": "Internal server error",
		"details": map[string]any{
			"request_id": appctx.GetRequestID(ctx),
		},
	})
	return http.StatusInternalServerError
}
