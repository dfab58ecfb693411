// Package middleware provides HTTP middleware components.
package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"partsflow/internal/core/apperror"
	appctx "partsflow/internal/core/context"
	"partsflow/pkg/logger"
)

// Recovery turns a handler panic into a 500. The log entry carries the
// stack and the caller; the client only gets the request id.
// http.ErrAbortHandler is re-raised for net/http to handle.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
				panic(rec)
			}

			ctx := c.Request.Context()
			logger.FromContext(ctx).Errorw("handler panicked", panicFields(c, rec)...)

			_ = c.Error(
				apperror.NewInternal(fmt.Errorf("panic: %v", rec)).
					WithDetail("request_id", appctx.GetRequestID(ctx)),
			)
			c.Abort()
		}()
		c.Next()
	}
}

// panicFields describes the failed request. trace_id, request_id and
// user_id are added by the context logger.
func panicFields(c *gin.Context, rec any) []any {
	route := c.FullPath()
	if route == "" {
		route = c.Request.URL.Path
	}
	return []any{
		"panic", fmt.Sprint(rec),
		"method", c.Request.Method,
		"route", route,
		"actor", appctx.Actor(c.Request.Context()),
		"stack", string(debug.Stack()),
	}
}
