// Package middleware provides HTTP middleware components.
package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"smartfilter/internal/core/apperror"
	"smartfilter/internal/infrastructure/http/v1/dto"
	"smartfilter/pkg/logger"
)

// Recovery turns a panic in a handler (or in a storage backend it called)
// into an internal error. The stack goes to the log only.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}

			cause, ok := r.(error)
			if !ok {
				cause = fmt.Errorf("%v", r)
			}

			logger.Error(c.Request.Context(), "panic recovered",
				"method", c.Request.Method,
				"path", c.FullPath(),
				"entity", c.Param("entity"),
				"error", cause,
				"stack", string(debug.Stack()),
			)

			// The panic unwound past ErrorHandler, so the response is written here.
			appErr := apperror.NewInternal(fmt.Errorf("panic: %w", cause)).
				WithDetail("request_id", c.GetString("request_id"))
			_ = c.Error(appErr)
			if c.Writer.Written() {
				c.Abort()
				return
			}
			c.AbortWithStatusJSON(appErr.HTTPStatus, dto.ErrorResponse{
				Code:    appErr.Code,
				Message: appErr.Message,
				Details: appErr.Details,
			})
		}()
		c.Next()
	}
}
