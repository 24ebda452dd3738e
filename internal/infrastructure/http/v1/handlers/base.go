package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"smartfilter/internal/core/apperror"
	appctx "smartfilter/internal/core/context"
)

// BaseHandler provides common handler utilities.
type BaseHandler struct{}

// NewBaseHandler creates a new base handler.
func NewBaseHandler() *BaseHandler {
	return &BaseHandler{}
}

// Error processes error and sends appropriate response.
func (h *BaseHandler) Error(c *gin.Context, err error) {
	h.HandleError(c, err)
}

// HandleError registers error on Gin context and aborts request.
// Actual JSON response is produced by middleware.ErrorHandler (single source of truth).
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// ParseIntQuery parses integer query parameter with default value.
// A malformed value is reported as a validation error.
func (h *BaseHandler) ParseIntQuery(c *gin.Context, key string, defaultVal int) (int, bool) {
	val := c.Query(key)
	if val == "" {
		return defaultVal, true
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid query parameter").WithDetail(key, val))
		return 0, false
	}
	return parsed, true
}

// GetRequestID extracts request ID from request context.
func (h *BaseHandler) GetRequestID(c *gin.Context) string {
	return appctx.GetRequestID(c.Request.Context())
}

// OK sends 200 response with data.
func (h *BaseHandler) OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}
