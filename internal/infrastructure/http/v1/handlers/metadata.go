package handlers

import (
	"github.com/gin-gonic/gin"

	"smartfilter/internal/core/apperror"
	"smartfilter/internal/metadata"
)

type MetadataHandler struct {
	BaseHandler
	registry *metadata.Registry
}

func NewMetadataHandler(registry *metadata.Registry) *MetadataHandler {
	return &MetadataHandler{
		registry: registry,
	}
}

// ListEntities returns the column definitions of all registered tables.
// GET /api/v1/meta
func (h *MetadataHandler) ListEntities(c *gin.Context) {
	h.OK(c, h.registry.List())
}

// GetEntity returns the column definitions of one table.
// GET /api/v1/meta/:name
func (h *MetadataHandler) GetEntity(c *gin.Context) {
	name := c.Param("name")
	def, ok := h.registry.Get(name)
	if !ok {
		h.Error(c, apperror.NewNotFound("entity", name))
		return
	}
	h.OK(c, def)
}
