package v1

import (
	"github.com/gin-gonic/gin"
)

// EntityRouteHandler defines the interface for filtered entity listing.
type EntityRouteHandler interface {
	List(c *gin.Context)
	Filters(c *gin.Context)
	CheckRelation(c *gin.Context)
}

// MetaRouteHandler defines the interface for schema metadata endpoints.
type MetaRouteHandler interface {
	ListEntities(c *gin.Context)
	GetEntity(c *gin.Context)
}

// RegisterEntityRoutes registers the listing routes under group.
//
// Usage:
//
//	handler := handlers.NewEntityHandler(baseHandler, compiler, listers)
//	RegisterEntityRoutes(v1.Group(""), handler)
func RegisterEntityRoutes(group *gin.RouterGroup, handler EntityRouteHandler) {
	group.GET("/:entity", handler.List)
	group.GET("/:entity/filters", handler.Filters)
	group.GET("/:entity/relations/check", handler.CheckRelation)
}

// RegisterMetaRoutes registers the metadata routes under group.
func RegisterMetaRoutes(group *gin.RouterGroup, handler MetaRouteHandler) {
	group.GET("", handler.ListEntities)
	group.GET("/:name", handler.GetEntity)
}
