// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"smartfilter/internal/domain"
	"smartfilter/internal/domain/filter"
	"smartfilter/internal/infrastructure/http/v1/handlers"
	"smartfilter/internal/infrastructure/http/v1/middleware"
	"smartfilter/internal/infrastructure/metrics"
	"smartfilter/internal/infrastructure/storage/postgres"
	"smartfilter/internal/metadata"
	"smartfilter/pkg/logger"
)

// RouterConfig holds router configuration.
type RouterConfig struct {
	// Logger for request logging
	Logger *logger.Logger

	// Compiler describes filterable fields and validates relation paths
	Compiler *filter.Compiler

	// Listers maps the URL entity name to its list service
	Listers map[string]domain.Lister

	// MetadataRegistry stores entity definitions
	MetadataRegistry *metadata.Registry

	// Pool is used by readiness checks; nil for the memory backend
	Pool *postgres.Pool

	// Storage names the active backend in /health/info
	Storage string

	// Metrics enables request metrics and GET /metrics when set
	Metrics *metrics.Metrics
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())
	if cfg.Metrics != nil {
		router.Use(cfg.Metrics.Middleware())
		router.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	healthHandler := handlers.NewHealthHandler(cfg.Pool, cfg.Storage)
	health := router.Group("/health")
	{
		health.GET("", healthHandler.Live)
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	v1 := router.Group("/api/v1")
	{
		baseHandler := handlers.NewBaseHandler()

		if cfg.MetadataRegistry != nil {
			RegisterMetaRoutes(v1.Group("/meta"), handlers.NewMetadataHandler(cfg.MetadataRegistry))
		}

		entityHandler := handlers.NewEntityHandler(baseHandler, cfg.Compiler, cfg.Listers)
		RegisterEntityRoutes(v1.Group(""), entityHandler)
	}

	return router
}
