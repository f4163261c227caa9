package api

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/killallgit/delivery-api/api/downloads"
	"github.com/killallgit/delivery-api/api/health"
	"github.com/killallgit/delivery-api/api/history"
	"github.com/killallgit/delivery-api/api/jobs"
	"github.com/killallgit/delivery-api/api/types"
	"github.com/killallgit/delivery-api/api/version"
	"github.com/killallgit/delivery-api/api/web"
	_ "github.com/killallgit/delivery-api/docs/swagger"
)

// RegisterRoutes registers all API routes
func RegisterRoutes(engine *gin.Engine, deps *types.Dependencies, info version.Info, rateLimiters *sync.Map, cleanupStop chan struct{}, cleanupInitialized *sync.Once) {
	// Public routes without rate limiting
	health.RegisterRoutes(engine, deps)
	version.RegisterRoutes(engine, info)
	web.RegisterRoutes(engine, deps)

	engine.GET("/docs", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/docs/index.html")
	})
	docsGroup := engine.Group("/docs")
	docsGroup.GET("/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	engine.NoRoute(NotFoundHandler())

	v1 := engine.Group("/api/v1")
	v1.Use(PerClientRateLimit(rateLimiters, cleanupStop, cleanupInitialized, 10, 20))

	if deps.JobService != nil {
		jobs.RegisterRoutes(v1.Group("/jobs"), deps)
	}
	history.RegisterRoutes(v1.Group("/history"), deps)
	downloads.RegisterRoutes(v1.Group("/downloads"), deps)
}

// NotFoundHandler handles 404 errors
func NotFoundHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusNotFound, types.ErrorResponse{
			Status:  types.StatusError,
			Message: "The requested endpoint was not found",
			Error:   "not_found",
			Details: gin.H{"path": c.Request.URL.Path},
		})
	}
}
