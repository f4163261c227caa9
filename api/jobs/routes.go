package jobs

import (
	"github.com/gin-gonic/gin"

	"github.com/killallgit/delivery-api/api/types"
)

// RegisterRoutes registers job routes
func RegisterRoutes(router *gin.RouterGroup, deps *types.Dependencies) {
	router.POST("", Post(deps))
	router.GET("", List(deps))
	router.GET("/:id", Get(deps))
}
