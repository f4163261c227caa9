package downloads

import (
	"github.com/gin-gonic/gin"

	"github.com/killallgit/delivery-api/api/types"
)

// RegisterRoutes registers download routes
func RegisterRoutes(router *gin.RouterGroup, deps *types.Dependencies) {
	router.GET("/:batch/:filename", Get(deps))
}
