package version

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Info is the build information reported by the service
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildTime string `json:"build_time"`
}

// Get handles version requests
//
// @Summary      Version
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /version [get]
func Get(info Info) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"name":        "Delivery API",
			"version":     info.Version,
			"git_commit":  info.GitCommit,
			"build_time":  info.BuildTime,
			"description": "Short-video transcript delivery service",
			"status":      "running",
		})
	}
}
