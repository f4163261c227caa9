package health

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/killallgit/delivery-api/api/types"
)

// Get handles health check requests
//
// @Summary      Health check
// @Description  Reports job store and ffmpeg availability
// @Tags         health
// @Produce      json
// @Success      200  {object}  types.HealthResponse
// @Failure      503  {object}  types.HealthResponse
// @Router       /health [get]
func Get(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		database := getDatabaseStatus(deps)
		ffmpeg := getFFmpegStatus(deps)

		status := types.StatusOK
		code := http.StatusOK
		if database["status"] == "unhealthy" || ffmpeg["status"] == "unavailable" {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}

		c.JSON(code, types.HealthResponse{
			BaseResponse: types.BaseResponse{Status: status},
			Timestamp:    time.Now().UTC().Format(time.RFC3339),
			Services: map[string]interface{}{
				"database": database,
				"ffmpeg":   ffmpeg,
			},
		})
	}
}

// getDatabaseStatus returns the database connection status
func getDatabaseStatus(deps *types.Dependencies) gin.H {
	if deps == nil || deps.DB == nil || deps.DB.DB == nil {
		return gin.H{"status": "not configured"}
	}

	if err := deps.DB.HealthCheck(); err != nil {
		return gin.H{"status": "unhealthy", "error": err.Error()}
	}

	return gin.H{"status": "healthy"}
}

func getFFmpegStatus(deps *types.Dependencies) gin.H {
	if deps == nil || deps.Media == nil {
		return gin.H{"status": "not configured"}
	}

	if err := deps.Media.ValidateFFmpeg(); err != nil {
		return gin.H{"status": "unavailable", "error": err.Error()}
	}

	return gin.H{"status": "available"}
}
