package jobs

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/killallgit/delivery-api/api/types"
)

// Get returns a job's status and progress
//
// @Summary      Get a delivery job
// @Tags         jobs
// @Produce      json
// @Param        id   path      string  true  "Job id"
// @Success      200  {object}  types.JobResponse
// @Failure      404  {object}  types.ErrorResponse
// @Router       /api/v1/jobs/{id} [get]
func Get(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		job, err := deps.JobService.GetJob(c.Request.Context(), c.Param("id"))
		if err != nil {
			types.SendError(c, err)
			return
		}
		c.JSON(http.StatusOK, types.NewJobResponse(job))
	}
}

// List returns the most recent jobs
//
// @Summary      List delivery jobs
// @Tags         jobs
// @Produce      json
// @Param        limit  query     int  false  "Maximum number of jobs"  default(20)
// @Success      200    {array}   types.JobResponse
// @Router       /api/v1/jobs [get]
func List(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
		if err != nil || limit <= 0 || limit > 200 {
			types.SendBadRequest(c, "limit must be between 1 and 200")
			return
		}

		jobs, err := deps.JobService.ListJobs(c.Request.Context(), limit)
		if err != nil {
			types.SendError(c, err)
			return
		}

		resp := make([]types.JobResponse, 0, len(jobs))
		for _, job := range jobs {
			resp = append(resp, types.NewJobResponse(job))
		}
		c.JSON(http.StatusOK, resp)
	}
}
