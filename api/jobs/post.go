package jobs

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/killallgit/delivery-api/api/types"
	"github.com/killallgit/delivery-api/internal/models"
	"github.com/killallgit/delivery-api/internal/services/cleanup"
	"github.com/killallgit/delivery-api/internal/services/exporters"
	apperrors "github.com/killallgit/delivery-api/pkg/errors"
	"github.com/killallgit/delivery-api/pkg/textproc"
)

// Post queues a delivery batch from a multipart form
//
// @Summary      Create a delivery job
// @Description  Queues links and uploaded files for transcription and export
// @Tags         jobs
// @Accept       multipart/form-data
// @Produce      json
// @Param        name      formData  string  true   "Customer or account name"
// @Param        links     formData  string  false  "Newline-separated share links"
// @Param        platform  formData  string  false  "douyin, bilibili or auto"
// @Param        files     formData  file    false  "Local video files"
// @Param        exports   formData  []string  false  "docx, md, xlsx, srt"
// @Param        summary   formData  bool    false  "Generate one-line summaries"
// @Success      202  {object}  types.JobCreatedResponse
// @Failure      400  {object}  types.ErrorResponse
// @Failure      413  {object}  types.ErrorResponse
// @Router       /api/v1/jobs [post]
func Post(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		form, err := c.MultipartForm()
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				c.JSON(http.StatusRequestEntityTooLarge, types.ErrorResponse{
					Status:  types.StatusError,
					Message: fmt.Sprintf("upload exceeds %d bytes", maxErr.Limit),
					Error:   "too_large",
				})
				return
			}
			types.SendBadRequest(c, "expected a multipart form")
			return
		}

		exports := splitValues(form.Value["exports"])
		formats, err := exporters.ParseFormats(exports...)
		if err != nil {
			types.SendError(c, err)
			return
		}
		if len(formats) == 0 {
			formats = []exporters.Format{exporters.FormatWord}
		}

		inputs := parseLinks(c.PostForm("links"))
		saved, err := saveUploads(c, deps.TempDir, form.File["files"])
		if err != nil {
			types.SendError(c, err)
			return
		}
		inputs = append(inputs, saved...)

		payload := models.JobPayload{
			Name:     strings.TrimSpace(c.PostForm("name")),
			Inputs:   inputs,
			Platform: models.ParsePlatform(c.PostForm("platform")),
			Exports:  formatNames(formats),
			Summary:  parseBool(c.PostForm("summary")),
			UseCache: true,
		}

		job, err := deps.JobService.EnqueueJob(c.Request.Context(), payload)
		if err != nil {
			removeUploads(deps.TempDir, saved)
			types.SendError(c, err)
			return
		}

		c.JSON(http.StatusAccepted, types.JobCreatedResponse{
			BaseResponse: types.BaseResponse{Status: types.StatusOK, Message: "job queued"},
			JobID:        job.PublicID,
		})
	}
}

// parseLinks splits a textarea into one input per non-empty line
func parseLinks(raw string) []string {
	var links []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		links = append(links, line)
	}
	return links
}

func saveUploads(c *gin.Context, tempDir string, files []*multipart.FileHeader) ([]string, error) {
	var paths []string
	for _, fh := range files {
		name := textproc.SanitizeFilename(filepath.Base(fh.Filename))
		dest := filepath.Join(tempDir, fmt.Sprintf("upload_%s_%s", uuid.NewString(), name))
		if err := c.SaveUploadedFile(fh, dest); err != nil {
			removeUploads(tempDir, append(paths, dest))
			return nil, apperrors.Wrap(err, apperrors.ErrCodeStorage, "failed to save upload")
		}
		paths = append(paths, dest)
	}
	return paths, nil
}

// removeUploads deletes files saved for a request that was not queued
func removeUploads(tempDir string, paths []string) {
	for _, p := range paths {
		cleanup.CleanupSingleFile(tempDir, p)
	}
}

func splitValues(values []string) []string {
	var out []string
	for _, v := range values {
		out = append(out, strings.Split(v, ",")...)
	}
	return out
}

func formatNames(formats []exporters.Format) []string {
	names := make([]string, len(formats))
	for i, f := range formats {
		names[i] = string(f)
	}
	return names
}

func parseBool(s string) bool {
	if strings.EqualFold(s, "on") {
		return true
	}
	b, _ := strconv.ParseBool(s)
	return b
}
