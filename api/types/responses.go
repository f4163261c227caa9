package types

import (
	"time"

	"github.com/killallgit/delivery-api/internal/models"
)

// Status constants for API responses
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// BaseResponse contains fields common to all API responses
type BaseResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse for detailed error information
type ErrorResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Error   string      `json:"error,omitempty"`   // lower-case error code, e.g. not_found
	Details interface{} `json:"details,omitempty"` // Additional error details
}

// JobCreatedResponse is returned when a batch is queued
type JobCreatedResponse struct {
	BaseResponse
	JobID string `json:"job_id"`
}

// JobResponse describes a job and its progress
type JobResponse struct {
	BaseResponse
	JobID       string                 `json:"job_id"`
	JobStatus   models.JobStatus       `json:"job_status"`
	Name        string                 `json:"name"`
	Progress    models.Progress        `json:"progress"`
	Error       string                 `json:"error,omitempty"`
	ErrorDetail string                 `json:"error_detail,omitempty"`
	ErrorRaw    map[string]interface{} `json:"error_raw,omitempty"`
	OutputDir   string                 `json:"output_dir,omitempty"`
	Exports     []string               `json:"exports,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
	FinishedAt  *time.Time             `json:"finished_at,omitempty"`
}

// BatchFile is one file in a delivered batch
type BatchFile struct {
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	DownloadURL string `json:"download_url"`
}

// Batch is one output directory
type Batch struct {
	Name       string      `json:"name"`
	ModifiedAt time.Time   `json:"modified_at"`
	Files      []BatchFile `json:"files"`
}

// HistoryResponse lists delivered batches, newest first
type HistoryResponse struct {
	BaseResponse
	Batches []Batch `json:"batches"`
	Count   int     `json:"count"`
}

// HealthResponse for health check endpoint
type HealthResponse struct {
	BaseResponse
	Timestamp string                 `json:"timestamp"`
	Services  map[string]interface{} `json:"services"`
}

// NewJobResponse converts a job row to its API form
func NewJobResponse(job *models.Job) JobResponse {
	return JobResponse{
		BaseResponse: BaseResponse{Status: StatusOK},
		JobID:        job.PublicID,
		JobStatus:    job.Status,
		Name:         job.Payload.Name,
		Progress:     job.CurrentProgress(),
		Error:        job.Error,
		ErrorDetail:  job.ErrorDetail,
		ErrorRaw:     job.ErrorRaw,
		OutputDir:    job.OutputDir,
		Exports:      job.Exports,
		CreatedAt:    job.CreatedAt,
		FinishedAt:   job.FinishedAt,
	}
}
