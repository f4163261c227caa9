package jobs

import (
	"context"
	"time"

	"github.com/killallgit/delivery-api/internal/models"
)

// Service defines the business logic interface for delivery jobs
type Service interface {
	// Enqueue operations
	EnqueueJob(ctx context.Context, payload models.JobPayload) (*models.Job, error)

	// Status and retrieval
	GetJob(ctx context.Context, publicID string) (*models.Job, error)
	ListJobs(ctx context.Context, limit int) ([]*models.Job, error)

	// Worker operations
	ClaimNextJob(ctx context.Context, workerID string) (*models.Job, error)
	UpdateProgress(ctx context.Context, jobID uint, progress models.Progress) error
	CompleteJob(ctx context.Context, jobID uint, outputDir string, exports []string) error
	FailJob(ctx context.Context, jobID uint, err error) error
	RecoverInterrupted(ctx context.Context) (int64, error)

	// Maintenance
	CleanupOldJobs(ctx context.Context, retention time.Duration) (int64, error)
}
