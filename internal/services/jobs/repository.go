package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/killallgit/delivery-api/internal/models"
	apperrors "github.com/killallgit/delivery-api/pkg/errors"
)

// Repository errors
var (
	ErrJobNotFound     = apperrors.New(apperrors.ErrCodeNotFound, "job not found")
	ErrNoJobsAvailable = errors.New("no jobs available")
)

// Repository defines the interface for job persistence
type Repository interface {
	CreateJob(ctx context.Context, job *models.Job) error

	GetJobByPublicID(ctx context.Context, publicID string) (*models.Job, error)
	ListJobs(ctx context.Context, limit int) ([]*models.Job, error)

	ClaimNextJob(ctx context.Context, workerID string) (*models.Job, error)
	UpdateProgress(ctx context.Context, jobID uint, progress models.Progress) error
	CompleteJob(ctx context.Context, jobID uint, outputDir string, exports []string) error
	FailJob(ctx context.Context, jobID uint, message, detail string, raw map[string]interface{}) error
	ResetRunning(ctx context.Context) (int64, error)

	DeleteOldJobs(ctx context.Context, olderThan time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a new job repository
func NewRepository(db *gorm.DB) Repository {
	return &repository{
		db: db,
	}
}

// CreateJob creates a new job
func (r *repository) CreateJob(ctx context.Context, job *models.Job) error {
	return r.db.WithContext(ctx).Create(job).Error
}

// GetJobByPublicID retrieves a job by the id handed out to clients
func (r *repository) GetJobByPublicID(ctx context.Context, publicID string) (*models.Job, error) {
	var job models.Job
	err := r.db.WithContext(ctx).Where("public_id = ?", publicID).First(&job).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("getting job: %w", err)
	}
	return &job, nil
}

// ListJobs returns the most recent jobs first
func (r *repository) ListJobs(ctx context.Context, limit int) ([]*models.Job, error) {
	var jobs []*models.Job
	query := r.db.WithContext(ctx).Order("created_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&jobs).Error; err != nil {
		return nil, fmt.Errorf("listing jobs: %w", err)
	}
	return jobs, nil
}

// ClaimNextJob atomically claims the oldest queued job for a worker
func (r *repository) ClaimNextJob(ctx context.Context, workerID string) (*models.Job, error) {
	var job models.Job

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("status = ?", models.JobStatusQueued).
			Order("created_at ASC, id ASC").
			First(&job).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNoJobsAvailable
			}
			return fmt.Errorf("finding job to claim: %w", err)
		}

		now := time.Now()
		res := tx.Model(&models.Job{}).
			Where("id = ? AND status = ?", job.ID, models.JobStatusQueued).
			Updates(map[string]interface{}{
				"status":     models.JobStatusRunning,
				"worker_id":  workerID,
				"started_at": &now,
			})
		if res.Error != nil {
			return fmt.Errorf("updating claimed job: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNoJobsAvailable
		}

		job.Status = models.JobStatusRunning
		job.WorkerID = workerID
		job.StartedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &job, nil
}

// UpdateProgress records the pipeline stage of a running job
func (r *repository) UpdateProgress(ctx context.Context, jobID uint, progress models.Progress) error {
	result := r.db.WithContext(ctx).
		Model(&models.Job{}).
		Where("id = ? AND status = ?", jobID, models.JobStatusRunning).
		Updates(map[string]interface{}{
			"progress_step":    progress.Step,
			"progress_current": progress.Current,
			"progress_total":   progress.Total,
			"progress_message": progress.Message,
		})

	if result.Error != nil {
		return fmt.Errorf("updating job progress: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrJobNotFound
	}
	return nil
}

// CompleteJob marks a job as done with its output location
func (r *repository) CompleteJob(ctx context.Context, jobID uint, outputDir string, exports []string) error {
	now := time.Now()
	res := r.db.WithContext(ctx).
		Model(&models.Job{}).
		Where("id = ?", jobID).
		Updates(map[string]interface{}{
			"status":      models.JobStatusDone,
			"output_dir":  outputDir,
			"exports":     models.StringList(exports),
			"finished_at": &now,
		})

	if res.Error != nil {
		return fmt.Errorf("completing job: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrJobNotFound
	}
	return nil
}

// FailJob marks a job as failed. Failed jobs are not retried.
func (r *repository) FailJob(ctx context.Context, jobID uint, message, detail string, raw map[string]interface{}) error {
	now := time.Now()
	updates := map[string]interface{}{
		"status":       models.JobStatusError,
		"error":        message,
		"error_detail": detail,
		"finished_at":  &now,
	}
	if raw != nil {
		updates["error_raw"] = models.JSONMap(raw)
	}

	res := r.db.WithContext(ctx).
		Model(&models.Job{}).
		Where("id = ?", jobID).
		Updates(updates)

	if res.Error != nil {
		return fmt.Errorf("failing job: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrJobNotFound
	}
	return nil
}

// ResetRunning puts jobs interrupted by a restart back in the queue
func (r *repository) ResetRunning(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Job{}).
		Where("status = ?", models.JobStatusRunning).
		Updates(map[string]interface{}{
			"status":     models.JobStatusQueued,
			"worker_id":  "",
			"started_at": nil,
		})
	if res.Error != nil {
		return 0, fmt.Errorf("resetting running jobs: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// DeleteOldJobs deletes finished jobs created before olderThan
func (r *repository) DeleteOldJobs(ctx context.Context, olderThan time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Unscoped().
		Where("created_at < ?", olderThan).
		Where("status IN ?", []models.JobStatus{models.JobStatusDone, models.JobStatusError}).
		Delete(&models.Job{})

	if result.Error != nil {
		return 0, fmt.Errorf("deleting old jobs: %w", result.Error)
	}
	return result.RowsAffected, nil
}
