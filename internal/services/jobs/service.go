package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/killallgit/delivery-api/internal/models"
	apperrors "github.com/killallgit/delivery-api/pkg/errors"
)

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{
		repo: repo,
	}
}

func (s *service) EnqueueJob(ctx context.Context, payload models.JobPayload) (*models.Job, error) {
	if strings.TrimSpace(payload.Name) == "" {
		return nil, apperrors.MissingFieldError("name")
	}
	if len(payload.Inputs) == 0 {
		return nil, apperrors.ValidationError("inputs", "at least one link or file is required")
	}

	job := &models.Job{
		PublicID: uuid.NewString(),
		Status:   models.JobStatusQueued,
		Payload:  payload,
	}

	if err := s.repo.CreateJob(ctx, job); err != nil {
		return nil, apperrors.DatabaseError("create job", err)
	}

	slog.Info("job enqueued", "job", job.PublicID, "name", payload.Name, "inputs", len(payload.Inputs))

	return job, nil
}

func (s *service) GetJob(ctx context.Context, publicID string) (*models.Job, error) {
	job, err := s.repo.GetJobByPublicID(ctx, publicID)
	if err != nil {
		if errors.Is(err, ErrJobNotFound) {
			return nil, apperrors.NotFound("job", publicID)
		}
		return nil, apperrors.DatabaseError("get job", err)
	}
	return job, nil
}

func (s *service) ListJobs(ctx context.Context, limit int) ([]*models.Job, error) {
	jobs, err := s.repo.ListJobs(ctx, limit)
	if err != nil {
		return nil, apperrors.DatabaseError("list jobs", err)
	}
	return jobs, nil
}

func (s *service) ClaimNextJob(ctx context.Context, workerID string) (*models.Job, error) {
	job, err := s.repo.ClaimNextJob(ctx, workerID)
	if err != nil {
		if errors.Is(err, ErrNoJobsAvailable) {
			return nil, err
		}
		return nil, fmt.Errorf("claiming job: %w", err)
	}

	slog.Debug("job claimed", "worker", workerID, "job", job.PublicID)

	return job, nil
}

func (s *service) UpdateProgress(ctx context.Context, jobID uint, progress models.Progress) error {
	if err := s.repo.UpdateProgress(ctx, jobID, progress); err != nil {
		if errors.Is(err, ErrJobNotFound) {
			return err
		}
		return fmt.Errorf("updating job progress: %w", err)
	}
	return nil
}

func (s *service) CompleteJob(ctx context.Context, jobID uint, outputDir string, exports []string) error {
	if err := s.repo.CompleteJob(ctx, jobID, outputDir, exports); err != nil {
		if errors.Is(err, ErrJobNotFound) {
			return err
		}
		return fmt.Errorf("completing job: %w", err)
	}

	slog.Info("job completed", "id", jobID, "output", outputDir, "files", len(exports))

	return nil
}

// FailJob stores the error message, its wrapped chain and any raw backend
// payload carried by the error
func (s *service) FailJob(ctx context.Context, jobID uint, err error) error {
	message := err.Error()
	detail := fmt.Sprintf("%+v", err)
	if code := apperrors.GetCode(err); code != apperrors.ErrCodeInternal {
		detail = fmt.Sprintf("[%s] %s", code, detail)
	}

	if rerr := s.repo.FailJob(ctx, jobID, message, detail, apperrors.RawPayload(err)); rerr != nil {
		if errors.Is(rerr, ErrJobNotFound) {
			return rerr
		}
		return fmt.Errorf("failing job: %w", rerr)
	}

	slog.Error("job failed", "id", jobID, "error", message)

	return nil
}

func (s *service) RecoverInterrupted(ctx context.Context) (int64, error) {
	n, err := s.repo.ResetRunning(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		slog.Warn("requeued interrupted jobs", "count", n)
	}
	return n, nil
}

func (s *service) CleanupOldJobs(ctx context.Context, retention time.Duration) (int64, error) {
	if retention <= 0 {
		return 0, fmt.Errorf("retention must be positive")
	}

	cutoffTime := time.Now().Add(-retention)

	deleted, err := s.repo.DeleteOldJobs(ctx, cutoffTime)
	if err != nil {
		return 0, fmt.Errorf("cleaning up old jobs: %w", err)
	}

	if deleted > 0 {
		slog.Info("deleted old jobs", "count", deleted, "older_than", cutoffTime)
	}

	return deleted, nil
}
