package workers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/killallgit/delivery-api/internal/models"
	"github.com/killallgit/delivery-api/internal/services/jobs"
)

// JobProcessor runs one claimed job to completion
type JobProcessor interface {
	ProcessJob(ctx context.Context, job *models.Job) error
}

// Worker is the background loop that drains the job queue. Batches are
// processed one at a time.
type Worker struct {
	id           string
	jobService   jobs.Service
	processor    JobProcessor
	stopChan     chan struct{}
	stopOnce     sync.Once
	wg           sync.WaitGroup
	pollInterval time.Duration
}

// NewWorker creates a new worker instance
func NewWorker(id string, jobService jobs.Service, processor JobProcessor, pollInterval time.Duration) *Worker {
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	return &Worker{
		id:           id,
		jobService:   jobService,
		processor:    processor,
		stopChan:     make(chan struct{}),
		pollInterval: pollInterval,
	}
}

// Start requeues jobs left running by a previous process and starts the
// loop in a goroutine
func (w *Worker) Start(ctx context.Context) {
	if _, err := w.jobService.RecoverInterrupted(ctx); err != nil {
		slog.Error("failed to requeue interrupted jobs", "worker", w.id, "error", err)
	}

	w.wg.Add(1)
	go w.run(ctx)
}

// Stop stops the worker and waits for the current job to return
func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.stopChan) })
	w.wg.Wait()
}

func (w *Worker) run(ctx context.Context) {
	defer w.wg.Done()

	slog.Info("worker starting", "worker", w.id, "poll", w.pollInterval)
	defer slog.Info("worker stopped", "worker", w.id)

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return
		case <-ticker.C:
			// Drain the queue before waiting for the next tick
			for {
				processed, err := w.processNextJob(ctx)
				if err != nil {
					slog.Error("job processing failed", "worker", w.id, "error", err)
				}
				if !processed || ctx.Err() != nil {
					break
				}
			}
		}
	}
}

// processNextJob claims and processes the next queued job. It reports
// whether a job was claimed.
func (w *Worker) processNextJob(ctx context.Context) (bool, error) {
	job, err := w.jobService.ClaimNextJob(ctx, w.id)
	if err != nil {
		if errors.Is(err, jobs.ErrNoJobsAvailable) {
			return false, nil
		}
		return false, err
	}

	slog.Info("processing job", "worker", w.id, "job", job.PublicID, "name", job.Payload.Name)

	if err := w.processor.ProcessJob(ctx, job); err != nil {
		// Record the failure even when the worker context was cancelled
		failCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if failErr := w.jobService.FailJob(failCtx, job.ID, err); failErr != nil {
			slog.Error("failed to mark job as failed", "worker", w.id, "job", job.PublicID, "error", failErr)
		}
		return true, fmt.Errorf("job %s: %w", job.PublicID, err)
	}

	slog.Info("job done", "worker", w.id, "job", job.PublicID)
	return true, nil
}
