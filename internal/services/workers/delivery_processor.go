package workers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/killallgit/delivery-api/internal/models"
	"github.com/killallgit/delivery-api/internal/services/exporters"
	"github.com/killallgit/delivery-api/internal/services/jobs"
	"github.com/killallgit/delivery-api/internal/services/pipeline"
)

// Runner runs a delivery batch
type Runner interface {
	Run(ctx context.Context, req pipeline.Request) (*pipeline.Result, error)
}

// DeliveryConfig holds the storage locations jobs are run against
type DeliveryConfig struct {
	OutputRoot string
	TempRoot   string
	CacheDir   string
}

// DeliveryProcessor turns a queued job into a pipeline run followed by
// the requested exports
type DeliveryProcessor struct {
	jobService jobs.Service
	runner     Runner
	cfg        DeliveryConfig
}

// NewDeliveryProcessor creates a delivery processor
func NewDeliveryProcessor(jobService jobs.Service, runner Runner, cfg DeliveryConfig) *DeliveryProcessor {
	return &DeliveryProcessor{
		jobService: jobService,
		runner:     runner,
		cfg:        cfg,
	}
}

// ProcessJob runs the job's batch and records its output files
func (p *DeliveryProcessor) ProcessJob(ctx context.Context, job *models.Job) error {
	payload := job.Payload

	formats, err := exporters.ParseFormats(payload.Exports...)
	if err != nil {
		return err
	}
	if len(formats) == 0 {
		formats = []exporters.Format{exporters.FormatWord}
	}

	req := pipeline.Request{
		Inputs:       payload.Inputs,
		BatchName:    payload.Name,
		OutputRoot:   p.cfg.OutputRoot,
		TempRoot:     p.cfg.TempRoot,
		CacheDir:     p.cfg.CacheDir,
		Summary:      payload.Summary,
		UseCache:     payload.UseCache,
		PlatformHint: payload.Platform,
		OnProgress: func(step pipeline.Step, current, total int, message string) {
			progress := models.Progress{Step: string(step), Current: current, Total: total, Message: message}
			if err := p.jobService.UpdateProgress(ctx, job.ID, progress); err != nil {
				slog.Warn("failed to record progress", "job", job.PublicID, "step", step, "error", err)
			}
		},
	}

	result, err := p.runner.Run(ctx, req)
	if err != nil {
		return err
	}

	files, err := exporters.ExportAll(ctx, formats, result.Results, exporters.Meta{
		BatchName: payload.Name,
		OutputDir: result.OutputDir,
	})
	if err != nil {
		return fmt.Errorf("exporting %s: %w", payload.Name, err)
	}

	return p.jobService.CompleteJob(ctx, job.ID, result.OutputDir, files)
}
