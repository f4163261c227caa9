package cleanup

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/killallgit/delivery-api/pkg/download"
)

// tempPatterns are the files the pipeline and the upload handler leave in
// the temp directory
var tempPatterns = []string{"upload_*", "*.mp4", "*.wav"}

// JobCleaner deletes finished jobs past their retention
type JobCleaner interface {
	CleanupOldJobs(ctx context.Context, retention time.Duration) (int64, error)
}

// Service periodically removes stale temp files and old job rows
type Service struct {
	tempDir         string
	maxAge          time.Duration
	cleanupInterval time.Duration
	jobs            JobCleaner
	jobRetention    time.Duration
	cancel          context.CancelFunc
}

// NewService creates a new cleanup service. jobs may be nil.
func NewService(tempDir string, maxAge, cleanupInterval time.Duration, jobs JobCleaner, jobRetention time.Duration) *Service {
	return &Service{
		tempDir:         tempDir,
		maxAge:          maxAge,
		cleanupInterval: cleanupInterval,
		jobs:            jobs,
		jobRetention:    jobRetention,
	}
}

// Start runs an initial cleanup and then one per interval until ctx ends
func (s *Service) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.cleanup(ctx)

	go func() {
		ticker := time.NewTicker(s.cleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.cleanup(ctx)
			case <-ctx.Done():
				slog.Info("cleanup service stopped")
				return
			}
		}
	}()

	slog.Info("cleanup service started", "interval", s.cleanupInterval, "max_age", s.maxAge)
}

// Stop stops the cleanup service
func (s *Service) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *Service) cleanup(ctx context.Context) {
	if _, err := os.Stat(s.tempDir); err == nil {
		for _, pattern := range tempPatterns {
			if _, err := download.CleanupOldFiles(s.tempDir, pattern, s.maxAge); err != nil {
				slog.Warn("temp cleanup failed", "dir", s.tempDir, "pattern", pattern, "error", err)
			}
		}
	}

	if s.jobs != nil && s.jobRetention > 0 {
		if _, err := s.jobs.CleanupOldJobs(ctx, s.jobRetention); err != nil {
			slog.Warn("job cleanup failed", "error", err)
		}
	}
}

// CleanupSingleFile removes a file only if it lives under tempDir
func CleanupSingleFile(tempDir, path string) {
	if path == "" {
		return
	}

	root, err := filepath.Abs(tempDir)
	if err != nil {
		return
	}
	abs, err := filepath.Abs(path)
	if err != nil || !strings.HasPrefix(abs, root+string(filepath.Separator)) {
		slog.Warn("refusing to remove file outside temp directory", "path", path)
		return
	}

	if err := os.Remove(abs); err != nil && !os.IsNotExist(err) {
		slog.Debug("failed to remove temp file", "path", abs, "error", err)
	}
}
