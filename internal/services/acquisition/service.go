package acquisition

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/killallgit/delivery-api/internal/models"
	apperrors "github.com/killallgit/delivery-api/pkg/errors"
	"github.com/killallgit/delivery-api/pkg/ffmpeg"
)

// service implements Acquirer
type service struct {
	fetcher Fetcher
	media   MediaTool
}

// NewService creates a new acquisition service
func NewService(fetcher Fetcher, media MediaTool) Acquirer {
	return &service{
		fetcher: fetcher,
		media:   media,
	}
}

// Download streams the item's source URL to {tmpDir}/{video_id or "video"}.mp4
func (s *service) Download(ctx context.Context, item *models.VideoItem, tmpDir string) (*models.VideoItem, error) {
	if item.LocalVideoPath != "" {
		return item, nil
	}
	if !item.HasSourceURL() {
		return nil, apperrors.New(apperrors.ErrCodeMissingSource, "item has neither a local video nor a source URL").
			WithDetail("input", item.InputValue)
	}

	if err := os.MkdirAll(tmpDir, 0o755); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeStorage, "failed to create temp directory")
	}

	name := item.VideoID
	if name == "" {
		name = "video"
	}
	dest := filepath.Join(tmpDir, name+".mp4")

	result, err := s.fetcher.DownloadToFile(ctx, item.SourceURL, dest, item.DownloadHeaders)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDownload, "video download failed").
			WithDetail("url", item.SourceURL)
	}

	slog.Info("video downloaded", "path", result.FilePath, "bytes", result.ContentLength)
	item.LocalVideoPath = result.FilePath
	return item, nil
}

// ExtractAudio writes {tmpDir}/{video stem}.wav as mono 16 kHz PCM
func (s *service) ExtractAudio(ctx context.Context, item *models.VideoItem, tmpDir string) (*models.VideoItem, error) {
	if item.LocalAudioPath != "" {
		return item, nil
	}
	if item.LocalVideoPath == "" {
		return nil, apperrors.New(apperrors.ErrCodeMissingVideo, "item has no local video").
			WithDetail("input", item.InputValue)
	}
	if err := s.media.ValidateFFmpeg(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeCodecUnavailable, "ffmpeg is not available")
	}

	output := filepath.Join(tmpDir, item.VideoStem()+".wav")
	if err := s.media.ExtractAudio(ctx, item.LocalVideoPath, output, ffmpeg.SpeechFormat); err != nil {
		return nil, fmt.Errorf("extracting audio from %s: %w", item.LocalVideoPath, err)
	}
	item.LocalAudioPath = output

	if item.DurationMS == 0 {
		s.fillDuration(ctx, item)
	}
	return item, nil
}

// fillDuration reads the duration from ffprobe for items whose platform did
// not report one. Failures are logged only.
func (s *service) fillDuration(ctx context.Context, item *models.VideoItem) {
	meta, err := s.media.GetMetadata(ctx, item.LocalVideoPath)
	if err != nil {
		slog.Warn("could not probe duration", "path", item.LocalVideoPath, "error", err)
		return
	}
	item.DurationMS = meta.DurationMS()
}
