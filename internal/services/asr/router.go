package asr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/killallgit/delivery-api/internal/models"
	apperrors "github.com/killallgit/delivery-api/pkg/errors"
	"github.com/killallgit/delivery-api/pkg/retry"
)

const oversizeMessage = "file size is too large"

// RouterConfig wires the backends and policies used by a Router
type RouterConfig struct {
	Settings       Settings
	URL            URLTranscriber
	Audio          AudioTranscriber
	File           FileTranscriber
	Splitter       Splitter
	SegmentSeconds int
	RetryAttempts  int
	RetryDelay     time.Duration
}

// Router dispatches an item to the backend chosen by SelectMode
type Router struct {
	cfg RouterConfig
}

// NewRouter creates a router; zero policy values take their defaults
func NewRouter(cfg RouterConfig) *Router {
	if cfg.SegmentSeconds <= 0 {
		cfg.SegmentSeconds = 600
	}
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	return &Router{cfg: cfg}
}

// Settings returns the routing settings
func (r *Router) Settings() Settings {
	return r.cfg.Settings
}

// Transcribe fetches a transcript for item from the selected backend
func (r *Router) Transcribe(ctx context.Context, item *models.VideoItem, useSourceURL bool) (models.Transcript, error) {
	settings := r.cfg.Settings

	switch mode := SelectMode(item, settings, useSourceURL); mode {
	case ModeDashScopeURL:
		if item.SourceURL == "" {
			return models.Transcript{}, apperrors.MissingInputError(string(mode), "source_url")
		}
		return retry.Do(ctx, r.cfg.RetryAttempts, r.cfg.RetryDelay, func(ctx context.Context) (models.Transcript, error) {
			return r.cfg.URL.TranscribeURL(ctx, item.SourceURL, settings.ASRModel)
		})

	case ModeAudioASR:
		if item.LocalAudioPath == "" {
			return models.Transcript{}, apperrors.MissingInputError(string(mode), "local_audio_path")
		}
		return r.transcribeAudio(ctx, item.LocalAudioPath, settings.AudioASRModel)

	default:
		if item.LocalAudioPath == "" {
			return models.Transcript{}, apperrors.MissingInputError(string(mode), "local_audio_path")
		}
		return retry.Do(ctx, r.cfg.RetryAttempts, r.cfg.RetryDelay, func(ctx context.Context) (models.Transcript, error) {
			return r.cfg.File.TranscribeFile(ctx, item.LocalAudioPath, settings.ASRModel)
		})
	}
}

// transcribeAudio makes a single call and falls back to per-segment calls
// when the backend rejects the file as too large
func (r *Router) transcribeAudio(ctx context.Context, audioPath, model string) (models.Transcript, error) {
	transcript, err := r.cfg.Audio.TranscribeAudio(ctx, audioPath, model)
	if err == nil {
		return transcript, nil
	}
	if !isOversize(err) {
		return models.Transcript{}, err
	}

	slog.Info("audio too large for a single request, splitting",
		"path", audioPath, "segment_seconds", r.cfg.SegmentSeconds)

	partsDir, err := os.MkdirTemp(filepath.Dir(audioPath), "audio_parts_")
	if err != nil {
		return models.Transcript{}, apperrors.Wrap(err, apperrors.ErrCodeStorage, "failed to create segment directory")
	}
	defer os.RemoveAll(partsDir)

	parts, err := r.cfg.Splitter.SplitAudio(ctx, audioPath, partsDir, r.cfg.SegmentSeconds)
	if err != nil {
		return models.Transcript{}, fmt.Errorf("splitting audio: %w", err)
	}
	if len(parts) == 0 {
		return models.Transcript{}, apperrors.ASRBackendError(string(ModeAudioASR), "audio split produced no parts", nil)
	}

	texts := make([]string, 0, len(parts))
	rawParts := make([]interface{}, 0, len(parts))
	for i, part := range parts {
		pt, err := r.cfg.Audio.TranscribeAudio(ctx, part, model)
		if err != nil {
			return models.Transcript{}, fmt.Errorf("segment %d: %w", i+1, err)
		}
		if pt.Text != "" {
			texts = append(texts, pt.Text)
		}
		raw := map[string]interface{}(pt.Raw)
		if raw == nil {
			raw = map[string]interface{}{}
		}
		rawParts = append(rawParts, raw)
	}

	text := strings.Join(texts, "\n")
	return models.Transcript{
		Text: text,
		Raw:  models.RawPayload{"parts": rawParts, "text": text},
	}, nil
}

func isOversize(err error) bool {
	return apperrors.Is(err, apperrors.ErrCodeASRBackend) &&
		strings.Contains(strings.ToLower(err.Error()), oversizeMessage)
}
