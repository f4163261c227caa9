package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/killallgit/delivery-api/internal/models"
	"github.com/killallgit/delivery-api/internal/services/acquisition"
	"github.com/killallgit/delivery-api/internal/services/asr"
	"github.com/killallgit/delivery-api/internal/services/cache"
	"github.com/killallgit/delivery-api/internal/services/resolver"
	apperrors "github.com/killallgit/delivery-api/pkg/errors"
	"github.com/killallgit/delivery-api/pkg/textproc"
)

// Dependencies are the collaborators an Orchestrator drives
type Dependencies struct {
	Resolver   resolver.Resolver
	Acquirer   acquisition.Acquirer
	Router     asr.Transcriber
	Summarizer Summarizer

	// CacheFor returns the cache backend for a cache directory. Nil means
	// a FileCache rooted at the directory.
	CacheFor func(dir string) cache.Cache

	// Now is used for the dated output directory. Nil means time.Now.
	Now func() time.Time
}

// Orchestrator runs batches item by item. An item failure aborts the batch.
type Orchestrator struct {
	deps Dependencies
}

// New creates an orchestrator
func New(deps Dependencies) *Orchestrator {
	if deps.CacheFor == nil {
		deps.CacheFor = func(dir string) cache.Cache { return cache.NewFileCache(dir) }
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Orchestrator{deps: deps}
}

// OutputDir returns {root}/{YYYY-MM-DD}_{batch}
func OutputDir(root, batchName string, now time.Time) string {
	return filepath.Join(root, now.Format("2006-01-02")+"_"+textproc.SanitizeFilename(batchName))
}

// Run processes every input in order and persists one raw payload per item
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Result, error) {
	if len(req.Inputs) == 0 {
		return nil, apperrors.ValidationError("inputs", "at least one input is required")
	}
	if strings.TrimSpace(req.BatchName) == "" {
		return nil, apperrors.MissingFieldError("name")
	}
	if req.Summary && o.deps.Summarizer == nil {
		return nil, apperrors.ConfigError("summary", "no summarizer configured")
	}

	outputDir := OutputDir(req.OutputRoot, req.BatchName, o.deps.Now())
	cacheDir := req.CacheDir
	if cacheDir == "" {
		cacheDir = filepath.Join(req.OutputRoot, ".cache")
	}
	for _, dir := range []string{outputDir, req.TempRoot, cacheDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, apperrors.Wrapf(err, apperrors.ErrCodeStorage, "failed to create %s", dir)
		}
	}

	b := &batch{
		Orchestrator: o,
		req:          req,
		outputDir:    outputDir,
		store:        cache.NewTranscriptStore(o.deps.CacheFor(cacheDir)),
		settings:     o.deps.Router.Settings(),
		total:        len(req.Inputs),
	}

	slog.Info("starting batch",
		"batch", req.BatchName,
		"items", b.total,
		"platform", req.PlatformHint,
		"asr_mode", b.settings.Mode,
		"asr_model", b.settings.ASRModel,
		"audio_asr_model", b.settings.AudioASRModel,
		"output_dir", outputDir)

	results := make([]models.TaskResult, 0, b.total)
	for i, input := range req.Inputs {
		result, err := b.runItem(ctx, i+1, input)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i+1, err)
		}
		results = append(results, *result)
	}

	slog.Info("batch finished", "batch", req.BatchName, "items", len(results), "output_dir", outputDir)
	return &Result{OutputDir: outputDir, Results: results}, nil
}

// batch holds the state of one Run
type batch struct {
	*Orchestrator
	req       Request
	outputDir string
	store     *cache.TranscriptStore
	settings  asr.Settings
	total     int
}

func (b *batch) emit(step Step, current int) {
	if b.req.OnProgress != nil {
		b.req.OnProgress(step, current, b.total, step.Message())
	}
}

func (b *batch) runItem(ctx context.Context, idx int, input string) (*models.TaskResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.emit(StepParse, idx)
	item, err := b.deps.Resolver.Resolve(ctx, input, b.req.PlatformHint)
	if err != nil {
		return nil, err
	}

	useSourceURL := asr.UseSourceURL(item, b.settings)
	slog.Info("item resolved",
		"index", idx,
		"platform", item.Platform,
		"title", item.Title,
		"use_source_url", useSourceURL,
		"source_url", item.HasSourceURL())

	if !useSourceURL {
		b.emit(StepDownload, idx)
		if item, err = b.deps.Acquirer.Download(ctx, item, b.req.TempRoot); err != nil {
			return nil, err
		}
		b.emit(StepAudio, idx)
		if item, err = b.deps.Acquirer.ExtractAudio(ctx, item, b.req.TempRoot); err != nil {
			return nil, err
		}
	}

	raw, text, err := b.transcript(ctx, idx, item, useSourceURL)
	if err != nil {
		return nil, err
	}

	b.emit(StepPostprocess, idx)
	paragraphs := textproc.SplitParagraphs(text)

	var summary string
	if b.req.Summary && text != "" {
		b.emit(StepSummary, idx)
		if summary, err = b.deps.Summarizer.Summarize(ctx, text); err != nil {
			return nil, err
		}
	}

	b.emit(StepPersist, idx)
	if err := b.persistRaw(idx, raw); err != nil {
		return nil, err
	}

	return &models.TaskResult{
		Item:       item,
		Transcript: models.Transcript{Text: strings.Join(paragraphs, "\n"), Raw: raw},
		Summary:    summary,
	}, nil
}

// transcript returns the cached payload for the item, or transcribes it and
// refreshes the cache entry
func (b *batch) transcript(ctx context.Context, idx int, item *models.VideoItem, useSourceURL bool) (models.RawPayload, string, error) {
	key, err := cache.Key(item)
	if err != nil {
		return nil, "", apperrors.Wrap(err, apperrors.ErrCodeStorage, "failed to derive cache key")
	}

	if b.req.UseCache {
		raw, ok, err := b.store.Get(ctx, key)
		if err != nil {
			return nil, "", apperrors.Wrap(err, apperrors.ErrCodeStorage, "failed to read transcript cache")
		}
		if ok {
			b.emit(StepCache, idx)
			slog.Info("transcript cache hit", "index", idx, "key", key)
			return raw, raw.Text(), nil
		}
	}

	b.emit(StepASR, idx)
	route := asr.DescribeRoute(item, b.settings, useSourceURL)
	slog.Info("transcribing", "index", idx, "mode", route.Mode, "model", route.Model, "source", route.Source)

	transcript, err := b.deps.Router.Transcribe(ctx, item, useSourceURL)
	if err != nil {
		return nil, "", err
	}

	raw := transcript.Raw
	if raw == nil {
		raw = models.RawPayload{}
	}
	if _, ok := raw["text"].(string); !ok {
		raw["text"] = transcript.Text
	}

	if err := b.store.Put(ctx, key, raw); err != nil {
		return nil, "", apperrors.Wrap(err, apperrors.ErrCodeStorage, "failed to write transcript cache")
	}
	return raw, transcript.Text, nil
}

func (b *batch) persistRaw(idx int, raw models.RawPayload) error {
	data, err := cache.MarshalPayload(raw)
	if err != nil {
		return fmt.Errorf("encoding raw payload: %w", err)
	}
	path := filepath.Join(b.outputDir, "raw_"+strconv.Itoa(idx)+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeStorage, "failed to write raw payload")
	}
	return nil
}
