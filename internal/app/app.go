// Package app assembles the delivery pipeline from configuration.
package app

import (
	"net/http"
	"sync"

	"github.com/openai/openai-go/option"

	"github.com/killallgit/delivery-api/internal/services/acquisition"
	"github.com/killallgit/delivery-api/internal/services/asr"
	"github.com/killallgit/delivery-api/internal/services/cache"
	"github.com/killallgit/delivery-api/internal/services/pipeline"
	"github.com/killallgit/delivery-api/internal/services/resolver"
	"github.com/killallgit/delivery-api/internal/services/summarizer"
	"github.com/killallgit/delivery-api/pkg/config"
	"github.com/killallgit/delivery-api/pkg/download"
	"github.com/killallgit/delivery-api/pkg/ffmpeg"
)

// Components are the long-lived pieces shared by the CLI and the server
type Components struct {
	Media    *ffmpeg.FFmpeg
	Pipeline *pipeline.Orchestrator
}

// Build wires the resolver, acquisition, ASR router and summarizer into an
// orchestrator. It does not check credentials.
func Build(cfg *config.Config) *Components {
	media := ffmpeg.New(cfg.Processing.FFmpegPath, cfg.Processing.FFprobePath, cfg.Processing.FFmpegTimeout)

	opts := download.DefaultOptions()
	if cfg.Storage.MaxDownloadSize > 0 {
		opts.MaxSize = cfg.Storage.MaxDownloadSize
	}
	if cfg.Processing.DownloadTimeout > 0 {
		opts.Timeout = cfg.Processing.DownloadTimeout
	}

	dashscope := asr.NewDashScope(asr.DashScopeConfig{
		APIURL:         cfg.DashScope.APIURL,
		APIKey:         cfg.DashScope.APIKey,
		PollInterval:   cfg.DashScope.PollInterval,
		HTTPClient:     &http.Client{Timeout: cfg.DashScope.RequestTimeout},
		MaxInlineBytes: cfg.DashScope.MaxInlineAudioBytes,
	})

	var compatOpts []option.RequestOption
	if cfg.DashScope.RequestTimeout > 0 {
		compatOpts = append(compatOpts, option.WithRequestTimeout(cfg.DashScope.RequestTimeout))
	}

	router := asr.NewRouter(asr.RouterConfig{
		Settings: asr.Settings{
			Mode:          cfg.DashScope.ASRMode,
			ASRModel:      cfg.DashScope.ASRModel,
			AudioASRModel: cfg.DashScope.AudioASRModel,
		},
		URL:            dashscope,
		Audio:          dashscope,
		File:           asr.NewCompatible(cfg.DashScope.APIKey, cfg.DashScope.BaseURL, compatOpts...),
		Splitter:       media,
		SegmentSeconds: cfg.DashScope.SegmentSeconds,
		RetryAttempts:  cfg.DashScope.RetryAttempts,
		RetryDelay:     cfg.DashScope.RetryDelay,
	})

	completer := summarizer.NewLLMCompleter(cfg.DashScope.BaseURL, cfg.DashScope.APIKey, cfg.DashScope.LLMModel, cfg.DashScope.RequestTimeout)

	orchestrator := pipeline.New(pipeline.Dependencies{
		Resolver: resolver.New(resolver.Config{
			DouyinShareBase:   cfg.Platforms.DouyinShareBase,
			DouyinUserAgent:   cfg.Platforms.DouyinUserAgent,
			BilibiliAPIBase:   cfg.Platforms.BilibiliAPIBase,
			BilibiliUserAgent: cfg.Platforms.BilibiliUserAgent,
			Timeout:           cfg.Platforms.Timeout,
		}),
		Acquirer:   acquisition.NewService(download.NewDownloader(opts), media),
		Router:     router,
		Summarizer: summarizer.New(completer, cfg.DashScope.SummaryRetryAttempts, cfg.DashScope.RetryDelay),
		CacheFor:   CacheFactory(cfg.Storage.CacheBackend),
	})

	return &Components{Media: media, Pipeline: orchestrator}
}

// CacheFactory returns the cache constructor for a backend name. The memory
// backend keeps one cache per directory for the life of the process.
func CacheFactory(backend string) func(dir string) cache.Cache {
	if backend != "memory" {
		return func(dir string) cache.Cache { return cache.NewFileCache(dir) }
	}

	var mu sync.Mutex
	caches := make(map[string]*cache.MemoryCache)
	return func(dir string) cache.Cache {
		mu.Lock()
		defer mu.Unlock()
		c, ok := caches[dir]
		if !ok {
			c = cache.NewMemoryCache()
			caches[dir] = c
		}
		return c
	}
}
