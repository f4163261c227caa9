package config

import (
	"net"
	"path/filepath"
	"strconv"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	Environment string           `mapstructure:"environment"`
	DashScope   DashScopeConfig  `mapstructure:"dashscope"`
	Platforms   PlatformsConfig  `mapstructure:"platforms"`
	Server      ServerConfig     `mapstructure:"server"`
	Database    DatabaseConfig   `mapstructure:"database"`
	Storage     StorageConfig    `mapstructure:"storage"`
	Processing  ProcessingConfig `mapstructure:"processing"`
	Logging     LoggingConfig    `mapstructure:"logging"`
}

// DashScopeConfig contains the remote ASR and LLM settings
type DashScopeConfig struct {
	APIKey        string `mapstructure:"api_key"`
	BaseURL       string `mapstructure:"base_url"` // OpenAI-compatible endpoint
	APIURL        string `mapstructure:"api_url"`  // native REST endpoint
	ASRModel      string `mapstructure:"asr_model"`
	LLMModel      string `mapstructure:"llm_model"`
	ASRMode       string `mapstructure:"asr_mode"`
	AudioASRModel string `mapstructure:"audio_asr_model"`

	PollInterval         time.Duration `mapstructure:"poll_interval"`
	SegmentSeconds       int           `mapstructure:"segment_seconds"`
	MaxInlineAudioBytes  int64         `mapstructure:"max_inline_audio_bytes"`
	RetryAttempts        int           `mapstructure:"retry_attempts"`
	SummaryRetryAttempts int           `mapstructure:"summary_retry_attempts"`
	RetryDelay           time.Duration `mapstructure:"retry_delay"`
	RequestTimeout       time.Duration `mapstructure:"request_timeout"`
}

// PlatformsConfig contains the endpoints used to resolve platform links
type PlatformsConfig struct {
	DouyinShareBase   string        `mapstructure:"douyin_share_base"`
	DouyinUserAgent   string        `mapstructure:"douyin_user_agent"`
	BilibiliAPIBase   string        `mapstructure:"bilibili_api_base"`
	BilibiliUserAgent string        `mapstructure:"bilibili_user_agent"`
	Timeout           time.Duration `mapstructure:"timeout"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxUploadSize   int64         `mapstructure:"max_upload_size"`
}

// DatabaseConfig contains job store settings
type DatabaseConfig struct {
	Path    string `mapstructure:"path"`
	Verbose bool   `mapstructure:"verbose"`
}

// StorageConfig contains output, temp and cache locations
type StorageConfig struct {
	OutputDir       string `mapstructure:"output_dir"`
	TempDir         string `mapstructure:"temp_dir"`
	CacheDir        string `mapstructure:"cache_dir"` // empty means {output_dir}/.cache
	CacheBackend    string `mapstructure:"cache_backend"`
	MaxDownloadSize int64  `mapstructure:"max_download_size"`
}

// ProcessingConfig contains media tooling and worker settings
type ProcessingConfig struct {
	FFmpegPath      string        `mapstructure:"ffmpeg_path"`
	FFprobePath     string        `mapstructure:"ffprobe_path"`
	FFmpegTimeout   time.Duration `mapstructure:"ffmpeg_timeout"`
	DownloadTimeout time.Duration `mapstructure:"download_timeout"`
	Workers         int           `mapstructure:"workers"`
	PollInterval    time.Duration `mapstructure:"poll_interval"`
	JobRetention    time.Duration `mapstructure:"job_retention"`
}

// LoggingConfig contains log output settings
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// Address returns the host:port the server listens on
func (s ServerConfig) Address() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// ResolvedCacheDir returns the transcript cache location
func (s StorageConfig) ResolvedCacheDir() string {
	if s.CacheDir != "" {
		return s.CacheDir
	}
	return filepath.Join(s.OutputDir, ".cache")
}
