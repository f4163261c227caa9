package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

var (
	once    sync.Once
	initErr error
)

// ConfigPath is the fixed location of the optional settings file
const ConfigPath = "./config/settings.yaml"

// legacyEnv maps config keys to the bare environment names operators already
// export for the DashScope tooling. They are checked before the prefixed names.
var legacyEnv = map[string]string{
	"dashscope.api_key":         "DASHSCOPE_API_KEY",
	"dashscope.base_url":        "DASHSCOPE_BASE_URL",
	"dashscope.asr_model":       "ASR_MODEL",
	"dashscope.llm_model":       "LLM_MODEL",
	"dashscope.asr_mode":        "ASR_MODE",
	"dashscope.audio_asr_model": "AUDIO_ASR_MODEL",
}

// Init initializes the configuration system
// This should be called once at application startup
func Init() error {
	once.Do(func() {
		initErr = Load(ConfigPath)
	})
	return initErr
}

// Load sets defaults, binds the environment and reads the settings file at
// path if it exists. Unlike Init it can be called repeatedly (tests).
func Load(path string) error {
	setDefaults()

	viper.SetEnvPrefix("DELIVERY")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	for key, env := range legacyEnv {
		prefixed := "DELIVERY_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := viper.BindEnv(key, env, prefixed); err != nil {
			return fmt.Errorf("binding env %s: %w", env, err)
		}
	}

	configPath := filepath.Clean(path)
	viper.SetConfigFile(configPath)

	if err := viper.ReadInConfig(); err != nil {
		// A missing file just means defaults and env vars
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("error reading config file %s: %w", configPath, err)
		}
	}

	if err := validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// GetConfig returns the current configuration as a struct
// Init() must be called before using this
func GetConfig() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &config, nil
}

// GetString returns a string config value
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetDuration returns a time.Duration config value
func GetDuration(key string) time.Duration {
	return viper.GetDuration(key)
}

// Set overrides a config value, used by command-line flags
func Set(key string, value any) {
	viper.Set(key, value)
}

// validate validates the configuration using Viper values
func validate() error {
	port := viper.GetInt("server.port")
	if port <= 0 || port > 65535 {
		return fmt.Errorf("invalid server port: %d", port)
	}

	if strings.TrimSpace(viper.GetString("dashscope.asr_mode")) == "" {
		return fmt.Errorf("dashscope.asr_mode must not be empty")
	}

	if viper.GetDuration("dashscope.poll_interval") <= 0 {
		return fmt.Errorf("dashscope.poll_interval must be positive")
	}

	if viper.GetInt("dashscope.segment_seconds") <= 0 {
		return fmt.Errorf("dashscope.segment_seconds must be positive")
	}

	switch viper.GetString("storage.cache_backend") {
	case "file", "memory":
	default:
		return fmt.Errorf("unknown storage.cache_backend: %q", viper.GetString("storage.cache_backend"))
	}

	// Batches run on a single worker
	if viper.GetInt("processing.workers") != 1 {
		slog.Warn("processing.workers forced to 1", "configured", viper.GetInt("processing.workers"))
		viper.Set("processing.workers", 1)
	}

	if viper.GetInt("dashscope.retry_attempts") <= 0 {
		viper.Set("dashscope.retry_attempts", 3)
	}
	if viper.GetInt("dashscope.summary_retry_attempts") <= 0 {
		viper.Set("dashscope.summary_retry_attempts", 2)
	}

	return nil
}

// Validate validates a Config struct (for testing)
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if strings.TrimSpace(c.DashScope.ASRMode) == "" {
		return fmt.Errorf("asr mode must not be empty")
	}
	if c.DashScope.SegmentSeconds <= 0 {
		return fmt.Errorf("segment seconds must be positive")
	}
	if c.Processing.Workers != 1 {
		c.Processing.Workers = 1
	}
	if c.DashScope.RetryAttempts <= 0 {
		c.DashScope.RetryAttempts = 3
	}
	return nil
}

// RequireAPIKey fails when no DashScope key is configured. Only commands
// that talk to remote services call it.
func (c *Config) RequireAPIKey() error {
	if strings.TrimSpace(c.DashScope.APIKey) == "" {
		return fmt.Errorf("DASHSCOPE_API_KEY is not set")
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("environment", "development")

	// DashScope defaults
	viper.SetDefault("dashscope.base_url", "https://dashscope.aliyuncs.com/compatible-mode/v1")
	viper.SetDefault("dashscope.api_url", "https://dashscope.aliyuncs.com/api/v1")
	viper.SetDefault("dashscope.asr_model", "paraformer-v2")
	viper.SetDefault("dashscope.llm_model", "qwen-plus")
	viper.SetDefault("dashscope.asr_mode", "auto")
	viper.SetDefault("dashscope.audio_asr_model", "qwen-audio-asr")
	viper.SetDefault("dashscope.poll_interval", 2*time.Second)
	viper.SetDefault("dashscope.segment_seconds", 600)
	viper.SetDefault("dashscope.max_inline_audio_bytes", 7<<20)
	viper.SetDefault("dashscope.retry_attempts", 3)
	viper.SetDefault("dashscope.summary_retry_attempts", 2)
	viper.SetDefault("dashscope.retry_delay", 1*time.Second)
	viper.SetDefault("dashscope.request_timeout", 5*time.Minute)

	// Platform defaults
	viper.SetDefault("platforms.douyin_share_base", "https://www.iesdouyin.com")
	viper.SetDefault("platforms.douyin_user_agent",
		"Mozilla/5.0 (iPhone; CPU iPhone OS 16_6 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.6 Mobile/15E148 Safari/604.1")
	viper.SetDefault("platforms.bilibili_api_base", "https://api.bilibili.com")
	viper.SetDefault("platforms.bilibili_user_agent",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	viper.SetDefault("platforms.timeout", 20*time.Second)

	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 60*time.Second)
	viper.SetDefault("server.write_timeout", 120*time.Second)
	viper.SetDefault("server.shutdown_timeout", 10*time.Second)
	viper.SetDefault("server.max_upload_size", 1<<30)

	// Database defaults
	viper.SetDefault("database.path", "./data/delivery.db")
	viper.SetDefault("database.verbose", false)

	// Storage defaults
	viper.SetDefault("storage.output_dir", "outputs")
	viper.SetDefault("storage.temp_dir", "tmp")
	viper.SetDefault("storage.cache_dir", "")
	viper.SetDefault("storage.cache_backend", "file")
	viper.SetDefault("storage.max_download_size", 2<<30)

	// Processing defaults
	viper.SetDefault("processing.ffmpeg_path", "ffmpeg")
	viper.SetDefault("processing.ffprobe_path", "ffprobe")
	viper.SetDefault("processing.ffmpeg_timeout", 10*time.Minute)
	viper.SetDefault("processing.download_timeout", 10*time.Minute)
	viper.SetDefault("processing.workers", 1)
	viper.SetDefault("processing.poll_interval", 2*time.Second)
	viper.SetDefault("processing.job_retention", 30*24*time.Hour)

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.json", false)
}
