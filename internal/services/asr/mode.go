package asr

import (
	"strings"

	"github.com/killallgit/delivery-api/internal/models"
)

// Mode is the transcription strategy selected for an item
type Mode string

const (
	ModeAuto         Mode = "auto"
	ModeDashScopeURL Mode = "dashscope-url"
	ModeAudioASR     Mode = "audio-asr"
	ModeQwenAudioASR Mode = "qwen-audio-asr"
)

// Settings are the configuration values that drive routing
type Settings struct {
	Mode          string // configured asr_mode
	ASRModel      string
	AudioASRModel string
}

// Route describes which backend an item goes to
type Route struct {
	Mode   Mode   `json:"mode"`
	Model  string `json:"model"`
	Source string `json:"source"` // "url" or "local"
}

// configuredMode returns the lower-cased configured mode, auto when unset
func (s Settings) configuredMode() Mode {
	m := strings.ToLower(strings.TrimSpace(s.Mode))
	if m == "" {
		return ModeAuto
	}
	return Mode(m)
}

// UseSourceURL reports whether the item may be transcribed straight from its
// remote URL. Only Douyin links qualify.
func UseSourceURL(item *models.VideoItem, settings Settings) bool {
	mode := settings.configuredMode()
	return (mode == ModeAuto || mode == ModeDashScopeURL) &&
		item.HasSourceURL() &&
		item.Platform == models.PlatformDouyin
}

// SelectMode picks the backend for an item. Local files never take the URL
// path, whatever useSourceURL says.
func SelectMode(item *models.VideoItem, settings Settings, useSourceURL bool) Mode {
	mode := settings.configuredMode()
	if useSourceURL && item.Platform != models.PlatformLocal && (mode == ModeAuto || mode == ModeDashScopeURL) {
		return ModeDashScopeURL
	}
	if item.Platform == models.PlatformBilibili || item.Platform == models.PlatformLocal ||
		mode == ModeAudioASR || mode == ModeQwenAudioASR {
		return ModeAudioASR
	}
	return mode
}

// DescribeRoute returns the selected mode together with its model and input source
func DescribeRoute(item *models.VideoItem, settings Settings, useSourceURL bool) Route {
	switch mode := SelectMode(item, settings, useSourceURL); mode {
	case ModeDashScopeURL:
		return Route{Mode: mode, Model: settings.ASRModel, Source: "url"}
	case ModeAudioASR:
		return Route{Mode: mode, Model: settings.AudioASRModel, Source: "local"}
	default:
		return Route{Mode: mode, Model: settings.ASRModel, Source: "local"}
	}
}
