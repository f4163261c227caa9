package models

import (
	"path/filepath"
	"strings"
	"time"
)

// Platform identifies where a video comes from
type Platform string

const (
	PlatformAuto     Platform = "auto"
	PlatformDouyin   Platform = "douyin"
	PlatformBilibili Platform = "bilibili"
	PlatformLocal    Platform = "local"
)

// ParsePlatform normalizes a user-supplied platform hint. Empty and unknown
// values resolve to PlatformAuto.
func ParsePlatform(s string) Platform {
	switch Platform(strings.ToLower(strings.TrimSpace(s))) {
	case PlatformDouyin:
		return PlatformDouyin
	case PlatformBilibili:
		return PlatformBilibili
	case PlatformLocal:
		return PlatformLocal
	default:
		return PlatformAuto
	}
}

// VideoItem is one input resolved to a concrete media reference.
// It is created by the resolver and filled in by media acquisition.
type VideoItem struct {
	InputValue      string            `json:"input_value"`
	Title           string            `json:"title"`
	SourceURL       string            `json:"source_url,omitempty"`
	VideoID         string            `json:"video_id,omitempty"`
	LocalVideoPath  string            `json:"local_video_path,omitempty"`
	LocalAudioPath  string            `json:"local_audio_path,omitempty"`
	PublishedAt     *time.Time        `json:"published_at,omitempty"`
	DurationMS      int64             `json:"duration_ms,omitempty"` // always milliseconds
	Platform        Platform          `json:"platform"`
	DownloadHeaders map[string]string `json:"download_headers,omitempty"`
}

// NewVideoItem creates an unresolved item for an input string
func NewVideoItem(input string) *VideoItem {
	return &VideoItem{InputValue: input, Platform: PlatformAuto}
}

// HasSourceURL reports whether the item can be fetched remotely
func (v *VideoItem) HasSourceURL() bool {
	return v.SourceURL != ""
}

// VideoStem returns the local video file name without its extension
func (v *VideoItem) VideoStem() string {
	base := filepath.Base(v.LocalVideoPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// RawPayload is the verbatim response of an ASR backend
type RawPayload map[string]interface{}

// Text returns the top-level "text" field if it is a string
func (r RawPayload) Text() string {
	if r == nil {
		return ""
	}
	s, _ := r["text"].(string)
	return s
}

// Transcript holds cleaned text together with the backend payload it came from
type Transcript struct {
	Text string     `json:"text"`
	Raw  RawPayload `json:"raw"`
}

// TaskResult is the final state of one batch item, ready for export
type TaskResult struct {
	Item       *VideoItem `json:"item"`
	Transcript Transcript `json:"transcript"`
	Summary    string     `json:"summary,omitempty"`
}

// Sentence is a timed transcript fragment. Times are in milliseconds.
type Sentence struct {
	BeginMS int64  `json:"begin_time"`
	EndMS   int64  `json:"end_time"`
	Text    string `json:"text"`
}

// Sentences extracts sentence-level timing from a URL-mode payload
// (transcripts[0].sentences). It returns nil when none is present.
func (r RawPayload) Sentences() []Sentence {
	transcripts, ok := r["transcripts"].([]interface{})
	if !ok || len(transcripts) == 0 {
		return nil
	}
	first, ok := transcripts[0].(map[string]interface{})
	if !ok {
		return nil
	}
	items, ok := first["sentences"].([]interface{})
	if !ok {
		return nil
	}

	sentences := make([]Sentence, 0, len(items))
	for _, it := range items {
		m, ok := it.(map[string]interface{})
		if !ok {
			continue
		}
		s := Sentence{
			BeginMS: toInt64(m["begin_time"]),
			EndMS:   toInt64(m["end_time"]),
		}
		s.Text, _ = m["text"].(string)
		sentences = append(sentences, s)
	}
	return sentences
}

func toInt64(v interface{}) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	default:
		return 0
	}
}
