package asr

import (
	"context"

	"github.com/killallgit/delivery-api/internal/models"
)

// URLTranscriber transcribes a remote media URL as an asynchronous job
type URLTranscriber interface {
	TranscribeURL(ctx context.Context, sourceURL, model string) (models.Transcript, error)
}

// AudioTranscriber sends a local audio file in a single request
type AudioTranscriber interface {
	TranscribeAudio(ctx context.Context, audioPath, model string) (models.Transcript, error)
}

// FileTranscriber uploads a local audio file to an OpenAI-compatible endpoint
type FileTranscriber interface {
	TranscribeFile(ctx context.Context, audioPath, model string) (models.Transcript, error)
}

// Splitter cuts audio into fixed-length segments and returns them in order
type Splitter interface {
	SplitAudio(ctx context.Context, input, outDir string, segmentSeconds int) ([]string, error)
}

// Transcriber is what the pipeline needs from the router
type Transcriber interface {
	Transcribe(ctx context.Context, item *models.VideoItem, useSourceURL bool) (models.Transcript, error)
	Settings() Settings
}
