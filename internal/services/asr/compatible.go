package asr

import (
	"context"
	"encoding/json"
	"os"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/killallgit/delivery-api/internal/models"
	apperrors "github.com/killallgit/delivery-api/pkg/errors"
	"github.com/killallgit/delivery-api/pkg/textproc"
)

// Compatible uploads audio to an OpenAI-compatible transcription endpoint
type Compatible struct {
	client openai.Client
}

// NewCompatible creates a compatible-mode transcriber. Retries are left to
// the router, so the SDK's own retries are disabled.
func NewCompatible(apiKey, baseURL string, opts ...option.RequestOption) *Compatible {
	clientOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(baseURL))
	}
	clientOpts = append(clientOpts, opts...)
	return &Compatible{client: openai.NewClient(clientOpts...)}
}

// TranscribeFile uploads audioPath and returns the response text and JSON
func (c *Compatible) TranscribeFile(ctx context.Context, audioPath, model string) (models.Transcript, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return models.Transcript{}, apperrors.MissingInputError(model, "local_audio_path").WithCause(err)
	}
	defer f.Close()

	resp, err := c.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		File:  f,
		Model: openai.AudioModel(model),
	})
	if err != nil {
		if ctx.Err() != nil {
			return models.Transcript{}, ctx.Err()
		}
		return models.Transcript{}, apperrors.ASRBackendError("compatible", err.Error(), nil).WithCause(err)
	}

	raw := models.RawPayload{}
	if rawJSON := resp.RawJSON(); rawJSON != "" {
		if err := json.Unmarshal([]byte(rawJSON), &raw); err != nil {
			raw = models.RawPayload{"text": resp.Text}
		}
	} else {
		raw["text"] = resp.Text
	}

	return models.Transcript{Text: textproc.Clean(raw.Text()), Raw: raw}, nil
}
