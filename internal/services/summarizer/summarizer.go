package summarizer

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/anatolykoptev/go-kit/llm"

	apperrors "github.com/killallgit/delivery-api/pkg/errors"
	"github.com/killallgit/delivery-api/pkg/retry"
)

const (
	systemPrompt = "You are a concise Chinese assistant."
	userPrompt   = "请用一句话总结下面文案：\n"
	temperature  = 0.2
)

// Completer sends one chat completion
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// CompleterFunc adapts a function to Completer
type CompleterFunc func(ctx context.Context, system, prompt string) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, system, prompt string) (string, error) {
	return f(ctx, system, prompt)
}

// NewLLMCompleter creates a Completer backed by an OpenAI-compatible chat endpoint
func NewLLMCompleter(baseURL, apiKey, model string, timeout time.Duration) Completer {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	client := llm.NewClient(baseURL, apiKey, model,
		llm.WithTemperature(temperature),
		llm.WithHTTPClient(&http.Client{Timeout: timeout}),
	)
	return CompleterFunc(func(ctx context.Context, system, prompt string) (string, error) {
		return client.Complete(ctx, system, prompt, llm.WithChatTemperature(temperature))
	})
}

// Summarizer produces one-line synopses of transcripts
type Summarizer struct {
	completer Completer
	attempts  int
	delay     time.Duration
}

// New creates a summarizer; attempts <= 0 means 2
func New(completer Completer, attempts int, delay time.Duration) *Summarizer {
	if attempts <= 0 {
		attempts = 2
	}
	if delay <= 0 {
		delay = time.Second
	}
	return &Summarizer{completer: completer, attempts: attempts, delay: delay}
}

// Summarize returns a one-sentence summary of text
func (s *Summarizer) Summarize(ctx context.Context, text string) (string, error) {
	summary, err := retry.Do(ctx, s.attempts, s.delay, func(ctx context.Context) (string, error) {
		return s.completer.Complete(ctx, systemPrompt, userPrompt+text)
	})
	if err != nil {
		return "", apperrors.ExternalServiceError("llm", err)
	}
	return strings.TrimSpace(summary), nil
}
