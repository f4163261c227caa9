package summarizer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/killallgit/delivery-api/pkg/errors"
)

func TestSummarize(t *testing.T) {
	var gotSystem, gotPrompt string
	s := New(CompleterFunc(func(_ context.Context, system, prompt string) (string, error) {
		gotSystem, gotPrompt = system, prompt
		return "  一句话总结。\n", nil
	}), 2, time.Millisecond)

	summary, err := s.Summarize(context.Background(), "今天天气很好。")
	require.NoError(t, err)

	assert.Equal(t, "一句话总结。", summary)
	assert.Equal(t, "You are a concise Chinese assistant.", gotSystem)
	assert.True(t, strings.HasPrefix(gotPrompt, "请用一句话总结下面文案：\n"))
	assert.True(t, strings.HasSuffix(gotPrompt, "今天天气很好。"))
}

func TestSummarizeRetriesTwice(t *testing.T) {
	calls := 0
	s := New(CompleterFunc(func(context.Context, string, string) (string, error) {
		calls++
		if calls == 1 {
			return "", errors.New("rate limited")
		}
		return "ok", nil
	}), 0, time.Millisecond)

	summary, err := s.Summarize(context.Background(), "text")
	require.NoError(t, err)
	assert.Equal(t, "ok", summary)
	assert.Equal(t, 2, calls)
}

func TestSummarizeGivesUp(t *testing.T) {
	calls := 0
	s := New(CompleterFunc(func(context.Context, string, string) (string, error) {
		calls++
		return "", errors.New("down")
	}), 2, time.Millisecond)

	_, err := s.Summarize(context.Background(), "text")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeExternalService))
	assert.Contains(t, err.Error(), "down")
	assert.Equal(t, 2, calls)
}
