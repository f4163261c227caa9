package pipeline

import (
	"context"

	"github.com/killallgit/delivery-api/internal/models"
)

// Summarizer produces a one-line synopsis of a transcript
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// Step tags a pipeline stage in progress events
type Step string

const (
	StepParse       Step = "parse"
	StepDownload    Step = "download"
	StepAudio       Step = "audio"
	StepCache       Step = "cache"
	StepASR         Step = "asr"
	StepPostprocess Step = "postprocess"
	StepSummary     Step = "summary"
	StepPersist     Step = "persist"
)

var stepMessages = map[Step]string{
	StepParse:       "解析输入",
	StepDownload:    "下载视频",
	StepAudio:       "抽取音频",
	StepCache:       "读取缓存",
	StepASR:         "语音识别",
	StepPostprocess: "文本后处理",
	StepSummary:     "生成摘要",
	StepPersist:     "保存结果",
}

// Message returns the human-readable description of a step
func (s Step) Message() string {
	return stepMessages[s]
}

// ProgressFunc observes stage transitions. It is advisory only.
type ProgressFunc func(step Step, current, total int, message string)

// Request is one batch run
type Request struct {
	Inputs       []string
	BatchName    string
	OutputRoot   string
	TempRoot     string
	CacheDir     string // empty means {OutputRoot}/.cache
	Summary      bool
	UseCache     bool
	PlatformHint models.Platform
	OnProgress   ProgressFunc
}

// Result is the outcome of a completed batch
type Result struct {
	OutputDir string
	Results   []models.TaskResult
}
