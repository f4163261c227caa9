package exporters

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/killallgit/delivery-api/internal/models"
	"github.com/killallgit/delivery-api/pkg/subtitle"
)

// srtExporter writes video_{i}.srt for items with sentence timing
type srtExporter struct{}

func (srtExporter) Export(_ context.Context, results []models.TaskResult, meta Meta) ([]string, error) {
	var files []string
	for i, r := range results {
		content := subtitle.WriteSRT(segments(r.Transcript.Raw.Sentences()))
		if content == "" {
			continue
		}
		path := filepath.Join(meta.OutputDir, fmt.Sprintf("video_%d.srt", i+1))
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return files, fmt.Errorf("writing %s: %w", path, err)
		}
		files = append(files, path)
	}
	return files, nil
}

func segments(sentences []models.Sentence) []subtitle.Segment {
	out := make([]subtitle.Segment, 0, len(sentences))
	for _, s := range sentences {
		out = append(out, subtitle.Segment{
			Start: time.Duration(s.BeginMS) * time.Millisecond,
			End:   time.Duration(s.EndMS) * time.Millisecond,
			Text:  s.Text,
		})
	}
	return out
}
