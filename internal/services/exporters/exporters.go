package exporters

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/killallgit/delivery-api/internal/models"
	apperrors "github.com/killallgit/delivery-api/pkg/errors"
)

// Format names a delivery document type
type Format string

const (
	FormatWord     Format = "docx"
	FormatMarkdown Format = "md"
	FormatExcel    Format = "xlsx"
	FormatSRT      Format = "srt"
)

// DefaultFormats are used by the CLI when no --export is given
var DefaultFormats = []Format{FormatWord, FormatExcel}

// Meta describes the batch being exported
type Meta struct {
	BatchName string
	OutputDir string
	Date      time.Time
}

// Exporter writes one format and returns the files it created
type Exporter interface {
	Export(ctx context.Context, results []models.TaskResult, meta Meta) ([]string, error)
}

var registry = map[Format]Exporter{
	FormatWord:     wordExporter{},
	FormatMarkdown: markdownExporter{},
	FormatExcel:    excelExporter{},
	FormatSRT:      srtExporter{},
}

// Formats lists every supported format in display order
func Formats() []Format {
	return []Format{FormatWord, FormatMarkdown, FormatExcel, FormatSRT}
}

// ParseFormats splits a comma-separated list, rejecting unknown names
func ParseFormats(values ...string) ([]Format, error) {
	var formats []Format
	seen := map[Format]bool{}
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			f := Format(strings.ToLower(strings.TrimSpace(part)))
			if f == "" || seen[f] {
				continue
			}
			if _, ok := registry[f]; !ok {
				return nil, apperrors.ValidationError("export", fmt.Sprintf("unknown format %q", f))
			}
			seen[f] = true
			formats = append(formats, f)
		}
	}
	return formats, nil
}

// Export writes results in the given format under meta.OutputDir
func Export(ctx context.Context, format Format, results []models.TaskResult, meta Meta) ([]string, error) {
	exporter, ok := registry[format]
	if !ok {
		return nil, apperrors.ValidationError("export", fmt.Sprintf("unknown format %q", format))
	}
	if meta.Date.IsZero() {
		meta.Date = time.Now()
	}
	if err := os.MkdirAll(meta.OutputDir, 0o755); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeStorage, "failed to create output directory")
	}
	return exporter.Export(ctx, results, meta)
}

// ExportAll writes every format in order and returns all created files
func ExportAll(ctx context.Context, formats []Format, results []models.TaskResult, meta Meta) ([]string, error) {
	var files []string
	for _, f := range formats {
		written, err := Export(ctx, f, results, meta)
		if err != nil {
			return files, fmt.Errorf("export %s: %w", f, err)
		}
		files = append(files, written...)
	}
	return files, nil
}

// formatPublished renders a publish time, empty when unknown
func formatPublished(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04:05")
}

// formatDuration renders milliseconds as mm:ss, empty when unknown
func formatDuration(ms int64) string {
	if ms <= 0 {
		return ""
	}
	total := ms / 1000
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
