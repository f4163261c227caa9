package exporters

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gomutex/godocx"

	"github.com/killallgit/delivery-api/internal/models"
	"github.com/killallgit/delivery-api/pkg/textproc"
)

// wordExporter writes {batch}.docx with a heading per video
type wordExporter struct{}

func (wordExporter) Export(_ context.Context, results []models.TaskResult, meta Meta) ([]string, error) {
	doc, err := godocx.NewDocument()
	if err != nil {
		return nil, fmt.Errorf("creating document: %w", err)
	}

	if _, err := doc.AddHeading("交付信息", 1); err != nil {
		return nil, err
	}
	doc.AddParagraph("客户/账号：" + meta.BatchName)
	doc.AddParagraph("日期：" + meta.Date.Format("2006-01-02"))
	doc.AddParagraph(fmt.Sprintf("总条数：%d", len(results)))

	for i, r := range results {
		if _, err := doc.AddHeading(fmt.Sprintf("视频 %d: %s", i+1, r.Item.Title), 2); err != nil {
			return nil, err
		}
		if r.Item.InputValue != "" {
			doc.AddParagraph("链接/来源：" + r.Item.InputValue)
		}
		if r.Summary != "" {
			doc.AddParagraph("摘要：" + r.Summary)
		}
		if published := formatPublished(r.Item.PublishedAt); published != "" {
			doc.AddParagraph("发布时间：" + published)
		}
		if duration := formatDuration(r.Item.DurationMS); duration != "" {
			doc.AddParagraph("时长：" + duration)
		}

		doc.AddParagraph("文案：")
		for _, para := range strings.Split(r.Transcript.Text, "\n") {
			if para = strings.TrimSpace(para); para != "" {
				doc.AddParagraph(para)
			}
		}
	}

	path := filepath.Join(meta.OutputDir, wordFileName(meta.BatchName))
	if err := doc.SaveTo(path); err != nil {
		return nil, fmt.Errorf("writing %s: %w", path, err)
	}
	return []string{path}, nil
}

func wordFileName(batch string) string {
	name := strings.TrimSpace(textproc.SanitizeFilename(batch))
	if name == "" {
		name = "delivery"
	}
	return name + ".docx"
}
