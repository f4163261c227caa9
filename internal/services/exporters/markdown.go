package exporters

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/killallgit/delivery-api/internal/models"
)

// markdownExporter writes delivery.md and an HTML rendering of it
type markdownExporter struct{}

func (markdownExporter) Export(_ context.Context, results []models.TaskResult, meta Meta) ([]string, error) {
	doc := buildMarkdown(results, meta)

	mdPath := filepath.Join(meta.OutputDir, "delivery.md")
	if err := os.WriteFile(mdPath, doc, 0o644); err != nil {
		return nil, fmt.Errorf("writing %s: %w", mdPath, err)
	}

	var body bytes.Buffer
	if err := goldmark.Convert(doc, &body); err != nil {
		return nil, fmt.Errorf("rendering markdown: %w", err)
	}

	var page bytes.Buffer
	fmt.Fprintf(&page, "<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>%s</title>\n</head>\n<body>\n",
		html.EscapeString(meta.BatchName))
	page.Write(body.Bytes())
	page.WriteString("</body>\n</html>\n")

	htmlPath := filepath.Join(meta.OutputDir, "delivery.html")
	if err := os.WriteFile(htmlPath, page.Bytes(), 0o644); err != nil {
		return nil, fmt.Errorf("writing %s: %w", htmlPath, err)
	}
	return []string{mdPath, htmlPath}, nil
}

func buildMarkdown(results []models.TaskResult, meta Meta) []byte {
	var b bytes.Buffer

	b.WriteString("# 交付信息\n\n")
	fmt.Fprintf(&b, "- 客户/账号：%s\n", meta.BatchName)
	fmt.Fprintf(&b, "- 日期：%s\n", meta.Date.Format("2006-01-02"))
	fmt.Fprintf(&b, "- 总条数：%d\n", len(results))

	for i, r := range results {
		fmt.Fprintf(&b, "\n## 视频 %d: %s\n\n", i+1, r.Item.Title)

		if r.Item.InputValue != "" {
			fmt.Fprintf(&b, "- 链接/来源：%s\n", r.Item.InputValue)
		}
		if r.Summary != "" {
			fmt.Fprintf(&b, "- 摘要：%s\n", r.Summary)
		}
		if published := formatPublished(r.Item.PublishedAt); published != "" {
			fmt.Fprintf(&b, "- 发布时间：%s\n", published)
		}
		if duration := formatDuration(r.Item.DurationMS); duration != "" {
			fmt.Fprintf(&b, "- 时长：%s\n", duration)
		}

		b.WriteString("\n文案：\n")
		for _, para := range strings.Split(r.Transcript.Text, "\n") {
			if para = strings.TrimSpace(para); para != "" {
				fmt.Fprintf(&b, "\n%s\n", para)
			}
		}
	}
	return b.Bytes()
}
