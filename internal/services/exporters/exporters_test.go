package exporters

import (
	"archive/zip"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/killallgit/delivery-api/internal/models"
	apperrors "github.com/killallgit/delivery-api/pkg/errors"
)

func sampleResults() []models.TaskResult {
	published := time.Date(2024, 3, 9, 18, 30, 5, 0, time.Local)
	return []models.TaskResult{
		{
			Item: &models.VideoItem{
				InputValue:  "https://v.douyin.com/abc/",
				Title:       "春日探店",
				PublishedAt: &published,
				DurationMS:  95_000,
				Platform:    models.PlatformDouyin,
			},
			Transcript: models.Transcript{
				Text: "第一段内容。\n第二段内容。",
				Raw: models.RawPayload{
					"transcripts": []interface{}{
						map[string]interface{}{
							"text": "第一段内容。第二段内容。",
							"sentences": []interface{}{
								map[string]interface{}{"begin_time": float64(0), "end_time": float64(1500), "text": "第一段内容。"},
								map[string]interface{}{"begin_time": float64(1500), "end_time": float64(3200), "text": "第二段内容。"},
							},
						},
					},
				},
			},
			Summary: "一家春日咖啡店的探店记录。",
		},
		{
			Item: &models.VideoItem{
				InputValue: "/data/clip.mp4",
				Title:      "clip",
				Platform:   models.PlatformLocal,
			},
			Transcript: models.Transcript{
				Text: "本地视频的文案。",
				Raw:  models.RawPayload{"text": "本地视频的文案。"},
			},
		},
	}
}

func testMeta(t *testing.T) Meta {
	return Meta{
		BatchName: "客户A",
		OutputDir: filepath.Join(t.TempDir(), "客户A_20240309"),
		Date:      time.Date(2024, 3, 9, 0, 0, 0, 0, time.Local),
	}
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		name    string
		values  []string
		want    []Format
		wantErr bool
	}{
		{"comma list", []string{"md,xlsx"}, []Format{FormatMarkdown, FormatExcel}, false},
		{"repeated flags", []string{"srt", " MD "}, []Format{FormatSRT, FormatMarkdown}, false},
		{"duplicates dropped", []string{"md,md", "md"}, []Format{FormatMarkdown}, false},
		{"empty parts ignored", []string{",xlsx,"}, []Format{FormatExcel}, false},
		{"word and excel", []string{"docx,xlsx"}, []Format{FormatWord, FormatExcel}, false},
		{"unknown format", []string{"md,pdf"}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFormats(tt.values...)
			if tt.wantErr {
				assert.True(t, apperrors.Is(err, apperrors.ErrCodeValidation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExportUnknownFormat(t *testing.T) {
	_, err := Export(context.Background(), Format("pdf"), sampleResults(), testMeta(t))
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeValidation))
}

func TestMarkdownExport(t *testing.T) {
	meta := testMeta(t)

	files, err := Export(context.Background(), FormatMarkdown, sampleResults(), meta)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, filepath.Join(meta.OutputDir, "delivery.md"), files[0])
	assert.Equal(t, filepath.Join(meta.OutputDir, "delivery.html"), files[1])

	md, err := os.ReadFile(files[0])
	require.NoError(t, err)
	doc := string(md)

	assert.Contains(t, doc, "# 交付信息")
	assert.Contains(t, doc, "- 客户/账号：客户A")
	assert.Contains(t, doc, "- 日期：2024-03-09")
	assert.Contains(t, doc, "- 总条数：2")
	assert.Contains(t, doc, "## 视频 1: 春日探店")
	assert.Contains(t, doc, "- 链接/来源：https://v.douyin.com/abc/")
	assert.Contains(t, doc, "- 摘要：一家春日咖啡店的探店记录。")
	assert.Contains(t, doc, "- 发布时间：2024-03-09 18:30:05")
	assert.Contains(t, doc, "- 时长：01:35")
	assert.Contains(t, doc, "\n第一段内容。\n\n第二段内容。\n")
	assert.Contains(t, doc, "## 视频 2: clip")

	page, err := os.ReadFile(files[1])
	require.NoError(t, err)
	assert.Contains(t, string(page), "<title>客户A</title>")
	assert.Contains(t, string(page), "<h1>交付信息</h1>")
	assert.Contains(t, string(page), "<p>第二段内容。</p>")
}

// documentXML returns the body part of a .docx archive
func documentXML(t *testing.T, path string) string {
	t.Helper()
	r, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer r.Close()

	for _, f := range r.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		require.NoError(t, err)
		defer rc.Close()
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		return string(data)
	}
	t.Fatalf("word/document.xml not found in %s", path)
	return ""
}

func TestWordExport(t *testing.T) {
	meta := testMeta(t)

	files, err := Export(context.Background(), FormatWord, sampleResults(), meta)
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(meta.OutputDir, "客户A.docx")}, files)

	doc := documentXML(t, files[0])
	assert.Contains(t, doc, "Heading1")
	assert.Contains(t, doc, "Heading2")
	for _, want := range []string{
		"交付信息",
		"客户/账号：客户A",
		"日期：2024-03-09",
		"总条数：2",
		"视频 1: 春日探店",
		"链接/来源：https://v.douyin.com/abc/",
		"摘要：一家春日咖啡店的探店记录。",
		"发布时间：2024-03-09 18:30:05",
		"时长：01:35",
		"文案：",
		"第一段内容。",
		"第二段内容。",
		"视频 2: clip",
		"本地视频的文案。",
	} {
		assert.Contains(t, doc, want)
	}
}

func TestWordFileName(t *testing.T) {
	assert.Equal(t, "客户A.docx", wordFileName("客户A"))
	assert.Equal(t, "a_b.docx", wordFileName("a/b"))
	assert.Equal(t, "delivery.docx", wordFileName(""))
	assert.Equal(t, "delivery.docx", wordFileName("   "))
}

func TestMarkdownOmitsUnknownFields(t *testing.T) {
	results := sampleResults()[1:]
	doc := string(buildMarkdown(results, testMeta(t)))

	assert.NotContains(t, doc, "发布时间")
	assert.NotContains(t, doc, "时长")
	assert.NotContains(t, doc, "摘要")
}

func TestExcelExport(t *testing.T) {
	meta := testMeta(t)

	files, err := Export(context.Background(), FormatExcel, sampleResults(), meta)
	require.NoError(t, err)
	require.Len(t, files, 1)

	f, err := excelize.OpenFile(files[0])
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{"序号", "视频标题", "链接", "发布时间", "时长", "文案", "摘要(可选)", "关键词(可选)"}, rows[0])
	assert.Equal(t, "1", rows[1][0])
	assert.Equal(t, "春日探店", rows[1][1])
	assert.Equal(t, "https://v.douyin.com/abc/", rows[1][2])
	assert.Equal(t, "2024-03-09 18:30:05", rows[1][3])
	assert.Equal(t, "01:35", rows[1][4])
	assert.Equal(t, "第一段内容。\n第二段内容。", rows[1][5])
	assert.Equal(t, "一家春日咖啡店的探店记录。", rows[1][6])

	assert.Equal(t, "2", rows[2][0])
	assert.Equal(t, "clip", rows[2][1])
	assert.Equal(t, "", rows[2][3])
}

func TestSRTExport(t *testing.T) {
	meta := testMeta(t)

	files, err := Export(context.Background(), FormatSRT, sampleResults(), meta)
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(meta.OutputDir, "video_1.srt")}, files)

	content, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Equal(t,
		"1\n00:00:00,000 --> 00:00:01,500\n第一段内容。\n\n2\n00:00:01,500 --> 00:00:03,200\n第二段内容。\n",
		string(content))

	_, err = os.Stat(filepath.Join(meta.OutputDir, "video_2.srt"))
	assert.True(t, os.IsNotExist(err))
}

func TestExportAll(t *testing.T) {
	meta := testMeta(t)

	files, err := ExportAll(context.Background(), DefaultFormats, sampleResults(), meta)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(meta.OutputDir, "客户A.docx"),
		filepath.Join(meta.OutputDir, "delivery.xlsx"),
	}, files)
	for _, f := range files {
		assert.FileExists(t, f)
	}
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "", formatPublished(nil))
	assert.Equal(t, "", formatPublished(&time.Time{}))
	assert.Equal(t, "", formatDuration(0))
	assert.Equal(t, "00:59", formatDuration(59_999))
	assert.Equal(t, "61:01", formatDuration(3_661_000))
}
