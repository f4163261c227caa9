package exporters

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/killallgit/delivery-api/internal/models"
)

const sheetName = "交付"

var excelHeaders = []interface{}{"序号", "视频标题", "链接", "发布时间", "时长", "文案", "摘要(可选)", "关键词(可选)"}

// excelExporter writes delivery.xlsx with one row per video
type excelExporter struct{}

func (excelExporter) Export(_ context.Context, results []models.TaskResult, meta Meta) ([]string, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(sheetName, "A1", &excelHeaders); err != nil {
		return nil, err
	}

	for i, r := range results {
		row := []interface{}{
			i + 1,
			r.Item.Title,
			r.Item.InputValue,
			formatPublished(r.Item.PublishedAt),
			formatDuration(r.Item.DurationMS),
			r.Transcript.Text,
			r.Summary,
			"",
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return nil, err
		}
	}

	path := filepath.Join(meta.OutputDir, "delivery.xlsx")
	if err := f.SaveAs(path); err != nil {
		return nil, fmt.Errorf("writing %s: %w", path, err)
	}
	return []string{path}, nil
}
