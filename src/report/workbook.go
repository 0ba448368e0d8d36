package report

import (
	"fmt"
	"math"

	"github.com/xuri/excelize/v2"

	"PricingIntelligence/src/config"
	"PricingIntelligence/src/model"
	"PricingIntelligence/src/processor"
	"PricingIntelligence/src/utils"
)

const (
	SheetFeatures    = "Features"
	SheetImportance  = "Importance"
	SheetCorrelation = "Correlation"
	SheetMetrics     = "Metrics"
)

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

// setNumber leaves NaN and Inf cells blank.
func setNumber(f *excelize.File, sheet string, col, row int, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return f.SetCellFloat(sheet, cellName(col, row), v, -1, 64)
}

// WriteWorkbook saves the feature table, importances with a bar chart, the
// correlation heat-map and the run metrics to path.
func WriteWorkbook(path string, result *processor.RunResult, display config.DisplayConfig) error {
	if result == nil {
		return fmt.Errorf("nil run result")
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetFeatures); err != nil {
		return err
	}
	if err := utils.WriteFrame(f, SheetFeatures, result.Features); err != nil {
		return fmt.Errorf("features sheet: %w", err)
	}

	for _, name := range []string{SheetImportance, SheetCorrelation, SheetMetrics} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("add sheet %s: %w", name, err)
		}
	}

	if result.Model != nil {
		if err := writeImportance(f, model.TopN(result.Model.Importances, display.TopFeatures)); err != nil {
			return fmt.Errorf("importance sheet: %w", err)
		}
	}
	if result.Analysis != nil {
		if err := writeCorrelation(f, result.Analysis.Correlation); err != nil {
			return fmt.Errorf("correlation sheet: %w", err)
		}
	}
	if err := writeMetrics(f, result); err != nil {
		return fmt.Errorf("metrics sheet: %w", err)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

func writeImportance(f *excelize.File, top []model.FeatureImportance) error {
	f.SetCellValue(SheetImportance, "A1", "Feature")
	f.SetCellValue(SheetImportance, "B1", "Importance")
	for i, fi := range top {
		f.SetCellValue(SheetImportance, cellName(1, i+2), fi.Feature)
		if err := setNumber(f, SheetImportance, 2, i+2, fi.Importance); err != nil {
			return err
		}
	}
	if len(top) == 0 {
		return nil
	}

	last := len(top) + 1
	return f.AddChart(SheetImportance, "D2", &excelize.Chart{
		Type: excelize.Bar,
		Series: []excelize.ChartSeries{{
			Name:       fmt.Sprintf("%s!$B$1", SheetImportance),
			Categories: fmt.Sprintf("%s!$A$2:$A$%d", SheetImportance, last),
			Values:     fmt.Sprintf("%s!$B$2:$B$%d", SheetImportance, last),
		}},
		Title:  []excelize.RichTextRun{{Text: "Top feature importances"}},
		Legend: excelize.ChartLegend{Position: "none"},
	})
}

func writeCorrelation(f *excelize.File, cm processor.CorrelationMatrix) error {
	n := len(cm.Columns)
	for i, c := range cm.Columns {
		f.SetCellValue(SheetCorrelation, cellName(i+2, 1), c)
		f.SetCellValue(SheetCorrelation, cellName(1, i+2), c)
	}
	for i, row := range cm.Values {
		for j, v := range row {
			if err := setNumber(f, SheetCorrelation, j+2, i+2, v); err != nil {
				return err
			}
		}
	}
	if n == 0 {
		return nil
	}

	return f.SetConditionalFormat(SheetCorrelation,
		fmt.Sprintf("B2:%s", cellName(n+1, n+1)),
		[]excelize.ConditionalFormatOptions{{
			Type:     "3_color_scale",
			Criteria: "=",
			MinType:  "num",
			MidType:  "num",
			MaxType:  "num",
			MinValue: "-1",
			MidValue: "0",
			MaxValue: "1",
			MinColor: "#5A8AC6",
			MidColor: "#FFFFFF",
			MaxColor: "#F8696B",
		}})
}

func writeMetrics(f *excelize.File, result *processor.RunResult) error {
	rows := [][2]interface{}{
		{"Run ID", result.RunID},
		{"Started", result.StartedAt.Format("2006-01-02 15:04:05")},
		{"Elapsed (s)", result.Elapsed.Seconds()},
		{"Raw rows", result.Raw.Rows},
		{"Dropped rows", result.Dropped},
		{"Feature rows", result.Features.Nrow()},
	}
	if m := result.Model; m != nil {
		rows = append(rows,
			[2]interface{}{"Train rows", m.TrainRows},
			[2]interface{}{"Test rows", m.TestRows},
			[2]interface{}{"R2", m.Metrics.R2},
			[2]interface{}{"MAE", m.Metrics.MAE},
			[2]interface{}{"MSE", m.Metrics.MSE},
			[2]interface{}{"RMSE", m.Metrics.RMSE},
		)
	}

	f.SetCellValue(SheetMetrics, "A1", "Metric")
	f.SetCellValue(SheetMetrics, "B1", "Value")
	for i, r := range rows {
		f.SetCellValue(SheetMetrics, cellName(1, i+2), r[0])
		if v, ok := r[1].(float64); ok {
			if err := setNumber(f, SheetMetrics, 2, i+2, v); err != nil {
				return err
			}
			continue
		}
		if err := f.SetCellValue(SheetMetrics, cellName(2, i+2), r[1]); err != nil {
			return err
		}
	}
	return nil
}
