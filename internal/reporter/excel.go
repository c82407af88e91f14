package reporter

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"ui_regression/internal/config"
	"ui_regression/internal/model"
)

const (
	// Excel 相关
	defaultSheetNameFormat = "report_%s"
	defaultColumnWidth     = 24

	// 样式相关
	patternType    = "pattern"
	patternValue   = 1
	errorBgColor   = "FF5900"
	warningBgColor = "FFEB9C"
)

// 表头定义
var excelHeaders = []string{
	"Case #", "Case name", "Result", "Attempts", "Duration (ms)",
	"Steps", "Logs", "Error", "Screenshot",
}

// Excel adds one timestamped sheet per run to a workbook. Without
// overwrite, earlier runs stay in the same workbook as older sheets.
type Excel struct {
	opts    config.ReporterOptions
	console *Console
}

func (r *Excel) GenerateReport(run *model.RunResult) error {
	if err := os.MkdirAll(r.opts.ReportDir, 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	path := filepath.Join(r.opts.ReportDir, r.opts.ReportFilename+".xlsx")

	f, isNew, err := openWorkbook(path, r.opts.Overwrite)
	if err != nil {
		return err
	}
	defer f.Close()

	// 创建新的工作表
	sheetName := freeSheetName(f, fmt.Sprintf(defaultSheetNameFormat, run.StartedAt.Format(timeFormat)))
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if isNew {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return fmt.Errorf("remove default sheet: %w", err)
		}
	}

	lastCol, _ := excelize.ColumnNumberToName(len(excelHeaders))
	if err := f.SetColWidth(sheetName, "A", lastCol, defaultColumnWidth); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}

	// 写入表头
	for i, header := range excelHeaders {
		cellName, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cellName, header)
	}

	errorStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: patternType, Pattern: patternValue, Color: []string{errorBgColor}},
	})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}
	warningStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: patternType, Pattern: patternValue, Color: []string{warningBgColor}},
	})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}

	// 写入测试结果
	for i, result := range run.Results {
		r.writeTestResult(f, sheetName, i+2, result, errorStyle, warningStyle)
	}

	// 写入汇总信息
	r.writeSummary(f, sheetName, len(run.Results)+3, run)

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save report: %w", err)
	}

	if r.console != nil {
		fmt.Fprintf(r.console.out, "Excel report saved to %s (sheet %s)\n", path, sheetName)
		r.console.printSummary(run)
	}
	return nil
}

// freeSheetName returns base, or base_2, base_3... when the workbook already
// has a sheet of that name.
func freeSheetName(f *excelize.File, base string) string {
	name := base
	for i := 2; ; i++ {
		if idx, _ := f.GetSheetIndex(name); idx < 0 {
			return name
		}
		name = fmt.Sprintf("%s_%d", base, i)
	}
}

// openWorkbook opens path, or starts a new workbook when it does not exist
// or overwrite is set.
func openWorkbook(path string, overwrite bool) (*excelize.File, bool, error) {
	if overwrite {
		return excelize.NewFile(), true, nil
	}
	f, err := excelize.OpenFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return excelize.NewFile(), true, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("open workbook %s: %w", path, err)
	}
	return f, false, nil
}

func (r *Excel) writeTestResult(f *excelize.File, sheet string, row int, result model.TestResult, errorStyle, warningStyle int) {
	var steps, logs []string
	for _, s := range result.Steps {
		mark := "✓"
		if !s.Success {
			mark = "✗"
		}
		steps = append(steps, mark+" "+s.Step.Describe())
		if s.Log != "" {
			logs = append(logs, s.Log)
		}
	}

	cells := []interface{}{
		result.CaseNumber,
		result.CaseName,
		result.Success,
		result.Attempts,
		result.ExecutionTime.Milliseconds(),
		strings.Join(steps, "\n"),
		strings.Join(logs, "\n"),
		result.Error,
		result.ScreenshotPath,
	}

	for i, cell := range cells {
		cellName, _ := excelize.CoordinatesToCellName(i+1, row)
		f.SetCellValue(sheet, cellName, cell)

		// 失败标红，慢用例标黄
		if !result.Success {
			f.SetCellStyle(sheet, cellName, cellName, errorStyle)
		} else if result.ExecutionTime > slowTestThreshold {
			f.SetCellStyle(sheet, cellName, cellName, warningStyle)
		}
	}
}

func (r *Excel) writeSummary(f *excelize.File, sheet string, startRow int, run *model.RunResult) {
	f.SetCellValue(sheet, fmt.Sprintf("A%d", startRow), "Summary")
	f.SetCellValue(sheet, fmt.Sprintf("A%d", startRow+1), fmt.Sprintf("Suite: %s", run.SuiteName))
	f.SetCellValue(sheet, fmt.Sprintf("A%d", startRow+2), fmt.Sprintf("Duration: %.3fs", run.Duration.Seconds()))
	f.SetCellValue(sheet, fmt.Sprintf("A%d", startRow+3), fmt.Sprintf("Cases: %d", len(run.Results)))
	f.SetCellValue(sheet, fmt.Sprintf("A%d", startRow+4), fmt.Sprintf("Failed: %d", run.Failed()))
	f.SetCellValue(sheet, fmt.Sprintf("A%d", startRow+5), fmt.Sprintf("Run ID: %s", run.RunID))
	f.SetCellValue(sheet, fmt.Sprintf("A%d", startRow+6), fmt.Sprintf("Reporter: %s (%s mode)", run.Reporter, run.Mode))
}
