package reporter

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"ui_regression/internal/config"
	"ui_regression/internal/model"
)

func sampleRun() *model.RunResult {
	return &model.RunResult{
		RunID:     "0b7c1f7e-4c1c-4b43-9a43-6a3e1d1f2a10",
		SuiteName: "Fonctionnalités de base de France Culture",
		URL:       "https://www.franceculture.fr/",
		Mode:      "run",
		Reporter:  "json",
		StartedAt: time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC),
		Duration:  4200 * time.Millisecond,
		Results: []model.TestResult{
			{
				CaseNumber: 1,
				CaseName:   "vérifie le titre",
				Success:    true,
				Attempts:   1,
				Steps: []model.StepResult{{
					Step:     model.Step{Condition: model.TitleInclude, Value: "France Culture"},
					Success:  true,
					Observed: "France Culture",
					Log:      "Titre de la page: France Culture",
				}},
				ExecutionTime: 1200 * time.Millisecond,
			},
			{
				CaseNumber:     2,
				CaseName:       "vérifie le menu principal",
				Success:        false,
				Attempts:       3,
				Error:          "step 1: timed out retrying after 4000ms",
				ScreenshotPath: "e2e/screenshots/x.png",
				Steps: []model.StepResult{{
					Step:  model.Step{Selector: "nav", Condition: model.Visible},
					Error: "timed out retrying after 4000ms",
				}},
				ExecutionTime: 12 * time.Second,
			},
		},
	}
}

func testConfig(t *testing.T, name string) *config.Config {
	cfg := config.Default()
	cfg.Reporter = name
	cfg.ReporterOptions.ReportDir = filepath.Join(t.TempDir(), "results")
	return cfg
}

func TestNewUnknown(t *testing.T) {
	cfg := config.Default()
	cfg.Reporter = "tap"
	_, err := New(cfg)
	assert.Error(t, err)
}

func TestConsole(t *testing.T) {
	var out bytes.Buffer
	rep, err := NewWithWriter(testConfig(t, "spec"), &out)
	require.NoError(t, err)
	require.NoError(t, rep.GenerateReport(sampleRun()))

	text := out.String()
	assert.Contains(t, text, "vérifie le titre (1200ms)")
	assert.Contains(t, text, "2) vérifie le menu principal")
	assert.Contains(t, text, "screenshot: e2e/screenshots/x.png")
	assert.Contains(t, text, "Cases: 2")
	assert.Contains(t, text, "Passed: 1")
	assert.Contains(t, text, ansiRed+"Failed: 1"+ansiReset)
}

func TestJSONReport(t *testing.T) {
	cfg := testConfig(t, "json")
	cfg.ReporterOptions.HTML = true
	var out bytes.Buffer
	rep, err := NewWithWriter(cfg, &out)
	require.NoError(t, err)
	require.NoError(t, rep.GenerateReport(sampleRun()))

	data, err := os.ReadFile(filepath.Join(cfg.ReporterOptions.ReportDir, "report.json"))
	require.NoError(t, err)

	var got jsonReport
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "json", got.Reporter)
	assert.Equal(t, 2, got.Stats.Tests)
	assert.Equal(t, 1, got.Stats.Passes)
	assert.Equal(t, 1, got.Stats.Failures)
	assert.Equal(t, int64(4200), got.Stats.Duration)
	require.Len(t, got.Results, 2)
	assert.Equal(t, "passed", got.Results[0].State)
	assert.Equal(t, "failed", got.Results[1].State)
	assert.True(t, got.Results[1].Slow)
	assert.Equal(t, 3, got.Results[1].Attempts)
	assert.Equal(t, "Titre de la page: France Culture", got.Results[0].Steps[0].Log)

	html, err := os.ReadFile(filepath.Join(cfg.ReporterOptions.ReportDir, "report.html"))
	require.NoError(t, err)
	assert.Contains(t, string(html), "vérifie le menu principal")
	assert.Contains(t, string(html), `class="slow"`)

	assert.Contains(t, out.String(), "JSON report saved to")
	assert.Contains(t, out.String(), "Failed: 1")
}

func TestJSONNoOverwrite(t *testing.T) {
	cfg := testConfig(t, "json")
	cfg.ReporterOptions.Quiet = true
	var out bytes.Buffer
	rep, err := NewWithWriter(cfg, &out)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, rep.GenerateReport(sampleRun()))
	}

	files, err := filepath.Glob(filepath.Join(cfg.ReporterOptions.ReportDir, "*.json"))
	require.NoError(t, err)
	var names []string
	for _, f := range files {
		names = append(names, filepath.Base(f))
	}
	assert.ElementsMatch(t, []string{"report.json", "report_001.json", "report_002.json"}, names)
	assert.Empty(t, out.String())
}

func TestJSONAndHTMLShareSuffix(t *testing.T) {
	cfg := testConfig(t, "json")
	cfg.ReporterOptions.HTML = true
	cfg.ReporterOptions.Quiet = true
	dir := cfg.ReporterOptions.ReportDir
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "report.json"), []byte("{}"), 0o644))

	rep, err := NewWithWriter(cfg, &bytes.Buffer{})
	require.NoError(t, err)
	require.NoError(t, rep.GenerateReport(sampleRun()))

	assert.NoFileExists(t, filepath.Join(dir, "report.html"))
	assert.FileExists(t, filepath.Join(dir, "report_001.json"))
	assert.FileExists(t, filepath.Join(dir, "report_001.html"))

	leftover, err := os.ReadFile(filepath.Join(dir, "report.json"))
	require.NoError(t, err)
	assert.Equal(t, "{}", string(leftover))
}

func TestJSONOverwrite(t *testing.T) {
	cfg := testConfig(t, "json")
	cfg.ReporterOptions.Overwrite = true
	cfg.ReporterOptions.Quiet = true
	rep, err := NewWithWriter(cfg, &bytes.Buffer{})
	require.NoError(t, err)

	require.NoError(t, rep.GenerateReport(sampleRun()))
	require.NoError(t, rep.GenerateReport(sampleRun()))

	files, err := filepath.Glob(filepath.Join(cfg.ReporterOptions.ReportDir, "*"))
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestJUnitReport(t *testing.T) {
	cfg := testConfig(t, "junit")
	rep, err := NewWithWriter(cfg, &bytes.Buffer{})
	require.NoError(t, err)
	require.NoError(t, rep.GenerateReport(sampleRun()))

	data, err := os.ReadFile(filepath.Join(cfg.ReporterOptions.ReportDir, "report.xml"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "<?xml"))

	var got junitSuites
	require.NoError(t, xml.Unmarshal(data, &got))
	assert.Equal(t, 2, got.Tests)
	assert.Equal(t, 1, got.Failures)
	require.Len(t, got.Suites, 1)
	require.Len(t, got.Suites[0].Cases, 2)
	assert.Nil(t, got.Suites[0].Cases[0].Failure)
	require.NotNil(t, got.Suites[0].Cases[1].Failure)
	assert.Contains(t, got.Suites[0].Cases[1].Failure.Text, "attempts: 3")
	assert.Contains(t, got.Suites[0].Cases[0].SystemOut, "Titre de la page")
}

func TestExcelReport(t *testing.T) {
	cfg := testConfig(t, "excel")
	rep, err := NewWithWriter(cfg, &bytes.Buffer{})
	require.NoError(t, err)

	first := sampleRun()
	require.NoError(t, rep.GenerateReport(first))
	second := sampleRun()
	second.StartedAt = first.StartedAt.Add(time.Minute)
	require.NoError(t, rep.GenerateReport(second))

	f, err := excelize.OpenFile(filepath.Join(cfg.ReporterOptions.ReportDir, "report.xlsx"))
	require.NoError(t, err)
	defer f.Close()

	sheets := f.GetSheetList()
	assert.Equal(t, []string{"report_2026-10-18_09-30-00", "report_2026-10-18_09-31-00"}, sheets)

	rows, err := f.GetRows(sheets[0])
	require.NoError(t, err)
	assert.Equal(t, excelHeaders, rows[0])
	assert.Equal(t, "vérifie le titre", rows[1][1])
	assert.Equal(t, "TRUE", rows[1][2])
	assert.Equal(t, "FALSE", rows[2][2])

	failedStyle, err := f.GetCellStyle(sheets[0], "A3")
	require.NoError(t, err)
	assert.NotZero(t, failedStyle)
	passedStyle, err := f.GetCellStyle(sheets[0], "A2")
	require.NoError(t, err)
	assert.Zero(t, passedStyle)

	reporterCell, err := f.GetCellValue(sheets[0], "A11")
	require.NoError(t, err)
	assert.Equal(t, "Reporter: json (run mode)", reporterCell)
}

func TestExcelSameSecond(t *testing.T) {
	cfg := testConfig(t, "excel")
	cfg.ReporterOptions.Quiet = true
	rep, err := NewWithWriter(cfg, &bytes.Buffer{})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		run := sampleRun()
		run.SuiteName = fmt.Sprintf("run %d", i)
		require.NoError(t, rep.GenerateReport(run))
	}

	f, err := excelize.OpenFile(filepath.Join(cfg.ReporterOptions.ReportDir, "report.xlsx"))
	require.NoError(t, err)
	defer f.Close()

	base := "report_2026-10-18_09-30-00"
	assert.Equal(t, []string{base, base + "_2", base + "_3"}, f.GetSheetList())

	for i, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		require.NoError(t, err)
		assert.Contains(t, rows, []string{fmt.Sprintf("Suite: run %d", i)})
	}
}
