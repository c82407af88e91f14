package reporter

import (
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"time"

	"ui_regression/internal/config"
	"ui_regression/internal/model"
)

// JSON writes a JSON report and, when enabled, an HTML page of the same data.
type JSON struct {
	opts    config.ReporterOptions
	console *Console
}

type jsonReport struct {
	RunID    string       `json:"run_id"`
	Suite    string       `json:"suite"`
	URL      string       `json:"url"`
	Mode     string       `json:"mode"`
	Reporter string       `json:"reporter"`
	Stats    jsonStats    `json:"stats"`
	Results  []jsonResult `json:"results"`
}

type jsonStats struct {
	Tests    int       `json:"tests"`
	Passes   int       `json:"passes"`
	Failures int       `json:"failures"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Duration int64     `json:"duration"` // ms
}

type jsonResult struct {
	Number     int        `json:"number"`
	Title      string     `json:"title"`
	FullTitle  string     `json:"full_title"`
	State      string     `json:"state"`
	Slow       bool       `json:"slow,omitempty"`
	Duration   int64      `json:"duration"`
	Attempts   int        `json:"attempts"`
	Error      string     `json:"error,omitempty"`
	Screenshot string     `json:"screenshot,omitempty"`
	Steps      []jsonStep `json:"steps"`
}

type jsonStep struct {
	Description string `json:"description"`
	Passed      bool   `json:"passed"`
	Observed    string `json:"observed,omitempty"`
	Log         string `json:"log,omitempty"`
	Error       string `json:"error,omitempty"`
	Duration    int64  `json:"duration"`
}

func buildReport(run *model.RunResult) jsonReport {
	rep := jsonReport{
		RunID:    run.RunID,
		Suite:    run.SuiteName,
		URL:      run.URL,
		Mode:     run.Mode,
		Reporter: run.Reporter,
		Stats: jsonStats{
			Tests:    len(run.Results),
			Passes:   run.Passed(),
			Failures: run.Failed(),
			Start:    run.StartedAt,
			End:      run.StartedAt.Add(run.Duration),
			Duration: run.Duration.Milliseconds(),
		},
		Results: make([]jsonResult, 0, len(run.Results)),
	}

	for _, res := range run.Results {
		jr := jsonResult{
			Number:     res.CaseNumber,
			Title:      res.CaseName,
			FullTitle:  run.SuiteName + " " + res.CaseName,
			State:      "failed",
			Slow:       res.ExecutionTime > slowTestThreshold,
			Duration:   res.ExecutionTime.Milliseconds(),
			Attempts:   res.Attempts,
			Error:      res.Error,
			Screenshot: res.ScreenshotPath,
			Steps:      make([]jsonStep, 0, len(res.Steps)),
		}
		if res.Success {
			jr.State = "passed"
		}
		for _, s := range res.Steps {
			jr.Steps = append(jr.Steps, jsonStep{
				Description: s.Step.Describe(),
				Passed:      s.Success,
				Observed:    s.Observed,
				Log:         s.Log,
				Error:       s.Error,
				Duration:    s.Duration.Milliseconds(),
			})
		}
		rep.Results = append(rep.Results, jr)
	}
	return rep
}

func (r *JSON) GenerateReport(run *model.RunResult) error {
	rep := buildReport(run)

	var exts []string
	if r.opts.JSON {
		exts = append(exts, ".json")
	}
	if r.opts.HTML {
		exts = append(exts, ".html")
	}
	base, err := outputBase(r.opts, exts...)
	if err != nil {
		return err
	}

	if r.opts.JSON {
		path := base + ".json"
		data, err := json.MarshalIndent(rep, "", "  ")
		if err != nil {
			return fmt.Errorf("encode json report: %w", err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write json report: %w", err)
		}
		if r.console != nil {
			fmt.Fprintf(r.console.out, "JSON report saved to %s\n", path)
		}
	}

	if r.opts.HTML {
		path := base + ".html"
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create html report: %w", err)
		}
		if err := htmlTemplate.Execute(f, rep); err != nil {
			f.Close()
			return fmt.Errorf("render html report: %w", err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("write html report: %w", err)
		}
		if r.console != nil {
			fmt.Fprintf(r.console.out, "HTML report saved to %s\n", path)
		}
	}

	if r.console != nil {
		r.console.printSummary(run)
	}
	return nil
}

var htmlTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="fr">
<head>
<meta charset="utf-8">
<title>{{.Suite}}</title>
<style>
body { font-family: sans-serif; margin: 2em; }
.passed { color: #2e7d32; }
.failed { color: #c62828; }
.slow { background: #ffeb9c; }
td, th { padding: 4px 8px; text-align: left; vertical-align: top; }
</style>
</head>
<body>
<h1>{{.Suite}}</h1>
<p>{{.URL}} &middot; {{.Mode}} &middot; run {{.RunID}}</p>
<p>{{.Stats.Tests}} cases, <span class="passed">{{.Stats.Passes}} passed</span>, <span class="failed">{{.Stats.Failures}} failed</span>, {{.Stats.Duration}}ms</p>
<table>
<tr><th>#</th><th>Case</th><th>State</th><th>Attempts</th><th>Duration</th><th>Steps</th></tr>
{{range .Results}}<tr{{if .Slow}} class="slow"{{end}}>
<td>{{.Number}}</td>
<td>{{.Title}}{{if .Screenshot}}<br><a href="{{.Screenshot}}">screenshot</a>{{end}}</td>
<td class="{{.State}}">{{.State}}</td>
<td>{{.Attempts}}</td>
<td>{{.Duration}}ms</td>
<td><ul>{{range .Steps}}<li class="{{if .Passed}}passed{{else}}failed{{end}}">{{.Description}}{{if .Log}}: {{.Log}}{{end}}{{if .Error}}<br>{{.Error}}{{end}}</li>{{end}}</ul>{{if .Error}}<pre>{{.Error}}</pre>{{end}}</td>
</tr>
{{end}}</table>
</body>
</html>
`))
