package reporter

import (
	"encoding/xml"
	"fmt"
	"os"

	"ui_regression/internal/config"
	"ui_regression/internal/model"
)

// JUnit writes a JUnit XML file for CI systems.
type JUnit struct {
	opts    config.ReporterOptions
	console *Console
}

type junitSuites struct {
	XMLName  xml.Name     `xml:"testsuites"`
	Name     string       `xml:"name,attr"`
	Tests    int          `xml:"tests,attr"`
	Failures int          `xml:"failures,attr"`
	Time     float64      `xml:"time,attr"`
	Suites   []junitSuite `xml:"testsuite"`
}

type junitSuite struct {
	Name      string      `xml:"name,attr"`
	Timestamp string      `xml:"timestamp,attr"`
	Tests     int         `xml:"tests,attr"`
	Failures  int         `xml:"failures,attr"`
	Time      float64     `xml:"time,attr"`
	Cases     []junitCase `xml:"testcase"`
}

type junitCase struct {
	Name      string        `xml:"name,attr"`
	ClassName string        `xml:"classname,attr"`
	Time      float64       `xml:"time,attr"`
	Failure   *junitFailure `xml:"failure,omitempty"`
	SystemOut string        `xml:"system-out,omitempty"`
}

type junitFailure struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Text    string `xml:",chardata"`
}

func (r *JUnit) GenerateReport(run *model.RunResult) error {
	suite := junitSuite{
		Name:      run.SuiteName,
		Timestamp: run.StartedAt.Format("2006-01-02T15:04:05"),
		Tests:     len(run.Results),
		Failures:  run.Failed(),
		Time:      run.Duration.Seconds(),
	}
	for _, res := range run.Results {
		c := junitCase{
			Name:      res.CaseName,
			ClassName: run.SuiteName + " " + res.CaseName,
			Time:      res.ExecutionTime.Seconds(),
		}
		for _, s := range res.Steps {
			if s.Log != "" {
				c.SystemOut += s.Log + "\n"
			}
		}
		if !res.Success {
			c.Failure = &junitFailure{
				Message: res.Error,
				Type:    "AssertionError",
				Text:    fmt.Sprintf("%s (attempts: %d)", res.Error, res.Attempts),
			}
		}
		suite.Cases = append(suite.Cases, c)
	}

	doc := junitSuites{
		Name:     "ui_regression",
		Tests:    suite.Tests,
		Failures: suite.Failures,
		Time:     suite.Time,
		Suites:   []junitSuite{suite},
	}

	data, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode junit report: %w", err)
	}
	path, err := outputPath(r.opts, ".xml")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, append([]byte(xml.Header), data...), 0o644); err != nil {
		return fmt.Errorf("write junit report: %w", err)
	}

	if r.console != nil {
		fmt.Fprintf(r.console.out, "JUnit report saved to %s\n", path)
		r.console.printSummary(run)
	}
	return nil
}
