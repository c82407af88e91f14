package reporter

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"ui_regression/internal/config"
	"ui_regression/internal/model"
)

const (
	timeFormat = "2006-01-02_15-04-05"

	// Cases slower than this are flagged in reports.
	slowTestThreshold = 10 * time.Second

	ansiRed   = "\033[31m"
	ansiGreen = "\033[32m"
	ansiReset = "\033[0m"
)

type Reporter interface {
	GenerateReport(run *model.RunResult) error
}

// New returns the reporter named in cfg. Console output goes to stdout.
func New(cfg *config.Config) (Reporter, error) {
	return NewWithWriter(cfg, os.Stdout)
}

func NewWithWriter(cfg *config.Config, out io.Writer) (Reporter, error) {
	opts := cfg.ReporterOptions
	console := &Console{out: out}

	switch cfg.Reporter {
	case "spec":
		return console, nil
	case "json":
		return &JSON{opts: opts, console: summaryUnlessQuiet(console, opts)}, nil
	case "junit":
		return &JUnit{opts: opts, console: summaryUnlessQuiet(console, opts)}, nil
	case "excel":
		return &Excel{opts: opts, console: summaryUnlessQuiet(console, opts)}, nil
	}
	return nil, fmt.Errorf("unknown reporter %q", cfg.Reporter)
}

func summaryUnlessQuiet(c *Console, opts config.ReporterOptions) *Console {
	if opts.Quiet {
		return nil
	}
	return c
}

// Console prints one line per case, failure details and a summary.
type Console struct {
	out io.Writer
}

func (c *Console) GenerateReport(run *model.RunResult) error {
	fmt.Fprintf(c.out, "\n  %s\n", run.SuiteName)
	for _, res := range run.Results {
		if res.Success {
			fmt.Fprintf(c.out, "    %s✓%s %s (%dms)\n", ansiGreen, ansiReset, res.CaseName, res.ExecutionTime.Milliseconds())
		} else {
			fmt.Fprintf(c.out, "    %s%d) %s%s\n", ansiRed, res.CaseNumber, res.CaseName, ansiReset)
		}
	}

	for _, res := range run.Results {
		if res.Success {
			continue
		}
		fmt.Fprintf(c.out, "\n  %d) %s\n", res.CaseNumber, res.CaseName)
		fmt.Fprintf(c.out, "     %s%s%s\n", ansiRed, res.Error, ansiReset)
		if res.ScreenshotPath != "" {
			fmt.Fprintf(c.out, "     screenshot: %s\n", res.ScreenshotPath)
		}
	}

	c.printSummary(run)
	return nil
}

func (c *Console) printSummary(run *model.RunResult) {
	failed := run.Failed()

	fmt.Fprintf(c.out, "\nSummary\n")
	fmt.Fprintf(c.out, "Duration: %.3fs\n", run.Duration.Seconds())
	fmt.Fprintf(c.out, "Cases: %d\n", len(run.Results))
	fmt.Fprintf(c.out, "Passed: %d\n", run.Passed())
	if failed > 0 {
		fmt.Fprintf(c.out, "%sFailed: %d%s\n", ansiRed, failed, ansiReset)
	} else {
		fmt.Fprintf(c.out, "Failed: %d\n", failed)
	}
}

// outputPath returns dir/name.ext. Without overwrite, an existing file is
// kept and a numeric suffix is added instead.
func outputPath(opts config.ReporterOptions, ext string) (string, error) {
	base, err := outputBase(opts, ext)
	if err != nil {
		return "", err
	}
	return base + ext, nil
}

// outputBase returns dir/name without extension, suffixed so that no file
// base+ext exists for any of exts. Files written together share the suffix.
func outputBase(opts config.ReporterOptions, exts ...string) (string, error) {
	if err := os.MkdirAll(opts.ReportDir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}

	base := filepath.Join(opts.ReportDir, opts.ReportFilename)
	if opts.Overwrite {
		return base, nil
	}
	for i := 1; ; i++ {
		if !anyExists(base, exts) {
			return base, nil
		}
		base = filepath.Join(opts.ReportDir, fmt.Sprintf("%s_%03d", opts.ReportFilename, i))
	}
}

func anyExists(base string, exts []string) bool {
	for _, ext := range exts {
		if _, err := os.Stat(base + ext); !os.IsNotExist(err) {
			return true
		}
	}
	return false
}
