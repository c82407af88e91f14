package runner

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ui_regression/internal/browser"
	"ui_regression/internal/config"
	"ui_regression/internal/consent"
	"ui_regression/internal/model"
	"ui_regression/internal/tasks"
)

// ErrStepTimeout is returned when a step never held within the command
// timeout.
var ErrStepTimeout = errors.New("timed out retrying")

const defaultPollInterval = 100 * time.Millisecond

type Runner struct {
	config       *config.Config
	mode         config.Mode
	browser      browser.Browser
	tasks        *tasks.Registry
	logger       *zap.Logger
	pollInterval time.Duration
}

func New(cfg *config.Config, mode config.Mode, b browser.Browser, t *tasks.Registry, logger *zap.Logger) *Runner {
	return &Runner{
		config:       cfg,
		mode:         mode,
		browser:      b,
		tasks:        t,
		logger:       logger,
		pollInterval: defaultPollInterval,
	}
}

type job struct {
	caseNum  int
	testCase model.TestCase
}

// Run executes every case of s and returns the results ordered by case
// number. It only fails when the site cannot be reached at all.
func (r *Runner) Run(ctx context.Context, s model.Suite) (*model.RunResult, error) {
	if len(s.Cases) == 0 {
		return nil, fmt.Errorf("suite %q has no test cases", s.Name)
	}
	if err := r.checkReachable(ctx, s.URL); err != nil {
		return nil, err
	}

	run := &model.RunResult{
		RunID:     uuid.NewString(),
		SuiteName: s.Name,
		URL:       s.URL,
		Mode:      string(r.mode),
		Reporter:  r.config.Reporter,
		StartedAt: time.Now(),
	}
	r.logger.Info("starting run",
		zap.String("run_id", run.RunID),
		zap.String("suite", s.Name),
		zap.Int("cases", len(s.Cases)),
		zap.String("mode", string(r.mode)),
		zap.Int("retries", r.config.Retries(r.mode)),
	)

	// 工作池
	jobs := make(chan job, len(s.Cases))
	resultChan := make(chan model.TestResult, len(s.Cases))
	var wg sync.WaitGroup

	workers := min(r.config.Concurrent, len(s.Cases))
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				resultChan <- r.runCase(ctx, s, j.caseNum, j.testCase)
			}
		}()
	}

	for i, tc := range s.Cases {
		jobs <- job{caseNum: i + 1, testCase: tc}
	}
	close(jobs)

	wg.Wait()
	close(resultChan)

	for result := range resultChan {
		run.Results = append(run.Results, result)
	}
	sortResults(run.Results)
	run.Duration = time.Since(run.StartedAt)
	return run, nil
}

func sortResults(results []model.TestResult) {
	sort.Slice(results, func(i, j int) bool {
		return results[i].CaseNumber < results[j].CaseNumber
	})
}

// checkReachable fails fast when the site under test is down, before a
// browser spends a page-load timeout finding out.
func (r *Runner) checkReachable(ctx context.Context, url string) error {
	t := r.config.Timeouts
	client := &http.Client{
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           (&net.Dialer{Timeout: t.Request}).DialContext,
			TLSHandshakeTimeout:   t.Request,
			ResponseHeaderTimeout: t.Response,
		},
		Timeout: t.Request + t.Response,
	}
	defer client.CloseIdleConnections()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request for %s: %w", url, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("site %s is not reachable: %w", url, err)
	}
	resp.Body.Close()

	r.logger.Debug("site reachable", zap.String("url", url), zap.Int("status", resp.StatusCode))
	return nil
}

// runCase runs tc until it passes or the retry budget for the mode is spent.
// Every attempt gets a fresh page.
func (r *Runner) runCase(ctx context.Context, s model.Suite, caseNum int, tc model.TestCase) model.TestResult {
	result := model.TestResult{CaseNumber: caseNum, CaseName: tc.CaseName}
	maxAttempts := 1 + r.config.Retries(r.mode)
	start := time.Now()

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result.Attempts = attempt
		log := r.logger.With(zap.Int("case", caseNum), zap.String("name", tc.CaseName), zap.Int("attempt", attempt))
		log.Info("running case")

		page, err := r.browser.NewPage(ctx)
		if err != nil {
			result.Success = false
			result.Error = err.Error()
			result.Steps = nil
			log.Warn("case failed", zap.Error(err))
			if ctx.Err() != nil {
				break
			}
			continue
		}

		steps, err := r.attempt(ctx, page, s, tc, attempt)
		result.Steps = steps
		if err == nil {
			result.Success = true
			result.Error = ""
			closePage(page, log)
			break
		}

		result.Success = false
		result.Error = err.Error()
		log.Warn("case failed", zap.Error(err))

		if attempt == maxAttempts && r.config.ScreenshotOnRunFailure {
			name := fmt.Sprintf("%s -- %s (failed).png", s.Name, tc.CaseName)
			path := filepath.Join(r.config.ScreenshotsFolder, sanitize(name))
			if err := r.saveScreenshot(ctx, page, path); err != nil {
				log.Warn("screenshot failed", zap.Error(err))
			} else {
				result.ScreenshotPath = path
			}
		}
		closePage(page, log)

		if ctx.Err() != nil {
			break
		}
	}

	result.ExecutionTime = time.Since(start)
	return result
}

// attempt is one pass over the case: visit, dismiss consent, then every step
// in order. It stops at the first failing step.
func (r *Runner) attempt(ctx context.Context, page browser.Page, s model.Suite, tc model.TestCase, attempt int) ([]model.StepResult, error) {
	navCtx, cancel := context.WithTimeout(ctx, r.config.Timeouts.PageLoad)
	err := page.Navigate(navCtx, s.URL)
	cancel()
	if err != nil {
		return nil, err
	}
	r.tasks.Log(fmt.Sprintf("Page %s chargée", s.URL))

	cmdCtx, cancel := context.WithTimeout(ctx, r.config.Timeouts.DefaultCommand)
	_, err = consent.Dismiss(cmdCtx, page, s.Consent, r.tasks.Log)
	cancel()
	if err != nil {
		return nil, err
	}

	var results []model.StepResult
	for i, step := range tc.Steps {
		sr := r.checkStep(ctx, page, step)
		results = append(results, sr)

		if r.config.Video {
			frame := filepath.Join(r.config.VideosFolder, sanitize(tc.CaseName),
				fmt.Sprintf("attempt-%d-step-%02d.png", attempt, i+1))
			if err := r.saveScreenshot(ctx, page, frame); err != nil {
				r.logger.Debug("frame capture failed", zap.Error(err))
			}
		}

		if !sr.Success {
			return results, fmt.Errorf("step %d (%s): %s", i+1, step.Describe(), sr.Error)
		}
		if sr.Log != "" {
			r.tasks.Log(sr.Log)
		}
	}
	return results, nil
}

// checkStep polls step until it holds or the command timeout elapses.
func (r *Runner) checkStep(ctx context.Context, page browser.Page, step model.Step) model.StepResult {
	start := time.Now()
	timeout := r.config.Timeouts.DefaultCommand
	stepCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	var (
		observed string
		lastErr  error
	)
	for {
		ok, obs, err := evaluate(stepCtx, page, step)
		observed, lastErr = obs, err
		if err == nil && ok {
			return model.StepResult{
				Step:     step,
				Success:  true,
				Observed: observed,
				Log:      render(step.Message, observed),
				Duration: time.Since(start),
			}
		}

		select {
		case <-stepCtx.Done():
			msg := fmt.Sprintf("%v after %dms: expected %s", ErrStepTimeout, timeout.Milliseconds(), step.Describe())
			if lastErr != nil && !errors.Is(lastErr, context.DeadlineExceeded) {
				msg += ": " + lastErr.Error()
			} else {
				msg += fmt.Sprintf(", got %q", observed)
			}
			return model.StepResult{
				Step:     step,
				Observed: observed,
				Error:    msg,
				Duration: time.Since(start),
			}
		case <-ticker.C:
		}
	}
}

// evaluate checks step once against the current DOM.
func evaluate(ctx context.Context, page browser.Page, step model.Step) (bool, string, error) {
	switch step.Condition {
	case model.Visible:
		visible, err := page.Visible(ctx, step.Selector)
		if err != nil {
			return false, "", err
		}
		if visible {
			return true, "visible", nil
		}
		return false, "not visible", nil

	case model.Exist:
		n, err := page.Count(ctx, step.Selector, "")
		if err != nil {
			return false, "", err
		}
		return n > 0, fmt.Sprint(n), nil

	case model.LengthAtLeast:
		want, err := step.MinCount()
		if err != nil {
			return false, "", fmt.Errorf("bad count %q: %w", step.Value, err)
		}
		n, err := page.Count(ctx, step.Selector, "")
		if err != nil {
			return false, "", err
		}
		return n >= want, fmt.Sprint(n), nil

	case model.TitleInclude:
		title, err := page.Title(ctx)
		if err != nil {
			return false, "", err
		}
		return strings.Contains(title, step.Value), title, nil

	case model.ContainText:
		text, err := page.Text(ctx, step.Selector)
		if err != nil {
			return false, "", err
		}
		return strings.Contains(text, step.Value), text, nil
	}
	return false, "", fmt.Errorf("unknown condition %q", step.Condition)
}

// render fills a step message with the observed value.
func render(message, observed string) string {
	return strings.NewReplacer(
		model.PlaceholderCount, observed,
		model.PlaceholderTitle, observed,
		model.PlaceholderText, observed,
	).Replace(message)
}

func (r *Runner) saveScreenshot(ctx context.Context, page browser.Page, path string) error {
	shotCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.config.Timeouts.DefaultCommand)
	defer cancel()

	buf, err := page.Screenshot(shotCtx)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	return os.WriteFile(path, buf, 0o644)
}

var unsafeChars = strings.NewReplacer("/", "_", "\\", "_", ":", "_", "*", "_", "?", "_", "\"", "_", "<", "_", ">", "_", "|", "_")

func closePage(page browser.Page, log *zap.Logger) {
	if err := page.Close(); err != nil {
		log.Debug("close page", zap.Error(err))
	}
}

func sanitize(name string) string {
	return unsafeChars.Replace(name)
}
