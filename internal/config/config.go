package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"slices"
	"time"

	"github.com/joho/godotenv"

	"ui_regression/internal/model"
)

// ErrInvalid wraps every validation failure returned by Validate.
var ErrInvalid = errors.New("invalid config")

// Mode selects the retry budget and the browser window behaviour.
type Mode string

const (
	ModeRun  Mode = "run"
	ModeOpen Mode = "open"
)

const (
	DefaultPath    = "config.json"
	DefaultBaseURL = "https://www.franceculture.fr/"

	envBaseURL  = "E2E_BASE_URL"
	envReporter = "E2E_REPORTER"
)

// Reporters and Drivers list the accepted names.
var (
	Reporters = []string{"spec", "json", "junit", "excel"}
	Drivers   = []string{"chromedp", "rod"}
)

// jsonConfig mirrors the file layout; durations are plain milliseconds.
type jsonConfig struct {
	BaseURL  string `json:"base_url"`
	Timeouts struct {
		DefaultCommandMS *int `json:"default_command_ms"`
		PageLoadMS       *int `json:"page_load_ms"`
		ResponseMS       *int `json:"response_ms"`
		RequestMS        *int `json:"request_ms"`
	} `json:"timeouts"`
	Video                  bool   `json:"video"`
	VideosFolder           string `json:"videos_folder"`
	ScreenshotOnRunFailure *bool  `json:"screenshot_on_run_failure"`
	ScreenshotsFolder      string `json:"screenshots_folder"`
	Retries                struct {
		RunMode  int `json:"run_mode"`
		OpenMode int `json:"open_mode"`
	} `json:"retries"`
	Reporter        string `json:"reporter"`
	ReporterOptions struct {
		ReportDir      string `json:"report_dir"`
		ReportFilename string `json:"report_filename"`
		Overwrite      bool   `json:"overwrite"`
		HTML           bool   `json:"html"`
		JSON           *bool  `json:"json"`
		Quiet          bool   `json:"quiet"`
	} `json:"reporter_options"`
	Browser struct {
		Driver    string `json:"driver"`
		Headless  *bool  `json:"headless"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
		UserAgent string `json:"user_agent"`
	} `json:"browser"`
	Concurrent int `json:"concurrent"`
	Suite      struct {
		ExcelPath string `json:"excel_path"`
		SheetName string `json:"sheet_name"`
		HeaderRow int    `json:"header_row"`
	} `json:"suite"`
	Consent []model.ConsentBanner `json:"consent"`
}

type Timeouts struct {
	DefaultCommand time.Duration
	PageLoad       time.Duration
	Response       time.Duration
	Request        time.Duration
}

type ReporterOptions struct {
	ReportDir      string
	ReportFilename string
	Overwrite      bool
	HTML           bool
	JSON           bool
	Quiet          bool
}

type BrowserOptions struct {
	Driver    string
	Headless  bool
	Width     int
	Height    int
	UserAgent string
}

type SuiteSource struct {
	ExcelPath string
	SheetName string
	HeaderRow int
}

type Config struct {
	BaseURL                string
	Timeouts               Timeouts
	Video                  bool
	VideosFolder           string
	ScreenshotOnRunFailure bool
	ScreenshotsFolder      string
	RunModeRetries         int
	OpenModeRetries        int
	Reporter               string
	ReporterOptions        ReporterOptions
	Browser                BrowserOptions
	Concurrent             int
	Suite                  SuiteSource
	Consent                []model.ConsentBanner
}

// Default returns the configuration used when a key is absent from the file.
func Default() *Config {
	return &Config{
		BaseURL: DefaultBaseURL,
		Timeouts: Timeouts{
			DefaultCommand: 4 * time.Second,
			PageLoad:       60 * time.Second,
			Response:       30 * time.Second,
			Request:        5 * time.Second,
		},
		VideosFolder:           "e2e/videos",
		ScreenshotOnRunFailure: true,
		ScreenshotsFolder:      "e2e/screenshots",
		Reporter:               "spec",
		ReporterOptions: ReporterOptions{
			ReportDir:      "e2e/results",
			ReportFilename: "report",
			JSON:           true,
		},
		Browser: BrowserOptions{
			Driver:   "chromedp",
			Headless: true,
			Width:    1280,
			Height:   720,
		},
		Concurrent: 1,
		Suite: SuiteSource{
			SheetName: "Sheet1",
			HeaderRow: 1,
		},
	}
}

// Load reads path, fills defaults, applies environment overrides and
// validates the result.
func Load(path string) (*Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read is Load without the validation, for callers that still override
// fields (command-line flags) before calling Validate themselves.
func Read(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}

	// .env is optional; a missing file is not an error.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	cfg.applyEnv()
	return cfg, nil
}

// Parse decodes a config document and fills defaults. It does not validate.
func Parse(data []byte) (*Config, error) {
	var jsonCfg jsonConfig
	if err := json.Unmarshal(data, &jsonCfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg := Default()
	if jsonCfg.BaseURL != "" {
		cfg.BaseURL = jsonCfg.BaseURL
	}
	setMillis(&cfg.Timeouts.DefaultCommand, jsonCfg.Timeouts.DefaultCommandMS)
	setMillis(&cfg.Timeouts.PageLoad, jsonCfg.Timeouts.PageLoadMS)
	setMillis(&cfg.Timeouts.Response, jsonCfg.Timeouts.ResponseMS)
	setMillis(&cfg.Timeouts.Request, jsonCfg.Timeouts.RequestMS)

	cfg.Video = jsonCfg.Video
	if jsonCfg.VideosFolder != "" {
		cfg.VideosFolder = jsonCfg.VideosFolder
	}
	if jsonCfg.ScreenshotOnRunFailure != nil {
		cfg.ScreenshotOnRunFailure = *jsonCfg.ScreenshotOnRunFailure
	}
	if jsonCfg.ScreenshotsFolder != "" {
		cfg.ScreenshotsFolder = jsonCfg.ScreenshotsFolder
	}
	cfg.RunModeRetries = jsonCfg.Retries.RunMode
	cfg.OpenModeRetries = jsonCfg.Retries.OpenMode

	if jsonCfg.Reporter != "" {
		cfg.Reporter = jsonCfg.Reporter
	}
	opts := jsonCfg.ReporterOptions
	if opts.ReportDir != "" {
		cfg.ReporterOptions.ReportDir = opts.ReportDir
	}
	if opts.ReportFilename != "" {
		cfg.ReporterOptions.ReportFilename = opts.ReportFilename
	}
	cfg.ReporterOptions.Overwrite = opts.Overwrite
	cfg.ReporterOptions.HTML = opts.HTML
	if opts.JSON != nil {
		cfg.ReporterOptions.JSON = *opts.JSON
	}
	cfg.ReporterOptions.Quiet = opts.Quiet

	b := jsonCfg.Browser
	if b.Driver != "" {
		cfg.Browser.Driver = b.Driver
	}
	if b.Headless != nil {
		cfg.Browser.Headless = *b.Headless
	}
	if b.Width > 0 {
		cfg.Browser.Width = b.Width
	}
	if b.Height > 0 {
		cfg.Browser.Height = b.Height
	}
	cfg.Browser.UserAgent = b.UserAgent

	if jsonCfg.Concurrent != 0 {
		cfg.Concurrent = jsonCfg.Concurrent
	}

	cfg.Suite.ExcelPath = jsonCfg.Suite.ExcelPath
	if jsonCfg.Suite.SheetName != "" {
		cfg.Suite.SheetName = jsonCfg.Suite.SheetName
	}
	if jsonCfg.Suite.HeaderRow != 0 {
		cfg.Suite.HeaderRow = jsonCfg.Suite.HeaderRow
	}
	cfg.Consent = jsonCfg.Consent

	return cfg, nil
}

func setMillis(dst *time.Duration, ms *int) {
	if ms != nil {
		*dst = time.Duration(*ms) * time.Millisecond
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv(envBaseURL); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv(envReporter); v != "" {
		c.Reporter = v
	}
}

// Validate checks the record for obviously broken values.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("%w: base_url %q: %v", ErrInvalid, c.BaseURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: base_url %q must be an absolute http(s) URL", ErrInvalid, c.BaseURL)
	}

	timeouts := []struct {
		name string
		d    time.Duration
	}{
		{"default_command_ms", c.Timeouts.DefaultCommand},
		{"page_load_ms", c.Timeouts.PageLoad},
		{"response_ms", c.Timeouts.Response},
		{"request_ms", c.Timeouts.Request},
	}
	for _, t := range timeouts {
		if t.d <= 0 {
			return fmt.Errorf("%w: timeouts.%s must be positive", ErrInvalid, t.name)
		}
	}

	if c.RunModeRetries < 0 || c.OpenModeRetries < 0 {
		return fmt.Errorf("%w: retries must not be negative", ErrInvalid)
	}
	if !slices.Contains(Reporters, c.Reporter) {
		return fmt.Errorf("%w: unknown reporter %q", ErrInvalid, c.Reporter)
	}
	if !slices.Contains(Drivers, c.Browser.Driver) {
		return fmt.Errorf("%w: unknown browser driver %q", ErrInvalid, c.Browser.Driver)
	}
	if c.Concurrent < 1 {
		return fmt.Errorf("%w: concurrent must be at least 1", ErrInvalid)
	}
	if c.Suite.HeaderRow < 0 {
		return fmt.Errorf("%w: suite.header_row must not be negative", ErrInvalid)
	}
	for i, b := range c.Consent {
		if b.Selector == "" {
			return fmt.Errorf("%w: consent[%d] has no selector", ErrInvalid, i)
		}
	}
	return nil
}

// Retries returns how many extra attempts a failed case gets in mode.
func (c *Config) Retries(mode Mode) int {
	if mode == ModeOpen {
		return c.OpenModeRetries
	}
	return c.RunModeRetries
}
