package model

import (
	"slices"
	"strconv"
	"strings"
	"time"
)

// Condition is the expectation checked against a selector.
type Condition string

const (
	Visible       Condition = "be.visible"
	Exist         Condition = "exist"
	LengthAtLeast Condition = "have.length.at.least"
	TitleInclude  Condition = "title.include" // selector unused
	ContainText   Condition = "contain.text"
)

// Conditions lists every condition in a stable order.
var Conditions = []Condition{Visible, Exist, LengthAtLeast, TitleInclude, ContainText}

func (c Condition) Valid() bool {
	return slices.Contains(Conditions, c)
}

// Step placeholders filled from the observed value.
const (
	PlaceholderCount = "{count}"
	PlaceholderTitle = "{title}"
	PlaceholderText  = "{text}"
)

type Step struct {
	Selector  string    // CSS 选择器
	Condition Condition // 断言条件
	Value     string    // 期望值（数量或子串）
	Message   string    // 通过后输出的日志，可含占位符
}

// MinCount parses Value for LengthAtLeast, treating an empty value as 1.
func (s Step) MinCount() (int, error) {
	if s.Value == "" {
		return 1, nil
	}
	return strconv.Atoi(strings.TrimSpace(s.Value))
}

// Describe renders the step the way the log prints it.
func (s Step) Describe() string {
	switch s.Condition {
	case TitleInclude:
		return "title should include " + strconv.Quote(s.Value)
	case LengthAtLeast:
		return s.Selector + " should have length at least " + s.Value
	case ContainText:
		return s.Selector + " should contain " + strconv.Quote(s.Value)
	default:
		return s.Selector + " should " + strings.ReplaceAll(string(s.Condition), ".", " ")
	}
}

type TestCase struct {
	CaseName string
	Steps    []Step
}

// ConsentBanner is one known cookie-consent implementation.
type ConsentBanner struct {
	Name     string `json:"name"`
	Selector string `json:"selector"`
	Text     string `json:"text,omitempty"` // 为空时只匹配选择器
}

type Suite struct {
	Name    string
	URL     string
	Consent []ConsentBanner
	Cases   []TestCase
}

type StepResult struct {
	Step     Step
	Success  bool
	Observed string
	Log      string
	Error    string
	Duration time.Duration
}

type TestResult struct {
	CaseNumber     int
	CaseName       string
	Success        bool
	Attempts       int
	Steps          []StepResult
	Error          string
	ScreenshotPath string
	ExecutionTime  time.Duration
}

type RunResult struct {
	RunID     string
	SuiteName string
	URL       string
	Mode      string
	Reporter  string
	StartedAt time.Time
	Duration  time.Duration
	Results   []TestResult
}

// Failed counts results that did not pass.
func (r *RunResult) Failed() int {
	n := 0
	for _, res := range r.Results {
		if !res.Success {
			n++
		}
	}
	return n
}

func (r *RunResult) Passed() int {
	return len(r.Results) - r.Failed()
}
