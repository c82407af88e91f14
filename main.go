package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ui_regression/internal/browser"
	_ "ui_regression/internal/browser/chrome"
	_ "ui_regression/internal/browser/gorod"
	"ui_regression/internal/config"
	"ui_regression/internal/logging"
	"ui_regression/internal/reporter"
	"ui_regression/internal/runner"
	"ui_regression/internal/suite"
	"ui_regression/internal/tasks"
)

// errCasesFailed makes the process exit non-zero without printing a usage
// error; the reporter already described the failures.
var errCasesFailed = errors.New("some test cases failed")

type options struct {
	configPath string
	reporter   string
	baseURL    string
	verbose    bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errCasesFailed) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "ui-regression",
		Short:         "Browser end-to-end checks for France Culture",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", config.DefaultPath, "config file")
	root.PersistentFlags().StringVar(&opts.reporter, "reporter", "", "override the configured reporter (spec, json, junit, excel)")
	root.PersistentFlags().StringVar(&opts.baseURL, "base-url", "", "override the configured base URL")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		&cobra.Command{
			Use:   "run",
			Short: "Run headless with the run-mode retry count",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return execute(cmd.Context(), opts, config.ModeRun)
			},
		},
		&cobra.Command{
			Use:   "open",
			Short: "Run in a visible browser with the open-mode retry count",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return execute(cmd.Context(), opts, config.ModeOpen)
			},
		},
	)
	return root
}

// loadConfig reads the config file and applies the flag overrides before
// validating, so a flag can replace a bad file value.
func loadConfig(opts *options) (*config.Config, error) {
	cfg, err := config.Read(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if opts.reporter != "" {
		cfg.Reporter = opts.reporter
	}
	if opts.baseURL != "" {
		cfg.BaseURL = opts.baseURL
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func execute(ctx context.Context, opts *options, mode config.Mode) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	logger := logging.New(opts.verbose)
	defer logger.Sync()

	s, err := suite.Load(cfg)
	if err != nil {
		return fmt.Errorf("load suite: %w", err)
	}
	rep, err := reporter.New(cfg)
	if err != nil {
		return err
	}

	b, err := browser.Open(ctx, cfg.Browser.Driver, browser.Options{
		Headless:  cfg.Browser.Headless && mode == config.ModeRun,
		Width:     cfg.Browser.Width,
		Height:    cfg.Browser.Height,
		UserAgent: cfg.Browser.UserAgent,
		Logf:      logging.Printf(logger),
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := b.Close(); err != nil {
			logger.Debug("close browser", zap.Error(err))
		}
	}()

	r := runner.New(cfg, mode, b, tasks.Default(logger), logger)
	run, err := r.Run(ctx, s)
	if err != nil {
		return fmt.Errorf("run suite: %w", err)
	}

	if err := rep.GenerateReport(run); err != nil {
		return fmt.Errorf("generate report: %w", err)
	}
	if run.Failed() > 0 {
		return errCasesFailed
	}
	return nil
}
