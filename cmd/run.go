package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"
	"golang.org/x/sync/errgroup"

	"github.com/sig-0/offersync/cmd/env"
	"github.com/sig-0/offersync/cmd/scrapers"
	"github.com/sig-0/offersync/config"
	"github.com/sig-0/offersync/ingest"
	"github.com/sig-0/offersync/metrics"
	"github.com/sig-0/offersync/storage/memory"
	"github.com/sig-0/offersync/storage/types"
)

// runCfg wraps the run configuration
type runCfg struct {
	config *config.Config

	configPath string
	random     bool
}

// newRunCmd creates the one-shot run command
func newRunCmd() *ffcli.Command {
	cfg := &runCfg{
		config: config.DefaultConfig(),
	}

	fs := flag.NewFlagSet("run", flag.ExitOnError)
	cfg.registerFlags(fs)

	return &ffcli.Command{
		Name:       "run",
		ShortUsage: "run [flags]",
		LongHelp:   "Runs every scraper once, over all currencies and both sides",
		FlagSet:    fs,
		Exec:       cfg.exec,
		Options: []ff.Option{
			// Allow using ENV variables
			ff.WithEnvVars(),
			ff.WithEnvVarPrefix(env.Prefix),
		},
	}
}

func (c *runCfg) registerFlags(fs *flag.FlagSet) {
	fs.StringVar(
		&c.configPath,
		"config",
		"",
		"the path to the offersync TOML configuration, if any",
	)

	fs.StringVar(
		&c.config.BaseURL,
		"base-url",
		config.DefaultBaseURL,
		"the marketplace API root",
	)

	fs.DurationVar(
		&c.config.Delay,
		"delay",
		config.DefaultDelay,
		"the pause after each processed currency",
	)

	fs.DurationVar(
		&c.config.Timeout,
		"timeout",
		config.DefaultTimeout,
		"the per-request HTTP timeout (0 keeps the HTTP library default)",
	)

	fs.BoolVar(
		&c.config.Orchestrated,
		"orchestrated",
		false,
		"delegate every unit to the task runner",
	)

	fs.BoolVar(
		&c.random,
		"random",
		false,
		"process only the sell side of a single random currency",
	)
}

// exec executes the one-shot run
func (c *runCfg) exec(ctx context.Context, _ []string) error {
	// Read the configuration, if any
	if c.configPath != "" {
		cfg, err := config.Read(c.configPath)
		if err != nil {
			return fmt.Errorf("unable to read config, %w", err)
		}

		c.config = cfg
	}

	if err := config.ValidateConfig(c.config); err != nil {
		return fmt.Errorf("invalid configuration, %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	// Load .env
	if err := godotenv.Load(); err != nil {
		logger.Warn("unable to load .env file")
	}

	runCtx, cancelFn := signal.NotifyContext(
		ctx,
		os.Interrupt,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
	defer cancelFn()

	collector := metrics.New()

	opts := []ingest.Option{
		ingest.WithLogger(logger),
		ingest.WithMetrics(collector),
		ingest.WithDelay(c.config.Delay),
	}

	group, gCtx := errgroup.WithContext(runCtx)

	// Orchestrated units go through the task runner,
	// with the ledger kept in memory for the lifetime of the run
	var runnerCancelFn context.CancelFunc = func() {}

	if c.config.Orchestrated {
		runner := ingest.NewRunner(
			memory.NewStorage(),
			ingest.WithLogger(logger),
			ingest.WithMetrics(collector),
		)

		var runnerCtx context.Context

		runnerCtx, runnerCancelFn = context.WithCancel(gCtx)

		group.Go(func() error {
			return runner.Start(runnerCtx)
		})

		opts = append(opts, ingest.WithExecutor(ingest.NewTaskExecutor(runner)))
	}

	group.Go(func() error {
		defer runnerCancelFn()

		for _, scraper := range scrapers.Default(c.config, logger) {
			driver := ingest.NewDriver(scraper, opts...)

			report, err := c.runDriver(gCtx, driver)
			if err != nil {
				return fmt.Errorf("run for %s interrupted: %w", scraper.Name(), err)
			}

			logRunSummary(logger, report, collector, c.config.Orchestrated)
		}

		return nil
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	return nil
}

// logRunSummary logs the outcome of a finished run.
// Orchestrated runs report the published count tracked by the task runner
func logRunSummary(
	logger *slog.Logger,
	report *types.RunReport,
	collector *metrics.Collector,
	orchestrated bool,
) {
	published := float64(report.Published())
	if orchestrated {
		published = collector.PublishedCount(report.Scraper)
	}

	if report.Failed() > 0 {
		logger.Warn(
			"run finished with failed units",
			"scraper", report.Scraper,
			"failed_units", report.Failed(),
			"published", published,
		)

		return
	}

	logger.Info(
		"run summary",
		"scraper", report.Scraper,
		"units", len(report.Units),
		"published", published,
	)
}

func (c *runCfg) runDriver(ctx context.Context, driver *ingest.Driver) (*types.RunReport, error) {
	if c.random {
		return driver.RunRandom(ctx)
	}

	return driver.Run(ctx)
}
