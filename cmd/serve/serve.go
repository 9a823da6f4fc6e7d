package serve

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"
	"golang.org/x/sync/errgroup"

	"github.com/sig-0/offersync/cmd/env"
	"github.com/sig-0/offersync/cmd/scrapers"
	"github.com/sig-0/offersync/config"
	"github.com/sig-0/offersync/ingest"
	"github.com/sig-0/offersync/metrics"
	"github.com/sig-0/offersync/server"
	"github.com/sig-0/offersync/storage"
)

// serveCfg wraps the serve configuration
type serveCfg struct {
	config *config.Config

	configPath string
}

// NewServeCmd creates the serve subcommand
func NewServeCmd() *ffcli.Command {
	cfg := &serveCfg{
		config: config.DefaultConfig(),
	}

	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	cfg.registerFlags(fs)

	cmd := &ffcli.Command{
		Name:       "serve",
		ShortUsage: "serve <subcommand> [flags]",
		LongHelp:   "Runs the scrapers on a schedule, and serves the status API",
		FlagSet:    fs,
		Exec: func(_ context.Context, _ []string) error {
			return flag.ErrHelp
		},
		Options: []ff.Option{
			// Allow using ENV variables
			ff.WithEnvVars(),
			ff.WithEnvVarPrefix(env.Prefix),
		},
	}

	cmd.Subcommands = []*ffcli.Command{
		newServeSQLCmd(cfg),
		newServeMemoryCmd(cfg),
	}

	return cmd
}

func (c *serveCfg) registerFlags(fs *flag.FlagSet) {
	fs.StringVar(
		&c.config.ListenAddress,
		"listen",
		config.DefaultListenAddress,
		"the IP:PORT URL for the status API",
	)

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

	fs.DurationVar(
		&c.config.RunInterval,
		"run-interval",
		config.DefaultRunInterval,
		"the pause between two scheduled runs",
	)
}

// readConfig reads the configuration file, if any
func (c *serveCfg) readConfig() error {
	if c.configPath == "" {
		return nil
	}

	cfg, err := config.Read(c.configPath)
	if err != nil {
		return fmt.Errorf("unable to read config, %w", err)
	}

	c.config = cfg

	return nil
}

// serve runs the scheduled scrapers and the status API over the
// given task ledger, until the context is cancelled
func (c *serveCfg) serve(ctx context.Context, store storage.Storage, logger *slog.Logger) error {
	collector := metrics.New()

	// Every scheduled unit goes through the task runner, so it ends up in the ledger
	runner := ingest.NewRunner(
		store,
		ingest.WithLogger(logger),
		ingest.WithMetrics(collector),
	)

	scheduler := ingest.NewScheduler(ingest.WithLogger(logger))

	for _, scraper := range scrapers.Default(c.config, logger) {
		driver := ingest.NewDriver(
			scraper,
			ingest.WithLogger(logger),
			ingest.WithMetrics(collector),
			ingest.WithDelay(c.config.Delay),
			ingest.WithInterval(c.config.RunInterval),
			ingest.WithExecutor(ingest.NewTaskExecutor(runner)),
		)

		if err := scheduler.Register(driver); err != nil {
			return fmt.Errorf("unable to register scraper: %w", err)
		}
	}

	// Create the server instance
	s, err := server.New(
		store,
		server.WithLogger(logger),
		server.WithConfig(c.config),
		server.WithMetrics(collector),
	)
	if err != nil {
		return fmt.Errorf("unable to create server, %w", err)
	}

	runCtx, cancelFn := signal.NotifyContext(
		ctx,
		os.Interrupt,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
	defer cancelFn()

	group, gCtx := errgroup.WithContext(runCtx)

	// Start the HTTP server
	group.Go(func() error {
		return s.Serve(gCtx)
	})

	// Start the task runner
	group.Go(func() error {
		return runner.Start(gCtx)
	})

	// Start the run scheduler
	group.Go(func() error {
		return scheduler.Start(gCtx)
	})

	return group.Wait()
}
