package ingest

import (
	"io"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/sig-0/offersync/metrics"
)

const (
	// DefaultDelay is the courtesy pause between two currencies
	DefaultDelay = time.Second

	// DefaultInterval is the pause between two scheduled runs
	DefaultInterval = time.Minute * 10
)

type Option func(o *options)

type options struct {
	logger   *slog.Logger
	metrics  *metrics.Collector
	executor UnitExecutor
	intN     func(int) int

	delay         time.Duration
	interval      time.Duration
	queryInterval time.Duration
}

func newOptions(opts ...Option) *options {
	o := &options{
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		intN:          rand.IntN,
		delay:         DefaultDelay,
		interval:      DefaultInterval,
		queryInterval: time.Second, // every second
	}

	// Apply the options
	for _, opt := range opts {
		opt(o)
	}

	return o
}

// WithLogger specifies the logger
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithMetrics specifies the metrics collector, if any
func WithMetrics(m *metrics.Collector) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithExecutor specifies the unit executor for the driver.
// Defaults to inline execution
func WithExecutor(e UnitExecutor) Option {
	return func(o *options) {
		o.executor = e
	}
}

// WithDelay specifies the fixed pause the driver takes after each currency.
// Defaults to 1s
func WithDelay(d time.Duration) Option {
	return func(o *options) {
		o.delay = d
	}
}

// WithInterval specifies the pause between two scheduled driver runs.
// Defaults to 10m
func WithInterval(d time.Duration) Option {
	return func(o *options) {
		o.interval = d
	}
}

// WithQueryInterval specifies the scheduler's due-job query interval.
// Defaults to 1s
func WithQueryInterval(q time.Duration) Option {
	return func(o *options) {
		o.queryInterval = q
	}
}

// WithIntN specifies the random source used to pick a currency
// in single-currency runs. fn must return a value in [0, n)
func WithIntN(fn func(n int) int) Option {
	return func(o *options) {
		o.intN = fn
	}
}
