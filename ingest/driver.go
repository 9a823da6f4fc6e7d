package ingest

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sig-0/offersync/metrics"
	"github.com/sig-0/offersync/storage/types"
)

// Scraper is a single marketplace offer scraper
type Scraper interface {
	// Name returns the scraper label
	Name() types.ScraperName

	// ListCurrencies fetches the marketplace currency codes.
	// An empty list means there is no work to do
	ListCurrencies(context.Context) []string

	// ProcessUnit fetches, normalizes and publishes the offers of a unit
	ProcessUnit(context.Context, types.Unit) (*types.UnitResult, error)
}

// DriverState is the run state of the driver
type DriverState string

const (
	StateIdle        DriverState = "idle"
	StateEnumerating DriverState = "enumerating"
	StateIterating   DriverState = "iterating"
	StateSleeping    DriverState = "sleeping"
	StateDone        DriverState = "done"
)

// Driver runs a scraper over every (currency, side) unit of work, in order
type Driver struct {
	scraper  Scraper
	executor UnitExecutor
	logger   *slog.Logger
	metrics  *metrics.Collector

	intN  func(int) int
	sleep func(context.Context, time.Duration) error

	state DriverState

	delay    time.Duration
	interval time.Duration

	stateMux sync.RWMutex
}

// NewDriver creates a new run driver for the scraper
func NewDriver(scraper Scraper, opts ...Option) *Driver {
	o := newOptions(opts...)

	executor := o.executor
	if executor == nil {
		executor = NewInlineExecutor()
	}

	return &Driver{
		scraper:  scraper,
		executor: executor,
		logger:   o.logger,
		metrics:  o.metrics,
		intN:     o.intN,
		sleep:    sleepContext,
		state:    StateIdle,
		delay:    o.delay,
		interval: o.interval,
	}
}

// Name returns the name of the driven scraper
func (d *Driver) Name() string {
	return d.scraper.Name().String()
}

// Interval returns the pause between two scheduled runs
func (d *Driver) Interval() time.Duration {
	return d.interval
}

// State returns the current run state
func (d *Driver) State() DriverState {
	d.stateMux.RLock()
	defer d.stateMux.RUnlock()

	return d.state
}

func (d *Driver) setState(s DriverState) {
	d.stateMux.Lock()
	defer d.stateMux.Unlock()

	d.state = s
}

// Run executes a full run: every currency, both sides.
// Failed units are logged and skipped. An error is returned only
// if the context is cancelled mid-run
func (d *Driver) Run(ctx context.Context) (*types.RunReport, error) {
	report := d.newReport(ctx)

	defer d.finish(report)

	if len(report.Currencies) == 0 {
		d.logger.Info(
			"no currencies to process",
			"scraper", d.scraper.Name(),
		)

		return report, nil
	}

	for _, currency := range report.Currencies {
		d.setState(StateIterating)

		for _, side := range types.Sides() {
			if err := ctx.Err(); err != nil {
				return report, err
			}

			report.Units = append(report.Units, d.execute(ctx, currency, side))
		}

		// Fixed courtesy delay for the marketplace
		d.setState(StateSleeping)

		if err := d.sleep(ctx, d.delay); err != nil {
			return report, err
		}
	}

	return report, nil
}

// RunRandom executes a single-unit run, for the sell side of a randomly
// picked currency
func (d *Driver) RunRandom(ctx context.Context) (*types.RunReport, error) {
	report := d.newReport(ctx)

	defer d.finish(report)

	if len(report.Currencies) == 0 {
		d.logger.Info(
			"no currencies to process",
			"scraper", d.scraper.Name(),
		)

		return report, nil
	}

	currency := report.Currencies[d.intN(len(report.Currencies))]

	// Only the picked currency is part of the run
	report.Currencies = []string{currency}

	d.setState(StateIterating)

	if err := ctx.Err(); err != nil {
		return report, err
	}

	report.Units = append(report.Units, d.execute(ctx, currency, types.SideSell))

	return report, nil
}

// newReport starts a run report, enumerating the currencies
func (d *Driver) newReport(ctx context.Context) *types.RunReport {
	report := &types.RunReport{
		StartedAt: time.Now().UTC(),
		Scraper:   d.scraper.Name(),
	}

	d.setState(StateEnumerating)

	report.Currencies = d.scraper.ListCurrencies(ctx)

	return report
}

// finish closes the run report
func (d *Driver) finish(report *types.RunReport) {
	report.FinishedAt = time.Now().UTC()

	d.setState(StateDone)

	if d.metrics != nil {
		d.metrics.ObserveRun(report.Scraper)
	}

	d.logger.Info(
		"run finished",
		"scraper", report.Scraper,
		"currencies", len(report.Currencies),
		"units", len(report.Units),
		"failed_units", report.Failed(),
		"published", report.Published(),
		"duration", report.FinishedAt.Sub(report.StartedAt).String(),
	)
}

// execute runs a single unit through the executor
func (d *Driver) execute(ctx context.Context, currency string, side types.Side) *types.UnitReport {
	unit := types.Unit{
		Scraper:  d.scraper.Name(),
		Currency: currency,
		Side:     side,
	}

	outcome := d.executor.Execute(ctx, unit, d.scraper.ProcessUnit)

	if !outcome.Completed() {
		d.logger.Error(
			"unit did not complete",
			"scraper", unit.Scraper,
			"currency", unit.Currency,
			"side", unit.Side,
			"state", outcome.State,
			"err", outcome.Err,
		)

		report := &types.UnitReport{
			Unit: unit,
			OK:   false,
		}

		if outcome.Err != nil {
			report.Error = outcome.Err.Error()
		}

		return report
	}

	d.logger.Info(
		"processed unit",
		"scraper", unit.Scraper,
		"currency", unit.Currency,
		"side", unit.Side,
		"fetched", outcome.Result.Fetched,
		"published", outcome.Result.Published,
	)

	return &types.UnitReport{
		Unit:   unit,
		Result: outcome.Result,
		OK:     true,
	}
}

// sleepContext blocks for the given duration, or until the context is done
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
