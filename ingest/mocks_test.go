package ingest

import (
	"context"
	"time"

	"github.com/sig-0/offersync/storage/types"
)

type (
	listCurrenciesDelegate func(context.Context) []string
	processUnitDelegate    func(context.Context, types.Unit) (*types.UnitResult, error)
	runDelegate            func(context.Context) (*types.RunReport, error)
)

type mockScraper struct {
	listCurrenciesFn listCurrenciesDelegate
	processUnitFn    processUnitDelegate
}

func (m *mockScraper) Name() types.ScraperName {
	return types.ScraperHodlHodl
}

func (m *mockScraper) ListCurrencies(ctx context.Context) []string {
	if m.listCurrenciesFn != nil {
		return m.listCurrenciesFn(ctx)
	}

	return nil
}

func (m *mockScraper) ProcessUnit(ctx context.Context, unit types.Unit) (*types.UnitResult, error) {
	if m.processUnitFn != nil {
		return m.processUnitFn(ctx, unit)
	}

	return &types.UnitResult{Unit: unit}, nil
}

type mockJob struct {
	name     string
	interval time.Duration
	runFn    runDelegate
}

func (m *mockJob) Name() string {
	return m.name
}

func (m *mockJob) Interval() time.Duration {
	return m.interval
}

func (m *mockJob) Run(ctx context.Context) (*types.RunReport, error) {
	if m.runFn != nil {
		return m.runFn(ctx)
	}

	return &types.RunReport{}, nil
}
