package mock

import (
	"context"

	"github.com/sig-0/offersync/storage/types"
)

type (
	SaveTaskDelegate       func(context.Context, *types.TaskRecord) error
	ListTasksDelegate      func(context.Context, *types.TaskQuery) (*types.Page[*types.TaskRecord], error)
	ListScrapersDelegate   func(context.Context) ([]types.ScraperName, error)
	PublishedCountDelegate func(context.Context, types.ScraperName) (int64, error)
)

type Storage struct {
	SaveTaskFn       SaveTaskDelegate
	ListTasksFn      ListTasksDelegate
	ListScrapersFn   ListScrapersDelegate
	PublishedCountFn PublishedCountDelegate
}

func (m *Storage) SaveTask(ctx context.Context, rec *types.TaskRecord) error {
	if m.SaveTaskFn != nil {
		return m.SaveTaskFn(ctx, rec)
	}

	return nil
}

func (m *Storage) ListTasks(
	ctx context.Context,
	query *types.TaskQuery,
) (*types.Page[*types.TaskRecord], error) {
	if m.ListTasksFn != nil {
		return m.ListTasksFn(ctx, query)
	}

	return nil, nil
}

func (m *Storage) ListScrapers(ctx context.Context) ([]types.ScraperName, error) {
	if m.ListScrapersFn != nil {
		return m.ListScrapersFn(ctx)
	}

	return nil, nil
}

func (m *Storage) PublishedCount(ctx context.Context, scraper types.ScraperName) (int64, error) {
	if m.PublishedCountFn != nil {
		return m.PublishedCountFn(ctx, scraper)
	}

	return 0, nil
}
