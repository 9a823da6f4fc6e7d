package storage

import (
	"context"

	"github.com/sig-0/offersync/storage/types"
)

// Storage is an abstraction over the orchestrated task ledger.
// It holds unit-of-work bookkeeping only, never offers or sellers
type Storage interface {
	// SaveTask saves the given finished task record
	SaveTask(context.Context, *types.TaskRecord) error

	// ListTasks lists task records matching the query, latest first
	ListTasks(context.Context, *types.TaskQuery) (*types.Page[*types.TaskRecord], error)

	// ListScrapers lists all scrapers present in the ledger
	ListScrapers(context.Context) ([]types.ScraperName, error)

	// PublishedCount returns the number of offers published
	// by the scraper's completed tasks
	PublishedCount(context.Context, types.ScraperName) (int64, error)
}
