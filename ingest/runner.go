package ingest

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sig-0/offersync/metrics"
	"github.com/sig-0/offersync/storage"
	"github.com/sig-0/offersync/storage/types"
)

// Runner is the task runner for delegated units of work.
// Every submitted task runs on its own worker routine, and its final
// state is recorded in the task ledger
type Runner struct {
	storage storage.Storage
	metrics *metrics.Collector
	logger  *slog.Logger

	submitCh chan *Task
	stopCh   chan struct{}

	stopOnce sync.Once
}

// NewRunner creates a new task runner, recording into the given storage
func NewRunner(storage storage.Storage, opts ...Option) *Runner {
	o := newOptions(opts...)

	return &Runner{
		storage:  storage,
		metrics:  o.metrics,
		logger:   o.logger,
		submitCh: make(chan *Task),
		stopCh:   make(chan struct{}),
	}
}

// Submit hands the unit over to the runner.
// The runner must be started for the submission to go through
func (r *Runner) Submit(ctx context.Context, unit types.Unit, fn UnitFunc) (*Task, error) {
	task := newTask(unit, fn, r.stopCh)

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-r.stopCh:
		return nil, errRunnerStopped
	case r.submitCh <- task:
		return task, nil
	}
}

// Start starts the task runner loop [BLOCKING]
func (r *Runner) Start(ctx context.Context) error {
	defer r.stopOnce.Do(func() {
		close(r.stopCh)
	})

	collectorCh := make(chan *taskResponse, 100)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("task runner shut down")

			return nil
		case task := <-r.submitCh:
			r.logger.Debug(
				"scheduling task",
				"id", task.ID.String(),
				"scraper", task.Unit.Scraper,
				"currency", task.Unit.Currency,
				"side", task.Unit.Side,
			)

			go handleTask(ctx, task, collectorCh)
		case response := <-collectorCh:
			rec := response.record()

			r.saveRecord(ctx, rec)

			if r.metrics != nil {
				r.metrics.ObserveTask(rec)
			}

			response.task.finish(rec)
		}
	}
}

// saveRecord saves the task record in the ledger
func (r *Runner) saveRecord(ctx context.Context, rec *types.TaskRecord) {
	saveCtx, cancelFn := context.WithTimeout(ctx, time.Second*10)
	defer cancelFn()

	if err := r.storage.SaveTask(saveCtx, rec); err != nil {
		r.logger.Error(
			"unable to save task record",
			"id", rec.ID.String(),
			"scraper", rec.Scraper,
			"err", err,
		)

		return
	}

	r.logger.Info(
		"saved task record",
		"id", rec.ID.String(),
		"scraper", rec.Scraper,
		"currency", rec.Currency,
		"side", rec.Side,
		"state", rec.State,
		"published", rec.Published,
	)
}
