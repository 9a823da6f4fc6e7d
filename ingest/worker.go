package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/xid"

	"github.com/sig-0/offersync/storage/types"
)

var errRunnerStopped = errors.New("task runner stopped")

// Task is a single unit of work submitted to the runner
type Task struct {
	ID   xid.ID
	Unit types.Unit

	fn     UnitFunc
	record *types.TaskRecord

	done    chan struct{}
	stopped <-chan struct{} // closed when the runner shuts down

	once sync.Once
}

func newTask(unit types.Unit, fn UnitFunc, stopped <-chan struct{}) *Task {
	return &Task{
		ID:      xid.New(),
		Unit:    unit,
		fn:      fn,
		done:    make(chan struct{}),
		stopped: stopped,
	}
}

// Wait blocks until the runner reports the task's final state
func (t *Task) Wait(ctx context.Context) (*types.TaskRecord, error) {
	// A finished task takes priority over a concurrent shutdown
	select {
	case <-t.done:
		return t.record, nil
	default:
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-t.done:
		return t.record, nil
	case <-t.stopped:
		select {
		case <-t.done:
			return t.record, nil
		default:
		}

		return &types.TaskRecord{
			ID:         t.ID,
			Unit:       t.Unit,
			State:      types.TaskStateCancelled,
			Error:      errRunnerStopped.Error(),
			FinishedAt: time.Now().UTC(),
		}, nil
	}
}

// finish stores the final record, and releases waiters
func (t *Task) finish(rec *types.TaskRecord) {
	t.once.Do(func() {
		t.record = rec
		close(t.done)
	})
}

// taskResponse is the worker routine response
type taskResponse struct {
	startedAt  time.Time
	finishedAt time.Time

	err    error             // encountered error, if any
	result *types.UnitResult // the unit result
	task   *Task             // the executed task
}

// record builds the ledger entry for the response
func (r *taskResponse) record() *types.TaskRecord {
	rec := &types.TaskRecord{
		ID:         r.task.ID,
		Unit:       r.task.Unit,
		StartedAt:  r.startedAt,
		FinishedAt: r.finishedAt,
		State:      types.TaskStateCompleted,
	}

	switch {
	case r.err != nil:
		rec.State = failedOutcome(r.err).State
		rec.Error = r.err.Error()
	case r.result == nil:
		rec.State = types.TaskStateFailed
		rec.Error = errNoResult.Error()
	default:
		rec.Fetched = r.result.Fetched
		rec.Published = r.result.Published
		rec.Rejected = r.result.Rejected
	}

	return rec
}

// handleTask executes the task's unit of work
func handleTask(
	ctx context.Context,
	task *Task,
	resCh chan<- *taskResponse,
) {
	startedAt := time.Now().UTC()

	result, err := runTask(ctx, task)

	response := &taskResponse{
		startedAt:  startedAt,
		finishedAt: time.Now().UTC(),
		err:        err,
		result:     result,
		task:       task,
	}

	select {
	case <-ctx.Done():
	case resCh <- response:
	}
}

// runTask runs the task function, converting panics into errors
func runTask(ctx context.Context, task *Task) (result *types.UnitResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()

	return task.fn(ctx, task.Unit)
}
