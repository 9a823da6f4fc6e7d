package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/xid"

	"github.com/sig-0/offersync/storage/types"
)

var errNoResult = errors.New("unit returned no result")

// UnitFunc processes a single unit of work
type UnitFunc func(context.Context, types.Unit) (*types.UnitResult, error)

// UnitExecutor runs units of work on behalf of the driver
type UnitExecutor interface {
	// Execute runs the unit, and reports how it ended
	Execute(context.Context, types.Unit, UnitFunc) *Outcome
}

// Outcome is the executor-reported end state of a unit
type Outcome struct {
	Result *types.UnitResult // set if the unit completed
	Err    error             // set if the unit did not complete
	State  types.TaskState
	TaskID xid.ID // set for delegated units
}

// Completed returns true if the unit finished successfully
func (o *Outcome) Completed() bool {
	return o.State == types.TaskStateCompleted
}

func completedOutcome(result *types.UnitResult) *Outcome {
	return &Outcome{
		Result: result,
		State:  types.TaskStateCompleted,
	}
}

func failedOutcome(err error) *Outcome {
	state := types.TaskStateFailed
	if errors.Is(err, context.Canceled) {
		state = types.TaskStateCancelled
	}

	return &Outcome{
		Err:   err,
		State: state,
	}
}

// InlineExecutor runs units synchronously, on the calling goroutine
type InlineExecutor struct{}

// NewInlineExecutor creates a new synchronous executor
func NewInlineExecutor() *InlineExecutor {
	return &InlineExecutor{}
}

func (e *InlineExecutor) Execute(ctx context.Context, unit types.Unit, fn UnitFunc) *Outcome {
	result, err := fn(ctx, unit)
	if err != nil {
		return failedOutcome(err)
	}

	if result == nil {
		return failedOutcome(errNoResult)
	}

	return completedOutcome(result)
}

// TaskExecutor delegates units to a task runner,
// and waits for the runner to report their state
type TaskExecutor struct {
	runner *Runner
}

// NewTaskExecutor creates a new executor over the given runner
func NewTaskExecutor(runner *Runner) *TaskExecutor {
	return &TaskExecutor{
		runner: runner,
	}
}

func (e *TaskExecutor) Execute(ctx context.Context, unit types.Unit, fn UnitFunc) *Outcome {
	task, err := e.runner.Submit(ctx, unit, fn)
	if err != nil {
		return failedOutcome(fmt.Errorf("unable to submit task: %w", err))
	}

	rec, err := task.Wait(ctx)
	if err != nil {
		outcome := failedOutcome(fmt.Errorf("unable to wait for task: %w", err))
		outcome.TaskID = task.ID

		return outcome
	}

	if !rec.Completed() {
		return &Outcome{
			Err:    errors.New(rec.Error),
			State:  rec.State,
			TaskID: rec.ID,
		}
	}

	return &Outcome{
		Result: &types.UnitResult{
			Unit:      rec.Unit,
			Fetched:   rec.Fetched,
			Published: rec.Published,
			Rejected:  rec.Rejected,
		},
		State:  rec.State,
		TaskID: rec.ID,
	}
}
