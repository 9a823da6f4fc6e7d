package ingest

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/rs/xid"
	"github.com/sig-0/iq"

	"github.com/sig-0/offersync/storage/types"
)

var (
	errInvalidJob      = errors.New("invalid job")
	errInvalidInterval = errors.New("invalid interval")
)

// Job is a recurring scraper run
type Job interface {
	// Name returns the human-readable name of the job
	Name() string

	// Interval returns the pause between the end of a run and the next one
	Interval() time.Duration

	// Run executes a single full run
	Run(context.Context) (*types.RunReport, error)
}

// Scheduler re-runs registered jobs at their interval.
// A job is never run concurrently with itself
type Scheduler struct {
	logger *slog.Logger

	registeredJobs sync.Map

	q             iq.Queue[scheduledRun]
	queryInterval time.Duration
	qMux          sync.Mutex
}

// NewScheduler creates a new Scheduler instance
func NewScheduler(opts ...Option) *Scheduler {
	o := newOptions(opts...)

	return &Scheduler{
		logger:        o.logger,
		q:             iq.NewQueue[scheduledRun](),
		queryInterval: o.queryInterval,
	}
}

// Register registers a new job with the scheduler.
// The job is immediately queued up for execution
func (s *Scheduler) Register(j Job) error {
	if j == nil || j.Name() == "" {
		return errInvalidJob
	}

	if j.Interval() <= 0 {
		return errInvalidInterval
	}

	id := xid.New()
	s.registeredJobs.Store(id, j)

	s.logger.Info(
		"registered new job",
		"name", j.Name(),
		"interval", j.Interval().String(),
	)

	s.scheduleRun(time.Now().UTC(), id, j)

	return nil
}

// Start starts the job scheduling loop [BLOCKING]
func (s *Scheduler) Start(ctx context.Context) error {
	collectorCh := make(chan *runResponse, 100)

	ticker := time.NewTicker(s.queryInterval)
	defer ticker.Stop()

	// handleDue starts all jobs that are due
	handleDue := func() {
		for {
			select {
			case <-ctx.Done():
				return
			default:
				next := s.nextRun()
				if next == nil {
					return // nothing due
				}

				s.logger.Info(
					"starting scheduled run",
					"name", next.job.Name(),
				)

				go handleRun(ctx, next, collectorCh)
			}
		}
	}

	// Start the jobs that are due on boot
	handleDue()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler shut down")

			return nil
		case <-ticker.C:
			handleDue()
		case response := <-collectorCh:
			rjRaw, ok := s.registeredJobs.Load(response.jobID)
			if !ok {
				s.logger.Error(
					"unable to load registered job",
					"id", response.jobID.String(),
				)

				continue
			}

			j, _ := rjRaw.(Job)

			if response.err != nil {
				s.logger.Error(
					"scheduled run ended early",
					"name", j.Name(),
					"err", response.err,
				)
			}

			// Schedule the next run, regardless of the outcome
			s.scheduleRun(time.Now().UTC().Add(j.Interval()), response.jobID, j)
		}
	}
}

// scheduleRun queues up a job run
func (s *Scheduler) scheduleRun(at time.Time, jobID xid.ID, j Job) {
	s.qMux.Lock()
	defer s.qMux.Unlock()

	s.q.Push(scheduledRun{
		at:    at,
		jobID: jobID,
		job:   j,
	})
}

// nextRun pops the next due run, as of the moment of calling
func (s *Scheduler) nextRun() *scheduledRun {
	s.qMux.Lock()
	defer s.qMux.Unlock()

	if s.q.Len() == 0 {
		return nil // all jobs are running
	}

	if s.q.Index(0).at.After(time.Now().UTC()) {
		return nil // the earliest run is in the future
	}

	return s.q.PopFront()
}

// scheduledRun is a single queued job run
type scheduledRun struct {
	at    time.Time
	job   Job
	jobID xid.ID
}

// Less sorts scheduled runs by their due time (earliest == first)
func (a scheduledRun) Less(b scheduledRun) bool {
	return a.at.Before(b.at)
}

// runResponse is the job routine response
type runResponse struct {
	err    error
	report *types.RunReport
	jobID  xid.ID
}

// handleRun executes a scheduled job run
func handleRun(ctx context.Context, run *scheduledRun, resCh chan<- *runResponse) {
	report, err := run.job.Run(ctx)

	response := &runResponse{
		err:    err,
		report: report,
		jobID:  run.jobID,
	}

	select {
	case <-ctx.Done():
	case resCh <- response:
	}
}
