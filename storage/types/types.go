package types

import (
	"time"

	"github.com/rs/xid"
)

// Side is the trading direction of an offer, from the marketplace's perspective
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

func (s Side) String() string {
	return string(s)
}

// Valid returns true if the side is a known trading direction
func (s Side) Valid() bool {
	return s == SideBuy || s == SideSell
}

// Sides returns the trading sides in processing order
func Sides() []Side {
	return []Side{SideBuy, SideSell}
}

// ScraperName labels the marketplace a scraper pulls offers from.
// New marketplaces are added as new variants
type ScraperName string

const (
	ScraperHodlHodl ScraperName = "hodlhodl"
)

func (n ScraperName) String() string {
	return string(n)
}

// Valid returns true if the scraper name is part of the known set
func (n ScraperName) Valid() bool {
	for _, known := range ScraperNames() {
		if n == known {
			return true
		}
	}

	return false
}

// ScraperNames returns all known scraper names
func ScraperNames() []ScraperName {
	return []ScraperName{ScraperHodlHodl}
}

// Unit is a single (currency, side) unit of work for a scraper
type Unit struct {
	Scraper  ScraperName `json:"scraper"`
	Currency string      `json:"currency"`
	Side     Side        `json:"side"`
}

// UnitResult is the outcome of processing a single unit of work
type UnitResult struct {
	Unit

	Fetched   int `json:"fetched"`   // offers returned by the marketplace
	Published int `json:"published"` // offers accepted by the downstream API
	Rejected  int `json:"rejected"`  // offers whose publish failed
}

type TaskState string

const (
	TaskStateCompleted TaskState = "COMPLETED"
	TaskStateFailed    TaskState = "FAILED"
	TaskStateCancelled TaskState = "CANCELLED"
)

func (s TaskState) String() string {
	return string(s)
}

// Valid returns true if the state is a known task state
func (s TaskState) Valid() bool {
	switch s {
	case TaskStateCompleted, TaskStateFailed, TaskStateCancelled:
		return true
	default:
		return false
	}
}

// TaskRecord is the ledger entry for a single orchestrated unit of work
type TaskRecord struct {
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Unit

	Error string    `json:"error,omitempty"`
	State TaskState `json:"state"`
	ID    xid.ID    `json:"id"`

	Fetched   int `json:"fetched"`
	Published int `json:"published"`
	Rejected  int `json:"rejected"`
}

// Completed returns true if the task finished successfully
func (r *TaskRecord) Completed() bool {
	return r.State == TaskStateCompleted
}

type TaskQuery struct {
	Scraper *ScraperName `json:"scraper"`
	State   *TaskState   `json:"state"`
	Offset  int64        `json:"offset"`
	Limit   int32        `json:"limit"`
}

// Page wraps the results for pagination
type Page[T any] struct {
	Results []T   `json:"results"`
	Total   int64 `json:"total"`
}

// RunReport summarizes a single driver run
type RunReport struct {
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Scraper    ScraperName   `json:"scraper"`
	Currencies []string      `json:"currencies"`
	Units      []*UnitReport `json:"units"`
}

// UnitReport is the per-unit entry of a run report
type UnitReport struct {
	Result *UnitResult `json:"result,omitempty"`
	Error  string      `json:"error,omitempty"`
	Unit   Unit        `json:"unit"`
	OK     bool        `json:"ok"`
}

// Published returns the total number of offers published during the run
func (r *RunReport) Published() int {
	var total int

	for _, u := range r.Units {
		if u.Result != nil {
			total += u.Result.Published
		}
	}

	return total
}

// Failed returns the number of units that did not complete
func (r *RunReport) Failed() int {
	var failed int

	for _, u := range r.Units {
		if !u.OK {
			failed++
		}
	}

	return failed
}
