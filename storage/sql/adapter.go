package sql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/xid"

	"github.com/sig-0/offersync/storage/types"
)

const (
	defaultLimit = int32(100)
	maxLimit     = int32(500)
)

// Querier is the subset of the pgx connection API used by the storage.
// It is satisfied by *pgx.Conn and *pgxpool.Pool
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Storage struct {
	db Querier
}

func NewStorage(db Querier) *Storage {
	return &Storage{
		db: db,
	}
}

func (s *Storage) SaveTask(ctx context.Context, rec *types.TaskRecord) error {
	_, err := s.db.Exec(
		ctx,
		saveTaskQuery,
		rec.ID.String(),
		rec.Scraper.String(),
		rec.Currency,
		rec.Side.String(),
		rec.State.String(),
		rec.Fetched,
		rec.Published,
		rec.Rejected,
		rec.Error,
		timeToTimestampz(rec.StartedAt),
		timeToTimestampz(rec.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("unable to save task: %w", err)
	}

	return nil
}

func (s *Storage) ListTasks(
	ctx context.Context,
	query *types.TaskQuery,
) (*types.Page[*types.TaskRecord], error) {
	var scraper, state *string

	if query.Scraper != nil {
		v := query.Scraper.String()
		scraper = &v
	}

	if query.State != nil {
		v := query.State.String()
		state = &v
	}

	limit := query.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	if limit > maxLimit {
		limit = maxLimit
	}

	offset := query.Offset
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.Query(ctx, listTasksQuery, scraper, state, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch tasks: %w", err)
	}
	defer rows.Close()

	var (
		total int64
		items = make([]*types.TaskRecord, 0, limit)
	)

	for rows.Next() {
		rec, rowTotal, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("unable to scan task: %w", err)
		}

		total = rowTotal
		items = append(items, rec)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("unable to fetch tasks: %w", err)
	}

	if len(items) == 0 {
		return &types.Page[*types.TaskRecord]{
			Results: nil,
			Total:   0,
		}, nil // valid case
	}

	return &types.Page[*types.TaskRecord]{
		Results: items,
		Total:   total,
	}, nil
}

func (s *Storage) ListScrapers(ctx context.Context) ([]types.ScraperName, error) {
	rows, err := s.db.Query(ctx, listScrapersQuery)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch scrapers: %w", err)
	}

	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("unable to fetch scrapers: %w", err)
	}

	out := make([]types.ScraperName, 0, len(names))

	for _, name := range names {
		out = append(out, types.ScraperName(name))
	}

	return out, nil
}

func (s *Storage) PublishedCount(ctx context.Context, scraper types.ScraperName) (int64, error) {
	var count int64

	if err := s.db.QueryRow(ctx, publishedCountQuery, scraper.String()).Scan(&count); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil // valid case
		}

		return 0, fmt.Errorf("unable to fetch published count: %w", err)
	}

	return count, nil
}

// scanTask parses a task row into the common Go type
func scanTask(row pgx.Row) (*types.TaskRecord, int64, error) {
	var (
		id, scraper, side, state string
		startedAt, finishedAt    pgtype.Timestamptz
		total                    int64

		rec = &types.TaskRecord{}
	)

	err := row.Scan(
		&id,
		&scraper,
		&rec.Currency,
		&side,
		&state,
		&rec.Fetched,
		&rec.Published,
		&rec.Rejected,
		&rec.Error,
		&startedAt,
		&finishedAt,
		&total,
	)
	if err != nil {
		return nil, 0, err
	}

	rec.ID, err = xid.FromString(id)
	if err != nil {
		return nil, 0, fmt.Errorf("invalid task id %q: %w", id, err)
	}

	rec.Scraper = types.ScraperName(scraper)
	rec.Side = types.Side(side)
	rec.State = types.TaskState(state)
	rec.StartedAt = timestampzToTime(startedAt)
	rec.FinishedAt = timestampzToTime(finishedAt)

	return rec, total, nil
}

// timeToTimestampz converts the time value to postgres timestamp
func timeToTimestampz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{
		Time:  t.UTC(),
		Valid: true,
	}
}

// timestampzToTime converts the postgres timestamp value to time
func timestampzToTime(ts pgtype.Timestamptz) time.Time {
	if !ts.Valid {
		return time.Time{}
	}

	return ts.Time.UTC()
}
