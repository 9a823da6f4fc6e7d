package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/xid"

	"github.com/sig-0/offersync/storage/types"
)

const (
	defaultLimit = int32(100)
	maxLimit     = int32(500)
)

type Storage struct {
	data map[xid.ID]types.TaskRecord

	mu sync.RWMutex
}

func NewStorage() *Storage {
	return &Storage{
		data: make(map[xid.ID]types.TaskRecord),
	}
}

func (s *Storage) SaveTask(_ context.Context, rec *types.TaskRecord) error {
	elem := *rec
	elem.StartedAt = elem.StartedAt.UTC()
	elem.FinishedAt = elem.FinishedAt.UTC()

	s.mu.Lock()
	s.data[elem.ID] = elem // ID is unique
	s.mu.Unlock()

	return nil
}

func (s *Storage) ListTasks(
	_ context.Context,
	query *types.TaskQuery,
) (*types.Page[*types.TaskRecord], error) {
	var (
		scraper, state       string
		hasScraper, hasState bool
	)

	if query.Scraper != nil {
		scraper = query.Scraper.String()
		hasScraper = true
	}

	if query.State != nil {
		state = query.State.String()
		hasState = true
	}

	s.mu.RLock()

	out := make([]*types.TaskRecord, 0, len(s.data))

	for _, v := range s.data {
		if hasScraper && v.Scraper.String() != scraper {
			continue
		}

		if hasState && v.State.String() != state {
			continue
		}

		cp := v
		out = append(out, &cp)
	}

	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].StartedAt.After(out[j].StartedAt)
		}

		return out[i].ID.Compare(out[j].ID) > 0
	})

	total := int64(len(out))
	if total == 0 {
		return &types.Page[*types.TaskRecord]{
			Results: nil,
			Total:   0,
		}, nil
	}

	lim := query.Limit
	if lim <= 0 {
		lim = defaultLimit
	}

	if lim > maxLimit {
		lim = maxLimit
	}

	off := query.Offset
	if off < 0 {
		off = 0
	}

	if off >= total {
		return &types.Page[*types.TaskRecord]{
			Results: nil,
			Total:   total,
		}, nil
	}

	start := int(off)
	end := start + int(lim)

	if end > len(out) {
		end = len(out)
	}

	return &types.Page[*types.TaskRecord]{
		Results: out[start:end],
		Total:   total,
	}, nil
}

func (s *Storage) ListScrapers(_ context.Context) ([]types.ScraperName, error) {
	s.mu.RLock()

	seen := make(map[types.ScraperName]struct{})

	for _, v := range s.data {
		seen[v.Scraper] = struct{}{}
	}

	s.mu.RUnlock()

	out := make([]types.ScraperName, 0, len(seen))

	for v := range seen {
		out = append(out, v)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].String() < out[j].String()
	})

	return out, nil
}

func (s *Storage) PublishedCount(_ context.Context, scraper types.ScraperName) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total int64

	for _, v := range s.data {
		if v.Scraper != scraper || !v.Completed() {
			continue
		}

		total += int64(v.Published)
	}

	return total, nil
}
