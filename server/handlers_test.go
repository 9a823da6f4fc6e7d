package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/xid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sig-0/offersync/config"
	"github.com/sig-0/offersync/metrics"
	"github.com/sig-0/offersync/storage/memory"
	"github.com/sig-0/offersync/storage/mock"
	"github.com/sig-0/offersync/storage/types"
)

func TestHandlers_Tasks(t *testing.T) {
	t.Parallel()

	t.Run("invalid state", func(t *testing.T) {
		t.Parallel()

		var called bool

		storage := &mock.Storage{
			ListTasksFn: func(
				_ context.Context,
				_ *types.TaskQuery,
			) (*types.Page[*types.TaskRecord], error) {
				called = true

				return nil, nil
			},
		}

		s := &Server{
			storage: storage,
			logger:  noopLogger,
		}

		req := httptest.NewRequest(http.MethodGet, "/v1/tasks?state=PENDING", http.NoBody)
		w := httptest.NewRecorder()

		s.Tasks(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, errInvalidState.Error(), decodeError(t, w))
		assert.False(t, called)
	})

	t.Run("invalid scraper", func(t *testing.T) {
		t.Parallel()

		s := &Server{
			storage: &mock.Storage{},
			logger:  noopLogger,
		}

		req := httptest.NewRequest(http.MethodGet, "/v1/tasks?scraper=localbitcoins", http.NoBody)
		w := httptest.NewRecorder()

		s.Tasks(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, errInvalidScraper.Error(), decodeError(t, w))
	})

	t.Run("storage error", func(t *testing.T) {
		t.Parallel()

		storage := &mock.Storage{
			ListTasksFn: func(
				_ context.Context,
				_ *types.TaskQuery,
			) (*types.Page[*types.TaskRecord], error) {
				return nil, errors.New("boom")
			},
		}

		s := &Server{
			storage: storage,
			logger:  noopLogger,
		}

		req := httptest.NewRequest(http.MethodGet, "/v1/tasks", http.NoBody)
		w := httptest.NewRecorder()

		s.Tasks(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, errUnableToFetchTasks.Error(), decodeError(t, w))
	})

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		var (
			capturedQuery *types.TaskQuery

			id = xid.New()
		)

		storage := &mock.Storage{
			ListTasksFn: func(
				_ context.Context,
				query *types.TaskQuery,
			) (*types.Page[*types.TaskRecord], error) {
				capturedQuery = query

				return &types.Page[*types.TaskRecord]{
					Results: []*types.TaskRecord{{
						ID: id,
						Unit: types.Unit{
							Scraper:  types.ScraperHodlHodl,
							Currency: "USD",
							Side:     types.SideBuy,
						},
						State:     types.TaskStateFailed,
						Error:     "upstream down",
						StartedAt: time.Date(2026, time.January, 10, 0, 0, 0, 0, time.UTC),
					}},
					Total: 1,
				}, nil
			},
		}

		s := &Server{
			storage: storage,
			logger:  noopLogger,
		}

		url := "/v1/tasks?scraper=hodlhodl&state=failed&limit=200&offset=2"
		req := httptest.NewRequest(http.MethodGet, url, http.NoBody)
		w := httptest.NewRecorder()

		s.Tasks(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		var page types.Page[*types.TaskRecord]

		require.NoError(t, json.NewDecoder(w.Body).Decode(&page))
		require.Len(t, page.Results, 1)
		assert.Equal(t, int64(1), page.Total)

		rec := page.Results[0]
		assert.Equal(t, id, rec.ID)
		assert.Equal(t, "USD", rec.Currency)
		assert.Equal(t, types.SideBuy, rec.Side)
		assert.Equal(t, "upstream down", rec.Error)

		require.NotNil(t, capturedQuery)

		require.NotNil(t, capturedQuery.Scraper)
		assert.Equal(t, types.ScraperHodlHodl, *capturedQuery.Scraper)

		require.NotNil(t, capturedQuery.State)
		assert.Equal(t, types.TaskStateFailed, *capturedQuery.State)

		assert.Equal(t, int32(200), capturedQuery.Limit)
		assert.Equal(t, int64(2), capturedQuery.Offset)
	})
}

func TestHandlers_Scrapers(t *testing.T) {
	t.Parallel()

	t.Run("storage error", func(t *testing.T) {
		t.Parallel()

		s := &Server{
			storage: &mock.Storage{
				ListScrapersFn: func(_ context.Context) ([]types.ScraperName, error) {
					return nil, errors.New("boom")
				},
			},
			logger: noopLogger,
		}

		req := httptest.NewRequest(http.MethodGet, "/v1/scrapers", http.NoBody)
		w := httptest.NewRecorder()

		s.Scrapers(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("empty ledger", func(t *testing.T) {
		t.Parallel()

		s := &Server{
			storage: &mock.Storage{},
			logger:  noopLogger,
		}

		req := httptest.NewRequest(http.MethodGet, "/v1/scrapers", http.NoBody)
		w := httptest.NewRecorder()

		s.Scrapers(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"results": []}`, w.Body.String())
	})

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		s := &Server{
			storage: &mock.Storage{
				ListScrapersFn: func(_ context.Context) ([]types.ScraperName, error) {
					return []types.ScraperName{types.ScraperHodlHodl}, nil
				},
			},
			logger: noopLogger,
		}

		req := httptest.NewRequest(http.MethodGet, "/v1/scrapers", http.NoBody)
		w := httptest.NewRecorder()

		s.Scrapers(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"results": ["hodlhodl"]}`, w.Body.String())
	})
}

func TestHandlers_ScraperOffers(t *testing.T) {
	t.Parallel()

	t.Run("invalid scraper", func(t *testing.T) {
		t.Parallel()

		s := &Server{
			storage: &mock.Storage{},
			logger:  noopLogger,
		}

		req := httptest.NewRequest(http.MethodGet, "/v1/scrapers/nope/offers", http.NoBody)
		req = withRouteParams(t, req, map[string]string{"scraper": "nope"})

		w := httptest.NewRecorder()
		s.ScraperOffers(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("storage error", func(t *testing.T) {
		t.Parallel()

		s := &Server{
			storage: &mock.Storage{
				PublishedCountFn: func(_ context.Context, _ types.ScraperName) (int64, error) {
					return 0, errors.New("boom")
				},
			},
			logger: noopLogger,
		}

		req := httptest.NewRequest(http.MethodGet, "/v1/scrapers/hodlhodl/offers", http.NoBody)
		req = withRouteParams(t, req, map[string]string{"scraper": "hodlhodl"})

		w := httptest.NewRecorder()
		s.ScraperOffers(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		var captured types.ScraperName

		s := &Server{
			storage: &mock.Storage{
				PublishedCountFn: func(_ context.Context, scraper types.ScraperName) (int64, error) {
					captured = scraper

					return 42, nil
				},
			},
			logger: noopLogger,
		}

		req := httptest.NewRequest(http.MethodGet, "/v1/scrapers/HodlHodl/offers", http.NoBody)
		req = withRouteParams(t, req, map[string]string{"scraper": "HodlHodl"})

		w := httptest.NewRecorder()
		s.ScraperOffers(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, types.ScraperHodlHodl, captured)
		assert.JSONEq(t, `{"scraper": "hodlhodl", "published": 42}`, w.Body.String())
	})
}

func TestServer_Routes(t *testing.T) {
	t.Parallel()

	var (
		store     = memory.NewStorage()
		collector = metrics.New()
	)

	rec := &types.TaskRecord{
		ID: xid.New(),
		Unit: types.Unit{
			Scraper:  types.ScraperHodlHodl,
			Currency: "EUR",
			Side:     types.SideSell,
		},
		State:     types.TaskStateCompleted,
		Fetched:   3,
		Published: 3,
	}

	require.NoError(t, store.SaveTask(context.Background(), rec))
	collector.ObserveTask(rec)

	s, err := New(store, WithMetrics(collector))
	require.NoError(t, err)

	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)

	testTable := []struct {
		name         string
		path         string
		expectedCode int
	}{
		{"health", "/health", http.StatusOK},
		{"metrics", "/metrics", http.StatusOK},
		{"openapi", "/openapi.yaml", http.StatusOK},
		{"docs", "/docs", http.StatusOK},
		{"tasks", "/v1/tasks", http.StatusOK},
		{"scrapers", "/v1/scrapers", http.StatusOK},
		{"scraper offers", "/v1/scrapers/hodlhodl/offers", http.StatusOK},
		{"unknown route", "/v1/rates", http.StatusNotFound},
	}

	for _, testCase := range testTable {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			req, err := http.NewRequestWithContext(
				context.Background(),
				http.MethodGet,
				srv.URL+testCase.path,
				http.NoBody,
			)
			require.NoError(t, err)

			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)

			defer resp.Body.Close()

			assert.Equal(t, testCase.expectedCode, resp.StatusCode)
		})
	}
}

func TestServer_New(t *testing.T) {
	t.Parallel()

	t.Run("invalid config", func(t *testing.T) {
		t.Parallel()

		cfg := config.DefaultConfig()
		cfg.ListenAddress = "nope"

		_, err := New(&mock.Storage{}, WithConfig(cfg))

		assert.ErrorIs(t, err, config.ErrInvalidListenAddress)
	})
}

func TestUtils_ParseLimitOffset(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		limit, offset, err := parseLimitOffset("", "")

		require.NoError(t, err)
		assert.Equal(t, int32(100), limit)
		assert.Equal(t, int64(0), offset)
	})

	t.Run("clamps limit", func(t *testing.T) {
		t.Parallel()

		limit, offset, err := parseLimitOffset("999", "5")

		require.NoError(t, err)
		assert.Equal(t, int32(500), limit)
		assert.Equal(t, int64(5), offset)
	})

	t.Run("invalid limit", func(t *testing.T) {
		t.Parallel()

		_, _, err := parseLimitOffset("nope", "0")

		assert.ErrorIs(t, err, errInvalidLimit)
	})

	t.Run("negative offset", func(t *testing.T) {
		t.Parallel()

		_, _, err := parseLimitOffset("10", "-1")

		assert.ErrorIs(t, err, errInvalidOffset)
	})
}

func withRouteParams(t *testing.T, req *http.Request, params map[string]string) *http.Request {
	t.Helper()

	rctx := chi.NewRouteContext()

	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}

	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()

	var resp ErrorResponse

	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))

	return resp.Error
}
