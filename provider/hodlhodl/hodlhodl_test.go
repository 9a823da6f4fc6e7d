package hodlhodl

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sig-0/offersync/client"
	"github.com/sig-0/offersync/storage/types"
)

// fakeMarketplace is an in-process HodlHodl API
type fakeMarketplace struct {
	currencies string
	offers     map[string]string // "<currency>/<side>" -> offers JSON body

	published  []map[string]map[string]any
	offerCalls []url.Values

	failOffers  bool
	failPublish bool

	mu sync.Mutex
}

func (f *fakeMarketplace) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/api/frontend/currencies":
		_, _ = w.Write([]byte(f.currencies))
	case r.Method == http.MethodGet && r.URL.Path == "/api/frontend/offers":
		q := r.URL.Query()
		f.offerCalls = append(f.offerCalls, q)

		if f.failOffers {
			w.WriteHeader(http.StatusInternalServerError)

			return
		}

		body, ok := f.offers[q.Get("filters[currency_code]")+"/"+q.Get("filters[side]")]
		if !ok {
			body = `{"offers": []}`
		}

		_, _ = w.Write([]byte(body))
	case r.Method == http.MethodPost && r.URL.Path == "/api/v1/offers":
		if f.failPublish {
			w.WriteHeader(http.StatusUnprocessableEntity)

			return
		}

		var body map[string]map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)

			return
		}

		f.published = append(f.published, body)

		_, _ = w.Write([]byte(`{"status":"ok"}`))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *fakeMarketplace) calls() []url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]url.Values(nil), f.offerCalls...)
}

func (f *fakeMarketplace) posts() []map[string]map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]map[string]map[string]any(nil), f.published...)
}

func newTestScraper(t *testing.T, f *fakeMarketplace) *Scraper {
	t.Helper()

	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	return New(client.New(srv.URL + "/api/"))
}

func TestScraper_ListCurrencies(t *testing.T) {
	t.Parallel()

	t.Run("upstream order", func(t *testing.T) {
		t.Parallel()

		s := newTestScraper(t, &fakeMarketplace{
			currencies: `{"currencies": [{"code": "USD", "name": "US Dollar"}, {"code": "EUR"}, {"code": "ARS"}]}`,
		})

		assert.Equal(t, []string{"USD", "EUR", "ARS"}, s.ListCurrencies(context.Background()))
	})

	t.Run("request failure", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.NotFoundHandler())
		base := srv.URL
		srv.Close()

		s := New(client.New(base + "/api/"))

		currencies := s.ListCurrencies(context.Background())

		require.NotNil(t, currencies)
		assert.Empty(t, currencies)
	})

	t.Run("malformed body", func(t *testing.T) {
		t.Parallel()

		s := newTestScraper(t, &fakeMarketplace{currencies: `not json`})

		assert.Empty(t, s.ListCurrencies(context.Background()))
	})
}

func TestScraper_FetchOffers(t *testing.T) {
	t.Parallel()

	t.Run("single page query", func(t *testing.T) {
		t.Parallel()

		f := &fakeMarketplace{
			offers: map[string]string{
				"USD/buy": `{"offers": [{"id": "a"}, {"id": "b"}]}`,
			},
		}

		s := newTestScraper(t, f)

		offers, err := s.FetchOffers(context.Background(), "USD", types.SideBuy)
		require.NoError(t, err)
		require.Len(t, offers, 2)

		calls := f.calls()
		require.Len(t, calls, 1)

		q := calls[0]

		assert.Equal(t, "USD", q.Get("filters[currency_code]"))
		assert.Equal(t, "buy", q.Get("filters[side]"))
		assert.Equal(t, "0", q.Get("pagination[offset]"))
		assert.Equal(t, "100", q.Get("pagination[limit]"))
		assert.Equal(t, "true", q.Get("facets[show_empty_rest]"))
		assert.Equal(t, "false", q.Get("facets[only]"))
	})

	t.Run("request failure", func(t *testing.T) {
		t.Parallel()

		s := newTestScraper(t, &fakeMarketplace{failOffers: true})

		offers, err := s.FetchOffers(context.Background(), "USD", types.SideSell)

		assert.ErrorIs(t, err, client.ErrRequestFailed)
		assert.Nil(t, offers)
	})
}

func TestScraper_ProcessUnit(t *testing.T) {
	t.Parallel()

	t.Run("publishes every offer", func(t *testing.T) {
		t.Parallel()

		f := &fakeMarketplace{
			offers: map[string]string{
				"EUR/sell": `{"offers": [` + rawOfferJSON + `, {"id": 7, "country_code": "Global"}]}`,
			},
		}

		s := newTestScraper(t, f)

		unit := types.Unit{
			Scraper:  types.ScraperHodlHodl,
			Currency: "EUR",
			Side:     types.SideSell,
		}

		result, err := s.ProcessUnit(context.Background(), unit)
		require.NoError(t, err)

		assert.Equal(t, unit, result.Unit)
		assert.Equal(t, 2, result.Fetched)
		assert.Equal(t, 2, result.Published)
		assert.Zero(t, result.Rejected)

		published := f.posts()
		require.Len(t, published, 2)
		assert.Equal(t, "m9Lk2z", published[0]["offer"]["offer_identifier"])
		assert.Equal(t, "DE", published[0]["offer"]["country_code"])
		assert.InDelta(t, 7.0, published[1]["offer"]["offer_identifier"], 1e-9)
		assert.Equal(t, "GL", published[1]["offer"]["country_code"])
	})

	t.Run("publish failures do not stop the unit", func(t *testing.T) {
		t.Parallel()

		f := &fakeMarketplace{
			failPublish: true,
			offers: map[string]string{
				"EUR/buy": `{"offers": [{"id": "a"}, {"id": "b"}, {"id": "c"}]}`,
			},
		}

		s := newTestScraper(t, f)

		result, err := s.ProcessUnit(context.Background(), types.Unit{
			Scraper:  types.ScraperHodlHodl,
			Currency: "EUR",
			Side:     types.SideBuy,
		})
		require.NoError(t, err)

		assert.Equal(t, 3, result.Fetched)
		assert.Zero(t, result.Published)
		assert.Equal(t, 3, result.Rejected)
	})

	t.Run("fetch failure", func(t *testing.T) {
		t.Parallel()

		s := newTestScraper(t, &fakeMarketplace{failOffers: true})

		result, err := s.ProcessUnit(context.Background(), types.Unit{
			Currency: "EUR",
			Side:     types.SideBuy,
		})

		assert.Error(t, err)
		assert.Nil(t, result)
	})

	t.Run("missing offers key", func(t *testing.T) {
		t.Parallel()

		f := &fakeMarketplace{
			offers: map[string]string{
				"USD/buy": `{}`,
			},
		}

		s := newTestScraper(t, f)

		result, err := s.ProcessUnit(context.Background(), types.Unit{
			Currency: "USD",
			Side:     types.SideBuy,
		})
		require.NoError(t, err)

		assert.Zero(t, result.Fetched)
		assert.Empty(t, f.posts())
	})
}

func TestScraper_Options(t *testing.T) {
	t.Parallel()

	s := New(&mockDoer{})
	assert.Equal(t, 100, s.TotalOfferPercentToScrape())
	assert.Equal(t, types.ScraperHodlHodl, s.Name())

	s = New(&mockDoer{}, WithTotalOfferPercentToScrape(25))
	assert.Equal(t, 25, s.TotalOfferPercentToScrape())
}
