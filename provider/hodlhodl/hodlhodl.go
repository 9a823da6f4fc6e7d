package hodlhodl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/sig-0/offersync/storage/types"
)

const (
	// DefaultBaseURL is the HodlHodl API root, shared by the read and publish endpoints
	DefaultBaseURL = "https://hodlhodl.com/api/"

	currenciesPath = "frontend/currencies"
	offersPath     = "frontend/offers"

	// offersPageLimit is the size of the single offers page fetched per unit
	offersPageLimit = 100
)

// Doer is the HTTP session used by the scraper
type Doer interface {
	// Get fetches the path and decodes the JSON response into out
	Get(ctx context.Context, path string, query url.Values, out any) error

	// Post sends body as JSON to the path, returning the raw response
	Post(ctx context.Context, path string, body, out any) (json.RawMessage, error)
}

// Scraper fetches HodlHodl offers and republishes them downstream
type Scraper struct {
	client    Doer
	publisher *Publisher
	logger    *slog.Logger

	// totalOfferPercentToScrape is reserved, and does not limit fetches
	totalOfferPercentToScrape int
}

// New creates a new HodlHodl scraper over the given session
func New(client Doer, opts ...Option) *Scraper {
	s := &Scraper{
		client:                    client,
		logger:                    slog.New(slog.NewTextHandler(io.Discard, nil)),
		totalOfferPercentToScrape: 100,
	}

	// Apply the options
	for _, opt := range opts {
		opt(s)
	}

	s.publisher = NewPublisher(client, s.logger)

	return s
}

func (s *Scraper) Name() types.ScraperName {
	return types.ScraperHodlHodl
}

// TotalOfferPercentToScrape returns the reserved scrape cap
func (s *Scraper) TotalOfferPercentToScrape() int {
	return s.totalOfferPercentToScrape
}

// ListCurrencies fetches the supported currency codes, in upstream order.
// Fetch failures are logged, and yield an empty list
func (s *Scraper) ListCurrencies(ctx context.Context) []string {
	var resp currenciesResponse

	if err := s.client.Get(ctx, currenciesPath, nil, &resp); err != nil {
		s.logger.Error(
			"unable to fetch currency list",
			"err", err,
		)

		return []string{}
	}

	codes := make([]string, 0, len(resp.Currencies))
	for _, c := range resp.Currencies {
		codes = append(codes, c.Code)
	}

	return codes
}

// FetchOffers fetches the first page of offers for the currency and side
func (s *Scraper) FetchOffers(
	ctx context.Context,
	currency string,
	side types.Side,
) ([]*RawOffer, error) {
	var resp offersResponse

	if err := s.client.Get(ctx, offersPath, offersQuery(currency, side), &resp); err != nil {
		return nil, fmt.Errorf("unable to fetch %s %s offers: %w", currency, side, err)
	}

	return resp.Offers, nil
}

// ProcessUnit fetches, normalizes and publishes the offers of a single unit.
// An error is returned only if the offers could not be fetched
func (s *Scraper) ProcessUnit(ctx context.Context, unit types.Unit) (*types.UnitResult, error) {
	offers, err := s.FetchOffers(ctx, unit.Currency, unit.Side)
	if err != nil {
		return nil, err
	}

	result := &types.UnitResult{
		Unit:    unit,
		Fetched: len(offers),
	}

	for _, raw := range offers {
		var (
			offer  = NormalizeOffer(raw)
			seller = NormalizeSeller(raw)
		)

		// The downstream API does not take seller data
		s.logger.Debug(
			"normalized offer",
			"offer_identifier", offer.OfferIdentifier.String(),
			"seller", seller.Username,
		)

		if resp := s.publisher.Publish(ctx, offer); resp == nil {
			result.Rejected++

			continue
		}

		result.Published++
	}

	return result, nil
}

// offersQuery builds the single-page offers query
func offersQuery(currency string, side types.Side) url.Values {
	q := url.Values{}

	q.Set("filters[currency_code]", currency)
	q.Set("pagination[offset]", "0")
	q.Set("filters[side]", side.String())
	q.Set("facets[show_empty_rest]", "true")
	q.Set("facets[only]", "false")
	q.Set("pagination[limit]", strconv.Itoa(offersPageLimit))

	return q
}
