package hodlhodl

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sig-0/offersync/storage/types"
)

const rawOfferJSON = `{
	"id": "m9Lk2z",
	"asset_code": "BTC",
	"country_code": "DE",
	"side": "sell",
	"payment_methods": [
		{"type": "SEPA", "name": "SEPA transfer"},
		{"type": "Revolut", "name": "Revolut"}
	],
	"description": "fast release",
	"currency_code": "EUR",
	"price": "61234.50",
	"min_amount": "50",
	"max_amount": 1500,
	"trader": {
		"login": "satoshi",
		"rating": "0.98",
		"trades_count": 42,
		"url": "https://hodlhodl.com/accounts/satoshi"
	}
}`

func decodeRawOffer(t *testing.T, raw string) *RawOffer {
	t.Helper()

	var offer RawOffer

	require.NoError(t, json.Unmarshal([]byte(raw), &offer))

	return &offer
}

func TestNormalizeOffer(t *testing.T) {
	t.Parallel()

	t.Run("full offer", func(t *testing.T) {
		t.Parallel()

		offer := NormalizeOffer(decodeRawOffer(t, rawOfferJSON))

		assert.Equal(t, "m9Lk2z", offer.OfferIdentifier.String())
		assert.Equal(t, "BTC", offer.FiatCurrency)
		assert.Equal(t, "DE", offer.CountryCode)
		assert.Equal(t, types.SideSell, offer.TradingTypeName)
		assert.Equal(t, types.SideSell, offer.TradingTypeSlug)

		require.NotNil(t, offer.PaymentMethodName)
		require.NotNil(t, offer.PaymentMethodSlug)
		assert.Equal(t, "SEPA", *offer.PaymentMethodName)
		assert.Equal(t, "SEPA", *offer.PaymentMethodSlug)

		require.NotNil(t, offer.Description)
		assert.Equal(t, "fast release", *offer.Description)

		assert.Equal(t, "EUR", offer.CurrencyCode)
		assert.Equal(t, "EUR", offer.CoinCurrency)

		require.NotNil(t, offer.Price)
		require.NotNil(t, offer.MinTradeSize)
		require.NotNil(t, offer.MaxTradeSize)
		assert.InDelta(t, 61234.50, *offer.Price, 1e-9)
		assert.InDelta(t, 50.0, *offer.MinTradeSize, 1e-9)
		assert.InDelta(t, 1500.0, *offer.MaxTradeSize, 1e-9)

		assert.Equal(t, "hodlhodl", offer.SiteName)
		assert.Zero(t, offer.MarginPercentage)
		assert.Empty(t, offer.Headline)
	})

	t.Run("missing payment methods", func(t *testing.T) {
		t.Parallel()

		offer := NormalizeOffer(decodeRawOffer(t, `{"id": "a1", "side": "buy"}`))

		assert.Nil(t, offer.PaymentMethodName)
		assert.Nil(t, offer.PaymentMethodSlug)
	})

	t.Run("empty payment methods", func(t *testing.T) {
		t.Parallel()

		offer := NormalizeOffer(decodeRawOffer(t, `{"id": "a1", "payment_methods": []}`))

		assert.Nil(t, offer.PaymentMethodName)
		assert.Nil(t, offer.PaymentMethodSlug)
	})

	t.Run("null optional fields", func(t *testing.T) {
		t.Parallel()

		offer := NormalizeOffer(decodeRawOffer(t, `{
			"id": "a1",
			"description": null,
			"price": null,
			"min_amount": null,
			"max_amount": "not-a-number",
			"payment_methods": null,
			"trader": null
		}`))

		assert.Nil(t, offer.Description)
		assert.Nil(t, offer.Price)
		assert.Nil(t, offer.MinTradeSize)
		assert.Nil(t, offer.MaxTradeSize)
		assert.Nil(t, offer.PaymentMethodName)
	})

	t.Run("nil offer", func(t *testing.T) {
		t.Parallel()

		offer := NormalizeOffer(nil)

		require.NotNil(t, offer)
		assert.True(t, offer.OfferIdentifier.IsZero())
		assert.Equal(t, "hodlhodl", offer.SiteName)
	})

	t.Run("offer identifier round trips", func(t *testing.T) {
		t.Parallel()

		for _, id := range []string{`"m9Lk2z"`, `12345`, `"0042"`} {
			offer := NormalizeOffer(decodeRawOffer(t, `{"id": `+id+`}`))

			encoded, err := json.Marshal(offer.OfferIdentifier)
			require.NoError(t, err)

			assert.Equal(t, id, string(encoded))
		}
	})

	t.Run("deterministic", func(t *testing.T) {
		t.Parallel()

		raw := decodeRawOffer(t, rawOfferJSON)

		assert.Equal(t, NormalizeOffer(raw), NormalizeOffer(raw))
	})
}

func TestNormalizeSeller(t *testing.T) {
	t.Parallel()

	t.Run("full trader", func(t *testing.T) {
		t.Parallel()

		seller := NormalizeSeller(decodeRawOffer(t, rawOfferJSON))

		assert.Equal(t, "satoshi", seller.Username)
		assert.InDelta(t, 0.98, seller.FeedbackScore, 1e-9)
		assert.Equal(t, 42, seller.CompletedTrades)
		assert.Equal(t, "https://hodlhodl.com/accounts/satoshi", seller.SellerURL)
		assert.Empty(t, seller.ProfileImage)
		assert.Zero(t, seller.TradeVolume)
	})

	t.Run("zero rating", func(t *testing.T) {
		t.Parallel()

		seller := NormalizeSeller(decodeRawOffer(t, `{"trader": {"login": "a", "rating": 0}}`))

		assert.Zero(t, seller.FeedbackScore)
	})

	t.Run("absent rating", func(t *testing.T) {
		t.Parallel()

		seller := NormalizeSeller(decodeRawOffer(t, `{"trader": {"login": "a", "rating": null}}`))

		assert.Zero(t, seller.FeedbackScore)
		assert.Equal(t, "a", seller.Username)
	})

	t.Run("missing trader", func(t *testing.T) {
		t.Parallel()

		seller := NormalizeSeller(decodeRawOffer(t, `{"id": "a1"}`))

		require.NotNil(t, seller)
		assert.Empty(t, seller.Username)
		assert.Zero(t, seller.FeedbackScore)
		assert.Zero(t, seller.CompletedTrades)
	})
}
