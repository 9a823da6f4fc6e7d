//nolint:tagliatelle // HodlHodl API uses snake case
package hodlhodl

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/sig-0/offersync/storage/types"
)

// currenciesResponse is the response from the currencies endpoint
type currenciesResponse struct {
	Currencies []rawCurrency `json:"currencies"`
}

type rawCurrency struct {
	Code string `json:"code"`
}

// offersResponse is the response from the offers endpoint
type offersResponse struct {
	Offers []*RawOffer `json:"offers"`
}

// RawOffer is a single offer, as returned by the HodlHodl API
type RawOffer struct {
	Description *string `json:"description"`
	Trader      *Trader `json:"trader"`

	ID           types.OfferID `json:"id"`
	AssetCode    string        `json:"asset_code"`
	CountryCode  string        `json:"country_code"`
	Side         types.Side    `json:"side"`
	CurrencyCode string        `json:"currency_code"`

	PaymentMethods []PaymentMethod `json:"payment_methods"`

	Price     Amount `json:"price"`
	MinAmount Amount `json:"min_amount"`
	MaxAmount Amount `json:"max_amount"`
}

// PaymentMethod is a single payment method accepted by an offer
type PaymentMethod struct {
	Type *string `json:"type"`
	Name string  `json:"name"`
}

// Trader is the trader record embedded in an offer
type Trader struct {
	Login       string `json:"login"`
	URL         string `json:"url"`
	Rating      Amount `json:"rating"`
	TradesCount Amount `json:"trades_count"`
}

// Amount is a numeric field that the API may encode
// as a JSON number, a numeric string, or null
type Amount struct {
	value *float64
}

// Float returns the amount value, or nil if it was absent
func (a Amount) Float() *float64 {
	if a.value == nil {
		return nil
	}

	v := *a.value

	return &v
}

// FloatOr returns the amount value, or the fallback if it was absent
func (a Amount) FloatOr(fallback float64) float64 {
	if a.value == nil {
		return fallback
	}

	return *a.value
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	a.value = nil

	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}

	raw := string(b)

	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil //nolint:nilerr // unparsable amounts are treated as absent
		}

		raw = strings.TrimSpace(s)
	}

	if v, ok := parseFloat(raw); ok {
		a.value = &v
	}

	return nil
}

// parseFloat parses a float string into a value
func parseFloat(value string) (float64, bool) {
	if value == "" {
		return 0, false
	}

	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, false
	}

	return parsed, true
}
