package types

import (
	"bytes"
	"encoding/json"
	"fmt"
)

var jsonNull = []byte("null")

// OfferID is the opaque upstream offer identifier.
// It keeps the wire form of the ID, so a numeric ID is re-encoded as a
// number and a string ID as a string
type OfferID struct {
	value   string
	numeric bool
}

// NewOfferID creates a string offer ID
func NewOfferID(v string) OfferID {
	return OfferID{value: v}
}

// NewNumericOfferID creates a numeric offer ID from its decimal form
func NewNumericOfferID(v string) OfferID {
	return OfferID{value: v, numeric: true}
}

func (id OfferID) String() string {
	return id.value
}

// IsZero returns true if the ID was never set
func (id OfferID) IsZero() bool {
	return id.value == "" && !id.numeric
}

// Numeric returns true if the upstream ID was a JSON number
func (id OfferID) Numeric() bool {
	return id.numeric
}

func (id OfferID) MarshalJSON() ([]byte, error) {
	if id.IsZero() {
		return jsonNull, nil
	}

	if id.numeric {
		return []byte(id.value), nil
	}

	return json.Marshal(id.value)
}

func (id *OfferID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)

	if len(b) == 0 || bytes.Equal(b, jsonNull) {
		*id = OfferID{}

		return nil
	}

	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("unable to decode offer id: %w", err)
		}

		*id = NewOfferID(s)

		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("unable to decode offer id: %w", err)
	}

	*id = NewNumericOfferID(n.String())

	return nil
}

// Offer is a normalized trading listing, ready for publishing downstream
type Offer struct {
	PaymentMethodName *string  `json:"payment_method_name"`
	PaymentMethodSlug *string  `json:"payment_method_slug"`
	Description       *string  `json:"description"`
	Price             *float64 `json:"price"`
	MinTradeSize      *float64 `json:"min_trade_size"`
	MaxTradeSize      *float64 `json:"max_trade_size"`

	OfferIdentifier OfferID `json:"offer_identifier"`

	FiatCurrency    string `json:"fiat_currency"`
	CountryCode     string `json:"country_code"`
	TradingTypeName Side   `json:"trading_type_name"`
	TradingTypeSlug Side   `json:"trading_type_slug"`
	CurrencyCode    string `json:"currency_code"`
	CoinCurrency    string `json:"coin_currency"`
	SiteName        string `json:"site_name"`
	Headline        string `json:"headline"`

	MarginPercentage float64 `json:"margin_percentage"`
}

// Copy returns a shallow copy of the offer.
// Pointer fields are shared, and must be treated as read-only
func (o *Offer) Copy() *Offer {
	cp := *o

	return &cp
}

// Seller is a normalized trader reputation record
type Seller struct {
	Username     string `json:"username"`
	SellerURL    string `json:"seller_url"`
	ProfileImage string `json:"profile_image"`

	FeedbackScore   float64 `json:"feedback_score"`
	TradeVolume     float64 `json:"trade_volume"`
	CompletedTrades int     `json:"completed_trades"`
}
