package hodlhodl

import "github.com/sig-0/offersync/storage/types"

// NormalizeOffer maps a raw HodlHodl offer into the canonical offer record.
// Missing optional fields map to nil, never to a failure
func NormalizeOffer(raw *RawOffer) *types.Offer {
	if raw == nil {
		raw = &RawOffer{}
	}

	var (
		paymentMethod = firstPaymentMethod(raw.PaymentMethods)
		paymentSlug   = firstPaymentMethod(raw.PaymentMethods)
	)

	return &types.Offer{
		OfferIdentifier:   raw.ID,
		FiatCurrency:      raw.AssetCode,
		CountryCode:       raw.CountryCode,
		TradingTypeName:   raw.Side,
		TradingTypeSlug:   raw.Side,
		PaymentMethodName: paymentMethod,
		PaymentMethodSlug: paymentSlug,
		Description:       cloneString(raw.Description),
		CurrencyCode:      raw.CurrencyCode,
		CoinCurrency:      raw.CurrencyCode,
		Price:             raw.Price.Float(),
		MinTradeSize:      raw.MinAmount.Float(),
		MaxTradeSize:      raw.MaxAmount.Float(),
		SiteName:          types.ScraperHodlHodl.String(),
		MarginPercentage:  0, // not exposed by the marketplace
		Headline:          "",
	}
}

// NormalizeSeller maps the trader embedded in a raw HodlHodl offer
// into the canonical seller record
func NormalizeSeller(raw *RawOffer) *types.Seller {
	trader := &Trader{}
	if raw != nil && raw.Trader != nil {
		trader = raw.Trader
	}

	return &types.Seller{
		Username:        trader.Login,
		FeedbackScore:   trader.Rating.FloatOr(0),
		CompletedTrades: int(trader.TradesCount.FloatOr(0)),
		SellerURL:       trader.URL,
		ProfileImage:    "",
		TradeVolume:     0,
	}
}

// firstPaymentMethod returns the type of the first payment method, if any
func firstPaymentMethod(methods []PaymentMethod) *string {
	if len(methods) == 0 {
		return nil
	}

	return cloneString(methods[0].Type)
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}

	v := *s

	return &v
}
