package hodlhodl

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"

	"github.com/sig-0/offersync/storage/types"
)

const (
	publishPath = "v1/offers"

	// countryCodeGlobal is the marketplace sentinel for offers without a country
	countryCodeGlobal = "Global"
	countryCodeGL     = "GL"
)

// Publisher posts normalized offers to the downstream API.
// Authentication is carried by the client session
type Publisher struct {
	client Doer
	logger *slog.Logger
}

// NewPublisher creates a new offer publisher over the given session
func NewPublisher(client Doer, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Publisher{
		client: client,
		logger: logger,
	}
}

// Publish posts the offer downstream, and returns the response body.
// Publish failures are logged, and yield a nil response
func (p *Publisher) Publish(ctx context.Context, offer *types.Offer) json.RawMessage {
	body := PublishBody(offer)

	resp, err := p.client.Post(ctx, publishPath, body, nil)
	if err != nil {
		p.logger.Error(
			"unable to publish offer",
			"offer_identifier", offer.OfferIdentifier.String(),
			"err", err,
		)

		return nil
	}

	return resp
}

// PublishBody builds the downstream request body for the offer.
// The given offer is not modified
func PublishBody(offer *types.Offer) map[string]*types.Offer {
	out := offer.Copy()
	out.CountryCode = publishCountryCode(out.CountryCode)

	return map[string]*types.Offer{
		"offer": out,
	}
}

// publishCountryCode maps the marketplace global sentinel to its ISO-like code
func publishCountryCode(cc string) string {
	if cc == countryCodeGlobal {
		return countryCodeGL
	}

	return cc
}
