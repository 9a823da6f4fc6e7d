// Package scrapers wires the configured marketplace scrapers
package scrapers

import (
	"log/slog"
	"os"

	"github.com/sig-0/offersync/client"
	"github.com/sig-0/offersync/cmd/env"
	"github.com/sig-0/offersync/config"
	"github.com/sig-0/offersync/ingest"
	"github.com/sig-0/offersync/provider/hodlhodl"
)

// Default returns the default scrapers, each with its own HTTP session
func Default(cfg *config.Config, logger *slog.Logger) []ingest.Scraper {
	// The marketplace token is optional for the read endpoints
	token := os.Getenv(env.Prefix + env.APITokenSuffix)

	hodlhodlClient := client.New(
		cfg.BaseURL,
		client.WithLogger(logger),
		client.WithAuthToken(token),
		client.WithTimeout(cfg.Timeout),
		client.WithProxy(cfg.Proxy),
	)

	hodlhodlScraper := hodlhodl.New(
		hodlhodlClient,
		hodlhodl.WithLogger(logger),
		hodlhodl.WithTotalOfferPercentToScrape(cfg.TotalOfferPercentToScrape),
	)

	return []ingest.Scraper{
		hodlhodlScraper,
	}
}
