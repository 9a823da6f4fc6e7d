package hodlhodl

import "log/slog"

type Option func(s *Scraper)

// WithLogger specifies the logger for the scraper and its publisher
func WithLogger(l *slog.Logger) Option {
	return func(s *Scraper) {
		s.logger = l
	}
}

// WithTotalOfferPercentToScrape sets the reserved offer cap.
// The value is kept for configuration parity, and does not limit fetches
func WithTotalOfferPercentToScrape(p int) Option {
	return func(s *Scraper) {
		s.totalOfferPercentToScrape = p
	}
}
