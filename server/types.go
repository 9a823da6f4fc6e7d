package server

import "github.com/sig-0/offersync/storage/types"

type ScrapersResponse struct {
	Results []types.ScraperName `json:"results"`
}

type ScraperOffersResponse struct {
	Scraper   types.ScraperName `json:"scraper"`
	Published int64             `json:"published"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
