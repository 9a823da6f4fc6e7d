package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sig-0/offersync/storage/types"
)

const (
	defaultLimit = int32(100)
	maxLimit     = int32(500)
)

var (
	errUnableToFetchTasks    = errors.New("unable to fetch tasks")
	errUnableToFetchScrapers = errors.New("unable to fetch scrapers")
	errUnableToFetchOffers   = errors.New("unable to fetch published offers")

	errInvalidLimit   = errors.New("invalid limit")
	errInvalidOffset  = errors.New("invalid offset")
	errInvalidState   = errors.New("invalid state")
	errInvalidScraper = errors.New("invalid scraper")
)

func (s *Server) Tasks(w http.ResponseWriter, r *http.Request) {
	var (
		scraperParam = r.URL.Query().Get("scraper")
		stateParam   = r.URL.Query().Get("state")

		limitParam  = r.URL.Query().Get("limit")
		offsetParam = r.URL.Query().Get("offset")
	)

	// Parse the scraper and task state (optional)
	scraper, state, err := parseScraperAndState(scraperParam, stateParam)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)

		return
	}

	// Parse the pagination settings
	limit, offset, err := parseLimitOffset(limitParam, offsetParam)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)

		return
	}

	q := &types.TaskQuery{
		Scraper: scraper,
		State:   state,
		Limit:   limit,
		Offset:  offset,
	}

	page, err := s.storage.ListTasks(r.Context(), q)
	if err != nil {
		s.logger.Debug(
			"unable to fetch tasks",
			"err", err,
		)

		writeError(
			w,
			http.StatusInternalServerError,
			errUnableToFetchTasks,
		)

		return
	}

	writeJSON(w, http.StatusOK, page)
}

func (s *Server) Scrapers(w http.ResponseWriter, r *http.Request) {
	items, err := s.storage.ListScrapers(r.Context())
	if err != nil {
		s.logger.Debug(
			"unable to fetch scrapers",
			"err", err,
		)

		writeError(
			w,
			http.StatusInternalServerError,
			errUnableToFetchScrapers,
		)

		return
	}

	if items == nil {
		items = []types.ScraperName{}
	}

	resp := &ScrapersResponse{
		Results: items,
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) ScraperOffers(w http.ResponseWriter, r *http.Request) {
	scraper, err := parseScraper(chi.URLParam(r, "scraper"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)

		return
	}

	published, err := s.storage.PublishedCount(r.Context(), scraper)
	if err != nil {
		s.logger.Debug(
			"unable to fetch published offers",
			"scraper", scraper,
			"err", err,
		)

		writeError(
			w,
			http.StatusInternalServerError,
			errUnableToFetchOffers,
		)

		return
	}

	resp := &ScraperOffersResponse{
		Scraper:   scraper,
		Published: published,
	}

	writeJSON(w, http.StatusOK, resp)
}

func parseLimitOffset(limitRaw, offsetRaw string) (int32, int64, error) {
	limit := defaultLimit

	if v := strings.TrimSpace(limitRaw); v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil || n < 0 {
			return 0, 0, errInvalidLimit
		}

		limit = int32(n)
	}

	if limit == 0 {
		limit = defaultLimit
	}

	if limit > maxLimit {
		limit = maxLimit
	}

	var offset int64

	if v := strings.TrimSpace(offsetRaw); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			return 0, 0, errInvalidOffset
		}

		offset = n
	}

	return limit, offset, nil
}

func parseScraperAndState(scraperRaw, stateRaw string) (*types.ScraperName, *types.TaskState, error) {
	var scraper *types.ScraperName

	if v := strings.TrimSpace(scraperRaw); v != "" {
		name, err := parseScraper(v)
		if err != nil {
			return nil, nil, err
		}

		scraper = &name
	}

	var state *types.TaskState

	if v := strings.TrimSpace(stateRaw); v != "" {
		st := types.TaskState(strings.ToUpper(v))
		if !st.Valid() {
			return nil, nil, errInvalidState
		}

		state = &st
	}

	return scraper, state, nil
}

func parseScraper(v string) (types.ScraperName, error) {
	name := types.ScraperName(strings.ToLower(strings.TrimSpace(v)))
	if !name.Valid() {
		return "", errInvalidScraper
	}

	return name, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(v) //nolint:errcheck // Fine to ignore
}

func writeError(w http.ResponseWriter, status int, err error) {
	resp := &ErrorResponse{
		Error: err.Error(),
	}

	writeJSON(w, status, resp)
}
