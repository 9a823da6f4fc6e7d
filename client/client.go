// Package client is the reusable HTTP session shared by a scraper run
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
)

var (
	ErrRequestFailed   = errors.New("request failed")
	ErrInvalidResponse = errors.New("invalid response")
)

// Client is a thin JSON session over a single base URL.
// The underlying connection pool is reused across all calls
type Client struct {
	logger *slog.Logger
	rc     *resty.Client

	headers   map[string]string
	baseURL   string
	authToken string
	proxy     string

	timeout time.Duration
}

// New creates a new client session against the given base URL
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		baseURL: baseURL,
		headers: make(map[string]string),
	}

	// Apply the options
	for _, opt := range opts {
		opt(c)
	}

	rc := resty.New().
		SetBaseURL(baseURL).
		SetLogger(&restyLogger{logger: c.logger}).
		SetHeader("Accept", "application/json").
		SetHeaders(c.headers)

	if c.authToken != "" {
		rc.SetAuthToken(c.authToken)
	}

	if c.timeout > 0 {
		rc.SetTimeout(c.timeout)
	}

	c.rc = rc

	return c
}

// BaseURL returns the session base URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Proxy returns the reserved proxy URL, if any
func (c *Client) Proxy() string {
	return c.proxy
}

// Get issues a GET request for the given path and decodes
// the JSON response body into out
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	req := c.rc.R().SetContext(ctx)

	if len(query) > 0 {
		req.SetQueryParamsFromValues(query)
	}

	resp, err := req.Get(path)
	if err != nil {
		return fmt.Errorf("%w: GET %s: %w", ErrRequestFailed, path, err)
	}

	body, err := checkResponse(http.MethodGet, path, resp)
	if err != nil {
		return err
	}

	if out == nil {
		return nil
	}

	if err = json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: GET %s: %w", ErrInvalidResponse, path, err)
	}

	return nil
}

// Post issues a POST request for the given path with a JSON body.
// The raw response body is returned, and decoded into out if set
func (c *Client) Post(ctx context.Context, path string, body, out any) (json.RawMessage, error) {
	resp, err := c.rc.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(path)
	if err != nil {
		return nil, fmt.Errorf("%w: POST %s: %w", ErrRequestFailed, path, err)
	}

	raw, err := checkResponse(http.MethodPost, path, resp)
	if err != nil {
		return nil, err
	}

	if out != nil {
		if err = json.Unmarshal(raw, out); err != nil {
			return nil, fmt.Errorf("%w: POST %s: %w", ErrInvalidResponse, path, err)
		}
	}

	return raw, nil
}

// checkResponse verifies the response status and returns its body
func checkResponse(method, path string, resp *resty.Response) ([]byte, error) {
	if !resp.IsSuccess() {
		return nil, fmt.Errorf(
			"%w: %s %s: invalid status code received: %d",
			ErrRequestFailed,
			method,
			path,
			resp.StatusCode(),
		)
	}

	body := resp.Body()
	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: %s %s: body is not JSON", ErrInvalidResponse, method, path)
	}

	return body, nil
}

// restyLogger routes resty's internal logging through slog
type restyLogger struct {
	logger *slog.Logger
}

func (l *restyLogger) Errorf(format string, v ...any) {
	l.logger.Error(fmt.Sprintf(format, v...))
}

func (l *restyLogger) Warnf(format string, v ...any) {
	l.logger.Warn(fmt.Sprintf(format, v...))
}

func (l *restyLogger) Debugf(format string, v ...any) {
	l.logger.Debug(fmt.Sprintf(format, v...))
}
