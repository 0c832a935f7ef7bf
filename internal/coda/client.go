package coda

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/twdrugfinder/drugfinder/internal/errors"
	"github.com/twdrugfinder/drugfinder/internal/logger"
	"github.com/twdrugfinder/drugfinder/internal/observability/metrics"
)

const (
	opListRows   = "list_rows"
	opInsertRows = "insert_rows"

	// maxErrorPreview bounds how much of an unexpected body is logged.
	maxErrorPreview = 300
)

// Client provides methods for interacting with the Coda API
type Client struct {
	config      Config
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	log         logger.Logger
	metrics     *metrics.CodaMetrics

	authOnce sync.Once // first successful call is logged once
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client, e.g. to share a transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithMetrics records request counts and latencies.
func WithMetrics(m *metrics.CodaMetrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithLogger replaces the module logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// NewClient creates a new Coda API client
func NewClient(config Config, opts ...Option) (*Client, error) {
	if config.APIKey == "" {
		return nil, errors.Newf("Coda API key is required").
			Category(errors.CategoryConfiguration).
			Component("coda").
			Build()
	}
	if config.DocID == "" {
		return nil, errors.Newf("Coda document id is required").
			Category(errors.CategoryConfiguration).
			Component("coda").
			Build()
	}

	defaults := DefaultConfig()
	if config.BaseURL == "" {
		config.BaseURL = defaults.BaseURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.RateLimit <= 0 {
		config.RateLimit = defaults.RateLimit
	}
	if config.Burst < 1 {
		config.Burst = defaults.Burst
	}
	if config.UserAgent == "" {
		config.UserAgent = defaults.UserAgent
	}
	if config.MaxPages < 1 {
		config.MaxPages = defaults.MaxPages
	}
	if config.MaxResponseBytes < 1 {
		config.MaxResponseBytes = defaults.MaxResponseBytes
	}

	c := &Client{
		config:      config,
		httpClient:  &http.Client{Timeout: config.Timeout},
		rateLimiter: rate.NewLimiter(rate.Limit(config.RateLimit), config.Burst),
		log:         logger.Global().Module("coda"),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.log.Info("Coda client initialized",
		logger.String("base_url", config.BaseURL),
		logger.Float64("rate_limit", config.RateLimit),
		logger.Int("burst", config.Burst),
		logger.Bool("api_key_configured", true))

	return c, nil
}

// ListRows returns the rows of table, following pagination until every page has
// been read or opts.Limit rows have been collected.
func (c *Client) ListRows(ctx context.Context, table string, opts ListOptions) ([]Row, error) {
	start := time.Now()
	rows, err := c.listRows(ctx, table, opts)
	c.metrics.RecordRequest(table, opListRows, err, time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}
	c.metrics.AddRowsFetched(table, len(rows))

	c.log.Debug("rows listed",
		logger.String("table", table),
		logger.Int("rows", len(rows)),
		logger.Int64("duration_ms", time.Since(start).Milliseconds()))
	return rows, nil
}

func (c *Client) listRows(ctx context.Context, table string, opts ListOptions) ([]Row, error) {
	if table == "" {
		return nil, errors.Newf("table id is required").
			Category(errors.CategoryValidation).
			Component("coda").
			Build()
	}

	var rows []Row
	pageToken := ""
	for page := 0; page < c.config.MaxPages; page++ {
		pageLimit := 0
		if opts.Limit > 0 {
			pageLimit = opts.Limit - len(rows)
		}

		var resp listResponse
		endpoint := c.rowsURL(table, listQuery(opts, pageLimit, pageToken))
		if err := c.doRequest(ctx, http.MethodGet, endpoint, table, nil, &resp); err != nil {
			return nil, err
		}
		rows = append(rows, resp.Items...)

		if opts.Limit > 0 && len(rows) >= opts.Limit {
			return rows[:opts.Limit], nil
		}
		if resp.NextPageToken == "" {
			return rows, nil
		}
		pageToken = resp.NextPageToken
	}

	c.log.Warn("pagination stopped at page limit",
		logger.String("table", table),
		logger.Int("max_pages", c.config.MaxPages),
		logger.Int("rows", len(rows)))
	return rows, nil
}

// InsertRows appends rows to table. Each row is a list of column/value cells. The
// call is not idempotent: sending the same rows twice creates duplicates.
func (c *Client) InsertRows(ctx context.Context, table string, rows ...[]Cell) (*InsertResult, error) {
	start := time.Now()
	result, err := c.insertRows(ctx, table, rows)
	c.metrics.RecordRequest(table, opInsertRows, err, time.Since(start).Seconds())
	return result, err
}

func (c *Client) insertRows(ctx context.Context, table string, rows [][]Cell) (*InsertResult, error) {
	if table == "" || len(rows) == 0 {
		return nil, errors.Newf("table id and at least one row are required").
			Category(errors.CategoryValidation).
			Component("coda").
			Table(table).
			Build()
	}

	req := insertRequest{Rows: make([]insertRow, 0, len(rows))}
	for _, cells := range rows {
		req.Rows = append(req.Rows, insertRow{Cells: cells})
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, errors.New(fmt.Errorf("failed to encode rows: %w", err)).
			Category(errors.CategoryValidation).
			Component("coda").
			Table(table).
			Build()
	}

	var result InsertResult
	if err := c.doRequest(ctx, http.MethodPost, c.rowsURL(table, nil), table, body, &result); err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryRemoteWrite).
			Component("coda").
			Table(table).
			Context("rows", len(rows)).
			Build()
	}

	c.log.Info("rows inserted",
		logger.String("table", table),
		logger.Int("rows", len(rows)),
		logger.String("request_id", result.RequestID))
	return &result, nil
}

func (c *Client) rowsURL(table string, query url.Values) string {
	u := fmt.Sprintf("%s/docs/%s/tables/%s/rows",
		c.config.BaseURL, url.PathEscape(c.config.DocID), url.PathEscape(table))
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func listQuery(opts ListOptions, pageLimit int, pageToken string) url.Values {
	q := url.Values{}
	if opts.UseColumnNames {
		q.Set("useColumnNames", "true")
	}
	if pageLimit > 0 {
		q.Set("limit", strconv.Itoa(pageLimit))
	}
	if opts.SortBy != "" {
		q.Set("sortBy", string(opts.SortBy))
	}
	if opts.ValueFormat != "" {
		q.Set("valueFormat", string(opts.ValueFormat))
	}
	if opts.Query != "" {
		q.Set("query", opts.Query)
	}
	if pageToken != "" {
		q.Set("pageToken", pageToken)
	}
	return q
}

// doRequest performs one rate-limited request and decodes a 2xx JSON body into result.
func (c *Client) doRequest(ctx context.Context, method, endpoint, table string, body []byte, result any) error {
	waitStart := time.Now()
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return errors.New(fmt.Errorf("rate limiter wait aborted: %w", err)).
			Category(errors.CategoryNetwork).
			Component("coda").
			Table(table).
			Build()
	}
	c.metrics.ObserveRateLimitWait(time.Since(waitStart).Seconds())

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return errors.New(fmt.Errorf("failed to create HTTP request: %w", err)).
			Category(errors.CategoryNetwork).
			Component("coda").
			Table(table).
			Context("method", method).
			Build()
	}
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.config.UserAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("Coda request failed",
			logger.String("method", method),
			logger.String("table", table),
			logger.Error(err))
		return errors.New(fmt.Errorf("HTTP request failed: %w", err)).
			Category(errors.CategoryNetwork).
			Component("coda").
			Table(table).
			Context("method", method).
			Build()
	}
	defer func() { _ = resp.Body.Close() }()

	// one byte over the cap tells a full body from a truncated one
	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, c.config.MaxResponseBytes+1))
	if err != nil {
		return errors.New(fmt.Errorf("failed to read response body: %w", err)).
			Category(errors.CategoryNetwork).
			Component("coda").
			Table(table).
			Context("status_code", resp.StatusCode).
			Build()
	}
	if int64(len(bodyBytes)) > c.config.MaxResponseBytes {
		return errors.Newf("response body exceeds %d bytes", c.config.MaxResponseBytes).
			Category(errors.CategoryRemoteFetch).
			Component("coda").
			Table(table).
			Context("status_code", resp.StatusCode).
			Build()
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.statusError(method, table, resp.StatusCode, bodyBytes)
	}

	if result != nil && len(bytes.TrimSpace(bodyBytes)) > 0 {
		if err := json.Unmarshal(bodyBytes, result); err != nil {
			c.log.Warn("failed to parse Coda response",
				logger.String("table", table),
				logger.Int("status_code", resp.StatusCode),
				logger.String("content_type", resp.Header.Get("Content-Type")),
				logger.String("response_preview", preview(bodyBytes)),
				logger.Error(err))
			return errors.New(fmt.Errorf("failed to parse response: %w", err)).
				Category(errors.CategoryRemoteFetch).
				Component("coda").
				Table(table).
				Context("response_size", len(bodyBytes)).
				Build()
		}
	}

	c.authOnce.Do(func() {
		c.log.Info("Coda API authentication successful", logger.String("table", table))
	})
	return nil
}

func (c *Client) statusError(method, table string, status int, body []byte) error {
	var apiErr APIError
	message := http.StatusText(status)
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error() != "" {
		message = apiErr.Error()
	}

	fields := []logger.Field{
		logger.String("method", method),
		logger.String("table", table),
		logger.Int("status_code", status),
		logger.String("message", message),
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		c.log.Error("Coda API authentication failed, check coda.apikey and coda.docid", fields...)
	} else {
		c.log.Warn("Coda API error response", fields...)
	}

	return errors.Newf("Coda API error (status %d): %s", status, message).
		Category(getErrorCategory(status)).
		Component("coda").
		Table(table).
		Context("status_code", status).
		Context("method", method).
		Build()
}

// getErrorCategory determines the error category from an HTTP status code
func getErrorCategory(statusCode int) errors.ErrorCategory {
	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return errors.CategoryRemoteAuth
	case http.StatusNotFound:
		return errors.CategoryNotFound
	case http.StatusTooManyRequests:
		return errors.CategoryLimit
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return errors.CategoryValidation
	default:
		return errors.CategoryRemoteFetch
	}
}

func preview(b []byte) string {
	s := logger.RedactSensitiveData(string(b))
	if len(s) > maxErrorPreview {
		return s[:maxErrorPreview] + "..."
	}
	return s
}
