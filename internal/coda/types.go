// Package coda provides a client for the Coda REST API, limited to the two operations
// the directory needs: listing the rows of a table and inserting rows into it.
package coda

import (
	"encoding/json"
	"time"
)

// SortBy selects the row order of a list call.
type SortBy string

const (
	SortNatural SortBy = "natural" // order shown in the table's view
	SortCreated SortBy = "createdAt"
	SortUpdated SortBy = "updatedAt"
)

// ValueFormat selects how cell values are encoded in list responses.
type ValueFormat string

const (
	ValueSimple           ValueFormat = "simple"           // multi-select values joined with commas
	ValueSimpleWithArrays ValueFormat = "simpleWithArrays" // multi-select values as JSON arrays
	ValueRich             ValueFormat = "rich"
)

// ListOptions controls a ListRows call.
type ListOptions struct {
	// Limit caps the total number of rows returned. 0 reads every page.
	Limit int
	// SortBy orders rows; empty keeps the API default.
	SortBy SortBy
	// UseColumnNames keys row values by column name instead of column id.
	UseColumnNames bool
	// ValueFormat selects the cell encoding; empty keeps the API default.
	ValueFormat ValueFormat
	// Query filters rows with a `column:"value"` expression.
	Query string
}

// Row is one table row as returned by the list endpoint. Values stay raw so the
// record normalizer can decode them field by field.
type Row struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Index     int             `json:"index"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
	Values    json.RawMessage `json:"values"`
}

// Cell is one column value of a row insert.
type Cell struct {
	Column string `json:"column"`
	Value  any    `json:"value"`
}

// InsertResult is the acknowledgement of a row insert. The API queues the mutation;
// the rows become readable after the store has processed it.
type InsertResult struct {
	RequestID   string   `json:"requestId"`
	AddedRowIDs []string `json:"addedRowIds"`
}

// Config holds configuration for the Coda client
type Config struct {
	APIKey    string
	DocID     string
	BaseURL   string
	Timeout   time.Duration // 0 = no client timeout
	RateLimit float64       // requests per second
	Burst     int
	UserAgent string
	// MaxPages bounds pagination of a single ListRows call.
	MaxPages int
	// MaxResponseBytes bounds how much of one response body is read.
	MaxResponseBytes int64
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() Config {
	return Config{
		BaseURL:   "https://coda.io/apis/v1",
		RateLimit: 5,
		Burst:     10,
		UserAgent: "drugfinder",
		MaxPages:  50,

		MaxResponseBytes: 16 << 20,
	}
}

// APIError is the error body returned by the Coda API.
type APIError struct {
	StatusCode    int    `json:"statusCode"`
	StatusMessage string `json:"statusMessage"`
	Message       string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.StatusMessage
}

// listResponse is the envelope of the rows list endpoint.
type listResponse struct {
	Items         []Row  `json:"items"`
	NextPageToken string `json:"nextPageToken"`
}

type insertRow struct {
	Cells []Cell `json:"cells"`
}

type insertRequest struct {
	Rows []insertRow `json:"rows"`
}
