package coda

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// mockResponse represents a mocked HTTP response
type mockResponse struct {
	status int
	body   string
}

// recordedRequest captures what the mock server received.
type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Auth   string
	Body   string
}

// mockServer serves canned responses keyed by "METHOD path?query".
type mockServer struct {
	*httptest.Server
	mu       sync.Mutex
	requests []recordedRequest
}

func (m *mockServer) Requests() []recordedRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]recordedRequest(nil), m.requests...)
}

// setupMockServer creates a mock server with predefined responses
func setupMockServer(tb testing.TB, responses map[string]mockResponse) *mockServer {
	tb.Helper()

	ms := &mockServer{}
	ms.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		ms.mu.Lock()
		ms.requests = append(ms.requests, recordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Auth:   r.Header.Get("Authorization"),
			Body:   string(body),
		})
		ms.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if r.Header.Get("Authorization") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"statusCode":401,"statusMessage":"Unauthorized","message":"Missing token"}`))
			return
		}

		key := r.Method + " " + r.URL.Path
		if r.URL.RawQuery != "" {
			key += "?" + r.URL.RawQuery
		}
		if response, ok := responses[key]; ok {
			w.WriteHeader(response.status)
			_, _ = w.Write([]byte(response.body))
			return
		}

		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"statusCode":404,"statusMessage":"Not Found","message":"No route for ` + key + `"}`))
	}))
	tb.Cleanup(ms.Close)

	return ms
}

// setupTestClient creates a test client pointed at baseURL
func setupTestClient(tb testing.TB, baseURL string) *Client {
	tb.Helper()

	client, err := NewClient(Config{
		APIKey:    "test-key",
		DocID:     "doc123",
		BaseURL:   baseURL,
		RateLimit: 1000, // effectively unthrottled
		Burst:     100,
	})
	require.NoError(tb, err)
	return client
}
