package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/twdrugfinder/drugfinder/internal/buildinfo"
	"github.com/twdrugfinder/drugfinder/internal/coda"
	"github.com/twdrugfinder/drugfinder/internal/conf"
	"github.com/twdrugfinder/drugfinder/internal/directory"
	"github.com/twdrugfinder/drugfinder/internal/readcache"
	"github.com/twdrugfinder/drugfinder/internal/session"
	"github.com/twdrugfinder/drugfinder/internal/verification"
)

var testTables = conf.TableSettings{
	Drugs:     "DB_Drugs",
	Requests:  "DB_Requests",
	Cities:    "DB_Cities",
	Inbox:     "DB_Supply_Inbox",
	Inventory: "DB_Inventory",
	Feedback:  "DB_Feedback",
	Wishlist:  "DB_Wishlist",
}

// memoryStore is an in-memory table store; inserted rows are listable at once.
type memoryStore struct {
	mu        sync.Mutex
	tables    map[string][]coda.Row
	insertErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{tables: map[string][]coda.Row{}}
}

func (m *memoryStore) seed(tb testing.TB, table string, values map[string]any) {
	tb.Helper()
	raw, err := json.Marshal(values)
	require.NoError(tb, err)
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.tables[table])
	m.tables[table] = append(m.tables[table], coda.Row{ID: fmt.Sprintf("i-%d", n), Index: n, Values: raw})
}

func (m *memoryStore) ListRows(_ context.Context, table string, _ coda.ListOptions) ([]coda.Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]coda.Row(nil), m.tables[table]...), nil
}

func (m *memoryStore) InsertRows(_ context.Context, table string, rows ...[]coda.Cell) (*coda.InsertResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return nil, m.insertErr
	}
	res := &coda.InsertResult{RequestID: "mutate:test"}
	for _, cells := range rows {
		values := make(map[string]any, len(cells))
		for _, c := range cells {
			values[c.Column] = c.Value
		}
		raw, err := json.Marshal(values)
		if err != nil {
			return nil, err
		}
		n := len(m.tables[table])
		id := fmt.Sprintf("i-%d", n)
		m.tables[table] = append(m.tables[table], coda.Row{ID: id, Index: n, CreatedAt: time.Now(), Values: raw})
		res.AddedRowIDs = append(res.AddedRowIDs, id)
	}
	return res, nil
}

// values decodes the column map of every row in table.
func (m *memoryStore) values(tb testing.TB, table string) []map[string]any {
	tb.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]map[string]any, 0, len(m.tables[table]))
	for _, r := range m.tables[table] {
		var v map[string]any
		require.NoError(tb, json.Unmarshal(r.Values, &v))
		out = append(out, v)
	}
	return out
}

// recordingMailer captures sent codes.
type recordingMailer struct {
	mu    sync.Mutex
	to    []string
	codes []string
	fail  error
}

func (r *recordingMailer) SendCode(_ context.Context, to, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.to = append(r.to, to)
	r.codes = append(r.codes, code)
	return r.fail
}

func (r *recordingMailer) sent() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.codes...)
}

type testEnv struct {
	e          *echo.Echo
	store      *memoryStore
	mailer     *recordingMailer
	controller *Controller
}

// setupTestEnvironment wires a controller over an in-memory store. Every issued
// verification code is 123456.
func setupTestEnvironment(t *testing.T) *testEnv {
	t.Helper()

	store := newMemoryStore()
	ttls := conf.CacheSettings{
		Cities: time.Hour, Drugs: time.Hour, Inventory: time.Hour,
		Requests: time.Hour, Feedback: time.Hour, Pending: time.Hour,
	}
	dir := directory.New(store, testTables, ttls, readcache.New())
	mailer := &recordingMailer{}
	sessions := session.NewStore(time.Hour, verification.WithCodeGenerator(func() (string, error) {
		return "123456", nil
	}))

	e := echo.New()
	controller, err := New(e, dir, verification.NewService(mailer), sessions,
		WithBuildInfo(buildinfo.NewContext("1.2.3", "2025-05-15")))
	require.NoError(t, err)

	return &testEnv{e: e, store: store, mailer: mailer, controller: controller}
}

// client replays the session cookie across requests.
type client struct {
	env     *testEnv
	cookies []*http.Cookie
}

func (env *testEnv) client() *client {
	return &client{env: env}
}

func (c *client) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, http.NoBody)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	c.env.e.ServeHTTP(rec, req)

	for _, ck := range rec.Result().Cookies() {
		if ck.Name == session.CookieName {
			c.cookies = []*http.Cookie{ck}
		}
	}
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func inventoryRow(clinic, code, drug, city, stock string, listed bool, payment ...string) map[string]any {
	return map[string]any{
		"診所":   clinic,
		"機構代碼": code,
		"藥品":   drug,
		"縣市1":  city,
		"庫存狀態": stock,
		"是否上架": listed,
		"給付條件": payment,
	}
}
