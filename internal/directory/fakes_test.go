package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/twdrugfinder/drugfinder/internal/coda"
	"github.com/twdrugfinder/drugfinder/internal/conf"
	"github.com/twdrugfinder/drugfinder/internal/datastore"
	"github.com/twdrugfinder/drugfinder/internal/readcache"
	"github.com/twdrugfinder/drugfinder/internal/records"
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

// fakeStore is an in-memory table store: inserted rows become listable at once.
type fakeStore struct {
	mu         sync.Mutex
	tables     map[string][]coda.Row
	lists      map[string]int
	listErr    map[string]error
	insertErr  error
	lastListOp map[string]coda.ListOptions
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		tables:     map[string][]coda.Row{},
		lists:      map[string]int{},
		listErr:    map[string]error{},
		lastListOp: map[string]coda.ListOptions{},
	}
}

// seed appends a row whose values are given as a column map.
func (f *fakeStore) seed(tb testing.TB, table string, values map[string]any) {
	tb.Helper()
	raw, err := json.Marshal(values)
	require.NoError(tb, err)
	f.mu.Lock()
	defer f.mu.Unlock()
	n := len(f.tables[table])
	f.tables[table] = append(f.tables[table], coda.Row{
		ID:        fmt.Sprintf("i-%s-%d", table, n),
		Index:     n,
		CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Values:    raw,
	})
}

func (f *fakeStore) ListRows(_ context.Context, table string, opts coda.ListOptions) ([]coda.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists[table]++
	f.lastListOp[table] = opts
	if err := f.listErr[table]; err != nil {
		return nil, err
	}
	rows := append([]coda.Row(nil), f.tables[table]...)
	if opts.Limit > 0 && len(rows) > opts.Limit {
		rows = rows[:opts.Limit]
	}
	return rows, nil
}

func (f *fakeStore) InsertRows(_ context.Context, table string, rows ...[]coda.Cell) (*coda.InsertResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	res := &coda.InsertResult{RequestID: fmt.Sprintf("mutate:%d", len(f.tables[table]))}
	for _, cells := range rows {
		values := make(map[string]any, len(cells))
		for _, c := range cells {
			values[c.Column] = c.Value
		}
		raw, err := json.Marshal(values)
		if err != nil {
			return nil, err
		}
		n := len(f.tables[table])
		id := fmt.Sprintf("i-%s-%d", table, n)
		f.tables[table] = append(f.tables[table], coda.Row{ID: id, Index: n, CreatedAt: time.Now(), Values: raw})
		res.AddedRowIDs = append(res.AddedRowIDs, id)
	}
	return res, nil
}

func (f *fakeStore) listCount(table string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lists[table]
}

func (f *fakeStore) rowCount(table string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tables[table])
}

// fakeNotifier counts reviewer alerts.
type fakeNotifier struct {
	mu        sync.Mutex
	supply    []records.SupplyReport
	proposals []records.NewDrugProposal
}

func (n *fakeNotifier) NotifySupplyReport(r records.SupplyReport) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.supply = append(n.supply, r)
	return true
}

func (n *fakeNotifier) NotifyProposal(p records.NewDrugProposal) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.proposals = append(n.proposals, p)
	return true
}

// fakeJournal keeps submissions in memory.
type fakeJournal struct {
	mu      sync.Mutex
	entries []datastore.Submission
}

func (j *fakeJournal) Record(_ context.Context, s *datastore.Submission) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, *s)
	return nil
}

func (j *fakeJournal) Entries() []datastore.Submission {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]datastore.Submission(nil), j.entries...)
}

// newTestDirectory wires a directory over store with long TTLs and no settle pause.
func newTestDirectory(tb testing.TB, store TableStore, opts ...Option) *Directory {
	tb.Helper()
	ttls := conf.CacheSettings{
		Cities:    time.Hour,
		Drugs:     time.Hour,
		Inventory: time.Hour,
		Requests:  time.Hour,
		Feedback:  time.Hour,
		Pending:   time.Hour,
	}
	return New(store, testTables, ttls, readcache.New(), opts...)
}
