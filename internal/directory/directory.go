// Package directory answers the drug-shortage queries and accepts public submissions.
// Reads go through the read cache; writes go straight to the remote table store and
// invalidate the cached reads they affect.
package directory

import (
	"context"
	"time"

	"github.com/twdrugfinder/drugfinder/internal/coda"
	"github.com/twdrugfinder/drugfinder/internal/conf"
	"github.com/twdrugfinder/drugfinder/internal/datastore"
	"github.com/twdrugfinder/drugfinder/internal/errors"
	"github.com/twdrugfinder/drugfinder/internal/logger"
	"github.com/twdrugfinder/drugfinder/internal/observability/metrics"
	"github.com/twdrugfinder/drugfinder/internal/readcache"
	"github.com/twdrugfinder/drugfinder/internal/records"
)

// Cache keys of the directory queries.
const (
	KeyDrugs     = "drugs"
	KeyCities    = "cities"
	KeyRequests  = "requests"
	KeyInventory = "inventory"
	KeyFeedback  = "feedback"
	KeyPending   = "pending_proposals"
)

// Row caps of the larger reads.
const (
	requestsLimit = 1000
	feedbackLimit = 500
)

// DefaultTTLs are the freshness windows used when settings leave one unset.
var DefaultTTLs = conf.CacheSettings{
	Cities:    time.Hour,
	Drugs:     60 * time.Second,
	Inventory: 30 * time.Second,
	Requests:  10 * time.Second,
	Feedback:  5 * time.Second,
	Pending:   60 * time.Second,
}

// TableStore is the subset of the remote store client the directory uses.
type TableStore interface {
	ListRows(ctx context.Context, table string, opts coda.ListOptions) ([]coda.Row, error)
	InsertRows(ctx context.Context, table string, rows ...[]coda.Cell) (*coda.InsertResult, error)
}

// Notifier alerts reviewers about submissions awaiting promotion.
type Notifier interface {
	NotifySupplyReport(r records.SupplyReport) bool
	NotifyProposal(p records.NewDrugProposal) bool
}

// Journal records submission attempts.
type Journal interface {
	Record(ctx context.Context, s *datastore.Submission) error
}

// Directory is the query and submission facade over the remote tables.
type Directory struct {
	store  TableStore
	tables conf.TableSettings
	cache  *readcache.Cache

	drugs     *readcache.Query[records.Drug]
	cities    *readcache.Query[records.City]
	requests  *readcache.Query[records.WishRequest]
	inventory *readcache.Query[records.InventoryRow]
	feedback  *readcache.Query[records.FeedbackEntry]
	pending   *readcache.Query[records.NewDrugProposal]

	settle   time.Duration
	journal  Journal
	notifier Notifier
	metrics  *metrics.DirectoryMetrics
	log      logger.Logger
	loc      *time.Location
	now      func() time.Time
}

// Option customizes a Directory.
type Option func(*Directory)

// WithJournal records every remote write attempt in j.
func WithJournal(j Journal) Option {
	return func(d *Directory) { d.journal = j }
}

// WithNotifier alerts reviewers about supply reports and drug proposals.
func WithNotifier(n Notifier) Option {
	return func(d *Directory) { d.notifier = n }
}

// WithMetrics counts submissions.
func WithMetrics(m *metrics.DirectoryMetrics) Option {
	return func(d *Directory) { d.metrics = m }
}

// WithLogger replaces the module logger.
func WithLogger(l logger.Logger) Option {
	return func(d *Directory) {
		if l != nil {
			d.log = l
		}
	}
}

// WithLocation sets the zone feedback times are written in.
func WithLocation(loc *time.Location) Option {
	return func(d *Directory) {
		if loc != nil {
			d.loc = loc
		}
	}
}

// WithClock replaces the time source of feedback timestamps.
func WithClock(now func() time.Time) Option {
	return func(d *Directory) {
		if now != nil {
			d.now = now
		}
	}
}

// WithWriteSettle sets the pause between a successful write and the invalidation of
// the reads it affects. The remote store indexes new rows asynchronously.
func WithWriteSettle(dur time.Duration) Option {
	return func(d *Directory) { d.settle = dur }
}

// New registers the directory queries on cache and returns the facade. Zero TTLs in
// ttls fall back to DefaultTTLs; ttls.WriteSettle seeds the settle pause.
func New(store TableStore, tables conf.TableSettings, ttls conf.CacheSettings, cache *readcache.Cache, opts ...Option) *Directory {
	d := &Directory{
		store:  store,
		tables: tables,
		cache:  cache,
		settle: ttls.WriteSettle,
		log:    logger.Global().Module("directory"),
		loc:    time.Local,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}

	d.drugs = readcache.Register(cache, KeyDrugs, pick(ttls.Drugs, DefaultTTLs.Drugs),
		loader(store, tables.Drugs, coda.ListOptions{}, records.DecodeDrugs))
	d.cities = readcache.Register(cache, KeyCities, pick(ttls.Cities, DefaultTTLs.Cities),
		loader(store, tables.Cities, coda.ListOptions{}, records.DecodeCities))
	d.requests = readcache.Register(cache, KeyRequests, pick(ttls.Requests, DefaultTTLs.Requests),
		loader(store, tables.Requests, coda.ListOptions{Limit: requestsLimit}, records.DecodeWishRequests))
	d.inventory = readcache.Register(cache, KeyInventory, pick(ttls.Inventory, DefaultTTLs.Inventory),
		loader(store, tables.Inventory, coda.ListOptions{ValueFormat: coda.ValueSimpleWithArrays}, records.DecodeInventory))
	d.feedback = readcache.Register(cache, KeyFeedback, pick(ttls.Feedback, DefaultTTLs.Feedback),
		loader(store, tables.Feedback, coda.ListOptions{Limit: feedbackLimit}, records.DecodeFeedbacks))
	d.pending = readcache.Register(cache, KeyPending, pick(ttls.Pending, DefaultTTLs.Pending),
		loader(store, tables.Wishlist, coda.ListOptions{}, pendingOnly))
	return d
}

func pick(ttl, fallback time.Duration) time.Duration {
	if ttl > 0 {
		return ttl
	}
	return fallback
}

// loader reads table by column name and decodes every row.
func loader[T any](store TableStore, table string, opts coda.ListOptions, decode func([]coda.Row) []T) readcache.Loader[T] {
	opts.UseColumnNames = true
	return func(ctx context.Context) ([]T, error) {
		rows, err := store.ListRows(ctx, table, opts)
		if err != nil {
			return nil, err
		}
		return decode(rows), nil
	}
}

func pendingOnly(rows []coda.Row) []records.NewDrugProposal {
	all := records.DecodeProposals(rows)
	out := all[:0]
	for _, p := range all {
		if p.Status == records.ProposalPending {
			out = append(out, p)
		}
	}
	return out
}

// Drugs lists the drug catalogue.
func (d *Directory) Drugs(ctx context.Context) ([]records.Drug, bool) {
	return d.drugs.Get(ctx)
}

// Cities lists the cities in remote index order.
func (d *Directory) Cities(ctx context.Context) ([]records.City, bool) {
	return d.cities.Get(ctx)
}

// Requests lists wish-list entries.
func (d *Directory) Requests(ctx context.Context) ([]records.WishRequest, bool) {
	return d.requests.Get(ctx)
}

// Inventory lists every inventory row, listed or not.
func (d *Directory) Inventory(ctx context.Context) ([]records.InventoryRow, bool) {
	return d.inventory.Get(ctx)
}

// Feedback lists feedback entries.
func (d *Directory) Feedback(ctx context.Context) ([]records.FeedbackEntry, bool) {
	return d.feedback.Get(ctx)
}

// PendingProposals lists drug proposals still awaiting review.
func (d *Directory) PendingProposals(ctx context.Context) ([]records.NewDrugProposal, bool) {
	return d.pending.Get(ctx)
}

// Refresh drops the cached rows of key and reads them again.
func (d *Directory) Refresh(ctx context.Context, key string) error {
	return d.cache.ForceRefresh(ctx, key)
}

// RefreshAll refreshes every query and joins the failures.
func (d *Directory) RefreshAll(ctx context.Context) error {
	var errs []error
	for _, key := range d.cache.Keys() {
		if err := d.cache.ForceRefresh(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		d.log.Warn("refresh incomplete", logger.Int("failed", len(errs)), logger.Error(err))
		return err
	}
	d.log.Info("all queries refreshed")
	return nil
}

// CacheStats reports the state of every cached query.
func (d *Directory) CacheStats() []readcache.EntryStats {
	return d.cache.Stats()
}
