// Package readcache is the read-through cache in front of the remote table store.
//
// Each logical read is registered once with its own freshness window. A read inside
// the window is served from memory; the first read after it expires fetches again,
// with concurrent readers sharing that single fetch. Failed fetches are never cached:
// the caller gets an empty result and the next read retries.
package readcache

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/twdrugfinder/drugfinder/internal/errors"
	"github.com/twdrugfinder/drugfinder/internal/logger"
	"github.com/twdrugfinder/drugfinder/internal/observability/metrics"
)

// entry is one cached result.
type entry struct {
	rows      any // []T of the owning Query
	count     int
	fetchedAt time.Time
}

// refresher is the type-erased view of a registered Query.
type refresher interface {
	refresh(ctx context.Context) error
	ttl() time.Duration
}

// Cache owns the entries of all registered queries.
type Cache struct {
	store *cache.Cache
	group singleflight.Group

	mu      sync.Mutex
	queries map[string]refresher
	gens    map[string]uint64 // bumped by every invalidation

	metrics *metrics.CacheMetrics
	log     logger.Logger
	now     func() time.Time
}

// Option customizes a Cache.
type Option func(*Cache)

// WithMetrics records hits, misses, fetch errors and row counts.
func WithMetrics(m *metrics.CacheMetrics) Option {
	return func(c *Cache) { c.metrics = m }
}

// WithLogger replaces the module logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.log = l
		}
	}
}

// WithClock replaces the time source used for freshness checks.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// New creates an empty Cache. Entries never expire on their own; freshness is decided
// on read, so no janitor goroutine runs.
func New(opts ...Option) *Cache {
	c := &Cache{
		store:   cache.New(cache.NoExpiration, 0),
		queries: make(map[string]refresher),
		gens:    make(map[string]uint64),
		log:     logger.Global().Module("readcache"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Loader fetches the current rows of one logical read.
type Loader[T any] func(ctx context.Context) ([]T, error)

// Query is one registered logical read.
type Query[T any] struct {
	c       *Cache
	key     string
	timeout time.Duration
	load    Loader[T]
}

// Register adds a logical read under key with freshness window ttl. Registering the
// same key twice panics.
func Register[T any](c *Cache, key string, ttl time.Duration, load Loader[T]) *Query[T] {
	if ttl <= 0 {
		panic(fmt.Sprintf("readcache: non-positive ttl for %q", key))
	}
	q := &Query[T]{c: c, key: key, timeout: ttl, load: load}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, dup := c.queries[key]; dup {
		panic(fmt.Sprintf("readcache: query %q registered twice", key))
	}
	c.queries[key] = q
	return q
}

// Key returns the cache key of the query.
func (q *Query[T]) Key() string { return q.key }

// TTL returns the freshness window of the query.
func (q *Query[T]) TTL() time.Duration { return q.timeout }

func (q *Query[T]) ttl() time.Duration { return q.timeout }

// Get returns the rows of the query. fresh is true when they were served from memory
// without a remote fetch. On fetch failure Get returns an empty, non-nil slice.
func (q *Query[T]) Get(ctx context.Context) (rows []T, fresh bool) {
	if rows, ok := q.cached(); ok {
		q.c.metrics.IncHit(q.key)
		return rows, true
	}
	q.c.metrics.IncMiss(q.key)

	rows, err := q.fetch(ctx)
	if err != nil {
		q.c.metrics.IncFetchError(q.key)
		q.c.log.Warn("remote read failed, serving empty result",
			logger.String("key", q.key),
			logger.Error(err))
		return []T{}, false
	}
	return rows, false
}

// Invalidate drops the cached rows of the query.
func (q *Query[T]) Invalidate() {
	q.c.Invalidate(q.key)
}

// Refresh drops the cached rows and fetches again, returning the fetch error.
func (q *Query[T]) Refresh(ctx context.Context) ([]T, error) {
	q.c.Invalidate(q.key)
	return q.fetch(ctx)
}

func (q *Query[T]) refresh(ctx context.Context) error {
	_, err := q.Refresh(ctx)
	return err
}

func (q *Query[T]) cached() ([]T, bool) {
	v, ok := q.c.store.Get(q.key)
	if !ok {
		return nil, false
	}
	e := v.(entry)
	if q.c.now().Sub(e.fetchedAt) >= q.timeout {
		return nil, false
	}
	return e.rows.([]T), true
}

// fetch runs the loader once for all concurrent callers. The result is stored only if
// no invalidation happened while the loader ran.
func (q *Query[T]) fetch(ctx context.Context) ([]T, error) {
	q.c.mu.Lock()
	gen := q.c.gens[q.key]
	q.c.mu.Unlock()

	v, err, shared := q.c.group.Do(q.key, func() (any, error) {
		if rows, ok := q.cached(); ok {
			return rows, nil
		}

		start := time.Now()
		// one caller going away must not fail the fetch for the others
		rows, err := q.load(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		if rows == nil {
			rows = []T{}
		}

		q.c.mu.Lock()
		current := q.c.gens[q.key] == gen
		if current {
			q.c.store.Set(q.key, entry{rows: rows, count: len(rows), fetchedAt: q.c.now()}, cache.NoExpiration)
		}
		q.c.mu.Unlock()

		q.c.metrics.SetRows(q.key, len(rows))
		q.c.log.Debug("cache entry loaded",
			logger.String("key", q.key),
			logger.Int("rows", len(rows)),
			logger.Bool("stored", current),
			logger.Duration("duration", time.Since(start)))
		return rows, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		q.c.log.Debug("joined in-flight fetch", logger.String("key", q.key))
	}
	return v.([]T), nil
}

// Invalidate drops the cached rows under key. Reads already in flight finish but do
// not repopulate the entry. It reports whether key is registered.
func (c *Cache) Invalidate(key string) bool {
	c.mu.Lock()
	_, known := c.queries[key]
	c.gens[key]++
	c.store.Delete(key)
	c.mu.Unlock()

	c.group.Forget(key)
	c.metrics.IncInvalidation(key)
	c.log.Debug("cache entry invalidated", logger.String("key", key))
	return known
}

// InvalidateAll drops every cached entry.
func (c *Cache) InvalidateAll() {
	for _, key := range c.Keys() {
		c.Invalidate(key)
	}
}

// ForceRefresh invalidates key and fetches it again.
func (c *Cache) ForceRefresh(ctx context.Context, key string) error {
	c.mu.Lock()
	q, ok := c.queries[key]
	c.mu.Unlock()
	if !ok {
		return errors.Newf("unknown cache key %q", key).
			Category(errors.CategoryNotFound).
			Component("readcache").
			Context("key", key).
			Build()
	}
	return q.refresh(ctx)
}

// Keys returns the registered keys in sorted order.
func (c *Cache) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]string, 0, len(c.queries))
	for k := range c.queries {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// EntryStats describes one registered query.
type EntryStats struct {
	Key    string        `json:"key"`
	TTL    time.Duration `json:"ttl"`
	Cached bool          `json:"cached"`
	Fresh  bool          `json:"fresh"`
	Rows   int           `json:"rows"`
	Age    time.Duration `json:"age"`
}

// Stats returns the state of every registered query.
func (c *Cache) Stats() []EntryStats {
	keys := c.Keys()
	stats := make([]EntryStats, 0, len(keys))
	now := c.now()
	for _, key := range keys {
		c.mu.Lock()
		q := c.queries[key]
		c.mu.Unlock()

		s := EntryStats{Key: key, TTL: q.ttl()}
		if v, ok := c.store.Get(key); ok {
			e := v.(entry)
			s.Cached = true
			s.Rows = e.count
			s.Age = now.Sub(e.fetchedAt)
			s.Fresh = s.Age < s.TTL
		}
		stats = append(stats, s)
	}
	return stats
}
