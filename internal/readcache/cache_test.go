package readcache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twdrugfinder/drugfinder/internal/errors"
	"github.com/twdrugfinder/drugfinder/internal/observability/metrics"
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

// countingLoader returns rows and counts how often it ran.
type countingLoader struct {
	calls atomic.Int32
	rows  []string
	err   error
}

func (l *countingLoader) Load(context.Context) ([]string, error) {
	l.calls.Add(1)
	if l.err != nil {
		return nil, l.err
	}
	return l.rows, nil
}

func TestGetWithinTTLDoesNotFetch(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	c := New(WithClock(clock.Now))
	loader := &countingLoader{rows: []string{"Ritalin"}}
	q := Register(c, "drugs", 60*time.Second, loader.Load)

	rows, fresh := q.Get(t.Context())
	assert.Equal(t, []string{"Ritalin"}, rows)
	assert.False(t, fresh, "first read fetches")
	assert.Equal(t, int32(1), loader.calls.Load())

	clock.Advance(59 * time.Second)
	rows, fresh = q.Get(t.Context())
	assert.Equal(t, []string{"Ritalin"}, rows)
	assert.True(t, fresh)
	assert.Equal(t, int32(1), loader.calls.Load(), "no fetch inside the window")
}

func TestGetAfterTTLFetchesExactlyOnce(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	c := New(WithClock(clock.Now))
	loader := &countingLoader{rows: []string{"a"}}
	q := Register(c, "requests", 10*time.Second, loader.Load)

	q.Get(t.Context())
	clock.Advance(10 * time.Second)

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rows, _ := q.Get(context.Background())
			assert.Equal(t, []string{"a"}, rows)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(2), loader.calls.Load(), "one fetch after expiry, shared by all readers")

	_, fresh := q.Get(t.Context())
	assert.True(t, fresh)
}

func TestFailedFetchIsNotCached(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	cm, err := metrics.NewCacheMetrics(reg)
	require.NoError(t, err)

	c := New(WithMetrics(cm))
	loader := &countingLoader{err: errors.NewStd("boom")}
	q := Register(c, "inventory", time.Minute, loader.Load)

	rows, fresh := q.Get(t.Context())
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
	assert.False(t, fresh)

	loader.err = nil
	loader.rows = []string{"x"}
	rows, fresh = q.Get(t.Context())
	assert.Equal(t, []string{"x"}, rows)
	assert.False(t, fresh)
	assert.Equal(t, int32(2), loader.calls.Load(), "failure was retried on the next read")

	assert.InDelta(t, 1, testutil.ToFloat64(cm.FetchErrors.WithLabelValues("inventory")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(cm.Misses.WithLabelValues("inventory")), 0)
}

func TestNilRowsBecomeEmptySlice(t *testing.T) {
	t.Parallel()

	c := New()
	q := Register(c, "feedback", time.Minute, func(context.Context) ([]int, error) { return nil, nil })

	rows, _ := q.Get(t.Context())
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestInvalidateForcesNextReadToFetch(t *testing.T) {
	t.Parallel()

	c := New()
	loader := &countingLoader{rows: []string{"A"}}
	q := Register(c, "requests", time.Hour, loader.Load)

	q.Get(t.Context())
	loader.rows = []string{"A", "A"}

	assert.True(t, c.Invalidate("requests"))
	rows, fresh := q.Get(t.Context())
	assert.False(t, fresh)
	assert.Equal(t, []string{"A", "A"}, rows, "the write is visible after invalidation")
	assert.Equal(t, int32(2), loader.calls.Load())

	assert.False(t, c.Invalidate("unknown"))
}

func TestInvalidateDuringFetchDiscardsStaleResult(t *testing.T) {
	t.Parallel()

	c := New()
	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	q := Register(c, "inventory", time.Hour, func(context.Context) ([]string, error) {
		if calls.Add(1) == 1 {
			close(started)
			<-release
			return []string{"before-write"}, nil
		}
		return []string{"after-write"}, nil
	})

	done := make(chan []string)
	go func() {
		rows, _ := q.Get(context.Background())
		done <- rows
	}()

	<-started
	q.Invalidate()
	close(release)
	assert.Equal(t, []string{"before-write"}, <-done)

	rows, fresh := q.Get(t.Context())
	assert.False(t, fresh, "stale in-flight result was not stored")
	assert.Equal(t, []string{"after-write"}, rows)
}

func TestInvalidateAllAndForceRefresh(t *testing.T) {
	t.Parallel()

	c := New()
	drugs := &countingLoader{rows: []string{"d"}}
	cities := &countingLoader{rows: []string{"c"}}
	qd := Register(c, "drugs", time.Hour, drugs.Load)
	qc := Register(c, "cities", time.Hour, cities.Load)

	qd.Get(t.Context())
	qc.Get(t.Context())
	assert.Equal(t, []string{"cities", "drugs"}, c.Keys())

	c.InvalidateAll()
	for _, s := range c.Stats() {
		assert.False(t, s.Cached, s.Key)
	}

	require.NoError(t, c.ForceRefresh(t.Context(), "drugs"))
	assert.Equal(t, int32(2), drugs.calls.Load())
	_, fresh := qd.Get(t.Context())
	assert.True(t, fresh, "force refresh repopulated the entry")

	err := c.ForceRefresh(t.Context(), "nope")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestForceRefreshReturnsFetchError(t *testing.T) {
	t.Parallel()

	c := New()
	loader := &countingLoader{err: errors.NewStd("remote down")}
	Register(c, "cities", time.Hour, loader.Load)

	err := c.ForceRefresh(t.Context(), "cities")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "remote down")
}

func TestRegisterPanics(t *testing.T) {
	t.Parallel()

	c := New()
	Register(c, "drugs", time.Minute, (&countingLoader{}).Load)
	assert.Panics(t, func() { Register(c, "drugs", time.Minute, (&countingLoader{}).Load) })
	assert.Panics(t, func() { Register(c, "zero", 0, (&countingLoader{}).Load) })
}

func TestStats(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	c := New(WithClock(clock.Now))
	q := Register(c, "drugs", time.Minute, (&countingLoader{rows: []string{"a", "b"}}).Load)
	q.Get(t.Context())
	clock.Advance(2 * time.Minute)

	stats := c.Stats()
	require.Len(t, stats, 1)
	assert.Equal(t, EntryStats{Key: "drugs", TTL: time.Minute, Cached: true, Fresh: false, Rows: 2, Age: 2 * time.Minute}, stats[0])
}
