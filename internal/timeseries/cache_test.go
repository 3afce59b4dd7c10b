package timeseries

import (
	"testing"

	"github.com/couchcryptid/storm-alert-map/internal/domain"
	"github.com/couchcryptid/storm-alert-map/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- CachedSeries tests ---

func TestCachedSeries_HitAfterMiss(t *testing.T) {
	ts, err := Load(exampleSeries(t))
	require.NoError(t, err)
	metrics := observability.NewMetricsForTesting()
	cached := NewCachedSeries(ts, 4, metrics)

	first := cached.SnapshotAt(0)
	second := cached.SnapshotAt(0)

	assert.Equal(t, first, second)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.SnapshotCache.WithLabelValues("miss")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.SnapshotCache.WithLabelValues("hit")), 0)
}

func TestCachedSeries_Disabled(t *testing.T) {
	ts, err := Load(exampleSeries(t))
	require.NoError(t, err)
	metrics := observability.NewMetricsForTesting()
	cached := NewCachedSeries(ts, 0, metrics)

	cached.SnapshotAt(0)
	cached.SnapshotAt(0)

	assert.InDelta(t, 2, testutil.ToFloat64(metrics.SnapshotCache.WithLabelValues("miss")), 0)
	assert.Equal(t, 0, cached.cache.len())
}

func TestCachedSeries_OutOfRangeSkipsCache(t *testing.T) {
	ts, err := Load(exampleSeries(t))
	require.NoError(t, err)
	metrics := observability.NewMetricsForTesting()
	cached := NewCachedSeries(ts, 4, metrics)

	assert.Empty(t, cached.SnapshotAt(123))
	assert.InDelta(t, 0, testutil.ToFloat64(metrics.SnapshotCache.WithLabelValues("miss")), 0)
}

// --- LRU cache unit tests ---

func TestLRUCache_BasicGetPut(t *testing.T) {
	c := newLRUCache(3)

	c.put(1, domain.Snapshot{1: {tornadoWarning}})
	c.put(2, domain.Snapshot{})

	result, ok := c.get(1)
	assert.True(t, ok)
	assert.Equal(t, tornadoWarning, result.Primary(1))

	_, ok = c.get(99)
	assert.False(t, ok)
}

func TestLRUCache_Eviction(t *testing.T) {
	c := newLRUCache(2)

	c.put(1, domain.Snapshot{})
	c.put(2, domain.Snapshot{})
	c.put(3, domain.Snapshot{}) // evicts 1

	_, ok := c.get(1)
	assert.False(t, ok, "1 should have been evicted")
	_, ok = c.get(2)
	assert.True(t, ok)
	_, ok = c.get(3)
	assert.True(t, ok)
}

func TestLRUCache_AccessPromotesEntry(t *testing.T) {
	c := newLRUCache(2)

	c.put(1, domain.Snapshot{})
	c.put(2, domain.Snapshot{})

	// Access 1 to promote it
	c.get(1)

	// Insert 3: evicts 2, the least recently used
	c.put(3, domain.Snapshot{})

	_, ok := c.get(1)
	assert.True(t, ok, "1 was accessed recently, should not be evicted")
	_, ok = c.get(2)
	assert.False(t, ok, "2 should have been evicted")
}

func TestLRUCache_UpdateExisting(t *testing.T) {
	c := newLRUCache(2)

	c.put(1, domain.Snapshot{})
	c.put(1, domain.Snapshot{5: {tornadoWarning}})

	result, ok := c.get(1)
	assert.True(t, ok)
	assert.Equal(t, tornadoWarning, result.Primary(5))
	assert.Equal(t, 1, c.len())
}
