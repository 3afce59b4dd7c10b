package timeseries

import (
	"sync"

	"github.com/couchcryptid/storm-alert-map/internal/domain"
	"github.com/couchcryptid/storm-alert-map/internal/observability"
)

// CachedSeries wraps a TimeSeries with an in-memory LRU of decoded
// snapshots so scrubbing back and forth over the same range skips decoding.
type CachedSeries struct {
	*TimeSeries
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedSeries creates a cache decorator around ts. A maxEntries of zero
// disables caching.
func NewCachedSeries(ts *TimeSeries, maxEntries int, metrics *observability.Metrics) *CachedSeries {
	return &CachedSeries{
		TimeSeries: ts,
		cache:      newLRUCache(maxEntries),
		metrics:    metrics,
	}
}

// SnapshotAt returns the cached snapshot for t, decoding on a miss.
func (c *CachedSeries) SnapshotAt(t int64) domain.Snapshot {
	k, ok := c.StepIndex(t)
	if !ok {
		return domain.Snapshot{}
	}
	if snap, ok := c.cache.get(k); ok {
		c.metrics.SnapshotCache.WithLabelValues("hit").Inc()
		return snap
	}
	c.metrics.SnapshotCache.WithLabelValues("miss").Inc()
	snap := c.SnapshotAtStep(k)
	c.cache.put(k, snap)
	return snap
}

// lruCache is a simple thread-safe LRU cache of snapshots keyed by step.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[int]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   int
	value domain.Snapshot
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[int]*entry),
	}
}

func (c *lruCache) get(key int) (domain.Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key int, value domain.Snapshot) {
	if c.maxEntries <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
