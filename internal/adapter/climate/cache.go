package climate

import (
	"context"
	"fmt"
	"sync"

	"github.com/couchcryptid/rainwater-assessment/internal/domain"
	"github.com/couchcryptid/rainwater-assessment/internal/observability"
)

// CachedSource wraps a RainfallSource with an in-memory LRU cache keyed by
// coordinates rounded to two decimals (about 1 km), well inside the archive's
// grid resolution.
type CachedSource struct {
	inner   domain.RainfallSource
	cache   *lruCache[domain.RainfallProfile]
	metrics *observability.Metrics
}

// NewCachedSource creates a cache decorator around a rainfall source.
func NewCachedSource(inner domain.RainfallSource, maxEntries int, metrics *observability.Metrics) *CachedSource {
	return &CachedSource{
		inner:   inner,
		cache:   newLRUCache[domain.RainfallProfile](maxEntries),
		metrics: metrics,
	}
}

// Name reports the wrapped provider.
func (c *CachedSource) Name() string { return c.inner.Name() }

func (c *CachedSource) MonthlyNormals(ctx context.Context, lat, lon float64) (domain.RainfallProfile, error) {
	key := fmt.Sprintf("%.2f,%.2f", lat, lon)
	if p, ok := c.cache.get(key); ok {
		c.metrics.RainfallCache.WithLabelValues("hit").Inc()
		return p, nil
	}
	c.metrics.RainfallCache.WithLabelValues("miss").Inc()

	p, err := c.inner.MonthlyNormals(ctx, lat, lon)
	if err != nil {
		return p, err
	}
	c.cache.put(key, p)
	return p, nil
}

// lruCache is a small thread-safe LRU cache.
type lruCache[V any] struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry[V]
	head       *entry[V] // most recently used
	tail       *entry[V] // least recently used
}

type entry[V any] struct {
	key   string
	value V
	prev  *entry[V]
	next  *entry[V]
}

func newLRUCache[V any](maxEntries int) *lruCache[V] {
	if maxEntries <= 0 {
		maxEntries = 1
	}
	return &lruCache[V]{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry[V]),
	}
}

func (c *lruCache[V]) get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache[V]) put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry[V]{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache[V]) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *lruCache[V]) moveToFront(e *entry[V]) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache[V]) addToFront(e *entry[V]) {
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

func (c *lruCache[V]) remove(e *entry[V]) {
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

func (c *lruCache[V]) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
