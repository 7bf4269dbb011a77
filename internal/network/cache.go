package network

import (
	"container/list"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/ecampos-dev/epinet/pkg/metrics"
)

// Key identifies one cached matrix: the day it covers, the weight mode it
// was built with, and the dataset version it was built from.
type Key struct {
	Day     string
	Mode    WeightMode
	Version int64
}

func (k Key) String() string {
	return fmt.Sprintf("%s|%s|%d", k.Day, k.Mode, k.Version)
}

// BuildFunc constructs a matrix on a cache miss.
type BuildFunc func(ctx context.Context) (*Matrix, error)

// Cache is a bounded LRU of built sparse contact matrices. GetOrBuild is
// its sole mutation entry point. Hits are lock-cheap reads; a miss runs the
// builder under a singleflight guarantee, so concurrent requests for the
// same missing key wait on one in-flight build and share its result or its
// failure instead of racing.
type Cache struct {
	capacity int
	mu       sync.Mutex
	order    *list.List
	items    map[Key]*list.Element
	group    singleflight.Group
	metrics  *metrics.Metrics
	logger   *slog.Logger
	hits     atomic.Int64
	misses   atomic.Int64
}

type cacheEntry struct {
	key    Key
	matrix *Matrix
}

// NewCache creates a Cache holding at most capacity matrices. m may be nil
// in tests.
func NewCache(capacity int, m *metrics.Metrics) *Cache {
	if capacity <= 0 {
		capacity = 1
	}
	return &Cache{
		capacity: capacity,
		order:    list.New(),
		items:    make(map[Key]*list.Element),
		metrics:  m,
		logger:   slog.Default().With("component", "network-cache"),
	}
}

// GetOrBuild returns the cached matrix for key, building and storing it on
// a miss. A build failure propagates to every waiter for that key and
// nothing is stored.
func (c *Cache) GetOrBuild(ctx context.Context, key Key, build BuildFunc) (*Matrix, error) {
	if m, ok := c.lookup(key); ok {
		return m, nil
	}

	val, err, _ := c.group.Do(key.String(), func() (interface{}, error) {
		// A concurrent waiter may have completed the build while this
		// goroutine queued on the singleflight group.
		if m, ok := c.lookup(key); ok {
			return m, nil
		}
		c.misses.Add(1)
		if c.metrics != nil {
			c.metrics.NetworkCacheMisses.Inc()
		}
		m, err := build(ctx)
		if err != nil {
			return nil, err
		}
		c.store(key, m)
		return m, nil
	})
	if err != nil {
		return nil, err
	}
	return val.(*Matrix), nil
}

// Stats returns the cumulative hit and miss counts.
func (c *Cache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Len returns the number of cached matrices.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Purge drops every cached matrix.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.Init()
	c.items = make(map[Key]*list.Element)
	if c.metrics != nil {
		c.metrics.CachedNetworks.Set(0)
	}
	c.logger.Info("network cache purged")
}

func (c *Cache) lookup(key Key) (*Matrix, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	elem, ok := c.items[key]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(elem)
	c.hits.Add(1)
	if c.metrics != nil {
		c.metrics.NetworkCacheHits.Inc()
	}
	return elem.Value.(*cacheEntry).matrix, true
}

func (c *Cache) store(key Key, m *Matrix) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.items[key]; ok {
		c.order.MoveToFront(elem)
		elem.Value.(*cacheEntry).matrix = m
		return
	}
	c.items[key] = c.order.PushFront(&cacheEntry{key: key, matrix: m})
	for c.order.Len() > c.capacity {
		oldest := c.order.Back()
		entry := oldest.Value.(*cacheEntry)
		c.order.Remove(oldest)
		delete(c.items, entry.key)
		if c.metrics != nil {
			c.metrics.NetworkCacheEvicted.Inc()
		}
		c.logger.Debug("network evicted",
			"day", entry.key.Day,
			"weight_mode", string(entry.key.Mode),
			"dataset_version", entry.key.Version,
		)
	}
	if c.metrics != nil {
		c.metrics.CachedNetworks.Set(float64(c.order.Len()))
	}
}
