package repository

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/okian/peakline/internal/domain/model"
	"github.com/okian/peakline/pkg/metrics"
)

// Default cache configuration constants.
const (
	defaultMaxEntries = 1024
)

// node represents a single entry in the eviction list
type node struct {
	fingerprint string
	id          string
	chart       model.ProjectionChart
	next        *node
}

// reset clears the node state for reuse
func (n *node) reset() {
	n.fingerprint = ""
	n.id = ""
	n.chart = model.ProjectionChart{}
	n.next = nil
}

// MemoryCache implements Cache with a bounded in-memory map and
// oldest-first eviction over a singly linked list. Nodes are pooled.
type MemoryCache struct {
	mu         sync.RWMutex
	entries    map[string]*node // fingerprint -> node
	ids        map[string]*node // projection id -> node
	head       *node            // most recently cached
	maxEntries int
	size       atomic.Int64
	nodePool   sync.Pool
}

// NewMemoryCache creates a bounded in-memory projection cache.
func NewMemoryCache(opts ...Option) *MemoryCache {
	c := &MemoryCache{
		maxEntries: defaultMaxEntries,
	}

	// Apply all options
	for _, opt := range opts {
		opt(c)
	}

	c.entries = make(map[string]*node)
	c.ids = make(map[string]*node)
	c.nodePool = sync.Pool{
		New: func() interface{} {
			return &node{}
		},
	}

	return c
}

// Put stores a computed chart under its request fingerprint. Re-putting
// an existing fingerprint replaces the cached chart in place.
func (c *MemoryCache) Put(_ context.Context, fingerprint string, chart model.ProjectionChart) {
	if fingerprint == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.entries[fingerprint]; ok {
		delete(c.ids, existing.id)
		existing.id = chart.ProjectionID
		existing.chart = chart
		c.ids[chart.ProjectionID] = existing
		return
	}

	// Evict before adding so the bound holds
	if len(c.entries) >= c.maxEntries {
		c.evictOldest()
	}

	n := c.nodePool.Get().(*node)
	n.fingerprint = fingerprint
	n.id = chart.ProjectionID
	n.chart = chart
	n.next = c.head

	c.head = n
	c.entries[fingerprint] = n
	c.ids[n.id] = n
	c.size.Add(1)
	metrics.UpdateCacheEntries(len(c.entries))
}

// Get returns the chart cached for a request fingerprint.
func (c *MemoryCache) Get(_ context.Context, fingerprint string) (model.ProjectionChart, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n, ok := c.entries[fingerprint]
	if !ok {
		return model.ProjectionChart{}, false
	}
	metrics.RecordCacheHit()
	return n.chart, true
}

// ByID returns the cached chart with the given projection id.
func (c *MemoryCache) ByID(_ context.Context, id string) (model.ProjectionChart, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n, ok := c.ids[id]
	if !ok {
		return model.ProjectionChart{}, ErrNotFound
	}
	return n.chart, nil
}

// Size returns the number of cached projections.
func (c *MemoryCache) Size() int {
	return int(c.size.Load())
}

// evictOldest removes the oldest entry (tail of list) from both maps.
// Must be called with c.mu.Lock() held.
func (c *MemoryCache) evictOldest() {
	if len(c.entries) == 0 || c.head == nil {
		return
	}

	// If there's only one node, remove it
	if c.head.next == nil {
		c.removeNode(c.head)
		c.head = nil
		return
	}

	// Find the second-to-last node
	var prev *node
	current := c.head
	for current.next != nil {
		prev = current
		current = current.next
	}

	prev.next = nil
	c.removeNode(current)
}

// removeNode deletes a node's map entries and returns it to the pool.
// Must be called with c.mu.Lock() held.
func (c *MemoryCache) removeNode(n *node) {
	delete(c.entries, n.fingerprint)
	delete(c.ids, n.id)
	n.reset()
	c.nodePool.Put(n)
	c.size.Add(-1)
	metrics.UpdateCacheEntries(len(c.entries))
}
