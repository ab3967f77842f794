package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/paybridge/backend/internal/domain/storefront"
)

const (
	defaultCleanupInterval = 30 * time.Second
	defaultTTL             = 5 * time.Minute
)

type cacheEntry struct {
	doc       *storefront.Document
	expiresAt time.Time
}

func (e *cacheEntry) isExpired(now time.Time) bool {
	return now.After(e.expiresAt)
}

// InMemoryDocumentCache is a process-local DocumentCache with per-entry TTL.
// Documents are cloned on the way in and out so callers never share state
// with the cache.
type InMemoryDocumentCache struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry
	logger  *zap.Logger
	now     func() time.Time

	stopCh  chan struct{}
	stopped atomic.Bool

	hits   atomic.Int64
	misses atomic.Int64
}

// InMemoryOption configures an InMemoryDocumentCache
type InMemoryOption func(*InMemoryDocumentCache)

// WithInMemoryLogger sets the logger for the cache
func WithInMemoryLogger(logger *zap.Logger) InMemoryOption {
	return func(c *InMemoryDocumentCache) {
		c.logger = logger
	}
}

// withClock replaces time.Now, for tests
func withClock(now func() time.Time) InMemoryOption {
	return func(c *InMemoryDocumentCache) {
		c.now = now
	}
}

// NewInMemoryDocumentCache creates the cache and starts its cleanup loop.
// Call Close to stop it.
func NewInMemoryDocumentCache(opts ...InMemoryOption) *InMemoryDocumentCache {
	c := &InMemoryDocumentCache{
		entries: make(map[string]*cacheEntry),
		logger:  zap.NewNop(),
		now:     time.Now,
		stopCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	go c.cleanupExpired()
	return c
}

// Get returns a copy of the cached document
func (c *InMemoryDocumentCache) Get(_ context.Context, key string) (*storefront.Document, bool, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || entry.isExpired(c.now()) {
		c.misses.Add(1)
		return nil, false, nil
	}
	c.hits.Add(1)
	return entry.doc.Clone(), true, nil
}

// Set stores a copy of doc. A zero ttl uses the default of five minutes.
func (c *InMemoryDocumentCache) Set(_ context.Context, key string, doc *storefront.Document, ttl time.Duration) error {
	if doc == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}

	c.mu.Lock()
	c.entries[key] = &cacheEntry{doc: doc.Clone(), expiresAt: c.now().Add(ttl)}
	c.mu.Unlock()
	return nil
}

// Delete removes key
func (c *InMemoryDocumentCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}

// Len returns the number of entries, including expired ones not yet swept
func (c *InMemoryDocumentCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns hit and miss counters
func (c *InMemoryDocumentCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Close stops the cleanup loop. It is safe to call more than once.
func (c *InMemoryDocumentCache) Close() error {
	if c.stopped.CompareAndSwap(false, true) {
		close(c.stopCh)
	}
	return nil
}

func (c *InMemoryDocumentCache) cleanupExpired() {
	ticker := time.NewTicker(defaultCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.sweep()
		}
	}
}

// sweep removes expired entries
func (c *InMemoryDocumentCache) sweep() int {
	now := c.now()
	removed := 0

	c.mu.Lock()
	for key, entry := range c.entries {
		if entry.isExpired(now) {
			delete(c.entries, key)
			removed++
		}
	}
	c.mu.Unlock()

	if removed > 0 {
		c.logger.Debug("Cleaned up expired cache entries", zap.Int("removed", removed))
	}
	return removed
}

var _ storefront.DocumentCache = (*InMemoryDocumentCache)(nil)
