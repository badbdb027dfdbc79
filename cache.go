package gitpress

import (
	"context"
	"sync"
	"time"

	"github.com/gitpress-io/gitpress/publish"
	"github.com/gitpress-io/gitpress/store"
)

// IndexCache is an in-memory cache of per-content-type search indexes with
// TTL. Reads go through the backend with bounded retry, because an index
// read right after a commit can lag behind the ref on eventually-consistent
// hosting APIs.
type IndexCache struct {
	mu      sync.RWMutex
	entries map[string]indexEntry

	backend  store.Backend
	ttl      time.Duration
	attempts uint64
	delay    time.Duration
}

type indexEntry struct {
	records []publish.Record
	fetched time.Time
}

// NewIndexCache creates an IndexCache reading through backend.
func NewIndexCache(backend store.Backend, ttl time.Duration, attempts uint64, delay time.Duration) *IndexCache {
	return &IndexCache{
		entries:  make(map[string]indexEntry),
		backend:  backend,
		ttl:      ttl,
		attempts: attempts,
		delay:    delay,
	}
}

// List returns the search index records for one content type. A missing
// index is an empty list.
func (c *IndexCache) List(ctx context.Context, contentType string) ([]publish.Record, error) {
	c.mu.RLock()
	entry, ok := c.entries[contentType]
	c.mu.RUnlock()
	if ok && time.Since(entry.fetched) < c.ttl {
		return entry.records, nil
	}

	records, err := publish.LoadIndexRetry(ctx, c.backend, contentType, c.attempts, c.delay)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.entries[contentType] = indexEntry{records: records, fetched: time.Now()}
	c.mu.Unlock()
	return records, nil
}

// IDs returns the item ids currently present in one content type's index.
func (c *IndexCache) IDs(ctx context.Context, contentType string) ([]string, error) {
	records, err := c.List(ctx, contentType)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(records))
	for _, record := range records {
		ids = append(ids, record.ID())
	}
	return ids, nil
}

// Invalidate clears one content type's cached index so the next read
// triggers a fresh load. Called after every publish that touches the type.
func (c *IndexCache) Invalidate(contentType string) {
	c.mu.Lock()
	delete(c.entries, contentType)
	c.mu.Unlock()
}

// InvalidateAll clears the whole cache (bulk rebuild).
func (c *IndexCache) InvalidateAll() {
	c.mu.Lock()
	c.entries = make(map[string]indexEntry)
	c.mu.Unlock()
}
