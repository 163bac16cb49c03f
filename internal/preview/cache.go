package preview

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"go-stream-download/internal/models"
)

// DefaultTTL is how long a resolved preview stays served from memory before a
// repeat request triggers a fresh metadata lookup.
const DefaultTTL = 180 * time.Second

// FetchFunc resolves a preview for a URL. It is the extractor client's
// Preview method in production and a stub in tests.
type FetchFunc func(ctx context.Context, url string) (models.Preview, error)

// Cache is an in-memory TTL cache of preview metadata keyed by the exact
// request URL. Lookups that miss run the fetch outside the lock, so a slow
// extractor call never blocks cached reads for other URLs.
type Cache struct {
	mu      sync.Mutex
	entries map[string]models.Preview
	ttl     time.Duration
	now     func() time.Time
	fetch   FetchFunc
}

// NewCache creates a preview cache around the given fetch function. A
// non-positive ttl falls back to DefaultTTL.
func NewCache(fetch FetchFunc, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		entries: make(map[string]models.Preview),
		ttl:     ttl,
		now:     time.Now,
		fetch:   fetch,
	}
}

// GetOrFetch returns the cached preview for the URL when it is still fresh,
// otherwise resolves a new one. Failures are not cached; the next request
// retries the lookup.
func (c *Cache) GetOrFetch(ctx context.Context, url string) (models.Preview, error) {
	c.mu.Lock()
	if p, ok := c.entries[url]; ok && c.now().Sub(p.FetchedAt) < c.ttl {
		c.mu.Unlock()
		return p, nil
	}
	c.mu.Unlock()

	p, err := c.fetch(ctx, url)
	if err != nil {
		return models.Preview{}, err
	}

	c.mu.Lock()
	p.FetchedAt = c.now()
	c.entries[url] = p
	c.dropStaleLocked()
	c.mu.Unlock()

	log.WithField("url", url).Debugf("Cached preview for %s", c.ttl)
	return p, nil
}

// Len returns the number of cached entries, fresh or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// dropStaleLocked evicts expired entries. Called on every store so the map
// stays bounded by the set of URLs previewed within one TTL window.
func (c *Cache) dropStaleLocked() {
	cutoff := c.now().Add(-c.ttl)
	for url, p := range c.entries {
		if p.FetchedAt.Before(cutoff) {
			delete(c.entries, url)
		}
	}
}
