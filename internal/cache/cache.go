// Package cache holds listing pages between mutations.
package cache

import (
	"sync"
	"time"

	"github.com/jjudge-oj/userdir/internal/services"
)

const (
	DefaultTTL        = 30 * time.Second
	DefaultMaxEntries = 256
)

// Key identifies one listing page.
type Key struct {
	Limit  int
	Offset int
}

type entry struct {
	page    services.UserPage
	expires time.Time
}

// PageCache stores listing pages tagged with a generation. Invalidate bumps
// the generation, and Put drops pages fetched under an older one, so a slow
// fetch that started before a mutation never replaces newer state.
//
// Entries expire after the TTL so writes from other processes show up even
// without change events. Pages without rows are never stored.
type PageCache struct {
	mu         sync.RWMutex
	generation uint64
	pages      map[Key]entry
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

// NewPageCache constructs an empty cache with DefaultTTL and DefaultMaxEntries.
func NewPageCache() *PageCache {
	return NewPageCacheWithLimits(DefaultMaxEntries, DefaultTTL)
}

// NewPageCacheWithLimits constructs an empty cache holding at most maxEntries
// pages for ttl each. Non-positive values fall back to the defaults.
func NewPageCacheWithLimits(maxEntries int, ttl time.Duration) *PageCache {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &PageCache{
		pages:      make(map[Key]entry),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// Begin returns the generation a fetch should pass to Put.
func (c *PageCache) Begin() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation
}

// Get returns the cached page for key if it has not expired.
func (c *PageCache) Get(key Key) (services.UserPage, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.pages[key]
	if !ok || !c.now().Before(e.expires) {
		return services.UserPage{}, false
	}
	return e.page, true
}

// Put stores page under key unless the cache was invalidated after gen was
// taken, the page has no rows, or the cache is full of live entries. It
// reports whether the page was stored.
func (c *PageCache) Put(gen uint64, key Key, page services.UserPage) bool {
	if len(page.Users) == 0 {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return false
	}
	now := c.now()
	if _, ok := c.pages[key]; !ok && len(c.pages) >= c.maxEntries {
		c.evictExpired(now)
		if len(c.pages) >= c.maxEntries {
			return false
		}
	}
	c.pages[key] = entry{page: page, expires: now.Add(c.ttl)}
	return true
}

// evictExpired must be called with mu held.
func (c *PageCache) evictExpired(now time.Time) {
	for key, e := range c.pages {
		if !now.Before(e.expires) {
			delete(c.pages, key)
		}
	}
}

// Invalidate drops every page.
func (c *PageCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.pages = make(map[Key]entry)
}

// Len returns the number of stored pages, expired ones included until they
// are evicted.
func (c *PageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.pages)
}
