// Package cache provides a short-TTL cache for public article-list
// responses. Only anonymous GETs are cached; authenticated responses
// carry per-user feedback flags and must always hit upstream.
package cache

import (
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Entry is a cached upstream response body.
type Entry struct {
	Body        []byte
	StatusCode  int
	ContentType string
}

// Stats holds cache counters.
type Stats struct {
	Hits   int64
	Misses int64
	Size   int
}

// ResponseCache is an expirable LRU over anonymous responses.
type ResponseCache struct {
	lru    *expirable.LRU[string, Entry]
	hits   atomic.Int64
	misses atomic.Int64
}

// New creates a cache holding up to size entries for ttl each.
func New(size int, ttl time.Duration) *ResponseCache {
	return &ResponseCache{
		lru: expirable.NewLRU[string, Entry](size, nil, ttl),
	}
}

// Key builds the cache key for a request.
func Key(path, rawQuery string) string {
	if rawQuery == "" {
		return path
	}
	return path + "?" + rawQuery
}

// Get returns the cached entry for key, if present and fresh.
func (c *ResponseCache) Get(key string) (Entry, bool) {
	e, ok := c.lru.Get(key)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return e, ok
}

// Set stores an entry under key.
func (c *ResponseCache) Set(key string, e Entry) {
	c.lru.Add(key, e)
}

// Purge empties the cache.
func (c *ResponseCache) Purge() {
	c.lru.Purge()
}

// Snapshot returns current counters.
func (c *ResponseCache) Snapshot() Stats {
	return Stats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Size:   c.lru.Len(),
	}
}
