package keyset

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"google.golang.org/grpc/codes"

	"github.com/dpup/idtoken/errors"
	"github.com/dpup/idtoken/logging"
)

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithMinTTL enforces a floor on the freshness window, covering servers that
// grant no Cache-Control max-age. Zero (the default) means such responses
// are revalidated on every lookup.
func WithMinTTL(d time.Duration) CacheOption {
	return func(c *Cache) {
		if d > 0 {
			c.minTTL = d
		}
	}
}

// WithClock substitutes the time source, for tests.
func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// NewCache wraps a Fetcher with HTTP cache semantics: within the freshness
// window granted by the last response, lookups return the stored keys with
// no network call; after it lapses, a conditional request revalidates the
// entry, and a "not modified" answer extends the window without re-parsing
// the body. A changed body replaces the entry wholesale.
//
// Fetch failures propagate to the caller; the cache never silently serves
// keys it knows it failed to revalidate.
func NewCache(src Fetcher, opts ...CacheOption) *Cache {
	c := &Cache{
		src: src,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Cache is a single shared slot holding the most recently fetched key set
// together with the response validators. Safe for concurrent use: readers
// load an immutable snapshot, refreshes are serialized, and each successful
// refresh swaps the snapshot wholesale.
type Cache struct {
	src    Fetcher
	minTTL time.Duration
	now    func() time.Time

	// entry holds the current immutable snapshot. Readers never observe a
	// partially written key list.
	entry atomic.Pointer[cacheEntry]

	// mu serializes refreshes so concurrent callers don't race duplicate
	// fetches against the origin.
	mu sync.Mutex
}

type cacheEntry struct {
	keys         []Key
	etag         string
	lastModified string
	fetchedAt    time.Time
	maxAge       time.Duration
}

func (e *cacheEntry) freshAt(now time.Time) bool {
	return now.Before(e.fetchedAt.Add(e.maxAge))
}

// Keys returns the cached key set, refreshing it first if the freshness
// window has lapsed or nothing has been fetched yet.
func (c *Cache) Keys(ctx context.Context) ([]Key, error) {
	if e := c.entry.Load(); e != nil && e.freshAt(c.now()) {
		return e.keys, nil
	}
	return c.refresh(ctx)
}

func (c *Cache) refresh(ctx context.Context) ([]Key, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// A concurrent caller may have refreshed while we waited for the lock.
	if e := c.entry.Load(); e != nil && e.freshAt(c.now()) {
		return e.keys, nil
	}

	var cond Conditional
	prev := c.entry.Load()
	if prev != nil {
		cond = Conditional{ETag: prev.etag, LastModified: prev.lastModified}
	}

	res, err := c.src.Fetch(ctx, cond)
	if err != nil {
		return nil, err
	}
	if res.NotModified && prev == nil {
		// No conditional request was made, so a 304 is a server bug.
		return nil, errors.NewC("keyset: not-modified response with nothing cached", codes.Unavailable)
	}

	next := &cacheEntry{
		etag:         res.ETag,
		lastModified: res.LastModified,
		fetchedAt:    c.now(),
		maxAge:       res.MaxAge,
	}
	if next.maxAge < c.minTTL {
		next.maxAge = c.minTTL
	}

	if res.NotModified {
		// Keep the stored keys, refresh only the freshness window. A 304 may
		// omit validators; carry the previous ones forward.
		next.keys = prev.keys
		if next.etag == "" {
			next.etag = prev.etag
		}
		if next.lastModified == "" {
			next.lastModified = prev.lastModified
		}
		logging.Debugw(ctx, "keyset: cache revalidated", "keys", len(next.keys), "max_age", next.maxAge)
	} else {
		next.keys = res.Keys
		logging.Infow(ctx, "keyset: cache replaced", "keys", len(next.keys), "max_age", next.maxAge)
	}

	c.entry.Store(next)
	return next.keys, nil
}
