// Package cache keeps completed analyses in memory so later expand, read and
// query calls can be answered without re-analyzing. Entries expire after a TTL
// and the oldest entry by creation time is evicted when capacity is reached.
package cache

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"

	"archlens/internal/analysis"
	"archlens/internal/config"
	"archlens/internal/paths"
)

const (
	DefaultTTL      = time.Hour
	DefaultCapacity = 50
)

// Value is everything an analysis run produced.
type Value struct {
	Result   *analysis.AnalysisResult
	Reports  analysis.Reports
	RootPath string

	// Release frees the resolved source. It is called once when the entry leaves the cache.
	Release func()
}

// Metadata describes how an entry was produced
type Metadata struct {
	Source string
	Depth  analysis.Depth
}

// Entry is one cached analysis. Entries are never mutated after insertion.
type Entry struct {
	Key       string
	Value     Value
	CreatedAt time.Time
	ExpiresAt time.Time
	Metadata  Metadata
}

// Expired reports whether the entry is past its expiry at now
func (e *Entry) Expired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}

// Observer receives cache events, typically telemetry.
type Observer interface {
	CacheHit()
	CacheMiss()
	CacheEvicted(reason string)
}

// Options configures a ResultCache
type Options struct {
	TTL      time.Duration
	Capacity int
	Observer Observer
	Now      func() time.Time
}

// OptionsFromConfig maps the cache section of the configuration.
func OptionsFromConfig(cfg config.CacheConfig) Options {
	return Options{
		TTL:      time.Duration(cfg.TTLSeconds) * time.Second,
		Capacity: cfg.Capacity,
	}
}

// ResultCache is safe for concurrent use. Reads use Peek so recency never
// changes the eviction order, which stays oldest-by-creation.
type ResultCache struct {
	mu       sync.Mutex
	lru      *simplelru.LRU[string, *Entry]
	ttl      time.Duration
	observer Observer
	now      func() time.Time
}

// New creates a ResultCache, applying defaults for zero options.
func New(opts Options) *ResultCache {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Capacity <= 0 {
		opts.Capacity = DefaultCapacity
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}

	c := &ResultCache{ttl: opts.TTL, observer: opts.Observer, now: opts.Now}
	// NewLRU only fails for a non-positive size.
	c.lru, _ = simplelru.NewLRU[string, *Entry](opts.Capacity, func(_ string, e *Entry) {
		if e.Value.Release != nil {
			e.Value.Release()
		}
	})
	return c
}

// NormalizeKey converts backslashes to slashes and strips trailing slashes.
func NormalizeKey(source string) string {
	return paths.NormalizeSource(source)
}

// Set stores a fully built value under the normalized source. An existing entry
// for the same source is replaced and counts as newest.
func (c *ResultCache) Set(source string, value Value, depth analysis.Depth) *Entry {
	key := NormalizeKey(source)
	now := c.now()
	entry := &Entry{
		Key:       key,
		Value:     value,
		CreatedAt: now,
		ExpiresAt: now.Add(c.ttl),
		Metadata:  Metadata{Source: source, Depth: depth},
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Remove(key)
	if evicted := c.lru.Add(key, entry); evicted {
		c.observer.CacheEvicted("capacity")
	}
	return entry
}

// Get returns the live entry for a source. Expired entries are removed.
func (c *ResultCache) Get(source string) (*Entry, bool) {
	key := NormalizeKey(source)

	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.lru.Peek(key)
	if !ok {
		c.observer.CacheMiss()
		return nil, false
	}
	if entry.Expired(c.now()) {
		c.lru.Remove(key)
		c.observer.CacheEvicted("expired")
		c.observer.CacheMiss()
		return nil, false
	}
	c.observer.CacheHit()
	return entry, true
}

// GetByAnalysisID scans live entries for an analysis id, removing expired ones on the way.
func (c *ResultCache) GetByAnalysisID(id string) (*Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	var found *Entry
	for _, key := range c.lru.Keys() {
		entry, ok := c.lru.Peek(key)
		if !ok {
			continue
		}
		if entry.Expired(now) {
			c.lru.Remove(key)
			c.observer.CacheEvicted("expired")
			continue
		}
		if found == nil && entry.Value.Result != nil && entry.Value.Result.AnalysisID == id {
			found = entry
		}
	}

	if found == nil {
		c.observer.CacheMiss()
		return nil, false
	}
	c.observer.CacheHit()
	return found, true
}

// Delete removes the entry for a source, reporting whether it existed.
func (c *ResultCache) Delete(source string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Remove(NormalizeKey(source))
}

// Len returns the number of stored entries, including expired ones not yet collected.
func (c *ResultCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Clear removes every entry, releasing their sources.
func (c *ResultCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Purge()
}

// List returns live entries oldest first.
func (c *ResultCache) List() []*Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	entries := make([]*Entry, 0, c.lru.Len())
	for _, key := range c.lru.Keys() {
		entry, ok := c.lru.Peek(key)
		if !ok || entry.Expired(now) {
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}

type nopObserver struct{}

func (nopObserver) CacheHit()           {}
func (nopObserver) CacheMiss()          {}
func (nopObserver) CacheEvicted(string) {}
