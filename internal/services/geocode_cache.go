package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"compost-backend/internal/metrics"
)

const (
	defaultGeocodeCacheEntries = 1000
	defaultGeocodeCacheTTL     = 24 * time.Hour
)

// CachingGeocoder remembers successful lookups so repeated unit locations do not hit the
// provider. Entries expire after ttl; the least recently used entry is evicted when full.
type CachingGeocoder struct {
	next       Geocoder
	mutex      sync.Mutex
	entries    map[string]*geocodeEntry
	maxEntries int
	ttl        time.Duration
	now        func() time.Time
}

type geocodeEntry struct {
	address      Address
	createdAt    time.Time
	lastAccessed time.Time
}

// NewCachingGeocoder wraps next. Zero maxEntries or ttl select the defaults.
func NewCachingGeocoder(next Geocoder, maxEntries int, ttl time.Duration) *CachingGeocoder {
	if maxEntries <= 0 {
		maxEntries = defaultGeocodeCacheEntries
	}
	if ttl <= 0 {
		ttl = defaultGeocodeCacheTTL
	}
	return &CachingGeocoder{
		next:       next,
		entries:    make(map[string]*geocodeEntry),
		maxEntries: maxEntries,
		ttl:        ttl,
		now:        time.Now,
	}
}

// Geocode serves address from the cache or the wrapped geocoder. Failures are not cached.
func (c *CachingGeocoder) Geocode(ctx context.Context, address string) (*Address, error) {
	key := strings.ToLower(strings.Join(strings.Fields(address), " "))

	if addr, ok := c.get(key); ok {
		metrics.GeocodeCacheLookups.WithLabelValues("hit").Inc()
		return addr, nil
	}
	metrics.GeocodeCacheLookups.WithLabelValues("miss").Inc()

	addr, err := c.next.Geocode(ctx, address)
	if err != nil {
		return nil, err
	}
	c.set(key, *addr)
	return addr, nil
}

func (c *CachingGeocoder) get(key string) (*Address, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	entry, found := c.entries[key]
	if !found {
		return nil, false
	}
	now := c.now()
	if now.Sub(entry.createdAt) > c.ttl {
		delete(c.entries, key)
		return nil, false
	}
	entry.lastAccessed = now
	addr := entry.address
	return &addr, true
}

func (c *CachingGeocoder) set(key string, addr Address) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.evictOldest()
	}
	now := c.now()
	c.entries[key] = &geocodeEntry{address: addr, createdAt: now, lastAccessed: now}
}

// evictOldest removes the least recently used entry. Callers hold the mutex.
func (c *CachingGeocoder) evictOldest() {
	var oldestKey string
	var oldestTime time.Time

	for key, entry := range c.entries {
		if oldestKey == "" || entry.lastAccessed.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.lastAccessed
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

// Len returns the number of cached addresses
func (c *CachingGeocoder) Len() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return len(c.entries)
}
