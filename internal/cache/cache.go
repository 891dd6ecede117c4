package cache

import (
	"context"
	"sync"
	"time"

	"github.com/coastalguard/coastal-monitor/internal/models"
)

// Cache stores per-city weather records with TTL-based freshness.
// Get returns fresh entries only; GetStale also returns expired entries whose
// record timestamp is within maxAge, for upstream-failure fallback.
type Cache interface {
	Get(ctx context.Context, key string) (models.CityWeather, bool, error)
	Set(ctx context.Context, key string, value models.CityWeather, ttl time.Duration) error
	GetStale(ctx context.Context, key string, maxAge time.Duration) (models.CityWeather, bool, error)
}

// InMemoryCache implements Cache with a map guarded by a mutex. Expired
// entries are retained until their record timestamp passes the stale horizon,
// so GetStale can serve them after upstream failures.
type InMemoryCache struct {
	mu   sync.Mutex
	data map[string]cacheEntry
}

type cacheEntry struct {
	value     models.CityWeather
	expiresAt time.Time
}

// NewInMemoryCache creates an empty in-memory cache.
func NewInMemoryCache() *InMemoryCache {
	return &InMemoryCache{
		data: make(map[string]cacheEntry),
	}
}

// Get returns (record, true, nil) when the key is present and fresh.
// Expired entries are left in place for GetStale.
func (c *InMemoryCache) Get(ctx context.Context, key string) (models.CityWeather, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.data[key]
	if !ok {
		return models.CityWeather{}, false, nil
	}

	if time.Now().After(entry.expiresAt) {
		return models.CityWeather{}, false, nil
	}

	return entry.value, true, nil
}

// Set stores the record with the given TTL.
func (c *InMemoryCache) Set(ctx context.Context, key string, value models.CityWeather, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data[key] = cacheEntry{
		value:     value,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

// GetStale returns the record regardless of TTL expiry, as long as the record
// timestamp is no older than maxAge. Entries past the horizon are evicted.
func (c *InMemoryCache) GetStale(ctx context.Context, key string, maxAge time.Duration) (models.CityWeather, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.data[key]
	if !ok {
		return models.CityWeather{}, false, nil
	}

	if time.Since(entry.value.Timestamp) > maxAge {
		delete(c.data, key)
		return models.CityWeather{}, false, nil
	}

	return entry.value, true, nil
}
