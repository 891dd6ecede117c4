package cache

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/bradfitz/gomemcache/memcache"

	"github.com/coastalguard/coastal-monitor/internal/models"
)

const keyPrefix = "coastal:"

// MemcachedCache implements Cache using memcached. Entries are stored with an
// expiry extended by the stale horizon so GetStale can still read them after
// the freshness TTL; freshness itself is judged from the record timestamp.
type MemcachedCache struct {
	client       *memcache.Client
	staleHorizon time.Duration
}

// NewMemcachedCache creates a MemcachedCache. addrs is a comma-separated list
// (e.g. "localhost:11211" or "host1:11211,host2:11211"). staleHorizon is how
// long past freshness entries remain readable via GetStale.
func NewMemcachedCache(addrs string, timeout time.Duration, maxIdleConns int, staleHorizon time.Duration) (*MemcachedCache, error) {
	servers := parseAddrs(addrs)
	if len(servers) == 0 {
		servers = []string{"localhost:11211"}
	}
	client := memcache.New(servers...)
	if timeout > 0 {
		client.Timeout = timeout
	}
	if maxIdleConns > 0 {
		client.MaxIdleConns = maxIdleConns
	}
	return &MemcachedCache{client: client, staleHorizon: staleHorizon}, nil
}

func parseAddrs(s string) []string {
	var out []string
	for _, a := range strings.Split(s, ",") {
		a = strings.TrimSpace(a)
		if a != "" {
			out = append(out, a)
		}
	}
	return out
}

func (c *MemcachedCache) key(k string) string {
	return keyPrefix + k
}

// Get returns the record when present and fresh. Returns false, nil on miss;
// false, err on transport errors.
func (c *MemcachedCache) Get(ctx context.Context, key string) (models.CityWeather, bool, error) {
	entry, ok, err := c.fetch(ctx, key)
	if err != nil || !ok {
		return models.CityWeather{}, false, err
	}
	if time.Now().After(entry.ExpiresAt) {
		return models.CityWeather{}, false, nil
	}
	return entry.Value, true, nil
}

// GetStale returns the record regardless of freshness, as long as its record
// timestamp is within maxAge.
func (c *MemcachedCache) GetStale(ctx context.Context, key string, maxAge time.Duration) (models.CityWeather, bool, error) {
	entry, ok, err := c.fetch(ctx, key)
	if err != nil || !ok {
		return models.CityWeather{}, false, err
	}
	if time.Since(entry.Value.Timestamp) > maxAge {
		return models.CityWeather{}, false, nil
	}
	return entry.Value, true, nil
}

// memcachedEntry wraps the record with the freshness deadline, since the
// memcached expiry is extended past it for stale reads.
type memcachedEntry struct {
	Value     models.CityWeather `json:"value"`
	ExpiresAt time.Time          `json:"expiresAt"`
}

func (c *MemcachedCache) fetch(ctx context.Context, key string) (memcachedEntry, bool, error) {
	if ctx.Err() != nil {
		return memcachedEntry{}, false, ctx.Err()
	}
	item, err := c.client.Get(c.key(key))
	if err != nil {
		if err == memcache.ErrCacheMiss {
			return memcachedEntry{}, false, nil
		}
		return memcachedEntry{}, false, err
	}
	var entry memcachedEntry
	if err := json.Unmarshal(item.Value, &entry); err != nil {
		return memcachedEntry{}, false, err
	}
	return entry, true, nil
}

// Set stores the record with a memcached expiry of ttl plus the stale horizon.
func (c *MemcachedCache) Set(ctx context.Context, key string, value models.CityWeather, ttl time.Duration) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	raw, err := json.Marshal(memcachedEntry{
		Value:     value,
		ExpiresAt: time.Now().Add(ttl),
	})
	if err != nil {
		return err
	}
	expSec := int32((ttl + c.staleHorizon).Seconds())
	const maxRelativeExp = 30 * 24 * 60 * 60 // 30 days
	if expSec <= 0 || expSec > maxRelativeExp {
		expSec = 3600
	}
	return c.client.Set(&memcache.Item{
		Key:        c.key(key),
		Value:      raw,
		Expiration: expSec,
	})
}

// Ping checks memcached reachability. Used by the health handler.
func (c *MemcachedCache) Ping() error {
	return c.client.Ping()
}

// Close releases idle connections.
func (c *MemcachedCache) Close() error {
	return c.client.Close()
}
