package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hamed0406/sitecheck/internal/domain"
)

const geoKeyPrefix = "geo:"

// GeoCache keeps successful geo lookups in Redis under geo:<address> with a TTL.
type GeoCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewGeoCache(addr string, ttl time.Duration) *GeoCache {
	return &GeoCache{client: redis.NewClient(&redis.Options{Addr: addr}), ttl: ttl}
}

func (c *GeoCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *GeoCache) Close() error { return c.client.Close() }

func (c *GeoCache) key(ip string) string { return geoKeyPrefix + ip }

// Get returns ok=false, err=nil on a cache miss.
func (c *GeoCache) Get(ctx context.Context, ip string) (domain.GeoInfo, bool, error) {
	raw, err := c.client.Get(ctx, c.key(ip)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.GeoInfo{}, false, nil
	}
	if err != nil {
		return domain.GeoInfo{}, false, fmt.Errorf("redis get: %w", err)
	}
	var g domain.GeoInfo
	if err := json.Unmarshal(raw, &g); err != nil {
		return domain.GeoInfo{}, false, fmt.Errorf("decode cached geo: %w", err)
	}
	return g, true, nil
}

func (c *GeoCache) Set(ctx context.Context, ip string, g domain.GeoInfo) error {
	raw, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("encode geo: %w", err)
	}
	if err := c.client.Set(ctx, c.key(ip), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
