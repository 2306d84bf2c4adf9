package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"navalha/internal/events"
	"navalha/internal/metrics"
)

const (
	keyPrefix    = "navalha"
	globalVerKey = keyPrefix + ":ver:all"
)

// Cache stores computed availability responses in Redis as JSON. Entries
// are keyed through per-date version counters: invalidation bumps the
// counter so stale entries simply stop being addressed and expire by TTL.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// New wraps a Redis client. A ttl of zero disables writes.
func New(client *redis.Client, ttl time.Duration, logger zerolog.Logger) *Cache {
	return &Cache{client: client, ttl: ttl, logger: logger}
}

// Subscribe wires the cache to calendar mutation events so every write on
// the store invalidates the affected date.
func (c *Cache) Subscribe(bus *events.Bus) {
	if c == nil || bus == nil {
		return
	}
	bus.SubscribeAll(func(e events.Event) {
		c.Invalidate(context.Background(), e.Date)
	})
}

// DayKey builds the versioned cache key for one date and query suffix.
// The key embeds the global and per-date counters, so a bump on either
// makes every previously written entry unreachable.
func (c *Cache) DayKey(ctx context.Context, date, suffix string) string {
	gv := c.counter(ctx, globalVerKey)
	dv := c.counter(ctx, dateVerKey(date))
	return fmt.Sprintf("%s:avail:%s:g%d.d%d:%s", keyPrefix, date, gv, dv, suffix)
}

// Invalidate bumps the version counter for a date. An empty date (a
// schedule-wide change) bumps the global counter instead.
func (c *Cache) Invalidate(ctx context.Context, date string) {
	if c == nil || c.client == nil {
		return
	}
	key := globalVerKey
	if date != "" {
		key = dateVerKey(date)
	}
	if err := c.client.Incr(ctx, key).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache invalidation failed")
	}
}

// Read unmarshals a cached entry into out, reporting whether it was
// found. Redis being down counts as a miss, never an error.
func (c *Cache) Read(ctx context.Context, key string, out any) bool {
	if c == nil || c.client == nil || c.ttl <= 0 {
		return false
	}
	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		metrics.IncCacheMiss()
		return false
	}
	if err := json.Unmarshal([]byte(val), out); err != nil {
		metrics.IncCacheMiss()
		return false
	}
	metrics.IncCacheHit()
	return true
}

// Write stores a JSON entry with the configured TTL, best effort.
func (c *Cache) Write(ctx context.Context, key string, val any) {
	if c == nil || c.client == nil || c.ttl <= 0 {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
}

// counter reads a version counter; a missing key is version zero.
func (c *Cache) counter(ctx context.Context, key string) int64 {
	if c == nil || c.client == nil {
		return 0
	}
	n, err := c.client.Get(ctx, key).Int64()
	if err != nil {
		return 0
	}
	return n
}

func dateVerKey(date string) string {
	return keyPrefix + ":ver:" + date
}
