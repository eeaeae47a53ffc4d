package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultProfileTTL = 5 * time.Minute

// ProfileCache keeps JSON copies of profiles in Redis. Misses and Redis failures are
// both reported as a miss by Get so callers fall back to Postgres.
type ProfileCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewProfileCache(client *redis.Client, ttl time.Duration) *ProfileCache {
	if ttl <= 0 {
		ttl = defaultProfileTTL
	}
	return &ProfileCache{client: client, ttl: ttl}
}

func studentKey(id string) string { return "profile:student:" + id }
func advisorKey(id string) string { return "profile:advisor:" + id }

// Get decodes the cached value into dst. It returns false on a miss.
func (c *ProfileCache) Get(ctx context.Context, key string, dst interface{}) (bool, error) {
	raw, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return false, fmt.Errorf("cache decode %s: %w", key, err)
	}
	return true, nil
}

func (c *ProfileCache) Set(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

func (c *ProfileCache) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

func (s *Store) cacheGet(ctx context.Context, key string, dst interface{}) bool {
	if s.cache == nil {
		return false
	}
	hit, err := s.cache.Get(ctx, key, dst)
	if err != nil {
		s.logger.Warn("profile cache read failed", map[string]interface{}{"key": key, "error": err.Error()})
		return false
	}
	return hit
}

func (s *Store) cacheSet(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value); err != nil {
		s.logger.Warn("profile cache write failed", map[string]interface{}{"key": key, "error": err.Error()})
	}
}

func (s *Store) cacheInvalidate(ctx context.Context, keys ...string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, keys...); err != nil {
		s.logger.Warn("profile cache invalidation failed", map[string]interface{}{"keys": keys, "error": err.Error()})
	}
}
