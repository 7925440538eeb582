// Package redis implements the cache store on a Redis instance.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"go.phasenull.dev/portfolio/cache"
)

// Store keeps serialized cache entries in Redis under a key prefix.
type Store struct {
	client    *redis.Client
	prefix    string
	retention time.Duration
}

// NewStore creates a Redis-backed cache store. Keys expire retention after
// their last write so abandoned entries do not pile up; logical freshness
// is decided by the read-through layer, not by Redis.
func NewStore(client *redis.Client, prefix string, retention time.Duration) *Store {
	return &Store{client: client, prefix: prefix, retention: retention}
}

func (s *Store) redisKey(key string) string {
	return fmt.Sprintf("%s:cache:%s", s.prefix, key)
}

// Get implements cache.Store.Get.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool) {
	value, err := s.client.Get(ctx, s.redisKey(key)).Bytes()
	if err != nil {
		return nil, false
	}
	return value, true
}

// Set implements cache.Store.Set.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.redisKey(key), value, s.retention).Err(); err != nil {
		return fmt.Errorf("failed to set cache entry in redis: %w", err)
	}
	return nil
}

// Delete implements cache.Store.Delete.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.redisKey(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete cache entry from redis: %w", err)
	}
	return nil
}

var _ cache.Store = (*Store)(nil)
