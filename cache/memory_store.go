package cache

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// MemoryStore implements Store in process memory using ttlcache. Used in
// tests and single-node deployments without Redis.
type MemoryStore struct {
	cache *ttlcache.Cache[string, []byte]
}

// NewMemoryStore creates an in-memory store. Items are evicted retention
// after their last write; logical freshness is still decided by the
// read-through layer.
func NewMemoryStore(retention time.Duration) *MemoryStore {
	c := ttlcache.New(
		ttlcache.WithTTL[string, []byte](retention),
		ttlcache.WithDisableTouchOnHit[string, []byte](),
	)
	go c.Start()
	return &MemoryStore{cache: c}
}

// Get implements Store.Get.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool) {
	item := s.cache.Get(key)
	if item == nil {
		return nil, false
	}
	return item.Value(), true
}

// Set implements Store.Set.
func (s *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	s.cache.Set(key, value, ttlcache.DefaultTTL)
	return nil
}

// Delete implements Store.Delete.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.cache.Delete(key)
	return nil
}

// Close stops the eviction goroutine.
func (s *MemoryStore) Close() error {
	s.cache.Stop()
	return nil
}

var _ Store = (*MemoryStore)(nil)
