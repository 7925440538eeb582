package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
)

// ComputeFunc produces the value to cache on a miss.
type ComputeFunc func(ctx context.Context) (interface{}, error)

// ReadThrough wraps a Store with time-based invalidation. There is no
// dependency tracking: writers either force a refresh or accept up to ttl
// of staleness.
type ReadThrough struct {
	store Store
	now   func() time.Time
}

// NewReadThrough creates a read-through cache over the given store.
func NewReadThrough(store Store) *ReadThrough {
	return &ReadThrough{store: store, now: time.Now}
}

// Read returns the cached value for key when it is younger than ttl and
// force is unset; otherwise it invokes compute, stores the result with the
// current timestamp and returns it. A stored entry that fails to parse is
// logged and treated as a miss, never as a fatal error.
func (r *ReadThrough) Read(ctx context.Context, key string, ttl time.Duration, force bool, compute ComputeFunc) (json.RawMessage, error) {
	if !force {
		if raw, ok := r.store.Get(ctx, key); ok {
			var entry Entry
			if err := json.Unmarshal(raw, &entry); err != nil {
				log.Warn().Err(err).Str("key", key).Msg("malformed cache entry, recomputing")
			} else if entry.Fresh(r.now(), ttl) {
				return entry.Data, nil
			}
		}
	}

	value, err := compute(ctx)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(Entry{Data: data, StoredAt: r.now()})
	if err != nil {
		return nil, err
	}
	if err := r.store.Set(ctx, key, raw); err != nil {
		// Serving the fresh value matters more than caching it.
		log.Warn().Err(err).Str("key", key).Msg("failed to store cache entry")
	}

	return data, nil
}
