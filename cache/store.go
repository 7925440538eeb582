// Package cache provides the read-through result cache backing the public
// projects aggregate. Entries live in an external key-value store; staleness
// is purely time-based.
package cache

import (
	"context"
	"encoding/json"
	"time"
)

// Entry is the stored envelope: the serialized snapshot plus the time it
// was computed.
type Entry struct {
	Data     json.RawMessage `json:"data"`
	StoredAt time.Time       `json:"created_at"`
}

// Fresh reports whether the entry is still within its ttl at the given time.
func (e *Entry) Fresh(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.StoredAt) < ttl
}

// Store is a minimal key-value store for serialized cache entries.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
