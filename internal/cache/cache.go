// Package cache provides the process-wide, time-bounded cache that sits in
// front of every external call (helpdesk API, contract workbook). Entries
// expire by TTL or explicit clear only; stale data within a session is an
// accepted risk.
package cache

import (
	"context"
	"time"
)

// Store is the cache port injected into the external-API wrappers. The core
// pipeline never touches it; it operates on already-fetched data.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	Clear(ctx context.Context) error
}

// GetOrFetch returns the cached value for key, or runs fetch and caches the
// result for ttl. Fetch errors are returned without caching.
func GetOrFetch(ctx context.Context, store Store, key string, ttl time.Duration, fetch func() ([]byte, error)) ([]byte, error) {
	if data, ok := store.Get(ctx, key); ok {
		return data, nil
	}
	data, err := fetch()
	if err != nil {
		return nil, err
	}
	store.Set(ctx, key, data, ttl)
	return data, nil
}
