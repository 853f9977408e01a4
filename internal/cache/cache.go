// Package cache holds the time-boxed response cache used by the domain API
// clients. Entries are raw JSON payloads keyed by resource-specific strings;
// mutating calls drop every key that contains the resource name.
package cache

import (
	"context"
	"time"
)

// DefaultTTL is how long a cached read stays fresh.
const DefaultTTL = 30 * time.Second

// Cache is implemented by Memory and Redis.
type Cache interface {
	// Get returns the cached payload for key, if present and not expired.
	Get(ctx context.Context, key string) ([]byte, bool)
	// Set stores payload under key for the cache's TTL.
	Set(ctx context.Context, key string, payload []byte)
	// Invalidate removes every key containing fragment and returns how many
	// entries were dropped.
	Invalidate(ctx context.Context, fragment string) int
}
