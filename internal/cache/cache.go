package cache

import (
	"context"
	"strings"
	"time"
)

// Gateway is a key/value cache with per-entry expiry. Implementations never
// surface store failures: Get reports a miss and SetWithExpiry is a no-op.
type Gateway interface {
	// Get returns the cached value and true, or nil and false if the key is
	// absent, expired, or the store is unavailable.
	Get(ctx context.Context, key string) ([]byte, bool)

	// SetWithExpiry stores value under key for ttl.
	SetWithExpiry(ctx context.Context, key string, value []byte, ttl time.Duration)
}

// Locker guards the miss-then-populate window of a key.
type Locker interface {
	// TryLock attempts to take the fill lock for key. release is non-nil
	// only when the lock was acquired.
	TryLock(ctx context.Context, key string, ttl time.Duration) (release func(), acquired bool)
}

// keyspace returns the key prefix up to the first colon, used as a metric
// attribute so raw hashes never become label values.
func keyspace(key string) string {
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return key
}
