package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
)

const lockPrefix = "lock:"

var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`)

// NewRedisClient parses a redis:// or rediss:// URL and returns a traced
// client. An empty URL returns nil, which RedisGateway treats as "no cache".
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	if redisURL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := redisotel.InstrumentTracing(client); err != nil {
		slog.Warn("Failed to instrument Redis tracing", "error", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		// The gateway tolerates an unavailable store; keep the client so it
		// can recover once Redis is reachable.
		slog.Warn("Redis not reachable, cache will report misses", "error", err)
	}

	return client, nil
}

// RedisGateway provides Redis-backed caching with failure tolerance.
type RedisGateway struct {
	client *redis.Client
}

// NewRedisGateway creates a gateway over client. A nil client yields a
// gateway that always misses.
func NewRedisGateway(client *redis.Client) *RedisGateway {
	return &RedisGateway{client: client}
}

// Get retrieves a cached value by key.
func (g *RedisGateway) Get(ctx context.Context, key string) ([]byte, bool) {
	if g.client == nil {
		return nil, false
	}

	data, err := g.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		slog.Warn("Redis cache get failed", "keyspace", keyspace(key), "error", err)
		return nil, false
	}

	return data, true
}

// SetWithExpiry stores value under key with the given TTL.
func (g *RedisGateway) SetWithExpiry(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if g.client == nil {
		return
	}

	if err := g.client.Set(ctx, key, value, ttl).Err(); err != nil {
		slog.Warn("Redis cache set failed", "keyspace", keyspace(key), "error", err)
	}
}

// TryLock takes a short-lived SET NX token on lock:<key>. Redis errors
// count as "not acquired" so callers fall back to waiting on the cache.
func (g *RedisGateway) TryLock(ctx context.Context, key string, ttl time.Duration) (func(), bool) {
	if g.client == nil {
		return nil, false
	}

	lockKey := lockPrefix + key
	token := uuid.NewString()

	ok, err := g.client.SetNX(ctx, lockKey, token, ttl).Result()
	if err != nil {
		slog.Warn("Redis lock acquire failed", "keyspace", keyspace(key), "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}

	release := func() {
		// Release with a fresh context so a cancelled request still frees the lock.
		releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, g.client, []string{lockKey}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
			slog.Warn("Redis lock release failed", "keyspace", keyspace(key), "error", err)
		}
	}
	return release, true
}
