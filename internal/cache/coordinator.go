package cache

import (
	"context"
	"time"

	"github.com/glamlens/stylist/internal/metrics"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/singleflight"
)

// Loader produces a value on a cache miss. cacheable=false marks a value
// that must be returned but never stored, such as a static default.
type Loader func(ctx context.Context) (value []byte, cacheable bool, err error)

// Outcome describes how Load produced its value.
type Outcome struct {
	Value     []byte
	Hit       bool
	Cacheable bool
}

// Coordinator runs the check-cache, load-on-miss, store-if-cacheable cycle.
// Without locking it is optimistic: concurrent misses for one key all load
// and the last writer wins. With locking, misses for one key are collapsed
// in-process and guarded across processes by the Locker.
type Coordinator struct {
	gateway      Gateway
	locking      bool
	locker       Locker
	lockTTL      time.Duration
	waitTimeout  time.Duration
	pollInterval time.Duration
	group        singleflight.Group
}

type Option func(*Coordinator)

// WithLocking enables locked consistency. locker may be nil, in which case
// only in-process collapsing applies.
func WithLocking(locker Locker, lockTTL time.Duration) Option {
	return func(c *Coordinator) {
		c.locking = true
		c.locker = locker
		if lockTTL > 0 {
			c.lockTTL = lockTTL
		}
	}
}

// WithWait bounds how long a caller that lost the lock polls the cache
// before loading on its own.
func WithWait(timeout, interval time.Duration) Option {
	return func(c *Coordinator) {
		if timeout > 0 {
			c.waitTimeout = timeout
		}
		if interval > 0 {
			c.pollInterval = interval
		}
	}
}

func NewCoordinator(gateway Gateway, opts ...Option) *Coordinator {
	c := &Coordinator{
		gateway:      gateway,
		lockTTL:      30 * time.Second,
		waitTimeout:  5 * time.Second,
		pollInterval: 100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load returns the cached value for key or produces it with load.
func (c *Coordinator) Load(ctx context.Context, key string, ttl time.Duration, load Loader) (Outcome, error) {
	if v, ok := c.lookup(ctx, key); ok {
		return Outcome{Value: v, Hit: true}, nil
	}

	if !c.locking {
		return c.fill(ctx, key, ttl, load)
	}

	// The shared fill outlives any one caller; each caller only stops
	// waiting when its own context ends.
	fillCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		return c.lockedFill(fillCtx, key, ttl, load)
	})
	select {
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Outcome{}, res.Err
		}
		return res.Val.(Outcome), nil
	}
}

func (c *Coordinator) lookup(ctx context.Context, key string) ([]byte, bool) {
	v, ok := c.gateway.Get(ctx, key)
	result := "miss"
	if ok {
		result = "hit"
	}
	metrics.CacheLookupsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("keyspace", keyspace(key)),
		attribute.String("result", result),
	))
	return v, ok
}

func (c *Coordinator) fill(ctx context.Context, key string, ttl time.Duration, load Loader) (Outcome, error) {
	value, cacheable, err := load(ctx)
	if err != nil {
		return Outcome{}, err
	}
	if cacheable {
		c.gateway.SetWithExpiry(ctx, key, value, ttl)
	}
	return Outcome{Value: value, Cacheable: cacheable}, nil
}

func (c *Coordinator) lockedFill(ctx context.Context, key string, ttl time.Duration, load Loader) (Outcome, error) {
	if c.locker == nil {
		return c.fill(ctx, key, ttl, load)
	}

	release, acquired := c.locker.TryLock(ctx, key, c.lockTTL)
	if acquired {
		defer release()
		// Another process may have filled the key between our miss and the lock.
		if v, ok := c.gateway.Get(ctx, key); ok {
			return Outcome{Value: v, Hit: true}, nil
		}
		return c.fill(ctx, key, ttl, load)
	}

	if v, ok := c.wait(ctx, key); ok {
		return Outcome{Value: v, Hit: true}, nil
	}
	return c.fill(ctx, key, ttl, load)
}

func (c *Coordinator) wait(ctx context.Context, key string) ([]byte, bool) {
	deadline := time.NewTimer(c.waitTimeout)
	defer deadline.Stop()
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, false
		case <-deadline.C:
			return nil, false
		case <-ticker.C:
			if v, ok := c.gateway.Get(ctx, key); ok {
				return v, true
			}
		}
	}
}
