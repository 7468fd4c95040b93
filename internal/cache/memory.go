package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

type memoryLock struct {
	token string
	until time.Time
}

// MemoryGateway is an in-process Gateway and Locker. It backs local
// development without Redis and the pipeline tests.
type MemoryGateway struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	locks   map[string]memoryLock

	// Now is the clock used for expiry. Tests replace it to move time forward.
	Now func() time.Time
}

func NewMemoryGateway() *MemoryGateway {
	return &MemoryGateway{
		entries: make(map[string]memoryEntry),
		locks:   make(map[string]memoryLock),
		Now:     time.Now,
	}
}

func (g *MemoryGateway) Get(_ context.Context, key string) ([]byte, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	e, ok := g.entries[key]
	if !ok {
		return nil, false
	}
	if !g.Now().Before(e.expiresAt) {
		delete(g.entries, key)
		return nil, false
	}
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, true
}

func (g *MemoryGateway) SetWithExpiry(_ context.Context, key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	stored := make([]byte, len(value))
	copy(stored, value)

	g.mu.Lock()
	defer g.mu.Unlock()
	g.entries[key] = memoryEntry{value: stored, expiresAt: g.Now().Add(ttl)}
}

// Len returns the number of live entries.
func (g *MemoryGateway) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.Now()
	n := 0
	for _, e := range g.entries {
		if now.Before(e.expiresAt) {
			n++
		}
	}
	return n
}

// TryLock holds key until ttl passes or release is called. Release only
// frees the lock it took, so a holder whose lock expired cannot free a
// newer one.
func (g *MemoryGateway) TryLock(_ context.Context, key string, ttl time.Duration) (func(), bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.Now()
	if l, held := g.locks[key]; held && now.Before(l.until) {
		return nil, false
	}
	token := uuid.NewString()
	g.locks[key] = memoryLock{token: token, until: now.Add(ttl)}

	return func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		if g.locks[key].token == token {
			delete(g.locks, key)
		}
	}, true
}
