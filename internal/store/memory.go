package store

import (
	"context"
	"encoding/json"
	"slices"
	"sync"
	"time"

	"github.com/glamlens/stylist/internal/models"
)

// MemoryStore keeps documents in process. Values are deep-copied on the
// way in and out so callers never share state with the store.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*models.StyleSession
	users    map[string]*models.User
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*models.StyleSession),
		users:    make(map[string]*models.User),
	}
}

func clone[T any](v *T) *T {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	out := new(T)
	if err := json.Unmarshal(data, out); err != nil {
		panic(err)
	}
	return out
}

func (m *MemoryStore) CreateSession(_ context.Context, s *models.StyleSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[s.SessionID]; ok {
		return ErrDuplicate
	}
	m.sessions[s.SessionID] = clone(s)
	return nil
}

func (m *MemoryStore) GetSession(_ context.Context, sessionID, userID string) (*models.StyleSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[sessionID]
	if !ok || (userID != "" && s.UserID != userID) {
		return nil, ErrNotFound
	}
	return clone(s), nil
}

func (m *MemoryStore) SaveSession(_ context.Context, s *models.StyleSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[s.SessionID]; !ok {
		return ErrNotFound
	}
	m.sessions[s.SessionID] = clone(s)
	return nil
}

func (m *MemoryStore) ListSessions(_ context.Context, filter SessionFilter, skip, limit int) ([]models.StyleSession, int64, error) {
	m.mu.RLock()
	var matched []models.StyleSession
	for _, s := range m.sessions {
		if filter.UserID != "" && s.UserID != filter.UserID {
			continue
		}
		if filter.SavedOnly && !s.UserInteraction.Saved {
			continue
		}
		if filter.Category != "" && !s.Recommendations.Has(filter.Category) {
			continue
		}
		matched = append(matched, *clone(s))
	}
	m.mu.RUnlock()

	slices.SortFunc(matched, func(a, b models.StyleSession) int {
		if filter.SavedOnly {
			return b.UserInteraction.Viewed.Compare(a.UserInteraction.Viewed)
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	total := int64(len(matched))
	if skip >= len(matched) {
		return []models.StyleSession{}, total, nil
	}
	end := len(matched)
	if limit > 0 && skip+limit < end {
		end = skip + limit
	}
	return matched[skip:end], total, nil
}

func (m *MemoryStore) GetUser(_ context.Context, id string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(u), nil
}

func (m *MemoryStore) SaveUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = clone(u)
	return nil
}

func (m *MemoryStore) IncrementUsage(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		u = NewUser(id, at)
		m.users[id] = u
	}
	u.Usage.AnalysesThisMonth++
	u.UpdatedAt = at
	return nil
}

func (m *MemoryStore) ResetMonthlyUsage(_ context.Context, at time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		u.Usage.AnalysesThisMonth = 0
		u.Usage.LastResetDate = at
		u.UpdatedAt = at
	}
	return int64(len(m.users)), nil
}

func (m *MemoryStore) Ping(context.Context) error { return nil }

func (m *MemoryStore) Close(context.Context) error { return nil }
