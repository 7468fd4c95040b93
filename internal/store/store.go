// Package store persists style sessions and users. Implementations exist
// for MongoDB, Postgres (JSONB documents) and memory.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/glamlens/stylist/internal/models"
)

var (
	ErrNotFound  = errors.New("store: not found")
	ErrDuplicate = errors.New("store: duplicate key")
)

// SessionFilter selects sessions for listing. History is ordered by
// creation time, saved listings by last view, both newest first.
type SessionFilter struct {
	UserID    string
	SavedOnly bool
	// Category restricts saved listings to sessions that carry it.
	Category models.Category
}

type SessionStore interface {
	CreateSession(ctx context.Context, s *models.StyleSession) error
	// GetSession returns a session. A non-empty userID scopes the lookup
	// to that owner.
	GetSession(ctx context.Context, sessionID, userID string) (*models.StyleSession, error)
	// SaveSession replaces an existing session document.
	SaveSession(ctx context.Context, s *models.StyleSession) error
	ListSessions(ctx context.Context, filter SessionFilter, skip, limit int) ([]models.StyleSession, int64, error)
}

type UserStore interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	// SaveUser inserts or replaces a user document.
	SaveUser(ctx context.Context, u *models.User) error
	// IncrementUsage bumps the monthly analysis counter, creating a free
	// user when none exists.
	IncrementUsage(ctx context.Context, id string, at time.Time) error
	// ResetMonthlyUsage zeroes every user's counter and returns how many
	// users were touched.
	ResetMonthlyUsage(ctx context.Context, at time.Time) (int64, error)
}

type Store interface {
	SessionStore
	UserStore
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// NewUser returns a free-tier user with zeroed usage.
func NewUser(id string, at time.Time) *models.User {
	return &models.User{
		ID:           id,
		Subscription: models.Subscription{Plan: models.TierFree, Status: "active"},
		Usage:        models.Usage{LastResetDate: at},
		CreatedAt:    at,
		UpdatedAt:    at,
	}
}
