package styling

import (
	"context"
	"log/slog"

	"github.com/glamlens/stylist/internal/models"
	"github.com/glamlens/stylist/internal/store"
	"github.com/glamlens/stylist/internal/validation"
)

type PageInfo struct {
	Current int  `json:"current"`
	Total   int  `json:"total"`
	HasNext bool `json:"hasNext"`
	HasPrev bool `json:"hasPrev"`
}

type SessionPage struct {
	Sessions   []models.StyleSession `json:"sessions"`
	Pagination PageInfo              `json:"pagination"`
}

func newPageInfo(p validation.Pagination, total int64) PageInfo {
	limit := int64(p.Limit)
	return PageInfo{
		Current: p.Page,
		Total:   int((total + limit - 1) / limit),
		HasNext: int64(p.Page)*limit < total,
		HasPrev: p.Page > 1,
	}
}

// ListHistory returns a user's sessions, newest first. Listings omit the
// original image.
func (s *Service) ListHistory(ctx context.Context, userID string, p validation.Pagination) (*SessionPage, error) {
	sessions, total, err := s.store.ListSessions(ctx, store.SessionFilter{UserID: userID}, p.Skip(), p.Limit)
	if err != nil {
		return nil, storeError(err, "sessions")
	}
	for i := range sessions {
		sessions[i].OriginalImage = nil
	}
	return &SessionPage{Sessions: sessions, Pagination: newPageInfo(p, total)}, nil
}

// ListSaved returns a user's saved sessions, most recently viewed first,
// optionally restricted to those carrying category.
func (s *Service) ListSaved(ctx context.Context, userID string, category models.Category, p validation.Pagination) (*SessionPage, error) {
	filter := store.SessionFilter{UserID: userID, SavedOnly: true, Category: category}
	sessions, total, err := s.store.ListSessions(ctx, filter, p.Skip(), p.Limit)
	if err != nil {
		return nil, storeError(err, "saved sessions")
	}
	return &SessionPage{Sessions: sessions, Pagination: newPageInfo(p, total)}, nil
}

// GetSession fetches one of the user's sessions and records the view.
func (s *Service) GetSession(ctx context.Context, userID, sessionID string) (*models.StyleSession, error) {
	session, err := s.store.GetSession(ctx, sessionID, userID)
	if err != nil {
		return nil, storeError(err, "session")
	}

	session.UserInteraction.Viewed = s.now()
	if err := s.store.SaveSession(ctx, session); err != nil {
		slog.WarnContext(ctx, "Failed to record session view", "session_id", sessionID, "error", err)
	}
	return session, nil
}

// SetSaved marks a session saved or unsaved.
func (s *Service) SetSaved(ctx context.Context, userID, sessionID string, saved bool) error {
	session, err := s.store.GetSession(ctx, sessionID, userID)
	if err != nil {
		return storeError(err, "session")
	}

	session.UserInteraction.Saved = saved
	session.UpdatedAt = s.now()
	if err := s.store.SaveSession(ctx, session); err != nil {
		return storeError(err, "session")
	}
	return nil
}

// SubmitFeedback attaches a rating to a session.
func (s *Service) SubmitFeedback(ctx context.Context, userID, sessionID string, feedback models.Feedback, liked *bool) (*models.UserInteraction, error) {
	if err := validation.ValidateFeedback(feedback); err != nil {
		return nil, err
	}

	session, err := s.store.GetSession(ctx, sessionID, userID)
	if err != nil {
		return nil, storeError(err, "session")
	}

	session.UserInteraction.Feedback = &feedback
	if liked != nil {
		session.UserInteraction.Liked = *liked
	}
	session.UpdatedAt = s.now()
	if err := s.store.SaveSession(ctx, session); err != nil {
		return nil, storeError(err, "session")
	}
	return &session.UserInteraction, nil
}
