package styling

import (
	"context"
	"time"

	"dario.cat/mergo"
	apperrors "github.com/glamlens/stylist/internal/errors"
	"github.com/glamlens/stylist/internal/models"
	"github.com/glamlens/stylist/internal/validation"
)

type UsageSummary struct {
	Plan              models.Tier `json:"plan"`
	AnalysesThisMonth int         `json:"analysesThisMonth"`
	AnalysesLimit     int         `json:"analysesLimit"`
	AnalysesRemaining int         `json:"analysesRemaining"`
	ResetDate         time.Time   `json:"resetDate"`
}

// GetProfile returns the user, or a default free-tier user that has not
// been saved yet.
func (s *Service) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	return s.loadUser(ctx, userID)
}

// UpdateProfile applies the non-empty fields of update and saves the user,
// creating it when missing. Preferences merge field by field.
func (s *Service) UpdateProfile(ctx context.Context, userID string, update models.ProfileUpdate) (*models.User, error) {
	if err := validation.ValidateProfileUpdate(update); err != nil {
		return nil, err
	}

	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	patch := models.Profile{Name: update.Name, Avatar: update.Avatar, SkinTone: update.SkinTone}
	if update.Preferences != nil {
		patch.Preferences = *update.Preferences
	}
	if err := mergo.Merge(&user.Profile, patch, mergo.WithOverride); err != nil {
		return nil, apperrors.NewInternalError("Failed to apply profile update", err)
	}

	user.UpdatedAt = s.now()
	if err := s.store.SaveUser(ctx, user); err != nil {
		return nil, storeError(err, "user")
	}
	return user, nil
}

// Usage summarises the user's monthly analysis allowance.
func (s *Service) Usage(ctx context.Context, userID string) (*UsageSummary, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	limit := user.Subscription.Plan.MonthlyAnalysisLimit()
	return &UsageSummary{
		Plan:              user.Subscription.Plan,
		AnalysesThisMonth: user.Usage.AnalysesThisMonth,
		AnalysesLimit:     limit,
		AnalysesRemaining: max(0, limit-user.Usage.AnalysesThisMonth),
		ResetDate:         user.Usage.LastResetDate,
	}, nil
}
