package validation

import (
	"strconv"
	"strings"

	"github.com/glamlens/stylist/internal/errors"
	"github.com/glamlens/stylist/internal/models"
)

const maxPageLimit = 50

// Pagination is a validated page request.
type Pagination struct {
	Page  int
	Limit int
}

// Skip returns the number of records before the page.
func (p Pagination) Skip() int {
	return (p.Page - 1) * p.Limit
}

// ParsePagination reads page and limit query values. Missing or
// non-positive values fall back to page 1 and defaultLimit; limit is capped.
func ParsePagination(page, limit string, defaultLimit int) Pagination {
	p := Pagination{Page: 1, Limit: defaultLimit}
	if n, err := strconv.Atoi(strings.TrimSpace(page)); err == nil && n > 0 {
		p.Page = n
	}
	if n, err := strconv.Atoi(strings.TrimSpace(limit)); err == nil && n > 0 {
		p.Limit = min(n, maxPageLimit)
	}
	return p
}

// ParseCategory validates a recommendation category name.
func ParseCategory(s string) (models.Category, error) {
	c, ok := models.ParseCategory(strings.ToLower(strings.TrimSpace(s)))
	if !ok {
		return "", errors.NewValidationError("Invalid category", "INVALID_CATEGORY",
			"Use one of jewelry, makeup, hair, nails or henna.")
	}
	return c, nil
}

// ValidateFeedback checks a session feedback rating.
func ValidateFeedback(f models.Feedback) error {
	if f.Rating < 1 || f.Rating > 5 {
		return errors.NewValidationError("rating must be between 1 and 5", "INVALID_RATING", "Send a rating from 1 to 5.")
	}
	return nil
}

// ValidateProfileUpdate rejects obviously invalid profile changes.
func ValidateProfileUpdate(u models.ProfileUpdate) error {
	if len(u.Name) > 100 {
		return errors.NewValidationError("name is too long", "INVALID_PROFILE", "Use a name of at most 100 characters.")
	}
	if u.SkinTone != "" {
		switch strings.ToLower(u.SkinTone) {
		case "warm", "cool", "neutral":
		default:
			return errors.NewValidationError("skinTone must be warm, cool or neutral", "INVALID_PROFILE", "")
		}
	}
	return nil
}
