package models

import "time"

// Tier is a subscription plan.
type Tier string

const (
	TierFree         Tier = "free"
	TierPremium      Tier = "premium"
	TierProfessional Tier = "professional"
)

var tierRank = map[Tier]int{
	TierFree:         0,
	TierPremium:      1,
	TierProfessional: 2,
}

// AtLeast reports whether t is the given tier or above. Unknown tiers
// rank as free.
func (t Tier) AtLeast(min Tier) bool {
	return tierRank[t] >= tierRank[min]
}

// MonthlyAnalysisLimit is the advertised number of analyses per month.
func (t Tier) MonthlyAnalysisLimit() int {
	switch t {
	case TierProfessional:
		return 1000
	case TierPremium:
		return 100
	default:
		return 10
	}
}

type User struct {
	ID           string       `json:"id" bson:"_id"`
	Email        string       `json:"email,omitempty" bson:"email,omitempty"`
	Profile      Profile      `json:"profile" bson:"profile"`
	Subscription Subscription `json:"subscription" bson:"subscription"`
	Usage        Usage        `json:"usage" bson:"usage"`
	CreatedAt    time.Time    `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt" bson:"updatedAt"`
}

type Profile struct {
	Name        string      `json:"name,omitempty" bson:"name,omitempty"`
	Avatar      string      `json:"avatar,omitempty" bson:"avatar,omitempty"`
	SkinTone    string      `json:"skinTone,omitempty" bson:"skinTone,omitempty"`
	Preferences Preferences `json:"preferences" bson:"preferences"`
}

// Preferences steer recommendation generation. They are part of the
// recommendation cache key, so field order here is the serialized order.
type Preferences struct {
	StyleAesthetic     []string `json:"styleAesthetic,omitempty" bson:"styleAesthetic,omitempty"`
	BudgetRange        string   `json:"budgetRange,omitempty" bson:"budgetRange,omitempty"`
	CulturalBackground string   `json:"culturalBackground,omitempty" bson:"culturalBackground,omitempty"`
	FavoriteColors     []string `json:"favoriteColors,omitempty" bson:"favoriteColors,omitempty"`
	AvoidColors        []string `json:"avoidColors,omitempty" bson:"avoidColors,omitempty"`
	Occasions          []string `json:"occasions,omitempty" bson:"occasions,omitempty"`
}

type Subscription struct {
	Plan      Tier       `json:"plan" bson:"plan"`
	Status    string     `json:"status,omitempty" bson:"status,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty" bson:"expiresAt,omitempty"`
}

type Usage struct {
	AnalysesThisMonth int       `json:"analysesThisMonth" bson:"analysesThisMonth"`
	LastResetDate     time.Time `json:"lastResetDate" bson:"lastResetDate"`
}

// ProfileUpdate is a partial profile change. Empty fields are left as is.
type ProfileUpdate struct {
	Name        string       `json:"name,omitempty"`
	Avatar      string       `json:"avatar,omitempty"`
	SkinTone    string       `json:"skinTone,omitempty"`
	Preferences *Preferences `json:"preferences,omitempty"`
}
