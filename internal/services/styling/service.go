// Package styling orchestrates outfit analysis and recommendation
// generation: cache lookups, provider fallback chains, entitlement checks
// and session persistence.
package styling

import (
	"context"
	"errors"
	"time"

	"github.com/glamlens/stylist/internal/cache"
	apperrors "github.com/glamlens/stylist/internal/errors"
	"github.com/glamlens/stylist/internal/models"
	"github.com/glamlens/stylist/internal/services/catalog"
	"github.com/glamlens/stylist/internal/services/imagegen"
	"github.com/glamlens/stylist/internal/services/recommend"
	"github.com/glamlens/stylist/internal/services/storage"
	"github.com/glamlens/stylist/internal/services/vision"
	"github.com/glamlens/stylist/internal/store"
	"github.com/glamlens/stylist/internal/telemetry"
	"github.com/glamlens/stylist/internal/validation"
	"github.com/google/uuid"
)

const (
	capabilityVision          = "vision"
	capabilityRecommendations = "recommendations"
)

var tracer = telemetry.Tracer("styling")

// Store is the subset of the document store the service needs.
type Store interface {
	store.SessionStore
	store.UserStore
}

// ImageStore keeps the original outfit photos.
type ImageStore interface {
	UploadImageWithHash(ctx context.Context, data []byte, contentType string) (*storage.StoredImage, error)
}

// Deps are the collaborators of a Service. Uploads may be nil.
type Deps struct {
	Cache        *cache.Coordinator
	Store        Store
	Vision       []vision.Classifier
	Recommenders []recommend.Generator
	Images       []imagegen.Generator
	Matcher      catalog.Matcher
	Uploads      ImageStore
}

type Options struct {
	AnalysisTTL       time.Duration
	RecommendationTTL time.Duration
	Upload            validation.ImageLimits
	Now               func() time.Time
	NewID             func() string
}

type Service struct {
	cache        *cache.Coordinator
	store        Store
	vision       []vision.Classifier
	recommenders []recommend.Generator
	images       []imagegen.Generator
	matcher      catalog.Matcher
	uploads      ImageStore
	opts         Options
}

func NewService(deps Deps, opts Options) *Service {
	if opts.AnalysisTTL == 0 {
		opts.AnalysisTTL = time.Hour
	}
	if opts.RecommendationTTL == 0 {
		opts.RecommendationTTL = 30 * time.Minute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if deps.Matcher == nil {
		deps.Matcher = catalog.NewMockMatcher()
	}

	return &Service{
		cache:        deps.Cache,
		store:        deps.Store,
		vision:       deps.Vision,
		recommenders: deps.Recommenders,
		images:       deps.Images,
		matcher:      deps.Matcher,
		uploads:      deps.Uploads,
		opts:         opts,
	}
}

func (s *Service) now() time.Time {
	return s.opts.Now().UTC()
}

func sourceOf(o cache.Outcome) models.Source {
	switch {
	case o.Hit:
		return models.SourceCache
	case o.Cacheable:
		return models.SourceProvider
	default:
		return models.SourceDefault
	}
}

// storeError maps document store failures onto the API taxonomy.
func storeError(err error, what string) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperrors.NewNotFoundError(what+" not found", "NOT_FOUND", "")
	}
	return apperrors.NewStoreError("Failed to access "+what, "STORE_UNAVAILABLE", err)
}

// loadUser returns the stored user, or an unsaved free-tier user when none
// exists yet.
func (s *Service) loadUser(ctx context.Context, userID string) (*models.User, error) {
	u, err := s.store.GetUser(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return store.NewUser(userID, s.now()), nil
	}
	if err != nil {
		return nil, storeError(err, "user")
	}
	if u.Subscription.Plan == "" {
		u.Subscription.Plan = models.TierFree
	}
	return u, nil
}
