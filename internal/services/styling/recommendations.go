package styling

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"dario.cat/mergo"
	apperrors "github.com/glamlens/stylist/internal/errors"
	"github.com/glamlens/stylist/internal/metrics"
	"github.com/glamlens/stylist/internal/models"
	"github.com/glamlens/stylist/internal/services/fallback"
	"github.com/glamlens/stylist/internal/services/imagegen"
	"github.com/glamlens/stylist/internal/services/recommend"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	nailArtStyle  = "realistic"
	hennaBodyPart = "hands"
)

type GenerateOptions struct {
	Preferences       models.Preferences `json:"preferences"`
	IncludeProducts   bool               `json:"includeProducts"`
	IncludeNailArt    bool               `json:"includeNailArt"`
	IncludeHenna      bool               `json:"includeHenna"`
	GenerateMoodboard bool               `json:"generateMoodboard"`
}

// UnmarshalJSON also accepts generateMoodboardImage, the name older
// clients send.
func (o *GenerateOptions) UnmarshalJSON(data []byte) error {
	type plain GenerateOptions
	aux := struct {
		*plain
		GenerateMoodboardImage bool `json:"generateMoodboardImage"`
	}{plain: (*plain)(o)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.GenerateMoodboardImage {
		o.GenerateMoodboard = true
	}
	return nil
}

type GenerateResult struct {
	SessionID       string                    `json:"sessionId"`
	Recommendations *models.RecommendationSet `json:"recommendations"`
	ProductMatches  []models.ProductMatch     `json:"productMatches,omitempty"`
	MoodboardURL    string                    `json:"moodboardUrl,omitempty"`
	Source          models.Source             `json:"source"`
}

type RegenerateOptions struct {
	Preferences   models.Preferences `json:"preferences"`
	IncludeImages bool               `json:"includeImages"`
}

type RegenerateResult struct {
	Category        models.Category `json:"category"`
	Recommendations any             `json:"recommendations"`
	Source          models.Source   `json:"source"`
}

// GenerateRecommendations produces the full recommendation set for a
// session, plus any requested images and product matches, and stores them
// on the session. Entitlements are checked before any provider is called.
func (s *Service) GenerateRecommendations(ctx context.Context, userID, sessionID string, opts GenerateOptions) (*GenerateResult, error) {
	ctx, span := tracer.Start(ctx, "styling.GenerateRecommendations")
	defer span.End()

	session, err := s.store.GetSession(ctx, sessionID, userID)
	if err != nil {
		return nil, storeError(err, "session")
	}
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	tier := user.Subscription.Plan
	if opts.IncludeNailArt {
		if err := s.entitled(ctx, tier, "Nail art generation", models.TierPremium); err != nil {
			return nil, err
		}
	}
	if opts.IncludeHenna {
		if err := s.entitled(ctx, tier, "Henna design generation", models.TierPremium); err != nil {
			return nil, err
		}
	}
	if opts.GenerateMoodboard {
		if err := s.entitled(ctx, tier, "Moodboard generation", models.TierProfessional); err != nil {
			return nil, err
		}
	}

	prefs := mergePreferences(user.Profile.Preferences, opts.Preferences)
	recs, source, err := s.recommend(ctx, session.Analysis, prefs, "")
	if err != nil {
		return nil, err
	}

	if opts.IncludeNailArt && recs.Nails != nil {
		recs.Nails.GeneratedImages = s.generateImages(ctx, imagegen.NailArtSpec(*recs.Nails, nailArtStyle))
	}
	if opts.IncludeHenna && recs.Henna != nil {
		recs.Henna.GeneratedImages = s.generateImages(ctx, imagegen.HennaSpec(*recs.Henna, hennaBodyPart))
	}

	result := &GenerateResult{SessionID: sessionID, Recommendations: recs, Source: source}
	if opts.GenerateMoodboard {
		if urls := s.generateImages(ctx, imagegen.MoodboardSpec(session.Analysis, recs)); len(urls) > 0 {
			result.MoodboardURL = urls[0]
			session.MoodboardURL = urls[0]
		}
	}
	if opts.IncludeProducts {
		result.ProductMatches = s.matcher.Match(ctx, recs, session.Analysis)
	}

	session.Recommendations = recs
	session.ProductMatches = result.ProductMatches
	session.UpdatedAt = s.now()
	if err := s.store.SaveSession(ctx, session); err != nil {
		return nil, storeError(err, "session")
	}

	return result, nil
}

// RegenerateCategory replaces one category of a session's recommendations
// and leaves every other category untouched.
func (s *Service) RegenerateCategory(ctx context.Context, userID, sessionID string, category models.Category, opts RegenerateOptions) (*RegenerateResult, error) {
	ctx, span := tracer.Start(ctx, "styling.RegenerateCategory")
	defer span.End()
	span.SetAttributes(attribute.String("styling.category", string(category)))

	if _, ok := models.ParseCategory(string(category)); !ok {
		return nil, apperrors.NewValidationError("Invalid category", "INVALID_CATEGORY",
			"Use one of jewelry, makeup, hair, nails or henna.")
	}

	session, err := s.store.GetSession(ctx, sessionID, userID)
	if err != nil {
		return nil, storeError(err, "session")
	}
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	withImages := opts.IncludeImages && (category == models.CategoryNails || category == models.CategoryHenna)
	if withImages {
		if err := s.entitled(ctx, user.Subscription.Plan, fmt.Sprintf("%s image generation", category), models.TierPremium); err != nil {
			return nil, err
		}
	}

	prefs := mergePreferences(user.Profile.Preferences, opts.Preferences)
	fresh, source, err := s.recommend(ctx, session.Analysis, prefs, category)
	if err != nil {
		return nil, err
	}

	if withImages {
		switch category {
		case models.CategoryNails:
			fresh.Nails.GeneratedImages = s.generateImages(ctx, imagegen.NailArtSpec(*fresh.Nails, nailArtStyle))
		case models.CategoryHenna:
			fresh.Henna.GeneratedImages = s.generateImages(ctx, imagegen.HennaSpec(*fresh.Henna, hennaBodyPart))
		}
	}

	if session.Recommendations == nil {
		session.Recommendations = &models.RecommendationSet{}
	}
	session.Recommendations.Replace(category, fresh)
	session.UpdatedAt = s.now()
	if err := s.store.SaveSession(ctx, session); err != nil {
		return nil, storeError(err, "session")
	}

	return &RegenerateResult{
		Category:        category,
		Recommendations: session.Recommendations.Get(category),
		Source:          source,
	}, nil
}

// recommend runs the cached recommendation pipeline. An empty category asks
// for the full set; otherwise the returned set holds only that category.
func (s *Service) recommend(ctx context.Context, analysis models.AnalysisResult, prefs models.Preferences, category models.Category) (*models.RecommendationSet, models.Source, error) {
	start := time.Now()
	key := RecommendationKey(analysis, prefs, category)
	req := recommend.Request{Analysis: analysis, Preferences: prefs, Category: category}

	outcome, err := s.cache.Load(ctx, key, s.opts.RecommendationTTL, func(ctx context.Context) ([]byte, bool, error) {
		set, report := fallback.Resolve(ctx, capabilityRecommendations, s.recommenders,
			func(ctx context.Context, g recommend.Generator) (*models.RecommendationSet, error) {
				return g.GenerateRecommendations(ctx, req)
			},
			func() *models.RecommendationSet { return FallbackRecommendations(analysis) },
		)

		if !report.UsedDefault {
			set = NormalizeRecommendations(set, analysis, category)
		}
		if category != "" {
			set = only(set, category)
		}
		data, err := json.Marshal(set)
		return data, !report.UsedDefault, err
	})
	if err != nil {
		return nil, "", apperrors.NewInternalError("Failed to generate recommendations", err)
	}

	var set models.RecommendationSet
	if err := json.Unmarshal(outcome.Value, &set); err != nil {
		return nil, "", apperrors.NewInternalError("Cached recommendations are unreadable", err)
	}

	scope := scopeAll
	if category != "" {
		scope = string(category)
	}
	source := sourceOf(outcome)
	attrs := metric.WithAttributes(
		attribute.String("pipeline", capabilityRecommendations),
		attribute.String("scope", scope),
		attribute.String("source", string(source)),
	)
	metrics.RecommendationRequestsTotal.Add(ctx, 1, attrs)
	metrics.PipelineDuration.Record(ctx, time.Since(start).Seconds(), attrs)

	return &set, source, nil
}

// generateImages tries every image provider that supports spec.Kind.
// Image generation is best effort: when all fail the result is empty.
func (s *Service) generateImages(ctx context.Context, spec imagegen.PromptSpec) []string {
	candidates := imagegen.ForKind(s.images, spec.Kind)
	urls, report := fallback.Resolve(ctx, "image_"+string(spec.Kind), candidates,
		func(ctx context.Context, g imagegen.Generator) ([]string, error) {
			return g.GenerateImage(ctx, spec)
		},
		func() []string { return []string{} },
	)
	if report.UsedDefault {
		slog.WarnContext(ctx, "Image generation unavailable", "kind", spec.Kind, "attempts", report.Attempts())
	}
	return urls
}

func (s *Service) entitled(ctx context.Context, tier models.Tier, feature string, required models.Tier) error {
	if tier.AtLeast(required) {
		return nil
	}
	metrics.EntitlementDeniedTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("feature", feature),
		attribute.String("plan", string(tier)),
	))
	return apperrors.NewEntitlementError(
		fmt.Sprintf("%s requires a %s subscription", feature, required),
		"ENTITLEMENT_DENIED",
		string(required),
	)
}

// mergePreferences overlays the non-empty request preferences on the
// stored profile preferences.
func mergePreferences(stored, request models.Preferences) models.Preferences {
	merged := stored
	if err := mergo.Merge(&merged, request, mergo.WithOverride); err != nil {
		return request
	}
	return merged
}
