package recommend

import (
	"context"

	"github.com/glamlens/stylist/internal/models"
)

// ProviderType identifies a recommendation vendor.
type ProviderType string

const (
	ProviderAnthropic ProviderType = "anthropic"
	ProviderOpenAI    ProviderType = "openai"
	ProviderGemini    ProviderType = "gemini"
)

// Request asks for recommendations for one analysis. An empty Category
// requests the full set.
type Request struct {
	Analysis    models.AnalysisResult
	Preferences models.Preferences
	Category    models.Category
}

// Generator produces styling recommendations through a generative model.
type Generator interface {
	Name() string
	GenerateRecommendations(ctx context.Context, req Request) (*models.RecommendationSet, error)
}
