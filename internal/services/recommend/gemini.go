package recommend

import (
	"context"
	"strings"
	"time"

	"github.com/glamlens/stylist/internal/errors"
	"github.com/glamlens/stylist/internal/metrics"
	"github.com/glamlens/stylist/internal/models"
	"github.com/glamlens/stylist/internal/services/ai"
	"github.com/google/generative-ai-go/genai"
)

const defaultGeminiModel = "gemini-1.5-flash"

// GeminiGenerator implements Generator with a Gemini text model.
type GeminiGenerator struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

func NewGeminiGenerator(client *genai.Client, model string, timeout time.Duration) *GeminiGenerator {
	if model == "" {
		model = defaultGeminiModel
	}
	return &GeminiGenerator{client: client, model: model, timeout: timeout}
}

func (g *GeminiGenerator) Name() string { return string(ProviderGemini) }

func (g *GeminiGenerator) GenerateRecommendations(ctx context.Context, req Request) (result *models.RecommendationSet, err error) {
	startTime := time.Now()
	defer func() {
		metrics.RecordExternalCall(ctx, g.Name(), "recommendations", startTime, err)
	}()

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	model := g.client.GenerativeModel(g.model)
	model.SetMaxOutputTokens(2000)
	model.ResponseMIMEType = "application/json"

	resp, err := model.GenerateContent(ctx, genai.Text(ai.BuildRecommendationPrompt(req.Analysis, req.Preferences, req.Category)))
	if err != nil {
		return nil, errors.NewProviderUnreachableError("Gemini recommendation request failed", "GEMINI_RECOMMENDATION_ERROR", err)
	}

	var sb strings.Builder
	if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if t, ok := part.(genai.Text); ok {
				sb.WriteString(string(t))
			}
		}
	}

	return ParseRecommendations("Gemini", sb.String(), req.Category)
}
