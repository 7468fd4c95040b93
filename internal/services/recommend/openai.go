package recommend

import (
	"context"
	"time"

	"github.com/glamlens/stylist/internal/errors"
	"github.com/glamlens/stylist/internal/httpclient"
	"github.com/glamlens/stylist/internal/metrics"
	"github.com/glamlens/stylist/internal/models"
	"github.com/glamlens/stylist/internal/services/ai"
	"github.com/sashabaranov/go-openai"
)

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAIGenerator implements Generator with an OpenAI chat completion in
// JSON mode.
type OpenAIGenerator struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

func NewOpenAIGenerator(client *openai.Client, model string, timeout time.Duration) *OpenAIGenerator {
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAIGenerator{client: client, model: model, timeout: timeout}
}

func (g *OpenAIGenerator) Name() string { return string(ProviderOpenAI) }

func (g *OpenAIGenerator) GenerateRecommendations(ctx context.Context, req Request) (result *models.RecommendationSet, err error) {
	startTime := time.Now()
	defer func() {
		metrics.RecordExternalCall(ctx, g.Name(), "recommendations", startTime, err)
	}()

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	resp, err := g.client.CreateChatCompletion(httpclient.WithProvider(ctx, "OpenAI"), openai.ChatCompletionRequest{
		Model:     g.model,
		MaxTokens: 2000,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: ai.BuildRecommendationPrompt(req.Analysis, req.Preferences, req.Category)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	})
	if err != nil {
		return nil, errors.NewProviderUnreachableError("OpenAI recommendation request failed", "OPENAI_RECOMMENDATION_ERROR", err)
	}

	if len(resp.Choices) == 0 {
		return nil, errors.NewProviderResponseError("no response from OpenAI", "OPENAI_EMPTY_RESPONSE", nil)
	}

	return ParseRecommendations("OpenAI", resp.Choices[0].Message.Content, req.Category)
}
