package recommend

import (
	"context"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/glamlens/stylist/internal/errors"
	"github.com/glamlens/stylist/internal/httpclient"
	"github.com/glamlens/stylist/internal/metrics"
	"github.com/glamlens/stylist/internal/models"
	"github.com/glamlens/stylist/internal/services/ai"
)

const defaultAnthropicModel = "claude-sonnet-4-5"

// AnthropicGenerator implements Generator with the Anthropic Messages API.
type AnthropicGenerator struct {
	client  *anthropic.Client
	model   string
	timeout time.Duration
}

func NewAnthropicGenerator(client *anthropic.Client, model string, timeout time.Duration) *AnthropicGenerator {
	if model == "" {
		model = defaultAnthropicModel
	}
	return &AnthropicGenerator{client: client, model: model, timeout: timeout}
}

func (g *AnthropicGenerator) Name() string { return string(ProviderAnthropic) }

func (g *AnthropicGenerator) GenerateRecommendations(ctx context.Context, req Request) (result *models.RecommendationSet, err error) {
	startTime := time.Now()
	defer func() {
		metrics.RecordExternalCall(ctx, g.Name(), "recommendations", startTime, err)
	}()

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	prompt := ai.BuildRecommendationPrompt(req.Analysis, req.Preferences, req.Category)

	message, err := g.client.Messages.New(httpclient.WithProvider(ctx, "Anthropic"), anthropic.MessageNewParams{
		Model:     anthropic.Model(g.model),
		MaxTokens: 2000,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return nil, errors.NewProviderUnreachableError("Anthropic recommendation request failed", "ANTHROPIC_ERROR", err)
	}

	var sb strings.Builder
	for _, block := range message.Content {
		switch variant := block.AsAny().(type) {
		case anthropic.TextBlock:
			sb.WriteString(variant.Text)
		}
	}

	return ParseRecommendations("Anthropic", sb.String(), req.Category)
}
