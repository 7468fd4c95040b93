package vendors

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	"github.com/glamlens/stylist/internal/config"
	"github.com/glamlens/stylist/internal/httpclient"
	"github.com/google/generative-ai-go/genai"
	"github.com/sashabaranov/go-openai"
	"google.golang.org/api/option"
)

// Clients holds the long-lived vendor SDK handles shared by every adapter.
// A nil field means the vendor has no credentials configured.
type Clients struct {
	OpenAI    *openai.Client
	Anthropic *anthropic.Client
	Gemini    *genai.Client

	// Replicate has no SDK; adapters call its HTTP API directly.
	ReplicateToken string
	ReplicateHTTP  *http.Client
}

// New builds a client for every vendor that has credentials. Each SDK gets
// an instrumented HTTP client whose timeout is the longest chain timeout
// that can use it; per-call deadlines are applied by the adapters.
func New(ctx context.Context, cfg *config.Config) (*Clients, error) {
	c := &Clients{}

	if cfg.OpenAIKey != "" {
		oc := openai.DefaultConfig(cfg.OpenAIKey)
		oc.HTTPClient = httpclient.NewInstrumentedClient(longest(cfg.Vision.Timeout, cfg.Recommendations.Timeout, cfg.ImageGeneration.Timeout))
		c.OpenAI = openai.NewClientWithConfig(oc)
	}

	if cfg.AnthropicKey != "" {
		client := anthropic.NewClient(
			anthropicoption.WithAPIKey(cfg.AnthropicKey),
			anthropicoption.WithHTTPClient(httpclient.NewInstrumentedClient(cfg.Recommendations.Timeout)),
		)
		c.Anthropic = &client
	}

	if cfg.GeminiKey != "" {
		client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiKey))
		if err != nil {
			return nil, fmt.Errorf("failed to create Gemini client: %w", err)
		}
		c.Gemini = client
	}

	if cfg.ReplicateToken != "" {
		c.ReplicateToken = cfg.ReplicateToken
		c.ReplicateHTTP = httpclient.NewInstrumentedClient(cfg.ImageGeneration.Timeout)
	}

	slog.Info("AI vendor clients configured",
		"openai", c.OpenAI != nil,
		"anthropic", c.Anthropic != nil,
		"gemini", c.Gemini != nil,
		"replicate", c.ReplicateToken != "")

	return c, nil
}

// Close releases clients that hold connections.
func (c *Clients) Close() {
	if c.Gemini != nil {
		if err := c.Gemini.Close(); err != nil {
			slog.Warn("Failed to close Gemini client", "error", err)
		}
	}
}

func longest(ds ...time.Duration) time.Duration {
	var m time.Duration
	for _, d := range ds {
		if d > m {
			m = d
		}
	}
	return m
}
