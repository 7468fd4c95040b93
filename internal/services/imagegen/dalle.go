package imagegen

import (
	"context"
	"time"

	"github.com/glamlens/stylist/internal/errors"
	"github.com/glamlens/stylist/internal/httpclient"
	"github.com/glamlens/stylist/internal/metrics"
	"github.com/sashabaranov/go-openai"
)

// DalleGenerator implements Generator with the OpenAI images endpoint.
type DalleGenerator struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

func NewDalleGenerator(client *openai.Client, model string, timeout time.Duration) *DalleGenerator {
	if model == "" {
		model = openai.CreateImageModelDallE3
	}
	return &DalleGenerator{client: client, model: model, timeout: timeout}
}

func (g *DalleGenerator) Name() string { return string(ProviderDalle) }

func (g *DalleGenerator) Supports(Kind) bool { return true }

func (g *DalleGenerator) GenerateImage(ctx context.Context, spec PromptSpec) (urls []string, err error) {
	startTime := time.Now()
	defer func() {
		metrics.RecordExternalCall(ctx, g.Name(), "images", startTime, err)
	}()

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	resp, err := g.client.CreateImage(httpclient.WithProvider(ctx, "OpenAI"), openai.ImageRequest{
		Prompt:         spec.Prompt,
		Model:          g.model,
		N:              1,
		Size:           openai.CreateImageSize1024x1024,
		Quality:        openai.CreateImageQualityHD,
		ResponseFormat: openai.CreateImageResponseFormatURL,
	})
	if err != nil {
		return nil, errors.NewProviderUnreachableError("DALL-E image request failed", "DALLE_ERROR", err)
	}

	for _, d := range resp.Data {
		if d.URL != "" {
			urls = append(urls, d.URL)
		}
	}
	if len(urls) == 0 {
		return nil, errors.NewProviderResponseError("DALL-E returned no image URLs", "DALLE_EMPTY_RESPONSE", nil)
	}
	return urls, nil
}
