package vision

import (
	"context"
	"strings"
	"time"

	"github.com/glamlens/stylist/internal/errors"
	"github.com/glamlens/stylist/internal/metrics"
	"github.com/glamlens/stylist/internal/services/ai"
	"github.com/google/generative-ai-go/genai"
)

const defaultGeminiModel = "gemini-1.5-flash"

// GeminiClassifier implements Classifier with a multimodal Gemini model.
type GeminiClassifier struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

func NewGeminiClassifier(client *genai.Client, model string, timeout time.Duration) *GeminiClassifier {
	if model == "" {
		model = defaultGeminiModel
	}
	return &GeminiClassifier{client: client, model: model, timeout: timeout}
}

func (c *GeminiClassifier) Name() string { return string(ProviderGemini) }

func (c *GeminiClassifier) ClassifyImage(ctx context.Context, img Image) (result *Classification, err error) {
	startTime := time.Now()
	defer func() {
		metrics.RecordExternalCall(ctx, c.Name(), "vision", startTime, err)
	}()

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	model := c.client.GenerativeModel(c.model)
	model.SetTemperature(0.3)
	model.SetMaxOutputTokens(800)
	model.ResponseMIMEType = "application/json"

	resp, err := model.GenerateContent(ctx, genai.Text(ai.BuildAnalysisPrompt()), genai.ImageData(img.Format(), img.Data))
	if err != nil {
		return nil, errors.NewProviderUnreachableError("Gemini vision request failed", "GEMINI_VISION_ERROR", err)
	}

	text := responseText(resp)
	if text == "" {
		return nil, errors.NewProviderResponseError("no content from Gemini vision", "GEMINI_EMPTY_RESPONSE", nil)
	}

	return ParseClassification("Gemini", text)
}

// responseText concatenates the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	return sb.String()
}
