package vision

import (
	"context"
	"encoding/base64"
	"time"

	"github.com/glamlens/stylist/internal/errors"
	"github.com/glamlens/stylist/internal/httpclient"
	"github.com/glamlens/stylist/internal/metrics"
	"github.com/glamlens/stylist/internal/services/ai"
	"github.com/sashabaranov/go-openai"
)

const defaultOpenAIModel = "gpt-4o"

// OpenAIClassifier implements Classifier with an OpenAI vision chat completion.
type OpenAIClassifier struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

// NewOpenAIClassifier creates a classifier over a shared OpenAI client.
func NewOpenAIClassifier(client *openai.Client, model string, timeout time.Duration) *OpenAIClassifier {
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAIClassifier{client: client, model: model, timeout: timeout}
}

func (c *OpenAIClassifier) Name() string { return string(ProviderOpenAI) }

// ClassifyImage sends the image inline as a data URL.
func (c *OpenAIClassifier) ClassifyImage(ctx context.Context, img Image) (result *Classification, err error) {
	startTime := time.Now()
	defer func() {
		metrics.RecordExternalCall(ctx, c.Name(), "vision", startTime, err)
	}()

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	dataURL := "data:" + img.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(img.Data)

	resp, err := c.client.CreateChatCompletion(httpclient.WithProvider(ctx, "OpenAI"), openai.ChatCompletionRequest{
		Model:       c.model,
		MaxTokens:   800,
		Temperature: 0.3,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: ai.BuildAnalysisPrompt()},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    dataURL,
							Detail: openai.ImageURLDetailAuto,
						},
					},
				},
			},
		},
	})
	if err != nil {
		return nil, errors.NewProviderUnreachableError("OpenAI vision request failed", "OPENAI_VISION_ERROR", err)
	}

	if len(resp.Choices) == 0 {
		return nil, errors.NewProviderResponseError("no response from OpenAI vision", "OPENAI_EMPTY_RESPONSE", nil)
	}

	return ParseClassification("OpenAI", resp.Choices[0].Message.Content)
}
