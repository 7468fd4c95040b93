package imagegen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/glamlens/stylist/internal/errors"
	"github.com/glamlens/stylist/internal/httpclient"
	"github.com/glamlens/stylist/internal/metrics"
)

const (
	defaultReplicateBaseURL = "https://api.replicate.com"
	stableDiffusionVersion  = "ac732df83cea7fff18b8472768c88ad041fa750ff7682a21affe81863cbe77e4"
)

// ReplicateGenerator implements Generator with a synchronous Stable
// Diffusion prediction. It does not produce moodboards.
type ReplicateGenerator struct {
	httpClient *http.Client
	token      string
	baseURL    string
	version    string
}

func NewReplicateGenerator(httpClient *http.Client, token, version string) *ReplicateGenerator {
	if httpClient == nil {
		httpClient = httpclient.InstrumentedClient
	}
	if version == "" {
		version = stableDiffusionVersion
	}
	return &ReplicateGenerator{
		httpClient: httpClient,
		token:      token,
		baseURL:    defaultReplicateBaseURL,
		version:    version,
	}
}

// WithBaseURL points the generator at another API host.
func (g *ReplicateGenerator) WithBaseURL(baseURL string) *ReplicateGenerator {
	g.baseURL = baseURL
	return g
}

func (g *ReplicateGenerator) Name() string { return string(ProviderReplicate) }

func (g *ReplicateGenerator) Supports(kind Kind) bool {
	return kind == KindNailArt || kind == KindHenna
}

type predictionInput struct {
	Prompt            string  `json:"prompt"`
	NegativePrompt    string  `json:"negative_prompt,omitempty"`
	Width             int     `json:"width,omitempty"`
	Height            int     `json:"height,omitempty"`
	NumOutputs        int     `json:"num_outputs"`
	NumInferenceSteps int     `json:"num_inference_steps"`
	GuidanceScale     float64 `json:"guidance_scale,omitempty"`
	Scheduler         string  `json:"scheduler"`
}

type prediction struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  any             `json:"error"`
}

func (g *ReplicateGenerator) GenerateImage(ctx context.Context, spec PromptSpec) (urls []string, err error) {
	startTime := time.Now()
	defer func() {
		metrics.RecordExternalCall(ctx, g.Name(), "images", startTime, err)
	}()

	body, _ := json.Marshal(map[string]any{
		"version": g.version,
		"input": predictionInput{
			Prompt:            spec.Prompt,
			NegativePrompt:    spec.NegativePrompt,
			Width:             spec.Width,
			Height:            spec.Height,
			NumOutputs:        1,
			NumInferenceSteps: 50,
			GuidanceScale:     spec.Guidance,
			Scheduler:         "DPMSolverMultistep",
		},
	})

	req, err := http.NewRequestWithContext(httpclient.WithProvider(ctx, "Replicate"), http.MethodPost, g.baseURL+"/v1/predictions", bytes.NewReader(body))
	if err != nil {
		return nil, errors.NewInternalError("failed to build Replicate request", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "wait")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewProviderUnreachableError("Replicate request failed", "REPLICATE_ERROR", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewProviderUnreachableError("failed to read Replicate response", "REPLICATE_ERROR", err)
	}

	if resp.StatusCode >= 400 {
		return nil, errors.NewProviderUnreachableError("Replicate API error", "REPLICATE_ERROR",
			fmt.Errorf("status %d: %s", resp.StatusCode, string(respBody)))
	}

	var pred prediction
	if err := json.Unmarshal(respBody, &pred); err != nil {
		return nil, errors.NewProviderResponseError("invalid Replicate response", "REPLICATE_INVALID_RESPONSE", err)
	}
	if pred.Status != "succeeded" {
		return nil, errors.NewProviderResponseError(
			fmt.Sprintf("Replicate prediction %s ended with status %q", pred.ID, pred.Status),
			"REPLICATE_NOT_SUCCEEDED", nil)
	}

	urls = decodeOutput(pred.Output)
	if len(urls) == 0 {
		return nil, errors.NewProviderResponseError("Replicate returned no images", "REPLICATE_EMPTY_OUTPUT", nil)
	}
	return urls, nil
}

// decodeOutput accepts both a single URL and a list of URLs.
func decodeOutput(raw json.RawMessage) []string {
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil && single != "" {
		return []string{single}
	}
	return nil
}
