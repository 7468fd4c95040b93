package imagegen

import (
	"context"

	"github.com/glamlens/stylist/internal/models"
	"github.com/glamlens/stylist/internal/services/ai"
)

// ProviderType identifies an image vendor.
type ProviderType string

const (
	ProviderDalle     ProviderType = "dalle"
	ProviderReplicate ProviderType = "replicate"
)

// Kind is the kind of image being generated.
type Kind string

const (
	KindNailArt   Kind = "nail_art"
	KindHenna     Kind = "henna"
	KindMoodboard Kind = "moodboard"
)

// PromptSpec is a vendor-neutral image request. Width, Height, Guidance and
// NegativePrompt are honoured by diffusion backends and ignored by DALL-E.
type PromptSpec struct {
	Kind           Kind
	Prompt         string
	NegativePrompt string
	Width          int
	Height         int
	Guidance       float64
}

// Generator produces image URLs for a prompt.
type Generator interface {
	Name() string
	Supports(kind Kind) bool
	GenerateImage(ctx context.Context, spec PromptSpec) ([]string, error)
}

// ForKind filters chain down to the generators that can produce kind,
// preserving order.
func ForKind(chain []Generator, kind Kind) []Generator {
	out := make([]Generator, 0, len(chain))
	for _, g := range chain {
		if g.Supports(kind) {
			out = append(out, g)
		}
	}
	return out
}

// NailArtSpec builds the request for a nail design preview.
func NailArtSpec(nails models.NailRecommendation, style string) PromptSpec {
	return PromptSpec{
		Kind:           KindNailArt,
		Prompt:         ai.BuildNailArtPrompt(nails, style),
		NegativePrompt: "blurry, low quality, distorted, ugly, deformed hands, extra fingers, missing fingers, cartoon",
		Width:          512,
		Height:         512,
		Guidance:       7.5,
	}
}

// HennaSpec builds the request for a henna design on one body part.
func HennaSpec(henna models.HennaRecommendation, bodyPart string) PromptSpec {
	return PromptSpec{
		Kind:           KindHenna,
		Prompt:         ai.BuildHennaPrompt(henna, bodyPart),
		NegativePrompt: "cartoon, low quality, distorted, inappropriate, western tattoo, permanent ink",
		Width:          512,
		Height:         768,
		Guidance:       8.0,
	}
}

// MoodboardSpec builds the request for a look collage.
func MoodboardSpec(analysis models.AnalysisResult, recs *models.RecommendationSet) PromptSpec {
	return PromptSpec{
		Kind:   KindMoodboard,
		Prompt: ai.BuildMoodboardPrompt(analysis, recs),
	}
}
