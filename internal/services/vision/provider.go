package vision

import (
	"context"
	"strings"

	"github.com/glamlens/stylist/internal/models"
)

// ProviderType identifies a vision vendor.
type ProviderType string

const (
	ProviderOpenAI ProviderType = "openai"
	ProviderGemini ProviderType = "gemini"
)

// Image is a preprocessed upload ready for a vision model.
type Image struct {
	Data     []byte
	MIMEType string
}

// Format returns the MIME subtype, e.g. "jpeg".
func (i Image) Format() string {
	if _, sub, ok := strings.Cut(i.MIMEType, "/"); ok && sub != "" {
		return sub
	}
	return "jpeg"
}

// Classification is a vendor's raw answer before normalization. Confidence
// is nil when the vendor omitted it or sent something non-numeric.
type Classification struct {
	ColorPalette        models.ColorPalette
	StyleClassification string
	Neckline            string
	Fabric              string
	Aesthetic           string
	SkinTone            string
	Occasion            string
	Confidence          *float64
}

// Classifier classifies the style attributes of an outfit photo.
type Classifier interface {
	Name() string
	ClassifyImage(ctx context.Context, img Image) (*Classification, error)
}
