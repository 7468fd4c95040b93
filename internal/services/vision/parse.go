package vision

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/glamlens/stylist/internal/errors"
	"github.com/glamlens/stylist/internal/models"
	"github.com/glamlens/stylist/internal/services/ai"
)

type rawClassification struct {
	ColorPalette        models.ColorPalette `json:"colorPalette"`
	StyleClassification string              `json:"styleClassification"`
	Neckline            string              `json:"neckline"`
	Fabric              string              `json:"fabric"`
	Aesthetic           string              `json:"aesthetic"`
	SkinTone            string              `json:"skinTone"`
	Occasion            string              `json:"occasion"`
	Confidence          json.RawMessage     `json:"confidence"`
}

// ParseClassification extracts the first JSON object from a model reply and
// decodes it. Replies without JSON or with a mismatched shape are reported
// as invalid provider responses.
func ParseClassification(provider, text string) (*Classification, error) {
	obj, err := ai.ExtractJSONObject(text)
	if err != nil {
		return nil, errors.NewProviderResponseError(provider+" returned no JSON analysis", "ANALYSIS_NO_JSON", err)
	}

	var raw rawClassification
	if err := json.Unmarshal([]byte(obj), &raw); err != nil {
		return nil, errors.NewProviderResponseError(provider+" analysis does not match the expected schema", "ANALYSIS_SCHEMA_MISMATCH", err)
	}

	return &Classification{
		ColorPalette:        raw.ColorPalette,
		StyleClassification: raw.StyleClassification,
		Neckline:            raw.Neckline,
		Fabric:              raw.Fabric,
		Aesthetic:           raw.Aesthetic,
		SkinTone:            raw.SkinTone,
		Occasion:            raw.Occasion,
		Confidence:          parseConfidence(raw.Confidence),
	}, nil
}

// parseConfidence accepts a number or a numeric string ("85", "85%").
func parseConfidence(raw json.RawMessage) *float64 {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return &n
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return &n
	}
	return nil
}
