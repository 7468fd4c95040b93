package styling

import (
	"log/slog"
	"math"
	"slices"

	"dario.cat/mergo"
	"github.com/glamlens/stylist/internal/models"
	"github.com/glamlens/stylist/internal/services/vision"
)

const (
	defaultConfidence  = 75
	fallbackConfidence = 50
)

// FallbackAnalysis is returned when every vision provider failed.
func FallbackAnalysis() models.AnalysisResult {
	return models.AnalysisResult{
		ColorPalette: models.ColorPalette{
			Primary:   []string{"#2C3E50", "#34495E"},
			Secondary: []string{"#95A5A6", "#BDC3C7"},
			Accent:    []string{"#ECF0F1", "#FFFFFF"},
		},
		StyleClassification: "casual",
		Neckline:            "unknown",
		Fabric:              "unknown",
		Aesthetic:           "modern",
		SkinTone:            "neutral",
		Occasion:            "casual",
		Confidence:          fallbackConfidence,
	}
}

// NormalizeAnalysis fills every missing field of a provider answer and
// clamps confidence into [0,100].
func NormalizeAnalysis(c *vision.Classification) models.AnalysisResult {
	if c == nil {
		c = &vision.Classification{}
	}

	confidence := defaultConfidence
	if c.Confidence != nil && !math.IsNaN(*c.Confidence) {
		confidence = int(math.Round(math.Max(0, math.Min(100, *c.Confidence))))
	}

	return models.AnalysisResult{
		ColorPalette: models.ColorPalette{
			Primary:   orColors(c.ColorPalette.Primary, "#000000", "#333333"),
			Secondary: orColors(c.ColorPalette.Secondary, "#666666", "#999999"),
			Accent:    orColors(c.ColorPalette.Accent, "#cccccc", "#ffffff"),
		},
		StyleClassification: orString(c.StyleClassification, "casual"),
		Neckline:            orString(c.Neckline, "unknown"),
		Fabric:              orString(c.Fabric, "unknown"),
		Aesthetic:           orString(c.Aesthetic, "modern"),
		SkinTone:            orString(c.SkinTone, "neutral"),
		Occasion:            orString(c.Occasion, "casual"),
		Confidence:          confidence,
	}
}

// FallbackRecommendations is the static set returned when every
// recommendation provider failed. A few fields follow the analysis.
func FallbackRecommendations(analysis models.AnalysisResult) *models.RecommendationSet {
	return &models.RecommendationSet{
		Jewelry: fallbackJewelry(),
		Makeup:  fallbackMakeup(analysis),
		Hair:    fallbackHair(analysis),
		Nails:   fallbackNails(analysis),
		Henna:   fallbackHenna(),
	}
}

func fallbackJewelry() *models.JewelryRecommendation {
	return &models.JewelryRecommendation{
		Necklace: models.Necklace{
			Name:        "Simple Chain Necklace",
			Description: "A delicate chain that complements your neckline",
			Style:       "minimalist",
			Colors:      []string{"gold", "silver"},
			Length:      "medium",
			Metal:       "gold",
		},
		Earrings: models.Earrings{
			Name:        "Stud Earrings",
			Description: "Classic studs that work with any outfit",
			Style:       "classic",
			Size:        "small",
			Metal:       "gold",
		},
		Bracelets: models.Bracelet{
			Name:        "Simple Bracelet",
			Description: "A thin bracelet to add subtle elegance",
			Style:       "minimalist",
			Stacking:    "single",
		},
		Rings: models.Rings{
			Name:        "Simple Ring",
			Description: "One or two simple rings",
			Style:       "minimalist",
			Quantity:    "1-2",
		},
	}
}

func fallbackMakeup(analysis models.AnalysisResult) *models.MakeupRecommendation {
	return &models.MakeupRecommendation{
		Foundation: models.Foundation{Coverage: "medium", Finish: "satin", Undertone: analysis.SkinTone},
		Eyes: models.EyeMakeup{
			Eyeshadow: models.Eyeshadow{Colors: []string{"neutral", "brown", "taupe"}, Finish: "matte", Intensity: "subtle"},
			Eyeliner:  models.Eyeliner{Style: "thin", Color: "brown"},
			Mascara:   models.Mascara{Type: "lengthening", Color: "black"},
		},
		Lips:  models.Lips{Color: "nude pink", Finish: "satin", Intensity: "medium"},
		Blush: models.Blush{Color: "peachy pink", Placement: "cheeks", Intensity: "light"},
	}
}

func fallbackHair(analysis models.AnalysisResult) *models.HairRecommendation {
	return &models.HairRecommendation{
		Styles: []models.HairStyle{{
			Name:        "Natural Waves",
			Description: "Soft, natural-looking waves",
			Difficulty:  "easy",
			Occasion:    analysis.Occasion,
		}},
		Accessories: []models.HairAccessory{{
			Name:        "Hair Clip",
			Description: "Simple clip to keep hair in place",
			Color:       "neutral",
		}},
	}
}

func fallbackNails(analysis models.AnalysisResult) *models.NailRecommendation {
	return &models.NailRecommendation{
		Colors:   slices.Clone(analysis.ColorPalette.Primary),
		Designs:  []string{"solid color", "french tips"},
		Length:   "medium",
		ArtStyle: "minimalist",
		Shape:    "oval",
	}
}

func fallbackHenna() *models.HennaRecommendation {
	return &models.HennaRecommendation{
		Complexity: "simple",
		Style:      "traditional",
		Placement:  []string{"hands"},
		Patterns:   []string{"floral", "geometric"},
		Cultural:   "traditional",
	}
}

// NormalizeRecommendations fills the categories a provider left out, and the
// empty fields of the ones it returned. With a category only that one is
// considered. Nails without colors take the outfit's primary palette.
func NormalizeRecommendations(set *models.RecommendationSet, analysis models.AnalysisResult, category models.Category) *models.RecommendationSet {
	if set == nil {
		set = &models.RecommendationSet{}
	}
	defaults := FallbackRecommendations(analysis)

	scope := models.Categories
	if category != "" {
		scope = []models.Category{category}
	}
	for _, c := range scope {
		if !set.Has(c) {
			set.Replace(c, defaults)
			continue
		}
		if err := mergo.Merge(set.Get(c), defaults.Get(c)); err != nil {
			slog.Warn("Failed to fill recommendation defaults", "category", c, "error", err)
		}
	}

	if set.Nails != nil && len(set.Nails.Colors) == 0 {
		set.Nails.Colors = slices.Clone(analysis.ColorPalette.Primary)
	}
	return set
}

// only returns a set holding just category c of set.
func only(set *models.RecommendationSet, c models.Category) *models.RecommendationSet {
	out := &models.RecommendationSet{}
	out.Replace(c, set)
	return out
}

func orString(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func orColors(colors []string, fallback ...string) []string {
	if len(colors) == 0 {
		return fallback
	}
	return colors
}
