package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/glamlens/stylist/internal/models"
)

const analysisRoleSection = `<ROLE>
You are a fashion stylist analysing a single outfit photo. Your task is to classify the outfit's style attributes and extract its colour palette.
</ROLE>`

const analysisOutputSection = `<OUTPUT_FORMAT>
Return ONLY valid JSON with this exact structure:

{
  "colorPalette": {
    "primary": ["#HEX1", "#HEX2"],
    "secondary": ["#HEX3", "#HEX4"],
    "accent": ["#HEX5", "#HEX6"]
  },
  "styleClassification": "casual, formal, bohemian, minimalist, ...",
  "neckline": "crew neck, v-neck, off-shoulder, strapless, ...",
  "fabric": "cotton, silk, denim, wool, ...",
  "aesthetic": "modern, vintage, romantic, edgy, ...",
  "skinTone": "warm, cool or neutral",
  "occasion": "work, casual, date, party, wedding, festival",
  "confidence": 0
}
</OUTPUT_FORMAT>`

const analysisFocusSection = `<FOCUS>
- Extract exact hex colour codes from the outfit
- Identify the dominant style elements
- Determine skin tone if visible (face, hands, arms)
- Suggest the best occasion for this outfit
- Rate confidence in the analysis from 0 to 100
</FOCUS>`

const recommendationRoleSection = `<ROLE>
You are a personal stylist. Based on an outfit analysis and the user's preferences, you recommend jewelry, makeup, hair, nails and henna that complete the look.
</ROLE>`

const jewelrySchema = `"jewelry": {
    "necklace": {"name": "", "description": "", "style": "", "colors": [], "length": "", "metal": ""},
    "earrings": {"name": "", "description": "", "style": "", "size": "small/medium/large", "metal": ""},
    "bracelets": {"name": "", "description": "", "style": "", "stacking": "single/multiple"},
    "rings": {"name": "", "description": "", "style": "", "quantity": "number of rings"}
  }`

const makeupSchema = `"makeup": {
    "foundation": {"coverage": "light/medium/full", "finish": "matte/dewy/satin", "undertone": "warm/cool/neutral"},
    "eyes": {
      "eyeshadow": {"colors": [], "finish": "matte/shimmer/metallic", "intensity": "subtle/medium/bold"},
      "eyeliner": {"style": "none/thin/winged/smoky", "color": "black/brown/colored"},
      "mascara": {"type": "lengthening/volumizing", "color": "black/brown"}
    },
    "lips": {"color": "", "finish": "matte/glossy/satin", "intensity": "sheer/medium/bold"},
    "blush": {"color": "", "placement": "cheeks/cheekbones", "intensity": "light/medium"}
  }`

const hairSchema = `"hair": {
    "styles": [{"name": "", "description": "", "difficulty": "easy/medium/hard", "occasion": ""}],
    "accessories": [{"name": "", "description": "", "color": ""}]
  }`

const nailsSchema = `"nails": {
    "colors": ["primary color", "accent color"],
    "designs": [],
    "length": "short/medium/long",
    "artStyle": "minimalist/bold/themed",
    "shape": "round/square/oval/almond"
  }`

const hennaSchema = `"henna": {
    "complexity": "simple/medium/intricate",
    "style": "traditional/modern/fusion",
    "placement": ["hands", "feet", "arms"],
    "patterns": [],
    "cultural": "cultural style if applicable"
  }`

const considerSection = `<CONSIDER>
- Colour harmony with the outfit
- Occasion appropriateness
- Skin tone compatibility
- The user's style preferences and colours to avoid
- Cultural sensitivity for henna designs
- Seasonal trends
</CONSIDER>`

const responseRule = `Respond with only the JSON object. Do not include any explanation outside of it.`

var categorySchemas = map[models.Category]string{
	models.CategoryJewelry: jewelrySchema,
	models.CategoryMakeup:  makeupSchema,
	models.CategoryHair:    hairSchema,
	models.CategoryNails:   nailsSchema,
	models.CategoryHenna:   hennaSchema,
}

// BuildAnalysisPrompt returns the instruction sent alongside an outfit image.
func BuildAnalysisPrompt() string {
	var sb strings.Builder
	sb.WriteString(analysisRoleSection)
	sb.WriteString("\n\n")
	sb.WriteString(analysisOutputSection)
	sb.WriteString("\n\n")
	sb.WriteString(analysisFocusSection)
	sb.WriteString("\n\n")
	sb.WriteString(responseRule)
	return sb.String()
}

// BuildRecommendationPrompt builds the generation prompt. An empty category
// asks for the full set; otherwise only that category's object is requested.
func BuildRecommendationPrompt(analysis models.AnalysisResult, prefs models.Preferences, category models.Category) string {
	var sb strings.Builder
	sb.WriteString(recommendationRoleSection)
	sb.WriteString("\n\n<OUTFIT_ANALYSIS>\n")
	sb.WriteString(indentJSON(analysis))
	sb.WriteString("\n</OUTFIT_ANALYSIS>\n\n<USER_PREFERENCES>\n")
	sb.WriteString(indentJSON(prefs))
	sb.WriteString("\n</USER_PREFERENCES>\n\n<OUTPUT_FORMAT>\n")

	if category == "" {
		sb.WriteString("Provide recommendations in this EXACT JSON format:\n\n{\n  ")
		for i, c := range models.Categories {
			if i > 0 {
				sb.WriteString(",\n  ")
			}
			sb.WriteString(categorySchemas[c])
		}
		sb.WriteString("\n}")
	} else {
		fmt.Fprintf(&sb, "Provide only %s recommendations in this EXACT JSON format:\n\n{\n  %s\n}", category, categorySchemas[category])
	}

	sb.WriteString("\n</OUTPUT_FORMAT>\n\n")
	sb.WriteString(considerSection)
	sb.WriteString("\n\n")
	sb.WriteString(responseRule)
	return sb.String()
}

// BuildNailArtPrompt describes a nail design derived from the nail record.
func BuildNailArtPrompt(nails models.NailRecommendation, style string) string {
	base := fmt.Sprintf("%s nail design in %s colors, %s shape, %s length",
		nails.ArtStyle, strings.Join(nails.Colors, ", "), nails.Shape, nails.Length)

	prompt := base + ", professional nail art photography, high quality, detailed, " + style +
		" style, beautiful hands, perfect nails, studio lighting"
	if len(nails.Colors) > 0 {
		prompt += ", using colors: " + strings.Join(nails.Colors, ", ")
	}
	return prompt
}

// BuildHennaPrompt describes a henna design for one body part.
func BuildHennaPrompt(henna models.HennaRecommendation, bodyPart string) string {
	cultural := henna.Cultural
	if cultural == "" {
		cultural = "traditional"
	}
	return fmt.Sprintf("Intricate %s %s henna design for %s, %s complexity level, beautiful mehndi patterns, "+
		"traditional motifs, high detail, black henna on skin, professional photography, cultural authenticity",
		cultural, henna.Style, bodyPart, henna.Complexity)
}

// BuildMoodboardPrompt summarises the look into a single collage prompt.
func BuildMoodboardPrompt(analysis models.AnalysisResult, recs *models.RecommendationSet) string {
	necklace := "a statement necklace"
	lips := "nude"
	hairStyle := "natural"
	if recs != nil {
		if recs.Jewelry != nil && recs.Jewelry.Necklace.Name != "" {
			necklace = recs.Jewelry.Necklace.Name
		}
		if recs.Makeup != nil && recs.Makeup.Lips.Color != "" {
			lips = recs.Makeup.Lips.Color
		}
		if recs.Hair != nil && len(recs.Hair.Styles) > 0 && recs.Hair.Styles[0].Name != "" {
			hairStyle = recs.Hair.Styles[0].Name
		}
	}

	return fmt.Sprintf("Create a beautiful fashion moodboard collage featuring: %s style outfit in %s colors, "+
		"with %s, %s lipstick, %s hairstyle, styled for %s, high-end fashion photography, clean layout, "+
		"Pinterest style moodboard",
		analysis.StyleClassification, strings.Join(analysis.ColorPalette.Primary, ", "),
		necklace, lips, hairStyle, analysis.Occasion)
}

func indentJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(b)
}
