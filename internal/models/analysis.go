package models

// ColorPalette groups hex color codes extracted from an outfit.
type ColorPalette struct {
	Primary   []string `json:"primary" bson:"primary"`
	Secondary []string `json:"secondary" bson:"secondary"`
	Accent    []string `json:"accent" bson:"accent"`
}

// AnalysisResult is the structured classification of an outfit photo.
// Confidence is always within [0,100] once normalized.
type AnalysisResult struct {
	ColorPalette        ColorPalette `json:"colorPalette" bson:"colorPalette"`
	StyleClassification string       `json:"styleClassification" bson:"styleClassification"`
	Neckline            string       `json:"neckline" bson:"neckline"`
	Fabric              string       `json:"fabric" bson:"fabric"`
	Aesthetic           string       `json:"aesthetic" bson:"aesthetic"`
	SkinTone            string       `json:"skinTone" bson:"skinTone"`
	Occasion            string       `json:"occasion" bson:"occasion"`
	Confidence          int          `json:"confidence" bson:"confidence"`
}

// Source reports where a pipeline result came from.
type Source string

const (
	SourceCache    Source = "cache"
	SourceProvider Source = "provider"
	SourceDefault  Source = "default"
)
