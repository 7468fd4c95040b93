package models

import "slices"

// Category names one independently regenerable recommendation section.
type Category string

const (
	CategoryJewelry Category = "jewelry"
	CategoryMakeup  Category = "makeup"
	CategoryHair    Category = "hair"
	CategoryNails   Category = "nails"
	CategoryHenna   Category = "henna"
)

// Categories lists every recommendation category in display order.
var Categories = []Category{CategoryJewelry, CategoryMakeup, CategoryHair, CategoryNails, CategoryHenna}

// ParseCategory validates a category name.
func ParseCategory(s string) (Category, bool) {
	c := Category(s)
	return c, slices.Contains(Categories, c)
}

// RecommendationSet holds one record per category. A nil category is
// missing and gets filled from the static defaults during normalization.
type RecommendationSet struct {
	Jewelry *JewelryRecommendation `json:"jewelry,omitempty" bson:"jewelry,omitempty"`
	Makeup  *MakeupRecommendation  `json:"makeup,omitempty" bson:"makeup,omitempty"`
	Hair    *HairRecommendation    `json:"hair,omitempty" bson:"hair,omitempty"`
	Nails   *NailRecommendation    `json:"nails,omitempty" bson:"nails,omitempty"`
	Henna   *HennaRecommendation   `json:"henna,omitempty" bson:"henna,omitempty"`
}

// Has reports whether the category is present.
func (s *RecommendationSet) Has(c Category) bool {
	return s.Get(c) != nil
}

// Get returns the record for c, or nil if it is missing.
func (s *RecommendationSet) Get(c Category) any {
	if s == nil {
		return nil
	}
	switch c {
	case CategoryJewelry:
		if s.Jewelry != nil {
			return s.Jewelry
		}
	case CategoryMakeup:
		if s.Makeup != nil {
			return s.Makeup
		}
	case CategoryHair:
		if s.Hair != nil {
			return s.Hair
		}
	case CategoryNails:
		if s.Nails != nil {
			return s.Nails
		}
	case CategoryHenna:
		if s.Henna != nil {
			return s.Henna
		}
	}
	return nil
}

// Replace copies category c from src into s, leaving every other
// category untouched.
func (s *RecommendationSet) Replace(c Category, src *RecommendationSet) {
	if src == nil {
		return
	}
	switch c {
	case CategoryJewelry:
		s.Jewelry = src.Jewelry
	case CategoryMakeup:
		s.Makeup = src.Makeup
	case CategoryHair:
		s.Hair = src.Hair
	case CategoryNails:
		s.Nails = src.Nails
	case CategoryHenna:
		s.Henna = src.Henna
	}
}

type JewelryRecommendation struct {
	Necklace  Necklace `json:"necklace" bson:"necklace"`
	Earrings  Earrings `json:"earrings" bson:"earrings"`
	Bracelets Bracelet `json:"bracelets" bson:"bracelets"`
	Rings     Rings    `json:"rings" bson:"rings"`
}

type Necklace struct {
	Name        string   `json:"name" bson:"name"`
	Description string   `json:"description" bson:"description"`
	Style       string   `json:"style" bson:"style"`
	Colors      []string `json:"colors" bson:"colors"`
	Length      string   `json:"length" bson:"length"`
	Metal       string   `json:"metal" bson:"metal"`
}

type Earrings struct {
	Name        string `json:"name" bson:"name"`
	Description string `json:"description" bson:"description"`
	Style       string `json:"style" bson:"style"`
	Size        string `json:"size" bson:"size"`
	Metal       string `json:"metal" bson:"metal"`
}

type Bracelet struct {
	Name        string `json:"name" bson:"name"`
	Description string `json:"description" bson:"description"`
	Style       string `json:"style" bson:"style"`
	Stacking    string `json:"stacking" bson:"stacking"`
}

type Rings struct {
	Name        string     `json:"name" bson:"name"`
	Description string     `json:"description" bson:"description"`
	Style       string     `json:"style" bson:"style"`
	Quantity    FlexString `json:"quantity" bson:"quantity"`
}

type MakeupRecommendation struct {
	Foundation Foundation `json:"foundation" bson:"foundation"`
	Eyes       EyeMakeup  `json:"eyes" bson:"eyes"`
	Lips       Lips       `json:"lips" bson:"lips"`
	Blush      Blush      `json:"blush" bson:"blush"`
}

type Foundation struct {
	Coverage  string `json:"coverage" bson:"coverage"`
	Finish    string `json:"finish" bson:"finish"`
	Undertone string `json:"undertone" bson:"undertone"`
}

type EyeMakeup struct {
	Eyeshadow Eyeshadow `json:"eyeshadow" bson:"eyeshadow"`
	Eyeliner  Eyeliner  `json:"eyeliner" bson:"eyeliner"`
	Mascara   Mascara   `json:"mascara" bson:"mascara"`
}

type Eyeshadow struct {
	Colors    []string `json:"colors" bson:"colors"`
	Finish    string   `json:"finish" bson:"finish"`
	Intensity string   `json:"intensity" bson:"intensity"`
}

type Eyeliner struct {
	Style string `json:"style" bson:"style"`
	Color string `json:"color" bson:"color"`
}

type Mascara struct {
	Type  string `json:"type" bson:"type"`
	Color string `json:"color" bson:"color"`
}

type Lips struct {
	Color     string `json:"color" bson:"color"`
	Finish    string `json:"finish" bson:"finish"`
	Intensity string `json:"intensity" bson:"intensity"`
}

type Blush struct {
	Color     string `json:"color" bson:"color"`
	Placement string `json:"placement" bson:"placement"`
	Intensity string `json:"intensity" bson:"intensity"`
}

type HairRecommendation struct {
	Styles      []HairStyle     `json:"styles" bson:"styles"`
	Accessories []HairAccessory `json:"accessories" bson:"accessories"`
}

type HairStyle struct {
	Name        string `json:"name" bson:"name"`
	Description string `json:"description" bson:"description"`
	Difficulty  string `json:"difficulty" bson:"difficulty"`
	Occasion    string `json:"occasion" bson:"occasion"`
}

type HairAccessory struct {
	Name        string `json:"name" bson:"name"`
	Description string `json:"description" bson:"description"`
	Color       string `json:"color" bson:"color"`
}

type NailRecommendation struct {
	Colors          []string `json:"colors" bson:"colors"`
	Designs         []string `json:"designs" bson:"designs"`
	Length          string   `json:"length" bson:"length"`
	ArtStyle        string   `json:"artStyle" bson:"artStyle"`
	Shape           string   `json:"shape" bson:"shape"`
	GeneratedImages []string `json:"generatedImages,omitempty" bson:"generatedImages,omitempty"`
}

type HennaRecommendation struct {
	Complexity      string   `json:"complexity" bson:"complexity"`
	Style           string   `json:"style" bson:"style"`
	Placement       []string `json:"placement" bson:"placement"`
	Patterns        []string `json:"patterns" bson:"patterns"`
	Cultural        string   `json:"cultural" bson:"cultural"`
	GeneratedImages []string `json:"generatedImages,omitempty" bson:"generatedImages,omitempty"`
}
