package catalog

import (
	"context"

	"github.com/glamlens/stylist/internal/models"
)

const placeholderImage = "https://via.placeholder.com/300x300/"

// Matcher derives purchasable products from recommendations.
type Matcher interface {
	Match(ctx context.Context, recs *models.RecommendationSet, analysis models.AnalysisResult) []models.ProductMatch
}

// MockMatcher returns a fixed catalog whose product names are taken from the
// recommendations. It stands in for retailer APIs.
type MockMatcher struct{}

func NewMockMatcher() *MockMatcher {
	return &MockMatcher{}
}

// Match returns one group per jewelry, makeup and nails category present in
// recs. Hair and henna have no products.
func (m *MockMatcher) Match(_ context.Context, recs *models.RecommendationSet, _ models.AnalysisResult) []models.ProductMatch {
	if recs == nil {
		return nil
	}

	var matches []models.ProductMatch
	if recs.Jewelry != nil {
		matches = append(matches, models.ProductMatch{
			Type:     string(models.CategoryJewelry),
			Category: "accessories",
			Products: jewelryProducts(recs.Jewelry),
		})
	}
	if recs.Makeup != nil {
		matches = append(matches, models.ProductMatch{
			Type:     string(models.CategoryMakeup),
			Category: "beauty",
			Products: makeupProducts(recs.Makeup),
		})
	}
	if recs.Nails != nil {
		matches = append(matches, models.ProductMatch{
			Type:     string(models.CategoryNails),
			Category: "beauty",
			Products: nailProducts(recs.Nails),
		})
	}
	return matches
}

func jewelryProducts(j *models.JewelryRecommendation) []models.Product {
	return []models.Product{
		{
			ID:         "j1",
			Name:       orDefault(j.Necklace.Name, "Elegant Necklace"),
			Brand:      "Pandora",
			Price:      89.99,
			ImageURL:   placeholderImage + "gold/white?text=Necklace",
			ProductURL: "#",
			Rating:     4.5,
			Reviews:    127,
			Category:   "necklace",
		},
		{
			ID:         "j2",
			Name:       orDefault(j.Earrings.Name, "Classic Earrings"),
			Brand:      "Tiffany & Co",
			Price:      125.00,
			ImageURL:   placeholderImage + "silver/white?text=Earrings",
			ProductURL: "#",
			Rating:     4.8,
			Reviews:    89,
			Category:   "earrings",
		},
	}
}

func makeupProducts(m *models.MakeupRecommendation) []models.Product {
	return []models.Product{
		{
			ID:         "m1",
			Name:       orDefault(m.Foundation.Coverage, "Medium") + " Coverage Foundation",
			Brand:      "Fenty Beauty",
			Price:      36.00,
			ImageURL:   placeholderImage + "tan/white?text=Foundation",
			ProductURL: "#",
			Rating:     4.6,
			Reviews:    342,
			Category:   "foundation",
		},
		{
			ID:         "m2",
			Name:       orDefault(m.Lips.Color, "Nude Pink") + " Lipstick",
			Brand:      "MAC",
			Price:      28.00,
			ImageURL:   placeholderImage + "pink/white?text=Lipstick",
			ProductURL: "#",
			Rating:     4.7,
			Reviews:    156,
			Category:   "lips",
		},
	}
}

func nailProducts(n *models.NailRecommendation) []models.Product {
	first := ""
	if len(n.Colors) > 0 {
		first = n.Colors[0]
	}
	return []models.Product{
		{
			ID:         "n1",
			Name:       orDefault(first, "Classic") + " Nail Polish",
			Brand:      "OPI",
			Price:      12.50,
			ImageURL:   placeholderImage + "red/white?text=Nail+Polish",
			ProductURL: "#",
			Rating:     4.4,
			Reviews:    89,
			Category:   "nail-polish",
		},
		{
			ID:         "n2",
			Name:       "Nail Art Kit",
			Brand:      "Sally Hansen",
			Price:      24.99,
			ImageURL:   placeholderImage + "purple/white?text=Nail+Kit",
			ProductURL: "#",
			Rating:     4.2,
			Reviews:    67,
			Category:   "nail-tools",
		},
	}
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
