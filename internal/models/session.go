package models

import "time"

// StyleSession is the persisted record of one outfit analysis and the
// recommendations generated for it.
type StyleSession struct {
	SessionID       string             `json:"sessionId" bson:"sessionId"`
	UserID          string             `json:"userId,omitempty" bson:"userId,omitempty"`
	OriginalImage   *OriginalImage     `json:"originalImage,omitempty" bson:"originalImage,omitempty"`
	Analysis        AnalysisResult     `json:"analysis" bson:"analysis"`
	Recommendations *RecommendationSet `json:"recommendations,omitempty" bson:"recommendations,omitempty"`
	ProductMatches  []ProductMatch     `json:"productMatches,omitempty" bson:"productMatches,omitempty"`
	MoodboardURL    string             `json:"moodboardUrl,omitempty" bson:"moodboardUrl,omitempty"`
	UserInteraction UserInteraction    `json:"userInteraction" bson:"userInteraction"`
	CreatedAt       time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt" bson:"updatedAt"`
}

type OriginalImage struct {
	URL      string        `json:"url,omitempty" bson:"url,omitempty"`
	Key      string        `json:"key,omitempty" bson:"key,omitempty"`
	Metadata ImageMetadata `json:"metadata" bson:"metadata"`
}

type ImageMetadata struct {
	Size   int64  `json:"size" bson:"size"`
	Format string `json:"format" bson:"format"`
	Width  int    `json:"width" bson:"width"`
	Height int    `json:"height" bson:"height"`
}

type UserInteraction struct {
	Viewed   time.Time `json:"viewed" bson:"viewed"`
	Liked    bool      `json:"liked" bson:"liked"`
	Saved    bool      `json:"saved" bson:"saved"`
	Shared   bool      `json:"shared" bson:"shared"`
	Feedback *Feedback `json:"feedback,omitempty" bson:"feedback,omitempty"`
}

type Feedback struct {
	Rating   int    `json:"rating" bson:"rating"`
	Comments string `json:"comments,omitempty" bson:"comments,omitempty"`
	Helpful  bool   `json:"helpful" bson:"helpful"`
}

// ProductMatch groups purchasable products derived from one recommendation category.
type ProductMatch struct {
	Type     string    `json:"type" bson:"type"`
	Category string    `json:"category" bson:"category"`
	Products []Product `json:"products" bson:"products"`
}

type Product struct {
	ID         string  `json:"id" bson:"id"`
	Name       string  `json:"name" bson:"name"`
	Brand      string  `json:"brand" bson:"brand"`
	Price      float64 `json:"price" bson:"price"`
	ImageURL   string  `json:"imageUrl" bson:"imageUrl"`
	ProductURL string  `json:"productUrl" bson:"productUrl"`
	Rating     float64 `json:"rating" bson:"rating"`
	Reviews    int     `json:"reviews" bson:"reviews"`
	Category   string  `json:"category" bson:"category"`
}
