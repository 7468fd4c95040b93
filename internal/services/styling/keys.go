package styling

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/glamlens/stylist/internal/models"
)

const (
	analysisKeyPrefix       = "analysis:"
	recommendationKeyPrefix = "recommendations:"
	scopeAll                = "all"
)

// AnalysisKey is derived from the raw upload bytes so identical photos share
// one entry regardless of how they were encoded in transit.
func AnalysisKey(image []byte) string {
	sum := sha256.Sum256(image)
	return analysisKeyPrefix + hex.EncodeToString(sum[:])
}

// RecommendationKey hashes the analysis and preferences together. An empty
// category scopes the key to the full set.
func RecommendationKey(analysis models.AnalysisResult, prefs models.Preferences, category models.Category) string {
	a, _ := json.Marshal(analysis)
	p, _ := json.Marshal(prefs)

	h := sha256.New()
	h.Write(a)
	h.Write([]byte{0})
	h.Write(p)

	scope := scopeAll
	if category != "" {
		scope = string(category)
	}
	return recommendationKeyPrefix + scope + ":" + hex.EncodeToString(h.Sum(nil))
}
