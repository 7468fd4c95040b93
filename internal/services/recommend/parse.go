package recommend

import (
	"encoding/json"

	"github.com/glamlens/stylist/internal/errors"
	"github.com/glamlens/stylist/internal/models"
	"github.com/glamlens/stylist/internal/services/ai"
	"github.com/tidwall/gjson"
)

// ParseRecommendations decodes the first JSON object of a model reply into a
// RecommendationSet. For a single-category request the model may answer with
// the category wrapped ({"nails": {...}}) or bare ({"colors": [...]}); both
// are accepted.
func ParseRecommendations(provider, text string, category models.Category) (*models.RecommendationSet, error) {
	obj, err := ai.ExtractJSONObject(text)
	if err != nil {
		return nil, errors.NewProviderResponseError(provider+" returned no JSON recommendations", "RECOMMENDATIONS_NO_JSON", err)
	}

	if category != "" && !gjson.Get(obj, string(category)).IsObject() {
		wrapped, _ := json.Marshal(map[string]json.RawMessage{string(category): json.RawMessage(obj)})
		obj = string(wrapped)
	}

	var set models.RecommendationSet
	if err := json.Unmarshal([]byte(obj), &set); err != nil {
		return nil, errors.NewProviderResponseError(provider+" recommendations do not match the expected schema", "RECOMMENDATIONS_SCHEMA_MISMATCH", err)
	}

	if category != "" {
		if !set.Has(category) {
			return nil, errors.NewProviderResponseError(provider+" response is missing the "+string(category)+" category", "RECOMMENDATIONS_CATEGORY_MISSING", nil)
		}
		scoped := &models.RecommendationSet{}
		scoped.Replace(category, &set)
		return scoped, nil
	}

	for _, c := range models.Categories {
		if set.Has(c) {
			return &set, nil
		}
	}
	return nil, errors.NewProviderResponseError(provider+" response contains no recommendation categories", "RECOMMENDATIONS_EMPTY", nil)
}
