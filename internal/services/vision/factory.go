package vision

import (
	"log/slog"

	"github.com/glamlens/stylist/internal/config"
	"github.com/glamlens/stylist/internal/services/vendors"
)

// NewChain builds the ordered classifier chain from configuration. Providers
// without credentials are skipped so the chain only holds callable adapters.
func NewChain(cfg config.ChainConfig, clients *vendors.Clients) []Classifier {
	var chain []Classifier

	for _, name := range cfg.Providers {
		switch ProviderType(name) {
		case ProviderOpenAI:
			if clients.OpenAI == nil {
				slog.Warn("Skipping vision provider without credentials", "provider", name)
				continue
			}
			chain = append(chain, NewOpenAIClassifier(clients.OpenAI, cfg.Model(name, defaultOpenAIModel), cfg.Timeout))
		case ProviderGemini:
			if clients.Gemini == nil {
				slog.Warn("Skipping vision provider without credentials", "provider", name)
				continue
			}
			chain = append(chain, NewGeminiClassifier(clients.Gemini, cfg.Model(name, defaultGeminiModel), cfg.Timeout))
		default:
			slog.Warn("Unknown vision provider", "provider", name)
		}
	}

	return chain
}
