package recommend

import (
	"log/slog"

	"github.com/glamlens/stylist/internal/config"
	"github.com/glamlens/stylist/internal/services/vendors"
)

// NewChain builds the ordered generator chain from configuration, skipping
// providers without credentials.
func NewChain(cfg config.ChainConfig, clients *vendors.Clients) []Generator {
	var chain []Generator

	for _, name := range cfg.Providers {
		switch ProviderType(name) {
		case ProviderAnthropic:
			if clients.Anthropic == nil {
				slog.Warn("Skipping recommendation provider without credentials", "provider", name)
				continue
			}
			chain = append(chain, NewAnthropicGenerator(clients.Anthropic, cfg.Model(name, defaultAnthropicModel), cfg.Timeout))
		case ProviderOpenAI:
			if clients.OpenAI == nil {
				slog.Warn("Skipping recommendation provider without credentials", "provider", name)
				continue
			}
			chain = append(chain, NewOpenAIGenerator(clients.OpenAI, cfg.Model(name, defaultOpenAIModel), cfg.Timeout))
		case ProviderGemini:
			if clients.Gemini == nil {
				slog.Warn("Skipping recommendation provider without credentials", "provider", name)
				continue
			}
			chain = append(chain, NewGeminiGenerator(clients.Gemini, cfg.Model(name, defaultGeminiModel), cfg.Timeout))
		default:
			slog.Warn("Unknown recommendation provider", "provider", name)
		}
	}

	return chain
}
