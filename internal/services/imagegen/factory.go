package imagegen

import (
	"log/slog"

	"github.com/glamlens/stylist/internal/config"
	"github.com/glamlens/stylist/internal/services/vendors"
)

// NewChain builds the ordered image generator chain from configuration,
// skipping providers without credentials.
func NewChain(cfg config.ChainConfig, clients *vendors.Clients) []Generator {
	var chain []Generator

	for _, name := range cfg.Providers {
		switch ProviderType(name) {
		case ProviderDalle:
			if clients.OpenAI == nil {
				slog.Warn("Skipping image provider without credentials", "provider", name)
				continue
			}
			chain = append(chain, NewDalleGenerator(clients.OpenAI, cfg.Model(name, ""), cfg.Timeout))
		case ProviderReplicate:
			if clients.ReplicateToken == "" {
				slog.Warn("Skipping image provider without credentials", "provider", name)
				continue
			}
			chain = append(chain, NewReplicateGenerator(clients.ReplicateHTTP, clients.ReplicateToken, cfg.Model(name, "")))
		default:
			slog.Warn("Unknown image provider", "provider", name)
		}
	}

	return chain
}
