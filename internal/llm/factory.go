package llm

import (
	"fmt"

	"github.com/zsunny6658/clipforge/internal/config"
)

// NewProviderFromConfig selects and constructs the Provider named by
// cfg.ApiProvider, using the matching API key.
func NewProviderFromConfig(cfg *config.Config) (Provider, error) {
	switch cfg.ApiProvider {
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("llm: OPENAI_API_KEY is required when API_PROVIDER=openai")
		}
		return NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.ModelName), nil
	case "anthropic":
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("llm: ANTHROPIC_API_KEY is required when API_PROVIDER=anthropic")
		}
		return NewAnthropicProvider(cfg.AnthropicAPIKey, cfg.ModelName), nil
	default:
		return nil, fmt.Errorf("llm: unsupported API_PROVIDER %q", cfg.ApiProvider)
	}
}
