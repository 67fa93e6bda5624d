package narrative

import (
	"fmt"

	"github.com/ironsheep/nutriscan-mcp/internal/config"
)

// NewGenerator builds the generator selected by cfg. It returns nil, nil
// when narrative generation is disabled.
func NewGenerator(cfg config.Narrative) (Generator, error) {
	switch cfg.Provider {
	case config.ProviderNone, config.ProviderAuto, "":
		if cfg.Provider == config.ProviderAuto && cfg.APIToken != "" {
			return newHuggingFaceFromConfig(cfg), nil
		}
		return nil, nil
	case config.ProviderHuggingFace:
		return newHuggingFaceFromConfig(cfg), nil
	case config.ProviderOpenAI, config.ProviderOllama:
		lc, err := NewLangChain(LangChainOptions{
			Provider:    cfg.Provider,
			Model:       cfg.Model,
			Token:       cfg.APIToken,
			BaseURL:     cfg.URL,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
		})
		if err != nil {
			return nil, err
		}
		return lc, nil
	default:
		return nil, fmt.Errorf("unsupported narrative provider: %q", cfg.Provider)
	}
}

func newHuggingFaceFromConfig(cfg config.Narrative) Generator {
	return NewHuggingFace(HuggingFaceOptions{
		URL:     cfg.URL,
		Token:   cfg.APIToken,
		Timeout: cfg.Timeout,
	})
}
