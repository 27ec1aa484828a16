package llm

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/ppiankov/verifact/internal/model"
)

// NewProvider creates a generation provider. An empty provider name disables
// generation and returns (nil, nil); callers treat a nil Provider as unavailable.
func NewProvider(config Config) (Provider, error) {
	switch strings.ToLower(config.Provider) {
	case "openai":
		return NewOpenAIProvider(config)

	case "anthropic", "claude":
		return NewAnthropicProvider(config)

	case "ollama":
		return NewOllamaProvider(config)

	case "":
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, anthropic, ollama)", config.Provider)
	}
}

// ConfigFromModel converts the file configuration into provider configuration
func ConfigFromModel(llmCfg model.LLMConfig, httpCfg model.HTTPConfig, logger *slog.Logger) Config {
	return Config{
		Provider:    llmCfg.Provider,
		Model:       llmCfg.Model,
		APIKey:      llmCfg.APIKey,
		BaseURL:     llmCfg.BaseURL,
		Timeout:     llmCfg.Timeout,
		MaxTokens:   llmCfg.MaxTokens,
		Temperature: llmCfg.Temperature,
		HTTPProxy:   httpCfg.HTTPProxy,
		HTTPSProxy:  httpCfg.HTTPSProxy,
		NoProxy:     httpCfg.NoProxy,
		Logger:      logger,
	}
}

// EmbedderConfigFromModel converts the embedding configuration
func EmbedderConfigFromModel(embCfg model.EmbeddingConfig, httpCfg model.HTTPConfig, logger *slog.Logger) EmbedderConfig {
	return EmbedderConfig{
		Provider:   embCfg.Provider,
		Model:      embCfg.Model,
		APIKey:     embCfg.APIKey,
		BaseURL:    embCfg.BaseURL,
		Dimension:  embCfg.Dimension,
		Timeout:    embCfg.Timeout,
		HTTPProxy:  httpCfg.HTTPProxy,
		HTTPSProxy: httpCfg.HTTPSProxy,
		NoProxy:    httpCfg.NoProxy,
		Logger:     logger,
	}
}
