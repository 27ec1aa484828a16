package llm

import (
	"context"
	"log/slog"
	"time"
)

// Provider generates text completions for claim detection and fact checking
type Provider interface {
	// Name returns the provider name
	Name() string

	// Generate runs one completion. When req.JSON is set the provider asks the
	// model for a single JSON object.
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// GenerateRequest is the input for one completion
type GenerateRequest struct {
	System      string
	Prompt      string
	JSON        bool    // constrain output to a JSON object
	Model       string  // overrides the configured model
	MaxTokens   int     // overrides the configured limit
	Temperature float32 // zero uses the configured temperature
}

// GenerateResponse is the raw completion
type GenerateResponse struct {
	Content    string
	Model      string
	TokensUsed int
}

// Config holds provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int

	Temperature float32

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string

	Logger *slog.Logger
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:    "", // Disabled by default
		Timeout:     30,
		MaxTokens:   1500,
		Temperature: 0.1,
	}
}

func (c Config) timeout(fallback time.Duration) time.Duration {
	if c.Timeout <= 0 {
		return fallback
	}
	return time.Duration(c.Timeout) * time.Second
}

func (c Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

func resolveMaxTokens(req GenerateRequest, cfg Config) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	if cfg.MaxTokens > 0 {
		return cfg.MaxTokens
	}
	return 1000
}

func resolveTemperature(req GenerateRequest, cfg Config) float32 {
	if req.Temperature > 0 {
		return req.Temperature
	}
	return cfg.Temperature
}
