package llm

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/ppiankov/verifact/internal/cache"
	"github.com/ppiankov/verifact/internal/util"
)

// Embedder turns text into fixed-dimension vectors
type Embedder interface {
	Name() string
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}

// EmbedderConfig configures an embedding provider
type EmbedderConfig struct {
	Provider   string // "openai", "ollama", ""
	Model      string
	APIKey     string
	BaseURL    string
	Dimension  int
	Timeout    int // seconds
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
	Logger     *slog.Logger
}

// NewEmbedder creates an embedding provider. An empty provider name returns
// (nil, nil); the index then stores zero vectors.
func NewEmbedder(config EmbedderConfig) (Embedder, error) {
	if config.Dimension <= 0 {
		return nil, fmt.Errorf("embedding dimension must be positive, got %d", config.Dimension)
	}
	switch strings.ToLower(config.Provider) {
	case "openai":
		return NewOpenAIEmbedder(config)
	case "ollama":
		return NewOllamaEmbedder(config)
	case "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s (supported: openai, ollama)", config.Provider)
	}
}

// OpenAIEmbedder calls the OpenAI embeddings endpoint
type OpenAIEmbedder struct {
	client  *openai.Client
	model   string
	dim     int
	timeout time.Duration
}

// NewOpenAIEmbedder creates a new OpenAI embedder
func NewOpenAIEmbedder(config EmbedderConfig) (*OpenAIEmbedder, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	model := config.Model
	if model == "" {
		model = string(openai.LargeEmbedding3)
	}
	timeout := 30 * time.Second
	if config.Timeout > 0 {
		timeout = time.Duration(config.Timeout) * time.Second
	}
	return &OpenAIEmbedder{
		client:  newOpenAIClient(config.APIKey, config.BaseURL),
		model:   model,
		dim:     config.Dimension,
		timeout: timeout,
	}, nil
}

func (e *OpenAIEmbedder) Name() string   { return "openai" }
func (e *OpenAIEmbedder) Dimension() int { return e.dim }

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: []string{text},
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, fmt.Errorf("OpenAI embeddings error: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("no embedding in OpenAI response")
	}
	return resp.Data[0].Embedding, nil
}

// OllamaEmbedder calls /api/embeddings on a local Ollama daemon
type OllamaEmbedder struct {
	baseURL    string
	model      string
	dim        int
	httpClient *http.Client
}

type ollamaEmbeddingRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbeddingResponse struct {
	Embedding []float64 `json:"embedding"`
}

// NewOllamaEmbedder creates a new Ollama embedder
func NewOllamaEmbedder(config EmbedderConfig) (*OllamaEmbedder, error) {
	if config.Model == "" {
		return nil, fmt.Errorf("ollama embedding model must be specified (e.g., nomic-embed-text)")
	}
	timeout := 60 * time.Second
	if config.Timeout > 0 {
		timeout = time.Duration(config.Timeout) * time.Second
	}
	return &OllamaEmbedder{
		baseURL:    defaultOllamaURL(config.BaseURL),
		model:      config.Model,
		dim:        config.Dimension,
		httpClient: util.NewHTTPClient(timeout, config.HTTPProxy, config.HTTPSProxy, config.NoProxy),
	}, nil
}

func (e *OllamaEmbedder) Name() string   { return "ollama" }
func (e *OllamaEmbedder) Dimension() int { return e.dim }

func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	var resp ollamaEmbeddingResponse
	req := ollamaEmbeddingRequest{Model: e.model, Prompt: text}
	if err := postOllama(ctx, e.httpClient, e.baseURL+"/api/embeddings", req, &resp); err != nil {
		return nil, fmt.Errorf("ollama embeddings error: %w", err)
	}
	if len(resp.Embedding) == 0 {
		return nil, fmt.Errorf("no embedding in ollama response")
	}
	vec := make([]float32, len(resp.Embedding))
	for i, v := range resp.Embedding {
		vec[i] = float32(v)
	}
	return vec, nil
}

// CachedEmbedder memoizes embeddings by text
type CachedEmbedder struct {
	inner Embedder
	cache cache.Cache
	ttl   time.Duration
}

// NewCachedEmbedder wraps inner; a nil cache disables memoization
func NewCachedEmbedder(inner Embedder, c cache.Cache, ttl time.Duration) *CachedEmbedder {
	return &CachedEmbedder{inner: inner, cache: c, ttl: ttl}
}

func (e *CachedEmbedder) Name() string   { return e.inner.Name() }
func (e *CachedEmbedder) Dimension() int { return e.inner.Dimension() }

func (e *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := cache.Key("embedding", e.inner.Name(), text)
	var vec []float32
	if cache.GetJSON(e.cache, key, &vec) && len(vec) == e.inner.Dimension() {
		return vec, nil
	}
	vec, err := e.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	_ = cache.SetJSON(e.cache, key, vec, e.ttl)
	return vec, nil
}
