package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/verifact/internal/cache"
)

func TestOpenAIEmbedder_Embed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		_ = json.NewEncoder(w).Encode(openai.EmbeddingResponse{
			Object: "list",
			Data: []openai.Embedding{
				{Object: "embedding", Embedding: []float32{0.1, 0.2, 0.3}, Index: 0},
			},
			Model: openai.LargeEmbedding3,
		})
	}))
	defer server.Close()

	emb, err := NewOpenAIEmbedder(EmbedderConfig{APIKey: "k", BaseURL: server.URL, Dimension: 3})
	require.NoError(t, err)
	vec, err := emb.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
}

func TestOllamaEmbedder_Embed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embeddings", r.URL.Path)
		_, _ = w.Write([]byte(`{"embedding": [1.5, -2.0]}`))
	}))
	defer server.Close()

	emb, err := NewOllamaEmbedder(EmbedderConfig{BaseURL: server.URL, Model: "nomic-embed-text", Dimension: 2})
	require.NoError(t, err)
	vec, err := emb.Embed(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, []float32{1.5, -2.0}, vec)
}

func TestNewEmbedder(t *testing.T) {
	e, err := NewEmbedder(EmbedderConfig{Dimension: 8})
	assert.NoError(t, err)
	assert.Nil(t, e, "no provider disables embedding")

	_, err = NewEmbedder(EmbedderConfig{Provider: "openai", Dimension: 0})
	assert.Error(t, err, "zero dimension")
	_, err = NewEmbedder(EmbedderConfig{Provider: "nope", Dimension: 8})
	assert.Error(t, err, "unknown provider")
}

type countingEmbedder struct {
	calls int
	err   error
}

func (c *countingEmbedder) Name() string   { return "counting" }
func (c *countingEmbedder) Dimension() int { return 2 }
func (c *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return []float32{1, 2}, nil
}

func TestCachedEmbedder(t *testing.T) {
	inner := &countingEmbedder{}
	emb := NewCachedEmbedder(inner, cache.NewLayeredCache(time.Minute, "", 0), time.Minute)

	for i := 0; i < 3; i++ {
		_, err := emb.Embed(context.Background(), "same text")
		require.NoError(t, err)
	}
	assert.Equal(t, 1, inner.calls, "upstream calls")

	failing := NewCachedEmbedder(&countingEmbedder{err: errors.New("boom")}, cache.NewLayeredCache(time.Minute, "", 0), time.Minute)
	_, err := failing.Embed(context.Background(), "x")
	assert.Error(t, err, "upstream error should propagate")
}
