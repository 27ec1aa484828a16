// Package index embeds claim text and answers nearest-neighbour queries over
// a persisted, exact flat Euclidean index.
package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dgraph-io/badger/v4"

	"github.com/ppiankov/verifact/internal/llm"
	"github.com/ppiankov/verifact/internal/metrics"
	"github.com/ppiankov/verifact/internal/model"
)

// ErrDimensionMismatch is returned when a vector does not match the index dimension
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

const (
	defaultK  = 10
	indexType = "FlatL2"
)

// Match is one search result
type Match struct {
	ClaimID    string  `json:"claim_id"`
	ClaimText  string  `json:"claim_text"`
	Similarity float64 `json:"similarity"`
	Distance   float64 `json:"distance"`
}

// Stats describes the index
type Stats struct {
	Total     int    `json:"total"`
	Dimension int    `json:"dimension"`
	IndexType string `json:"index_type"`
}

// Config configures the index service
type Config struct {
	// Path of the badger directory; empty keeps the index in memory
	Path      string
	Dimension int
	Embedder  llm.Embedder
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
}

// Service owns the embedder, the in-memory index and its persistence
type Service struct {
	mu       sync.RWMutex
	db       *badger.DB
	idx      *flat
	embedder llm.Embedder
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// Open loads the persisted index. A store whose metadata and entries disagree,
// or whose vectors have the wrong dimension, is wiped and reinitialised.
func Open(cfg Config) (*Service, error) {
	if cfg.Dimension <= 0 {
		return nil, fmt.Errorf("index dimension must be positive, got %d", cfg.Dimension)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "index")

	db, err := openDB(cfg.Path, logger)
	if err != nil {
		return nil, err
	}

	entries, err := load(db, cfg.Dimension)
	if err != nil {
		if !errors.Is(err, errCorrupt) {
			_ = db.Close()
			return nil, fmt.Errorf("load index: %w", err)
		}
		logger.Warn("index store corrupt, resetting", "error", err)
		if err := reset(db, cfg.Dimension); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("reset index: %w", err)
		}
		entries = nil
	}

	s := &Service{
		db:       db,
		idx:      &flat{dim: cfg.Dimension, entries: entries},
		embedder: cfg.Embedder,
		metrics:  cfg.Metrics,
		logger:   logger,
	}
	s.metrics.IndexSize(len(entries))
	logger.Debug("index loaded", "entries", len(entries), "dimension", cfg.Dimension)
	return s, nil
}

// Close releases the underlying store
func (s *Service) Close() error {
	return s.db.Close()
}

// Dimension returns the configured vector dimension
func (s *Service) Dimension() int { return s.idx.dim }

// Embed returns the embedding of text. Provider failures, a missing provider
// or a wrong-sized vector produce a zero vector of the configured dimension.
func (s *Service) Embed(ctx context.Context, text string) []float32 {
	if s.embedder == nil {
		s.metrics.EmbeddingZeroed()
		return make([]float32, s.idx.dim)
	}
	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		s.logger.Warn("embedding failed, using zero vector", "error", err)
		s.metrics.EmbeddingZeroed()
		return make([]float32, s.idx.dim)
	}
	if len(vec) != s.idx.dim {
		s.logger.Warn("embedding dimension mismatch, using zero vector", "got", len(vec), "want", s.idx.dim)
		s.metrics.EmbeddingZeroed()
		return make([]float32, s.idx.dim)
	}
	return vec
}

// Insert appends a claim to the index, embedding text when vec is nil.
// The entry is persisted before it becomes visible to searches.
func (s *Service) Insert(ctx context.Context, claimID, text string, vec []float32) error {
	if vec == nil {
		vec = s.Embed(ctx, text)
	}
	if len(vec) != s.idx.dim {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vec), s.idx.dim)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e := entry{ClaimID: claimID, ClaimText: text, Vector: append([]float32(nil), vec...)}
	pos := len(s.idx.entries)
	if err := persist(s.db, pos, e, s.idx.dim); err != nil {
		return fmt.Errorf("persist index entry: %w", err)
	}
	s.idx.entries = append(s.idx.entries, e)
	s.metrics.IndexSize(len(s.idx.entries))
	return nil
}

// Search embeds text and returns up to k claims with similarity >= threshold
func (s *Service) Search(ctx context.Context, text string, k int, threshold float64) []Match {
	return s.SearchVector(s.Embed(ctx, text), k, threshold)
}

// SearchVector returns up to k claims nearest to vec with similarity >= threshold,
// ordered by ascending distance. k <= 0 defaults to 10.
func (s *Service) SearchVector(vec []float32, k int, threshold float64) []Match {
	if k <= 0 {
		k = defaultK
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.idx.entries) == 0 || len(vec) != s.idx.dim {
		return []Match{}
	}

	hits := s.idx.nearest(vec, k)
	out := make([]Match, 0, len(hits))
	for _, h := range hits {
		sim := Similarity(h.distance)
		if sim < threshold {
			continue
		}
		e := s.idx.entries[h.pos]
		out = append(out, Match{
			ClaimID:    e.ClaimID,
			ClaimText:  e.ClaimText,
			Similarity: sim,
			Distance:   h.distance,
		})
	}
	return out
}

// Stats reports the index size
func (s *Service) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{Total: len(s.idx.entries), Dimension: s.idx.dim, IndexType: indexType}
}

// Rebuild discards the index and re-inserts every claim, embedding those
// without a stored vector of the right dimension. It returns the number indexed.
func (s *Service) Rebuild(ctx context.Context, claims []model.Claim) (int, error) {
	s.mu.Lock()
	if err := reset(s.db, s.idx.dim); err != nil {
		s.mu.Unlock()
		return 0, err
	}
	s.idx.entries = nil
	s.mu.Unlock()

	n := 0
	for _, c := range claims {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		vec := c.Embedding
		if len(vec) != s.idx.dim {
			vec = nil
		}
		if err := s.Insert(ctx, c.ID, c.ClaimText, vec); err != nil {
			return n, fmt.Errorf("rebuild claim %s: %w", c.ID, err)
		}
		n++
	}
	s.logger.Info("index rebuilt", "entries", n)
	return n, nil
}
