// Package cluster groups recent claims into density clusters and tracks trends.
package cluster

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ppiankov/verifact/internal/metrics"
	"github.com/ppiankov/verifact/internal/model"
)

// ErrBudgetExceeded aborts a run whose wall-clock budget ran out before clustering
var ErrBudgetExceeded = errors.New("clustering budget exceeded")

// ClaimSource lists claims eligible for clustering
type ClaimSource interface {
	ListEmbeddedSince(ctx context.Context, since time.Time, limit int) ([]model.Claim, error)
}

// Store persists clusters and membership
type Store interface {
	UpsertCluster(ctx context.Context, c model.Cluster) error
	AssignCluster(ctx context.Context, clusterID string, claimIDs []string) error
	TrendingClusters(ctx context.Context, limit int) ([]model.Cluster, error)
}

// Board mirrors trending clusters somewhere fast to read
type Board interface {
	PublishTrending(ctx context.Context, clusters []model.Cluster) error
}

// Config tunes the engine
type Config struct {
	MinClusterSize    int
	TrendingThreshold int
	MaxClaims         int
	// Dimension is the embedding size in use; claims with other sizes are skipped.
	// Zero keeps the most common size among the claims.
	Dimension int
	// Budget bounds the time spent before clustering starts; zero disables it
	Budget    time.Duration
	Stopwords []string
}

// Engine runs clustering over recent claims
type Engine struct {
	claims  ClaimSource
	store   Store
	board   Board
	cfg     Config
	labeler *Labeler
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// NewEngine creates an engine; board and m may be nil
func NewEngine(claims ClaimSource, store Store, board Board, cfg Config, m *metrics.Metrics, logger *slog.Logger) *Engine {
	if cfg.MinClusterSize < 2 {
		cfg.MinClusterSize = 3
	}
	if cfg.TrendingThreshold <= 0 {
		cfg.TrendingThreshold = 5
	}
	if cfg.MaxClaims <= 0 {
		cfg.MaxClaims = 1000
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		claims:  claims,
		store:   store,
		board:   board,
		cfg:     cfg,
		labeler: NewLabeler(cfg.Stopwords),
		metrics: m,
		logger:  logger.With("component", "cluster"),
		now:     time.Now,
	}
}

// ClusterRecent clusters the embedded claims created within window. Every run
// produces fresh cluster ids; member claims are re-pointed at the new clusters.
func (e *Engine) ClusterRecent(ctx context.Context, window time.Duration) ([]model.Cluster, error) {
	start := e.now()

	claims, err := e.claims.ListEmbeddedSince(ctx, start.Add(-window), e.cfg.MaxClaims)
	if err != nil {
		e.metrics.ClusterRun("error", 0)
		return nil, fmt.Errorf("list recent claims: %w", err)
	}
	claims = e.sameDimension(claims)
	if len(claims) < e.cfg.MinClusterSize {
		e.logger.Info("not enough claims to cluster", "claims", len(claims), "min", e.cfg.MinClusterSize)
		e.metrics.ClusterRun("skipped", 0)
		return []model.Cluster{}, nil
	}
	if e.cfg.Budget > 0 && e.now().Sub(start) > e.cfg.Budget {
		e.metrics.ClusterRun("budget", 0)
		return nil, ErrBudgetExceeded
	}

	points := make([][]float32, len(claims))
	for i, c := range claims {
		points[i] = c.Embedding
	}
	labels := HDBSCAN(points, e.cfg.MinClusterSize)

	clusters := e.build(claims, labels)
	for _, c := range clusters {
		if err := e.store.UpsertCluster(ctx, c); err != nil {
			e.metrics.ClusterRun("error", 0)
			return nil, fmt.Errorf("save cluster %s: %w", c.ClusterID, err)
		}
		if err := e.store.AssignCluster(ctx, c.ClusterID, c.ClaimIDs); err != nil {
			e.metrics.ClusterRun("error", 0)
			return nil, fmt.Errorf("assign cluster %s: %w", c.ClusterID, err)
		}
	}
	e.publish(ctx, clusters)

	e.metrics.ClusterRun("ok", len(clusters))
	e.logger.Info("clustering complete", "claims", len(claims), "clusters", len(clusters))
	return clusters, nil
}

// sameDimension drops claims embedded at a different size, e.g. before an
// embedding model change
func (e *Engine) sameDimension(claims []model.Claim) []model.Claim {
	dim := e.cfg.Dimension
	if dim <= 0 {
		dim = commonLength(len(claims), func(i int) int { return len(claims[i].Embedding) })
	}
	kept := make([]model.Claim, 0, len(claims))
	for _, c := range claims {
		if len(c.Embedding) == dim {
			kept = append(kept, c)
		}
	}
	if skipped := len(claims) - len(kept); skipped > 0 {
		e.logger.Warn("skipping claims with mismatched embedding dimension", "skipped", skipped, "dimension", dim)
	}
	return kept
}

func (e *Engine) build(claims []model.Claim, labels []int) []model.Cluster {
	type group struct {
		ids   []string
		texts []string
		types []model.ClaimType
	}
	var groups []*group
	for i, label := range labels {
		if label == Noise {
			continue
		}
		for len(groups) <= label {
			groups = append(groups, &group{})
		}
		g := groups[label]
		g.ids = append(g.ids, claims[i].ID)
		g.texts = append(g.texts, claims[i].ClaimText)
		g.types = append(g.types, claims[i].ClaimType)
	}

	now := e.now().UTC()
	out := make([]model.Cluster, 0, len(groups))
	for local, g := range groups {
		if len(g.ids) == 0 {
			continue
		}
		count := len(g.ids)
		out = append(out, model.Cluster{
			ClusterID:           fmt.Sprintf("cluster_%d_%d", local, now.UnixNano()),
			Label:               e.labeler.Label(g.texts),
			ClaimIDs:            g.ids,
			RepresentativeClaim: Representative(g.texts),
			ClaimCount:          count,
			IsTrending:          count >= e.cfg.TrendingThreshold,
			TrendScore:          TrendScore(count),
			Category:            Category(g.types),
			CreatedAt:           now,
			LastUpdated:         now,
		})
	}
	return out
}

func (e *Engine) publish(ctx context.Context, clusters []model.Cluster) {
	if e.board == nil {
		return
	}
	var trending []model.Cluster
	for _, c := range clusters {
		if c.IsTrending {
			trending = append(trending, c)
		}
	}
	if trending == nil {
		trending = []model.Cluster{}
	}
	if err := e.board.PublishTrending(ctx, trending); err != nil {
		e.logger.Warn("publish trending clusters", "error", err)
	}
}

// Trending returns trending clusters by descending trend score
func (e *Engine) Trending(ctx context.Context, limit int) ([]model.Cluster, error) {
	if limit <= 0 {
		limit = 10
	}
	clusters, err := e.store.TrendingClusters(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("trending clusters: %w", err)
	}
	return clusters, nil
}

// TrendScore is ten points per member, capped at 100
func TrendScore(count int) float64 {
	return float64(min(100, 10*count))
}
