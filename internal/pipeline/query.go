package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ppiankov/verifact/internal/index"
	"github.com/ppiankov/verifact/internal/model"
	"github.com/ppiankov/verifact/internal/store"
)

// Similar returns up to k stored claims whose text is semantically close to text
func (p *Pipeline) Similar(ctx context.Context, text string, k int, threshold float64) []model.SimilarClaim {
	if p.index == nil {
		return []model.SimilarClaim{}
	}
	return toSimilar(p.index.Search(ctx, text, k, threshold), "")
}

func toSimilar(matches []index.Match, exclude string) []model.SimilarClaim {
	out := make([]model.SimilarClaim, 0, len(matches))
	for _, m := range matches {
		if m.ClaimID == exclude {
			continue
		}
		out = append(out, model.SimilarClaim{ClaimID: m.ClaimID, ClaimText: m.ClaimText, Similarity: m.Similarity})
	}
	return out
}

// ClaimDetail returns a claim with its verdict, latest evidence and close neighbours
func (p *Pipeline) ClaimDetail(ctx context.Context, claimID string) (*model.ClaimDetail, error) {
	claim, err := p.store.GetClaim(ctx, claimID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", notFound(err, ErrClaimNotFound), claimID)
	}
	detail := &model.ClaimDetail{Claim: *claim}

	if claim.VerdictID != "" {
		v, err := p.store.GetVerdict(ctx, claim.VerdictID)
		switch {
		case err == nil:
			detail.Verdict = v
		case !errors.Is(err, store.ErrNotFound):
			return nil, err
		}
	}

	rec, err := p.store.LatestEvidence(ctx, claimID)
	switch {
	case err == nil:
		detail.Evidence = rec
	case !errors.Is(err, store.ErrNotFound):
		return nil, err
	}

	var matches []index.Match
	switch {
	case p.index == nil:
	case len(claim.Embedding) == p.index.Dimension():
		// one extra slot since the claim finds itself
		matches = p.index.SearchVector(claim.Embedding, detailSimilarK+1, detailSimilarThreshold)
	default:
		matches = p.index.Search(ctx, claim.ClaimText, detailSimilarK+1, detailSimilarThreshold)
	}
	detail.SimilarClaims = toSimilar(matches, claimID)
	if len(detail.SimilarClaims) > detailSimilarK {
		detail.SimilarClaims = detail.SimilarClaims[:detailSimilarK]
	}
	return detail, nil
}

// ListClaims returns stored claims, newest first
func (p *Pipeline) ListClaims(ctx context.Context, f store.ClaimFilter) ([]model.Claim, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, f.Status)
	}
	return p.store.ListClaims(ctx, f)
}

// RefreshClusters clusters the claims ingested within window
func (p *Pipeline) RefreshClusters(ctx context.Context, window time.Duration) ([]model.Cluster, error) {
	if p.clusters == nil {
		return nil, errors.New("clustering is not configured")
	}
	ctx, span := tracer.Start(ctx, "pipeline.RefreshClusters")
	defer span.End()
	return p.clusters.ClusterRecent(ctx, window)
}

// Trending returns trending clusters, highest trend score first
func (p *Pipeline) Trending(ctx context.Context, limit int) ([]model.Cluster, error) {
	if p.clusters == nil {
		return p.store.TrendingClusters(ctx, limit)
	}
	return p.clusters.Trending(ctx, limit)
}

// ClusterDetail returns a cluster with its member claims
func (p *Pipeline) ClusterDetail(ctx context.Context, clusterID string) (*model.ClusterDetail, error) {
	c, err := p.store.GetCluster(ctx, clusterID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", notFound(err, ErrClusterNotFound), clusterID)
	}
	members, err := p.store.ClaimsInCluster(ctx, clusterID)
	if err != nil {
		return nil, err
	}
	return &model.ClusterDetail{Cluster: *c, Claims: members}, nil
}

// Stats summarizes the store
func (p *Pipeline) Stats(ctx context.Context) (model.Stats, error) {
	return p.store.Stats(ctx)
}

// ListAlerts returns alerts newest first; an empty severity matches all
func (p *Pipeline) ListAlerts(ctx context.Context, active bool, severity model.Severity, limit int) ([]model.Alert, error) {
	return p.store.ListAlerts(ctx, active, severity, limit)
}

// ResolveAlert deactivates an alert
func (p *Pipeline) ResolveAlert(ctx context.Context, alertID string) error {
	return p.store.ResolveAlert(ctx, alertID)
}

// IndexStats describes the similarity index
func (p *Pipeline) IndexStats() index.Stats {
	if p.index == nil {
		return index.Stats{}
	}
	return p.index.Stats()
}

// RebuildIndex repopulates the similarity index from every stored claim
func (p *Pipeline) RebuildIndex(ctx context.Context) (int, error) {
	if p.index == nil {
		return 0, ErrNoIndex
	}
	claims, err := p.store.ListEmbeddedSince(ctx, time.Time{}, 0)
	if err != nil {
		return 0, err
	}
	return p.index.Rebuild(ctx, claims)
}
