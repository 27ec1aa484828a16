package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ppiankov/verifact/internal/model"
)

const clusterColumns = `cluster_id, label, claim_ids, representative_claim, claim_count, is_trending,
	trend_score, category, created_at, last_updated`

// UpsertCluster inserts a cluster or replaces the one with the same id,
// keeping its original creation time
func (s *Store) UpsertCluster(ctx context.Context, c model.Cluster) error {
	now := s.timestamp()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	if c.LastUpdated.IsZero() {
		c.LastUpdated = now
	}
	if c.ClaimIDs == nil {
		c.ClaimIDs = []string{}
	}
	ids, err := encodeJSON(c.ClaimIDs)
	if err != nil {
		return fmt.Errorf("encode claim ids: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO clusters (`+clusterColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(cluster_id) DO UPDATE SET
			label = excluded.label,
			claim_ids = excluded.claim_ids,
			representative_claim = excluded.representative_claim,
			claim_count = excluded.claim_count,
			is_trending = excluded.is_trending,
			trend_score = excluded.trend_score,
			category = excluded.category,
			last_updated = excluded.last_updated`,
		c.ClusterID, c.Label, ids, c.RepresentativeClaim, c.ClaimCount, boolInt(c.IsTrending),
		c.TrendScore, string(c.Category), formatTime(c.CreatedAt), formatTime(c.LastUpdated),
	)
	if err != nil {
		return fmt.Errorf("upsert cluster: %w", err)
	}
	return nil
}

// GetCluster returns the cluster with id, or ErrNotFound
func (s *Store) GetCluster(ctx context.Context, id string) (*model.Cluster, error) {
	c, err := scanCluster(s.db.QueryRowContext(ctx, `SELECT `+clusterColumns+` FROM clusters WHERE cluster_id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("cluster %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get cluster: %w", err)
	}
	return c, nil
}

// TrendingClusters returns trending clusters by descending trend score, newest first on ties
func (s *Store) TrendingClusters(ctx context.Context, limit int) ([]model.Cluster, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+clusterColumns+` FROM clusters WHERE is_trending = 1
		 ORDER BY trend_score DESC, last_updated DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query trending clusters: %w", err)
	}
	defer rows.Close()

	out := []model.Cluster{}
	for rows.Next() {
		c, err := scanCluster(rows)
		if err != nil {
			return nil, fmt.Errorf("scan cluster: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func scanCluster(row scanner) (*model.Cluster, error) {
	var (
		c                      model.Cluster
		ids, category          string
		trending               int
		createdAt, lastUpdated string
	)
	err := row.Scan(&c.ClusterID, &c.Label, &ids, &c.RepresentativeClaim, &c.ClaimCount, &trending,
		&c.TrendScore, &category, &createdAt, &lastUpdated)
	if err != nil {
		return nil, err
	}
	c.IsTrending = trending != 0
	c.Category = model.ClaimType(category)
	c.CreatedAt = parseTime(createdAt)
	c.LastUpdated = parseTime(lastUpdated)
	if err := decodeJSON(ids, &c.ClaimIDs); err != nil {
		return nil, fmt.Errorf("decode claim ids: %w", err)
	}
	return &c, nil
}
