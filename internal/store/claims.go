package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ppiankov/verifact/internal/model"
)

const claimColumns = `id, claim_text, raw_text, source, source_type, is_claim, entities, claim_type,
	confidence, embedding, cluster_id, verdict_id, status, language, metadata, created_at, updated_at`

// CreateClaim inserts a new claim, stamping its timestamps
func (s *Store) CreateClaim(ctx context.Context, c *model.Claim) error {
	now := s.timestamp()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	if c.Status == "" {
		c.Status = model.StatusPending
	}
	if c.Language == "" {
		c.Language = "en"
	}
	if c.Entities == nil {
		c.Entities = []model.Entity{}
	}
	if c.Metadata == nil {
		c.Metadata = map[string]string{}
	}

	entities, err := encodeJSON(c.Entities)
	if err != nil {
		return fmt.Errorf("encode entities: %w", err)
	}
	metadata, err := encodeJSON(c.Metadata)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO claims (`+claimColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.ClaimText, c.RawText, c.Source, c.SourceType, boolInt(c.IsClaim), entities, string(c.ClaimType),
		c.Confidence, encodeVector(c.Embedding), nullString(c.ClusterID), nullString(c.VerdictID),
		string(c.Status), c.Language, metadata, formatTime(c.CreatedAt), formatTime(c.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert claim: %w", err)
	}
	return nil
}

// GetClaim returns the claim with id, or ErrNotFound
func (s *Store) GetClaim(ctx context.Context, id string) (*model.Claim, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+claimColumns+` FROM claims WHERE id = ?`, id)
	c, err := scanClaim(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("claim %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get claim: %w", err)
	}
	return c, nil
}

// UpdateClaimStatus sets the verification status of a claim
func (s *Store) UpdateClaimStatus(ctx context.Context, id string, status model.ClaimStatus) error {
	err := s.execOne(ctx, `UPDATE claims SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), formatTime(s.timestamp()), id)
	if err != nil {
		return fmt.Errorf("update claim %s status: %w", id, err)
	}
	return nil
}

// LinkVerdict points a claim at its verdict and marks it verified in one statement
func (s *Store) LinkVerdict(ctx context.Context, claimID, verdictID string) error {
	err := s.execOne(ctx, `UPDATE claims SET verdict_id = ?, status = ?, updated_at = ? WHERE id = ?`,
		verdictID, string(model.StatusVerified), formatTime(s.timestamp()), claimID)
	if err != nil {
		return fmt.Errorf("link verdict to claim %s: %w", claimID, err)
	}
	return nil
}

// AssignCluster records cluster membership for every listed claim
func (s *Store) AssignCluster(ctx context.Context, clusterID string, claimIDs []string) error {
	if len(claimIDs) == 0 {
		return nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(claimIDs)), ",")
	args := make([]any, 0, len(claimIDs)+2)
	args = append(args, clusterID, formatTime(s.timestamp()))
	for _, id := range claimIDs {
		args = append(args, id)
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE claims SET cluster_id = ?, updated_at = ? WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return fmt.Errorf("assign cluster %s: %w", clusterID, err)
	}
	return nil
}

// ListEmbeddedSince returns claims created at or after since that carry an
// embedding, oldest first. limit <= 0 returns all of them.
func (s *Store) ListEmbeddedSince(ctx context.Context, since time.Time, limit int) ([]model.Claim, error) {
	query := `SELECT ` + claimColumns + ` FROM claims
		WHERE embedding IS NOT NULL AND length(embedding) > 0 AND created_at >= ?
		ORDER BY created_at, id`
	args := []any{formatTime(since)}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	return s.queryClaims(ctx, query, args...)
}

// ListByStatusOlderThan returns claims in status whose last update is before cutoff
func (s *Store) ListByStatusOlderThan(ctx context.Context, status model.ClaimStatus, cutoff time.Time) ([]model.Claim, error) {
	return s.queryClaims(ctx,
		`SELECT `+claimColumns+` FROM claims WHERE status = ? AND updated_at < ? ORDER BY updated_at, id`,
		string(status), formatTime(cutoff))
}

// ClaimFilter narrows ListClaims; zero values match everything
type ClaimFilter struct {
	ClaimType model.ClaimType
	Status    model.ClaimStatus
	Offset    int
	Limit     int
}

// ListClaims returns claims newest first
func (s *Store) ListClaims(ctx context.Context, f ClaimFilter) ([]model.Claim, error) {
	var (
		where []string
		args  []any
	)
	if f.ClaimType != "" {
		where = append(where, "claim_type = ?")
		args = append(args, string(f.ClaimType))
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(f.Status))
	}

	query := `SELECT ` + claimColumns + ` FROM claims`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 20
	}
	query += ` ORDER BY created_at DESC, id LIMIT ? OFFSET ?`
	args = append(args, limit, max(f.Offset, 0))
	return s.queryClaims(ctx, query, args...)
}

// ClaimsInCluster returns the members of a cluster
func (s *Store) ClaimsInCluster(ctx context.Context, clusterID string) ([]model.Claim, error) {
	return s.queryClaims(ctx,
		`SELECT `+claimColumns+` FROM claims WHERE cluster_id = ? ORDER BY created_at, id`, clusterID)
}

func (s *Store) queryClaims(ctx context.Context, query string, args ...any) ([]model.Claim, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query claims: %w", err)
	}
	defer rows.Close()

	claims := []model.Claim{}
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, fmt.Errorf("scan claim: %w", err)
		}
		claims = append(claims, *c)
	}
	return claims, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanClaim(row scanner) (*model.Claim, error) {
	var (
		c                    model.Claim
		isClaim              int
		entities, metadata   string
		claimType, status    string
		embedding            []byte
		clusterID, verdictID sql.NullString
		createdAt, updatedAt string
	)
	err := row.Scan(&c.ID, &c.ClaimText, &c.RawText, &c.Source, &c.SourceType, &isClaim, &entities, &claimType,
		&c.Confidence, &embedding, &clusterID, &verdictID, &status, &c.Language, &metadata, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	c.IsClaim = isClaim != 0
	c.ClaimType = model.ClaimType(claimType)
	c.Status = model.ClaimStatus(status)
	c.Embedding = decodeVector(embedding)
	c.ClusterID = clusterID.String
	c.VerdictID = verdictID.String
	c.CreatedAt = parseTime(createdAt)
	c.UpdatedAt = parseTime(updatedAt)
	if err := decodeJSON(entities, &c.Entities); err != nil {
		return nil, fmt.Errorf("decode entities: %w", err)
	}
	if err := decodeJSON(metadata, &c.Metadata); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	return &c, nil
}
