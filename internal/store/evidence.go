package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ppiankov/verifact/internal/model"
)

// AppendEvidence stores a retrieval snapshot; snapshots are never updated
func (s *Store) AppendEvidence(ctx context.Context, rec *model.EvidenceRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.timestamp()
	}
	if rec.Sources == nil {
		rec.Sources = []model.EvidenceSource{}
	}
	if rec.SearchQueries == nil {
		rec.SearchQueries = []string{}
	}
	sources, err := encodeJSON(rec.Sources)
	if err != nil {
		return fmt.Errorf("encode sources: %w", err)
	}
	queries, err := encodeJSON(rec.SearchQueries)
	if err != nil {
		return fmt.Errorf("encode queries: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO evidence (id, claim_id, sources, total_sources_found, search_queries, retrieval_method, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.ClaimID, sources, rec.TotalSourcesFound, queries, rec.RetrievalMethod, formatTime(rec.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert evidence: %w", err)
	}
	return nil
}

// LatestEvidence returns the most recent snapshot for a claim, or ErrNotFound
func (s *Store) LatestEvidence(ctx context.Context, claimID string) (*model.EvidenceRecord, error) {
	var (
		rec              model.EvidenceRecord
		sources, queries string
		createdAt        string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, claim_id, sources, total_sources_found, search_queries, retrieval_method, created_at
		 FROM evidence WHERE claim_id = ? ORDER BY created_at DESC, rowid DESC LIMIT 1`, claimID,
	).Scan(&rec.ID, &rec.ClaimID, &sources, &rec.TotalSourcesFound, &queries, &rec.RetrievalMethod, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("evidence for claim %s: %w", claimID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get evidence: %w", err)
	}
	if err := decodeJSON(sources, &rec.Sources); err != nil {
		return nil, fmt.Errorf("decode sources: %w", err)
	}
	if err := decodeJSON(queries, &rec.SearchQueries); err != nil {
		return nil, fmt.Errorf("decode queries: %w", err)
	}
	rec.CreatedAt = parseTime(createdAt)
	return &rec, nil
}
