package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ppiankov/verifact/internal/model"
)

// RaiseAlert stores an alert; it makes the store usable as an alert sink
func (s *Store) RaiseAlert(ctx context.Context, a model.Alert) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = s.timestamp()
	}
	if a.RelatedClaimIDs == nil {
		a.RelatedClaimIDs = []string{}
	}
	related, err := encodeJSON(a.RelatedClaimIDs)
	if err != nil {
		return fmt.Errorf("encode related claims: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO alerts (id, alert_type, title, description, severity, related_claim_ids, cluster_id, is_active, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, string(a.AlertType), a.Title, a.Description, string(a.Severity), related,
		nullString(a.ClusterID), boolInt(a.IsActive), formatTime(a.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert alert: %w", err)
	}
	return nil
}

// ListAlerts returns alerts newest first. An empty severity matches all.
func (s *Store) ListAlerts(ctx context.Context, active bool, severity model.Severity, limit int) ([]model.Alert, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT id, alert_type, title, description, severity, related_claim_ids, cluster_id, is_active, created_at
		FROM alerts WHERE is_active = ?`
	args := []any{boolInt(active)}
	if severity != "" {
		query += ` AND severity = ?`
		args = append(args, string(severity))
	}
	query += ` ORDER BY created_at DESC, rowid DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	defer rows.Close()

	out := []model.Alert{}
	for rows.Next() {
		var (
			a                  model.Alert
			alertType, level   string
			related, createdAt string
			clusterID          sql.NullString
			isActive           int
		)
		if err := rows.Scan(&a.ID, &alertType, &a.Title, &a.Description, &level, &related, &clusterID, &isActive, &createdAt); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		a.AlertType = model.AlertType(alertType)
		a.Severity = model.Severity(level)
		a.ClusterID = clusterID.String
		a.IsActive = isActive != 0
		a.CreatedAt = parseTime(createdAt)
		if err := decodeJSON(related, &a.RelatedClaimIDs); err != nil {
			return nil, fmt.Errorf("decode related claims: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ResolveAlert deactivates an alert
func (s *Store) ResolveAlert(ctx context.Context, id string) error {
	if err := s.execOne(ctx, `UPDATE alerts SET is_active = 0 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("resolve alert %s: %w", id, err)
	}
	return nil
}
