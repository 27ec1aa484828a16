package store

import (
	"context"
	"fmt"

	"github.com/ppiankov/verifact/internal/model"
)

const feedbackLimit = 100

// CreateFeedback stores a feedback item as pending
func (s *Store) CreateFeedback(ctx context.Context, f *model.Feedback) error {
	if f.CreatedAt.IsZero() {
		f.CreatedAt = s.timestamp()
	}
	if f.Status == "" {
		f.Status = model.FeedbackPending
	}
	if f.SupportingLinks == nil {
		f.SupportingLinks = []string{}
	}
	links, err := encodeJSON(f.SupportingLinks)
	if err != nil {
		return fmt.Errorf("encode supporting links: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO feedback (id, claim_id, feedback_type, content, user_email, supporting_links, status, reviewed_by, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.ID, f.ClaimID, string(f.FeedbackType), f.Content, f.UserEmail, links,
		string(f.Status), f.ReviewedBy, formatTime(f.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert feedback: %w", err)
	}
	return nil
}

// FeedbackForClaim returns up to 100 feedback items for a claim, newest first
func (s *Store) FeedbackForClaim(ctx context.Context, claimID string) ([]model.Feedback, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, claim_id, feedback_type, content, user_email, supporting_links, status, reviewed_by, created_at
		 FROM feedback WHERE claim_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		claimID, feedbackLimit)
	if err != nil {
		return nil, fmt.Errorf("query feedback: %w", err)
	}
	defer rows.Close()

	out := []model.Feedback{}
	for rows.Next() {
		var (
			f                model.Feedback
			kind, status     string
			links, createdAt string
		)
		if err := rows.Scan(&f.ID, &f.ClaimID, &kind, &f.Content, &f.UserEmail, &links, &status, &f.ReviewedBy, &createdAt); err != nil {
			return nil, fmt.Errorf("scan feedback: %w", err)
		}
		f.FeedbackType = model.FeedbackType(kind)
		f.Status = model.FeedbackStatus(status)
		f.CreatedAt = parseTime(createdAt)
		if err := decodeJSON(links, &f.SupportingLinks); err != nil {
			return nil, fmt.Errorf("decode supporting links: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// ResolveFeedback records the moderation outcome of a feedback item
func (s *Store) ResolveFeedback(ctx context.Context, id string, status model.FeedbackStatus, reviewer string) error {
	err := s.execOne(ctx, `UPDATE feedback SET status = ?, reviewed_by = ? WHERE id = ?`, string(status), reviewer, id)
	if err != nil {
		return fmt.Errorf("resolve feedback %s: %w", id, err)
	}
	return nil
}
