package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ppiankov/verifact/internal/model"
)

const verdictColumns = `id, claim_id, verdict, confidence, reasoning, sources, explain_like_12, harm_score,
	recommended_action, expert_explanation, tags, model_used, processing_time_seconds,
	human_reviewed, reviewer_id, reviewer_notes, is_published, created_at, updated_at`

// CreateVerdict inserts a verdict, stamping its timestamps
func (s *Store) CreateVerdict(ctx context.Context, v *model.Verdict) error {
	now := s.timestamp()
	v.CreatedAt = now
	v.UpdatedAt = now
	if v.Sources == nil {
		v.Sources = []model.SourceRef{}
	}
	if v.Tags == nil {
		v.Tags = []string{}
	}
	sources, err := encodeJSON(v.Sources)
	if err != nil {
		return fmt.Errorf("encode sources: %w", err)
	}
	tags, err := encodeJSON(v.Tags)
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO verdicts (`+verdictColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.ID, v.ClaimID, string(v.Label), v.Confidence, v.Reasoning, sources, v.ExplainLike12, v.HarmScore,
		string(v.RecommendedAction), v.ExpertExplanation, tags, v.ModelUsed, v.ProcessingTimeSeconds,
		boolInt(v.HumanReviewed), v.ReviewerID, v.ReviewerNotes, boolInt(v.IsPublished),
		formatTime(v.CreatedAt), formatTime(v.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert verdict: %w", err)
	}
	return nil
}

// GetVerdict returns the verdict with id, or ErrNotFound
func (s *Store) GetVerdict(ctx context.Context, id string) (*model.Verdict, error) {
	v, err := scanVerdict(s.db.QueryRowContext(ctx, `SELECT `+verdictColumns+` FROM verdicts WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("verdict %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get verdict: %w", err)
	}
	return v, nil
}

// LatestVerdictForClaim returns the newest verdict recorded for a claim, or ErrNotFound
func (s *Store) LatestVerdictForClaim(ctx context.Context, claimID string) (*model.Verdict, error) {
	v, err := scanVerdict(s.db.QueryRowContext(ctx,
		`SELECT `+verdictColumns+` FROM verdicts WHERE claim_id = ? ORDER BY created_at DESC, rowid DESC LIMIT 1`, claimID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("verdict for claim %s: %w", claimID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get verdict: %w", err)
	}
	return v, nil
}

// ReviewUpdate carries the human-review fields of a verdict. Empty Label and
// Notes leave the stored values untouched.
type ReviewUpdate struct {
	ReviewerID string
	Label      model.Label
	Notes      string
	Publish    bool
}

// ReviewVerdict applies a human review. Only the review fields change, and
// human_reviewed can only be set, never cleared.
func (s *Store) ReviewVerdict(ctx context.Context, id string, r ReviewUpdate) (*model.Verdict, error) {
	err := s.execOne(ctx,
		`UPDATE verdicts SET
			human_reviewed = 1,
			reviewer_id = ?,
			verdict = COALESCE(NULLIF(?, ''), verdict),
			reviewer_notes = COALESCE(NULLIF(?, ''), reviewer_notes),
			is_published = ?,
			updated_at = ?
		 WHERE id = ?`,
		r.ReviewerID, string(r.Label), r.Notes, boolInt(r.Publish), formatTime(s.timestamp()), id,
	)
	if err != nil {
		return nil, fmt.Errorf("review verdict %s: %w", id, err)
	}
	return s.GetVerdict(ctx, id)
}

// VerdictBreakdown counts verdicts per label
func (s *Store) VerdictBreakdown(ctx context.Context) (map[model.Label]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT verdict, COUNT(*) FROM verdicts GROUP BY verdict`)
	if err != nil {
		return nil, fmt.Errorf("verdict breakdown: %w", err)
	}
	defer rows.Close()

	out := make(map[model.Label]int)
	for rows.Next() {
		var (
			label string
			n     int
		)
		if err := rows.Scan(&label, &n); err != nil {
			return nil, fmt.Errorf("scan breakdown: %w", err)
		}
		out[model.Label(label)] = n
	}
	return out, rows.Err()
}

func scanVerdict(row scanner) (*model.Verdict, error) {
	var (
		v                    model.Verdict
		label, action        string
		sources, tags        string
		reviewed, published  int
		createdAt, updatedAt string
	)
	err := row.Scan(&v.ID, &v.ClaimID, &label, &v.Confidence, &v.Reasoning, &sources, &v.ExplainLike12, &v.HarmScore,
		&action, &v.ExpertExplanation, &tags, &v.ModelUsed, &v.ProcessingTimeSeconds,
		&reviewed, &v.ReviewerID, &v.ReviewerNotes, &published, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	v.Label = model.Label(label)
	v.RecommendedAction = model.Action(action)
	v.HumanReviewed = reviewed != 0
	v.IsPublished = published != 0
	v.CreatedAt = parseTime(createdAt)
	v.UpdatedAt = parseTime(updatedAt)
	if err := decodeJSON(sources, &v.Sources); err != nil {
		return nil, fmt.Errorf("decode sources: %w", err)
	}
	if err := decodeJSON(tags, &v.Tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	return &v, nil
}
