package store

import (
	"context"
	"fmt"

	"github.com/ppiankov/verifact/internal/model"
)

// Stats summarizes claim, verdict, cluster, alert and feedback counts
func (s *Store) Stats(ctx context.Context) (model.Stats, error) {
	var st model.Stats
	err := s.db.QueryRowContext(ctx, `SELECT
		(SELECT COUNT(*) FROM claims),
		(SELECT COUNT(*) FROM claims WHERE status = ?),
		(SELECT COUNT(*) FROM clusters WHERE is_trending = 1),
		(SELECT COUNT(*) FROM alerts WHERE is_active = 1),
		(SELECT COUNT(*) FROM feedback WHERE status = ?)`,
		string(model.StatusVerified), string(model.FeedbackPending),
	).Scan(&st.TotalClaims, &st.VerifiedClaims, &st.TrendingClusters, &st.ActiveAlerts, &st.PendingFeedback)
	if err != nil {
		return model.Stats{}, fmt.Errorf("stats: %w", err)
	}

	st.VerdictBreakdown, err = s.VerdictBreakdown(ctx)
	if err != nil {
		return model.Stats{}, err
	}
	return st, nil
}
