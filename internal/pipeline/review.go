package pipeline

import (
	"context"
	"fmt"

	"github.com/ppiankov/verifact/internal/model"
	"github.com/ppiankov/verifact/internal/store"
)

// Review records a human review of a verdict. An override must be one of the
// five verdict labels. Once reviewed, a verdict stays reviewed.
func (p *Pipeline) Review(ctx context.Context, verdictID string, r model.Review) (*model.Verdict, error) {
	if err := p.check(r); err != nil {
		return nil, err
	}
	update := store.ReviewUpdate{
		ReviewerID: r.ReviewerID,
		Notes:      r.Notes,
		Publish:    r.Approve,
	}
	if r.OverrideVerdict != "" {
		label, ok := model.ParseLabel(r.OverrideVerdict)
		if !ok {
			return nil, fmt.Errorf("%w: unknown verdict %q", ErrInvalidInput, r.OverrideVerdict)
		}
		update.Label = label
	}

	v, err := p.store.ReviewVerdict(ctx, verdictID, update)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", notFound(err, ErrVerdictNotFound), verdictID)
	}
	p.logger.Info("verdict reviewed",
		"verdict_id", verdictID,
		"reviewer_id", r.ReviewerID,
		"verdict", v.Label,
		"published", v.IsPublished,
	)
	return v, nil
}
