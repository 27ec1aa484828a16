package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ppiankov/verifact/internal/model"
	"github.com/ppiankov/verifact/internal/store"
)

// ReconcileResult counts the claims repaired by Reconcile
type ReconcileResult struct {
	Linked int `json:"linked"` // verdict existed, claim stamped verified
	Reset  int `json:"reset"`  // no verdict, claim returned to pending
}

// Reconcile repairs claims left in processing for longer than staleAfter.
// A claim whose verdict was written is linked to it; any other claim goes
// back to pending so it can be verified again.
func (p *Pipeline) Reconcile(ctx context.Context, staleAfter time.Duration) (ReconcileResult, error) {
	var res ReconcileResult
	stuck, err := p.store.ListByStatusOlderThan(ctx, model.StatusProcessing, p.now().Add(-staleAfter))
	if err != nil {
		return res, fmt.Errorf("list stale claims: %w", err)
	}

	for _, c := range stuck {
		v, err := p.store.LatestVerdictForClaim(ctx, c.ID)
		switch {
		case err == nil:
			if err := p.store.LinkVerdict(ctx, c.ID, v.ID); err != nil {
				return res, err
			}
			res.Linked++
		case errors.Is(err, store.ErrNotFound):
			if err := p.store.UpdateClaimStatus(ctx, c.ID, model.StatusPending); err != nil {
				return res, err
			}
			res.Reset++
		default:
			return res, err
		}
	}
	if len(stuck) > 0 {
		p.logger.Info("reconciled stale claims", "linked", res.Linked, "reset", res.Reset)
	}
	return res, nil
}
