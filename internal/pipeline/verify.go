package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/ppiankov/verifact/internal/model"
	"github.com/ppiankov/verifact/internal/store"
	"github.com/ppiankov/verifact/internal/util"
)

// VerifyResult is the verdict for a claim and the evidence it rests on.
// Evidence is nil when an existing verdict was returned.
type VerifyResult struct {
	Verdict  model.Verdict         `json:"verdict"`
	Evidence *model.EvidenceRecord `json:"evidence,omitempty"`
	Alert    *model.Alert          `json:"alert,omitempty"`
	Cached   bool                  `json:"cached"`
}

// Verify retrieves evidence for a claim and records a verdict. A claim that
// already has a verdict returns it unless force is set.
//
// The claim moves pending -> processing -> verified. The verdict is written
// before the claim is stamped, so a crash leaves the claim in processing for
// Reconcile to repair.
func (p *Pipeline) Verify(ctx context.Context, claimID string, force bool) (*VerifyResult, error) {
	ctx, span := tracer.Start(ctx, "pipeline.Verify")
	defer span.End()
	span.SetAttributes(attribute.String("claim.id", claimID), attribute.Bool("verify.force", force))

	claim, err := p.store.GetClaim(ctx, claimID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", notFound(err, ErrClaimNotFound), claimID)
	}

	if claim.VerdictID != "" && !force {
		existing, err := p.store.GetVerdict(ctx, claim.VerdictID)
		if err == nil {
			span.SetAttributes(attribute.Bool("verify.cached", true))
			return &VerifyResult{Verdict: *existing, Cached: true}, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		p.logger.Warn("claim references a missing verdict, re-verifying", "claim_id", claimID, "verdict_id", claim.VerdictID)
	}

	res, err := p.verify(ctx, claim, force)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		if serr := p.store.UpdateClaimStatus(ctx, claimID, model.StatusError); serr != nil {
			p.logger.Error("mark claim failed", "claim_id", claimID, "error", serr)
		}
		return nil, fmt.Errorf("verify claim %s: %w", claimID, err)
	}
	span.SetAttributes(
		attribute.String("verdict.label", string(res.Verdict.Label)),
		attribute.Int("verdict.harm_score", res.Verdict.HarmScore),
	)
	return res, nil
}

func (p *Pipeline) verify(ctx context.Context, claim *model.Claim, fresh bool) (*VerifyResult, error) {
	start := p.now()
	if err := p.store.UpdateClaimStatus(ctx, claim.ID, model.StatusProcessing); err != nil {
		return nil, err
	}

	retrieve := p.evidence.Retrieve
	if fresh {
		retrieve = p.evidence.RetrieveFresh
	}
	found := retrieve(ctx, claim.ClaimText, claim.Entities)
	sources := p.enrich(ctx, found.Sources)

	rec := &model.EvidenceRecord{
		ID:                uuid.NewString(),
		ClaimID:           claim.ID,
		Sources:           sources,
		TotalSourcesFound: found.TotalFound,
		SearchQueries:     found.SearchQueries,
		RetrievalMethod:   found.Method,
	}
	if err := p.store.AppendEvidence(ctx, rec); err != nil {
		return nil, err
	}

	v := p.verdicts.FactCheck(ctx, claim.ClaimText, sources)
	v.ID = uuid.NewString()
	v.ClaimID = claim.ID
	if err := p.store.CreateVerdict(ctx, &v); err != nil {
		return nil, err
	}
	if err := p.store.LinkVerdict(ctx, claim.ID, v.ID); err != nil {
		return nil, err
	}
	p.metrics.VerdictProduced(string(v.Label), p.now().Sub(start))

	res := &VerifyResult{Verdict: v, Evidence: rec}
	if p.alerts != nil {
		a, err := p.alerts.Evaluate(ctx, *claim, v)
		if err != nil {
			// the verdict stands; alert delivery is best effort
			p.logger.Error("alert delivery failed", "claim_id", claim.ID, "error", err)
		}
		res.Alert = a
	}

	p.logger.Info("claim verified",
		"claim_id", claim.ID,
		"verdict_id", v.ID,
		"verdict", v.Label,
		"harm_score", v.HarmScore,
		"sources", len(v.Sources),
	)
	return res, nil
}

// enrich fills missing excerpts from the source page when a fetcher is configured
func (p *Pipeline) enrich(ctx context.Context, sources []model.EvidenceSource) []model.EvidenceSource {
	if p.fetcher == nil {
		return sources
	}
	for i := range sources {
		if sources[i].Excerpt != "" || sources[i].URL == "" {
			continue
		}
		if text := p.fetcher.FetchContent(ctx, sources[i].URL); text != "" {
			sources[i].Excerpt = util.Truncate(text, excerptLimit)
		}
	}
	return sources
}

// VerifyClaimID verifies a claim for batch runs and returns the verdict label
func (p *Pipeline) VerifyClaimID(ctx context.Context, claimID string) (string, error) {
	res, err := p.Verify(ctx, claimID, false)
	if err != nil {
		return "", err
	}
	return string(res.Verdict.Label), nil
}
