package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/ppiankov/verifact/internal/detect"
	"github.com/ppiankov/verifact/internal/model"
)

// IngestRequest is free text submitted for claim detection
type IngestRequest struct {
	Text       string            `json:"text" validate:"min=10,max=10000"`
	Source     string            `json:"source" validate:"max=2000"`
	SourceType string            `json:"source_type" validate:"max=50"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// IngestResult reports what ingestion did with the text
type IngestResult struct {
	IsClaim   bool             `json:"is_claim"`
	ClaimID   string           `json:"claim_id,omitempty"`
	Message   string           `json:"message"`
	Claim     *model.Claim     `json:"claim_detected,omitempty"`
	Detection detect.Detection `json:"-"`
}

// Ingest detects a claim in req.Text and, when one is found, embeds it,
// stores it as pending and adds it to the similarity index
func (p *Pipeline) Ingest(ctx context.Context, req IngestRequest) (*IngestResult, error) {
	if err := p.check(req); err != nil {
		return nil, err
	}
	if p.index == nil {
		return nil, ErrNoIndex
	}
	ctx, span := tracer.Start(ctx, "pipeline.Ingest")
	defer span.End()

	det := p.detector.Detect(ctx, req.Text)
	p.metrics.ClaimIngested(det.IsClaim)
	span.SetAttributes(attribute.Bool("claim.detected", det.IsClaim))
	if !det.IsClaim {
		return &IngestResult{Message: NoClaimMessage, Detection: det}, nil
	}

	text := det.ClaimText
	if text == "" {
		text = req.Text
	}
	if req.SourceType == "" {
		req.SourceType = "manual"
	}

	claim := &model.Claim{
		ID:         uuid.NewString(),
		ClaimText:  text,
		RawText:    req.Text,
		Source:     req.Source,
		SourceType: req.SourceType,
		IsClaim:    true,
		Entities:   det.Entities,
		ClaimType:  det.ClaimType,
		Confidence: det.Confidence,
		Embedding:  p.index.Embed(ctx, text),
		Status:     model.StatusPending,
		Metadata:   req.Metadata,
	}
	if err := p.store.CreateClaim(ctx, claim); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("store claim: %w", err)
	}
	// the claim row is the source of truth; a failed insert is recovered by index rebuild
	if err := p.index.Insert(ctx, claim.ID, claim.ClaimText, claim.Embedding); err != nil {
		p.logger.Warn("index insert failed", "claim_id", claim.ID, "error", err)
	}

	span.SetAttributes(attribute.String("claim.id", claim.ID))
	p.logger.Info("claim ingested", "claim_id", claim.ID, "claim_type", claim.ClaimType)
	return &IngestResult{
		IsClaim:   true,
		ClaimID:   claim.ID,
		Message:   ClaimStoredMessage,
		Claim:     claim,
		Detection: det,
	}, nil
}

// IngestText ingests a line of batch input
func (p *Pipeline) IngestText(ctx context.Context, text string) (string, bool, error) {
	res, err := p.Ingest(ctx, IngestRequest{Text: text, SourceType: "batch"})
	if err != nil {
		return "", false, err
	}
	return res.ClaimID, res.IsClaim, nil
}
