package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ppiankov/verifact/internal/model"
)

// FeedbackSubmittedMessage acknowledges a stored feedback item
const FeedbackSubmittedMessage = "Thank you for your feedback. It will be reviewed by our team."

// SubmitFeedback stores a reader correction or appeal against an existing claim
func (p *Pipeline) SubmitFeedback(ctx context.Context, f model.Feedback) (*model.Feedback, error) {
	if err := p.check(f); err != nil {
		return nil, err
	}
	if _, err := p.store.GetClaim(ctx, f.ClaimID); err != nil {
		return nil, fmt.Errorf("%w: %s", notFound(err, ErrClaimNotFound), f.ClaimID)
	}

	f.ID = uuid.NewString()
	f.Status = model.FeedbackPending
	f.ReviewedBy = ""
	f.CreatedAt = p.now().UTC()
	if err := p.store.CreateFeedback(ctx, &f); err != nil {
		return nil, err
	}
	p.logger.Info("feedback submitted", "feedback_id", f.ID, "claim_id", f.ClaimID, "type", f.FeedbackType)
	return &f, nil
}

// Feedback lists feedback for a claim, newest first
func (p *Pipeline) Feedback(ctx context.Context, claimID string) ([]model.Feedback, error) {
	return p.store.FeedbackForClaim(ctx, claimID)
}

// ResolveFeedback closes a feedback item as reviewed, accepted or rejected
func (p *Pipeline) ResolveFeedback(ctx context.Context, feedbackID string, status model.FeedbackStatus, reviewer string) error {
	if !status.Terminal() {
		return fmt.Errorf("%w: feedback status %q", ErrInvalidInput, status)
	}
	if reviewer == "" {
		return fmt.Errorf("%w: reviewer is required", ErrInvalidInput)
	}
	if err := p.store.ResolveFeedback(ctx, feedbackID, status, reviewer); err != nil {
		return fmt.Errorf("%w: %s", notFound(err, ErrFeedbackNotFound), feedbackID)
	}
	return nil
}
