package model

import "time"

// Feedback is a reader correction or appeal against a claim's verdict
type Feedback struct {
	ID              string         `json:"id"`
	ClaimID         string         `json:"claim_id" validate:"required"`
	FeedbackType    FeedbackType   `json:"feedback_type" validate:"oneof=correction appeal additional_evidence other"`
	Content         string         `json:"content" validate:"min=10,max=2000"`
	UserEmail       string         `json:"user_email,omitempty" validate:"omitempty,email"`
	SupportingLinks []string       `json:"supporting_links" validate:"max=10,dive,url"`
	Status          FeedbackStatus `json:"status"`
	ReviewedBy      string         `json:"reviewed_by,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
}

type FeedbackType string

const (
	FeedbackCorrection         FeedbackType = "correction"
	FeedbackAppeal             FeedbackType = "appeal"
	FeedbackAdditionalEvidence FeedbackType = "additional_evidence"
	FeedbackOther              FeedbackType = "other"
)

type FeedbackStatus string

const (
	FeedbackPending  FeedbackStatus = "pending"
	FeedbackReviewed FeedbackStatus = "reviewed"
	FeedbackAccepted FeedbackStatus = "accepted"
	FeedbackRejected FeedbackStatus = "rejected"
)

// Terminal reports whether s closes a feedback item
func (s FeedbackStatus) Terminal() bool {
	switch s {
	case FeedbackReviewed, FeedbackAccepted, FeedbackRejected:
		return true
	}
	return false
}
