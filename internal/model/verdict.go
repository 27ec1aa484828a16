package model

import "time"

// Verdict is the evidence-grounded judgement on a claim.
// Every Sources[i].Link is the URL of evidence supplied when the verdict was produced.
type Verdict struct {
	ID                    string      `json:"id"`
	ClaimID               string      `json:"claim_id"`
	Label                 Label       `json:"verdict"`
	Confidence            float64     `json:"confidence"`
	Reasoning             string      `json:"reasoning"`
	Sources               []SourceRef `json:"sources"`
	ExplainLike12         string      `json:"explain_like_12"`
	HarmScore             int         `json:"harm_score"`
	RecommendedAction     Action      `json:"recommended_action"`
	ExpertExplanation     string      `json:"expert_explanation,omitempty"`
	Tags                  []string    `json:"tags"`
	ModelUsed             string      `json:"model_used"`
	ProcessingTimeSeconds float64     `json:"processing_time_seconds"`

	HumanReviewed bool   `json:"human_reviewed"`
	ReviewerID    string `json:"reviewer_id,omitempty"`
	ReviewerNotes string `json:"reviewer_notes,omitempty"`
	IsPublished   bool   `json:"is_published"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SourceRef is a citation inside a verdict
type SourceRef struct {
	Link        string  `json:"link"`
	Excerpt     string  `json:"excerpt"`
	Title       string  `json:"title"`
	Reliability float64 `json:"reliability"`
}

// Label is the verdict classification
type Label string

const (
	LabelTrue          Label = "True"
	LabelFalse         Label = "False"
	LabelMisleading    Label = "Misleading"
	LabelPartiallyTrue Label = "Partially True"
	LabelUnverified    Label = "Unverified"
)

// Labels lists the allowed verdict labels
var Labels = []Label{LabelTrue, LabelFalse, LabelMisleading, LabelPartiallyTrue, LabelUnverified}

// ParseLabel returns the matching label and whether it was recognized.
// "PartiallyTrue" is accepted as an alias.
func ParseLabel(s string) (Label, bool) {
	if s == "PartiallyTrue" {
		return LabelPartiallyTrue, true
	}
	for _, l := range Labels {
		if string(l) == s {
			return l, true
		}
	}
	return LabelUnverified, false
}

// Action is the recommended moderation action
type Action string

const (
	ActionLabel    Action = "label"
	ActionDebunk   Action = "debunk"
	ActionEscalate Action = "escalate"
	ActionMonitor  Action = "monitor"
	ActionApprove  Action = "approve"
)

// ParseAction returns the matching action, defaulting to monitor
func ParseAction(s string) Action {
	switch Action(s) {
	case ActionLabel, ActionDebunk, ActionEscalate, ActionMonitor, ActionApprove:
		return Action(s)
	default:
		return ActionMonitor
	}
}

// Review carries the human review fields applied to a verdict
type Review struct {
	ReviewerID      string `json:"reviewer_id" validate:"required"`
	Approve         bool   `json:"approve"`
	OverrideVerdict string `json:"override_verdict,omitempty"`
	Notes           string `json:"notes,omitempty" validate:"max=5000"`
}
