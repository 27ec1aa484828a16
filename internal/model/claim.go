package model

import "time"

// Claim is a validated factual assertion extracted from ingested text
type Claim struct {
	ID        string `json:"id"`
	ClaimText string `json:"claim_text"`
	RawText   string `json:"raw_text"`
	Source    string `json:"source"`
	// SourceType is free-form: manual, twitter, facebook, news, rss, social, batch
	SourceType string            `json:"source_type"`
	IsClaim    bool              `json:"is_claim"`
	Entities   []Entity          `json:"entities"`
	ClaimType  ClaimType         `json:"claim_type"`
	Confidence float64           `json:"confidence"`
	Embedding  []float32         `json:"embedding,omitempty"` // nil when never embedded
	ClusterID  string            `json:"cluster_id,omitempty"`
	VerdictID  string            `json:"verdict_id,omitempty"`
	Status     ClaimStatus       `json:"status"`
	Language   string            `json:"language"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// Entity is a named entity mentioned in a claim
type Entity struct {
	Text       string  `json:"text"`
	Type       string  `json:"type"` // PERSON, ORG, LOCATION, DATE, ...
	Confidence float64 `json:"confidence"`
}

// ClaimType categorizes the subject area of the claim
type ClaimType string

const (
	ClaimTypeHealth   ClaimType = "health"
	ClaimTypePolitics ClaimType = "politics"
	ClaimTypeGeneral  ClaimType = "general"
	ClaimTypeScience  ClaimType = "science"
	ClaimTypeBusiness ClaimType = "business"
)

// ParseClaimType maps free-form input to a known claim type, defaulting to general
func ParseClaimType(s string) ClaimType {
	switch ClaimType(s) {
	case ClaimTypeHealth, ClaimTypePolitics, ClaimTypeScience, ClaimTypeBusiness:
		return ClaimType(s)
	default:
		return ClaimTypeGeneral
	}
}

// ClaimStatus tracks a claim through verification
type ClaimStatus string

const (
	StatusPending    ClaimStatus = "pending"
	StatusProcessing ClaimStatus = "processing"
	StatusVerified   ClaimStatus = "verified"
	StatusError      ClaimStatus = "error"
)

// Valid reports whether s is a known status
func (s ClaimStatus) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusVerified, StatusError:
		return true
	}
	return false
}

// EntityTexts returns the entity texts in order
func (c Claim) EntityTexts() []string {
	out := make([]string, 0, len(c.Entities))
	for _, e := range c.Entities {
		out = append(out, e.Text)
	}
	return out
}
