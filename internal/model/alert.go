package model

import "time"

// Alert is raised for operator attention
type Alert struct {
	ID              string    `json:"id"`
	AlertType       AlertType `json:"alert_type"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Severity        Severity  `json:"severity"`
	RelatedClaimIDs []string  `json:"related_claim_ids"`
	ClusterID       string    `json:"cluster_id,omitempty"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
}

type AlertType string

const (
	AlertTrendingHarm AlertType = "trending_harm"
	AlertHighImpact   AlertType = "high_impact"
	AlertViralClaim   AlertType = "viral_claim"
	AlertDebunkUrgent AlertType = "debunk_urgent"
)

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)
