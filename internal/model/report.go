package model

// ClaimDetail bundles a claim with everything known about it
type ClaimDetail struct {
	Claim         Claim           `json:"claim"`
	Verdict       *Verdict        `json:"verdict,omitempty"`
	Evidence      *EvidenceRecord `json:"evidence,omitempty"`
	SimilarClaims []SimilarClaim  `json:"similar_claims"`
}

// SimilarClaim is a nearest-neighbor hit from the similarity index
type SimilarClaim struct {
	ClaimID    string  `json:"claim_id"`
	ClaimText  string  `json:"claim_text"`
	Similarity float64 `json:"similarity"`
}

// ClusterDetail is a cluster together with its member claims
type ClusterDetail struct {
	Cluster Cluster `json:"cluster"`
	Claims  []Claim `json:"claims"`
}

// Stats summarizes the platform state
type Stats struct {
	TotalClaims      int           `json:"total_claims"`
	VerifiedClaims   int           `json:"verified_claims"`
	TrendingClusters int           `json:"trending_clusters"`
	VerdictBreakdown map[Label]int `json:"verdict_breakdown"`
	ActiveAlerts     int           `json:"active_alerts"`
	PendingFeedback  int           `json:"pending_feedback"`
}
