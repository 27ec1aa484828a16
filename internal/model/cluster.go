package model

import "time"

// Cluster is a group of semantically similar claims produced by one clustering run
type Cluster struct {
	ClusterID           string    `json:"cluster_id"`
	Label               string    `json:"label"`
	ClaimIDs            []string  `json:"claim_ids"`
	RepresentativeClaim string    `json:"representative_claim"`
	ClaimCount          int       `json:"claim_count"`
	IsTrending          bool      `json:"is_trending"`
	TrendScore          float64   `json:"trend_score"` // 0-100
	Category            ClaimType `json:"category"`
	CreatedAt           time.Time `json:"created_at"`
	LastUpdated         time.Time `json:"last_updated"`
}
