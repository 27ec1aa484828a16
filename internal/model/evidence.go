package model

import "time"

// EvidenceSource is a single retrieved document supporting or refuting a claim.
// URL is the deduplication key and the only value a verdict may cite.
type EvidenceSource struct {
	URL              string     `json:"url"`
	Title            string     `json:"title"`
	Excerpt          string     `json:"excerpt"` // at most 500 characters
	PublishedDate    *time.Time `json:"published_date,omitempty"`
	Domain           string     `json:"domain"`
	ReliabilityScore float64    `json:"reliability_score"`
	SourceType       SourceType `json:"source_type"`
}

// SourceType classifies where a piece of evidence came from
type SourceType string

const (
	SourceArticle    SourceType = "article"
	SourceFactCheck  SourceType = "fact-check"
	SourceGovernment SourceType = "government"
	SourceAcademic   SourceType = "academic"
)

// EvidenceRecord is the persisted snapshot of one retrieval run for a claim
type EvidenceRecord struct {
	ID                string           `json:"id"`
	ClaimID           string           `json:"claim_id"`
	Sources           []EvidenceSource `json:"sources"`
	TotalSourcesFound int              `json:"total_sources_found"`
	SearchQueries     []string         `json:"search_queries"`
	RetrievalMethod   string           `json:"retrieval_method"`
	CreatedAt         time.Time        `json:"created_at"`
}

// EvidenceURLs returns the URLs of the sources in order
func EvidenceURLs(sources []EvidenceSource) []string {
	urls := make([]string, 0, len(sources))
	for _, s := range sources {
		urls = append(urls, s.URL)
	}
	return urls
}
