package evidence

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ppiankov/verifact/internal/model"
)

func TestReliabilityTable_Defaults(t *testing.T) {
	table := NewReliabilityTable(nil)

	tests := []struct {
		domain string
		want   float64
	}{
		{"who.int", 0.95},
		{"www.cdc.gov", 0.95},
		{"https://www.reuters.com/world/article", 0.95},
		{"factcheck.org", 0.95},
		{"nytimes.com", 0.75},
		{"abcnews.go.com", 0.75},
		{"data.census.gov", 0.85},
		{"stanford.edu", 0.85},
		{"randomblog.net", 0.5},
		{"", 0.5},
		{"notcdc.gov.example.com", 0.5},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, table.Score(tt.domain), "Score(%q)", tt.domain)
	}
}

func TestReliabilityTable_OverridesWin(t *testing.T) {
	cfg := model.DefaultConfig().Reliability
	cfg.Overrides = map[string]float64{"cdc.gov": 0.6, "example.com": 1.7}
	table := NewReliabilityTable(&cfg)

	assert.Equal(t, 0.6, table.Score("www.cdc.gov"), "override should win over allowlist")
	assert.Equal(t, 1.0, table.Score("example.com"), "override should be clamped")
}

func TestSourceTypeFor(t *testing.T) {
	assert.Equal(t, model.SourceGovernment, SourceTypeFor("www.nih.gov"))
	assert.Equal(t, model.SourceAcademic, SourceTypeFor("mit.edu"))
	assert.Equal(t, model.SourceArticle, SourceTypeFor("bbc.com"))
}
