package cluster

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ppiankov/verifact/internal/model"
)

func TestLabeler_Label(t *testing.T) {
	l := NewLabeler(nil)

	texts := []string{
		"Vaccines contain microchips, says report",
		"COVID vaccines contain tracking microchips",
		"Microchips found in vaccines!",
	}
	assert.Equal(t, "Vaccines Microchips Contain", l.Label(texts))

	assert.Equal(t, "Unnamed Cluster", l.Label([]string{"a b c", "it is so"}))
	assert.Equal(t, "Unnamed Cluster", l.Label([]string{"there would could should about"}))
}

func TestLabeler_FirstFiveWordsPerText(t *testing.T) {
	l := NewLabeler([]string{})
	got := l.Label([]string{"alpha1 bravo2 charl3 delta4 echo55 zulu99"})
	assert.Equal(t, "Alpha1 Bravo2 Charl3", got)

	got = l.Label([]string{"alpha1 bravo2 charl3 delta4 echo55 zulu99", "zulu99 zulu99"})
	assert.Equal(t, "Zulu99 Alpha1 Bravo2", got)
}

func TestRepresentative(t *testing.T) {
	assert.Equal(t, "the longest one", Representative([]string{"short", "the longest one", "same length xyz"}))
	assert.Equal(t, "", Representative(nil))
}

func TestCategory(t *testing.T) {
	assert.Equal(t, model.ClaimTypeHealth, Category([]model.ClaimType{
		model.ClaimTypePolitics, model.ClaimTypeHealth, model.ClaimTypeHealth,
	}))
	assert.Equal(t, model.ClaimTypePolitics, Category([]model.ClaimType{
		model.ClaimTypePolitics, model.ClaimTypeHealth,
	}))
	assert.Equal(t, model.ClaimTypeGeneral, Category(nil))
}

func TestTrendScore(t *testing.T) {
	assert.Equal(t, 30.0, TrendScore(3))
	assert.Equal(t, 100.0, TrendScore(10))
	assert.Equal(t, 100.0, TrendScore(50))
}
