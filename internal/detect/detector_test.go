package detect

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/verifact/internal/llm"
	"github.com/ppiankov/verifact/internal/model"
)

type fakeProvider struct {
	content string
	err     error
	last    llm.GenerateRequest
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Generate(ctx context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	return &llm.GenerateResponse{Content: f.content}, nil
}

func (f *fakeProvider) IsAvailable(ctx context.Context) bool { return true }

func TestDetect_Claim(t *testing.T) {
	p := &fakeProvider{content: `{
		"is_claim": true,
		"claim_text": " Vaccines cause autism ",
		"entities": [{"text": "Vaccines", "type": "other", "confidence": 1.4}, {"text": "", "type": "other"}],
		"claim_type": "Health",
		"confidence": 0.92,
		"reasoning": "falsifiable"
	}`}
	d := New(p, nil)

	det := d.Detect(context.Background(), "I read that vaccines cause autism.")

	assert.True(t, det.IsClaim)
	assert.Equal(t, "Vaccines cause autism", det.ClaimText)
	assert.Equal(t, model.ClaimTypeHealth, det.ClaimType)
	assert.InDelta(t, 0.92, det.Confidence, 1e-9)
	require.Len(t, det.Entities, 1)
	assert.Equal(t, 1.0, det.Entities[0].Confidence)
	assert.Empty(t, det.Error)

	assert.True(t, p.last.JSON)
	assert.Contains(t, p.last.System, "Output only valid JSON")
	assert.Contains(t, p.last.Prompt, "I read that vaccines cause autism.")
}

func TestDetect_MalformedFieldsDefault(t *testing.T) {
	d := New(&fakeProvider{content: `{"is_claim": "maybe", "claim_type": "sports", "confidence": -3, "entities": "none"}`}, nil)

	det := d.Detect(context.Background(), "text")

	assert.False(t, det.IsClaim)
	assert.Equal(t, "", det.ClaimText)
	assert.Equal(t, model.ClaimTypeGeneral, det.ClaimType)
	assert.Equal(t, 0.0, det.Confidence)
	assert.NotNil(t, det.Entities)
	assert.Empty(t, det.Entities)
}

func TestDetect_FailSoft(t *testing.T) {
	tests := []struct {
		name     string
		provider llm.Provider
	}{
		{"no provider", nil},
		{"provider error", &fakeProvider{err: errors.New("rate limited")}},
		{"not json", &fakeProvider{content: "I cannot help with that"}},
		{"broken json", &fakeProvider{content: `{"is_claim": true,`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			det := New(tt.provider, nil).Detect(context.Background(), "The moon landing was faked in 1969.")
			assert.False(t, det.IsClaim)
			assert.Equal(t, 0.0, det.Confidence)
			assert.NotEmpty(t, det.Error)
			assert.Equal(t, model.ClaimTypeGeneral, det.ClaimType)
			assert.NotNil(t, det.Entities)
		})
	}
}

func TestExtractEntities(t *testing.T) {
	p := &fakeProvider{content: "```json\n{\"entities\": [{\"text\": \"NASA\", \"type\": \"organization\", \"confidence\": 0.9}]}\n```"}
	entities := New(p, nil).ExtractEntities(context.Background(), "NASA faked it")

	require.Len(t, entities, 1)
	assert.Equal(t, "NASA", entities[0].Text)
	assert.Equal(t, "organization", entities[0].Type)
	assert.InDelta(t, float32(0.1), p.last.Temperature, 1e-6)

	failing := New(&fakeProvider{err: errors.New("down")}, nil).ExtractEntities(context.Background(), "x")
	assert.NotNil(t, failing)
	assert.Empty(t, failing)
}
