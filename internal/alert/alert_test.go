package alert

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/verifact/internal/model"
)

type recordingSink struct {
	alerts []model.Alert
	err    error
}

func (s *recordingSink) RaiseAlert(_ context.Context, a model.Alert) error {
	s.alerts = append(s.alerts, a)
	return s.err
}

var thresholds = model.AlertConfig{HarmThreshold: 70, CriticalThreshold: 90}

func TestBuild_Thresholds(t *testing.T) {
	claim := model.Claim{ID: "c1", ClaimText: "Vaccines contain microchips"}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		harm     int
		want     bool
		severity model.Severity
	}{
		{harm: 0},
		{harm: 69},
		{harm: 70, want: true, severity: model.SeverityHigh},
		{harm: 89, want: true, severity: model.SeverityHigh},
		{harm: 90, want: true, severity: model.SeverityCritical},
		{harm: 100, want: true, severity: model.SeverityCritical},
	}
	for _, tt := range tests {
		a := Build(claim, model.Verdict{Label: model.LabelFalse, HarmScore: tt.harm}, thresholds, now)
		if !tt.want {
			assert.Nil(t, a, "harm %d", tt.harm)
			continue
		}
		require.NotNil(t, a, "harm %d", tt.harm)
		assert.Equal(t, tt.severity, a.Severity, "harm %d", tt.harm)
	}
}

func TestBuild_Content(t *testing.T) {
	text := strings.Repeat("x", 250)
	a := Build(model.Claim{ID: "c9", ClaimText: text, ClusterID: "k"}, model.Verdict{Label: model.LabelMisleading, HarmScore: 75}, thresholds, time.Now())
	require.NotNil(t, a)

	assert.NotEmpty(t, a.ID)
	assert.Equal(t, model.AlertHighImpact, a.AlertType)
	assert.Equal(t, "High Harm Score Detected: Misleading", a.Title)
	assert.Equal(t, "Claim: "+strings.Repeat("x", 200), a.Description)
	assert.Equal(t, []string{"c9"}, a.RelatedClaimIDs)
	assert.Equal(t, "k", a.ClusterID)
	assert.True(t, a.IsActive)
}

func TestRaiser_Evaluate(t *testing.T) {
	sink := &recordingSink{}
	r := NewRaiser(sink, thresholds, nil, nil)

	a, err := r.Evaluate(context.Background(), model.Claim{ID: "c1", ClaimText: "t"}, model.Verdict{HarmScore: 10})
	require.NoError(t, err)
	assert.Nil(t, a)
	assert.Empty(t, sink.alerts)

	a, err = r.Evaluate(context.Background(), model.Claim{ID: "c1", ClaimText: "t"}, model.Verdict{HarmScore: 95})
	require.NoError(t, err)
	require.NotNil(t, a)
	require.Len(t, sink.alerts, 1)
	assert.Equal(t, a.ID, sink.alerts[0].ID)
}

func TestRaiser_ZeroConfigUsesDefaultThresholds(t *testing.T) {
	sink := &recordingSink{}
	r := NewRaiser(sink, model.AlertConfig{}, nil, nil)
	claim := model.Claim{ID: "c1", ClaimText: "t"}

	for _, harm := range []int{0, 10, 69} {
		a, err := r.Evaluate(context.Background(), claim, model.Verdict{HarmScore: harm})
		require.NoError(t, err)
		assert.Nil(t, a, "harm %d", harm)
	}
	assert.Empty(t, sink.alerts)

	a, err := r.Evaluate(context.Background(), claim, model.Verdict{HarmScore: 75})
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, model.SeverityHigh, a.Severity)

	a = Build(claim, model.Verdict{HarmScore: 95}, model.AlertConfig{HarmThreshold: -1}, time.Now())
	require.NotNil(t, a)
	assert.Equal(t, model.SeverityCritical, a.Severity)
	assert.Nil(t, Build(claim, model.Verdict{}, model.AlertConfig{}, time.Now()))
}

func TestRaiser_DeliveryFailure(t *testing.T) {
	sink := &recordingSink{err: errors.New("down")}
	r := NewRaiser(sink, thresholds, nil, nil)

	a, err := r.Evaluate(context.Background(), model.Claim{ID: "c1"}, model.Verdict{HarmScore: 80})
	require.Error(t, err)
	assert.NotNil(t, a)
}

func TestMulti_DeliversToAll(t *testing.T) {
	failing := &recordingSink{err: errors.New("redis down")}
	ok := &recordingSink{}
	m := Multi{failing, nil, ok}

	err := m.RaiseAlert(context.Background(), model.Alert{ID: "a1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis down")
	assert.Len(t, failing.alerts, 1)
	assert.Len(t, ok.alerts, 1)

	assert.NoError(t, Multi{ok}.RaiseAlert(context.Background(), model.Alert{ID: "a2"}))
}
