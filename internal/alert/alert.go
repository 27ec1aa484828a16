// Package alert turns high-harm verdicts into operator alerts and fans them
// out to the configured sinks.
package alert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/verifact/internal/metrics"
	"github.com/ppiankov/verifact/internal/model"
	"github.com/ppiankov/verifact/internal/util"
)

const descriptionLimit = 200

// Thresholds applied when the configured ones are not positive
const (
	DefaultHarmThreshold     = 70
	DefaultCriticalThreshold = 90
)

// Sink receives raised alerts
type Sink interface {
	RaiseAlert(ctx context.Context, a model.Alert) error
}

// Multi delivers an alert to every sink, even when earlier ones fail
type Multi []Sink

func (m Multi) RaiseAlert(ctx context.Context, a model.Alert) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.RaiseAlert(ctx, a); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Build returns the alert for a verdict, or nil when its harm score is below
// the alert threshold
func Build(claim model.Claim, v model.Verdict, cfg model.AlertConfig, now time.Time) *model.Alert {
	cfg = withDefaults(cfg)
	if v.HarmScore < cfg.HarmThreshold {
		return nil
	}
	severity := model.SeverityHigh
	if v.HarmScore >= cfg.CriticalThreshold {
		severity = model.SeverityCritical
	}
	return &model.Alert{
		ID:              uuid.NewString(),
		AlertType:       model.AlertHighImpact,
		Title:           fmt.Sprintf("High Harm Score Detected: %s", v.Label),
		Description:     "Claim: " + util.Truncate(claim.ClaimText, descriptionLimit),
		Severity:        severity,
		RelatedClaimIDs: []string{claim.ID},
		ClusterID:       claim.ClusterID,
		IsActive:        true,
		CreatedAt:       now.UTC(),
	}
}

func withDefaults(cfg model.AlertConfig) model.AlertConfig {
	if cfg.HarmThreshold <= 0 {
		cfg.HarmThreshold = DefaultHarmThreshold
	}
	if cfg.CriticalThreshold <= 0 {
		cfg.CriticalThreshold = DefaultCriticalThreshold
	}
	return cfg
}

// Raiser evaluates verdicts against the harm thresholds
type Raiser struct {
	sink    Sink
	cfg     model.AlertConfig
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// NewRaiser creates a raiser delivering to sink. A nil sink builds alerts
// without delivering them.
func NewRaiser(sink Sink, cfg model.AlertConfig, m *metrics.Metrics, logger *slog.Logger) *Raiser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Raiser{
		sink:    sink,
		cfg:     withDefaults(cfg),
		metrics: m,
		logger:  logger.With("component", "alert"),
		now:     time.Now,
	}
}

// Evaluate raises an alert for v when its harm score warrants one. The built
// alert is returned even when delivery fails.
func (r *Raiser) Evaluate(ctx context.Context, claim model.Claim, v model.Verdict) (*model.Alert, error) {
	a := Build(claim, v, r.cfg, r.now())
	if a == nil {
		return nil, nil
	}
	r.metrics.AlertRaised(string(a.Severity))
	r.logger.Info("alert raised", "alert_id", a.ID, "claim_id", claim.ID, "severity", a.Severity, "harm_score", v.HarmScore)
	if r.sink == nil {
		return a, nil
	}
	if err := r.sink.RaiseAlert(ctx, *a); err != nil {
		return a, fmt.Errorf("deliver alert %s: %w", a.ID, err)
	}
	return a, nil
}
