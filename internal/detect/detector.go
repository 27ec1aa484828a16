// Package detect decides whether a piece of text carries a checkable factual claim.
package detect

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ppiankov/verifact/internal/llm"
	"github.com/ppiankov/verifact/internal/model"
	"github.com/ppiankov/verifact/internal/util"
)

// ErrNoProvider is reported when no generation provider is configured
var ErrNoProvider = errors.New("no generation provider configured")

const (
	detectionMaxTokens = 1000
	entityMaxTokens    = 500
	entityTemperature  = 0.1
)

// Detection is the validated outcome of claim detection
type Detection struct {
	IsClaim    bool            `json:"is_claim"`
	ClaimText  string          `json:"claim_text"`
	Entities   []model.Entity  `json:"entities"`
	ClaimType  model.ClaimType `json:"claim_type"`
	Confidence float64         `json:"confidence"`
	Reasoning  string          `json:"reasoning,omitempty"`
	Error      string          `json:"error,omitempty"`
}

// Detector classifies text with a generation provider
type Detector struct {
	provider llm.Provider
	logger   *slog.Logger
}

// New creates a detector. A nil provider yields negative detections.
func New(provider llm.Provider, logger *slog.Logger) *Detector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{provider: provider, logger: logger.With("component", "detect")}
}

// Detect classifies text. It never returns an error; failures produce a
// negative detection with Error set.
func (d *Detector) Detect(ctx context.Context, text string) Detection {
	obj, err := d.generate(ctx, llm.GenerateRequest{
		System:    detectionSystem,
		Prompt:    detectionPrompt(text),
		JSON:      true,
		MaxTokens: detectionMaxTokens,
	})
	if err != nil {
		d.logger.Error("claim detection failed", "error", err)
		return failed(err)
	}

	det := Validate(obj)
	d.logger.Info("claim detection", "is_claim", det.IsClaim, "confidence", det.Confidence)
	return det
}

// ExtractEntities returns the entities found in text, or an empty list on any failure
func (d *Detector) ExtractEntities(ctx context.Context, text string) []model.Entity {
	obj, err := d.generate(ctx, llm.GenerateRequest{
		System:      entitySystem,
		Prompt:      entityPrompt(text),
		JSON:        true,
		MaxTokens:   entityMaxTokens,
		Temperature: entityTemperature,
	})
	if err != nil {
		d.logger.Error("entity extraction failed", "error", err)
		return []model.Entity{}
	}
	return parseEntities(obj)
}

func (d *Detector) generate(ctx context.Context, req llm.GenerateRequest) (llm.Object, error) {
	if d.provider == nil {
		return nil, ErrNoProvider
	}
	resp, err := d.provider.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%s generate: %w", d.provider.Name(), err)
	}
	obj, err := llm.ParseObject(resp.Content)
	if err != nil {
		return nil, err
	}
	return obj, nil
}

// Validate normalizes a raw detection object: missing or ill-typed fields take
// neutral defaults and scores are clamped to [0,1].
func Validate(obj llm.Object) Detection {
	return Detection{
		IsClaim:    obj.Bool("is_claim", false),
		ClaimText:  strings.TrimSpace(obj.String("claim_text", "")),
		Entities:   parseEntities(obj),
		ClaimType:  model.ParseClaimType(strings.ToLower(strings.TrimSpace(obj.String("claim_type", "")))),
		Confidence: util.Clamp01(obj.Float("confidence", 0)),
		Reasoning:  obj.String("reasoning", ""),
	}
}

func parseEntities(obj llm.Object) []model.Entity {
	raw := obj.Objects("entities")
	out := make([]model.Entity, 0, len(raw))
	for _, e := range raw {
		text := strings.TrimSpace(e.String("text", ""))
		if text == "" {
			continue
		}
		out = append(out, model.Entity{
			Text:       text,
			Type:       e.String("type", "other"),
			Confidence: util.Clamp01(e.Float("confidence", 0)),
		})
	}
	return out
}

func failed(err error) Detection {
	return Detection{
		IsClaim:   false,
		Entities:  []model.Entity{},
		ClaimType: model.ClaimTypeGeneral,
		Error:     err.Error(),
	}
}
