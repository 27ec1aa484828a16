// Package verdict produces evidence-grounded verdicts for claims.
package verdict

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ppiankov/verifact/internal/llm"
	"github.com/ppiankov/verifact/internal/model"
	"github.com/ppiankov/verifact/internal/util"
)

// ErrNoProvider is reported when no generation provider is configured
var ErrNoProvider = errors.New("no generation provider configured")

const (
	noEvidenceReasoning = "No evidence was retrieved for this claim, so it cannot be verified."
	noEvidenceExplain   = "We couldn't find any sources about this claim, so we can't say if it is true or false yet."
	errorExplain        = "We couldn't check this claim because of a technical problem."

	explainMaxTokens   = 300
	explainTemperature = 0.3
)

// Generator fact-checks claims against retrieved evidence
type Generator struct {
	provider llm.Provider
	logger   *slog.Logger
	now      func() time.Time
}

// New creates a generator. A nil provider yields error verdicts whenever evidence exists.
func New(provider llm.Provider, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{provider: provider, logger: logger.With("component", "verdict"), now: time.Now}
}

// FactCheck judges claimText against evidence. It never returns an error:
// empty evidence short-circuits to Unverified without a generation call,
// and any generation failure yields an error verdict.
func (g *Generator) FactCheck(ctx context.Context, claimText string, evidence []model.EvidenceSource) model.Verdict {
	start := g.now()

	var v model.Verdict
	switch {
	case len(evidence) == 0:
		v = noEvidenceVerdict()
	default:
		var err error
		v, err = g.generate(ctx, claimText, evidence)
		if err != nil {
			g.logger.Error("fact check failed", "error", err)
			v = ErrorVerdict(err)
		} else if v.ExplainLike12 == "" {
			v.ExplainLike12 = g.ExplainLike12(ctx, claimText, v.Label, v.Reasoning)
		}
	}

	v.ProcessingTimeSeconds = g.now().Sub(start).Seconds()
	g.logger.Info("fact check complete",
		"verdict", v.Label,
		"confidence", v.Confidence,
		"harm_score", v.HarmScore,
		"sources", len(v.Sources),
	)
	return v
}

func (g *Generator) generate(ctx context.Context, claimText string, evidence []model.EvidenceSource) (model.Verdict, error) {
	if g.provider == nil {
		return model.Verdict{}, ErrNoProvider
	}
	resp, err := g.provider.Generate(ctx, llm.GenerateRequest{
		System: factCheckSystem,
		Prompt: factCheckPrompt(claimText, evidence),
		JSON:   true,
	})
	if err != nil {
		return model.Verdict{}, fmt.Errorf("%s generate: %w", g.provider.Name(), err)
	}
	raw, err := llm.ParseObject(resp.Content)
	if err != nil {
		return model.Verdict{}, err
	}

	v := Validate(raw, evidence)
	v.ModelUsed = resp.Model
	if v.ModelUsed == "" {
		v.ModelUsed = g.provider.Name()
	}
	return v, nil
}

// ExplainLike12 produces a child-friendly explanation, falling back to a
// fixed sentence when generation fails.
func (g *Generator) ExplainLike12(ctx context.Context, claimText string, label model.Label, reasoning string) string {
	fallback := fmt.Sprintf("We checked this claim and found it to be %s.", strings.ToLower(string(label)))
	if g.provider == nil {
		return fallback
	}

	resp, err := g.provider.Generate(ctx, llm.GenerateRequest{
		System:      explainSystem,
		Prompt:      explainPrompt(claimText, label, reasoning),
		MaxTokens:   explainMaxTokens,
		Temperature: explainTemperature,
	})
	if err != nil {
		g.logger.Warn("explain-like-12 generation failed", "error", err)
		return fallback
	}
	text := strings.TrimSpace(resp.Content)
	if text == "" {
		return fallback
	}
	return util.Truncate(text, explainLimit)
}

func noEvidenceVerdict() model.Verdict {
	return model.Verdict{
		Label:             model.LabelUnverified,
		Confidence:        0,
		Reasoning:         noEvidenceReasoning,
		Sources:           []model.SourceRef{},
		ExplainLike12:     noEvidenceExplain,
		HarmScore:         0,
		RecommendedAction: model.ActionMonitor,
		ExpertExplanation: noEvidenceReasoning,
		Tags:              []string{"unverified", "no-evidence"},
	}
}

// ErrorVerdict is the neutral verdict recorded when fact checking fails
func ErrorVerdict(err error) model.Verdict {
	return model.Verdict{
		Label:             model.LabelUnverified,
		Confidence:        0,
		Reasoning:         fmt.Sprintf("Unable to verify claim due to error: %v", err),
		Sources:           []model.SourceRef{},
		ExplainLike12:     errorExplain,
		HarmScore:         0,
		RecommendedAction: model.ActionMonitor,
		ExpertExplanation: fmt.Sprintf("Error during verification: %v", err),
		Tags:              []string{"error", "unverified"},
	}
}
