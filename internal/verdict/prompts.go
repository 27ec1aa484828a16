package verdict

import (
	"fmt"
	"strings"

	"github.com/ppiankov/verifact/internal/model"
	"github.com/ppiankov/verifact/internal/util"
)

const factCheckSystem = "You are an expert fact-checking system. Output only valid JSON. " +
	"Never fabricate sources. Base verdicts strictly on the provided evidence."

const explainSystem = "You explain complex topics simply to children."

const factCheckTemplate = `Analyze the claim against the provided evidence and produce an accurate, well-reasoned verdict.

CLAIM TO VERIFY:
%s

EVIDENCE RETRIEVED:
%s

INSTRUCTIONS:
1. Read all evidence carefully and cross-reference the sources
2. Weigh each source by its reliability
3. Identify contradictions or confirmations
4. Reach a verdict based ONLY on the evidence, never speculate

VERDICT OPTIONS (exactly one):
- "True": accurate and well supported
- "False": demonstrably incorrect
- "Misleading": contains truth but lacks context or exaggerates
- "Partially True": some elements true, others false or unverified
- "Unverified": insufficient evidence

Respond with a JSON object:
{
  "verdict": "True/False/Misleading/Partially True/Unverified",
  "confidence": 0.0-1.0,
  "reasoning": "detailed explanation citing specific evidence",
  "sources": [{"link": "URL from the evidence above", "excerpt": "relevant quote", "title": "source title", "reliability": 0.0-1.0}],
  "explain_like_12": "simple explanation for a 12-year-old",
  "harm_score": 0-100,
  "recommended_action": "label/debunk/escalate/monitor/approve",
  "tags": ["topic", "tags"]
}

HARM SCORE:
- 0-20 harmless or trivial
- 21-40 minor misinformation
- 41-60 moderate potential for harm
- 61-80 significant harm potential (health, safety, democracy)
- 81-100 severe, crisis-level harm

RECOMMENDED ACTION:
- label: flag as misleading with context
- debunk: publish a correction
- escalate: urgent review needed
- monitor: watch for viral spread
- approve: claim is accurate

Only cite URLs that appear in the evidence above. If the evidence is insufficient the verdict is "Unverified".`

const explainTemplate = `Explain this fact-check result to a 12-year-old:

CLAIM: %s
VERDICT: %s
WHY: %s

Write a simple explanation of 50-150 words with short sentences and no jargon.`

// FormatEvidence renders evidence as numbered blocks for the generation prompt
func FormatEvidence(evidence []model.EvidenceSource) string {
	if len(evidence) == 0 {
		return "No evidence sources available."
	}

	var b strings.Builder
	for i, src := range evidence {
		published := "Unknown"
		if src.PublishedDate != nil {
			published = src.PublishedDate.Format("2006-01-02")
		}
		fmt.Fprintf(&b, "SOURCE %d:\n", i+1)
		fmt.Fprintf(&b, "Title: %s\n", orNA(src.Title))
		fmt.Fprintf(&b, "URL: %s\n", orNA(src.URL))
		fmt.Fprintf(&b, "Domain: %s\n", orNA(src.Domain))
		fmt.Fprintf(&b, "Reliability: %.2f\n", src.ReliabilityScore)
		fmt.Fprintf(&b, "Published: %s\n", published)
		excerpt := util.Truncate(src.Excerpt, excerptLimit)
		if excerpt == "" {
			excerpt = "No excerpt available"
		}
		fmt.Fprintf(&b, "Excerpt: %s\n---\n", excerpt)
	}
	return b.String()
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func factCheckPrompt(claimText string, evidence []model.EvidenceSource) string {
	return fmt.Sprintf(factCheckTemplate, claimText, FormatEvidence(evidence))
}

func explainPrompt(claimText string, label model.Label, reasoning string) string {
	return fmt.Sprintf(explainTemplate, claimText, label, util.Truncate(reasoning, 500))
}
