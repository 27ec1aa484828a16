package verdict

import (
	"sort"
	"strings"

	"github.com/ppiankov/verifact/internal/llm"
	"github.com/ppiankov/verifact/internal/model"
	"github.com/ppiankov/verifact/internal/util"
)

const (
	reasoningLimit  = 3000
	explainLimit    = 1000
	expertLimit     = 1500
	excerptLimit    = 500
	maxSources      = 10
	maxTags         = 10
	fallbackSources = 3
)

// Validate turns a raw generation object into a verdict that satisfies every
// output constraint. Citations whose link is not exactly the URL of one of the
// supplied evidence sources are dropped.
func Validate(raw llm.Object, evidence []model.EvidenceSource) model.Verdict {
	label, ok := model.ParseLabel(strings.TrimSpace(raw.String("verdict", "")))
	if !ok {
		label = model.LabelUnverified
	}

	harm := raw.Int("harm_score", 0)
	if harm < 0 {
		harm = 0
	}
	if harm > 100 {
		harm = 100
	}

	reasoning := raw.String("reasoning", "")
	tags := raw.Strings("tags")
	if len(tags) > maxTags {
		tags = tags[:maxTags]
	}

	return model.Verdict{
		Label:             label,
		Confidence:        util.Clamp01(raw.Float("confidence", 0)),
		Reasoning:         util.Truncate(reasoning, reasoningLimit),
		Sources:           validateSources(raw.Objects("sources"), evidence),
		ExplainLike12:     util.Truncate(raw.String("explain_like_12", ""), explainLimit),
		HarmScore:         harm,
		RecommendedAction: model.ParseAction(strings.ToLower(strings.TrimSpace(raw.String("recommended_action", "")))),
		ExpertExplanation: util.Truncate(reasoning, expertLimit),
		Tags:              tags,
	}
}

func validateSources(cited []llm.Object, evidence []model.EvidenceSource) []model.SourceRef {
	byURL := make(map[string]model.EvidenceSource, len(evidence))
	for _, e := range evidence {
		if _, dup := byURL[e.URL]; !dup && e.URL != "" {
			byURL[e.URL] = e
		}
	}

	refs := make([]model.SourceRef, 0, maxSources)
	seen := make(map[string]bool)
	for _, c := range cited {
		link := c.String("link", "")
		match, ok := byURL[link]
		if !ok || seen[link] {
			continue
		}
		seen[link] = true

		title := c.String("title", "")
		if title == "" {
			title = match.Title
		}
		refs = append(refs, model.SourceRef{
			Link:        link,
			Excerpt:     util.Truncate(c.String("excerpt", ""), excerptLimit),
			Title:       title,
			Reliability: util.Clamp01(match.ReliabilityScore),
		})
		if len(refs) == maxSources {
			break
		}
	}

	if len(refs) == 0 && len(evidence) > 0 {
		return fallbackRefs(evidence)
	}
	return refs
}

// fallbackRefs cites the most reliable evidence when the generated citations were unusable
func fallbackRefs(evidence []model.EvidenceSource) []model.SourceRef {
	ranked := make([]model.EvidenceSource, 0, len(evidence))
	for _, e := range evidence {
		if e.URL != "" {
			ranked = append(ranked, e)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].ReliabilityScore > ranked[j].ReliabilityScore
	})

	refs := make([]model.SourceRef, 0, fallbackSources)
	seen := make(map[string]bool)
	for _, e := range ranked {
		if seen[e.URL] {
			continue
		}
		seen[e.URL] = true
		refs = append(refs, model.SourceRef{
			Link:        e.URL,
			Excerpt:     util.Truncate(e.Excerpt, excerptLimit),
			Title:       e.Title,
			Reliability: util.Clamp01(e.ReliabilityScore),
		})
		if len(refs) == fallbackSources {
			break
		}
	}
	return refs
}
