package evidence

import (
	"strings"

	"github.com/ppiankov/verifact/internal/model"
	"github.com/ppiankov/verifact/internal/util"
)

// ReliabilityTable scores source domains. Lookup order: explicit override,
// high allowlist, medium allowlist, trusted suffix, default.
type ReliabilityTable struct {
	overrides map[string]float64
	high      map[string]bool
	medium    map[string]bool
	suffixes  []string

	highScore    float64
	mediumScore  float64
	suffixScore  float64
	defaultScore float64
}

// NewReliabilityTable builds a table from configuration; nil uses the defaults
func NewReliabilityTable(cfg *model.ReliabilityConfig) *ReliabilityTable {
	if cfg == nil {
		def := model.DefaultConfig().Reliability
		cfg = &def
	}

	t := &ReliabilityTable{
		overrides:    make(map[string]float64, len(cfg.Overrides)),
		high:         make(map[string]bool, len(cfg.High)),
		medium:       make(map[string]bool, len(cfg.Medium)),
		highScore:    util.Clamp01(cfg.HighScore),
		mediumScore:  util.Clamp01(cfg.MediumScore),
		suffixScore:  util.Clamp01(cfg.SuffixScore),
		defaultScore: util.Clamp01(cfg.DefaultScore),
	}
	for domain, score := range cfg.Overrides {
		t.overrides[normalizeDomain(domain)] = util.Clamp01(score)
	}
	for _, d := range cfg.High {
		t.high[normalizeDomain(d)] = true
	}
	for _, d := range cfg.Medium {
		t.medium[normalizeDomain(d)] = true
	}
	for _, s := range cfg.TrustedSuffixes {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			t.suffixes = append(t.suffixes, s)
		}
	}
	return t
}

// Score returns the reliability of a domain (or URL) in [0,1]
func (t *ReliabilityTable) Score(domainOrURL string) float64 {
	domain := normalizeDomain(domainOrURL)
	if domain == "" {
		return t.defaultScore
	}

	for _, candidate := range parentDomains(domain) {
		if score, ok := t.overrides[candidate]; ok {
			return score
		}
	}
	for _, candidate := range parentDomains(domain) {
		if t.high[candidate] {
			return t.highScore
		}
	}
	for _, candidate := range parentDomains(domain) {
		if t.medium[candidate] {
			return t.mediumScore
		}
	}
	for _, suffix := range t.suffixes {
		if strings.HasSuffix(domain, suffix) {
			return t.suffixScore
		}
	}
	return t.defaultScore
}

// SourceTypeFor derives the evidence type from a domain
func SourceTypeFor(domain string) model.SourceType {
	domain = normalizeDomain(domain)
	switch {
	case strings.HasSuffix(domain, ".gov"):
		return model.SourceGovernment
	case strings.HasSuffix(domain, ".edu"):
		return model.SourceAcademic
	default:
		return model.SourceArticle
	}
}

func normalizeDomain(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if strings.Contains(s, "://") {
		return util.Domain(s)
	}
	if idx := strings.IndexAny(s, ":/"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimPrefix(s, "www.")
}

// parentDomains lists "a.b.cdc.gov", "b.cdc.gov", "cdc.gov", "gov"
func parentDomains(domain string) []string {
	out := []string{domain}
	for {
		idx := strings.Index(domain, ".")
		if idx < 0 {
			return out
		}
		domain = domain[idx+1:]
		out = append(out, domain)
	}
}
