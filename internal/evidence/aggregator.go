package evidence

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/verifact/internal/cache"
	"github.com/ppiankov/verifact/internal/metrics"
	"github.com/ppiankov/verifact/internal/model"
	"github.com/ppiankov/verifact/internal/util"
)

var tracer = otel.Tracer("verifact.evidence")

// RetrievalMethod tags evidence gathered by the aggregator
const RetrievalMethod = "multi-source"

// Result is the output of one retrieval run
type Result struct {
	Sources       []model.EvidenceSource `json:"sources"`
	TotalFound    int                    `json:"total_sources_found"`
	SearchQueries []string               `json:"search_queries"`
	Method        string                 `json:"retrieval_method"`
}

// AggregatorConfig tunes retrieval
type AggregatorConfig struct {
	MaxSources     int
	MaxQueries     int
	AdapterTimeout time.Duration
	CacheTTL       time.Duration
}

// Aggregator fans a claim out to every Source and merges the results
type Aggregator struct {
	sources []Source
	cfg     AggregatorConfig
	cache   cache.Cache
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewAggregator creates an aggregator; c and m may be nil
func NewAggregator(sources []Source, cfg AggregatorConfig, c cache.Cache, m *metrics.Metrics, logger *slog.Logger) *Aggregator {
	if cfg.MaxSources <= 0 {
		cfg.MaxSources = 10
	}
	if cfg.MaxQueries <= 0 {
		cfg.MaxQueries = 5
	}
	if cfg.AdapterTimeout <= 0 {
		cfg.AdapterTimeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{
		sources: sources,
		cfg:     cfg,
		cache:   c,
		metrics: m,
		logger:  logger.With("component", "evidence"),
	}
}

// Retrieve gathers evidence for claimText. It never fails: adapters that
// error, time out or panic contribute nothing.
func (a *Aggregator) Retrieve(ctx context.Context, claimText string, entities []model.Entity) Result {
	return a.retrieve(ctx, claimText, entities, true)
}

// RetrieveFresh is Retrieve without reading the cache. The fresh result still
// replaces the cached one.
func (a *Aggregator) RetrieveFresh(ctx context.Context, claimText string, entities []model.Entity) Result {
	return a.retrieve(ctx, claimText, entities, false)
}

func (a *Aggregator) retrieve(ctx context.Context, claimText string, entities []model.Entity, useCache bool) Result {
	queries := GenerateQueries(claimText, entities, a.cfg.MaxQueries)

	ctx, span := tracer.Start(ctx, "evidence.Retrieve", trace.WithAttributes(
		attribute.Int("evidence.adapters", len(a.sources)),
		attribute.Int("evidence.queries", len(queries)),
	))
	defer span.End()

	key := cache.Key("evidence", append([]string{claimText}, entityTexts(entities)...)...)
	var cached Result
	if useCache && cache.GetJSON(a.cache, key, &cached) && len(cached.Sources) > 0 {
		span.SetAttributes(attribute.Bool("evidence.cache_hit", true))
		return cached
	}

	perAdapter := make([][]model.EvidenceSource, len(a.sources))
	var g errgroup.Group
	for i, src := range a.sources {
		query := claimText
		if src.Name() == "factcheck" && len(queries) > 0 {
			query = queries[0]
		}
		g.Go(func() error {
			perAdapter[i] = a.search(ctx, src, query)
			return nil
		})
	}
	_ = g.Wait()

	var merged []model.EvidenceSource
	for _, hits := range perAdapter {
		merged = append(merged, hits...)
	}
	total := len(merged)

	ranked := Rank(Dedupe(merged))
	if len(ranked) > a.cfg.MaxSources {
		ranked = ranked[:a.cfg.MaxSources]
	}

	result := Result{
		Sources:       ranked,
		TotalFound:    total,
		SearchQueries: queries,
		Method:        RetrievalMethod,
	}
	span.SetAttributes(
		attribute.Int("evidence.total_found", total),
		attribute.Int("evidence.returned", len(ranked)),
	)

	if len(ranked) > 0 {
		if err := cache.SetJSON(a.cache, key, result, a.cfg.CacheTTL); err != nil {
			a.logger.Warn("cache evidence", "error", err)
		}
	}
	return result
}

// search runs one adapter in isolation: own deadline, recovered panics, errors logged
func (a *Aggregator) search(ctx context.Context, src Source, query string) (hits []model.EvidenceSource) {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.AdapterTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("evidence adapter panicked", "adapter", src.Name(), "panic", fmt.Sprint(r))
			a.metrics.AdapterFailed(src.Name())
			hits = nil
		}
	}()

	found, err := src.Search(ctx, query)
	if err != nil {
		a.logger.Warn("evidence adapter failed", "adapter", src.Name(), "error", err)
		a.metrics.AdapterFailed(src.Name())
		return nil
	}

	for i := range found {
		found[i].ReliabilityScore = util.Clamp01(found[i].ReliabilityScore)
		found[i].Excerpt = util.Truncate(found[i].Excerpt, excerptLimit)
		if found[i].Domain == "" {
			found[i].Domain = util.Domain(found[i].URL)
		}
	}
	a.metrics.AdapterReturned(src.Name(), len(found))
	return found
}

// GenerateQueries builds the search queries for a claim: the claim itself,
// its top entities followed by "fact check", and the quoted claim with "fact check"
func GenerateQueries(claimText string, entities []model.Entity, limit int) []string {
	queries := []string{claimText}

	var top []string
	for _, e := range entities {
		if strings.TrimSpace(e.Text) == "" {
			continue
		}
		top = append(top, e.Text)
		if len(top) == 3 {
			break
		}
	}
	if len(top) > 0 {
		queries = append(queries, strings.Join(top, " ")+" fact check")
	}
	queries = append(queries, fmt.Sprintf("%q fact check", claimText))

	if limit > 0 && len(queries) > limit {
		queries = queries[:limit]
	}
	return queries
}

// Dedupe keeps the first source for each URL and drops sources without one
func Dedupe(sources []model.EvidenceSource) []model.EvidenceSource {
	seen := make(map[string]bool, len(sources))
	out := make([]model.EvidenceSource, 0, len(sources))
	for _, s := range sources {
		if s.URL == "" || seen[s.URL] {
			continue
		}
		seen[s.URL] = true
		out = append(out, s)
	}
	return out
}

// Rank orders sources by reliability, highest first; ties keep input order
func Rank(sources []model.EvidenceSource) []model.EvidenceSource {
	out := make([]model.EvidenceSource, len(sources))
	copy(out, sources)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ReliabilityScore > out[j].ReliabilityScore
	})
	return out
}

func entityTexts(entities []model.Entity) []string {
	out := make([]string, 0, len(entities))
	for _, e := range entities {
		out = append(out, e.Text)
	}
	return out
}
