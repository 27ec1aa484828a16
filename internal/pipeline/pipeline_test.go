package pipeline

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/verifact/internal/alert"
	"github.com/ppiankov/verifact/internal/cache"
	"github.com/ppiankov/verifact/internal/detect"
	"github.com/ppiankov/verifact/internal/evidence"
	"github.com/ppiankov/verifact/internal/index"
	"github.com/ppiankov/verifact/internal/llm"
	"github.com/ppiankov/verifact/internal/model"
	"github.com/ppiankov/verifact/internal/store"
	"github.com/ppiankov/verifact/internal/verdict"
)

const moonClaim = "The moon landing was faked in 1969"

// scriptedProvider answers detection and fact-check prompts with fixed JSON
type scriptedProvider struct {
	mu        sync.Mutex
	detection string
	factCheck string
	calls     int
}

func (p *scriptedProvider) Name() string                         { return "scripted" }
func (p *scriptedProvider) IsAvailable(ctx context.Context) bool { return true }

func (p *scriptedProvider) Generate(ctx context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	switch {
	case strings.Contains(req.System, "claim detection"):
		return &llm.GenerateResponse{Content: p.detection, Model: "scripted-1"}, nil
	case strings.Contains(req.System, "fact-checking"):
		if p.factCheck == "" {
			return nil, errors.New("no fact check scripted")
		}
		return &llm.GenerateResponse{Content: p.factCheck, Model: "scripted-1"}, nil
	default:
		return &llm.GenerateResponse{Content: "Simple words.", Model: "scripted-1"}, nil
	}
}

func claimJSON(text string) string {
	return `{"is_claim": true, "claim_text": "` + text + `", "entities": [{"text": "moon", "type": "LOCATION", "confidence": 0.9}], "claim_type": "science", "confidence": 0.95}`
}

type fixedEmbedder struct {
	vectors map[string][]float32
}

func (e *fixedEmbedder) Name() string   { return "fixed" }
func (e *fixedEmbedder) Dimension() int { return 3 }

func (e *fixedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if v, ok := e.vectors[text]; ok {
		return v, nil
	}
	return []float32{1, 1, 1}, nil
}

// stubSource returns fixed hits and can observe claim status while retrieval runs
type stubSource struct {
	hits    []model.EvidenceSource
	observe func(ctx context.Context)
}

func (s *stubSource) Name() string { return "stub" }

func (s *stubSource) Search(ctx context.Context, query string) ([]model.EvidenceSource, error) {
	if s.observe != nil {
		s.observe(ctx)
	}
	return s.hits, nil
}

type harness struct {
	p        *Pipeline
	store    *store.Store
	provider *scriptedProvider
}

type options struct {
	sources []evidence.Source
	fetcher *evidence.Fetcher
	vectors map[string][]float32
	noIndex bool
	cache   cache.Cache
}

func newHarness(t *testing.T, opts options) *harness {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "verifact.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	var idx *index.Service
	if !opts.noIndex {
		idx, err = index.Open(index.Config{Dimension: 3, Embedder: &fixedEmbedder{vectors: opts.vectors}})
		require.NoError(t, err)
		t.Cleanup(func() { idx.Close() })
	}

	provider := &scriptedProvider{detection: claimJSON(moonClaim)}
	cfg := model.DefaultConfig()
	p := New(Deps{
		Store:    st,
		Index:    idx,
		Detector: detect.New(provider, nil),
		Evidence: evidence.NewAggregator(opts.sources, evidence.AggregatorConfig{CacheTTL: time.Minute}, opts.cache, nil, nil),
		Fetcher:  opts.fetcher,
		Verdicts: verdict.New(provider, nil),
		Alerts:   alert.NewRaiser(st, cfg.Alerts, nil, nil),
	})
	return &harness{p: p, store: st, provider: provider}
}

func (h *harness) ingest(t *testing.T, text string) string {
	t.Helper()
	res, err := h.p.Ingest(context.Background(), IngestRequest{Text: text, Source: "test"})
	require.NoError(t, err)
	require.True(t, res.IsClaim)
	return res.ClaimID
}

func TestMoonLandingWithoutEvidenceProviders(t *testing.T) {
	h := newHarness(t, options{})
	ctx := context.Background()

	res, err := h.p.Ingest(ctx, IngestRequest{Text: moonClaim, Source: "manual"})
	require.NoError(t, err)
	require.True(t, res.IsClaim)
	assert.Equal(t, ClaimStoredMessage, res.Message)

	claim, err := h.store.GetClaim(ctx, res.ClaimID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, claim.Status)
	assert.Equal(t, moonClaim, claim.ClaimText)
	assert.Equal(t, model.ClaimTypeScience, claim.ClaimType)
	assert.Equal(t, "manual", claim.SourceType)
	assert.Len(t, claim.Embedding, 3)
	assert.Equal(t, 1, h.p.IndexStats().Total)

	out, err := h.p.Verify(ctx, res.ClaimID, false)
	require.NoError(t, err)
	assert.False(t, out.Cached)
	assert.Equal(t, model.LabelUnverified, out.Verdict.Label)
	assert.Empty(t, out.Verdict.Sources)
	assert.NotNil(t, out.Verdict.Sources)
	assert.Equal(t, 0, out.Verdict.HarmScore)
	assert.Nil(t, out.Alert)
	require.NotNil(t, out.Evidence)
	assert.Empty(t, out.Evidence.Sources)

	claim, err = h.store.GetClaim(ctx, res.ClaimID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusVerified, claim.Status)
	assert.Equal(t, out.Verdict.ID, claim.VerdictID)
}

func TestVerify_StatusPassesThroughProcessing(t *testing.T) {
	var (
		h       *harness
		claimID string
		seen    model.ClaimStatus
	)
	watcher := &stubSource{observe: func(ctx context.Context) {
		c, err := h.store.GetClaim(ctx, claimID)
		if err == nil {
			seen = c.Status
		}
	}}
	h = newHarness(t, options{sources: []evidence.Source{watcher}})
	claimID = h.ingest(t, moonClaim)

	_, err := h.p.Verify(context.Background(), claimID, false)
	require.NoError(t, err)
	assert.Equal(t, model.StatusProcessing, seen)
}

func TestIngest_NotAClaim(t *testing.T) {
	h := newHarness(t, options{})
	h.provider.detection = `{"is_claim": false, "confidence": 0.2}`

	res, err := h.p.Ingest(context.Background(), IngestRequest{Text: "I love sunny afternoons"})
	require.NoError(t, err)
	assert.False(t, res.IsClaim)
	assert.Empty(t, res.ClaimID)
	assert.Equal(t, NoClaimMessage, res.Message)

	st, err := h.p.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, st.TotalClaims)
}

func TestIngest_Validation(t *testing.T) {
	h := newHarness(t, options{})

	_, err := h.p.Ingest(context.Background(), IngestRequest{Text: "too short"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = h.p.Ingest(context.Background(), IngestRequest{Text: strings.Repeat("a", 10001)})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, 0, h.provider.calls)
}

func TestVerify_ExistingVerdictUnlessForced(t *testing.T) {
	h := newHarness(t, options{})
	ctx := context.Background()
	id := h.ingest(t, moonClaim)

	first, err := h.p.Verify(ctx, id, false)
	require.NoError(t, err)

	again, err := h.p.Verify(ctx, id, false)
	require.NoError(t, err)
	assert.True(t, again.Cached)
	assert.Equal(t, first.Verdict.ID, again.Verdict.ID)
	assert.Nil(t, again.Evidence)

	forced, err := h.p.Verify(ctx, id, true)
	require.NoError(t, err)
	assert.False(t, forced.Cached)
	assert.NotEqual(t, first.Verdict.ID, forced.Verdict.ID)

	claim, err := h.store.GetClaim(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, forced.Verdict.ID, claim.VerdictID)
}

func TestVerify_UnknownClaim(t *testing.T) {
	h := newHarness(t, options{})

	_, err := h.p.Verify(context.Background(), "missing", false)
	assert.ErrorIs(t, err, ErrClaimNotFound)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestVerify_HighHarmRaisesCriticalAlert(t *testing.T) {
	hits := []model.EvidenceSource{
		{URL: "https://www.nasa.gov/apollo", Title: "Apollo 11", Excerpt: "Humans walked on the moon.", Domain: "nasa.gov", ReliabilityScore: 0.85},
	}
	h := newHarness(t, options{sources: []evidence.Source{&stubSource{hits: hits}}})
	h.provider.factCheck = `{
		"verdict": "False",
		"confidence": 0.97,
		"reasoning": "Apollo records contradict the claim.",
		"sources": [{"link": "https://www.nasa.gov/apollo", "excerpt": "walked on the moon"}, {"link": "https://invented.example"}],
		"harm_score": 93,
		"recommended_action": "debunk",
		"tags": ["space"]
	}`
	ctx := context.Background()
	id := h.ingest(t, moonClaim)

	out, err := h.p.Verify(ctx, id, false)
	require.NoError(t, err)
	assert.Equal(t, model.LabelFalse, out.Verdict.Label)
	require.Len(t, out.Verdict.Sources, 1)
	assert.Equal(t, "https://www.nasa.gov/apollo", out.Verdict.Sources[0].Link)
	assert.Equal(t, "Simple words.", out.Verdict.ExplainLike12)

	require.NotNil(t, out.Alert)
	assert.Equal(t, model.SeverityCritical, out.Alert.Severity)

	alerts, err := h.p.ListAlerts(ctx, true, "", 0)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "High Harm Score Detected: False", alerts[0].Title)
	assert.Equal(t, "Claim: "+moonClaim, alerts[0].Description)
	assert.Equal(t, []string{id}, alerts[0].RelatedClaimIDs)

	require.NoError(t, h.p.ResolveAlert(ctx, alerts[0].ID))
	alerts, err = h.p.ListAlerts(ctx, true, "", 0)
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestVerify_EnrichesMissingExcerpts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body><script>x()</script><p>Apollo 11 landed in July 1969.</p></body></html>`))
	}))
	defer srv.Close()

	hits := []model.EvidenceSource{{URL: srv.URL + "/apollo", Title: "Apollo", ReliabilityScore: 0.5}}
	fetcher := evidence.NewFetcher(srv.Client(), nil, nil, "verifact-test", 0, nil)
	h := newHarness(t, options{sources: []evidence.Source{&stubSource{hits: hits}}, fetcher: fetcher})
	id := h.ingest(t, moonClaim)

	out, err := h.p.Verify(context.Background(), id, false)
	require.NoError(t, err)
	require.Len(t, out.Evidence.Sources, 1)
	assert.Equal(t, "Apollo 11 landed in July 1969.", out.Evidence.Sources[0].Excerpt)
}

func TestReview(t *testing.T) {
	h := newHarness(t, options{})
	ctx := context.Background()
	id := h.ingest(t, moonClaim)
	out, err := h.p.Verify(ctx, id, false)
	require.NoError(t, err)

	v, err := h.p.Review(ctx, out.Verdict.ID, model.Review{ReviewerID: "ops", Approve: true, OverrideVerdict: "PartiallyTrue", Notes: "context"})
	require.NoError(t, err)
	assert.True(t, v.HumanReviewed)
	assert.True(t, v.IsPublished)
	assert.Equal(t, model.LabelPartiallyTrue, v.Label)
	assert.Equal(t, "context", v.ReviewerNotes)

	v, err = h.p.Review(ctx, out.Verdict.ID, model.Review{ReviewerID: "ops2"})
	require.NoError(t, err)
	assert.True(t, v.HumanReviewed)
	assert.Equal(t, model.LabelPartiallyTrue, v.Label)

	_, err = h.p.Review(ctx, out.Verdict.ID, model.Review{ReviewerID: "ops", OverrideVerdict: "Maybe"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = h.p.Review(ctx, out.Verdict.ID, model.Review{})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = h.p.Review(ctx, "missing", model.Review{ReviewerID: "ops"})
	assert.ErrorIs(t, err, ErrVerdictNotFound)
}

func TestReconcile(t *testing.T) {
	h := newHarness(t, options{})
	ctx := context.Background()

	for _, id := range []string{"with-verdict", "without-verdict"} {
		require.NoError(t, h.store.CreateClaim(ctx, &model.Claim{ID: id, ClaimText: id, Status: model.StatusProcessing}))
	}
	require.NoError(t, h.store.CreateVerdict(ctx, &model.Verdict{ID: "v1", ClaimID: "with-verdict", Label: model.LabelTrue}))

	// nothing is stale yet
	res, err := h.p.Reconcile(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, ReconcileResult{}, res)

	h.p.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	res, err = h.p.Reconcile(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, ReconcileResult{Linked: 1, Reset: 1}, res)

	c, err := h.store.GetClaim(ctx, "with-verdict")
	require.NoError(t, err)
	assert.Equal(t, model.StatusVerified, c.Status)
	assert.Equal(t, "v1", c.VerdictID)

	c, err = h.store.GetClaim(ctx, "without-verdict")
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, c.Status)
}

func TestClaimDetail(t *testing.T) {
	other := "Apollo astronauts never reached the moon"
	h := newHarness(t, options{vectors: map[string][]float32{
		moonClaim: {0.5, 0.5, 0.5},
		other:     {0.5, 0.5, 0.5001},
	}})
	ctx := context.Background()

	first := h.ingest(t, moonClaim)
	h.provider.detection = claimJSON(other)
	second := h.ingest(t, other)

	_, err := h.p.Verify(ctx, first, false)
	require.NoError(t, err)

	d, err := h.p.ClaimDetail(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, first, d.Claim.ID)
	require.NotNil(t, d.Verdict)
	require.NotNil(t, d.Evidence)
	require.Len(t, d.SimilarClaims, 1)
	assert.Equal(t, second, d.SimilarClaims[0].ClaimID)
	assert.Greater(t, d.SimilarClaims[0].Similarity, 0.99)

	similar := h.p.Similar(ctx, moonClaim, 5, 0.99)
	assert.Len(t, similar, 2)

	_, err = h.p.ClaimDetail(ctx, "missing")
	assert.ErrorIs(t, err, ErrClaimNotFound)
}

func TestListClaimsAndClusters(t *testing.T) {
	h := newHarness(t, options{})
	ctx := context.Background()
	id := h.ingest(t, moonClaim)

	claims, err := h.p.ListClaims(ctx, store.ClaimFilter{ClaimType: model.ClaimTypeScience})
	require.NoError(t, err)
	require.Len(t, claims, 1)
	assert.Equal(t, id, claims[0].ID)

	_, err = h.p.ListClaims(ctx, store.ClaimFilter{Status: "done"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	require.NoError(t, h.store.UpsertCluster(ctx, model.Cluster{ClusterID: "k1", Label: "Moon Landing", ClaimIDs: []string{id}, ClaimCount: 1}))
	require.NoError(t, h.store.AssignCluster(ctx, "k1", []string{id}))

	detail, err := h.p.ClusterDetail(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, "Moon Landing", detail.Cluster.Label)
	require.Len(t, detail.Claims, 1)

	_, err = h.p.ClusterDetail(ctx, "nope")
	assert.ErrorIs(t, err, ErrClusterNotFound)

	_, err = h.p.RefreshClusters(ctx, time.Hour)
	assert.Error(t, err)
}

func TestRebuildIndex(t *testing.T) {
	h := newHarness(t, options{})
	ctx := context.Background()
	h.ingest(t, moonClaim)
	h.ingest(t, moonClaim+" again")

	n, err := h.p.RebuildIndex(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, h.p.IndexStats().Total)
}

func TestWithoutIndex(t *testing.T) {
	h := newHarness(t, options{noIndex: true})
	ctx := context.Background()

	_, err := h.p.Ingest(ctx, IngestRequest{Text: moonClaim, Source: "test"})
	assert.ErrorIs(t, err, ErrNoIndex)
	_, err = h.p.RebuildIndex(ctx)
	assert.ErrorIs(t, err, ErrNoIndex)

	require.NoError(t, h.store.CreateClaim(ctx, &model.Claim{ID: "c1", ClaimText: moonClaim, Status: model.StatusPending, Embedding: []float32{1, 0, 0}}))
	out, err := h.p.Verify(ctx, "c1", false)
	require.NoError(t, err)
	assert.Equal(t, model.LabelUnverified, out.Verdict.Label)

	d, err := h.p.ClaimDetail(ctx, "c1")
	require.NoError(t, err)
	assert.Empty(t, d.SimilarClaims)
	assert.Empty(t, h.p.Similar(ctx, moonClaim, 5, 0.5))
	assert.Equal(t, 0, h.p.IndexStats().Total)

	_, err = h.p.Reconcile(ctx, time.Hour)
	assert.NoError(t, err)
}

func TestVerify_ForceSkipsEvidenceCache(t *testing.T) {
	calls := 0
	src := &stubSource{
		hits:    []model.EvidenceSource{{URL: "https://old.example/a", Title: "old", Excerpt: "old", Domain: "old.example", ReliabilityScore: 0.5}},
		observe: func(ctx context.Context) { calls++ },
	}
	h := newHarness(t, options{sources: []evidence.Source{src}, cache: cache.NewLayeredCache(time.Minute, "", 0)})
	ctx := context.Background()
	id := h.ingest(t, moonClaim)

	first, err := h.p.Verify(ctx, id, false)
	require.NoError(t, err)
	require.Len(t, first.Evidence.Sources, 1)
	assert.Equal(t, 1, calls)

	src.hits = []model.EvidenceSource{{URL: "https://new.example/b", Title: "new", Excerpt: "new", Domain: "new.example", ReliabilityScore: 0.5}}
	forced, err := h.p.Verify(ctx, id, true)
	require.NoError(t, err)
	assert.Equal(t, 2, calls, "forced verification must query the sources again")
	require.Len(t, forced.Evidence.Sources, 1)
	assert.Equal(t, "https://new.example/b", forced.Evidence.Sources[0].URL)
}
