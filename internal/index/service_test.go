package index

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/verifact/internal/model"
)

type fakeEmbedder struct {
	dim     int
	vectors map[string][]float32
	err     error
}

func (f *fakeEmbedder) Name() string   { return "fake" }
func (f *fakeEmbedder) Dimension() int { return f.dim }

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	return make([]float32, f.dim), nil
}

func newService(t *testing.T, path string, emb *fakeEmbedder) *Service {
	t.Helper()
	dim := 4
	if emb != nil {
		dim = emb.dim
	}
	cfg := Config{Path: path, Dimension: dim}
	if emb != nil {
		cfg.Embedder = emb
	}
	s, err := Open(cfg)
	require.NoError(t, err)
	return s
}

func TestSearch_IdenticalVectorSimilarityOne(t *testing.T) {
	s := newService(t, "", nil)
	defer s.Close()

	v := []float32{0.1, 0.2, 0.3, 0.4}
	require.NoError(t, s.Insert(context.Background(), "c1", "text one", v))
	require.NoError(t, s.Insert(context.Background(), "c2", "text two", []float32{5, 5, 5, 5}))

	matches := s.SearchVector(v, 5, 0)
	require.Len(t, matches, 2)
	assert.Equal(t, "c1", matches[0].ClaimID)
	assert.InDelta(t, 1.0, matches[0].Similarity, 1e-9)
	assert.Equal(t, 0.0, matches[0].Distance)
	assert.Less(t, matches[1].Similarity, matches[0].Similarity)
}

func TestSearch_NearIdenticalParaphrases(t *testing.T) {
	emb := &fakeEmbedder{dim: 4, vectors: map[string][]float32{
		"COVID vaccines contain microchips":      {0.5, 0.5, 0.5, 0.5},
		"The COVID vaccine has microchips in it": {0.501, 0.499, 0.5, 0.5},
	}}
	s := newService(t, "", emb)
	defer s.Close()

	require.NoError(t, s.Insert(context.Background(), "c1", "COVID vaccines contain microchips", nil))
	matches := s.Search(context.Background(), "The COVID vaccine has microchips in it", 5, 0.8)

	require.Len(t, matches, 1)
	assert.Greater(t, matches[0].Similarity, 0.99)
}

func TestSearch_KAndThreshold(t *testing.T) {
	s := newService(t, "", nil)
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.Insert(ctx, "a", "a", []float32{0, 0, 0, 0}))
	require.NoError(t, s.Insert(ctx, "b", "b", []float32{0, 0, 0, 0}))
	require.NoError(t, s.Insert(ctx, "c", "c", []float32{10, 0, 0, 0}))

	all := s.SearchVector([]float32{0, 0, 0, 0}, 0, 0)
	require.Len(t, all, 3)
	// ties keep insertion order
	assert.Equal(t, "a", all[0].ClaimID)
	assert.Equal(t, "b", all[1].ClaimID)

	assert.Len(t, s.SearchVector([]float32{0, 0, 0, 0}, 1, 0), 1)
	assert.Len(t, s.SearchVector([]float32{0, 0, 0, 0}, 100, 0.5), 2)
	assert.Empty(t, s.SearchVector([]float32{1, 2}, 5, 0))
}

func TestEmbed_FailuresProduceZeroVector(t *testing.T) {
	ctx := context.Background()

	s := newService(t, "", &fakeEmbedder{dim: 3, err: errors.New("down")})
	assert.Equal(t, []float32{0, 0, 0}, s.Embed(ctx, "x"))
	s.Close()

	s = newService(t, "", &fakeEmbedder{dim: 3, vectors: map[string][]float32{"x": {1, 2}}})
	assert.Equal(t, []float32{0, 0, 0}, s.Embed(ctx, "x"))
	s.Close()

	s = newService(t, "", nil)
	assert.Len(t, s.Embed(ctx, "x"), 4)
	s.Close()
}

func TestInsert_DimensionMismatch(t *testing.T) {
	s := newService(t, "", nil)
	defer s.Close()

	err := s.Insert(context.Background(), "c1", "x", []float32{1, 2, 3})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
	assert.Equal(t, 0, s.Stats().Total)
}

func TestPersistence_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s := newService(t, dir, nil)
	require.NoError(t, s.Insert(ctx, "c1", "one", []float32{1, 0, 0, 0}))
	require.NoError(t, s.Insert(ctx, "c2", "two", []float32{0, 1, 0, 0}))
	require.NoError(t, s.Close())

	s = newService(t, dir, nil)
	defer s.Close()

	stats := s.Stats()
	assert.Equal(t, Stats{Total: 2, Dimension: 4, IndexType: "FlatL2"}, stats)
	matches := s.SearchVector([]float32{0, 1, 0, 0}, 1, 0)
	require.Len(t, matches, 1)
	assert.Equal(t, "c2", matches[0].ClaimID)
	assert.Equal(t, "two", matches[0].ClaimText)
}

func TestConcurrentInsertAndSearch(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	s := newService(t, dir, nil)

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			vec := []float32{1, float32(i), 0, 0}
			assert.NoError(t, s.Insert(ctx, "c"+strconv.Itoa(i), "claim "+strconv.Itoa(i), vec))
		}()
		go func() {
			defer wg.Done()
			for _, m := range s.SearchVector([]float32{1, float32(i), 0, 0}, 5, 0) {
				assert.NotEmpty(t, m.ClaimID)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, n, s.Stats().Total)
	require.NoError(t, s.Close())

	s = newService(t, dir, nil)
	defer s.Close()
	assert.Equal(t, n, s.Stats().Total)

	matches := s.SearchVector([]float32{1, 7, 0, 0}, 1, 0)
	require.Len(t, matches, 1)
	assert.Equal(t, "c7", matches[0].ClaimID)
	assert.Equal(t, "claim 7", matches[0].ClaimText)
}

func TestPersistence_CorruptMetadataResets(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s := newService(t, dir, nil)
	require.NoError(t, s.Insert(ctx, "c1", "one", []float32{1, 0, 0, 0}))
	require.NoError(t, s.Insert(ctx, "c2", "two", []float32{0, 1, 0, 0}))
	require.NoError(t, s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(metaKey), []byte(`{"count": 7, "dimension": 4}`))
	}))
	require.NoError(t, s.Close())

	s = newService(t, dir, nil)
	assert.Equal(t, 0, s.Stats().Total)
	require.NoError(t, s.Insert(ctx, "c3", "three", []float32{0, 0, 1, 0}))
	require.NoError(t, s.Close())

	s = newService(t, dir, nil)
	defer s.Close()
	assert.Equal(t, 1, s.Stats().Total)
}

func TestPersistence_DimensionChangeResets(t *testing.T) {
	dir := t.TempDir()

	s := newService(t, dir, nil)
	require.NoError(t, s.Insert(context.Background(), "c1", "one", []float32{1, 0, 0, 0}))
	require.NoError(t, s.Close())

	s = newService(t, dir, &fakeEmbedder{dim: 8})
	defer s.Close()
	assert.Equal(t, 0, s.Stats().Total)
	assert.Equal(t, 8, s.Stats().Dimension)
}

func TestRebuild(t *testing.T) {
	emb := &fakeEmbedder{dim: 4, vectors: map[string][]float32{"needs embedding": {0, 0, 0, 1}}}
	s := newService(t, "", emb)
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.Insert(ctx, "old", "old", []float32{1, 1, 1, 1}))

	n, err := s.Rebuild(ctx, []model.Claim{
		{ID: "c1", ClaimText: "has vector", Embedding: []float32{1, 0, 0, 0}},
		{ID: "c2", ClaimText: "needs embedding"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, s.Stats().Total)

	matches := s.SearchVector([]float32{0, 0, 0, 1}, 1, 0)
	require.Len(t, matches, 1)
	assert.Equal(t, "c2", matches[0].ClaimID)
}

func TestOpen_InvalidDimension(t *testing.T) {
	_, err := Open(Config{Dimension: 0})
	assert.Error(t, err)
}
