package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockIngester struct {
	mu    sync.Mutex
	calls int
}

func (m *mockIngester) IngestText(ctx context.Context, text string) (string, bool, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	switch {
	case strings.HasPrefix(text, "fail"):
		return "", false, errors.New("store unavailable")
	case strings.HasPrefix(text, "opinion"):
		return "", false, nil
	case strings.HasPrefix(text, "panic"):
		panic("ingester exploded")
	}
	return "id-" + text, true, nil
}

type mockVerifier struct{}

func (mockVerifier) VerifyClaimID(ctx context.Context, claimID string) (string, error) {
	if claimID == "id-bad" {
		return "", errors.New("verify failed")
	}
	return "Unverified", nil
}

func TestBatchProcessor_IngestTexts(t *testing.T) {
	b := NewBatchProcessor(&mockIngester{}, mockVerifier{}, 3)
	texts := []string{"a", "opinion x", "fail y", "b", "bad", "panic z"}

	results := b.IngestTexts(context.Background(), texts, true)
	require.Len(t, results, len(texts))

	for i, r := range results {
		assert.Equal(t, i, r.Index, "result %d out of order", i)
		assert.Equal(t, texts[i], r.Input)
	}
	assert.Equal(t, "id-a", results[0].ClaimID)
	assert.Equal(t, "Unverified", results[0].Label)
	assert.True(t, results[1].Skipped, "non-claim text should be skipped")
	assert.Error(t, results[2].Err, "ingest failure")
	assert.NotEmpty(t, results[2].Error)
	assert.Error(t, results[4].Err, "verify failure")
	assert.Error(t, results[5].Err, "panic should be isolated")
	assert.Contains(t, results[5].Error, "panicked")
}

func TestBatchProcessor_IngestWithoutVerify(t *testing.T) {
	b := NewBatchProcessor(&mockIngester{}, mockVerifier{}, 2)
	results := b.IngestTexts(context.Background(), []string{"a"}, false)
	require.Len(t, results, 1)
	assert.Empty(t, results[0].Label, "verification should not run when verify=false")
}

func TestBatchProcessor_VerifyClaims(t *testing.T) {
	b := NewBatchProcessor(nil, mockVerifier{}, 2)
	results := b.VerifyClaims(context.Background(), []string{"id-1", "id-bad", "id-2"})
	require.Len(t, results, 3)
	assert.Equal(t, "Unverified", results[0].Label)
	assert.Error(t, results[1].Err)
}

func TestBatchProcessor_Empty(t *testing.T) {
	b := NewBatchProcessor(&mockIngester{}, nil, 2)
	assert.Empty(t, b.IngestTexts(context.Background(), nil, false))
}

func TestBatchProcessor_ManyItems(t *testing.T) {
	ing := &mockIngester{}
	b := NewBatchProcessor(ing, nil, 2)
	texts := make([]string, 50)
	for i := range texts {
		texts[i] = "claim" + strings.Repeat("x", i)
	}
	results := b.IngestTexts(context.Background(), texts, false)
	assert.Len(t, results, 50)
	assert.Equal(t, 50, ing.calls)
}

func TestReadLinesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "claims.txt")
	content := "# comment\nThe moon landing was faked in 1969.\n\n  Vaccines cause autism.  \nThe moon landing was faked in 1969.\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	lines, err := ReadLinesFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"The moon landing was faked in 1969.", "Vaccines cause autism."}, lines)
}

func TestReadLinesFromFile_NonExistent(t *testing.T) {
	_, err := ReadLinesFromFile("/nonexistent/claims.txt")
	assert.Error(t, err)
}

func TestBatchProcessor_IngestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.txt")
	require.NoError(t, os.WriteFile(path, []byte("a\nb\n"), 0o644))

	b := NewBatchProcessor(&mockIngester{}, nil, 2)
	results, err := b.IngestFile(context.Background(), path, false)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "id-b", results[1].ClaimID)

	_, err = b.IngestFile(context.Background(), "/nope", false)
	assert.Error(t, err)
}
