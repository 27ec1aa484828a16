package evidence

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/verifact/internal/model"
)

func TestFactCheckSource_Search(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "fc-key", q.Get("key"))
		assert.Equal(t, "en", q.Get("languageCode"))
		assert.NotEmpty(t, q.Get("query"))
		_, _ = w.Write([]byte(`{"claims": [
			{"text": "The moon landing was staged", "claimReview": [
				{"url": "https://www.snopes.com/fact-check/moon", "title": "", "reviewDate": "2019-07-16T00:00:00Z", "textualRating": "False"},
				{"url": "https://www.politifact.com/moon", "title": "Moon hoax", "reviewDate": "2020-01-02"}
			]},
			{"text": "no urls here", "claimReview": [{"url": ""}]}
		]}`))
	}))
	defer server.Close()

	src := NewFactCheckSource(server.URL, "fc-key", SourceOptions{Client: server.Client()})
	hits, err := src.Search(context.Background(), "moon landing staged")
	require.NoError(t, err)
	require.Len(t, hits, 2)

	first := hits[0]
	assert.Equal(t, "Fact Check", first.Title, "default title")
	assert.Equal(t, 0.9, first.ReliabilityScore)
	assert.Equal(t, model.SourceFactCheck, first.SourceType)
	assert.Equal(t, "snopes.com", first.Domain)
	require.NotNil(t, first.PublishedDate)
	assert.Equal(t, 2019, first.PublishedDate.Year())
	assert.Contains(t, first.Excerpt, "rated: False")
	assert.NotNil(t, hits[1].PublishedDate, "date-only review date should parse")
}

func TestFactCheckSource_MissingKey(t *testing.T) {
	src := NewFactCheckSource("http://127.0.0.1:1", "", SourceOptions{})
	hits, err := src.Search(context.Background(), "x")
	assert.NoError(t, err)
	assert.Empty(t, hits)
}

func TestNewsSource_Search(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "relevancy", q.Get("sortBy"))
		assert.Equal(t, "10", q.Get("pageSize"))
		assert.Equal(t, "news-key", q.Get("apiKey"))
		_, _ = w.Write([]byte(`{"status": "ok", "articles": [
			{"title": "Apollo 11", "description": "` + strings.Repeat("d", 600) + `", "url": "https://www.bbc.com/news/apollo", "publishedAt": "2024-07-20T10:00:00Z"},
			{"title": "No URL", "url": ""},
			{"title": "Blog", "description": "b", "url": "https://someblog.net/post"}
		]}`))
	}))
	defer server.Close()

	src := NewNewsSource(server.URL, "news-key", SourceOptions{Client: server.Client()})
	hits, err := src.Search(context.Background(), "apollo")
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, 0.95, hits[0].ReliabilityScore)
	assert.Equal(t, 0.5, hits[1].ReliabilityScore)
	assert.Len(t, []rune(hits[0].Excerpt), 500)
}

func TestNewsSource_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"status": "error", "message": "apiKeyInvalid"}`))
	}))
	defer server.Close()

	src := NewNewsSource(server.URL, "bad", SourceOptions{Client: server.Client()})
	_, err := src.Search(context.Background(), "x")
	assert.Error(t, err)
}

func TestWebSource_Search(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "search", r.URL.Query().Get("list"))
		_, _ = w.Write([]byte(`{"query": {"search": [
			{"title": "Apollo 11", "snippet": "The <span class=\"searchmatch\">Moon</span> landing", "timestamp": "2024-01-01T00:00:00Z"}
		]}}`))
	}))
	defer server.Close()

	src := NewWebSource(server.URL+"/w/api.php", true, SourceOptions{Client: server.Client()})
	hits, err := src.Search(context.Background(), "moon landing")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "The Moon landing", hits[0].Excerpt)
	assert.True(t, strings.HasSuffix(hits[0].URL, "/wiki/Apollo_11"), hits[0].URL)
}

func TestWebSource_Disabled(t *testing.T) {
	src := NewWebSource("http://127.0.0.1:1", false, SourceOptions{})
	hits, err := src.Search(context.Background(), "x")
	assert.NoError(t, err)
	assert.Nil(t, hits)
}
