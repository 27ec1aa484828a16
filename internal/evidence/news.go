package evidence

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/ppiankov/verifact/internal/model"
	"github.com/ppiankov/verifact/internal/util"
)

const newsPageSize = 10

// NewsSource queries NewsAPI /v2/everything
type NewsSource struct {
	endpoint string
	apiKey   string
	opts     SourceOptions
}

// NewNewsSource creates the adapter; an empty apiKey disables it
func NewNewsSource(endpoint, apiKey string, opts SourceOptions) *NewsSource {
	return &NewsSource{endpoint: endpoint, apiKey: apiKey, opts: opts.withDefaults()}
}

func (s *NewsSource) Name() string { return "news" }

type newsResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	Articles []struct {
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		PublishedAt string `json:"publishedAt"`
	} `json:"articles"`
}

func (s *NewsSource) Search(ctx context.Context, query string) ([]model.EvidenceSource, error) {
	if s.apiKey == "" {
		s.opts.Logger.Warn("news API key not configured, skipping", "adapter", s.Name())
		return nil, nil
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("apiKey", s.apiKey)
	params.Set("language", "en")
	params.Set("sortBy", "relevancy")
	params.Set("pageSize", strconv.Itoa(newsPageSize))

	var resp newsResponse
	if err := getJSON(ctx, s.opts.Client, s.opts.Limiter, s.endpoint+"?"+params.Encode(), s.opts.UserAgent, &resp); err != nil {
		return nil, fmt.Errorf("news search: %w", err)
	}
	if resp.Status == "error" {
		return nil, fmt.Errorf("news search: %s", resp.Message)
	}

	out := make([]model.EvidenceSource, 0, len(resp.Articles))
	for _, article := range resp.Articles {
		if article.URL == "" {
			continue
		}
		domain := util.Domain(article.URL)
		out = append(out, model.EvidenceSource{
			URL:              article.URL,
			Title:            article.Title,
			Excerpt:          util.Truncate(article.Description, excerptLimit),
			PublishedDate:    parseDate(article.PublishedAt),
			Domain:           domain,
			ReliabilityScore: s.opts.Reliability.Score(domain),
			SourceType:       SourceTypeFor(domain),
		})
	}
	return out, nil
}
