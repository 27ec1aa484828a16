package evidence

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/ppiankov/verifact/internal/model"
	"github.com/ppiankov/verifact/internal/util"
)

const webResultLimit = 5

// WebSource is the general web fallback, backed by the MediaWiki search API
type WebSource struct {
	endpoint string
	enabled  bool
	opts     SourceOptions
}

// NewWebSource creates the adapter; it stays silent unless enabled
func NewWebSource(endpoint string, enabled bool, opts SourceOptions) *WebSource {
	return &WebSource{endpoint: endpoint, enabled: enabled, opts: opts.withDefaults()}
}

func (s *WebSource) Name() string { return "web" }

type mediaWikiSearchResponse struct {
	Query struct {
		Search []struct {
			Title     string `json:"title"`
			PageID    int    `json:"pageid"`
			Snippet   string `json:"snippet"`
			Timestamp string `json:"timestamp"`
		} `json:"search"`
	} `json:"query"`
}

func (s *WebSource) Search(ctx context.Context, query string) ([]model.EvidenceSource, error) {
	if !s.enabled || s.endpoint == "" {
		return nil, nil
	}

	params := url.Values{}
	params.Set("action", "query")
	params.Set("list", "search")
	params.Set("format", "json")
	params.Set("srsearch", query)
	params.Set("srlimit", fmt.Sprint(webResultLimit))

	var resp mediaWikiSearchResponse
	if err := getJSON(ctx, s.opts.Client, s.opts.Limiter, s.endpoint+"?"+params.Encode(), s.opts.UserAgent, &resp); err != nil {
		return nil, fmt.Errorf("web search: %w", err)
	}

	base, err := url.Parse(s.endpoint)
	if err != nil {
		return nil, fmt.Errorf("web search: parse endpoint: %w", err)
	}

	out := make([]model.EvidenceSource, 0, len(resp.Query.Search))
	for _, hit := range resp.Query.Search {
		if hit.Title == "" {
			continue
		}
		pageURL := fmt.Sprintf("%s://%s/wiki/%s", base.Scheme, base.Host, url.PathEscape(strings.ReplaceAll(hit.Title, " ", "_")))
		domain := util.Domain(pageURL)

		var published *time.Time
		if t, err := time.Parse(time.RFC3339, hit.Timestamp); err == nil {
			published = &t
		}

		out = append(out, model.EvidenceSource{
			URL:              pageURL,
			Title:            hit.Title,
			Excerpt:          util.Truncate(StripHTML(hit.Snippet), excerptLimit),
			PublishedDate:    published,
			Domain:           domain,
			ReliabilityScore: s.opts.Reliability.Score(domain),
			SourceType:       SourceTypeFor(domain),
		})
	}
	return out, nil
}

// StripHTML returns the text content of an HTML fragment
func StripHTML(fragment string) string {
	nodes, err := html.ParseFragment(strings.NewReader(fragment), &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div})
	if err != nil {
		return util.CollapseWhitespace(fragment)
	}
	var b strings.Builder
	for _, n := range nodes {
		collectText(n, &b)
	}
	return util.CollapseWhitespace(b.String())
}
