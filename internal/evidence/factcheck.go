package evidence

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/ppiankov/verifact/internal/model"
	"github.com/ppiankov/verifact/internal/util"
	"github.com/ppiankov/verifact/internal/worker"
)

const (
	factCheckReliability = 0.9
	factCheckMaxClaims   = 5
	excerptLimit         = 500
)

// SourceOptions are the collaborators shared by the HTTP adapters
type SourceOptions struct {
	Client      *http.Client
	Limiter     *worker.Limiter
	UserAgent   string
	Reliability *ReliabilityTable
	Logger      *slog.Logger
}

func (o SourceOptions) withDefaults() SourceOptions {
	if o.Client == nil {
		o.Client = util.NewHTTPClient(10*time.Second, "", "", "")
	}
	if o.Reliability == nil {
		o.Reliability = NewReliabilityTable(nil)
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// FactCheckSource queries the Google Fact Check Tools claims:search endpoint
type FactCheckSource struct {
	endpoint string
	apiKey   string
	opts     SourceOptions
}

// NewFactCheckSource creates the adapter; an empty apiKey disables it
func NewFactCheckSource(endpoint, apiKey string, opts SourceOptions) *FactCheckSource {
	return &FactCheckSource{endpoint: endpoint, apiKey: apiKey, opts: opts.withDefaults()}
}

func (s *FactCheckSource) Name() string { return "factcheck" }

type factCheckResponse struct {
	Claims []struct {
		Text        string `json:"text"`
		Claimant    string `json:"claimant"`
		ClaimReview []struct {
			Publisher struct {
				Name string `json:"name"`
				Site string `json:"site"`
			} `json:"publisher"`
			URL           string `json:"url"`
			Title         string `json:"title"`
			ReviewDate    string `json:"reviewDate"`
			TextualRating string `json:"textualRating"`
		} `json:"claimReview"`
	} `json:"claims"`
}

func (s *FactCheckSource) Search(ctx context.Context, query string) ([]model.EvidenceSource, error) {
	if s.apiKey == "" {
		s.opts.Logger.Warn("fact check API key not configured, skipping", "adapter", s.Name())
		return nil, nil
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("key", s.apiKey)
	params.Set("languageCode", "en")

	var resp factCheckResponse
	if err := getJSON(ctx, s.opts.Client, s.opts.Limiter, s.endpoint+"?"+params.Encode(), s.opts.UserAgent, &resp); err != nil {
		return nil, fmt.Errorf("fact check search: %w", err)
	}

	claims := resp.Claims
	if len(claims) > factCheckMaxClaims {
		claims = claims[:factCheckMaxClaims]
	}

	var out []model.EvidenceSource
	for _, claim := range claims {
		for _, review := range claim.ClaimReview {
			if review.URL == "" {
				continue
			}
			title := review.Title
			if title == "" {
				title = "Fact Check"
			}
			excerpt := claim.Text
			if review.TextualRating != "" {
				excerpt = fmt.Sprintf("%s (rated: %s)", claim.Text, review.TextualRating)
			}
			out = append(out, model.EvidenceSource{
				URL:              review.URL,
				Title:            title,
				Excerpt:          util.Truncate(excerpt, excerptLimit),
				PublishedDate:    parseDate(review.ReviewDate),
				Domain:           util.Domain(review.URL),
				ReliabilityScore: factCheckReliability,
				SourceType:       model.SourceFactCheck,
			})
		}
	}
	return out, nil
}

// parseDate accepts the RFC 3339 and date-only forms the providers emit
func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05Z0700", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}
