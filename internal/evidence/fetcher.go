package evidence

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/net/html"

	"github.com/ppiankov/verifact/internal/util"
	"github.com/ppiankov/verifact/internal/worker"
)

// ContentLimit caps extracted page text
const ContentLimit = 5000

// Fetcher downloads a page and reduces it to readable text
type Fetcher struct {
	httpClient *http.Client
	robots     *util.RobotsChecker
	limiter    *worker.Limiter
	userAgent  string
	maxBytes   int64
	logger     *slog.Logger
}

// NewFetcher creates a content fetcher. robots and limiter may be nil.
func NewFetcher(client *http.Client, robots *util.RobotsChecker, limiter *worker.Limiter, userAgent string, maxBytes int64, logger *slog.Logger) *Fetcher {
	if client == nil {
		client = &http.Client{}
	}
	// copy so the redirect policy does not leak into the shared client
	c := *client
	c.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= 3 {
			return fmt.Errorf("stopped after 3 redirects")
		}
		return nil
	}
	if maxBytes <= 0 {
		maxBytes = 2_000_000
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{
		httpClient: &c,
		robots:     robots,
		limiter:    limiter,
		userAgent:  userAgent,
		maxBytes:   maxBytes,
		logger:     logger,
	}
}

// FetchContent returns up to ContentLimit characters of visible text, or "" on any failure
func (f *Fetcher) FetchContent(ctx context.Context, rawURL string) string {
	text, err := f.fetch(ctx, rawURL)
	if err != nil {
		f.logger.Debug("content fetch failed", "url", rawURL, "error", err)
		return ""
	}
	return text
}

func (f *Fetcher) fetch(ctx context.Context, rawURL string) (string, error) {
	if f.robots != nil {
		allowed, delay, err := f.robots.Allowed(ctx, rawURL)
		if err != nil {
			return "", err
		}
		if !allowed {
			return "", fmt.Errorf("disallowed by robots.txt")
		}
		if f.limiter != nil {
			if err := f.limiter.WaitWithDelay(ctx, rawURL, delay); err != nil {
				return "", err
			}
		}
	} else if f.limiter != nil {
		if err := f.limiter.Wait(ctx, rawURL); err != nil {
			return "", err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	doc, err := html.Parse(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	var b strings.Builder
	collectText(doc, &b)
	return util.Truncate(util.CollapseWhitespace(b.String()), ContentLimit), nil
}

var skippedElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
	"head":     true,
}

func collectText(n *html.Node, b *strings.Builder) {
	if n.Type == html.ElementNode && skippedElements[n.Data] {
		return
	}
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
		b.WriteByte(' ')
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, b)
	}
}
