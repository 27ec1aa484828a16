// Package evidence retrieves, ranks and deduplicates evidence for claims.
package evidence

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/ppiankov/verifact/internal/model"
	"github.com/ppiankov/verifact/internal/worker"
)

// Source is one external evidence provider
type Source interface {
	Name() string
	// Search returns the provider's sources for query. Missing credentials
	// yield (nil, nil); transport or decode failures yield an error.
	Search(ctx context.Context, query string) ([]model.EvidenceSource, error)
}

// maxResponseBytes bounds provider response bodies
const maxResponseBytes = 4 << 20

// getJSON issues a rate-limited GET and decodes the JSON body into out
func getJSON(ctx context.Context, client *http.Client, limiter *worker.Limiter, endpoint, userAgent string, out any) error {
	if limiter != nil {
		if err := limiter.Wait(ctx, endpoint); err != nil {
			return fmt.Errorf("rate limit: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncateBody(body))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func truncateBody(b []byte) string {
	if len(b) > 200 {
		return string(b[:200]) + "..."
	}
	return string(b)
}
