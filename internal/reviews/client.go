package reviews

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/plumline/promoboard/internal/obs"
	"github.com/plumline/promoboard/internal/resilience"
)

// Provider defines the behaviour required to fetch review highlights for a
// product URL.
type Provider interface {
	Fetch(ctx context.Context, targetURL string) ([]string, error)
}

// Mock returns canned review highlights for testing and development.
type Mock struct{}

// Fetch returns static highlights regardless of the target URL.
func (Mock) Fetch(ctx context.Context, targetURL string) ([]string, error) {
	_, _ = ctx, targetURL
	return []string{"배송이 빨라요", "품질이 좋아요"}, nil
}

// Client fetches a review summary from the upstream review service. The
// upstream returns highlights as a single pipe-delimited string.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *resilience.HTTPClient
}

type summaryRequest struct {
	TargetURL string `json:"target_url"`
}

type summaryResponse struct {
	Data struct {
		Summary string `json:"summary"`
	} `json:"data"`
}

// Fetch requests the review summary and splits it into individual highlights.
func (c *Client) Fetch(ctx context.Context, targetURL string) ([]string, error) {
	if strings.TrimSpace(targetURL) == "" {
		return nil, nil
	}
	body, err := json.Marshal(summaryRequest{TargetURL: targetURL})
	if err != nil {
		return nil, fmt.Errorf("reviews: marshal request: %w", err)
	}
	endpoint := strings.TrimRight(c.BaseURL, "/") + "/api/reviews/summary"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("reviews: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	start := time.Now()
	resp, err := c.HTTP.Do(ctx, req)
	obs.UpstreamLatency.WithLabelValues("reviews").Observe(obs.DurationMillis(time.Since(start)))
	if err != nil {
		obs.UpstreamRequestsTotal.WithLabelValues("reviews", "error").Inc()
		return nil, fmt.Errorf("reviews: fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		obs.UpstreamRequestsTotal.WithLabelValues("reviews", "error").Inc()
		return nil, fmt.Errorf("reviews: upstream returned %s", resp.Status)
	}

	var parsed summaryResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		obs.UpstreamRequestsTotal.WithLabelValues("reviews", "error").Inc()
		return nil, fmt.Errorf("reviews: decode response: %w", err)
	}
	obs.UpstreamRequestsTotal.WithLabelValues("reviews", "ok").Inc()
	return SplitSummary(parsed.Data.Summary), nil
}

// SplitSummary breaks a pipe-delimited review summary into trimmed,
// non-empty highlights.
func SplitSummary(summary string) []string {
	if strings.TrimSpace(summary) == "" {
		return nil
	}
	parts := strings.Split(summary, "|")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
