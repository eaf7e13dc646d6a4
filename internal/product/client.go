package product

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

// Client fetches product metadata from the upstream scraping service.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *resilience.HTTPClient
}

type fetchRequest struct {
	TargetURLs []string `json:"target_urls"`
}

type fetchResponse struct {
	Data []Info `json:"data"`
}

// Fetch resolves metadata for the given product URLs in a single upstream call.
func (c *Client) Fetch(ctx context.Context, targetURLs []string) ([]Info, error) {
	if len(targetURLs) == 0 {
		return nil, nil
	}
	body, err := json.Marshal(fetchRequest{TargetURLs: targetURLs})
	if err != nil {
		return nil, fmt.Errorf("product: marshal request: %w", err)
	}
	endpoint := strings.TrimRight(c.BaseURL, "/") + "/api/products/lookup"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("product: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	start := time.Now()
	resp, err := c.HTTP.Do(ctx, req)
	obs.UpstreamLatency.WithLabelValues("product").Observe(obs.DurationMillis(time.Since(start)))
	if err != nil {
		obs.UpstreamRequestsTotal.WithLabelValues("product", "error").Inc()
		return nil, fmt.Errorf("product: fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		obs.UpstreamRequestsTotal.WithLabelValues("product", "error").Inc()
		return nil, fmt.Errorf("product: upstream returned %s", resp.Status)
	}

	var parsed fetchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		obs.UpstreamRequestsTotal.WithLabelValues("product", "error").Inc()
		return nil, fmt.Errorf("product: decode response: %w", err)
	}
	obs.UpstreamRequestsTotal.WithLabelValues("product", "ok").Inc()
	return parsed.Data, nil
}
