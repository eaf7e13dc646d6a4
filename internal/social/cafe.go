package social

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

// Cafe publishes HTML posts to a cafe board.
type Cafe struct {
	BaseURL string
	Token   string
	ClubID  string
	MenuID  string
	HTTP    *resilience.HTTPClient
}

// Name identifies the cafe destination.
func (c *Cafe) Name() string { return "cafe" }

type cafePublishRequest struct {
	Subject   string   `json:"subject"`
	Content   string   `json:"content"`
	ImageURLs []string `json:"image_urls,omitempty"`
	ClubID    string   `json:"club_id"`
	MenuID    string   `json:"menu_id"`
}

type cafePublishResponse struct {
	Data struct {
		ArticleID  string `json:"article_id"`
		ArticleURL string `json:"article_url"`
	} `json:"data"`
}

// Publish submits an HTML article to the configured cafe board.
func (c *Cafe) Publish(ctx context.Context, pub Publication) (Receipt, error) {
	body, err := json.Marshal(cafePublishRequest{
		Subject:   pub.Subject,
		Content:   pub.HTML,
		ImageURLs: pub.ImageURLs,
		ClubID:    c.ClubID,
		MenuID:    c.MenuID,
	})
	if err != nil {
		return Receipt{}, fmt.Errorf("cafe: marshal request: %w", err)
	}
	endpoint := strings.TrimRight(c.BaseURL, "/") + "/api/articles"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return Receipt{}, fmt.Errorf("cafe: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	start := time.Now()
	resp, err := c.HTTP.Do(ctx, req)
	obs.UpstreamLatency.WithLabelValues("cafe").Observe(obs.DurationMillis(time.Since(start)))
	if err != nil {
		obs.UpstreamRequestsTotal.WithLabelValues("cafe", "error").Inc()
		return Receipt{}, fmt.Errorf("cafe: publish: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		obs.UpstreamRequestsTotal.WithLabelValues("cafe", "error").Inc()
		return Receipt{}, fmt.Errorf("cafe: upstream returned %s", resp.Status)
	}

	var parsed cafePublishResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		obs.UpstreamRequestsTotal.WithLabelValues("cafe", "error").Inc()
		return Receipt{}, fmt.Errorf("cafe: decode response: %w", err)
	}
	obs.UpstreamRequestsTotal.WithLabelValues("cafe", "ok").Inc()
	return Receipt{
		PostID:  parsed.Data.ArticleID,
		PostURL: parsed.Data.ArticleURL,
	}, nil
}
