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

// Band publishes plain-text posts to a band community. Band accepts a single
// image URL, so only the first attached image is sent.
type Band struct {
	BaseURL string
	Token   string
	HTTP    *resilience.HTTPClient
}

// Name identifies the band destination.
func (b *Band) Name() string { return "band" }

type bandPublishRequest struct {
	Content  string `json:"content"`
	ImageURL string `json:"image_url,omitempty"`
}

type bandPublishResponse struct {
	Data struct {
		PostID  string `json:"post_id"`
		PostURL string `json:"post_url"`
	} `json:"data"`
}

// Publish submits a plain-text post to the band community.
func (b *Band) Publish(ctx context.Context, pub Publication) (Receipt, error) {
	imageURL := ""
	if len(pub.ImageURLs) > 0 {
		imageURL = pub.ImageURLs[0]
	}
	body, err := json.Marshal(bandPublishRequest{
		Content:  pub.Text,
		ImageURL: imageURL,
	})
	if err != nil {
		return Receipt{}, fmt.Errorf("band: marshal request: %w", err)
	}
	endpoint := strings.TrimRight(b.BaseURL, "/") + "/api/posts"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return Receipt{}, fmt.Errorf("band: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if b.Token != "" {
		req.Header.Set("Authorization", "Bearer "+b.Token)
	}

	start := time.Now()
	resp, err := b.HTTP.Do(ctx, req)
	obs.UpstreamLatency.WithLabelValues("band").Observe(obs.DurationMillis(time.Since(start)))
	if err != nil {
		obs.UpstreamRequestsTotal.WithLabelValues("band", "error").Inc()
		return Receipt{}, fmt.Errorf("band: publish: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		obs.UpstreamRequestsTotal.WithLabelValues("band", "error").Inc()
		return Receipt{}, fmt.Errorf("band: upstream returned %s", resp.Status)
	}

	var parsed bandPublishResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		obs.UpstreamRequestsTotal.WithLabelValues("band", "error").Inc()
		return Receipt{}, fmt.Errorf("band: decode response: %w", err)
	}
	obs.UpstreamRequestsTotal.WithLabelValues("band", "ok").Inc()
	return Receipt{
		PostID:  parsed.Data.PostID,
		PostURL: parsed.Data.PostURL,
	}, nil
}
