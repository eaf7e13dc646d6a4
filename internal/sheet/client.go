package sheet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/plumline/promoboard/internal/obs"
	"github.com/plumline/promoboard/internal/resilience"
)

// Row is one spreadsheet row keyed by header name. RowNumber is the
// 1-based position in the sheet including the header row.
type Row struct {
	RowNumber int               `json:"rowNumber"`
	Values    map[string]string `json:"values"`
}

// Client talks to the spreadsheet proxy service for one sheet.
type Client struct {
	BaseURL   string
	Token     string
	SheetID   string
	HTTP      *resilience.HTTPClient
	Redis     *redis.Client
	HeaderTTL time.Duration
}

func (c *Client) headerCacheKey() string {
	return "sheet:headers:" + c.SheetID
}

type headersResponse struct {
	Data []string `json:"data"`
}

type rowsResponse struct {
	Data []Row `json:"data"`
}

type updateRequest struct {
	RowNumber int               `json:"rowNumber"`
	NewValues map[string]string `json:"newValues"`
}

// Headers returns the sheet's header row. Headers change rarely, so they are
// cached in Redis for HeaderTTL.
func (c *Client) Headers(ctx context.Context) ([]string, error) {
	if c.Redis != nil {
		if data, err := c.Redis.Get(ctx, c.headerCacheKey()).Bytes(); err == nil {
			var headers []string
			if err := json.Unmarshal(data, &headers); err == nil {
				return headers, nil
			}
		}
	}

	var parsed headersResponse
	if err := c.get(ctx, "/headers", &parsed); err != nil {
		return nil, err
	}

	if c.Redis != nil && len(parsed.Data) > 0 {
		if data, err := json.Marshal(parsed.Data); err == nil {
			_ = c.Redis.Set(ctx, c.headerCacheKey(), data, c.headerTTL()).Err()
		}
	}
	return parsed.Data, nil
}

// FindColumn resolves a header name to its 0-based column index. Matching is
// case-insensitive and ignores surrounding whitespace.
func (c *Client) FindColumn(ctx context.Context, header string) (int, error) {
	headers, err := c.Headers(ctx)
	if err != nil {
		return -1, err
	}
	want := strings.ToLower(strings.TrimSpace(header))
	for i, h := range headers {
		if strings.ToLower(strings.TrimSpace(h)) == want {
			return i, nil
		}
	}
	return -1, fmt.Errorf("sheet: column %q not found", header)
}

// Rows fetches all data rows of the sheet.
func (c *Client) Rows(ctx context.Context) ([]Row, error) {
	var parsed rowsResponse
	if err := c.get(ctx, "/rows", &parsed); err != nil {
		return nil, err
	}
	return parsed.Data, nil
}

// UpdateRow overwrites the given cells of one row.
func (c *Client) UpdateRow(ctx context.Context, rowNumber int, newValues map[string]string) error {
	body, err := json.Marshal(updateRequest{RowNumber: rowNumber, NewValues: newValues})
	if err != nil {
		return fmt.Errorf("sheet: marshal update: %w", err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/rows/update", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(ctx, req)
	if err != nil {
		return fmt.Errorf("sheet: update row: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		obs.UpstreamRequestsTotal.WithLabelValues("sheet", "error").Inc()
		return fmt.Errorf("sheet: upstream returned %s", resp.Status)
	}
	obs.UpstreamRequestsTotal.WithLabelValues("sheet", "ok").Inc()
	return nil
}

func (c *Client) get(ctx context.Context, path string, dst any) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	resp, err := c.do(ctx, req)
	if err != nil {
		return fmt.Errorf("sheet: get %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		obs.UpstreamRequestsTotal.WithLabelValues("sheet", "error").Inc()
		return fmt.Errorf("sheet: upstream returned %s", resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		obs.UpstreamRequestsTotal.WithLabelValues("sheet", "error").Inc()
		return fmt.Errorf("sheet: decode response: %w", err)
	}
	obs.UpstreamRequestsTotal.WithLabelValues("sheet", "ok").Inc()
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body *bytes.Reader) (*http.Request, error) {
	endpoint := strings.TrimRight(c.BaseURL, "/") + "/api/sheets/" + c.SheetID + path
	var req *http.Request
	var err error
	if body == nil {
		req, err = http.NewRequestWithContext(ctx, method, endpoint, nil)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, endpoint, body)
	}
	if err != nil {
		return nil, fmt.Errorf("sheet: build request: %w", err)
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	return req, nil
}

func (c *Client) do(ctx context.Context, req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := c.HTTP.Do(ctx, req)
	obs.UpstreamLatency.WithLabelValues("sheet").Observe(obs.DurationMillis(time.Since(start)))
	if err != nil {
		obs.UpstreamRequestsTotal.WithLabelValues("sheet", "error").Inc()
	}
	return resp, err
}

func (c *Client) headerTTL() time.Duration {
	if c.HeaderTTL <= 0 {
		return 30 * time.Minute
	}
	return c.HeaderTTL
}
