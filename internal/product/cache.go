package product

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache wraps a Provider with per-URL Redis caching. Metadata for a product
// page changes slowly, so repeated previews of the same URL skip the upstream
// round trip.
type Cache struct {
	Next   Provider
	Client *redis.Client
	TTL    time.Duration
}

func cacheKey(targetURL string) string {
	return "product:info:" + targetURL
}

// Fetch serves cached entries where possible and fetches only the misses.
func (c *Cache) Fetch(ctx context.Context, targetURLs []string) ([]Info, error) {
	if c.Client == nil {
		return c.Next.Fetch(ctx, targetURLs)
	}

	byURL := make(map[string]Info, len(targetURLs))
	misses := make([]string, 0, len(targetURLs))
	for _, u := range targetURLs {
		data, err := c.Client.Get(ctx, cacheKey(u)).Bytes()
		if err != nil {
			misses = append(misses, u)
			continue
		}
		var info Info
		if err := json.Unmarshal(data, &info); err != nil {
			misses = append(misses, u)
			continue
		}
		byURL[u] = info
	}

	if len(misses) > 0 {
		fetched, err := c.Next.Fetch(ctx, misses)
		if err != nil {
			return nil, err
		}
		for _, info := range fetched {
			byURL[info.TargetURL] = info
			if data, err := json.Marshal(info); err == nil {
				// Cache write failures are not worth failing the fetch over.
				_ = c.Client.Set(ctx, cacheKey(info.TargetURL), data, c.TTL).Err()
			}
		}
	}

	out := make([]Info, 0, len(targetURLs))
	for _, u := range targetURLs {
		if info, ok := byURL[u]; ok {
			out = append(out, info)
		}
	}
	return out, nil
}
