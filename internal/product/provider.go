package product

import "context"

// Info is the product metadata fetched for one target URL.
type Info struct {
	TargetURL  string `json:"target_url"`
	Title      string `json:"title"`
	ImageURL   string `json:"image_url"`
	SaleVolume string `json:"sale_volume"`
}

// Provider defines the behaviour required to resolve product metadata.
type Provider interface {
	Fetch(ctx context.Context, targetURLs []string) ([]Info, error)
}

// Mock returns canned metadata and is useful for testing and development.
type Mock struct{}

// Fetch returns one synthetic record per requested URL.
func (Mock) Fetch(ctx context.Context, targetURLs []string) ([]Info, error) {
	_ = ctx
	infos := make([]Info, 0, len(targetURLs))
	for _, u := range targetURLs {
		infos = append(infos, Info{
			TargetURL:  u,
			Title:      "샘플 상품",
			ImageURL:   "https://cdn.example.com/sample.jpg",
			SaleVolume: "100",
		})
	}
	return infos, nil
}
