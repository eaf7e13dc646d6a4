package social

import "context"

// Publication is the rendered material handed to a destination for posting.
type Publication struct {
	Subject   string
	HTML      string
	Text      string
	ImageURLs []string
}

// Receipt identifies a post that was accepted by a destination.
type Receipt struct {
	PostID  string
	PostURL string
}

// Provider defines the behaviour required to publish to one destination.
type Provider interface {
	Name() string
	Publish(ctx context.Context, pub Publication) (Receipt, error)
}

// Mock records publications in memory for testing and development.
type Mock struct {
	Destination string
	Published   []Publication
	Err         error
}

// Name returns the configured destination name.
func (m *Mock) Name() string {
	if m.Destination == "" {
		return "mock"
	}
	return m.Destination
}

// Publish appends the publication and returns a deterministic receipt.
func (m *Mock) Publish(ctx context.Context, pub Publication) (Receipt, error) {
	_ = ctx
	if m.Err != nil {
		return Receipt{}, m.Err
	}
	m.Published = append(m.Published, pub)
	return Receipt{
		PostID:  "mock-1",
		PostURL: "https://" + m.Name() + ".example.com/posts/mock-1",
	}, nil
}
