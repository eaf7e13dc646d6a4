package sheet

import (
	"context"
	"strings"
	"time"
)

// StatusPosted is the status cell value written after a successful publish.
const StatusPosted = "posted"

// Service applies the work-queue conventions on top of the raw sheet client:
// the status column marks finished rows, and finished rows carry the post URL
// and completion time.
type Service struct {
	Client       *Client
	StatusColumn string
	Now          func() time.Time
}

func (s *Service) statusColumn() string {
	if s.StatusColumn == "" {
		return "status"
	}
	return s.StatusColumn
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Pending returns rows whose status column does not mark them as posted.
func (s *Service) Pending(ctx context.Context) ([]Row, error) {
	rows, err := s.Client.Rows(ctx)
	if err != nil {
		return nil, err
	}
	pending := make([]Row, 0, len(rows))
	for _, row := range rows {
		status := strings.ToLower(strings.TrimSpace(row.Values[s.statusColumn()]))
		if status == StatusPosted {
			continue
		}
		pending = append(pending, row)
	}
	return pending, nil
}

// Claim marks a row as being worked on.
func (s *Service) Claim(ctx context.Context, rowNumber int) error {
	return s.Client.UpdateRow(ctx, rowNumber, map[string]string{
		s.statusColumn(): StatusClaimed,
	})
}

// MarkPosted records a successful publish on the given row.
func (s *Service) MarkPosted(ctx context.Context, rowNumber int, postURL string) error {
	return s.Client.UpdateRow(ctx, rowNumber, map[string]string{
		s.statusColumn(): StatusPosted,
		"post_url":       postURL,
		"posted_at":      s.now().UTC().Format(time.RFC3339),
	})
}
