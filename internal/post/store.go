package post

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrStoreUnavailable indicates the post store dependency is not configured.
var ErrStoreUnavailable = errors.New("post: store unavailable")

// ErrNotFound indicates the requested post does not exist.
var ErrNotFound = errors.New("post: not found")

// Status tracks a post through its publish lifecycle.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPublished Status = "published"
	StatusFailed    Status = "failed"
)

// Record is one stored post with its rendered bodies.
type Record struct {
	ID          uuid.UUID
	Destination string
	TargetURL   string
	Subject     string
	BodyHTML    string
	BodyText    string
	ImageURL    string
	SheetRow    int
	Status      Status
	PostURL     *string
	FailReason  *string
	CreatedAt   time.Time
	PublishedAt *time.Time
}

// Store provides database accessors for posts.
type Store interface {
	Insert(ctx context.Context, record Record) (uuid.UUID, error)
	Get(ctx context.Context, id uuid.UUID) (Record, error)
	List(ctx context.Context, status string, limit, offset int) ([]Record, error)
	Count(ctx context.Context, status string) (int64, error)
	MarkPublished(ctx context.Context, id uuid.UUID, postURL string) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error
}

// NewStore constructs a Store backed by a pgx connection pool.
func NewStore(pool *pgxpool.Pool) Store {
	return &pgStore{pool: pool}
}

type pgStore struct {
	pool *pgxpool.Pool
}

const recordColumns = `id, destination, target_url, subject, body_html, body_text, image_url, sheet_row, status, post_url, fail_reason, created_at, published_at`

// Insert persists a pending post and returns the generated identifier.
func (s *pgStore) Insert(ctx context.Context, record Record) (uuid.UUID, error) {
	if s == nil || s.pool == nil {
		return uuid.Nil, ErrStoreUnavailable
	}
	var id uuid.UUID
	err := s.pool.QueryRow(ctx, `INSERT INTO posts (destination, target_url, subject, body_html, body_text, image_url, sheet_row, status)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
		record.Destination, record.TargetURL, record.Subject, record.BodyHTML, record.BodyText,
		record.ImageURL, record.SheetRow, StatusPending).Scan(&id)
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// Get fetches a post by ID.
func (s *pgStore) Get(ctx context.Context, id uuid.UUID) (Record, error) {
	if s == nil || s.pool == nil {
		return Record{}, ErrStoreUnavailable
	}
	row := s.pool.QueryRow(ctx, `SELECT `+recordColumns+` FROM posts WHERE id = $1`, id)
	record, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	return record, err
}

// List fetches posts, newest first, optionally filtered by status.
func (s *pgStore) List(ctx context.Context, status string, limit, offset int) ([]Record, error) {
	if s == nil || s.pool == nil {
		return nil, ErrStoreUnavailable
	}
	limit = clampPositive(limit, 1, 200)
	if offset < 0 {
		offset = 0
	}
	var (
		rows pgx.Rows
		err  error
	)
	if status != "" {
		rows, err = s.pool.Query(ctx, `SELECT `+recordColumns+` FROM posts WHERE status = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, status, limit, offset)
	} else {
		rows, err = s.pool.Query(ctx, `SELECT `+recordColumns+` FROM posts ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]Record, 0, limit)
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// Count counts posts optionally filtered by status.
func (s *pgStore) Count(ctx context.Context, status string) (int64, error) {
	if s == nil || s.pool == nil {
		return 0, ErrStoreUnavailable
	}
	var total int64
	if status != "" {
		if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM posts WHERE status = $1`, status).Scan(&total); err != nil {
			return 0, err
		}
		return total, nil
	}
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM posts`).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// MarkPublished transitions a post to published and records the destination URL.
func (s *pgStore) MarkPublished(ctx context.Context, id uuid.UUID, postURL string) error {
	if s == nil || s.pool == nil {
		return ErrStoreUnavailable
	}
	tag, err := s.pool.Exec(ctx, `UPDATE posts SET status = $1, post_url = $2, fail_reason = NULL, published_at = now() WHERE id = $3`,
		StatusPublished, postURL, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkFailed transitions a post to failed with the terminal error message.
func (s *pgStore) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	if s == nil || s.pool == nil {
		return ErrStoreUnavailable
	}
	tag, err := s.pool.Exec(ctx, `UPDATE posts SET status = $1, fail_reason = $2 WHERE id = $3`,
		StatusFailed, reason, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanRecord(row pgx.Row) (Record, error) {
	var record Record
	var status string
	var postURL, failReason sql.NullString
	var publishedAt sql.NullTime
	if err := row.Scan(&record.ID, &record.Destination, &record.TargetURL, &record.Subject,
		&record.BodyHTML, &record.BodyText, &record.ImageURL, &record.SheetRow, &status,
		&postURL, &failReason, &record.CreatedAt, &publishedAt); err != nil {
		return Record{}, err
	}
	record.Status = Status(status)
	if postURL.Valid {
		record.PostURL = &postURL.String
	}
	if failReason.Valid {
		record.FailReason = &failReason.String
	}
	if publishedAt.Valid {
		t := publishedAt.Time
		record.PublishedAt = &t
	}
	return record, nil
}

func clampPositive(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
