package post

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/plumline/promoboard/internal/jobs"
	"github.com/plumline/promoboard/internal/obs"
	"github.com/plumline/promoboard/internal/social"
)

// PublishWorker delivers stored posts to their destination platforms.
type PublishWorker struct {
	Store     Store
	Providers map[string]social.Provider
	Queue     Enqueuer

	WritebackMaxRetry int
	Logger            zerolog.Logger
}

// ProcessTask publishes one stored post. Delivery errors are returned so the
// queue retries; once retries are exhausted the post is marked failed.
func (w *PublishWorker) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload jobs.PublishPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("publish: unmarshal payload: %w: %w", err, asynq.SkipRetry)
	}
	id, err := uuid.Parse(payload.PostID)
	if err != nil {
		return fmt.Errorf("publish: bad post id %q: %w: %w", payload.PostID, err, asynq.SkipRetry)
	}

	record, err := w.Store.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("publish: load post: %w", err)
	}
	if record.Status == StatusPublished {
		// Replayed task after a crash between publish and ack.
		w.Logger.Info().Str("post_id", id.String()).Msg("post already published, skipping")
		return nil
	}

	provider, ok := w.Providers[record.Destination]
	if !ok {
		_ = w.Store.MarkFailed(ctx, id, "unknown destination "+record.Destination)
		return fmt.Errorf("publish: unknown destination %q: %w", record.Destination, asynq.SkipRetry)
	}

	var imageURLs []string
	if record.ImageURL != "" {
		imageURLs = []string{record.ImageURL}
	}
	receipt, err := provider.Publish(ctx, social.Publication{
		Subject:   record.Subject,
		HTML:      record.BodyHTML,
		Text:      record.BodyText,
		ImageURLs: imageURLs,
	})
	if err != nil {
		obs.PostsPublishedTotal.WithLabelValues(record.Destination, "error").Inc()
		w.Logger.Error().Err(err).Str("post_id", id.String()).Str("destination", record.Destination).Msg("publish attempt failed")
		if w.exhausted(ctx) {
			if markErr := w.Store.MarkFailed(ctx, id, err.Error()); markErr != nil {
				w.Logger.Error().Err(markErr).Str("post_id", id.String()).Msg("failed to mark post failed")
			}
		}
		return fmt.Errorf("publish: deliver to %s: %w", record.Destination, err)
	}

	if err := w.Store.MarkPublished(ctx, id, receipt.PostURL); err != nil {
		return fmt.Errorf("publish: mark published: %w", err)
	}
	obs.PostsPublishedTotal.WithLabelValues(record.Destination, "ok").Inc()
	w.Logger.Info().Str("post_id", id.String()).Str("destination", record.Destination).Str("post_url", receipt.PostURL).Msg("post published")

	if record.SheetRow > 0 {
		wb, err := jobs.NewWritebackTask(record.SheetRow, receipt.PostURL, w.WritebackMaxRetry)
		if err != nil {
			return fmt.Errorf("publish: build writeback task: %w", err)
		}
		if _, err := w.Queue.EnqueueContext(ctx, wb); err != nil {
			// The post is out; losing the write-back must not re-publish it.
			w.Logger.Error().Err(err).Int("row", record.SheetRow).Msg("writeback enqueue failed")
		}
	}
	return nil
}

func (w *PublishWorker) exhausted(ctx context.Context) bool {
	retried, ok := asynq.GetRetryCount(ctx)
	if !ok {
		return true
	}
	max, ok := asynq.GetMaxRetry(ctx)
	if !ok {
		return true
	}
	return retried >= max
}
