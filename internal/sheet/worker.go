package sheet

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/plumline/promoboard/internal/jobs"
	"github.com/plumline/promoboard/internal/obs"
)

// WritebackWorker processes queued spreadsheet write-backs. Write-backs are
// retried by the queue, so a transient sheet outage does not lose the update.
type WritebackWorker struct {
	Service *Service
	Logger  zerolog.Logger
}

// ProcessTask marks one row as posted.
func (w *WritebackWorker) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload jobs.WritebackPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		obs.SheetWritebacksTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("writeback: unmarshal payload: %w: %w", err, asynq.SkipRetry)
	}

	if err := w.Service.MarkPosted(ctx, payload.RowNumber, payload.PostURL); err != nil {
		obs.SheetWritebacksTotal.WithLabelValues("error").Inc()
		w.Logger.Error().Err(err).Int("row", payload.RowNumber).Msg("sheet writeback failed")
		return err
	}

	obs.SheetWritebacksTotal.WithLabelValues("ok").Inc()
	w.Logger.Info().Int("row", payload.RowNumber).Str("post_url", payload.PostURL).Msg("sheet row marked posted")
	return nil
}
