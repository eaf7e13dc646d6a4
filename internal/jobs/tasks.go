package jobs

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// Task type names routed through the queue.
const (
	TypePublishPost    = "post:publish"
	TypeSheetWriteback = "sheet:writeback"
)

// PublishPayload carries the identifier of a stored post to publish.
type PublishPayload struct {
	PostID string `json:"post_id"`
}

// WritebackPayload carries the spreadsheet update for a published post.
type WritebackPayload struct {
	RowNumber int    `json:"row_number"`
	PostURL   string `json:"post_url"`
}

// NewPublishTask builds the queue task for publishing a stored post.
func NewPublishTask(postID string, maxRetry int) (*asynq.Task, error) {
	payload, err := json.Marshal(PublishPayload{PostID: postID})
	if err != nil {
		return nil, fmt.Errorf("jobs: marshal publish payload: %w", err)
	}
	return asynq.NewTask(TypePublishPost, payload, asynq.MaxRetry(maxRetry)), nil
}

// NewWritebackTask builds the queue task for marking a sheet row as posted.
func NewWritebackTask(rowNumber int, postURL string, maxRetry int) (*asynq.Task, error) {
	payload, err := json.Marshal(WritebackPayload{RowNumber: rowNumber, PostURL: postURL})
	if err != nil {
		return nil, fmt.Errorf("jobs: marshal writeback payload: %w", err)
	}
	return asynq.NewTask(TypeSheetWriteback, payload, asynq.MaxRetry(maxRetry)), nil
}
