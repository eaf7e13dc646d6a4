package post_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/plumline/promoboard/internal/jobs"
	"github.com/plumline/promoboard/internal/post"
	"github.com/plumline/promoboard/internal/social"
)

func TestPublishWorkerPublishes(t *testing.T) {
	store := newMemStore()
	queue := &memQueue{}
	svc := newService(store, queue)

	record, err := svc.Publish(context.Background(), validInput())
	require.NoError(t, err)

	cafe := &social.Mock{Destination: "cafe"}
	worker := &post.PublishWorker{
		Store:             store,
		Providers:         map[string]social.Provider{"cafe": cafe},
		Queue:             queue,
		WritebackMaxRetry: 3,
		Logger:            zerolog.Nop(),
	}

	task, err := jobs.NewPublishTask(record.ID.String(), 3)
	require.NoError(t, err)
	require.NoError(t, worker.ProcessTask(context.Background(), task))

	require.Len(t, cafe.Published, 1)
	require.Equal(t, "샘플 상품", cafe.Published[0].Subject)

	stored, err := store.Get(context.Background(), record.ID)
	require.NoError(t, err)
	require.Equal(t, post.StatusPublished, stored.Status)
	require.NotNil(t, stored.PostURL)

	// Publish task plus the follow-up sheet write-back.
	require.Len(t, queue.tasks, 2)
	require.Equal(t, jobs.TypeSheetWriteback, queue.tasks[1].Type())
}

func TestPublishWorkerSkipsAlreadyPublished(t *testing.T) {
	store := newMemStore()
	queue := &memQueue{}
	svc := newService(store, queue)

	record, err := svc.Publish(context.Background(), validInput())
	require.NoError(t, err)
	require.NoError(t, store.MarkPublished(context.Background(), record.ID, "https://cafe.example.com/articles/1"))

	cafe := &social.Mock{Destination: "cafe"}
	worker := &post.PublishWorker{
		Store:     store,
		Providers: map[string]social.Provider{"cafe": cafe},
		Queue:     queue,
		Logger:    zerolog.Nop(),
	}

	task, err := jobs.NewPublishTask(record.ID.String(), 3)
	require.NoError(t, err)
	require.NoError(t, worker.ProcessTask(context.Background(), task))
	require.Empty(t, cafe.Published)
}

func TestPublishWorkerMarksFailedOnExhaustedRetries(t *testing.T) {
	store := newMemStore()
	queue := &memQueue{}
	svc := newService(store, queue)

	record, err := svc.Publish(context.Background(), validInput())
	require.NoError(t, err)

	broken := &social.Mock{Destination: "cafe", Err: errors.New("cafe rejected the post")}
	worker := &post.PublishWorker{
		Store:     store,
		Providers: map[string]social.Provider{"cafe": broken},
		Queue:     queue,
		Logger:    zerolog.Nop(),
	}

	task, err := jobs.NewPublishTask(record.ID.String(), 3)
	require.NoError(t, err)
	// Without queue context the worker treats the attempt as final.
	require.Error(t, worker.ProcessTask(context.Background(), task))

	stored, err := store.Get(context.Background(), record.ID)
	require.NoError(t, err)
	require.Equal(t, post.StatusFailed, stored.Status)
	require.NotNil(t, stored.FailReason)
}

func TestPublishWorkerUnknownDestination(t *testing.T) {
	store := newMemStore()
	queue := &memQueue{}
	svc := newService(store, queue)

	record, err := svc.Publish(context.Background(), validInput())
	require.NoError(t, err)

	worker := &post.PublishWorker{
		Store:     store,
		Providers: map[string]social.Provider{},
		Queue:     queue,
		Logger:    zerolog.Nop(),
	}

	task, err := jobs.NewPublishTask(record.ID.String(), 3)
	require.NoError(t, err)
	require.Error(t, worker.ProcessTask(context.Background(), task))

	stored, err := store.Get(context.Background(), record.ID)
	require.NoError(t, err)
	require.Equal(t, post.StatusFailed, stored.Status)
}
