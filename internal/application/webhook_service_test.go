package application

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWebhookService(handlers ...WebhookHandler) (*WebhookService, *fakeWebhookStore, *fakeRetryQueue) {
	store := newFakeWebhookStore()
	retries := &fakeRetryQueue{}
	service := NewWebhookService(store, &fakeEncryption{}, retries, handlers, nil, zerolog.Nop())
	return service, store, retries
}

func TestIngestEncryptsPayloadBeforePersisting(t *testing.T) {
	service, store, _ := newTestWebhookService()
	ctx := context.Background()

	body := []byte(`{"id": 42}`)
	event, err := service.Ingest(ctx, "shop1", "products/update", body)
	require.NoError(t, err)
	assert.Equal(t, body, event.Payload)

	log, err := store.GetLog(ctx, event.LogID)
	require.NoError(t, err)
	require.NotNil(t, log)
	assert.Equal(t, "enc:"+string(body), log.Payload, "raw payload never stored in the clear")
	assert.False(t, log.Processed)
}

func TestProcessMarksLogProcessed(t *testing.T) {
	handler := &fakeWebhookHandler{topics: map[string]bool{"products/update": true}}
	service, store, retries := newTestWebhookService(handler)
	ctx := context.Background()

	event, err := service.Ingest(ctx, "shop1", "products/update", []byte(`{"id": 1}`))
	require.NoError(t, err)

	service.Process(ctx, event)

	require.Len(t, handler.handled, 1)
	log, err := store.GetLog(ctx, event.LogID)
	require.NoError(t, err)
	assert.True(t, log.Processed)
	assert.Empty(t, log.Error)
	assert.Empty(t, retries.scheduled)
}

func TestProcessFailureSchedulesRetry(t *testing.T) {
	handler := &fakeWebhookHandler{
		topics: map[string]bool{"products/update": true},
		err:    errors.New("sync blew up"),
	}
	service, store, retries := newTestWebhookService(handler)
	ctx := context.Background()

	event, err := service.Ingest(ctx, "shop1", "products/update", []byte(`{"id": 1}`))
	require.NoError(t, err)

	service.Process(ctx, event)

	log, err := store.GetLog(ctx, event.LogID)
	require.NoError(t, err)
	assert.True(t, log.Processed, "a failed attempt is still recorded as processed")
	assert.Equal(t, "sync blew up", log.Error)
	assert.Equal(t, 1, log.Attempts)
	assert.Equal(t, []string{event.LogID}, retries.scheduled)
}

func TestProcessUnknownTopicIsNotAnError(t *testing.T) {
	service, store, retries := newTestWebhookService()
	ctx := context.Background()

	event, err := service.Ingest(ctx, "shop1", "carts/update", []byte(`{}`))
	require.NoError(t, err)

	service.Process(ctx, event)

	log, err := store.GetLog(ctx, event.LogID)
	require.NoError(t, err)
	assert.True(t, log.Processed, "unhandled topics are acked, not retried forever")
	assert.Empty(t, retries.scheduled)
}

func TestReplayDecryptsAndReprocesses(t *testing.T) {
	handler := &fakeWebhookHandler{topics: map[string]bool{"products/update": true}}
	service, store, _ := newTestWebhookService(handler)
	ctx := context.Background()

	event, err := service.Ingest(ctx, "shop1", "products/update", []byte(`{"id": 7}`))
	require.NoError(t, err)
	require.NoError(t, store.MarkProcessed(ctx, event.LogID, "first attempt failed"))

	require.NoError(t, service.Replay(ctx, event.LogID))

	require.Len(t, handler.handled, 1)
	assert.Equal(t, []byte(`{"id": 7}`), handler.handled[0].Payload)

	log, err := store.GetLog(ctx, event.LogID)
	require.NoError(t, err)
	assert.True(t, log.Processed)
	assert.Empty(t, log.Error)
}

func TestReplaySkipsAlreadyProcessed(t *testing.T) {
	handler := &fakeWebhookHandler{topics: map[string]bool{"products/update": true}}
	service, store, _ := newTestWebhookService(handler)
	ctx := context.Background()

	event, err := service.Ingest(ctx, "shop1", "products/update", []byte(`{}`))
	require.NoError(t, err)
	require.NoError(t, store.MarkProcessed(ctx, event.LogID, ""))

	require.NoError(t, service.Replay(ctx, event.LogID))
	assert.Empty(t, handler.handled, "successfully processed deliveries are not replayed")
}

func TestReplayGivesUpAfterAttemptBudget(t *testing.T) {
	handler := &fakeWebhookHandler{
		topics: map[string]bool{"products/update": true},
		err:    errors.New("still failing"),
	}
	service, store, _ := newTestWebhookService(handler)
	ctx := context.Background()

	event, err := service.Ingest(ctx, "shop1", "products/update", []byte(`{}`))
	require.NoError(t, err)
	for i := 0; i < maxWebhookAttempts; i++ {
		require.NoError(t, store.MarkProcessed(ctx, event.LogID, "failed"))
	}

	require.NoError(t, service.Replay(ctx, event.LogID))
	assert.Empty(t, handler.handled, "exhausted deliveries are dropped, not retried")
}
