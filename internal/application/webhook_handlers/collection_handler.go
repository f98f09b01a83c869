package webhook_handlers

import (
	"context"

	"polyglot-shopify-sync/internal/application"
	"polyglot-shopify-sync/internal/domain"

	"github.com/rs/zerolog"
)

// CollectionHandler handles collection-related webhook events
type CollectionHandler struct {
	contents *application.ContentSyncService
	logger   zerolog.Logger
}

// NewCollectionHandler creates a new collection webhook handler
func NewCollectionHandler(contents *application.ContentSyncService, logger zerolog.Logger) *CollectionHandler {
	return &CollectionHandler{
		contents: contents,
		logger:   logger,
	}
}

// CanHandle returns true if this handler can process the given topic
func (h *CollectionHandler) CanHandle(topic string) bool {
	return topic == "collections/create" ||
		topic == "collections/update" ||
		topic == "collections/delete"
}

// Handle processes a collection webhook event
func (h *CollectionHandler) Handle(ctx context.Context, event *domain.WebhookEvent) error {
	id, err := resourceGID(event.Payload, "Collection")
	if err != nil {
		return err
	}

	h.logger.Info().
		Str("topic", event.Topic).
		Str("shop", event.Shop).
		Str("collectionId", id).
		Msg("Processing collection webhook event")

	if event.Topic == "collections/delete" {
		return h.contents.DeleteContent(ctx, event.Shop, id, domain.ResourceTypeCollection)
	}
	return h.contents.SyncCollection(ctx, event.Shop, id)
}
