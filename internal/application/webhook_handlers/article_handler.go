package webhook_handlers

import (
	"context"

	"polyglot-shopify-sync/internal/application"
	"polyglot-shopify-sync/internal/domain"

	"github.com/rs/zerolog"
)

// ArticleHandler handles blog article webhook events
type ArticleHandler struct {
	contents *application.ContentSyncService
	logger   zerolog.Logger
}

// NewArticleHandler creates a new article webhook handler
func NewArticleHandler(contents *application.ContentSyncService, logger zerolog.Logger) *ArticleHandler {
	return &ArticleHandler{
		contents: contents,
		logger:   logger,
	}
}

// CanHandle returns true if this handler can process the given topic
func (h *ArticleHandler) CanHandle(topic string) bool {
	return topic == "articles/create" ||
		topic == "articles/update" ||
		topic == "articles/delete"
}

// Handle processes an article webhook event
func (h *ArticleHandler) Handle(ctx context.Context, event *domain.WebhookEvent) error {
	id, err := resourceGID(event.Payload, "OnlineStoreArticle")
	if err != nil {
		return err
	}

	h.logger.Info().
		Str("topic", event.Topic).
		Str("shop", event.Shop).
		Str("articleId", id).
		Msg("Processing article webhook event")

	if event.Topic == "articles/delete" {
		return h.contents.DeleteContent(ctx, event.Shop, id, domain.ResourceTypeArticle)
	}
	return h.contents.SyncArticle(ctx, event.Shop, id)
}
