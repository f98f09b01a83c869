package webhook_handlers

import (
	"context"

	"polyglot-shopify-sync/internal/application"
	"polyglot-shopify-sync/internal/domain"

	"github.com/rs/zerolog"
)

// ProductHandler handles product-related webhook events
type ProductHandler struct {
	products *application.ProductSyncService
	logger   zerolog.Logger
}

// NewProductHandler creates a new product webhook handler
func NewProductHandler(products *application.ProductSyncService, logger zerolog.Logger) *ProductHandler {
	return &ProductHandler{
		products: products,
		logger:   logger,
	}
}

// CanHandle returns true if this handler can process the given topic
func (h *ProductHandler) CanHandle(topic string) bool {
	return topic == "products/create" ||
		topic == "products/update" ||
		topic == "products/delete"
}

// Handle processes a product webhook event. Create and update converge on the
// same upsert sync; delete tolerates the product already being absent.
func (h *ProductHandler) Handle(ctx context.Context, event *domain.WebhookEvent) error {
	id, err := resourceGID(event.Payload, "Product")
	if err != nil {
		return err
	}

	h.logger.Info().
		Str("topic", event.Topic).
		Str("shop", event.Shop).
		Str("productId", id).
		Msg("Processing product webhook event")

	if event.Topic == "products/delete" {
		return h.products.DeleteProduct(ctx, event.Shop, id)
	}
	return h.products.SyncProduct(ctx, event.Shop, id)
}
