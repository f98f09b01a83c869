package webhook_handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"polyglot-shopify-sync/internal/domain"
	"polyglot-shopify-sync/internal/ports"

	"github.com/rs/zerolog"
)

// GatewayEvictor drops cached per-shop API clients.
type GatewayEvictor interface {
	Evict(shopDomain string)
}

// AppUninstalledHandler handles app uninstalled webhook events
type AppUninstalledHandler struct {
	shops   ports.ShopStore
	gateway GatewayEvictor
	logger  zerolog.Logger
}

// NewAppUninstalledHandler creates a new app uninstalled webhook handler
func NewAppUninstalledHandler(shops ports.ShopStore, gateway GatewayEvictor, logger zerolog.Logger) *AppUninstalledHandler {
	return &AppUninstalledHandler{
		shops:   shops,
		gateway: gateway,
		logger:  logger,
	}
}

// CanHandle returns true if this handler can process the given topic
func (h *AppUninstalledHandler) CanHandle(topic string) bool {
	return topic == "app/uninstalled"
}

// Handle processes an app uninstalled webhook event. The stored access token
// is revoked by Shopify the moment the app is removed, so the shop record and
// the cached API client both have to go.
func (h *AppUninstalledHandler) Handle(ctx context.Context, event *domain.WebhookEvent) error {
	shopDomain := event.Shop
	if shopDomain == "" {
		var payload struct {
			Domain          string `json:"domain"`
			MyshopifyDomain string `json:"myshopify_domain"`
		}
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			return fmt.Errorf("failed to parse app uninstalled webhook payload: %w", err)
		}
		shopDomain = payload.MyshopifyDomain
		if shopDomain == "" {
			shopDomain = payload.Domain
		}
	}
	if shopDomain == "" {
		return fmt.Errorf("app uninstalled webhook carries no shop domain")
	}

	h.gateway.Evict(shopDomain)

	if err := h.shops.DeleteShop(ctx, shopDomain); err != nil {
		return fmt.Errorf("failed to delete shop %s: %w", shopDomain, err)
	}

	h.logger.Info().
		Str("shop", shopDomain).
		Msg("App uninstalled, removed shop credentials and cached client")
	return nil
}
