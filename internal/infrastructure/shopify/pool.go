package shopify

import (
	"context"
	"fmt"
	"sync"

	"polyglot-shopify-sync/internal/infrastructure/metrics"
	"polyglot-shopify-sync/internal/ports"

	goshopify "github.com/bold-commerce/go-shopify/v4"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const apiVersion = "2024-10"

// GatewayPool hands out one shop-scoped gateway per connected shop. Tokens
// are stored encrypted; the pool decrypts on first use and caches the
// resulting gateway, each with its own token bucket.
type GatewayPool struct {
	app     goshopify.App
	shops   ports.ShopStore
	crypto  ports.EncryptionService
	retry   RetryConfig
	rps     float64
	metrics *metrics.Metrics
	logger  zerolog.Logger

	mu       sync.Mutex
	gateways map[string]*Gateway
}

// NewGatewayPool creates a pool for the given app credentials.
func NewGatewayPool(
	apiKey, apiSecret string,
	shops ports.ShopStore,
	crypto ports.EncryptionService,
	retry RetryConfig,
	rps float64,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *GatewayPool {
	if rps <= 0 {
		rps = DefaultRequestsPerSecond
	}
	return &GatewayPool{
		app:      goshopify.App{ApiKey: apiKey, ApiSecret: apiSecret},
		shops:    shops,
		crypto:   crypto,
		retry:    retry,
		rps:      rps,
		metrics:  m,
		logger:   logger,
		gateways: make(map[string]*Gateway),
	}
}

// ForShop returns the gateway for a shop, creating it on first use.
func (p *GatewayPool) ForShop(ctx context.Context, shopDomain string) (ports.Gateway, error) {
	p.mu.Lock()
	if gw, ok := p.gateways[shopDomain]; ok {
		p.mu.Unlock()
		return gw, nil
	}
	p.mu.Unlock()

	shop, err := p.shops.GetShop(ctx, shopDomain)
	if err != nil {
		return nil, fmt.Errorf("failed to get shop: %w", err)
	}
	if shop == nil {
		return nil, fmt.Errorf("shop not connected: %s", shopDomain)
	}

	accessToken, err := p.crypto.Decrypt(shop.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt access token: %w", err)
	}

	client, err := goshopify.NewClient(p.app, shopDomain, accessToken, goshopify.WithVersion(apiVersion))
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	limiter := rate.NewLimiter(rate.Limit(p.rps), int(p.rps))
	gw := NewGateway(client.GraphQL, limiter, p.retry, p.metrics, p.logger.With().Str("shop", shopDomain).Logger())

	p.mu.Lock()
	defer p.mu.Unlock()
	if existing, ok := p.gateways[shopDomain]; ok {
		return existing, nil
	}
	p.gateways[shopDomain] = gw

	p.logger.Debug().Str("shop", shopDomain).Msg("Created gateway for shop")
	return gw, nil
}

// Evict drops a cached gateway, forcing a token re-read on next use.
func (p *GatewayPool) Evict(shopDomain string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.gateways, shopDomain)
}
