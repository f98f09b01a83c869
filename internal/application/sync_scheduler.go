package application

import (
	"context"
	"time"

	"polyglot-shopify-sync/internal/domain"
	"polyglot-shopify-sync/internal/ports"

	"github.com/rs/zerolog"
)

// SyncScheduler runs the full-catalog background sync for every connected
// shop on a fixed interval. Webhook-covered families only get catalog
// reconciliation here; pages, policies and themes get the full pass since
// they have no webhooks.
type SyncScheduler struct {
	shops      ports.ShopStore
	products   *ProductSyncService
	contents   *ContentSyncService
	background *BackgroundSyncService
	interval   time.Duration
	logger     zerolog.Logger
}

// NewSyncScheduler creates a new sync scheduler
func NewSyncScheduler(
	shops ports.ShopStore,
	products *ProductSyncService,
	contents *ContentSyncService,
	background *BackgroundSyncService,
	interval time.Duration,
	logger zerolog.Logger,
) *SyncScheduler {
	return &SyncScheduler{
		shops:      shops,
		products:   products,
		contents:   contents,
		background: background,
		interval:   interval,
		logger:     logger,
	}
}

// Run loops until the context is cancelled. The first pass waits a full
// interval so deploys don't trigger surprise catalog-wide syncs.
func (s *SyncScheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runAll(ctx)
		}
	}
}

func (s *SyncScheduler) runAll(ctx context.Context) {
	shops, err := s.shops.ListShops(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list shops for scheduled sync")
		return
	}

	for _, shop := range shops {
		if ctx.Err() != nil {
			return
		}
		s.runShop(ctx, shop.Domain)
	}
}

// runShop runs one shop's scheduled pass. Each step is independent; a
// failing family must not starve the others.
func (s *SyncScheduler) runShop(ctx context.Context, shop string) {
	start := time.Now()
	s.logger.Info().Str("shop", shop).Msg("Starting scheduled background sync")

	if deleted, err := s.products.ReconcileCatalog(ctx, shop); err != nil {
		s.logger.Error().Err(err).Str("shop", shop).Msg("Scheduled product reconciliation failed")
	} else if deleted > 0 {
		s.logger.Info().Str("shop", shop).Int("deleted", deleted).Msg("Scheduled product reconciliation removed stale rows")
	}
	for _, family := range []domain.ResourceType{
		domain.ResourceTypeCollection,
		domain.ResourceTypeArticle,
		domain.ResourceTypeMenu,
	} {
		if _, err := s.contents.ReconcileCatalog(ctx, shop, family); err != nil {
			s.logger.Error().Err(err).Str("shop", shop).Str("family", string(family)).Msg("Scheduled content reconciliation failed")
		}
	}

	if stats, err := s.background.SyncAllPages(ctx, shop, 0, nil); err != nil {
		s.logger.Error().Err(err).Str("shop", shop).Msg("Scheduled page sync failed")
	} else {
		s.logSyncStats(shop, "pages", stats)
	}
	if stats, err := s.background.SyncAllPolicies(ctx, shop, nil); err != nil {
		s.logger.Error().Err(err).Str("shop", shop).Msg("Scheduled policy sync failed")
	} else {
		s.logSyncStats(shop, "policies", stats)
	}
	if stats, err := s.background.SyncAllThemes(ctx, shop, nil); err != nil {
		s.logger.Error().Err(err).Str("shop", shop).Msg("Scheduled theme sync failed")
	} else {
		s.logSyncStats(shop, "themes", stats)
	}

	s.logger.Info().
		Str("shop", shop).
		Dur("duration", time.Since(start)).
		Msg("Scheduled background sync finished")
}

func (s *SyncScheduler) logSyncStats(shop, family string, stats domain.SyncStats) {
	s.logger.Info().
		Str("shop", shop).
		Str("family", family).
		Int("synced", stats.Synced).
		Int("failed", stats.Failed).
		Int("deleted", stats.Deleted).
		Msg("Scheduled sync pass completed")
}
