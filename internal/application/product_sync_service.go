package application

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"polyglot-shopify-sync/internal/domain"
	"polyglot-shopify-sync/internal/infrastructure/metrics"
	"polyglot-shopify-sync/internal/ports"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// bulkSyncWorkers bounds the fan-out of bulk syncs. Each item's write
// transaction is independent, so parallelism is capped only by the gateway's
// admission rate.
const bulkSyncWorkers = 4

// ProductSyncService orchestrates the fetch, reconcile and write pipeline for
// products.
type ProductSyncService struct {
	fetcher    ports.ProductFetcher
	reconciler *TranslationReconciler
	writer     *CacheWriter
	products   ports.ProductStore
	shops      ports.ShopStore
	locker     ports.ResourceLocker
	metrics    *metrics.Metrics
	logger     zerolog.Logger
}

// NewProductSyncService creates a new product sync service
func NewProductSyncService(
	fetcher ports.ProductFetcher,
	reconciler *TranslationReconciler,
	writer *CacheWriter,
	products ports.ProductStore,
	shops ports.ShopStore,
	locker ports.ResourceLocker,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *ProductSyncService {
	return &ProductSyncService{
		fetcher:    fetcher,
		reconciler: reconciler,
		writer:     writer,
		products:   products,
		shops:      shops,
		locker:     locker,
		metrics:    m,
		logger:     logger,
	}
}

// SyncProduct fetches one product with all children, reconciles its
// translations and writes it atomically. A product that vanished upstream is
// deleted locally.
func (s *ProductSyncService) SyncProduct(ctx context.Context, shop, id string) error {
	release, err := s.locker.Lock(ctx, shop, domain.ResourceTypeProduct, id)
	if err != nil {
		return err
	}
	defer release()

	err = s.syncLocked(ctx, shop, id, true)
	s.recordOutcome(domain.ResourceTypeProduct, err)
	return err
}

// DeleteProduct removes one product and its translations
func (s *ProductSyncService) DeleteProduct(ctx context.Context, shop, id string) error {
	release, err := s.locker.Lock(ctx, shop, domain.ResourceTypeProduct, id)
	if err != nil {
		return err
	}
	defer release()

	return s.writer.DeleteProduct(ctx, shop, id)
}

// SyncSingleProduct is the plan-aware manual reload. When includeAllImages is
// false only the featured image is persisted. Returns the refreshed row and
// its translations.
func (s *ProductSyncService) SyncSingleProduct(ctx context.Context, shop, id string, includeAllImages bool) (*domain.Product, []domain.Translation, error) {
	release, err := s.locker.Lock(ctx, shop, domain.ResourceTypeProduct, id)
	if err != nil {
		return nil, nil, err
	}
	defer release()

	if err := s.syncLocked(ctx, shop, id, includeAllImages); err != nil {
		s.recordOutcome(domain.ResourceTypeProduct, err)
		return nil, nil, err
	}
	s.recordOutcome(domain.ResourceTypeProduct, nil)

	product, err := s.products.GetProduct(ctx, shop, id)
	if err != nil {
		return nil, nil, err
	}
	if product == nil {
		return nil, nil, domain.ErrNotFoundUpstream
	}
	translations, err := s.reconciledRows(ctx, shop, id)
	if err != nil {
		return nil, nil, err
	}
	return product, translations, nil
}

// SyncAllProducts lists every upstream product id and syncs each one. A
// single item's failure never aborts the pass; failures are counted and the
// remaining items proceed.
func (s *ProductSyncService) SyncAllProducts(ctx context.Context, shop string, progress domain.ProgressFunc) (domain.SyncStats, error) {
	ids, err := s.fetcher.FetchAllProductIDs(ctx, shop)
	if err != nil {
		return domain.SyncStats{}, fmt.Errorf("failed to list products: %w", err)
	}

	includeAllImages, err := s.planIncludesAllImages(ctx, shop)
	if err != nil {
		return domain.SyncStats{}, err
	}

	var (
		mu    sync.Mutex
		stats domain.SyncStats
		done  int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bulkSyncWorkers)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			err := s.syncOne(gctx, shop, id, includeAllImages)

			mu.Lock()
			defer mu.Unlock()
			done++
			if err != nil {
				stats.Failed++
				s.logger.Error().
					Err(err).
					Str("shop", shop).
					Str("productId", id).
					Msg("Product sync failed, continuing")
			} else {
				stats.Synced++
			}
			if progress != nil {
				progress(done, len(ids), fmt.Sprintf("Synced product %s", id))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return stats, err
	}
	return stats, nil
}

// ReconcileCatalog deletes every local product whose id is absent from the
// latest full upstream listing. The listing must succeed; a failed fetch
// never triggers cleanup.
func (s *ProductSyncService) ReconcileCatalog(ctx context.Context, shop string) (int, error) {
	ids, err := s.fetcher.FetchAllProductIDs(ctx, shop)
	if err != nil {
		return 0, fmt.Errorf("failed to list products: %w", err)
	}
	deleted, err := s.writer.ReconcileProducts(ctx, shop, ids)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		s.logger.Info().
			Str("shop", shop).
			Int("deleted", deleted).
			Msg("Removed products no longer present upstream")
	}
	return deleted, nil
}

// syncOne is the per-item body of bulk syncs, taking the lock per product.
func (s *ProductSyncService) syncOne(ctx context.Context, shop, id string, includeAllImages bool) error {
	release, err := s.locker.Lock(ctx, shop, domain.ResourceTypeProduct, id)
	if err != nil {
		return err
	}
	defer release()

	err = s.syncLocked(ctx, shop, id, includeAllImages)
	s.recordOutcome(domain.ResourceTypeProduct, err)
	return err
}

// syncLocked runs the strict fetch, reconcile, write pipeline. Callers must
// hold the resource lock.
func (s *ProductSyncService) syncLocked(ctx context.Context, shop, id string, includeAllImages bool) error {
	product, err := s.fetcher.FetchProduct(ctx, shop, id)
	if errors.Is(err, domain.ErrNotFoundUpstream) {
		s.logger.Info().
			Str("shop", shop).
			Str("productId", id).
			Msg("Product vanished upstream, deleting local copy")
		return s.writer.DeleteProduct(ctx, shop, id)
	}
	if err != nil {
		return fmt.Errorf("failed to fetch product %s: %w", id, err)
	}

	if !includeAllImages {
		if featured := product.FeaturedImage(); featured != nil {
			product.Images = []domain.ProductImage{*featured}
		} else {
			product.Images = nil
		}
	}

	locales, err := s.reconciler.TranslatableLocales(ctx, shop)
	if err != nil {
		return err
	}

	translations, fetchedLocales, err := s.reconciler.Reconcile(ctx, shop, id, domain.ResourceTypeProduct, locales)
	if err != nil {
		return err
	}

	mediaIDs := make([]string, 0, len(product.Images))
	for _, img := range product.Images {
		mediaIDs = append(mediaIDs, img.MediaID)
	}
	altRows, altLocales, err := s.reconciler.ReconcileImageAltText(ctx, shop, id, mediaIDs, locales)
	if err != nil {
		return err
	}

	return s.writer.ApplyProduct(ctx, product, translations, fetchedLocales, altRows, altLocales)
}

// reconciledRows reads back the freshly written translation rows
func (s *ProductSyncService) reconciledRows(ctx context.Context, shop, id string) ([]domain.Translation, error) {
	return s.writer.translations.ListTranslations(ctx, shop, id, domain.ResourceTypeProduct)
}

// planIncludesAllImages resolves the shop's plan-derived image limit
func (s *ProductSyncService) planIncludesAllImages(ctx context.Context, shop string) (bool, error) {
	record, err := s.shops.GetShop(ctx, shop)
	if err != nil {
		return false, fmt.Errorf("failed to resolve shop %s: %w", shop, err)
	}
	if record == nil {
		return false, fmt.Errorf("shop %s is not connected", shop)
	}
	return record.Plan.IncludeAllImages(), nil
}

func (s *ProductSyncService) recordOutcome(family domain.ResourceType, err error) {
	if s.metrics == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	s.metrics.SyncOutcomes.WithLabelValues(string(family), outcome).Inc()
}
