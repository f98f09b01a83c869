package application

import (
	"context"
	"errors"
	"fmt"

	"polyglot-shopify-sync/internal/domain"
	"polyglot-shopify-sync/internal/infrastructure/metrics"
	"polyglot-shopify-sync/internal/ports"

	"github.com/rs/zerolog"
)

// ContentSyncService orchestrates the fetch, reconcile and write pipeline for
// collections, articles and menus. Menus have no upstream translation support
// and store their nested item tree verbatim.
type ContentSyncService struct {
	fetcher    ports.ContentFetcher
	reconciler *TranslationReconciler
	writer     *CacheWriter
	contents   ports.ContentStore
	locker     ports.ResourceLocker
	metrics    *metrics.Metrics
	logger     zerolog.Logger
}

// NewContentSyncService creates a new content sync service
func NewContentSyncService(
	fetcher ports.ContentFetcher,
	reconciler *TranslationReconciler,
	writer *CacheWriter,
	contents ports.ContentStore,
	locker ports.ResourceLocker,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *ContentSyncService {
	return &ContentSyncService{
		fetcher:    fetcher,
		reconciler: reconciler,
		writer:     writer,
		contents:   contents,
		locker:     locker,
		metrics:    m,
		logger:     logger,
	}
}

// SyncCollection syncs one collection
func (s *ContentSyncService) SyncCollection(ctx context.Context, shop, id string) error {
	return s.syncResource(ctx, shop, id, domain.ResourceTypeCollection)
}

// SyncArticle syncs one article
func (s *ContentSyncService) SyncArticle(ctx context.Context, shop, id string) error {
	return s.syncResource(ctx, shop, id, domain.ResourceTypeArticle)
}

// SyncMenu syncs one menu
func (s *ContentSyncService) SyncMenu(ctx context.Context, shop, id string) error {
	return s.syncResource(ctx, shop, id, domain.ResourceTypeMenu)
}

// SyncSingleContent is the manual reload variant, returning the refreshed row
// and its translations.
func (s *ContentSyncService) SyncSingleContent(ctx context.Context, shop, id string, resourceType domain.ResourceType) (*domain.Content, []domain.Translation, error) {
	if err := s.syncResource(ctx, shop, id, resourceType); err != nil {
		return nil, nil, err
	}

	content, err := s.contents.GetContent(ctx, shop, id)
	if err != nil {
		return nil, nil, err
	}
	if content == nil {
		return nil, nil, domain.ErrNotFoundUpstream
	}
	translations, err := s.writer.translations.ListTranslations(ctx, shop, id, resourceType)
	if err != nil {
		return nil, nil, err
	}
	return content, translations, nil
}

// DeleteContent removes one content resource and its translations
func (s *ContentSyncService) DeleteContent(ctx context.Context, shop, id string, resourceType domain.ResourceType) error {
	release, err := s.locker.Lock(ctx, shop, resourceType, id)
	if err != nil {
		return err
	}
	defer release()

	return s.writer.DeleteContent(ctx, shop, id, resourceType)
}

// SyncAllCollections syncs every upstream collection sequentially
func (s *ContentSyncService) SyncAllCollections(ctx context.Context, shop string, progress domain.ProgressFunc) (domain.SyncStats, error) {
	return s.syncAll(ctx, shop, domain.ResourceTypeCollection, progress)
}

// SyncAllArticles syncs every upstream article sequentially
func (s *ContentSyncService) SyncAllArticles(ctx context.Context, shop string, progress domain.ProgressFunc) (domain.SyncStats, error) {
	return s.syncAll(ctx, shop, domain.ResourceTypeArticle, progress)
}

// SyncAllMenus syncs every upstream menu sequentially
func (s *ContentSyncService) SyncAllMenus(ctx context.Context, shop string, progress domain.ProgressFunc) (domain.SyncStats, error) {
	return s.syncAll(ctx, shop, domain.ResourceTypeMenu, progress)
}

// ReconcileCatalog deletes every local row of one family whose id is absent
// from the latest full upstream listing. The listing must succeed; a failed
// fetch never triggers cleanup.
func (s *ContentSyncService) ReconcileCatalog(ctx context.Context, shop string, resourceType domain.ResourceType) (int, error) {
	ids, err := s.listUpstreamIDs(ctx, shop, resourceType)
	if err != nil {
		return 0, fmt.Errorf("failed to list %s catalog: %w", resourceType, err)
	}
	deleted, err := s.writer.ReconcileContents(ctx, shop, resourceType, ids)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		s.logger.Info().
			Str("shop", shop).
			Str("resourceType", string(resourceType)).
			Int("deleted", deleted).
			Msg("Removed resources no longer present upstream")
	}
	return deleted, nil
}

// syncAll lists one family's upstream ids and syncs each in order,
// accumulating per-item failures instead of aborting.
func (s *ContentSyncService) syncAll(ctx context.Context, shop string, resourceType domain.ResourceType, progress domain.ProgressFunc) (domain.SyncStats, error) {
	ids, err := s.listUpstreamIDs(ctx, shop, resourceType)
	if err != nil {
		return domain.SyncStats{}, fmt.Errorf("failed to list %s catalog: %w", resourceType, err)
	}

	var stats domain.SyncStats
	for i, id := range ids {
		if err := s.syncResource(ctx, shop, id, resourceType); err != nil {
			stats.Failed++
			s.logger.Error().
				Err(err).
				Str("shop", shop).
				Str("resourceType", string(resourceType)).
				Str("resourceId", id).
				Msg("Resource sync failed, continuing")
		} else {
			stats.Synced++
		}
		if progress != nil {
			progress(i+1, len(ids), fmt.Sprintf("Synced %s %s", resourceType, id))
		}
	}
	return stats, nil
}

// syncResource runs the strict fetch, reconcile, write pipeline for one
// resource under its lock.
func (s *ContentSyncService) syncResource(ctx context.Context, shop, id string, resourceType domain.ResourceType) error {
	release, err := s.locker.Lock(ctx, shop, resourceType, id)
	if err != nil {
		return err
	}
	defer release()

	err = s.syncLocked(ctx, shop, id, resourceType)
	s.recordOutcome(resourceType, err)
	return err
}

func (s *ContentSyncService) syncLocked(ctx context.Context, shop, id string, resourceType domain.ResourceType) error {
	content, err := s.fetchOne(ctx, shop, id, resourceType)
	if errors.Is(err, domain.ErrNotFoundUpstream) {
		s.logger.Info().
			Str("shop", shop).
			Str("resourceType", string(resourceType)).
			Str("resourceId", id).
			Msg("Resource vanished upstream, deleting local copy")
		return s.writer.DeleteContent(ctx, shop, id, resourceType)
	}
	if err != nil {
		return fmt.Errorf("failed to fetch %s %s: %w", resourceType, id, err)
	}

	// Menus carry their item tree verbatim; the upstream API exposes no
	// translations for them.
	if resourceType == domain.ResourceTypeMenu {
		return s.writer.ApplyContent(ctx, content, nil, nil)
	}

	locales, err := s.reconciler.TranslatableLocales(ctx, shop)
	if err != nil {
		return err
	}
	translations, fetchedLocales, err := s.reconciler.Reconcile(ctx, shop, id, resourceType, locales)
	if err != nil {
		return err
	}
	return s.writer.ApplyContent(ctx, content, translations, fetchedLocales)
}

func (s *ContentSyncService) fetchOne(ctx context.Context, shop, id string, resourceType domain.ResourceType) (*domain.Content, error) {
	switch resourceType {
	case domain.ResourceTypeCollection:
		return s.fetcher.FetchCollection(ctx, shop, id)
	case domain.ResourceTypeArticle:
		return s.fetcher.FetchArticle(ctx, shop, id)
	case domain.ResourceTypeMenu:
		return s.fetcher.FetchMenu(ctx, shop, id)
	default:
		return nil, fmt.Errorf("unsupported resource type %q", resourceType)
	}
}

func (s *ContentSyncService) listUpstreamIDs(ctx context.Context, shop string, resourceType domain.ResourceType) ([]string, error) {
	switch resourceType {
	case domain.ResourceTypeCollection:
		return s.fetcher.FetchAllCollectionIDs(ctx, shop)
	case domain.ResourceTypeArticle:
		return s.fetcher.FetchAllArticleIDs(ctx, shop)
	case domain.ResourceTypeMenu:
		return s.fetcher.FetchAllMenuIDs(ctx, shop)
	default:
		return nil, fmt.Errorf("unsupported resource type %q", resourceType)
	}
}

func (s *ContentSyncService) recordOutcome(family domain.ResourceType, err error) {
	if s.metrics == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	s.metrics.SyncOutcomes.WithLabelValues(string(family), outcome).Inc()
}
