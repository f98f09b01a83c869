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

// BackgroundSyncService handles pages, policies and theme content, the three
// families without webhook support. Full passes reconcile aggressively: any
// local row absent from a successful upstream listing is deleted, and an
// empty listing wipes the family for the shop.
type BackgroundSyncService struct {
	contentFetcher     ports.ContentFetcher
	themeFetcher       ports.ThemeFetcher
	translationFetcher ports.TranslationFetcher
	reconciler         *TranslationReconciler
	classifier         *ThemeClassifier
	writer             *CacheWriter
	contents           ports.ContentStore
	themes             ports.ThemeStore
	locker             ports.ResourceLocker
	metrics            *metrics.Metrics
	logger             zerolog.Logger
}

// NewBackgroundSyncService creates a new background sync service
func NewBackgroundSyncService(
	contentFetcher ports.ContentFetcher,
	themeFetcher ports.ThemeFetcher,
	translationFetcher ports.TranslationFetcher,
	reconciler *TranslationReconciler,
	classifier *ThemeClassifier,
	writer *CacheWriter,
	contents ports.ContentStore,
	themes ports.ThemeStore,
	locker ports.ResourceLocker,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *BackgroundSyncService {
	return &BackgroundSyncService{
		contentFetcher:     contentFetcher,
		themeFetcher:       themeFetcher,
		translationFetcher: translationFetcher,
		reconciler:         reconciler,
		classifier:         classifier,
		writer:             writer,
		contents:           contents,
		themes:             themes,
		locker:             locker,
		metrics:            m,
		logger:             logger,
	}
}

// SyncAllPages fetches the full upstream page listing, deletes local pages
// absent from it, then syncs each remaining page. maxCount caps the number of
// pages synced when positive.
func (s *BackgroundSyncService) SyncAllPages(ctx context.Context, shop string, maxCount int, progress domain.ProgressFunc) (domain.SyncStats, error) {
	ids, err := s.contentFetcher.FetchAllPageIDs(ctx, shop)
	if err != nil {
		return domain.SyncStats{}, fmt.Errorf("failed to list pages: %w", err)
	}

	// Cleanup is keyed by the full upstream listing; the cap only bounds how
	// many pages get synced this pass.
	var stats domain.SyncStats
	stats.Deleted, err = s.writer.ReconcileContents(ctx, shop, domain.ResourceTypePage, ids)
	if err != nil {
		return stats, err
	}

	if maxCount > 0 && len(ids) > maxCount {
		ids = ids[:maxCount]
	}

	locales, err := s.reconciler.TranslatableLocales(ctx, shop)
	if err != nil {
		return stats, err
	}

	for i, id := range ids {
		if err := s.syncPage(ctx, shop, id, locales); err != nil {
			stats.Failed++
			s.logger.Error().
				Err(err).
				Str("shop", shop).
				Str("pageId", id).
				Msg("Page sync failed, continuing")
		} else {
			stats.Synced++
		}
		if progress != nil {
			progress(i+1, len(ids), fmt.Sprintf("Synced page %s", id))
		}
	}
	return stats, nil
}

// SyncAllPolicies fetches the shop's full policy set, deletes local policies
// absent from it, then writes each one. Zero upstream policies deletes every
// local policy for the shop.
func (s *BackgroundSyncService) SyncAllPolicies(ctx context.Context, shop string, progress domain.ProgressFunc) (domain.SyncStats, error) {
	policies, err := s.contentFetcher.FetchPolicies(ctx, shop)
	if err != nil {
		return domain.SyncStats{}, fmt.Errorf("failed to fetch policies: %w", err)
	}

	ids := make([]string, 0, len(policies))
	for _, p := range policies {
		ids = append(ids, p.ID)
	}

	var stats domain.SyncStats
	stats.Deleted, err = s.writer.ReconcileContents(ctx, shop, domain.ResourceTypePolicy, ids)
	if err != nil {
		return stats, err
	}

	locales, err := s.reconciler.TranslatableLocales(ctx, shop)
	if err != nil {
		return stats, err
	}

	for i := range policies {
		policy := policies[i]
		if err := s.writePolicy(ctx, shop, &policy, locales); err != nil {
			stats.Failed++
			s.logger.Error().
				Err(err).
				Str("shop", shop).
				Str("policyId", policy.ID).
				Msg("Policy sync failed, continuing")
		} else {
			stats.Synced++
		}
		if progress != nil {
			progress(i+1, len(policies), fmt.Sprintf("Synced policy %s", policy.Title))
		}
	}
	return stats, nil
}

// SyncSinglePage is the manual reload for one page
func (s *BackgroundSyncService) SyncSinglePage(ctx context.Context, shop, id string) (*domain.Content, []domain.Translation, error) {
	locales, err := s.reconciler.TranslatableLocales(ctx, shop)
	if err != nil {
		return nil, nil, err
	}
	if err := s.syncPage(ctx, shop, id, locales); err != nil {
		return nil, nil, err
	}
	return s.readBack(ctx, shop, id, domain.ResourceTypePage)
}

// SyncSinglePolicy is the manual reload for one policy. The upstream API has
// no per-policy lookup, so the full set is fetched and filtered.
func (s *BackgroundSyncService) SyncSinglePolicy(ctx context.Context, shop, id string) (*domain.Content, []domain.Translation, error) {
	policies, err := s.contentFetcher.FetchPolicies(ctx, shop)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch policies: %w", err)
	}

	var found *domain.Content
	for i := range policies {
		if policies[i].ID == id {
			found = &policies[i]
			break
		}
	}
	if found == nil {
		if err := s.writer.DeleteContent(ctx, shop, id, domain.ResourceTypePolicy); err != nil {
			return nil, nil, err
		}
		return nil, nil, domain.ErrNotFoundUpstream
	}

	locales, err := s.reconciler.TranslatableLocales(ctx, shop)
	if err != nil {
		return nil, nil, err
	}
	if err := s.writePolicy(ctx, shop, found, locales); err != nil {
		return nil, nil, err
	}
	return s.readBack(ctx, shop, id, domain.ResourceTypePolicy)
}

// SyncAllThemes walks every theme resource type, classifies each translatable
// key into a group, writes one ThemeContent plus translations per group, and
// finally deletes every group not touched during the pass. Per-resource
// translations are fetched once and shared across the resource's groups.
func (s *BackgroundSyncService) SyncAllThemes(ctx context.Context, shop string, progress domain.ProgressFunc) (domain.SyncStats, error) {
	locales, err := s.reconciler.TranslatableLocales(ctx, shop)
	if err != nil {
		return domain.SyncStats{}, err
	}

	resources, err := s.fetchAllThemeResources(ctx, shop)
	if err != nil {
		return domain.SyncStats{}, err
	}

	var (
		stats   domain.SyncStats
		touched []domain.ThemeGroupKey
	)
	cache := newThemeTranslationCache(s.translationFetcher, s.logger)
	for i, resource := range resources {
		keys, err := s.syncThemeResource(ctx, shop, resource, locales, cache)
		if err != nil {
			stats.Failed++
			s.logger.Error().
				Err(err).
				Str("shop", shop).
				Str("resourceId", resource.ID).
				Msg("Theme resource sync failed, continuing")
		} else {
			stats.Synced++
			touched = append(touched, keys...)
		}
		if progress != nil {
			progress(i+1, len(resources), fmt.Sprintf("Synced theme resource %s", resource.ID))
		}
	}

	stats.Deleted, err = s.writer.PruneThemeGroups(ctx, shop, touched)
	if err != nil {
		return stats, err
	}
	s.recordOutcome(domain.ResourceTypeTheme, nil)
	return stats, nil
}

// SyncSingleThemeGroup refreshes one group across all theme resources and
// returns its rows. No cleanup runs; a partial pass must not count as a full
// catalog observation.
func (s *BackgroundSyncService) SyncSingleThemeGroup(ctx context.Context, shop, groupID string) ([]*domain.ThemeContent, error) {
	locales, err := s.reconciler.TranslatableLocales(ctx, shop)
	if err != nil {
		return nil, err
	}

	resources, err := s.fetchAllThemeResources(ctx, shop)
	if err != nil {
		return nil, err
	}

	cache := newThemeTranslationCache(s.translationFetcher, s.logger)
	for _, resource := range resources {
		groups := s.classifyResource(shop, resource)
		content, ok := groups[groupID]
		if !ok {
			continue
		}
		if err := s.writeThemeGroup(ctx, shop, resource.ID, content, locales, cache); err != nil {
			return nil, err
		}
	}
	return s.themes.ListThemeContentsByGroup(ctx, shop, groupID)
}

// syncPage runs the fetch, reconcile, write pipeline for one page under its
// lock.
func (s *BackgroundSyncService) syncPage(ctx context.Context, shop, id string, locales []string) error {
	release, err := s.locker.Lock(ctx, shop, domain.ResourceTypePage, id)
	if err != nil {
		return err
	}
	defer release()

	page, err := s.contentFetcher.FetchPage(ctx, shop, id)
	if errors.Is(err, domain.ErrNotFoundUpstream) {
		return s.writer.DeleteContent(ctx, shop, id, domain.ResourceTypePage)
	}
	if err != nil {
		return fmt.Errorf("failed to fetch page %s: %w", id, err)
	}

	translations, fetchedLocales, err := s.reconciler.Reconcile(ctx, shop, id, domain.ResourceTypePage, locales)
	if err != nil {
		return err
	}
	err = s.writer.ApplyContent(ctx, page, translations, fetchedLocales)
	s.recordOutcome(domain.ResourceTypePage, err)
	return err
}

func (s *BackgroundSyncService) writePolicy(ctx context.Context, shop string, policy *domain.Content, locales []string) error {
	release, err := s.locker.Lock(ctx, shop, domain.ResourceTypePolicy, policy.ID)
	if err != nil {
		return err
	}
	defer release()

	translations, fetchedLocales, err := s.reconciler.Reconcile(ctx, shop, policy.ID, domain.ResourceTypePolicy, locales)
	if err != nil {
		return err
	}
	err = s.writer.ApplyContent(ctx, policy, translations, fetchedLocales)
	s.recordOutcome(domain.ResourceTypePolicy, err)
	return err
}

// fetchAllThemeResources collects the translatable resources of every theme
// resource type. Any type's listing failing aborts the pass so cleanup never
// runs on a partial view.
func (s *BackgroundSyncService) fetchAllThemeResources(ctx context.Context, shop string) ([]domain.ThemeResource, error) {
	var resources []domain.ThemeResource
	for _, resourceType := range domain.ThemeResourceTypes {
		batch, err := s.themeFetcher.FetchThemeResources(ctx, shop, resourceType)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch theme resources of type %s: %w", resourceType, err)
		}
		resources = append(resources, batch...)
	}
	return resources, nil
}

// syncThemeResource classifies one resource's keys and writes every resulting
// group, returning the touched group keys.
func (s *BackgroundSyncService) syncThemeResource(ctx context.Context, shop string, resource domain.ThemeResource, locales []string, cache *themeTranslationCache) ([]domain.ThemeGroupKey, error) {
	release, err := s.locker.Lock(ctx, shop, domain.ResourceTypeTheme, resource.ID)
	if err != nil {
		return nil, err
	}
	defer release()

	groups := s.classifyResource(shop, resource)
	touched := make([]domain.ThemeGroupKey, 0, len(groups))
	for _, content := range groups {
		if err := s.writeThemeGroup(ctx, shop, resource.ID, content, locales, cache); err != nil {
			return nil, err
		}
		touched = append(touched, domain.ThemeGroupKey{ResourceID: resource.ID, GroupID: content.GroupID})
	}
	return touched, nil
}

// classifyResource buckets one resource's translatable keys into groups
func (s *BackgroundSyncService) classifyResource(shop string, resource domain.ThemeResource) map[string]*domain.ThemeContent {
	groups := make(map[string]*domain.ThemeContent)
	for _, sc := range resource.Contents {
		group := s.classifier.Classify(sc.Key)
		content, ok := groups[group.ID]
		if !ok {
			content = &domain.ThemeContent{
				Shop:       shop,
				ResourceID: resource.ID,
				GroupID:    group.ID,
				Name:       group.Name,
				Icon:       group.Icon,
			}
			groups[group.ID] = content
		}
		content.Entries = append(content.Entries, domain.ThemeEntry{
			Key:    sc.Key,
			Value:  sc.Value,
			Digest: sc.Digest,
		})
	}
	return groups
}

// writeThemeGroup filters the resource's cached translations down to the
// group's key set and writes the group atomically. Only locales whose fetch
// succeeded are replaced; a failed locale keeps its cached rows.
func (s *BackgroundSyncService) writeThemeGroup(ctx context.Context, shop, resourceID string, content *domain.ThemeContent, locales []string, cache *themeTranslationCache) error {
	keySet := make(map[string]bool, len(content.Entries))
	for _, e := range content.Entries {
		keySet[e.Key] = true
	}

	var (
		rows    []domain.ThemeTranslation
		fetched []string
	)
	for _, locale := range locales {
		translated, ok := cache.get(ctx, shop, resourceID, locale)
		if !ok {
			continue
		}
		fetched = append(fetched, locale)
		for _, t := range translated {
			if !keySet[t.Key] {
				continue
			}
			rows = append(rows, domain.ThemeTranslation{
				Shop:       shop,
				ResourceID: resourceID,
				GroupID:    content.GroupID,
				Key:        t.Key,
				Locale:     t.Locale,
				Value:      t.Value,
			})
		}
	}
	return s.writer.ApplyThemeGroup(ctx, content, fetched, rows)
}

// readBack returns the stored row and translations after a write
func (s *BackgroundSyncService) readBack(ctx context.Context, shop, id string, resourceType domain.ResourceType) (*domain.Content, []domain.Translation, error) {
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

func (s *BackgroundSyncService) recordOutcome(family domain.ResourceType, err error) {
	if s.metrics == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	s.metrics.SyncOutcomes.WithLabelValues(string(family), outcome).Inc()
}

// themeTranslationCache fetches one resource's per-locale translations at
// most once, shared across all groups of that resource. A locale's fetch
// failure is remembered so it is not retried for every group, and reported
// through the ok return so callers leave that locale's cached rows alone.
type themeTranslationCache struct {
	fetcher ports.TranslationFetcher
	logger  zerolog.Logger
	entries map[string]themeCacheEntry
}

type themeCacheEntry struct {
	rows []domain.LocaleTranslation
	ok   bool
}

func newThemeTranslationCache(fetcher ports.TranslationFetcher, logger zerolog.Logger) *themeTranslationCache {
	return &themeTranslationCache{
		fetcher: fetcher,
		logger:  logger,
		entries: make(map[string]themeCacheEntry),
	}
}

func (c *themeTranslationCache) get(ctx context.Context, shop, resourceID, locale string) ([]domain.LocaleTranslation, bool) {
	key := resourceID + "::" + locale
	if cached, found := c.entries[key]; found {
		return cached.rows, cached.ok
	}

	translated, err := c.fetcher.Translations(ctx, shop, resourceID, locale)
	if err != nil {
		c.logger.Warn().
			Err(err).
			Str("shop", shop).
			Str("resourceId", resourceID).
			Str("locale", locale).
			Msg("Failed to fetch theme translations, skipping locale")
		c.entries[key] = themeCacheEntry{}
		return nil, false
	}
	c.entries[key] = themeCacheEntry{rows: translated, ok: true}
	return translated, true
}
