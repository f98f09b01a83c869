package application

import (
	"context"
	"fmt"
	"time"

	"polyglot-shopify-sync/internal/domain"
	"polyglot-shopify-sync/internal/ports"

	"github.com/rs/zerolog"
)

// CacheWriter applies fetched resources and their reconciled translations to
// the local store. Every apply is one transaction; partial writes are never
// observable.
type CacheWriter struct {
	tx           ports.TransactionManager
	products     ports.ProductStore
	contents     ports.ContentStore
	translations ports.TranslationStore
	themes       ports.ThemeStore
	logger       zerolog.Logger
	now          func() time.Time
}

// NewCacheWriter creates a new cache writer
func NewCacheWriter(
	tx ports.TransactionManager,
	products ports.ProductStore,
	contents ports.ContentStore,
	translations ports.TranslationStore,
	themes ports.ThemeStore,
	logger zerolog.Logger,
) *CacheWriter {
	return &CacheWriter{
		tx:           tx,
		products:     products,
		contents:     contents,
		translations: translations,
		themes:       themes,
		logger:       logger,
		now:          time.Now,
	}
}

// ApplyProduct writes one product, its alt-text translation rows and its
// content translations in a single transaction. pruneLocales and altLocales
// restrict stale-row deletion to the locales that were actually fetched this
// pass; a locale whose fetch failed keeps its cached rows, and an empty set
// prunes nothing.
func (w *CacheWriter) ApplyProduct(ctx context.Context, product *domain.Product, translations []domain.Translation, pruneLocales []string, altRows []domain.ImageAltTranslation, altLocales []string) error {
	return w.tx.WithTransaction(ctx, func(ctx context.Context) error {
		existing, err := w.products.GetProduct(ctx, product.Shop, product.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			w.preserveRecentAltText(product, existing)
		}

		product.LastSyncedAt = w.now()
		if err := w.products.UpsertProduct(ctx, product); err != nil {
			return err
		}

		mediaIDs := make([]string, 0, len(product.Images))
		for _, img := range product.Images {
			mediaIDs = append(mediaIDs, img.MediaID)
		}
		if err := w.products.ReplaceImageAltTranslations(ctx, product.Shop, product.ID, mediaIDs, altLocales, altRows); err != nil {
			return err
		}

		return w.applyTranslations(ctx, product.Shop, product.ID, domain.ResourceTypeProduct, translations, pruneLocales)
	})
}

// ApplyContent writes one content resource and its translations in a single
// transaction. pruneLocales restricts stale-row deletion to the locales that
// were actually fetched this pass.
func (w *CacheWriter) ApplyContent(ctx context.Context, content *domain.Content, translations []domain.Translation, pruneLocales []string) error {
	return w.tx.WithTransaction(ctx, func(ctx context.Context) error {
		content.LastSyncedAt = w.now()
		if err := w.contents.UpsertContent(ctx, content); err != nil {
			return err
		}
		return w.applyTranslations(ctx, content.Shop, content.ID, content.Type, translations, pruneLocales)
	})
}

// ApplyThemeGroup writes one classified theme group and replaces its
// translation rows for the fetched locales in a single transaction.
func (w *CacheWriter) ApplyThemeGroup(ctx context.Context, content *domain.ThemeContent, locales []string, rows []domain.ThemeTranslation) error {
	return w.tx.WithTransaction(ctx, func(ctx context.Context) error {
		content.LastSyncedAt = w.now()
		if err := w.themes.UpsertThemeContent(ctx, content); err != nil {
			return err
		}
		return w.themes.ReplaceThemeTranslations(ctx, content.Shop, content.ResourceID, content.GroupID, locales, rows)
	})
}

// DeleteProduct removes one product, its alt-text translation rows and its
// content translations. Tolerates the product already being absent.
func (w *CacheWriter) DeleteProduct(ctx context.Context, shop, id string) error {
	return w.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := w.products.DeleteImageAltTranslations(ctx, shop, []string{id}); err != nil {
			return err
		}
		if err := w.products.DeleteProduct(ctx, shop, id); err != nil {
			return err
		}
		return w.translations.DeleteForResource(ctx, shop, id, domain.ResourceTypeProduct)
	})
}

// DeleteContent removes one content resource and its translations. Tolerates
// the resource already being absent.
func (w *CacheWriter) DeleteContent(ctx context.Context, shop, id string, resourceType domain.ResourceType) error {
	return w.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := w.contents.DeleteContent(ctx, shop, id); err != nil {
			return err
		}
		return w.translations.DeleteForResource(ctx, shop, id, resourceType)
	})
}

// ReconcileProducts deletes every local product absent from keep, together
// with its translations and alt-text rows, and returns the number of deleted
// products.
func (w *CacheWriter) ReconcileProducts(ctx context.Context, shop string, keep []string) (int, error) {
	var deleted []string
	err := w.tx.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		deleted, err = w.products.DeleteProductsNotIn(ctx, shop, keep)
		if err != nil {
			return err
		}
		if err := w.products.DeleteImageAltTranslations(ctx, shop, deleted); err != nil {
			return err
		}
		for _, id := range deleted {
			if err := w.translations.DeleteForResource(ctx, shop, id, domain.ResourceTypeProduct); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to reconcile products: %w", err)
	}
	return len(deleted), nil
}

// ReconcileContents deletes every local row of one family absent from keep,
// together with its translations, and returns the number of deleted rows. An
// empty keep wipes the whole family for the shop.
func (w *CacheWriter) ReconcileContents(ctx context.Context, shop string, resourceType domain.ResourceType, keep []string) (int, error) {
	var deleted []string
	err := w.tx.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		deleted, err = w.contents.DeleteContentsNotIn(ctx, shop, resourceType, keep)
		if err != nil {
			return err
		}
		for _, id := range deleted {
			if err := w.translations.DeleteForResource(ctx, shop, id, resourceType); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to reconcile %s catalog: %w", resourceType, err)
	}
	return len(deleted), nil
}

// PruneThemeGroups deletes every theme group not touched during the current
// pass, together with its translations, and returns the number of deleted
// groups.
func (w *CacheWriter) PruneThemeGroups(ctx context.Context, shop string, touched []domain.ThemeGroupKey) (int, error) {
	var stale []domain.ThemeGroupKey
	err := w.tx.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		stale, err = w.themes.DeleteThemeContentsNotIn(ctx, shop, touched)
		if err != nil {
			return err
		}
		return w.themes.DeleteThemeTranslations(ctx, shop, stale)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to prune theme groups: %w", err)
	}
	return len(stale), nil
}

// applyTranslations upserts the current translation set and prunes rows of
// the given locales whose (key, locale) is absent from it. An empty locale
// set prunes nothing, which covers both a shop without published locales and
// a pass where every locale fetch failed.
func (w *CacheWriter) applyTranslations(ctx context.Context, shop, resourceID string, resourceType domain.ResourceType, translations []domain.Translation, pruneLocales []string) error {
	if err := w.translations.UpsertTranslations(ctx, translations); err != nil {
		return err
	}
	if len(pruneLocales) == 0 {
		return nil
	}
	return w.translations.DeleteStale(ctx, shop, resourceID, resourceType, pruneLocales, domain.TranslationKeys(translations))
}

// preserveRecentAltText carries recently human-edited alt text over the
// upstream value and refreshes its modification timestamp.
func (w *CacheWriter) preserveRecentAltText(incoming, existing *domain.Product) {
	byMedia := make(map[string]*domain.ProductImage, len(existing.Images))
	for i := range existing.Images {
		byMedia[existing.Images[i].MediaID] = &existing.Images[i]
	}

	now := w.now()
	for i := range incoming.Images {
		prev, ok := byMedia[incoming.Images[i].MediaID]
		if !ok || prev.AltTextModifiedAt == nil {
			continue
		}
		if now.Sub(*prev.AltTextModifiedAt) < domain.AltTextPreservationWindow {
			incoming.Images[i].AltText = prev.AltText
			refreshed := now
			incoming.Images[i].AltTextModifiedAt = &refreshed
			w.logger.Debug().
				Str("shop", incoming.Shop).
				Str("mediaId", incoming.Images[i].MediaID).
				Msg("Preserved recently edited alt text")
		} else {
			incoming.Images[i].AltTextModifiedAt = prev.AltTextModifiedAt
		}
	}
}
