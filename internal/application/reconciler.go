package application

import (
	"context"
	"fmt"

	"polyglot-shopify-sync/internal/domain"
	"polyglot-shopify-sync/internal/ports"

	"github.com/rs/zerolog"
)

// imageAltKey is the translatable key the upstream API uses for media alt
// text.
const imageAltKey = "alt"

// TranslationReconciler merges per-locale translation responses into one
// deduplicated set. Values are only ever taken from the translations arm of
// the API; the translatable-content arm contributes digests and nothing else.
type TranslationReconciler struct {
	fetcher ports.TranslationFetcher
	logger  zerolog.Logger
}

// NewTranslationReconciler creates a new translation reconciler
func NewTranslationReconciler(fetcher ports.TranslationFetcher, logger zerolog.Logger) *TranslationReconciler {
	return &TranslationReconciler{
		fetcher: fetcher,
		logger:  logger,
	}
}

// Reconcile produces the deduplicated translation set of one resource across
// the given locales. A failure fetching one locale is logged and skipped; the
// remaining locales still contribute. The second return value lists the
// locales whose fetch succeeded, so callers can restrict stale-row pruning to
// them and leave a failed locale's cached rows alone.
func (r *TranslationReconciler) Reconcile(ctx context.Context, shop, resourceID string, resourceType domain.ResourceType, locales []string) ([]domain.Translation, []string, error) {
	if len(locales) == 0 {
		return nil, nil, nil
	}

	digests := r.digestsByKey(ctx, shop, resourceID)

	var (
		out     []domain.Translation
		fetched []string
	)
	seen := make(map[string]bool)
	for _, locale := range locales {
		translated, err := r.fetcher.Translations(ctx, shop, resourceID, locale)
		if err != nil {
			r.logger.Warn().
				Err(err).
				Str("shop", shop).
				Str("resourceId", resourceID).
				Str("locale", locale).
				Msg("Failed to fetch locale translations, skipping locale")
			continue
		}
		fetched = append(fetched, locale)

		for _, t := range translated {
			id := t.Key + "::" + t.Locale
			if seen[id] {
				continue
			}
			seen[id] = true
			out = append(out, domain.Translation{
				Shop:         shop,
				ResourceID:   resourceID,
				ResourceType: resourceType,
				Key:          t.Key,
				Locale:       t.Locale,
				Value:        t.Value,
				Digest:       digests[t.Key],
			})
		}
	}
	return out, fetched, nil
}

// ReconcileImageAltText bulk-fetches alt-text translations for many media ids
// in one call per locale and returns them as per-image override rows, along
// with the locales whose fetch succeeded.
func (r *TranslationReconciler) ReconcileImageAltText(ctx context.Context, shop, productID string, mediaIDs []string, locales []string) ([]domain.ImageAltTranslation, []string, error) {
	if len(mediaIDs) == 0 || len(locales) == 0 {
		return nil, nil, nil
	}

	var (
		out     []domain.ImageAltTranslation
		fetched []string
	)
	seen := make(map[string]bool)
	for _, locale := range locales {
		byResource, err := r.fetcher.TranslationsByIDs(ctx, shop, mediaIDs, locale)
		if err != nil {
			r.logger.Warn().
				Err(err).
				Str("shop", shop).
				Str("locale", locale).
				Msg("Failed to bulk-fetch alt text translations, skipping locale")
			continue
		}
		fetched = append(fetched, locale)

		for mediaID, translated := range byResource {
			for _, t := range translated {
				if t.Key != imageAltKey {
					continue
				}
				id := mediaID + "::" + t.Locale
				if seen[id] {
					continue
				}
				seen[id] = true
				out = append(out, domain.ImageAltTranslation{
					Shop:      shop,
					ProductID: productID,
					MediaID:   mediaID,
					Locale:    t.Locale,
					Value:     t.Value,
				})
			}
		}
	}
	return out, fetched, nil
}

// TranslatableLocales resolves the shop's published non-primary locales, the
// only ones translations can exist for.
func (r *TranslationReconciler) TranslatableLocales(ctx context.Context, shop string) ([]string, error) {
	locales, err := r.fetcher.ShopLocales(ctx, shop)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch shop locales: %w", err)
	}
	return domain.TranslatableLocales(locales), nil
}

// digestsByKey captures the content digest of every translatable key. The
// source-language values are deliberately dropped here so they can never be
// emitted as translations.
func (r *TranslationReconciler) digestsByKey(ctx context.Context, shop, resourceID string) map[string]string {
	contents, err := r.fetcher.TranslatableContent(ctx, shop, resourceID)
	if err != nil {
		r.logger.Warn().
			Err(err).
			Str("shop", shop).
			Str("resourceId", resourceID).
			Msg("Failed to fetch translatable content, proceeding without digests")
		return nil
	}

	digests := make(map[string]string, len(contents))
	for _, c := range contents {
		digests[c.Key] = c.Digest
	}
	return digests
}
