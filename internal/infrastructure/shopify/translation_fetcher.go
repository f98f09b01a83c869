package shopify

import (
	"context"
	"fmt"

	"polyglot-shopify-sync/internal/domain"
	"polyglot-shopify-sync/internal/ports"

	"github.com/rs/zerolog"
)

// translationsByIDsBatch caps how many resource ids go into one bulk
// translation call.
const translationsByIDsBatch = 250

// TranslationFetcher exposes the translatable-resource surface over the
// gateway. Source content and translations stay in distinct types end to end.
type TranslationFetcher struct {
	pool   ports.GatewayPool
	logger zerolog.Logger
}

// NewTranslationFetcher creates a translation fetcher.
func NewTranslationFetcher(pool ports.GatewayPool, logger zerolog.Logger) *TranslationFetcher {
	return &TranslationFetcher{pool: pool, logger: logger}
}

// ShopLocales returns the shop's enabled locales.
func (f *TranslationFetcher) ShopLocales(ctx context.Context, shop string) ([]domain.ShopLocale, error) {
	gw, err := f.pool.ForShop(ctx, shop)
	if err != nil {
		return nil, err
	}
	var resp shopLocalesResponse
	if err := gw.Request(ctx, shopLocalesQuery, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch shop locales: %w", err)
	}
	locales := make([]domain.ShopLocale, 0, len(resp.ShopLocales))
	for _, l := range resp.ShopLocales {
		locales = append(locales, domain.ShopLocale{
			Locale:    l.Locale,
			Primary:   l.Primary,
			Published: l.Published,
		})
	}
	return locales, nil
}

// TranslatableContent returns the source-language content arm for one
// resource: keys, source values and digests.
func (f *TranslationFetcher) TranslatableContent(ctx context.Context, shop, resourceID string) ([]domain.SourceContent, error) {
	gw, err := f.pool.ForShop(ctx, shop)
	if err != nil {
		return nil, err
	}
	vars := map[string]interface{}{"resourceId": resourceID}
	var resp translatableResourceResponse
	if err := gw.Request(ctx, translatableContentQuery, vars, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch translatable content: %w", err)
	}
	if resp.TranslatableResource == nil {
		return nil, domain.ErrNotFoundUpstream
	}
	return sourceContentFromNodes(resp.TranslatableResource.TranslatableContent), nil
}

// Translations returns one locale's actual translated values for a resource.
func (f *TranslationFetcher) Translations(ctx context.Context, shop, resourceID, locale string) ([]domain.LocaleTranslation, error) {
	gw, err := f.pool.ForShop(ctx, shop)
	if err != nil {
		return nil, err
	}
	vars := map[string]interface{}{"resourceId": resourceID, "locale": locale}
	var resp translatableResourceResponse
	if err := gw.Request(ctx, resourceTranslationsQuery, vars, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch translations: %w", err)
	}
	if resp.TranslatableResource == nil {
		return nil, domain.ErrNotFoundUpstream
	}
	return localeTranslationsFromNodes(resp.TranslatableResource.Translations), nil
}

// TranslationsByIDs bulk-fetches one locale's translations for many resources
// in a single call per batch, keyed by resource id. This is what keeps alt
// text syncing at M calls for M locales instead of N images times M locales.
func (f *TranslationFetcher) TranslationsByIDs(ctx context.Context, shop string, resourceIDs []string, locale string) (map[string][]domain.LocaleTranslation, error) {
	gw, err := f.pool.ForShop(ctx, shop)
	if err != nil {
		return nil, err
	}

	out := make(map[string][]domain.LocaleTranslation, len(resourceIDs))
	for start := 0; start < len(resourceIDs); start += translationsByIDsBatch {
		end := start + translationsByIDsBatch
		if end > len(resourceIDs) {
			end = len(resourceIDs)
		}

		vars := map[string]interface{}{
			"resourceIds": resourceIDs[start:end],
			"locale":      locale,
		}
		var resp translatableResourcesByIDsResponse
		if err := gw.Request(ctx, translationsByIDsQuery, vars, &resp); err != nil {
			return nil, fmt.Errorf("failed to bulk fetch translations: %w", err)
		}
		for _, e := range resp.TranslatableResourcesByIDs.Edges {
			if len(e.Node.Translations) == 0 {
				continue
			}
			out[e.Node.ResourceID] = localeTranslationsFromNodes(e.Node.Translations)
		}
	}
	return out, nil
}

// RegisterTranslations writes translations back upstream, failing loud on
// userErrors.
func (f *TranslationFetcher) RegisterTranslations(ctx context.Context, shop, resourceID string, rows []domain.Translation) error {
	if len(rows) == 0 {
		return nil
	}
	gw, err := f.pool.ForShop(ctx, shop)
	if err != nil {
		return err
	}

	inputs := make([]map[string]interface{}, 0, len(rows))
	for _, t := range rows {
		inputs = append(inputs, map[string]interface{}{
			"key":                       t.Key,
			"value":                     t.Value,
			"locale":                    t.Locale,
			"translatableContentDigest": t.Digest,
		})
	}

	vars := map[string]interface{}{"resourceId": resourceID, "translations": inputs}
	var resp translationsRegisterResponse
	if err := gw.Request(ctx, translationsRegisterMutation, vars, &resp); err != nil {
		return fmt.Errorf("failed to register translations: %w", err)
	}
	if errs := resp.TranslationsRegister.UserErrors; len(errs) > 0 {
		return fmt.Errorf("translations register rejected: %s", errs[0].Message)
	}
	return nil
}

func localeTranslationsFromNodes(nodes []translationNode) []domain.LocaleTranslation {
	out := make([]domain.LocaleTranslation, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, domain.LocaleTranslation{
			Key:    n.Key,
			Value:  n.Value,
			Locale: n.Locale,
		})
	}
	return out
}
