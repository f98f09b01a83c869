package ports

import (
	"context"

	"polyglot-shopify-sync/internal/domain"
)

// Gateway is the single choke point for outbound Admin GraphQL calls. It owns
// admission control, throttle detection and retry; no sync component talks to
// the network any other way.
type Gateway interface {
	Request(ctx context.Context, query string, variables map[string]interface{}, out interface{}) error
}

// GatewayPool hands out shop-scoped gateways, resolving and decrypting the
// stored access token.
type GatewayPool interface {
	ForShop(ctx context.Context, shopDomain string) (Gateway, error)
}

// ProductFetcher fetches products and their full child collections from the
// upstream API.
type ProductFetcher interface {
	// FetchProduct returns domain.ErrNotFoundUpstream when the product no
	// longer exists upstream.
	FetchProduct(ctx context.Context, shop, id string) (*domain.Product, error)
	FetchAllProductIDs(ctx context.Context, shop string) ([]string, error)
}

// ContentFetcher fetches collections, articles, menus, pages and policies.
type ContentFetcher interface {
	FetchCollection(ctx context.Context, shop, id string) (*domain.Content, error)
	FetchArticle(ctx context.Context, shop, id string) (*domain.Content, error)
	FetchMenu(ctx context.Context, shop, id string) (*domain.Content, error)
	FetchPage(ctx context.Context, shop, id string) (*domain.Content, error)

	// FetchPolicies returns the shop's full policy set; the upstream API has
	// no per-policy lookup.
	FetchPolicies(ctx context.Context, shop string) ([]domain.Content, error)

	FetchAllCollectionIDs(ctx context.Context, shop string) ([]string, error)
	FetchAllArticleIDs(ctx context.Context, shop string) ([]string, error)
	FetchAllMenuIDs(ctx context.Context, shop string) ([]string, error)
	FetchAllPageIDs(ctx context.Context, shop string) ([]string, error)
}

// ThemeFetcher pages through every translatable resource of one theme
// resource type.
type ThemeFetcher interface {
	FetchThemeResources(ctx context.Context, shop, resourceType string) ([]domain.ThemeResource, error)
}

// TranslationFetcher exposes the upstream translatable-resource surface. The
// two arms are kept as distinct types so source text can never be mistaken
// for a translation.
type TranslationFetcher interface {
	ShopLocales(ctx context.Context, shop string) ([]domain.ShopLocale, error)
	TranslatableContent(ctx context.Context, shop, resourceID string) ([]domain.SourceContent, error)
	Translations(ctx context.Context, shop, resourceID, locale string) ([]domain.LocaleTranslation, error)

	// TranslationsByIDs bulk-fetches one locale's translations for many
	// resources in a single call, keyed by resource id.
	TranslationsByIDs(ctx context.Context, shop string, resourceIDs []string, locale string) (map[string][]domain.LocaleTranslation, error)

	// RegisterTranslations writes translations back upstream and fails loud
	// on any userErrors.
	RegisterTranslations(ctx context.Context, shop, resourceID string, rows []domain.Translation) error
}
