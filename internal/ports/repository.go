package ports

import (
	"context"

	"polyglot-shopify-sync/internal/domain"
)

// TransactionManager runs a function inside one store transaction. Every store
// call made with the callback's context joins the transaction; any error
// aborts the whole unit.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ShopStore persists connected shops.
type ShopStore interface {
	SaveShop(ctx context.Context, shop *domain.Shop) error
	GetShop(ctx context.Context, shopDomain string) (*domain.Shop, error)
	ListShops(ctx context.Context) ([]*domain.Shop, error)
	DeleteShop(ctx context.Context, shopDomain string) error
}

// ProductStore persists cached products and their image alt translations.
type ProductStore interface {
	UpsertProduct(ctx context.Context, product *domain.Product) error
	GetProduct(ctx context.Context, shop, id string) (*domain.Product, error)
	DeleteProduct(ctx context.Context, shop, id string) error
	ListProductIDs(ctx context.Context, shop string) ([]string, error)
	DeleteProductsNotIn(ctx context.Context, shop string, keep []string) ([]string, error)

	// ReplaceImageAltTranslations reconciles one product's alt translation
	// rows: rows of media ids no longer on the product are deleted, rows of
	// the given locales are replaced by the provided set, and rows of other
	// locales are left untouched.
	ReplaceImageAltTranslations(ctx context.Context, shop, productID string, mediaIDs []string, locales []string, rows []domain.ImageAltTranslation) error
	ListImageAltTranslations(ctx context.Context, shop string, mediaIDs []string) ([]domain.ImageAltTranslation, error)
	DeleteImageAltTranslations(ctx context.Context, shop string, productIDs []string) error
}

// ContentStore persists cached non-product content resources.
type ContentStore interface {
	UpsertContent(ctx context.Context, content *domain.Content) error
	GetContent(ctx context.Context, shop, id string) (*domain.Content, error)
	DeleteContent(ctx context.Context, shop, id string) error
	ListContentIDs(ctx context.Context, shop string, resourceType domain.ResourceType) ([]string, error)

	// DeleteContentsNotIn removes every row of the family whose id is absent
	// from keep and returns the deleted ids so callers can remove their
	// translations in the same transaction.
	DeleteContentsNotIn(ctx context.Context, shop string, resourceType domain.ResourceType, keep []string) ([]string, error)
}

// TranslationStore persists generic content translations.
type TranslationStore interface {
	UpsertTranslations(ctx context.Context, rows []domain.Translation) error
	ListTranslations(ctx context.Context, shop, resourceID string, resourceType domain.ResourceType) ([]domain.Translation, error)
	DeleteForResource(ctx context.Context, shop, resourceID string, resourceType domain.ResourceType) error

	// DeleteStale removes translation rows of one resource whose (key, locale)
	// is not in keep, restricted to the given locales. Rows of locales outside
	// the set are never touched.
	DeleteStale(ctx context.Context, shop, resourceID string, resourceType domain.ResourceType, locales []string, keep []domain.TranslationKey) error
}

// ThemeStore persists classified theme content groups and their translations.
type ThemeStore interface {
	UpsertThemeContent(ctx context.Context, content *domain.ThemeContent) error
	GetThemeContent(ctx context.Context, shop, resourceID, groupID string) (*domain.ThemeContent, error)
	ListThemeContentsByGroup(ctx context.Context, shop, groupID string) ([]*domain.ThemeContent, error)
	DeleteThemeContentsNotIn(ctx context.Context, shop string, touched []domain.ThemeGroupKey) ([]domain.ThemeGroupKey, error)

	// ReplaceThemeTranslations replaces one theme group's rows for the given
	// locales with the provided set. Rows of other locales are left untouched.
	ReplaceThemeTranslations(ctx context.Context, shop, resourceID, groupID string, locales []string, rows []domain.ThemeTranslation) error
	ListThemeTranslations(ctx context.Context, shop, resourceID, groupID string) ([]domain.ThemeTranslation, error)
	DeleteThemeTranslations(ctx context.Context, shop string, keys []domain.ThemeGroupKey) error
}

// WebhookStore persists the durable webhook audit trail.
type WebhookStore interface {
	InsertLog(ctx context.Context, log *domain.WebhookLog) error
	GetLog(ctx context.Context, id string) (*domain.WebhookLog, error)
	MarkProcessed(ctx context.Context, id string, processingErr string) error
}
