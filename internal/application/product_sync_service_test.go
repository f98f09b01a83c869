package application

import (
	"context"
	"errors"
	"testing"

	"polyglot-shopify-sync/internal/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProductSync() (*ProductSyncService, *fakeProductFetcher, *fakeTranslationFetcher, *fakeProductStore, *fakeTranslationStore, *fakeShopStore) {
	productFetcher := newFakeProductFetcher()
	translationFetcher := newFakeTranslationFetcher()
	products := newFakeProductStore()
	contents := newFakeContentStore()
	translations := newFakeTranslationStore()
	themes := newFakeThemeStore()
	shops := &fakeShopStore{shops: map[string]*domain.Shop{
		"shop1": {Domain: "shop1", Plan: domain.PlanPremium},
	}}

	writer := NewCacheWriter(&fakeTxManager{}, products, contents, translations, themes, zerolog.Nop())
	reconciler := NewTranslationReconciler(translationFetcher, zerolog.Nop())
	service := NewProductSyncService(productFetcher, reconciler, writer, products, shops, &fakeLocker{}, nil, zerolog.Nop())
	return service, productFetcher, translationFetcher, products, translations, shops
}

func TestSyncProductIsIdempotent(t *testing.T) {
	service, fetcher, translationFetcher, products, translations, _ := newTestProductSync()
	ctx := context.Background()

	translationFetcher.locales = []domain.ShopLocale{
		{Locale: "en", Primary: true, Published: true},
		{Locale: "fr", Published: true},
	}
	fetcher.products["p1"] = &domain.Product{
		Shop: "shop1", ID: "p1", Title: "Chair",
		Images: []domain.ProductImage{{MediaID: "m1", Position: 1}},
	}
	translationFetcher.translations["p1/fr"] = []domain.LocaleTranslation{
		{Key: "title", Value: "Chaise", Locale: "fr"},
	}

	require.NoError(t, service.SyncProduct(ctx, "shop1", "p1"))
	require.NoError(t, service.SyncProduct(ctx, "shop1", "p1"))

	ids, err := products.ListProductIDs(ctx, "shop1")
	require.NoError(t, err)
	assert.Len(t, ids, 1)

	rows, err := translations.ListTranslations(ctx, "shop1", "p1", domain.ResourceTypeProduct)
	require.NoError(t, err)
	assert.Len(t, rows, 1, "repeated syncs must not duplicate translations")
}

func TestSyncProductDeletesWhenGoneUpstream(t *testing.T) {
	service, _, _, products, _, _ := newTestProductSync()
	ctx := context.Background()

	require.NoError(t, products.UpsertProduct(ctx, &domain.Product{Shop: "shop1", ID: "p1"}))

	require.NoError(t, service.SyncProduct(ctx, "shop1", "p1"))

	stored, err := products.GetProduct(ctx, "shop1", "p1")
	require.NoError(t, err)
	assert.Nil(t, stored, "a vanished product is removed, not an error")
}

func TestSyncSingleProductFeaturedImageOnly(t *testing.T) {
	service, fetcher, _, products, _, _ := newTestProductSync()
	ctx := context.Background()

	fetcher.products["p1"] = &domain.Product{
		Shop: "shop1", ID: "p1",
		Images: []domain.ProductImage{
			{MediaID: "m2", Position: 2},
			{MediaID: "m1", Position: 1},
			{MediaID: "m3", Position: 3},
		},
	}

	product, _, err := service.SyncSingleProduct(ctx, "shop1", "p1", false)
	require.NoError(t, err)
	require.Len(t, product.Images, 1)
	assert.Equal(t, "m1", product.Images[0].MediaID)

	stored, err := products.GetProduct(ctx, "shop1", "p1")
	require.NoError(t, err)
	assert.Len(t, stored.Images, 1)
}

func TestSyncAllProductsToleratesItemFailure(t *testing.T) {
	service, fetcher, _, _, _, _ := newTestProductSync()
	ctx := context.Background()

	fetcher.ids = []string{"p1", "p2", "p3", "p4", "p5"}
	for _, id := range fetcher.ids {
		fetcher.products[id] = &domain.Product{Shop: "shop1", ID: id}
	}
	fetcher.failIDs["p3"] = errors.New("boom")

	stats, err := service.SyncAllProducts(ctx, "shop1", nil)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Synced)
	assert.Equal(t, 1, stats.Failed)
}

func TestSyncAllProductsReportsProgress(t *testing.T) {
	service, fetcher, _, _, _, _ := newTestProductSync()
	ctx := context.Background()

	fetcher.ids = []string{"p1", "p2"}
	for _, id := range fetcher.ids {
		fetcher.products[id] = &domain.Product{Shop: "shop1", ID: id}
	}

	var calls int
	_, err := service.SyncAllProducts(ctx, "shop1", func(current, total int, message string) {
		calls++
		assert.Equal(t, 2, total)
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestReconcileProductCatalog(t *testing.T) {
	service, fetcher, _, products, translations, _ := newTestProductSync()
	ctx := context.Background()

	for _, id := range []string{"p1", "p2", "p3"} {
		require.NoError(t, products.UpsertProduct(ctx, &domain.Product{Shop: "shop1", ID: id}))
		require.NoError(t, translations.UpsertTranslations(ctx, []domain.Translation{
			{Shop: "shop1", ResourceID: id, ResourceType: domain.ResourceTypeProduct, Key: "title", Locale: "fr", Value: "t"},
		}))
	}
	fetcher.ids = []string{"p1"}

	deleted, err := service.ReconcileCatalog(ctx, "shop1")
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	ids, err := products.ListProductIDs(ctx, "shop1")
	require.NoError(t, err)
	assert.Equal(t, []string{"p1"}, ids)
}

func TestReconcileCatalogRequiresSuccessfulListing(t *testing.T) {
	service, fetcher, _, products, _, _ := newTestProductSync()
	ctx := context.Background()

	require.NoError(t, products.UpsertProduct(ctx, &domain.Product{Shop: "shop1", ID: "p1"}))
	fetcher.idsErr = errors.New("upstream down")

	_, err := service.ReconcileCatalog(ctx, "shop1")
	require.Error(t, err)

	stored, err := products.GetProduct(ctx, "shop1", "p1")
	require.NoError(t, err)
	assert.NotNil(t, stored, "a failed listing must never trigger cleanup")
}
