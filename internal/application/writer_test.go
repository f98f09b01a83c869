package application

import (
	"context"
	"testing"
	"time"

	"polyglot-shopify-sync/internal/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWriter() (*CacheWriter, *fakeProductStore, *fakeContentStore, *fakeTranslationStore, *fakeThemeStore) {
	products := newFakeProductStore()
	contents := newFakeContentStore()
	translations := newFakeTranslationStore()
	themes := newFakeThemeStore()
	writer := NewCacheWriter(&fakeTxManager{}, products, contents, translations, themes, zerolog.Nop())
	return writer, products, contents, translations, themes
}

func TestApplyProductPreservesRecentAltText(t *testing.T) {
	writer, products, _, _, _ := newTestWriter()
	ctx := context.Background()

	edited := time.Now().Add(-time.Minute)
	require.NoError(t, products.UpsertProduct(ctx, &domain.Product{
		Shop: "shop1", ID: "p1",
		Images: []domain.ProductImage{
			{MediaID: "m1", AltText: "Hand-written alt", AltTextModifiedAt: &edited},
		},
	}))

	incoming := &domain.Product{
		Shop: "shop1", ID: "p1",
		Images: []domain.ProductImage{
			{MediaID: "m1", AltText: "Upstream alt"},
		},
	}
	require.NoError(t, writer.ApplyProduct(ctx, incoming, nil, nil, nil, nil))

	stored, err := products.GetProduct(ctx, "shop1", "p1")
	require.NoError(t, err)
	require.Len(t, stored.Images, 1)
	assert.Equal(t, "Hand-written alt", stored.Images[0].AltText)
	require.NotNil(t, stored.Images[0].AltTextModifiedAt)
	assert.True(t, stored.Images[0].AltTextModifiedAt.After(edited), "preservation refreshes the timestamp")
}

func TestApplyProductOverwritesAltTextAfterWindow(t *testing.T) {
	writer, products, _, _, _ := newTestWriter()
	ctx := context.Background()

	edited := time.Now().Add(-domain.AltTextPreservationWindow - time.Minute)
	require.NoError(t, products.UpsertProduct(ctx, &domain.Product{
		Shop: "shop1", ID: "p1",
		Images: []domain.ProductImage{
			{MediaID: "m1", AltText: "Old alt", AltTextModifiedAt: &edited},
		},
	}))

	incoming := &domain.Product{
		Shop: "shop1", ID: "p1",
		Images: []domain.ProductImage{
			{MediaID: "m1", AltText: "Upstream alt"},
		},
	}
	require.NoError(t, writer.ApplyProduct(ctx, incoming, nil, nil, nil, nil))

	stored, err := products.GetProduct(ctx, "shop1", "p1")
	require.NoError(t, err)
	assert.Equal(t, "Upstream alt", stored.Images[0].AltText)
}

func TestApplyContentPrunesStaleTranslations(t *testing.T) {
	writer, _, _, translations, _ := newTestWriter()
	ctx := context.Background()

	stale := domain.Translation{Shop: "shop1", ResourceID: "c1", ResourceType: domain.ResourceTypeCollection, Key: "title", Locale: "de", Value: "Alt"}
	require.NoError(t, translations.UpsertTranslations(ctx, []domain.Translation{stale}))

	current := []domain.Translation{
		{Shop: "shop1", ResourceID: "c1", ResourceType: domain.ResourceTypeCollection, Key: "title", Locale: "fr", Value: "Titre"},
	}
	content := &domain.Content{Shop: "shop1", ID: "c1", Type: domain.ResourceTypeCollection}
	require.NoError(t, writer.ApplyContent(ctx, content, current, []string{"fr", "de"}))

	rows, err := translations.ListTranslations(ctx, "shop1", "c1", domain.ResourceTypeCollection)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "fr", rows[0].Locale)
}

// Pruning is scoped to the locales that were actually fetched this pass, so a
// locale absent from the prune set keeps whatever rows it already has.
func TestApplyContentPrunesOnlyFetchedLocales(t *testing.T) {
	writer, _, _, translations, _ := newTestWriter()
	ctx := context.Background()

	cached := []domain.Translation{
		{Shop: "shop1", ResourceID: "c1", ResourceType: domain.ResourceTypeCollection, Key: "title", Locale: "fr", Value: "Titre"},
		{Shop: "shop1", ResourceID: "c1", ResourceType: domain.ResourceTypeCollection, Key: "title", Locale: "de", Value: "Titel"},
	}
	require.NoError(t, translations.UpsertTranslations(ctx, cached))

	current := []domain.Translation{
		{Shop: "shop1", ResourceID: "c1", ResourceType: domain.ResourceTypeCollection, Key: "body_html", Locale: "fr", Value: "Corps"},
	}
	content := &domain.Content{Shop: "shop1", ID: "c1", Type: domain.ResourceTypeCollection}
	require.NoError(t, writer.ApplyContent(ctx, content, current, []string{"fr"}))

	rows, err := translations.ListTranslations(ctx, "shop1", "c1", domain.ResourceTypeCollection)
	require.NoError(t, err)
	byLocale := make(map[string][]string)
	for _, row := range rows {
		byLocale[row.Locale] = append(byLocale[row.Locale], row.Key)
	}
	assert.Equal(t, []string{"body_html"}, byLocale["fr"], "fetched locale is fully replaced")
	assert.Equal(t, []string{"title"}, byLocale["de"], "unfetched locale keeps its cached rows")
}

// A shop with no published non-primary locales always reconciles to zero
// translations; that must not be taken as evidence the cached rows are stale.
func TestApplyContentSkipsPruningWithoutLocales(t *testing.T) {
	writer, _, _, translations, _ := newTestWriter()
	ctx := context.Background()

	existing := domain.Translation{Shop: "shop1", ResourceID: "c1", ResourceType: domain.ResourceTypeCollection, Key: "title", Locale: "fr", Value: "Titre"}
	require.NoError(t, translations.UpsertTranslations(ctx, []domain.Translation{existing}))

	content := &domain.Content{Shop: "shop1", ID: "c1", Type: domain.ResourceTypeCollection}
	require.NoError(t, writer.ApplyContent(ctx, content, nil, nil))

	rows, err := translations.ListTranslations(ctx, "shop1", "c1", domain.ResourceTypeCollection)
	require.NoError(t, err)
	assert.Len(t, rows, 1, "pruning must not run when the shop has no translatable locales")
}

func TestDeleteProductRemovesTranslationsAndAltRows(t *testing.T) {
	writer, products, _, translations, _ := newTestWriter()
	ctx := context.Background()

	require.NoError(t, products.UpsertProduct(ctx, &domain.Product{
		Shop: "shop1", ID: "p1",
		Images: []domain.ProductImage{{MediaID: "m1"}},
	}))
	require.NoError(t, products.ReplaceImageAltTranslations(ctx, "shop1", "p1", []string{"m1"}, []string{"fr"}, []domain.ImageAltTranslation{
		{Shop: "shop1", ProductID: "p1", MediaID: "m1", Locale: "fr", Value: "Chaise"},
	}))
	require.NoError(t, translations.UpsertTranslations(ctx, []domain.Translation{
		{Shop: "shop1", ResourceID: "p1", ResourceType: domain.ResourceTypeProduct, Key: "title", Locale: "fr", Value: "Titre"},
	}))

	require.NoError(t, writer.DeleteProduct(ctx, "shop1", "p1"))

	stored, err := products.GetProduct(ctx, "shop1", "p1")
	require.NoError(t, err)
	assert.Nil(t, stored)

	altRows, err := products.ListImageAltTranslations(ctx, "shop1", []string{"m1"})
	require.NoError(t, err)
	assert.Empty(t, altRows)

	rows, err := translations.ListTranslations(ctx, "shop1", "p1", domain.ResourceTypeProduct)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestDeleteProductTolerateAbsent(t *testing.T) {
	writer, _, _, _, _ := newTestWriter()
	assert.NoError(t, writer.DeleteProduct(context.Background(), "shop1", "missing"))
}

func TestReconcileProductsRemovesAltTranslations(t *testing.T) {
	writer, products, _, _, _ := newTestWriter()
	ctx := context.Background()

	require.NoError(t, products.UpsertProduct(ctx, &domain.Product{Shop: "shop1", ID: "p1"}))
	require.NoError(t, products.UpsertProduct(ctx, &domain.Product{
		Shop: "shop1", ID: "p2",
		Images: []domain.ProductImage{{MediaID: "m2"}},
	}))
	require.NoError(t, products.ReplaceImageAltTranslations(ctx, "shop1", "p2", []string{"m2"}, []string{"fr"}, []domain.ImageAltTranslation{
		{Shop: "shop1", ProductID: "p2", MediaID: "m2", Locale: "fr", Value: "Table"},
	}))

	deleted, err := writer.ReconcileProducts(ctx, "shop1", []string{"p1"})
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	altRows, err := products.ListImageAltTranslations(ctx, "shop1", []string{"m2"})
	require.NoError(t, err)
	assert.Empty(t, altRows, "alt translations of reconciled-away products are removed")
}

// An image removed upstream takes its alt translation rows with it on the
// next apply, even for locales that were not fetched this pass.
func TestApplyProductDropsAltRowsOfRemovedImages(t *testing.T) {
	writer, products, _, _, _ := newTestWriter()
	ctx := context.Background()

	require.NoError(t, products.UpsertProduct(ctx, &domain.Product{
		Shop: "shop1", ID: "p1",
		Images: []domain.ProductImage{{MediaID: "m1"}, {MediaID: "m2"}},
	}))
	require.NoError(t, products.ReplaceImageAltTranslations(ctx, "shop1", "p1", []string{"m1", "m2"}, []string{"fr"}, []domain.ImageAltTranslation{
		{Shop: "shop1", ProductID: "p1", MediaID: "m1", Locale: "fr", Value: "Chaise"},
		{Shop: "shop1", ProductID: "p1", MediaID: "m2", Locale: "fr", Value: "Table"},
	}))

	incoming := &domain.Product{
		Shop: "shop1", ID: "p1",
		Images: []domain.ProductImage{{MediaID: "m1"}},
	}
	require.NoError(t, writer.ApplyProduct(ctx, incoming, nil, nil, []domain.ImageAltTranslation{
		{Shop: "shop1", ProductID: "p1", MediaID: "m1", Locale: "fr", Value: "Chaise"},
	}, []string{"fr"}))

	kept, err := products.ListImageAltTranslations(ctx, "shop1", []string{"m1"})
	require.NoError(t, err)
	require.Len(t, kept, 1)

	gone, err := products.ListImageAltTranslations(ctx, "shop1", []string{"m2"})
	require.NoError(t, err)
	assert.Empty(t, gone, "rows of removed media do not outlive the image")
}

func TestReconcileContentsDeletesStaleWithTranslations(t *testing.T) {
	writer, _, contents, translations, _ := newTestWriter()
	ctx := context.Background()

	for _, id := range []string{"pg1", "pg2", "pg3"} {
		require.NoError(t, contents.UpsertContent(ctx, &domain.Content{Shop: "shop1", ID: id, Type: domain.ResourceTypePage}))
		require.NoError(t, translations.UpsertTranslations(ctx, []domain.Translation{
			{Shop: "shop1", ResourceID: id, ResourceType: domain.ResourceTypePage, Key: "title", Locale: "fr", Value: "t"},
		}))
	}

	deleted, err := writer.ReconcileContents(ctx, "shop1", domain.ResourceTypePage, []string{"pg1"})
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	rows, err := translations.ListTranslations(ctx, "shop1", "pg2", domain.ResourceTypePage)
	require.NoError(t, err)
	assert.Empty(t, rows, "stale resource translations are removed with the resource")

	kept, err := contents.GetContent(ctx, "shop1", "pg1")
	require.NoError(t, err)
	assert.NotNil(t, kept)
}

func TestPruneThemeGroups(t *testing.T) {
	writer, _, _, _, themes := newTestWriter()
	ctx := context.Background()

	keep := domain.ThemeGroupKey{ResourceID: "t1", GroupID: "product"}
	drop := domain.ThemeGroupKey{ResourceID: "t1", GroupID: "cart"}
	require.NoError(t, themes.UpsertThemeContent(ctx, &domain.ThemeContent{Shop: "shop1", ResourceID: keep.ResourceID, GroupID: keep.GroupID}))
	require.NoError(t, themes.UpsertThemeContent(ctx, &domain.ThemeContent{Shop: "shop1", ResourceID: drop.ResourceID, GroupID: drop.GroupID}))
	require.NoError(t, themes.ReplaceThemeTranslations(ctx, "shop1", drop.ResourceID, drop.GroupID, []string{"fr"}, []domain.ThemeTranslation{
		{Shop: "shop1", ResourceID: drop.ResourceID, GroupID: drop.GroupID, Key: "k", Locale: "fr", Value: "v"},
	}))

	deleted, err := writer.PruneThemeGroups(ctx, "shop1", []domain.ThemeGroupKey{keep})
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	gone, err := themes.GetThemeContent(ctx, "shop1", drop.ResourceID, drop.GroupID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	rows, err := themes.ListThemeTranslations(ctx, "shop1", drop.ResourceID, drop.GroupID)
	require.NoError(t, err)
	assert.Empty(t, rows)
}
