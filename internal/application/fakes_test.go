package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"polyglot-shopify-sync/internal/domain"
)

// pass-through transaction manager
type fakeTxManager struct{}

func (f *fakeTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeLocker struct {
	mu    sync.Mutex
	locks int
}

func (f *fakeLocker) Lock(ctx context.Context, shop string, resourceType domain.ResourceType, id string) (func(), error) {
	f.mu.Lock()
	f.locks++
	f.mu.Unlock()
	return func() {}, nil
}

type fakeProductStore struct {
	mu       sync.Mutex
	products map[string]*domain.Product
	altRows  []domain.ImageAltTranslation
	upserts  int
}

func newFakeProductStore() *fakeProductStore {
	return &fakeProductStore{
		products: make(map[string]*domain.Product),
	}
}

func productKey(shop, id string) string { return shop + "/" + id }

func (f *fakeProductStore) UpsertProduct(ctx context.Context, product *domain.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *product
	copied.Images = append([]domain.ProductImage(nil), product.Images...)
	f.products[productKey(product.Shop, product.ID)] = &copied
	f.upserts++
	return nil
}

func (f *fakeProductStore) GetProduct(ctx context.Context, shop, id string) (*domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[productKey(shop, id)]
	if !ok {
		return nil, nil
	}
	copied := *p
	copied.Images = append([]domain.ProductImage(nil), p.Images...)
	return &copied, nil
}

func (f *fakeProductStore) DeleteProduct(ctx context.Context, shop, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.products, productKey(shop, id))
	return nil
}

func (f *fakeProductStore) ListProductIDs(ctx context.Context, shop string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []string
	for _, p := range f.products {
		if p.Shop == shop {
			ids = append(ids, p.ID)
		}
	}
	return ids, nil
}

func (f *fakeProductStore) DeleteProductsNotIn(ctx context.Context, shop string, keep []string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := make(map[string]bool, len(keep))
	for _, id := range keep {
		kept[id] = true
	}
	var deleted []string
	for key, p := range f.products {
		if p.Shop == shop && !kept[p.ID] {
			deleted = append(deleted, p.ID)
			delete(f.products, key)
		}
	}
	return deleted, nil
}

func (f *fakeProductStore) ReplaceImageAltTranslations(ctx context.Context, shop, productID string, mediaIDs []string, locales []string, rows []domain.ImageAltTranslation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	media := make(map[string]bool, len(mediaIDs))
	for _, id := range mediaIDs {
		media[id] = true
	}
	localeSet := make(map[string]bool, len(locales))
	for _, l := range locales {
		localeSet[l] = true
	}
	kept := f.altRows[:0]
	for _, row := range f.altRows {
		stale := row.Shop == shop && row.ProductID == productID &&
			(!media[row.MediaID] || localeSet[row.Locale])
		if !stale {
			kept = append(kept, row)
		}
	}
	f.altRows = append(kept, rows...)
	return nil
}

func (f *fakeProductStore) ListImageAltTranslations(ctx context.Context, shop string, mediaIDs []string) ([]domain.ImageAltTranslation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	media := make(map[string]bool, len(mediaIDs))
	for _, id := range mediaIDs {
		media[id] = true
	}
	var out []domain.ImageAltTranslation
	for _, row := range f.altRows {
		if row.Shop == shop && media[row.MediaID] {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeProductStore) DeleteImageAltTranslations(ctx context.Context, shop string, productIDs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	gone := make(map[string]bool, len(productIDs))
	for _, id := range productIDs {
		gone[id] = true
	}
	kept := f.altRows[:0]
	for _, row := range f.altRows {
		if !(row.Shop == shop && gone[row.ProductID]) {
			kept = append(kept, row)
		}
	}
	f.altRows = kept
	return nil
}

type fakeContentStore struct {
	mu       sync.Mutex
	contents map[string]*domain.Content
}

func newFakeContentStore() *fakeContentStore {
	return &fakeContentStore{contents: make(map[string]*domain.Content)}
}

func (f *fakeContentStore) UpsertContent(ctx context.Context, content *domain.Content) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *content
	f.contents[productKey(content.Shop, content.ID)] = &copied
	return nil
}

func (f *fakeContentStore) GetContent(ctx context.Context, shop, id string) (*domain.Content, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.contents[productKey(shop, id)]
	if !ok {
		return nil, nil
	}
	copied := *c
	return &copied, nil
}

func (f *fakeContentStore) DeleteContent(ctx context.Context, shop, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.contents, productKey(shop, id))
	return nil
}

func (f *fakeContentStore) ListContentIDs(ctx context.Context, shop string, resourceType domain.ResourceType) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []string
	for _, c := range f.contents {
		if c.Shop == shop && c.Type == resourceType {
			ids = append(ids, c.ID)
		}
	}
	return ids, nil
}

func (f *fakeContentStore) DeleteContentsNotIn(ctx context.Context, shop string, resourceType domain.ResourceType, keep []string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := make(map[string]bool, len(keep))
	for _, id := range keep {
		kept[id] = true
	}
	var deleted []string
	for key, c := range f.contents {
		if c.Shop == shop && c.Type == resourceType && !kept[c.ID] {
			deleted = append(deleted, c.ID)
			delete(f.contents, key)
		}
	}
	return deleted, nil
}

type fakeTranslationStore struct {
	mu   sync.Mutex
	rows map[string]domain.Translation // keyed shop/resource/key/locale
}

func newFakeTranslationStore() *fakeTranslationStore {
	return &fakeTranslationStore{rows: make(map[string]domain.Translation)}
}

func translationKey(t domain.Translation) string {
	return fmt.Sprintf("%s/%s/%s/%s/%s", t.Shop, t.ResourceID, t.ResourceType, t.Key, t.Locale)
}

func (f *fakeTranslationStore) UpsertTranslations(ctx context.Context, rows []domain.Translation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range rows {
		f.rows[translationKey(row)] = row
	}
	return nil
}

func (f *fakeTranslationStore) ListTranslations(ctx context.Context, shop, resourceID string, resourceType domain.ResourceType) ([]domain.Translation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Translation
	for _, row := range f.rows {
		if row.Shop == shop && row.ResourceID == resourceID && row.ResourceType == resourceType {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeTranslationStore) DeleteForResource(ctx context.Context, shop, resourceID string, resourceType domain.ResourceType) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for key, row := range f.rows {
		if row.Shop == shop && row.ResourceID == resourceID && row.ResourceType == resourceType {
			delete(f.rows, key)
		}
	}
	return nil
}

func (f *fakeTranslationStore) DeleteStale(ctx context.Context, shop, resourceID string, resourceType domain.ResourceType, locales []string, keep []domain.TranslationKey) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	localeSet := make(map[string]bool, len(locales))
	for _, l := range locales {
		localeSet[l] = true
	}
	kept := make(map[domain.TranslationKey]bool, len(keep))
	for _, k := range keep {
		kept[k] = true
	}
	for key, row := range f.rows {
		if row.Shop != shop || row.ResourceID != resourceID || row.ResourceType != resourceType {
			continue
		}
		if !localeSet[row.Locale] {
			continue
		}
		if !kept[domain.TranslationKey{Key: row.Key, Locale: row.Locale}] {
			delete(f.rows, key)
		}
	}
	return nil
}

type fakeThemeStore struct {
	mu           sync.Mutex
	contents     map[domain.ThemeGroupKey]*domain.ThemeContent
	translations map[domain.ThemeGroupKey][]domain.ThemeTranslation
}

func newFakeThemeStore() *fakeThemeStore {
	return &fakeThemeStore{
		contents:     make(map[domain.ThemeGroupKey]*domain.ThemeContent),
		translations: make(map[domain.ThemeGroupKey][]domain.ThemeTranslation),
	}
}

func (f *fakeThemeStore) UpsertThemeContent(ctx context.Context, content *domain.ThemeContent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *content
	f.contents[domain.ThemeGroupKey{ResourceID: content.ResourceID, GroupID: content.GroupID}] = &copied
	return nil
}

func (f *fakeThemeStore) GetThemeContent(ctx context.Context, shop, resourceID, groupID string) (*domain.ThemeContent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.contents[domain.ThemeGroupKey{ResourceID: resourceID, GroupID: groupID}]
	if !ok {
		return nil, nil
	}
	copied := *c
	return &copied, nil
}

func (f *fakeThemeStore) ListThemeContentsByGroup(ctx context.Context, shop, groupID string) ([]*domain.ThemeContent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.ThemeContent
	for key, c := range f.contents {
		if key.GroupID == groupID {
			copied := *c
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeThemeStore) DeleteThemeContentsNotIn(ctx context.Context, shop string, touched []domain.ThemeGroupKey) ([]domain.ThemeGroupKey, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := make(map[domain.ThemeGroupKey]bool, len(touched))
	for _, k := range touched {
		kept[k] = true
	}
	var stale []domain.ThemeGroupKey
	for key := range f.contents {
		if !kept[key] {
			stale = append(stale, key)
			delete(f.contents, key)
		}
	}
	return stale, nil
}

func (f *fakeThemeStore) ReplaceThemeTranslations(ctx context.Context, shop, resourceID, groupID string, locales []string, rows []domain.ThemeTranslation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	localeSet := make(map[string]bool, len(locales))
	for _, l := range locales {
		localeSet[l] = true
	}
	key := domain.ThemeGroupKey{ResourceID: resourceID, GroupID: groupID}
	var kept []domain.ThemeTranslation
	for _, row := range f.translations[key] {
		if !localeSet[row.Locale] {
			kept = append(kept, row)
		}
	}
	f.translations[key] = append(kept, rows...)
	return nil
}

func (f *fakeThemeStore) ListThemeTranslations(ctx context.Context, shop, resourceID, groupID string) ([]domain.ThemeTranslation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.ThemeTranslation(nil), f.translations[domain.ThemeGroupKey{ResourceID: resourceID, GroupID: groupID}]...), nil
}

func (f *fakeThemeStore) DeleteThemeTranslations(ctx context.Context, shop string, keys []domain.ThemeGroupKey) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, key := range keys {
		delete(f.translations, key)
	}
	return nil
}

// fakeTranslationFetcher serves canned locale and translation data and can
// fail individual locales.
type fakeTranslationFetcher struct {
	mu            sync.Mutex
	locales       []domain.ShopLocale
	contents      map[string][]domain.SourceContent      // by resource id
	translations  map[string][]domain.LocaleTranslation  // by resource id + "/" + locale
	byIDs         map[string][]domain.LocaleTranslation  // by media id + "/" + locale
	failedLocales map[string]bool
	fetchCalls    map[string]int // Translations calls by resource id + "/" + locale
	registered    []domain.Translation
}

func newFakeTranslationFetcher() *fakeTranslationFetcher {
	return &fakeTranslationFetcher{
		contents:      make(map[string][]domain.SourceContent),
		translations:  make(map[string][]domain.LocaleTranslation),
		byIDs:         make(map[string][]domain.LocaleTranslation),
		failedLocales: make(map[string]bool),
		fetchCalls:    make(map[string]int),
	}
}

func (f *fakeTranslationFetcher) ShopLocales(ctx context.Context, shop string) ([]domain.ShopLocale, error) {
	return f.locales, nil
}

func (f *fakeTranslationFetcher) TranslatableContent(ctx context.Context, shop, resourceID string) ([]domain.SourceContent, error) {
	return f.contents[resourceID], nil
}

func (f *fakeTranslationFetcher) Translations(ctx context.Context, shop, resourceID, locale string) ([]domain.LocaleTranslation, error) {
	f.mu.Lock()
	f.fetchCalls[resourceID+"/"+locale]++
	f.mu.Unlock()
	if f.failedLocales[locale] {
		return nil, errors.New("locale fetch failed")
	}
	return f.translations[resourceID+"/"+locale], nil
}

func (f *fakeTranslationFetcher) TranslationsByIDs(ctx context.Context, shop string, resourceIDs []string, locale string) (map[string][]domain.LocaleTranslation, error) {
	if f.failedLocales[locale] {
		return nil, errors.New("locale fetch failed")
	}
	out := make(map[string][]domain.LocaleTranslation)
	for _, id := range resourceIDs {
		if rows, ok := f.byIDs[id+"/"+locale]; ok {
			out[id] = rows
		}
	}
	return out, nil
}

func (f *fakeTranslationFetcher) RegisterTranslations(ctx context.Context, shop, resourceID string, rows []domain.Translation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registered = append(f.registered, rows...)
	return nil
}

type fakeProductFetcher struct {
	mu       sync.Mutex
	products map[string]*domain.Product
	ids      []string
	idsErr   error
	failIDs  map[string]error
	fetches  int
}

func newFakeProductFetcher() *fakeProductFetcher {
	return &fakeProductFetcher{
		products: make(map[string]*domain.Product),
		failIDs:  make(map[string]error),
	}
}

func (f *fakeProductFetcher) FetchProduct(ctx context.Context, shop, id string) (*domain.Product, error) {
	f.mu.Lock()
	f.fetches++
	f.mu.Unlock()
	if err, ok := f.failIDs[id]; ok {
		return nil, err
	}
	p, ok := f.products[id]
	if !ok {
		return nil, domain.ErrNotFoundUpstream
	}
	copied := *p
	copied.Images = append([]domain.ProductImage(nil), p.Images...)
	return &copied, nil
}

func (f *fakeProductFetcher) FetchAllProductIDs(ctx context.Context, shop string) ([]string, error) {
	return f.ids, f.idsErr
}

type fakeContentFetcher struct {
	contents map[string]*domain.Content // by id
	ids      map[domain.ResourceType][]string
	idsErr   map[domain.ResourceType]error
	policies []domain.Content
	polErr   error
	failIDs  map[string]error
}

func newFakeContentFetcher() *fakeContentFetcher {
	return &fakeContentFetcher{
		contents: make(map[string]*domain.Content),
		ids:      make(map[domain.ResourceType][]string),
		idsErr:   make(map[domain.ResourceType]error),
		failIDs:  make(map[string]error),
	}
}

func (f *fakeContentFetcher) fetch(id string) (*domain.Content, error) {
	if err, ok := f.failIDs[id]; ok {
		return nil, err
	}
	c, ok := f.contents[id]
	if !ok {
		return nil, domain.ErrNotFoundUpstream
	}
	copied := *c
	return &copied, nil
}

func (f *fakeContentFetcher) FetchCollection(ctx context.Context, shop, id string) (*domain.Content, error) {
	return f.fetch(id)
}

func (f *fakeContentFetcher) FetchArticle(ctx context.Context, shop, id string) (*domain.Content, error) {
	return f.fetch(id)
}

func (f *fakeContentFetcher) FetchMenu(ctx context.Context, shop, id string) (*domain.Content, error) {
	return f.fetch(id)
}

func (f *fakeContentFetcher) FetchPage(ctx context.Context, shop, id string) (*domain.Content, error) {
	return f.fetch(id)
}

func (f *fakeContentFetcher) FetchPolicies(ctx context.Context, shop string) ([]domain.Content, error) {
	return f.policies, f.polErr
}

func (f *fakeContentFetcher) FetchAllCollectionIDs(ctx context.Context, shop string) ([]string, error) {
	return f.ids[domain.ResourceTypeCollection], f.idsErr[domain.ResourceTypeCollection]
}

func (f *fakeContentFetcher) FetchAllArticleIDs(ctx context.Context, shop string) ([]string, error) {
	return f.ids[domain.ResourceTypeArticle], f.idsErr[domain.ResourceTypeArticle]
}

func (f *fakeContentFetcher) FetchAllMenuIDs(ctx context.Context, shop string) ([]string, error) {
	return f.ids[domain.ResourceTypeMenu], f.idsErr[domain.ResourceTypeMenu]
}

func (f *fakeContentFetcher) FetchAllPageIDs(ctx context.Context, shop string) ([]string, error) {
	return f.ids[domain.ResourceTypePage], f.idsErr[domain.ResourceTypePage]
}

type fakeThemeFetcher struct {
	resources map[string][]domain.ThemeResource // by resource type
	err       error
}

func (f *fakeThemeFetcher) FetchThemeResources(ctx context.Context, shop, resourceType string) ([]domain.ThemeResource, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.resources[resourceType], nil
}

type fakeShopStore struct {
	shops map[string]*domain.Shop
}

func (f *fakeShopStore) SaveShop(ctx context.Context, shop *domain.Shop) error {
	f.shops[shop.Domain] = shop
	return nil
}

func (f *fakeShopStore) GetShop(ctx context.Context, shopDomain string) (*domain.Shop, error) {
	return f.shops[shopDomain], nil
}

func (f *fakeShopStore) DeleteShop(ctx context.Context, shopDomain string) error {
	delete(f.shops, shopDomain)
	return nil
}

func (f *fakeShopStore) ListShops(ctx context.Context) ([]*domain.Shop, error) {
	var out []*domain.Shop
	for _, s := range f.shops {
		out = append(out, s)
	}
	return out, nil
}

type fakeWebhookStore struct {
	mu   sync.Mutex
	logs map[string]*domain.WebhookLog
}

func newFakeWebhookStore() *fakeWebhookStore {
	return &fakeWebhookStore{logs: make(map[string]*domain.WebhookLog)}
}

func (f *fakeWebhookStore) InsertLog(ctx context.Context, log *domain.WebhookLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *log
	f.logs[log.ID] = &copied
	return nil
}

func (f *fakeWebhookStore) GetLog(ctx context.Context, id string) (*domain.WebhookLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	log, ok := f.logs[id]
	if !ok {
		return nil, nil
	}
	copied := *log
	return &copied, nil
}

func (f *fakeWebhookStore) MarkProcessed(ctx context.Context, id string, processingErr string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	log, ok := f.logs[id]
	if !ok {
		return errors.New("log not found")
	}
	now := time.Now()
	log.Processed = true
	log.Error = processingErr
	log.ProcessedAt = &now
	log.Attempts++
	return nil
}

type fakeRetryQueue struct {
	mu        sync.Mutex
	scheduled []string
}

func (f *fakeRetryQueue) Schedule(ctx context.Context, logID string, attempt int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scheduled = append(f.scheduled, logID)
	return nil
}

func (f *fakeRetryQueue) Due(ctx context.Context, now time.Time) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	due := f.scheduled
	f.scheduled = nil
	return due, nil
}

// fakeEncryption reversibly tags values so tests can assert on ciphertext
type fakeEncryption struct{}

func (f *fakeEncryption) Encrypt(plaintext string) (string, error) {
	return "enc:" + plaintext, nil
}

func (f *fakeEncryption) Decrypt(ciphertext string) (string, error) {
	if len(ciphertext) < 4 || ciphertext[:4] != "enc:" {
		return "", errors.New("invalid ciphertext")
	}
	return ciphertext[4:], nil
}

type fakeWebhookHandler struct {
	topics  map[string]bool
	handled []*domain.WebhookEvent
	err     error
}

func (f *fakeWebhookHandler) CanHandle(topic string) bool {
	return f.topics[topic]
}

func (f *fakeWebhookHandler) Handle(ctx context.Context, event *domain.WebhookEvent) error {
	f.handled = append(f.handled, event)
	return f.err
}
