package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"polyglot-shopify-sync/internal/application"
	"polyglot-shopify-sync/internal/domain"
	"polyglot-shopify-sync/internal/infrastructure/pubsub"
	"polyglot-shopify-sync/internal/ports"
	shopifyinfra "polyglot-shopify-sync/internal/infrastructure/shopify"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
)

// webhookHandler handles inbound Shopify webhook deliveries. The signature is
// checked before anything is persisted; once the encrypted log row exists the
// 200 ack is written and processing continues in the background.
func webhookHandler(
	webhookService *application.WebhookService,
	verifier *shopifyinfra.WebhookVerifier,
	logger zerolog.Logger,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		topic := r.Header.Get("X-Shopify-Topic")
		shop := r.Header.Get("X-Shopify-Shop-Domain")
		hmacHeader := r.Header.Get("X-Shopify-Hmac-Sha256")
		if topic == "" || shop == "" || hmacHeader == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing webhook headers"})
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "failed to read request body"})
			return
		}
		defer r.Body.Close()

		if err := verifier.Verify(payload, hmacHeader); err != nil {
			logger.Warn().
				Err(err).
				Str("shop", shop).
				Str("topic", topic).
				Msg("Webhook signature verification failed")
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid signature"})
			return
		}

		event, err := webhookService.Ingest(r.Context(), shop, topic, payload)
		if err != nil {
			logger.Error().Err(err).Str("topic", topic).Msg("Failed to ingest webhook")
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to persist webhook"})
			return
		}

		writeJSON(w, http.StatusOK, map[string]bool{"received": true})

		// Processing is decoupled from the sender's timeout
		go webhookService.Process(context.Background(), event)
	}
}

// healthHandler reports dependency health
func healthHandler(mongoClient *mongo.Client, redisClient *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := mongoClient.Ping(ctx, nil); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "mongo": err.Error()})
			return
		}
		if err := redisClient.Ping(ctx).Err(); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "redis": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// syncAPI serves the manual trigger surface consumed by the merchant UI
type syncAPI struct {
	products     *application.ProductSyncService
	contents     *application.ContentSyncService
	background   *application.BackgroundSyncService
	translations *application.TranslationService
	shops        ports.ShopStore
	progress     *pubsub.ProgressPubSub
	logger       zerolog.Logger
}

func newSyncAPI(
	products *application.ProductSyncService,
	contents *application.ContentSyncService,
	background *application.BackgroundSyncService,
	translations *application.TranslationService,
	shops ports.ShopStore,
	progress *pubsub.ProgressPubSub,
	logger zerolog.Logger,
) *syncAPI {
	return &syncAPI{
		products:     products,
		contents:     contents,
		background:   background,
		translations: translations,
		shops:        shops,
		progress:     progress,
		logger:       logger,
	}
}

func (a *syncAPI) syncProduct(w http.ResponseWriter, r *http.Request) {
	shop, ok := a.requireShop(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	record, err := a.shops.GetShop(r.Context(), shop)
	if err != nil || record == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "shop not connected"})
		return
	}

	product, translations, err := a.products.SyncSingleProduct(r.Context(), shop, id, record.Plan.IncludeAllImages())
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"product":      product,
		"translations": translations,
	})
}

func (a *syncAPI) syncAllProducts(w http.ResponseWriter, r *http.Request) {
	shop, ok := a.requireShop(w, r)
	if !ok {
		return
	}
	stats, err := a.products.SyncAllProducts(r.Context(), shop, a.progressFunc(shop, "sync-products"))
	a.writeStats(w, stats, err)
}

func (a *syncAPI) reconcileProducts(w http.ResponseWriter, r *http.Request) {
	shop, ok := a.requireShop(w, r)
	if !ok {
		return
	}
	deleted, err := a.products.ReconcileCatalog(r.Context(), shop)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"deleted": deleted})
}

func (a *syncAPI) syncCollection(w http.ResponseWriter, r *http.Request) {
	a.syncSingleContent(w, r, domain.ResourceTypeCollection)
}

func (a *syncAPI) syncArticle(w http.ResponseWriter, r *http.Request) {
	a.syncSingleContent(w, r, domain.ResourceTypeArticle)
}

func (a *syncAPI) syncMenu(w http.ResponseWriter, r *http.Request) {
	a.syncSingleContent(w, r, domain.ResourceTypeMenu)
}

func (a *syncAPI) syncSingleContent(w http.ResponseWriter, r *http.Request, resourceType domain.ResourceType) {
	shop, ok := a.requireShop(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	content, translations, err := a.contents.SyncSingleContent(r.Context(), shop, id, resourceType)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"content":      content,
		"translations": translations,
	})
}

func (a *syncAPI) syncAllCollections(w http.ResponseWriter, r *http.Request) {
	a.syncAllContent(w, r, domain.ResourceTypeCollection)
}

func (a *syncAPI) syncAllArticles(w http.ResponseWriter, r *http.Request) {
	a.syncAllContent(w, r, domain.ResourceTypeArticle)
}

func (a *syncAPI) syncAllMenus(w http.ResponseWriter, r *http.Request) {
	a.syncAllContent(w, r, domain.ResourceTypeMenu)
}

func (a *syncAPI) syncAllContent(w http.ResponseWriter, r *http.Request, resourceType domain.ResourceType) {
	shop, ok := a.requireShop(w, r)
	if !ok {
		return
	}
	progress := a.progressFunc(shop, "sync-"+string(resourceType)+"s")

	var (
		stats domain.SyncStats
		err   error
	)
	switch resourceType {
	case domain.ResourceTypeCollection:
		stats, err = a.contents.SyncAllCollections(r.Context(), shop, progress)
	case domain.ResourceTypeArticle:
		stats, err = a.contents.SyncAllArticles(r.Context(), shop, progress)
	case domain.ResourceTypeMenu:
		stats, err = a.contents.SyncAllMenus(r.Context(), shop, progress)
	}
	a.writeStats(w, stats, err)
}

func (a *syncAPI) reconcileCollections(w http.ResponseWriter, r *http.Request) {
	a.reconcileContent(w, r, domain.ResourceTypeCollection)
}

func (a *syncAPI) reconcileArticles(w http.ResponseWriter, r *http.Request) {
	a.reconcileContent(w, r, domain.ResourceTypeArticle)
}

func (a *syncAPI) reconcileMenus(w http.ResponseWriter, r *http.Request) {
	a.reconcileContent(w, r, domain.ResourceTypeMenu)
}

func (a *syncAPI) reconcileContent(w http.ResponseWriter, r *http.Request, resourceType domain.ResourceType) {
	shop, ok := a.requireShop(w, r)
	if !ok {
		return
	}
	deleted, err := a.contents.ReconcileCatalog(r.Context(), shop, resourceType)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"deleted": deleted})
}

func (a *syncAPI) syncAllPages(w http.ResponseWriter, r *http.Request) {
	shop, ok := a.requireShop(w, r)
	if !ok {
		return
	}
	maxCount := 0
	if raw := r.URL.Query().Get("max"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			maxCount = parsed
		}
	}
	stats, err := a.background.SyncAllPages(r.Context(), shop, maxCount, a.progressFunc(shop, "sync-pages"))
	a.writeStats(w, stats, err)
}

func (a *syncAPI) syncPage(w http.ResponseWriter, r *http.Request) {
	shop, ok := a.requireShop(w, r)
	if !ok {
		return
	}
	content, translations, err := a.background.SyncSinglePage(r.Context(), shop, chi.URLParam(r, "id"))
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"content":      content,
		"translations": translations,
	})
}

func (a *syncAPI) syncAllPolicies(w http.ResponseWriter, r *http.Request) {
	shop, ok := a.requireShop(w, r)
	if !ok {
		return
	}
	stats, err := a.background.SyncAllPolicies(r.Context(), shop, a.progressFunc(shop, "sync-policies"))
	a.writeStats(w, stats, err)
}

func (a *syncAPI) syncPolicy(w http.ResponseWriter, r *http.Request) {
	shop, ok := a.requireShop(w, r)
	if !ok {
		return
	}
	content, translations, err := a.background.SyncSinglePolicy(r.Context(), shop, chi.URLParam(r, "id"))
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"content":      content,
		"translations": translations,
	})
}

func (a *syncAPI) syncAllThemes(w http.ResponseWriter, r *http.Request) {
	shop, ok := a.requireShop(w, r)
	if !ok {
		return
	}
	stats, err := a.background.SyncAllThemes(r.Context(), shop, a.progressFunc(shop, "sync-themes"))
	a.writeStats(w, stats, err)
}

func (a *syncAPI) syncThemeGroup(w http.ResponseWriter, r *http.Request) {
	shop, ok := a.requireShop(w, r)
	if !ok {
		return
	}
	contents, err := a.background.SyncSingleThemeGroup(r.Context(), shop, chi.URLParam(r, "groupID"))
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"contents": contents})
}

// updateTranslations writes merchant-edited translations back upstream
func (a *syncAPI) updateTranslations(w http.ResponseWriter, r *http.Request) {
	shop, ok := a.requireShop(w, r)
	if !ok {
		return
	}
	resourceID := chi.URLParam(r, "resourceID")

	var body struct {
		Translations []domain.Translation `json:"translations"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	for i := range body.Translations {
		body.Translations[i].Shop = shop
		body.Translations[i].ResourceID = resourceID
	}

	if err := a.translations.UpdateTranslations(r.Context(), shop, resourceID, body.Translations); err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"updated": true})
}

// streamProgress serves the server-sent-events progress stream
func (a *syncAPI) streamProgress(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	var filter *pubsub.ProgressFilter
	if shop := r.URL.Query().Get("shop"); shop != "" {
		filter = &pubsub.ProgressFilter{Shop: shop}
	}
	channel := a.progress.Subscribe(r.Context(), filter)

	for {
		select {
		case <-r.Context().Done():
			return
		case event, open := <-channel.Events:
			if !open {
				return
			}
			data, err := json.Marshal(event)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		}
	}
}

// progressFunc bridges sync progress callbacks onto the pub/sub stream
func (a *syncAPI) progressFunc(shop, operation string) domain.ProgressFunc {
	return func(current, total int, message string) {
		a.progress.Publish(&domain.SyncProgress{
			Shop:      shop,
			Operation: operation,
			Current:   current,
			Total:     total,
			Message:   message,
		})
	}
}

func (a *syncAPI) requireShop(w http.ResponseWriter, r *http.Request) (string, bool) {
	shop := r.URL.Query().Get("shop")
	if shop == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "shop query parameter is required"})
		return "", false
	}
	return shop, true
}

func (a *syncAPI) writeStats(w http.ResponseWriter, stats domain.SyncStats, err error) {
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (a *syncAPI) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFoundUpstream):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrLockHeld):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrRateLimitExceeded):
		status = http.StatusTooManyRequests
	}
	a.logger.Error().Err(err).Msg("Sync request failed")
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
