package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"polyglot-shopify-sync/internal/application"
	"polyglot-shopify-sync/internal/application/webhook_handlers"
	"polyglot-shopify-sync/internal/infrastructure/encryption"
	"polyglot-shopify-sync/internal/infrastructure/locks"
	"polyglot-shopify-sync/internal/infrastructure/metrics"
	"polyglot-shopify-sync/internal/infrastructure/pubsub"
	"polyglot-shopify-sync/internal/infrastructure/queue"
	"polyglot-shopify-sync/internal/infrastructure/repository"
	shopifyinfra "polyglot-shopify-sync/internal/infrastructure/shopify"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	// Initialize logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("⚠️  Warning: .env file not found")
	}

	// Get configuration from environment
	mongoURI := os.Getenv("MONGODB_URI")
	if mongoURI == "" {
		mongoURI = "mongodb://localhost:27017"
	}
	mongoDatabase := os.Getenv("MONGODB_DATABASE")
	if mongoDatabase == "" {
		mongoDatabase = "content_sync"
	}
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	encryptionKey := os.Getenv("ENCRYPTION_KEY")
	if encryptionKey == "" {
		logger.Fatal().Msg("ENCRYPTION_KEY environment variable is required")
	}
	apiKey := os.Getenv("SHOPIFY_API_KEY")
	apiSecret := os.Getenv("SHOPIFY_API_SECRET")
	if apiKey == "" || apiSecret == "" {
		logger.Fatal().Msg("SHOPIFY_API_KEY and SHOPIFY_API_SECRET environment variables are required")
	}
	webhookSecret := os.Getenv("SHOPIFY_WEBHOOK_SECRET")
	if webhookSecret == "" {
		logger.Fatal().Msg("SHOPIFY_WEBHOOK_SECRET environment variable is required")
	}

	// Connect to MongoDB
	ctx := context.Background()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	defer client.Disconnect(ctx)

	db := client.Database(mongoDatabase)

	// Connect to Redis
	redisClient := redis.NewClient(&redis.Options{Addr: redisAddr})
	defer redisClient.Close()

	// Initialize infrastructure (implementations)
	encryptionService := encryption.NewAESEncryptionService(encryptionKey)
	registry := prometheus.NewRegistry()
	syncMetrics := metrics.New(registry)

	// Initialize repositories
	txManager := repository.NewMongoTransactionManager(client)
	shopRepo := repository.NewMongoShopRepository(db)
	productRepo := repository.NewMongoProductRepository(db)
	contentRepo := repository.NewMongoContentRepository(db)
	translationRepo := repository.NewMongoTranslationRepository(db)
	themeRepo := repository.NewMongoThemeRepository(db)
	webhookRepo := repository.NewMongoWebhookRepository(db)

	// Initialize the gateway pool with rate limiting and retry
	gatewayPool := shopifyinfra.NewGatewayPool(
		apiKey, apiSecret,
		shopRepo,
		encryptionService,
		shopifyinfra.DefaultRetryConfig(),
		shopifyinfra.DefaultRequestsPerSecond,
		syncMetrics,
		logger,
	)

	// Initialize fetchers
	productFetcher := shopifyinfra.NewProductFetcher(gatewayPool, logger)
	contentFetcher := shopifyinfra.NewContentFetcher(gatewayPool, logger)
	themeFetcher := shopifyinfra.NewThemeFetcher(gatewayPool, logger)
	translationFetcher := shopifyinfra.NewTranslationFetcher(gatewayPool, logger)

	// Initialize application services
	locker := locks.NewRedisLocker(redisClient, logger)
	reconciler := application.NewTranslationReconciler(translationFetcher, logger)
	writer := application.NewCacheWriter(txManager, productRepo, contentRepo, translationRepo, themeRepo, logger)

	productSync := application.NewProductSyncService(
		productFetcher, reconciler, writer, productRepo, shopRepo, locker, syncMetrics, logger)
	contentSync := application.NewContentSyncService(
		contentFetcher, reconciler, writer, contentRepo, locker, syncMetrics, logger)
	backgroundSync := application.NewBackgroundSyncService(
		contentFetcher, themeFetcher, translationFetcher,
		reconciler, application.NewThemeClassifier(), writer,
		contentRepo, themeRepo, locker, syncMetrics, logger)
	translationService := application.NewTranslationService(translationFetcher, txManager, translationRepo, logger)

	// Initialize the webhook pipeline
	retryQueue := queue.NewRedisRetryQueue(redisClient)
	webhookHandlers := []application.WebhookHandler{
		webhook_handlers.NewProductHandler(productSync, logger),
		webhook_handlers.NewCollectionHandler(contentSync, logger),
		webhook_handlers.NewArticleHandler(contentSync, logger),
		webhook_handlers.NewAppUninstalledHandler(shopRepo, gatewayPool, logger),
	}
	webhookService := application.NewWebhookService(
		webhookRepo, encryptionService, retryQueue, webhookHandlers, syncMetrics, logger)
	webhookVerifier := shopifyinfra.NewWebhookVerifier(webhookSecret)

	retryService := application.NewWebhookRetryService(retryQueue, webhookService, logger)
	go retryService.Run(ctx)

	// Scheduled full-catalog sync across all connected shops
	syncInterval := 24 * time.Hour
	if raw := os.Getenv("BACKGROUND_SYNC_INTERVAL"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			logger.Fatal().Err(err).Str("value", raw).Msg("Invalid BACKGROUND_SYNC_INTERVAL")
		}
		syncInterval = parsed
	}
	scheduler := application.NewSyncScheduler(shopRepo, productSync, contentSync, backgroundSync, syncInterval, logger)
	go scheduler.Run(ctx)

	// Progress pub/sub for the SSE stream
	progressPubSub := pubsub.NewProgressPubSub(logger)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	// Health check - must be public for monitoring
	r.Get("/health", healthHandler(client, redisClient))
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	// Webhook endpoint
	r.Post("/webhooks/shopify", webhookHandler(webhookService, webhookVerifier, logger))

	// Manual sync trigger surface
	api := newSyncAPI(productSync, contentSync, backgroundSync, translationService, shopRepo, progressPubSub, logger)
	r.Route("/sync", func(r chi.Router) {
		r.Post("/products", api.syncAllProducts)
		r.Post("/products/reconcile", api.reconcileProducts)
		r.Post("/products/{id}", api.syncProduct)
		r.Post("/collections", api.syncAllCollections)
		r.Post("/collections/reconcile", api.reconcileCollections)
		r.Post("/collections/{id}", api.syncCollection)
		r.Post("/articles", api.syncAllArticles)
		r.Post("/articles/reconcile", api.reconcileArticles)
		r.Post("/articles/{id}", api.syncArticle)
		r.Post("/menus", api.syncAllMenus)
		r.Post("/menus/reconcile", api.reconcileMenus)
		r.Post("/menus/{id}", api.syncMenu)
		r.Post("/pages", api.syncAllPages)
		r.Post("/pages/{id}", api.syncPage)
		r.Post("/policies", api.syncAllPolicies)
		r.Post("/policies/{id}", api.syncPolicy)
		r.Post("/themes", api.syncAllThemes)
		r.Post("/themes/groups/{groupID}", api.syncThemeGroup)
		r.Get("/progress", api.streamProgress)
	})
	r.Put("/translations/{resourceID}", api.updateTranslations)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	logger.Info().Str("port", port).Msg("Starting content sync server")
	if err := http.ListenAndServe(":"+port, r); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start server")
	}
}
