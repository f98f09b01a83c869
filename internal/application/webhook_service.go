package application

import (
	"context"
	"fmt"
	"time"

	"polyglot-shopify-sync/internal/domain"
	"polyglot-shopify-sync/internal/infrastructure/metrics"
	"polyglot-shopify-sync/internal/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// maxWebhookAttempts bounds retries of a failed webhook delivery.
const maxWebhookAttempts = 5

// WebhookHandler processes webhook events of the topics it declares
type WebhookHandler interface {
	CanHandle(topic string) bool
	Handle(ctx context.Context, event *domain.WebhookEvent) error
}

// WebhookService owns the durable webhook pipeline: the raw payload is
// encrypted and logged before any processing, processing happens after the
// HTTP ack, and failed deliveries are scheduled for bounded retry.
type WebhookService struct {
	store      ports.WebhookStore
	encryption ports.EncryptionService
	retries    ports.RetryQueue
	handlers   []WebhookHandler
	metrics    *metrics.Metrics
	logger     zerolog.Logger
}

// NewWebhookService creates a new webhook service
func NewWebhookService(
	store ports.WebhookStore,
	encryption ports.EncryptionService,
	retries ports.RetryQueue,
	handlers []WebhookHandler,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *WebhookService {
	return &WebhookService{
		store:      store,
		encryption: encryption,
		retries:    retries,
		handlers:   handlers,
		metrics:    m,
		logger:     logger,
	}
}

// Ingest persists the delivery with its payload encrypted. Must be called
// before the HTTP response is written; signature verification happens at the
// HTTP boundary before this point.
func (s *WebhookService) Ingest(ctx context.Context, shop, topic string, body []byte) (*domain.WebhookEvent, error) {
	encrypted, err := s.encryption.Encrypt(string(body))
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt webhook payload: %w", err)
	}

	log := &domain.WebhookLog{
		ID:        uuid.New().String(),
		Topic:     topic,
		Shop:      shop,
		Payload:   encrypted,
		CreatedAt: time.Now(),
	}
	if err := s.store.InsertLog(ctx, log); err != nil {
		return nil, fmt.Errorf("failed to persist webhook log: %w", err)
	}

	if s.metrics != nil {
		s.metrics.WebhooksReceived.WithLabelValues(topic, "accepted").Inc()
	}
	return &domain.WebhookEvent{
		LogID:   log.ID,
		Topic:   topic,
		Shop:    shop,
		Payload: body,
	}, nil
}

// Process dispatches the event to the first matching handler and records the
// outcome on the log row. A failure schedules a retry unless the attempt
// budget is spent.
func (s *WebhookService) Process(ctx context.Context, event *domain.WebhookEvent) {
	err := s.dispatch(ctx, event)

	errMsg := ""
	outcome := "processed"
	if err != nil {
		errMsg = err.Error()
		outcome = "failed"
		s.logger.Error().
			Err(err).
			Str("topic", event.Topic).
			Str("shop", event.Shop).
			Str("logId", event.LogID).
			Msg("Webhook processing failed")
	}
	if s.metrics != nil {
		s.metrics.WebhooksReceived.WithLabelValues(event.Topic, outcome).Inc()
	}

	if markErr := s.store.MarkProcessed(ctx, event.LogID, errMsg); markErr != nil {
		s.logger.Error().
			Err(markErr).
			Str("logId", event.LogID).
			Msg("Failed to record webhook outcome")
	}

	if err != nil {
		s.scheduleRetry(ctx, event.LogID)
	}
}

// Replay reprocesses a previously logged delivery, decrypting the stored
// payload. Used by the retry loop.
func (s *WebhookService) Replay(ctx context.Context, logID string) error {
	log, err := s.store.GetLog(ctx, logID)
	if err != nil {
		return err
	}
	if log == nil {
		return fmt.Errorf("webhook log %s not found", logID)
	}
	if log.Processed && log.Error == "" {
		return nil
	}
	if log.Attempts >= maxWebhookAttempts {
		s.logger.Warn().
			Str("logId", logID).
			Str("topic", log.Topic).
			Int("attempts", log.Attempts).
			Msg("Webhook retry budget exhausted, giving up")
		return nil
	}

	payload, err := s.encryption.Decrypt(log.Payload)
	if err != nil {
		return fmt.Errorf("failed to decrypt webhook payload: %w", err)
	}

	s.Process(ctx, &domain.WebhookEvent{
		LogID:   log.ID,
		Topic:   log.Topic,
		Shop:    log.Shop,
		Payload: []byte(payload),
	})
	return nil
}

func (s *WebhookService) dispatch(ctx context.Context, event *domain.WebhookEvent) error {
	for _, handler := range s.handlers {
		if handler.CanHandle(event.Topic) {
			return handler.Handle(ctx, event)
		}
	}
	s.logger.Debug().
		Str("topic", event.Topic).
		Str("shop", event.Shop).
		Msg("No handler registered for webhook topic, ignoring")
	return nil
}

func (s *WebhookService) scheduleRetry(ctx context.Context, logID string) {
	log, err := s.store.GetLog(ctx, logID)
	if err != nil || log == nil {
		s.logger.Error().Err(err).Str("logId", logID).Msg("Failed to load webhook log for retry scheduling")
		return
	}
	if log.Attempts >= maxWebhookAttempts {
		s.logger.Warn().
			Str("logId", logID).
			Int("attempts", log.Attempts).
			Msg("Webhook retry budget exhausted, not rescheduling")
		return
	}
	if err := s.retries.Schedule(ctx, logID, log.Attempts); err != nil {
		s.logger.Error().Err(err).Str("logId", logID).Msg("Failed to schedule webhook retry")
	}
}
