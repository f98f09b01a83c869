package application

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"polyglot-shopify-sync/internal/ports"
)

// retryPollInterval is how often the retry loop checks for due deliveries.
const retryPollInterval = 15 * time.Second

// WebhookRetryService drains the retry queue, replaying failed webhook
// deliveries until they succeed or exhaust their attempt budget.
type WebhookRetryService struct {
	queue    ports.RetryQueue
	webhooks *WebhookService
	logger   zerolog.Logger
}

// NewWebhookRetryService creates a new webhook retry service
func NewWebhookRetryService(queue ports.RetryQueue, webhooks *WebhookService, logger zerolog.Logger) *WebhookRetryService {
	return &WebhookRetryService{
		queue:    queue,
		webhooks: webhooks,
		logger:   logger,
	}
}

// Run polls for due retries until the context is cancelled
func (s *WebhookRetryService) Run(ctx context.Context) {
	ticker := time.NewTicker(retryPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.drainDue(ctx)
		}
	}
}

func (s *WebhookRetryService) drainDue(ctx context.Context) {
	due, err := s.queue.Due(ctx, time.Now())
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to read webhook retry queue")
		return
	}

	for _, logID := range due {
		if err := s.webhooks.Replay(ctx, logID); err != nil {
			s.logger.Error().
				Err(err).
				Str("logId", logID).
				Msg("Webhook replay failed")
		}
	}
}
