package application

import (
	"context"
	"fmt"

	"polyglot-shopify-sync/internal/domain"
	"polyglot-shopify-sync/internal/ports"

	"github.com/rs/zerolog"
)

// TranslationService writes merchant-edited translations back upstream and
// mirrors them into the local cache.
type TranslationService struct {
	fetcher      ports.TranslationFetcher
	tx           ports.TransactionManager
	translations ports.TranslationStore
	logger       zerolog.Logger
}

// NewTranslationService creates a new translation service
func NewTranslationService(
	fetcher ports.TranslationFetcher,
	tx ports.TransactionManager,
	translations ports.TranslationStore,
	logger zerolog.Logger,
) *TranslationService {
	return &TranslationService{
		fetcher:      fetcher,
		tx:           tx,
		translations: translations,
		logger:       logger,
	}
}

// UpdateTranslations registers the rows upstream first, then caches them
// locally. The upstream mutation fails loud on userErrors, so a local write
// only happens for translations the platform accepted.
func (s *TranslationService) UpdateTranslations(ctx context.Context, shop, resourceID string, rows []domain.Translation) error {
	if len(rows) == 0 {
		return nil
	}

	if err := s.fetcher.RegisterTranslations(ctx, shop, resourceID, rows); err != nil {
		return fmt.Errorf("failed to register translations upstream: %w", err)
	}

	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		return s.translations.UpsertTranslations(ctx, rows)
	})
	if err != nil {
		return fmt.Errorf("failed to cache registered translations: %w", err)
	}

	s.logger.Info().
		Str("shop", shop).
		Str("resourceId", resourceID).
		Int("count", len(rows)).
		Msg("Registered translations upstream")
	return nil
}
