package repository

import (
	"context"
	"fmt"

	"polyglot-shopify-sync/internal/domain"
	"polyglot-shopify-sync/internal/ports"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoTranslationRepository implements TranslationStore using MongoDB
type MongoTranslationRepository struct {
	translations *mongo.Collection
}

// NewMongoTranslationRepository creates a new MongoDB translation repository
func NewMongoTranslationRepository(db *mongo.Database) ports.TranslationStore {
	return &MongoTranslationRepository{
		translations: db.Collection("content_translations"),
	}
}

// UpsertTranslations saves or updates translation rows one by one, keyed by
// (shop, resource, key, locale)
func (r *MongoTranslationRepository) UpsertTranslations(ctx context.Context, rows []domain.Translation) error {
	if len(rows) == 0 {
		return nil
	}

	models := make([]mongo.WriteModel, 0, len(rows))
	for i := range rows {
		filter := bson.M{
			"shop":          rows[i].Shop,
			"resource_id":   rows[i].ResourceID,
			"resource_type": rows[i].ResourceType,
			"key":           rows[i].Key,
			"locale":        rows[i].Locale,
		}
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(filter).
			SetUpdate(bson.M{"$set": rows[i]}).
			SetUpsert(true))
	}

	opts := options.BulkWrite().SetOrdered(false)
	if _, err := r.translations.BulkWrite(ctx, models, opts); err != nil {
		return fmt.Errorf("failed to upsert translations: %w", err)
	}
	return nil
}

// ListTranslations returns all cached translations of one resource
func (r *MongoTranslationRepository) ListTranslations(ctx context.Context, shop, resourceID string, resourceType domain.ResourceType) ([]domain.Translation, error) {
	filter := bson.M{"shop": shop, "resource_id": resourceID, "resource_type": resourceType}
	cursor, err := r.translations.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list translations: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []domain.Translation
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode translations: %w", err)
	}
	return rows, nil
}

// DeleteForResource removes every translation row of one resource
func (r *MongoTranslationRepository) DeleteForResource(ctx context.Context, shop, resourceID string, resourceType domain.ResourceType) error {
	filter := bson.M{"shop": shop, "resource_id": resourceID, "resource_type": resourceType}
	if _, err := r.translations.DeleteMany(ctx, filter); err != nil {
		return fmt.Errorf("failed to delete resource translations: %w", err)
	}
	return nil
}

// DeleteStale removes translation rows of one resource whose (key, locale) is
// not in keep, restricted to the given locales. Rows of locales outside the
// set stay untouched, so a locale whose fetch failed keeps its cached rows.
func (r *MongoTranslationRepository) DeleteStale(ctx context.Context, shop, resourceID string, resourceType domain.ResourceType, locales []string, keep []domain.TranslationKey) error {
	if len(locales) == 0 {
		return nil
	}

	filter := bson.M{
		"shop":          shop,
		"resource_id":   resourceID,
		"resource_type": resourceType,
		"locale":        bson.M{"$in": locales},
	}
	if len(keep) > 0 {
		kept := make([]bson.M, 0, len(keep))
		for _, k := range keep {
			kept = append(kept, bson.M{"key": k.Key, "locale": k.Locale})
		}
		filter["$nor"] = kept
	}
	if _, err := r.translations.DeleteMany(ctx, filter); err != nil {
		return fmt.Errorf("failed to delete stale translations: %w", err)
	}
	return nil
}
