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

// MongoThemeRepository implements ThemeStore using MongoDB
type MongoThemeRepository struct {
	contents     *mongo.Collection
	translations *mongo.Collection
}

// NewMongoThemeRepository creates a new MongoDB theme repository
func NewMongoThemeRepository(db *mongo.Database) ports.ThemeStore {
	return &MongoThemeRepository{
		contents:     db.Collection("theme_contents"),
		translations: db.Collection("theme_translations"),
	}
}

// UpsertThemeContent saves or updates a theme group by (shop, resource, group)
func (r *MongoThemeRepository) UpsertThemeContent(ctx context.Context, content *domain.ThemeContent) error {
	opts := options.Update().SetUpsert(true)
	filter := bson.M{"shop": content.Shop, "resource_id": content.ResourceID, "group_id": content.GroupID}
	update := bson.M{"$set": content}

	_, err := r.contents.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return fmt.Errorf("failed to upsert theme content: %w", err)
	}
	return nil
}

// GetThemeContent retrieves one theme group
func (r *MongoThemeRepository) GetThemeContent(ctx context.Context, shop, resourceID, groupID string) (*domain.ThemeContent, error) {
	var content domain.ThemeContent
	filter := bson.M{"shop": shop, "resource_id": resourceID, "group_id": groupID}

	err := r.contents.FindOne(ctx, filter).Decode(&content)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get theme content: %w", err)
	}
	return &content, nil
}

// ListThemeContentsByGroup returns every row of one group across resources
func (r *MongoThemeRepository) ListThemeContentsByGroup(ctx context.Context, shop, groupID string) ([]*domain.ThemeContent, error) {
	filter := bson.M{"shop": shop, "group_id": groupID}
	cursor, err := r.contents.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list theme contents: %w", err)
	}
	defer cursor.Close(ctx)

	var contents []*domain.ThemeContent
	for cursor.Next(ctx) {
		var content domain.ThemeContent
		if err := cursor.Decode(&content); err != nil {
			return nil, fmt.Errorf("failed to decode theme content: %w", err)
		}
		contents = append(contents, &content)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return contents, nil
}

// DeleteThemeContentsNotIn removes theme groups absent from touched and
// returns the removed keys
func (r *MongoThemeRepository) DeleteThemeContentsNotIn(ctx context.Context, shop string, touched []domain.ThemeGroupKey) ([]domain.ThemeGroupKey, error) {
	stale, err := r.listStaleKeys(ctx, shop, touched)
	if err != nil {
		return nil, err
	}
	if len(stale) == 0 {
		return nil, nil
	}

	if _, err := r.contents.DeleteMany(ctx, keysFilter(shop, stale)); err != nil {
		return nil, fmt.Errorf("failed to delete stale theme contents: %w", err)
	}
	return stale, nil
}

// ReplaceThemeTranslations replaces one theme group's rows for the given
// locales. Rows of other locales stay untouched, so a locale whose fetch
// failed keeps its cached rows.
func (r *MongoThemeRepository) ReplaceThemeTranslations(ctx context.Context, shop, resourceID, groupID string, locales []string, rows []domain.ThemeTranslation) error {
	if len(locales) > 0 {
		filter := bson.M{
			"shop":        shop,
			"resource_id": resourceID,
			"group_id":    groupID,
			"locale":      bson.M{"$in": locales},
		}
		if _, err := r.translations.DeleteMany(ctx, filter); err != nil {
			return fmt.Errorf("failed to clear theme translations: %w", err)
		}
	}

	if len(rows) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(rows))
	for i := range rows {
		docs = append(docs, rows[i])
	}
	if _, err := r.translations.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to insert theme translations: %w", err)
	}
	return nil
}

// ListThemeTranslations returns all cached translations of one theme group
func (r *MongoThemeRepository) ListThemeTranslations(ctx context.Context, shop, resourceID, groupID string) ([]domain.ThemeTranslation, error) {
	filter := bson.M{"shop": shop, "resource_id": resourceID, "group_id": groupID}
	cursor, err := r.translations.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list theme translations: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []domain.ThemeTranslation
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode theme translations: %w", err)
	}
	return rows, nil
}

// DeleteThemeTranslations removes all translations of the given theme groups
func (r *MongoThemeRepository) DeleteThemeTranslations(ctx context.Context, shop string, keys []domain.ThemeGroupKey) error {
	if len(keys) == 0 {
		return nil
	}
	if _, err := r.translations.DeleteMany(ctx, keysFilter(shop, keys)); err != nil {
		return fmt.Errorf("failed to delete theme translations: %w", err)
	}
	return nil
}

// listStaleKeys collects the (resource, group) keys of every theme content
// row not present in touched
func (r *MongoThemeRepository) listStaleKeys(ctx context.Context, shop string, touched []domain.ThemeGroupKey) ([]domain.ThemeGroupKey, error) {
	seen := make(map[domain.ThemeGroupKey]bool, len(touched))
	for _, k := range touched {
		seen[k] = true
	}

	opts := options.Find().SetProjection(bson.M{"resource_id": 1, "group_id": 1})
	cursor, err := r.contents.Find(ctx, bson.M{"shop": shop}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list theme content keys: %w", err)
	}
	defer cursor.Close(ctx)

	var stale []domain.ThemeGroupKey
	for cursor.Next(ctx) {
		var doc struct {
			ResourceID string `bson:"resource_id"`
			GroupID    string `bson:"group_id"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode theme content key: %w", err)
		}
		key := domain.ThemeGroupKey{ResourceID: doc.ResourceID, GroupID: doc.GroupID}
		if !seen[key] {
			stale = append(stale, key)
		}
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return stale, nil
}

func keysFilter(shop string, keys []domain.ThemeGroupKey) bson.M {
	ors := make([]bson.M, 0, len(keys))
	for _, k := range keys {
		ors = append(ors, bson.M{"resource_id": k.ResourceID, "group_id": k.GroupID})
	}
	return bson.M{"shop": shop, "$or": ors}
}
