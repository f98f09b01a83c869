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

// MongoProductRepository implements ProductStore using MongoDB
type MongoProductRepository struct {
	products        *mongo.Collection
	altTranslations *mongo.Collection
}

// NewMongoProductRepository creates a new MongoDB product repository
func NewMongoProductRepository(db *mongo.Database) ports.ProductStore {
	return &MongoProductRepository{
		products:        db.Collection("products"),
		altTranslations: db.Collection("image_alt_translations"),
	}
}

// UpsertProduct saves or updates a product by (shop, id)
func (r *MongoProductRepository) UpsertProduct(ctx context.Context, product *domain.Product) error {
	opts := options.Update().SetUpsert(true)
	filter := bson.M{"shop": product.Shop, "id": product.ID}
	update := bson.M{"$set": product}

	_, err := r.products.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return fmt.Errorf("failed to upsert product: %w", err)
	}
	return nil
}

// GetProduct retrieves a product by (shop, id)
func (r *MongoProductRepository) GetProduct(ctx context.Context, shop, id string) (*domain.Product, error) {
	var product domain.Product
	filter := bson.M{"shop": shop, "id": id}

	err := r.products.FindOne(ctx, filter).Decode(&product)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &product, nil
}

// DeleteProduct removes a product row
func (r *MongoProductRepository) DeleteProduct(ctx context.Context, shop, id string) error {
	filter := bson.M{"shop": shop, "id": id}
	_, err := r.products.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return nil
}

// ListProductIDs returns all cached product ids for a shop
func (r *MongoProductRepository) ListProductIDs(ctx context.Context, shop string) ([]string, error) {
	return listIDs(ctx, r.products, bson.M{"shop": shop})
}

// DeleteProductsNotIn removes products absent from keep and returns their ids
func (r *MongoProductRepository) DeleteProductsNotIn(ctx context.Context, shop string, keep []string) ([]string, error) {
	filter := bson.M{"shop": shop, "id": bson.M{"$nin": keep}}

	stale, err := listIDs(ctx, r.products, filter)
	if err != nil {
		return nil, err
	}
	if len(stale) == 0 {
		return nil, nil
	}

	if _, err := r.products.DeleteMany(ctx, filter); err != nil {
		return nil, fmt.Errorf("failed to delete stale products: %w", err)
	}
	return stale, nil
}

// ReplaceImageAltTranslations reconciles one product's alt translation rows
// against its current media set: rows of removed media ids are deleted, rows
// of the given locales are replaced, rows of other locales stay untouched
func (r *MongoProductRepository) ReplaceImageAltTranslations(ctx context.Context, shop, productID string, mediaIDs []string, locales []string, rows []domain.ImageAltTranslation) error {
	stale := []bson.M{
		{"media_id": bson.M{"$nin": mediaIDs}},
	}
	if len(locales) > 0 {
		stale = append(stale, bson.M{"locale": bson.M{"$in": locales}})
	}
	filter := bson.M{"shop": shop, "product_id": productID, "$or": stale}
	if _, err := r.altTranslations.DeleteMany(ctx, filter); err != nil {
		return fmt.Errorf("failed to clear alt translations: %w", err)
	}

	if len(rows) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(rows))
	for i := range rows {
		docs = append(docs, rows[i])
	}
	if _, err := r.altTranslations.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to insert alt translations: %w", err)
	}
	return nil
}

// DeleteImageAltTranslations removes every alt translation row of the given
// products
func (r *MongoProductRepository) DeleteImageAltTranslations(ctx context.Context, shop string, productIDs []string) error {
	if len(productIDs) == 0 {
		return nil
	}
	filter := bson.M{"shop": shop, "product_id": bson.M{"$in": productIDs}}
	if _, err := r.altTranslations.DeleteMany(ctx, filter); err != nil {
		return fmt.Errorf("failed to delete alt translations: %w", err)
	}
	return nil
}

// ListImageAltTranslations returns alt translations for the given media ids
func (r *MongoProductRepository) ListImageAltTranslations(ctx context.Context, shop string, mediaIDs []string) ([]domain.ImageAltTranslation, error) {
	filter := bson.M{"shop": shop, "media_id": bson.M{"$in": mediaIDs}}
	cursor, err := r.altTranslations.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list alt translations: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []domain.ImageAltTranslation
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode alt translations: %w", err)
	}
	return rows, nil
}

// listIDs collects the "id" field of every document matching the filter
func listIDs(ctx context.Context, coll *mongo.Collection, filter bson.M) ([]string, error) {
	opts := options.Find().SetProjection(bson.M{"id": 1})
	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list ids: %w", err)
	}
	defer cursor.Close(ctx)

	var ids []string
	for cursor.Next(ctx) {
		var doc struct {
			ID string `bson:"id"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode id: %w", err)
		}
		ids = append(ids, doc.ID)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return ids, nil
}
