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

// MongoContentRepository implements ContentStore using MongoDB
type MongoContentRepository struct {
	contents *mongo.Collection
}

// NewMongoContentRepository creates a new MongoDB content repository
func NewMongoContentRepository(db *mongo.Database) ports.ContentStore {
	return &MongoContentRepository{
		contents: db.Collection("contents"),
	}
}

// UpsertContent saves or updates a content resource by (shop, id)
func (r *MongoContentRepository) UpsertContent(ctx context.Context, content *domain.Content) error {
	opts := options.Update().SetUpsert(true)
	filter := bson.M{"shop": content.Shop, "id": content.ID}
	update := bson.M{"$set": content}

	_, err := r.contents.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return fmt.Errorf("failed to upsert content: %w", err)
	}
	return nil
}

// GetContent retrieves a content resource by (shop, id)
func (r *MongoContentRepository) GetContent(ctx context.Context, shop, id string) (*domain.Content, error) {
	var content domain.Content
	filter := bson.M{"shop": shop, "id": id}

	err := r.contents.FindOne(ctx, filter).Decode(&content)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get content: %w", err)
	}
	return &content, nil
}

// DeleteContent removes a content row
func (r *MongoContentRepository) DeleteContent(ctx context.Context, shop, id string) error {
	filter := bson.M{"shop": shop, "id": id}
	_, err := r.contents.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to delete content: %w", err)
	}
	return nil
}

// ListContentIDs returns all cached ids of one resource family for a shop
func (r *MongoContentRepository) ListContentIDs(ctx context.Context, shop string, resourceType domain.ResourceType) ([]string, error) {
	return listIDs(ctx, r.contents, bson.M{"shop": shop, "type": resourceType})
}

// DeleteContentsNotIn removes family rows absent from keep and returns their ids
func (r *MongoContentRepository) DeleteContentsNotIn(ctx context.Context, shop string, resourceType domain.ResourceType, keep []string) ([]string, error) {
	filter := bson.M{"shop": shop, "type": resourceType, "id": bson.M{"$nin": keep}}

	stale, err := listIDs(ctx, r.contents, filter)
	if err != nil {
		return nil, err
	}
	if len(stale) == 0 {
		return nil, nil
	}

	if _, err := r.contents.DeleteMany(ctx, filter); err != nil {
		return nil, fmt.Errorf("failed to delete stale contents: %w", err)
	}
	return stale, nil
}
