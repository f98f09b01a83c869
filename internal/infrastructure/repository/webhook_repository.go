package repository

import (
	"context"
	"fmt"
	"time"

	"polyglot-shopify-sync/internal/domain"
	"polyglot-shopify-sync/internal/infrastructure/repository/entity"
	"polyglot-shopify-sync/internal/ports"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoWebhookRepository implements WebhookStore using MongoDB
type MongoWebhookRepository struct {
	collection *mongo.Collection
}

// NewMongoWebhookRepository creates a new MongoDB webhook repository
func NewMongoWebhookRepository(db *mongo.Database) ports.WebhookStore {
	return &MongoWebhookRepository{
		collection: db.Collection("webhook_logs"),
	}
}

// InsertLog persists a new webhook delivery record
func (r *MongoWebhookRepository) InsertLog(ctx context.Context, log *domain.WebhookLog) error {
	doc := entity.MongoWebhookLogDocFromDomain(log)
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert webhook log: %w", err)
	}
	return nil
}

// GetLog retrieves a webhook delivery record by id
func (r *MongoWebhookRepository) GetLog(ctx context.Context, id string) (*domain.WebhookLog, error) {
	var doc entity.MongoWebhookLogDoc
	filter := bson.M{"_id": id}

	err := r.collection.FindOne(ctx, filter).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get webhook log: %w", err)
	}
	return doc.ToDomain(), nil
}

// MarkProcessed records the outcome of one processing attempt. The log is
// marked processed either way; a non-empty processingErr distinguishes a
// failed attempt from a never-processed delivery.
func (r *MongoWebhookRepository) MarkProcessed(ctx context.Context, id string, processingErr string) error {
	now := time.Now()
	update := bson.M{
		"$set": bson.M{
			"processed":   true,
			"error":       processingErr,
			"processedAt": now,
		},
		"$inc": bson.M{"attempts": 1},
	}

	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to mark webhook processed: %w", err)
	}
	return nil
}
