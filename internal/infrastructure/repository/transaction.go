package repository

import (
	"context"
	"fmt"

	"polyglot-shopify-sync/internal/ports"

	"go.mongodb.org/mongo-driver/mongo"
)

// MongoTransactionManager implements TransactionManager over MongoDB
// sessions. Store calls made with the callback context join the transaction;
// any returned error aborts it, so partial writes are never observable.
type MongoTransactionManager struct {
	client *mongo.Client
}

// NewMongoTransactionManager creates a transaction manager for the client.
func NewMongoTransactionManager(client *mongo.Client) ports.TransactionManager {
	return &MongoTransactionManager{client: client}
}

// WithTransaction runs fn inside one session transaction.
func (m *MongoTransactionManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := m.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	if err != nil {
		return fmt.Errorf("transaction failed: %w", err)
	}
	return nil
}
