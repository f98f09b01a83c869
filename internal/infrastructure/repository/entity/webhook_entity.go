package entity

import (
	"time"

	"polyglot-shopify-sync/internal/domain"
)

// MongoWebhookLogDoc represents one webhook delivery in MongoDB
type MongoWebhookLogDoc struct {
	ID          string     `bson:"_id"`
	Topic       string     `bson:"topic"`
	Shop        string     `bson:"shop"`
	Payload     string     `bson:"payload"` // encrypted raw body
	Processed   bool       `bson:"processed"`
	Error       string     `bson:"error,omitempty"`
	Attempts    int        `bson:"attempts"`
	CreatedAt   time.Time  `bson:"createdAt"`
	ProcessedAt *time.Time `bson:"processedAt,omitempty"`
}

// ToDomain converts the MongoDB document to a domain entity
func (d *MongoWebhookLogDoc) ToDomain() *domain.WebhookLog {
	return &domain.WebhookLog{
		ID:          d.ID,
		Topic:       d.Topic,
		Shop:        d.Shop,
		Payload:     d.Payload,
		Processed:   d.Processed,
		Error:       d.Error,
		Attempts:    d.Attempts,
		CreatedAt:   d.CreatedAt,
		ProcessedAt: d.ProcessedAt,
	}
}

// MongoWebhookLogDocFromDomain converts a domain entity to a MongoDB document
func MongoWebhookLogDocFromDomain(log *domain.WebhookLog) *MongoWebhookLogDoc {
	return &MongoWebhookLogDoc{
		ID:          log.ID,
		Topic:       log.Topic,
		Shop:        log.Shop,
		Payload:     log.Payload,
		Processed:   log.Processed,
		Error:       log.Error,
		Attempts:    log.Attempts,
		CreatedAt:   log.CreatedAt,
		ProcessedAt: log.ProcessedAt,
	}
}
