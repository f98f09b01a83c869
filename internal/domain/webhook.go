package domain

import "time"

// WebhookLog is the durable record of one inbound webhook delivery. The raw
// payload is encrypted before persistence and the row is written before any
// processing begins.
type WebhookLog struct {
	ID          string     `json:"id" bson:"_id"`
	Topic       string     `json:"topic" bson:"topic"`
	Shop        string     `json:"shop" bson:"shop"`
	Payload     string     `json:"-" bson:"payload"` // encrypted raw body
	Processed   bool       `json:"processed" bson:"processed"`
	Error       string     `json:"error,omitempty" bson:"error,omitempty"`
	Attempts    int        `json:"attempts" bson:"attempts"`
	CreatedAt   time.Time  `json:"created_at" bson:"created_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty" bson:"processed_at,omitempty"`
}

// WebhookEvent is a decoded webhook delivery handed to topic handlers.
type WebhookEvent struct {
	LogID   string
	Topic   string
	Shop    string
	Payload []byte
}
