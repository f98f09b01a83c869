package entity

import (
	"time"

	"polyglot-shopify-sync/internal/domain"
)

// MongoShopDoc represents a connected shop in MongoDB
type MongoShopDoc struct {
	Domain        string    `bson:"domain"`
	AccessToken   string    `bson:"accessToken"` // encrypted
	PrimaryLocale string    `bson:"primaryLocale"`
	Plan          string    `bson:"plan"`
	CreatedAt     time.Time `bson:"createdAt"`
	UpdatedAt     time.Time `bson:"updatedAt"`
}

// ToDomain converts the MongoDB document to a domain entity
func (d *MongoShopDoc) ToDomain() *domain.Shop {
	return &domain.Shop{
		Domain:        d.Domain,
		AccessToken:   d.AccessToken,
		PrimaryLocale: d.PrimaryLocale,
		Plan:          domain.Plan(d.Plan),
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

// MongoShopDocFromDomain converts a domain entity to a MongoDB document
func MongoShopDocFromDomain(shop *domain.Shop) *MongoShopDoc {
	return &MongoShopDoc{
		Domain:        shop.Domain,
		AccessToken:   shop.AccessToken,
		PrimaryLocale: shop.PrimaryLocale,
		Plan:          string(shop.Plan),
		CreatedAt:     shop.CreatedAt,
		UpdatedAt:     shop.UpdatedAt,
	}
}
