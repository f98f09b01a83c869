package domain

import "time"

// AltTextPreservationWindow is how long a human edit to image alt text is
// protected from being overwritten by a sync.
const AltTextPreservationWindow = 5 * time.Minute

// Product is the locally cached snapshot of one upstream product in the shop's
// primary locale. Owned exclusively by the sync services.
type Product struct {
	Shop             string             `json:"shop" bson:"shop"`
	ID               string             `json:"id" bson:"id"` // upstream gid
	Title            string             `json:"title" bson:"title"`
	DescriptionHTML  string             `json:"description_html" bson:"description_html"`
	Handle           string             `json:"handle" bson:"handle"`
	SEOTitle         string             `json:"seo_title" bson:"seo_title"`
	SEODescription   string             `json:"seo_description" bson:"seo_description"`
	Status           string             `json:"status" bson:"status"`
	Images           []ProductImage     `json:"images" bson:"images"`
	Options          []ProductOption    `json:"options" bson:"options"`
	Metafields       []ProductMetafield `json:"metafields" bson:"metafields"`
	ShopifyUpdatedAt time.Time          `json:"shopify_updated_at" bson:"shopify_updated_at"`
	LastSyncedAt     time.Time          `json:"last_synced_at" bson:"last_synced_at"`
}

// ProductImage is an ordered child of a product. AltTextModifiedAt is set when
// a human edits the alt text; syncs inside the preservation window must keep
// the local value.
type ProductImage struct {
	MediaID           string     `json:"media_id" bson:"media_id"`
	URL               string     `json:"url" bson:"url"`
	AltText           string     `json:"alt_text" bson:"alt_text"`
	Position          int        `json:"position" bson:"position"`
	AltTextModifiedAt *time.Time `json:"alt_text_modified_at,omitempty" bson:"alt_text_modified_at,omitempty"`
}

// ProductOption is fully replaced on every sync.
type ProductOption struct {
	Name     string   `json:"name" bson:"name"`
	Values   []string `json:"values" bson:"values"`
	Position int      `json:"position" bson:"position"`
}

// ProductMetafield is fully replaced on every sync.
type ProductMetafield struct {
	Namespace string `json:"namespace" bson:"namespace"`
	Key       string `json:"key" bson:"key"`
	Value     string `json:"value" bson:"value"`
	Type      string `json:"type" bson:"type"`
}

// ImageAltTranslation is a per-locale alt text override for one product image,
// sourced only from genuine upstream translations.
type ImageAltTranslation struct {
	Shop      string `json:"shop" bson:"shop"`
	ProductID string `json:"product_id" bson:"product_id"`
	MediaID   string `json:"media_id" bson:"media_id"`
	Locale    string `json:"locale" bson:"locale"`
	Value     string `json:"value" bson:"value"`
}

// FeaturedImage returns the first image by position, or nil.
func (p *Product) FeaturedImage() *ProductImage {
	if len(p.Images) == 0 {
		return nil
	}
	featured := &p.Images[0]
	for i := range p.Images {
		if p.Images[i].Position < featured.Position {
			featured = &p.Images[i]
		}
	}
	return featured
}
