package domain

import "time"

// ResourceType identifies a sync family. It doubles as the resource_type
// discriminator on translation rows.
type ResourceType string

const (
	ResourceTypeProduct    ResourceType = "product"
	ResourceTypeCollection ResourceType = "collection"
	ResourceTypeArticle    ResourceType = "article"
	ResourceTypeMenu       ResourceType = "menu"
	ResourceTypePage       ResourceType = "page"
	ResourceTypePolicy     ResourceType = "policy"
	ResourceTypeTheme      ResourceType = "theme"
)

// Content is the locally cached snapshot of one non-product content resource
// (collection, article, menu, page or policy) in the shop's primary locale.
type Content struct {
	Shop             string       `json:"shop" bson:"shop"`
	ID               string       `json:"id" bson:"id"` // upstream gid
	Type             ResourceType `json:"type" bson:"type"`
	Title            string       `json:"title" bson:"title"`
	BodyHTML         string       `json:"body_html" bson:"body_html"`
	Handle           string       `json:"handle" bson:"handle"`
	SEOTitle         string       `json:"seo_title" bson:"seo_title"`
	SEODescription   string       `json:"seo_description" bson:"seo_description"`
	MenuItems        []MenuItem   `json:"menu_items,omitempty" bson:"menu_items,omitempty"`
	ShopifyUpdatedAt time.Time    `json:"shopify_updated_at" bson:"shopify_updated_at"`
	LastSyncedAt     time.Time    `json:"last_synced_at" bson:"last_synced_at"`
}

// MenuItem is one node of a menu's nested item tree, stored verbatim. The
// upstream API does not expose translations for menus.
type MenuItem struct {
	ID    string     `json:"id" bson:"id"`
	Title string     `json:"title" bson:"title"`
	Type  string     `json:"type" bson:"type"`
	URL   string     `json:"url" bson:"url"`
	Items []MenuItem `json:"items,omitempty" bson:"items,omitempty"`
}
