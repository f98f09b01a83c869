package domain

import "time"

// ThemeContent is one classified bundle of translatable theme keys for a
// single upstream theme resource, tagged with a human-readable group.
type ThemeContent struct {
	Shop         string       `json:"shop" bson:"shop"`
	ResourceID   string       `json:"resource_id" bson:"resource_id"`
	GroupID      string       `json:"group_id" bson:"group_id"`
	Name         string       `json:"name" bson:"name"`
	Icon         string       `json:"icon" bson:"icon"`
	Entries      []ThemeEntry `json:"entries" bson:"entries"`
	LastSyncedAt time.Time    `json:"last_synced_at" bson:"last_synced_at"`
}

// ThemeEntry is one translatable key/value pair extracted from theme JSON,
// with the digest of the source text.
type ThemeEntry struct {
	Key    string `json:"key" bson:"key"`
	Value  string `json:"value" bson:"value"`
	Digest string `json:"digest,omitempty" bson:"digest,omitempty"`
}

// ThemeTranslation is one `(resource, group, key, locale) -> value` mapping
// scoped to a theme group.
type ThemeTranslation struct {
	Shop       string `json:"shop" bson:"shop"`
	ResourceID string `json:"resource_id" bson:"resource_id"`
	GroupID    string `json:"group_id" bson:"group_id"`
	Key        string `json:"key" bson:"key"`
	Locale     string `json:"locale" bson:"locale"`
	Value      string `json:"value" bson:"value"`
}

// ThemeGroupKey identifies one ThemeContent row within a shop.
type ThemeGroupKey struct {
	ResourceID string
	GroupID    string
}

// ThemeResource is one upstream translatable theme resource: its id plus the
// source-language content declared translatable.
type ThemeResource struct {
	ID       string
	Contents []SourceContent
}

// ThemeResourceTypes is the fixed set of upstream translatable resource types
// a full theme sync walks through.
var ThemeResourceTypes = []string{
	"ONLINE_STORE_THEME",
	"ONLINE_STORE_THEME_JSON_TEMPLATE",
	"ONLINE_STORE_THEME_LOCALE_CONTENT",
	"ONLINE_STORE_THEME_SECTION_GROUP",
	"ONLINE_STORE_THEME_SETTINGS_CATEGORY",
}
