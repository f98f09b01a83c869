package domain

import "time"

// Shop represents a connected Shopify store
type Shop struct {
	Domain        string    `json:"domain" bson:"domain"`
	AccessToken   string    `json:"-" bson:"access_token"` // encrypted at rest
	PrimaryLocale string    `json:"primary_locale" bson:"primary_locale"`
	Plan          Plan      `json:"plan" bson:"plan"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" bson:"updated_at"`
}

// ShopLocale is one locale enabled on a shop, as reported by the upstream API
type ShopLocale struct {
	Locale    string `json:"locale" bson:"locale"`
	Primary   bool   `json:"primary" bson:"primary"`
	Published bool   `json:"published" bson:"published"`
}

// TranslatableLocales filters the shop's locales down to the ones translations
// can exist for: published and not the primary locale.
func TranslatableLocales(locales []ShopLocale) []string {
	var out []string
	for _, l := range locales {
		if l.Published && !l.Primary {
			out = append(out, l.Locale)
		}
	}
	return out
}
