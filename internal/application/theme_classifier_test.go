package application

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyKnownPatterns(t *testing.T) {
	c := NewThemeClassifier()

	tests := []struct {
		key     string
		groupID string
		name    string
	}{
		{"section.product.title", "product", "Product"},
		{"sections.product.add_to_cart", "product", "Product"},
		{"sections.collection.header", "collection", "Collection"},
		{"sections.cart.checkout_label", "cart", "Cart"},
		{"cart.note_label", "cart", "Cart"},
		{"sections.footer.copyright", "footer", "Footer"},
		{"sections.header.menu_label", "header", "Header"},
		{"sections.announcement.text", "header", "Header"},
		{"sections.slideshow.caption", "sections", "Sections"},
		{"general.search.placeholder", "general", "General"},
		{"customer.login.title", "customer", "Customer"},
		{"products.product.sold_out", "product", "Product"},
		{"templates.404.title", "templates", "Templates"},
	}
	for _, tt := range tests {
		group := c.Classify(tt.key)
		assert.Equal(t, tt.groupID, group.ID, "key %q", tt.key)
		assert.Equal(t, tt.name, group.Name, "key %q", tt.key)
	}
}

func TestClassifyPageSubgroups(t *testing.T) {
	c := NewThemeClassifier()

	group := c.Classify("section.page.about-us.heading")
	assert.Equal(t, "page-about-us", group.ID)
	assert.Equal(t, "Page: About Us", group.Name)

	other := c.Classify("sections.page.contact.form_label")
	assert.Equal(t, "page-contact", other.ID)
	assert.Equal(t, "Page: Contact", other.Name)
}

func TestClassifyFallbackDerivesPrefixGroup(t *testing.T) {
	c := NewThemeClassifier()

	group := c.Classify("newsletter.confirmation_text")
	assert.Equal(t, "newsletter", group.ID)
	assert.Equal(t, "Newsletter", group.Name)
	assert.Equal(t, "folder", group.Icon)

	// Underscore counts as a word boundary when there is no dot prefix
	under := c.Classify("gift_card")
	assert.Equal(t, "gift", under.ID)

	// A bare key still gets a group
	bare := c.Classify("slogan")
	assert.Equal(t, "slogan", bare.ID)
	assert.Equal(t, "Slogan", bare.Name)
}

func TestClassifyNeverDropsKeys(t *testing.T) {
	c := NewThemeClassifier()
	for _, key := range []string{"", ".", "x", "weird..key", "___"} {
		group := c.Classify(key)
		assert.NotEmpty(t, group.ID, "key %q must classify somewhere", key)
	}
}
