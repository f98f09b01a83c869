package application

import (
	"regexp"
	"strings"
)

// ThemeGroup is the classification result for one theme translatable key.
type ThemeGroup struct {
	ID   string
	Name string
	Icon string
}

// classificationRule maps keys matching a pattern to one group. When subgroup
// is set, the first capture group refines the group identity.
type classificationRule struct {
	pattern  *regexp.Regexp
	id       string
	name     string
	icon     string
	subgroup bool
}

// ThemeClassifier assigns theme translatable keys to named groups. Rules are
// tried in order; keys matching none fall back to a prefix-derived group so
// nothing is ever dropped.
type ThemeClassifier struct {
	rules []classificationRule
}

// NewThemeClassifier creates a classifier with the default rule set
func NewThemeClassifier() *ThemeClassifier {
	return &ThemeClassifier{
		rules: []classificationRule{
			{pattern: regexp.MustCompile(`^sections?\.page\.([a-z0-9_-]+)\.`), id: "page", name: "Page", icon: "page", subgroup: true},
			{pattern: regexp.MustCompile(`^sections?\.product`), id: "product", name: "Product", icon: "product"},
			{pattern: regexp.MustCompile(`^sections?\.collection`), id: "collection", name: "Collection", icon: "collection"},
			{pattern: regexp.MustCompile(`^sections?\.blog|^sections?\.article`), id: "blog", name: "Blog", icon: "blog"},
			{pattern: regexp.MustCompile(`^sections?\.cart|^cart\.`), id: "cart", name: "Cart", icon: "cart"},
			{pattern: regexp.MustCompile(`^sections?\.footer`), id: "footer", name: "Footer", icon: "layout"},
			{pattern: regexp.MustCompile(`^sections?\.header|^sections?\.announcement`), id: "header", name: "Header", icon: "layout"},
			{pattern: regexp.MustCompile(`^sections?\.`), id: "sections", name: "Sections", icon: "layout"},
			{pattern: regexp.MustCompile(`^general\.`), id: "general", name: "General", icon: "settings"},
			{pattern: regexp.MustCompile(`^customer\.|^customers?\.`), id: "customer", name: "Customer", icon: "customer"},
			{pattern: regexp.MustCompile(`^products?\.`), id: "product", name: "Product", icon: "product"},
			{pattern: regexp.MustCompile(`^collections?\.`), id: "collection", name: "Collection", icon: "collection"},
			{pattern: regexp.MustCompile(`^blogs?\.|^articles?\.`), id: "blog", name: "Blog", icon: "blog"},
			{pattern: regexp.MustCompile(`^checkout\.`), id: "checkout", name: "Checkout", icon: "cart"},
			{pattern: regexp.MustCompile(`^templates?\.`), id: "templates", name: "Templates", icon: "template"},
		},
	}
}

// Classify assigns one key to its group
func (c *ThemeClassifier) Classify(key string) ThemeGroup {
	for _, rule := range c.rules {
		m := rule.pattern.FindStringSubmatch(key)
		if m == nil {
			continue
		}
		group := ThemeGroup{ID: rule.id, Name: rule.name, Icon: rule.icon}
		if rule.subgroup && len(m) > 1 && m[1] != "" {
			group.ID = rule.id + "-" + m[1]
			group.Name = rule.name + ": " + titleCase(m[1])
		}
		return group
	}
	return c.fallback(key)
}

// fallback derives an ad-hoc group from the key's first path segment
func (c *ThemeClassifier) fallback(key string) ThemeGroup {
	prefix := key
	if i := strings.IndexAny(key, "._"); i > 0 {
		prefix = key[:i]
	}
	if prefix == "" {
		prefix = "other"
	}
	return ThemeGroup{
		ID:   strings.ToLower(prefix),
		Name: titleCase(prefix),
		Icon: "folder",
	}
}

func titleCase(s string) string {
	s = strings.NewReplacer("-", " ", "_", " ").Replace(s)
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
