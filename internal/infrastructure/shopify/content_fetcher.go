package shopify

import (
	"context"
	"fmt"

	"polyglot-shopify-sync/internal/domain"
	"polyglot-shopify-sync/internal/ports"

	"github.com/rs/zerolog"
)

// ContentFetcher fetches collections, articles, menus, pages and policies
// over the gateway.
type ContentFetcher struct {
	pool   ports.GatewayPool
	logger zerolog.Logger
}

// NewContentFetcher creates a content fetcher.
func NewContentFetcher(pool ports.GatewayPool, logger zerolog.Logger) *ContentFetcher {
	return &ContentFetcher{pool: pool, logger: logger}
}

func (f *ContentFetcher) FetchCollection(ctx context.Context, shop, id string) (*domain.Content, error) {
	gw, err := f.pool.ForShop(ctx, shop)
	if err != nil {
		return nil, err
	}
	var resp collectionResponse
	if err := gw.Request(ctx, collectionQuery, map[string]interface{}{"id": id}, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch collection: %w", err)
	}
	if resp.Collection == nil {
		return nil, domain.ErrNotFoundUpstream
	}
	c := contentFromNode(shop, domain.ResourceTypeCollection, resp.Collection)
	c.BodyHTML = resp.Collection.DescriptionHTML
	return c, nil
}

func (f *ContentFetcher) FetchArticle(ctx context.Context, shop, id string) (*domain.Content, error) {
	gw, err := f.pool.ForShop(ctx, shop)
	if err != nil {
		return nil, err
	}
	var resp articleResponse
	if err := gw.Request(ctx, articleQuery, map[string]interface{}{"id": id}, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch article: %w", err)
	}
	if resp.Article == nil {
		return nil, domain.ErrNotFoundUpstream
	}
	return contentFromNode(shop, domain.ResourceTypeArticle, resp.Article), nil
}

func (f *ContentFetcher) FetchPage(ctx context.Context, shop, id string) (*domain.Content, error) {
	gw, err := f.pool.ForShop(ctx, shop)
	if err != nil {
		return nil, err
	}
	var resp pageResponse
	if err := gw.Request(ctx, pageQuery, map[string]interface{}{"id": id}, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch page: %w", err)
	}
	if resp.Page == nil {
		return nil, domain.ErrNotFoundUpstream
	}
	return contentFromNode(shop, domain.ResourceTypePage, resp.Page), nil
}

func (f *ContentFetcher) FetchMenu(ctx context.Context, shop, id string) (*domain.Content, error) {
	gw, err := f.pool.ForShop(ctx, shop)
	if err != nil {
		return nil, err
	}
	var resp menuResponse
	if err := gw.Request(ctx, menuQuery, map[string]interface{}{"id": id}, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch menu: %w", err)
	}
	if resp.Menu == nil {
		return nil, domain.ErrNotFoundUpstream
	}
	return &domain.Content{
		Shop:      shop,
		ID:        resp.Menu.ID,
		Type:      domain.ResourceTypeMenu,
		Title:     resp.Menu.Title,
		Handle:    resp.Menu.Handle,
		MenuItems: menuItemsFromNodes(resp.Menu.Items),
	}, nil
}

// FetchPolicies returns every shop policy; the upstream API exposes them only
// as a single set under shop.shopPolicies.
func (f *ContentFetcher) FetchPolicies(ctx context.Context, shop string) ([]domain.Content, error) {
	gw, err := f.pool.ForShop(ctx, shop)
	if err != nil {
		return nil, err
	}
	var resp shopPoliciesResponse
	if err := gw.Request(ctx, shopPoliciesQuery, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch shop policies: %w", err)
	}
	policies := make([]domain.Content, 0, len(resp.Shop.ShopPolicies))
	for _, p := range resp.Shop.ShopPolicies {
		title := p.Title
		if title == "" {
			title = p.Type
		}
		policies = append(policies, domain.Content{
			Shop:     shop,
			ID:       p.ID,
			Type:     domain.ResourceTypePolicy,
			Title:    title,
			BodyHTML: p.Body,
			Handle:   p.URL,
		})
	}
	return policies, nil
}

func (f *ContentFetcher) FetchAllCollectionIDs(ctx context.Context, shop string) ([]string, error) {
	gw, err := f.pool.ForShop(ctx, shop)
	if err != nil {
		return nil, err
	}
	return fetchAllIDs(ctx, gw, collectionIDsQuery, func(resp *collectionIDsResponse) *idConnectionResponse {
		return &resp.Collections
	})
}

func (f *ContentFetcher) FetchAllArticleIDs(ctx context.Context, shop string) ([]string, error) {
	gw, err := f.pool.ForShop(ctx, shop)
	if err != nil {
		return nil, err
	}
	return fetchAllIDs(ctx, gw, articleIDsQuery, func(resp *articleIDsResponse) *idConnectionResponse {
		return &resp.Articles
	})
}

func (f *ContentFetcher) FetchAllMenuIDs(ctx context.Context, shop string) ([]string, error) {
	gw, err := f.pool.ForShop(ctx, shop)
	if err != nil {
		return nil, err
	}
	return fetchAllIDs(ctx, gw, menuIDsQuery, func(resp *menuIDsResponse) *idConnectionResponse {
		return &resp.Menus
	})
}

func (f *ContentFetcher) FetchAllPageIDs(ctx context.Context, shop string) ([]string, error) {
	gw, err := f.pool.ForShop(ctx, shop)
	if err != nil {
		return nil, err
	}
	return fetchAllIDs(ctx, gw, pageIDsQuery, func(resp *pageIDsResponse) *idConnectionResponse {
		return &resp.Pages
	})
}

// fetchAllIDs walks every page of an id listing; silent truncation at the
// first page would defeat the cleanup pass downstream.
func fetchAllIDs[R any](ctx context.Context, gw ports.Gateway, query string, conn func(*R) *idConnectionResponse) ([]string, error) {
	var ids []string
	cursor := ""
	for {
		vars := map[string]interface{}{"after": cursorOrNil(cursor)}
		var resp R
		if err := gw.Request(ctx, query, vars, &resp); err != nil {
			return nil, fmt.Errorf("failed to list ids: %w", err)
		}
		c := conn(&resp)
		for _, e := range c.Edges {
			ids = append(ids, e.Node.ID)
		}
		if !c.PageInfo.HasNextPage {
			return ids, nil
		}
		cursor = c.PageInfo.EndCursor
	}
}

func contentFromNode(shop string, resourceType domain.ResourceType, node *contentNode) *domain.Content {
	body := node.Body
	if body == "" {
		body = node.DescriptionHTML
	}
	return &domain.Content{
		Shop:             shop,
		ID:               node.ID,
		Type:             resourceType,
		Title:            node.Title,
		BodyHTML:         body,
		Handle:           node.Handle,
		SEOTitle:         node.SEO.Title,
		SEODescription:   node.SEO.Description,
		ShopifyUpdatedAt: node.UpdatedAt,
	}
}

func menuItemsFromNodes(nodes []menuItemNode) []domain.MenuItem {
	if len(nodes) == 0 {
		return nil
	}
	items := make([]domain.MenuItem, 0, len(nodes))
	for _, n := range nodes {
		items = append(items, domain.MenuItem{
			ID:    n.ID,
			Title: n.Title,
			Type:  n.Type,
			URL:   n.URL,
			Items: menuItemsFromNodes(n.Items),
		})
	}
	return items
}
