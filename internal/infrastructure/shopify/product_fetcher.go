package shopify

import (
	"context"
	"fmt"

	"polyglot-shopify-sync/internal/domain"
	"polyglot-shopify-sync/internal/ports"

	"github.com/rs/zerolog"
)

// childPageCap bounds how many child pages (media, metafields) a single
// product fetch will follow.
const childPageCap = 10

// ProductFetcher fetches products over the gateway.
type ProductFetcher struct {
	pool   ports.GatewayPool
	logger zerolog.Logger
}

// NewProductFetcher creates a product fetcher.
func NewProductFetcher(pool ports.GatewayPool, logger zerolog.Logger) *ProductFetcher {
	return &ProductFetcher{pool: pool, logger: logger}
}

// FetchProduct fetches one product with its full media, option and metafield
// sets, following child pagination up to the page cap.
func (f *ProductFetcher) FetchProduct(ctx context.Context, shop, id string) (*domain.Product, error) {
	gw, err := f.pool.ForShop(ctx, shop)
	if err != nil {
		return nil, err
	}

	var resp productResponse
	if err := gw.Request(ctx, productQuery, map[string]interface{}{"id": id}, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch product: %w", err)
	}
	if resp.Product == nil {
		return nil, domain.ErrNotFoundUpstream
	}

	node := resp.Product

	images := imagesFromMedia(node.Media)
	if node.Media.PageInfo.HasNextPage {
		more, err := f.fetchRemainingMedia(ctx, gw, id, node.Media.PageInfo.EndCursor, len(images))
		if err != nil {
			return nil, err
		}
		images = append(images, more...)
	}

	metafields := metafieldsFromConnection(node.Metafields)
	if node.Metafields.PageInfo.HasNextPage {
		more, err := f.fetchRemainingMetafields(ctx, gw, id, node.Metafields.PageInfo.EndCursor)
		if err != nil {
			return nil, err
		}
		metafields = append(metafields, more...)
	}

	options := make([]domain.ProductOption, 0, len(node.Options))
	for _, o := range node.Options {
		options = append(options, domain.ProductOption{
			Name:     o.Name,
			Values:   o.Values,
			Position: o.Position,
		})
	}

	return &domain.Product{
		Shop:             shop,
		ID:               node.ID,
		Title:            node.Title,
		DescriptionHTML:  node.DescriptionHTML,
		Handle:           node.Handle,
		SEOTitle:         node.SEO.Title,
		SEODescription:   node.SEO.Description,
		Status:           node.Status,
		Images:           images,
		Options:          options,
		Metafields:       metafields,
		ShopifyUpdatedAt: node.UpdatedAt,
	}, nil
}

// FetchAllProductIDs traverses every product listing page.
func (f *ProductFetcher) FetchAllProductIDs(ctx context.Context, shop string) ([]string, error) {
	gw, err := f.pool.ForShop(ctx, shop)
	if err != nil {
		return nil, err
	}

	return fetchAllIDs(ctx, gw, productIDsQuery, func(resp *productIDsResponse) *idConnectionResponse {
		return &resp.Products
	})
}

func (f *ProductFetcher) fetchRemainingMedia(ctx context.Context, gw ports.Gateway, id, cursor string, have int) ([]domain.ProductImage, error) {
	var out []domain.ProductImage
	position := have
	for page := 0; page < childPageCap; page++ {
		vars := map[string]interface{}{"id": id, "after": cursor}
		var resp productMediaResponse
		if err := gw.Request(ctx, productMediaQuery, vars, &resp); err != nil {
			return nil, fmt.Errorf("failed to fetch product media page: %w", err)
		}
		if resp.Product == nil {
			return nil, domain.ErrNotFoundUpstream
		}
		for _, e := range resp.Product.Media.Edges {
			if e.Node.ID == "" {
				continue // non-image media
			}
			out = append(out, domain.ProductImage{
				MediaID:  e.Node.ID,
				URL:      e.Node.Image.URL,
				AltText:  e.Node.Alt,
				Position: position,
			})
			position++
		}
		if !resp.Product.Media.PageInfo.HasNextPage {
			return out, nil
		}
		cursor = resp.Product.Media.PageInfo.EndCursor
	}
	f.logger.Warn().Str("product", id).Msg("Media page cap reached, truncating")
	return out, nil
}

func (f *ProductFetcher) fetchRemainingMetafields(ctx context.Context, gw ports.Gateway, id, cursor string) ([]domain.ProductMetafield, error) {
	var out []domain.ProductMetafield
	for page := 0; page < childPageCap; page++ {
		vars := map[string]interface{}{"id": id, "after": cursor}
		var resp productMetafieldsResponse
		if err := gw.Request(ctx, productMetafieldsQuery, vars, &resp); err != nil {
			return nil, fmt.Errorf("failed to fetch product metafields page: %w", err)
		}
		if resp.Product == nil {
			return nil, domain.ErrNotFoundUpstream
		}
		out = append(out, metafieldsFromConnection(resp.Product.Metafields)...)
		if !resp.Product.Metafields.PageInfo.HasNextPage {
			return out, nil
		}
		cursor = resp.Product.Metafields.PageInfo.EndCursor
	}
	f.logger.Warn().Str("product", id).Msg("Metafield page cap reached, truncating")
	return out, nil
}

func imagesFromMedia(conn mediaConnection) []domain.ProductImage {
	var images []domain.ProductImage
	position := 0
	for _, e := range conn.Edges {
		if e.Node.ID == "" {
			continue // non-image media
		}
		images = append(images, domain.ProductImage{
			MediaID:  e.Node.ID,
			URL:      e.Node.Image.URL,
			AltText:  e.Node.Alt,
			Position: position,
		})
		position++
	}
	return images
}

func metafieldsFromConnection(conn metafieldConnection) []domain.ProductMetafield {
	out := make([]domain.ProductMetafield, 0, len(conn.Edges))
	for _, e := range conn.Edges {
		out = append(out, domain.ProductMetafield{
			Namespace: e.Node.Namespace,
			Key:       e.Node.Key,
			Value:     e.Node.Value,
			Type:      e.Node.Type,
		})
	}
	return out
}

// cursorOrNil maps an empty cursor to null so the first page request omits
// the after argument.
func cursorOrNil(cursor string) interface{} {
	if cursor == "" {
		return nil
	}
	return cursor
}
