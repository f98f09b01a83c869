package shopify

import (
	"context"
	"fmt"

	"polyglot-shopify-sync/internal/domain"
	"polyglot-shopify-sync/internal/ports"

	"github.com/rs/zerolog"
)

// ThemeFetcher pages through translatable theme resources over the gateway.
type ThemeFetcher struct {
	pool   ports.GatewayPool
	logger zerolog.Logger
}

// NewThemeFetcher creates a theme fetcher.
func NewThemeFetcher(pool ports.GatewayPool, logger zerolog.Logger) *ThemeFetcher {
	return &ThemeFetcher{pool: pool, logger: logger}
}

// FetchThemeResources returns every translatable resource of one resource
// type, traversing all pages.
func (f *ThemeFetcher) FetchThemeResources(ctx context.Context, shop, resourceType string) ([]domain.ThemeResource, error) {
	gw, err := f.pool.ForShop(ctx, shop)
	if err != nil {
		return nil, err
	}

	var resources []domain.ThemeResource
	cursor := ""
	for {
		vars := map[string]interface{}{
			"resourceType": resourceType,
			"after":        cursorOrNil(cursor),
		}
		var resp translatableResourcesResponse
		if err := gw.Request(ctx, translatableResourcesQuery, vars, &resp); err != nil {
			return nil, fmt.Errorf("failed to list translatable resources: %w", err)
		}

		for _, e := range resp.TranslatableResources.Edges {
			resources = append(resources, domain.ThemeResource{
				ID:       e.Node.ResourceID,
				Contents: sourceContentFromNodes(e.Node.TranslatableContent),
			})
		}

		if !resp.TranslatableResources.PageInfo.HasNextPage {
			break
		}
		cursor = resp.TranslatableResources.PageInfo.EndCursor
	}

	f.logger.Debug().
		Str("shop", shop).
		Str("resourceType", resourceType).
		Int("count", len(resources)).
		Msg("Fetched translatable theme resources")
	return resources, nil
}

func sourceContentFromNodes(nodes []translatableContentNode) []domain.SourceContent {
	out := make([]domain.SourceContent, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, domain.SourceContent{
			Key:    n.Key,
			Value:  n.Value,
			Digest: n.Digest,
			Locale: n.Locale,
		})
	}
	return out
}
