package ports

import (
	"context"

	"polyglot-shopify-sync/internal/domain"
)

// ResourceLocker serializes syncs of the same resource. Lock blocks until the
// lock is acquired or the wait budget runs out, then returns a release
// function.
type ResourceLocker interface {
	Lock(ctx context.Context, shop string, resourceType domain.ResourceType, id string) (func(), error)
}
