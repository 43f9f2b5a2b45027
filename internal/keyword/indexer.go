package keyword

import (
	"context"
	"time"

	"github.com/starford/lexis/internal/cache"
	"github.com/starford/lexis/internal/models"
)

// TreeSource builds document trees.
type TreeSource interface {
	Build(ctx context.Context, subpath string, authenticated bool) ([]*models.DocumentNode, error)
}

// Indexer builds and caches the keyword index of the whole content tree.
type Indexer struct {
	trees TreeSource
	cache *cache.Manager
	now   func() time.Time
}

// NewIndexer creates an indexer. A nil cache rebuilds on every call.
func NewIndexer(trees TreeSource, c *cache.Manager) *Indexer {
	return &Indexer{trees: trees, cache: c, now: time.Now}
}

// CacheKey returns the cache key of the index for an auth state.
func CacheKey(authenticated bool) string {
	if authenticated {
		return "keywords:auth"
	}
	return "keywords:anon"
}

// Index returns the index of the documents visible in the given auth state.
func (ix *Indexer) Index(ctx context.Context, authenticated bool) (*Index, error) {
	build := func(ctx context.Context) (*Index, error) {
		nodes, err := ix.trees.Build(ctx, "", authenticated)
		if err != nil {
			return nil, err
		}
		return Build(nodes, ix.now()), nil
	}
	if ix.cache == nil {
		return build(ctx)
	}
	return cache.GetOrCompute(ctx, ix.cache, CacheKey(authenticated), 5*time.Minute, build)
}
