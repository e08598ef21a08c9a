package cache

import (
	"context"
	"time"

	"github.com/drawcard/drawcard/internal/domain/catalog"
	gocache "github.com/patrickmn/go-cache"
)

const (
	// Packages change through slow admin edits; a short TTL keeps lookups hot
	// without a separate invalidation path.
	catalogTTL   = 5 * time.Minute
	cleanupEvery = 10 * time.Minute
	listKey      = "__list__"
)

// CatalogCache is a read-through decorator over the catalog repository.
type CatalogCache struct {
	inner catalog.Repository
	cache *gocache.Cache
}

// NewCatalogCache wraps a catalog repository with an in-memory TTL cache.
func NewCatalogCache(inner catalog.Repository) *CatalogCache {
	return &CatalogCache{
		inner: inner,
		cache: gocache.New(catalogTTL, cleanupEvery),
	}
}

func (c *CatalogCache) Get(ctx context.Context, id string) (*catalog.Package, error) {
	if v, ok := c.cache.Get(id); ok {
		return v.(*catalog.Package), nil
	}

	pkg, err := c.inner.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	c.cache.SetDefault(id, pkg)
	return pkg, nil
}

func (c *CatalogCache) List(ctx context.Context) ([]*catalog.Package, error) {
	if v, ok := c.cache.Get(listKey); ok {
		return v.([]*catalog.Package), nil
	}

	pkgs, err := c.inner.List(ctx)
	if err != nil {
		return nil, err
	}
	c.cache.SetDefault(listKey, pkgs)
	return pkgs, nil
}
