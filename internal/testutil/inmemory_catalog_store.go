package testutil

import (
	"context"

	"github.com/drawcard/drawcard/internal/domain/catalog"
	ierr "github.com/drawcard/drawcard/internal/errors"
	"github.com/drawcard/drawcard/internal/types"
	"github.com/samber/lo"
)

// InMemoryCatalogStore implements catalog.Repository plus a Create helper for
// seeding test packages.
type InMemoryCatalogStore struct {
	*InMemoryStore[*catalog.Package]
}

// NewInMemoryCatalogStore creates a new in-memory package catalog
func NewInMemoryCatalogStore() *InMemoryCatalogStore {
	return &InMemoryCatalogStore{
		InMemoryStore: NewInMemoryStore[*catalog.Package](),
	}
}

func copyPackage(p *catalog.Package) *catalog.Package {
	if p == nil {
		return nil
	}
	copied := *p
	return &copied
}

// Create seeds a package. The catalog interface itself is read-only.
func (s *InMemoryCatalogStore) Create(ctx context.Context, p *catalog.Package) error {
	if err := p.Validate(); err != nil {
		return err
	}
	return s.InMemoryStore.Create(ctx, p.ID, copyPackage(p))
}

func (s *InMemoryCatalogStore) Get(ctx context.Context, id string) (*catalog.Package, error) {
	p, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.NewError("package not found").
			WithReportableDetails(map[string]interface{}{"package_id": id}).
			Mark(ierr.ErrNotFound)
	}
	return copyPackage(p), nil
}

func (s *InMemoryCatalogStore) List(ctx context.Context) ([]*catalog.Package, error) {
	packages, err := s.InMemoryStore.List(ctx, nil,
		func(ctx context.Context, p *catalog.Package, _ interface{}) bool {
			return p.Status == types.StatusPublished
		},
		func(i, j *catalog.Package) bool {
			return i.CreatedAt.Before(j.CreatedAt)
		})
	if err != nil {
		return nil, err
	}
	return lo.Map(packages, func(p *catalog.Package, _ int) *catalog.Package {
		return copyPackage(p)
	}), nil
}
