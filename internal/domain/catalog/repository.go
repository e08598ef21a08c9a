package catalog

import (
	"context"
)

// Repository is the read-only package catalog lookup. The catalog is owned by
// the storefront CRUD surface; this core only reads it and assumes it is
// consistent at call time.
type Repository interface {
	// Get retrieves a package by ID
	Get(ctx context.Context, id string) (*Package, error)

	// List returns all published packages.
	List(ctx context.Context) ([]*Package, error)
}
