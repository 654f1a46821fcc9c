package product

import (
	"context"

	domproduct "github.com/byshoes/byshoes/internal/domain/product"
	"github.com/byshoes/byshoes/internal/filter"
)

// Repository defines the storage contract for product queries.
type Repository interface {
	Paginate(ctx context.Context, f filter.Query, order filter.OrderSpec, page, size int) (domproduct.Page, error)
	Get(ctx context.Context, id string) (domproduct.Product, error)
	Stats(ctx context.Context, f filter.Query) (domproduct.FilterStats, error)
}

// Novelty answers which version is current and which records it introduced.
type Novelty interface {
	MaxVersion(ctx context.Context) (int, error)
	NewestIDs(ctx context.Context) ([]string, int, error)
}
