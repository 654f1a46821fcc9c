package product

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/byshoes/byshoes/internal/db"
	"github.com/byshoes/byshoes/internal/domain"
	domproduct "github.com/byshoes/byshoes/internal/domain/product"
	"github.com/byshoes/byshoes/internal/filter"
)

// store is the consumer interface for products (ISP).
type store interface {
	Find(ctx context.Context, q db.FindQuery) ([]domproduct.Product, error)
	Count(ctx context.Context, f filter.Query) (int64, error)
	FindByID(ctx context.Context, id string) (domproduct.Product, error)
	FilterStats(ctx context.Context, f filter.Query) (domproduct.FilterStats, error)
	InsertMany(ctx context.Context, products []domproduct.Product) error
	CompleteVersion(ctx context.Context, version int) error
}

// Repo implements usecase/product.Repository and usecase/ingest.Writer.
type Repo struct {
	store store
}

// New creates a product repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Paginate runs match, sort, skip (page-1)*size and limit size, plus a total
// count over the same filter. The two queries run concurrently.
func (r *Repo) Paginate(
	ctx context.Context, f filter.Query, order filter.OrderSpec, page, size int,
) (domproduct.Page, error) {
	if page < 1 || size < 1 {
		return domproduct.Page{}, fmt.Errorf("page %d size %d: %w", page, size, domain.ErrInvalidParameter)
	}

	q := db.FindQuery{
		Filter: f,
		Sort:   sortFields(order),
		Skip:   int64(page-1) * int64(size),
		Limit:  int64(size),
	}

	var (
		items []domproduct.Product
		total int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = r.store.Find(gctx, q)
		if err != nil {
			return fmt.Errorf("find products: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		total, err = r.store.Count(gctx, f)
		if err != nil {
			return fmt.Errorf("count products: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return domproduct.Page{}, err
	}
	return domproduct.NewPage(items, total, page, size), nil
}

// Get returns a product by id.
func (r *Repo) Get(ctx context.Context, id string) (domproduct.Product, error) {
	p, err := r.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domproduct.Product{}, fmt.Errorf("product %s: %w", id, domain.ErrNotFound)
		}
		return domproduct.Product{}, fmt.Errorf("find product %s: %w", id, err)
	}
	return p, nil
}

// Stats aggregates filter statistics over the records matching f.
func (r *Repo) Stats(ctx context.Context, f filter.Query) (domproduct.FilterStats, error) {
	stats, err := r.store.FilterStats(ctx, f)
	if err != nil {
		return domproduct.FilterStats{}, fmt.Errorf("filter stats: %w", err)
	}
	return stats, nil
}

// Insert appends a batch of records.
func (r *Repo) Insert(ctx context.Context, products []domproduct.Product) error {
	if err := r.store.InsertMany(ctx, products); err != nil {
		return fmt.Errorf("insert %d products: %w", len(products), err)
	}
	return nil
}

// Complete marks the crawl run of version finished.
func (r *Repo) Complete(ctx context.Context, version int) error {
	if err := r.store.CompleteVersion(ctx, version); err != nil {
		return fmt.Errorf("complete version %d: %w", version, err)
	}
	return nil
}

// sortFields appends _id as a tiebreaker so windows are stable.
func sortFields(order filter.OrderSpec) []db.SortField {
	var out []db.SortField
	if order.Field != "" {
		out = append(out, db.SortField{Field: order.Field, Direction: int(order.Direction)})
	}
	if order.Field != "_id" {
		out = append(out, db.SortField{Field: "_id", Direction: 1})
	}
	return out
}
