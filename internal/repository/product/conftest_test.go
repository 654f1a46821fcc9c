package product

import (
	"context"

	"github.com/byshoes/byshoes/internal/db"
	domproduct "github.com/byshoes/byshoes/internal/domain/product"
	"github.com/byshoes/byshoes/internal/filter"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	findFn     func(ctx context.Context, q db.FindQuery) ([]domproduct.Product, error)
	countFn    func(ctx context.Context, f filter.Query) (int64, error)
	findByIDFn func(ctx context.Context, id string) (domproduct.Product, error)
	statsFn    func(ctx context.Context, f filter.Query) (domproduct.FilterStats, error)
	insertFn   func(ctx context.Context, products []domproduct.Product) error
	completeFn func(ctx context.Context, version int) error
}

func (m *mockStore) Find(ctx context.Context, q db.FindQuery) ([]domproduct.Product, error) {
	if m.findFn != nil {
		return m.findFn(ctx, q)
	}
	return nil, nil
}

func (m *mockStore) Count(ctx context.Context, f filter.Query) (int64, error) {
	if m.countFn != nil {
		return m.countFn(ctx, f)
	}
	return 0, nil
}

func (m *mockStore) FindByID(ctx context.Context, id string) (domproduct.Product, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return domproduct.Product{}, db.ErrKeyNotFound
}

func (m *mockStore) FilterStats(ctx context.Context, f filter.Query) (domproduct.FilterStats, error) {
	if m.statsFn != nil {
		return m.statsFn(ctx, f)
	}
	return domproduct.EmptyStats(), nil
}

func (m *mockStore) InsertMany(ctx context.Context, products []domproduct.Product) error {
	if m.insertFn != nil {
		return m.insertFn(ctx, products)
	}
	return nil
}

func (m *mockStore) CompleteVersion(ctx context.Context, version int) error {
	if m.completeFn != nil {
		return m.completeFn(ctx, version)
	}
	return nil
}
