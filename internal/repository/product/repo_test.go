package product

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/byshoes/byshoes/internal/db"
	"github.com/byshoes/byshoes/internal/domain"
	domproduct "github.com/byshoes/byshoes/internal/domain/product"
	"github.com/byshoes/byshoes/internal/filter"
)

func TestPaginate_Window(t *testing.T) {
	var gotFind db.FindQuery
	var gotCount filter.Query
	ms := &mockStore{
		findFn: func(_ context.Context, q db.FindQuery) ([]domproduct.Product, error) {
			gotFind = q
			return []domproduct.Product{{ID: "11"}}, nil
		},
		countFn: func(_ context.Context, f filter.Query) (int64, error) {
			gotCount = f
			return 25, nil
		},
	}
	f := filter.Query{"price": map[string]any{"$gte": int64(10)}}
	page, err := New(ms).Paginate(context.Background(), f, filter.OrderSpec{Field: "price", Direction: filter.Desc}, 2, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantFind := db.FindQuery{
		Filter: f,
		Sort:   []db.SortField{{Field: "price", Direction: -1}, {Field: "_id", Direction: 1}},
		Skip:   10,
		Limit:  10,
	}
	if diff := cmp.Diff(wantFind, gotFind); diff != "" {
		t.Errorf("find query mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(f, gotCount); diff != "" {
		t.Errorf("count must use the same filter (-want +got):\n%s", diff)
	}
	if page.Total != 25 || page.Page != 2 || page.Size != 10 || len(page.Items) != 1 {
		t.Errorf("unexpected page %+v", page)
	}
}

func TestPaginate_InvalidWindow(t *testing.T) {
	for _, tc := range []struct{ page, size int }{{0, 10}, {1, 0}, {-1, 5}} {
		_, err := New(&mockStore{}).Paginate(context.Background(), nil, filter.OrderSpec{}, tc.page, tc.size)
		if !errors.Is(err, domain.ErrInvalidParameter) {
			t.Errorf("page=%d size=%d: expected ErrInvalidParameter, got %v", tc.page, tc.size, err)
		}
	}
}

func TestPaginate_EmptyItemsNotNil(t *testing.T) {
	page, err := New(&mockStore{}).Paginate(context.Background(), nil, filter.OrderSpec{}, 1, 10)
	if err != nil {
		t.Fatal(err)
	}
	if page.Items == nil {
		t.Error("items must be an empty slice")
	}
}

func TestPaginate_CountError(t *testing.T) {
	ms := &mockStore{countFn: func(context.Context, filter.Query) (int64, error) {
		return 0, &db.Error{Op: db.OpCount, Err: errors.New("timeout")}
	}}
	_, err := New(ms).Paginate(context.Background(), nil, filter.OrderSpec{}, 1, 10)
	var dbErr *db.Error
	if !errors.As(err, &dbErr) {
		t.Fatalf("expected wrapped db.Error, got %v", err)
	}
}

func TestGet_NotFound(t *testing.T) {
	_, err := New(&mockStore{}).Get(context.Background(), "missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGet_StoreError(t *testing.T) {
	ms := &mockStore{findByIDFn: func(context.Context, string) (domproduct.Product, error) {
		return domproduct.Product{}, errors.New("conn refused")
	}}
	_, err := New(ms).Get(context.Background(), "x")
	if err == nil || errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected plain error, got %v", err)
	}
}

func TestComplete(t *testing.T) {
	var got []int
	ms := &mockStore{completeFn: func(_ context.Context, v int) error {
		got = append(got, v)
		return nil
	}}
	if err := New(ms).Complete(context.Background(), 3); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]int{3}, got); diff != "" {
		t.Errorf("completed mismatch (-want +got):\n%s", diff)
	}

	ms.completeFn = func(context.Context, int) error { return errors.New("timeout") }
	if err := New(ms).Complete(context.Background(), 4); err == nil {
		t.Fatal("expected error")
	}
}

func TestSortFields(t *testing.T) {
	tests := []struct {
		name  string
		order filter.OrderSpec
		want  []db.SortField
	}{
		{"field", filter.OrderSpec{Field: "parsed", Direction: filter.Desc}, []db.SortField{{Field: "parsed", Direction: -1}, {Field: "_id", Direction: 1}}},
		{"id only", filter.OrderSpec{Field: "_id", Direction: filter.Desc}, []db.SortField{{Field: "_id", Direction: -1}}},
		{"none", filter.OrderSpec{}, []db.SortField{{Field: "_id", Direction: 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, sortFields(tt.order)); diff != "" {
				t.Errorf("sort mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
