// Package product serves filtered, sorted and paginated product listings.
package product

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/byshoes/byshoes/internal/domain"
	domproduct "github.com/byshoes/byshoes/internal/domain/product"
	"github.com/byshoes/byshoes/internal/filter"
	"github.com/byshoes/byshoes/internal/logger"
)

// ListRequest carries raw filter and order values plus the requested window.
// Zero Page or Size selects the default.
type ListRequest struct {
	Values url.Values
	Page   int
	Size   int
}

// Service composes compiled filters with version and novelty constraints.
type Service struct {
	repo            Repository
	novelty         Novelty
	filters         *filter.Set
	ordering        *filter.OrderSet
	defaultPageSize int
	maxPageSize     int
}

// New creates a product service.
func New(repo Repository, novelty Novelty, filters *filter.Set, ordering *filter.OrderSet) *Service {
	return &Service{
		repo:            repo,
		novelty:         novelty,
		filters:         filters,
		ordering:        ordering,
		defaultPageSize: 50,
		maxPageSize:     100,
	}
}

// WithPagination configures page size limits.
func (s *Service) WithPagination(defaultPageSize, maxPageSize int) *Service {
	if defaultPageSize > 0 {
		s.defaultPageSize = defaultPageSize
	}
	if maxPageSize > 0 {
		s.maxPageSize = maxPageSize
	}
	return s
}

// List returns products of the latest version.
func (s *Service) List(ctx context.Context, req ListRequest) (domproduct.Page, error) {
	v, err := s.novelty.MaxVersion(ctx)
	if err != nil {
		return domproduct.Page{}, fmt.Errorf("list products: %w", err)
	}
	return s.page(ctx, req, versionIs(v))
}

// ListAll returns products of every version.
func (s *Service) ListAll(ctx context.Context, req ListRequest) (domproduct.Page, error) {
	return s.page(ctx, req)
}

// ListNew returns the products the latest version introduced.
func (s *Service) ListNew(ctx context.Context, req ListRequest) (domproduct.Page, error) {
	ids, v, err := s.novelty.NewestIDs(ctx)
	if err != nil {
		return domproduct.Page{}, fmt.Errorf("list new products: %w", err)
	}
	return s.page(ctx, req, idIn(ids), versionIs(v))
}

// FilterStats aggregates the values available to the filters over the latest version.
// When isNew is set the stats are scoped to (true) or exclude (false) the latest novelty set.
func (s *Service) FilterStats(ctx context.Context, values url.Values, isNew *bool) (domproduct.FilterStats, error) {
	q, err := s.filters.Compile(values)
	if err != nil {
		return domproduct.FilterStats{}, err
	}

	var v int
	if isNew == nil {
		v, err = s.novelty.MaxVersion(ctx)
		if err != nil {
			return domproduct.FilterStats{}, fmt.Errorf("filter stats: %w", err)
		}
	} else {
		var ids []string
		ids, v, err = s.novelty.NewestIDs(ctx)
		if err != nil {
			return domproduct.FilterStats{}, fmt.Errorf("filter stats: %w", err)
		}
		if *isNew {
			q.Merge(idIn(ids))
		} else {
			q.Merge(idNotIn(ids))
		}
	}
	q.Merge(versionIs(v))

	stats, err := s.repo.Stats(ctx, q)
	if err != nil {
		return domproduct.FilterStats{}, fmt.Errorf("filter stats: %w", err)
	}
	return stats, nil
}

// Get returns one product by id.
func (s *Service) Get(ctx context.Context, id string) (domproduct.Product, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return domproduct.Product{}, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// Parameters describes every accepted query parameter: filters, ordering and pagination.
func (s *Service) Parameters() []filter.Parameter {
	params := s.filters.Surface().Parameters()
	params = append(params, s.ordering.Parameters()...)
	params = append(params,
		filter.Parameter{Name: "page", Type: filter.Int, Default: 1, Description: "Page number, starting at 1"},
		filter.Parameter{
			Name:        "size",
			Type:        filter.Int,
			Default:     s.defaultPageSize,
			Description: "Page size, at most " + strconv.Itoa(s.maxPageSize),
		},
	)
	return params
}

func (s *Service) page(ctx context.Context, req ListRequest, constraints ...filter.Query) (domproduct.Page, error) {
	page, size, err := s.window(req.Page, req.Size)
	if err != nil {
		return domproduct.Page{}, err
	}
	order, err := s.ordering.Apply(req.Values)
	if err != nil {
		return domproduct.Page{}, err
	}
	q, err := s.filters.Compile(req.Values)
	if err != nil {
		return domproduct.Page{}, err
	}
	for _, c := range constraints {
		q.Merge(c)
	}

	logger.FromContext(ctx).Debug("Product query compiled",
		zap.Any("filter", q),
		zap.String("sort", order.Field),
		zap.Int("page", page),
		zap.Int("size", size),
	)

	result, err := s.repo.Paginate(ctx, q, order, page, size)
	if err != nil {
		return domproduct.Page{}, fmt.Errorf("paginate: %w", err)
	}
	return result, nil
}

func (s *Service) window(page, size int) (int, int, error) {
	if page == 0 {
		page = 1
	}
	if size == 0 {
		size = s.defaultPageSize
	}
	if page < 1 {
		return 0, 0, domain.NewParameterError("page", strconv.Itoa(page))
	}
	if size < 1 || size > s.maxPageSize {
		return 0, 0, domain.NewParameterError("size", strconv.Itoa(size))
	}
	return page, size, nil
}

func versionIs(v int) filter.Query {
	return filter.Query{"version": map[string]any{"$eq": v}}
}

func idIn(ids []string) filter.Query {
	return filter.Query{"_id": map[string]any{"$in": append([]string{}, ids...)}}
}

func idNotIn(ids []string) filter.Query {
	return filter.Query{"_id": map[string]any{"$nin": append([]string{}, ids...)}}
}
