package product

import (
	"fmt"

	domproduct "github.com/byshoes/byshoes/internal/domain/product"
	"github.com/byshoes/byshoes/internal/filter"
)

// Schema lists the stored product attributes that filters may target.
var Schema = filter.NewSchema(
	filter.SchemaField{Name: "title"},
	filter.SchemaField{Name: "article"},
	filter.SchemaField{Name: "price", Type: filter.Float},
	filter.SchemaField{Name: "discounted_price", Type: filter.Float},
	filter.SchemaField{Name: "site"},
	filter.SchemaField{Name: "link"},
	filter.SchemaField{Name: "version", Type: filter.Int},
)

// derived are the schema attributes exposed with the full operator set.
var derived = []string{"version", "discounted_price"}

// NewFilters declares the product filter set for backend.
func NewFilters(backend filter.Backend) *filter.Set {
	return filter.NewSet("products", backend, Schema, derived,
		filter.Search("search", "title or article", filter.Contain("title"), filter.Contain("article")),
		filter.Field("article", filter.Ops(filter.Eq)),
		filter.Field("price", filter.Of(filter.Int), filter.Ops(filter.Ge, filter.Le)),
		filter.Field("sex_list",
			filter.On("specification.sex"),
			filter.ListOf(filter.String),
			filter.Ops(filter.In, filter.NotIn),
			filter.OneOf(domproduct.Sexes()...),
		),
		filter.Field("sex",
			filter.On("specification.sex"),
			filter.Ops(filter.Eq, filter.Ne),
			filter.OneOf(domproduct.Sexes()...),
		),
		filter.Field("color_list",
			filter.On("specification.color"),
			filter.ListOf(filter.String),
			filter.Ops(filter.In, filter.NotIn),
		),
		filter.Field("color", filter.On("specification.color"), filter.Ops(filter.Eq, filter.Ne)),
		filter.Field("category_id_list",
			filter.On("category.id"),
			filter.ListOf(filter.String),
			filter.Ops(filter.In, filter.NotIn),
		),
		filter.Field("category_id", filter.On("category.id"), filter.Ops(filter.Eq, filter.Ne)),
		filter.Search("category_search", "category id or name",
			filter.Contain("category.id"), filter.Contain("category.name")),
		filter.Field("size_type", filter.On("specification.size.size_type"), filter.Ops(filter.Eq)),
		filter.Field("size_list",
			filter.On("specification.size.values"),
			filter.ListOf(filter.Float),
			filter.Ops(filter.In, filter.NotIn),
		),
		filter.Field("size_value",
			filter.On("specification.size.values"),
			filter.Of(filter.Float),
			filter.Ops(filter.Eq, filter.Ne),
		),
		filter.Field("site", filter.Ops(filter.Eq), filter.OneOf(domproduct.Sites()...)),
		filter.ByMethod("discounted", "discounted price present", filter.Bool, discounted),
	)
}

// NewOrdering returns the product ordering: newest first unless asked otherwise.
func NewOrdering() *filter.OrderSet {
	return filter.NewOrderSet("sort_by", "order_by", "parsed", "desc",
		"parsed", "price", "discounted_price", "title", "article", "version", "site")
}

func discounted(param string, value any) (filter.Query, error) {
	on, ok := value.(bool)
	if !ok {
		return nil, fmt.Errorf("%s: expected boolean, got %T", param, value)
	}
	if on {
		return filter.Query{"discounted_price": map[string]any{"$ne": nil}}, nil
	}
	return filter.Query{"discounted_price": map[string]any{"$eq": nil}}, nil
}
