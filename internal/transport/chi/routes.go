package chi

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"
)

// ListParams are the pagination parameters of the listing endpoints.
// Filter and ordering parameters are read from the raw query.
type ListParams struct {
	Page *int `form:"page,omitempty" json:"page,omitempty"`
	Size *int `form:"size,omitempty" json:"size,omitempty"`
}

// FilterStatsParams are the parameters of GET /api/products/filter_stats.
type FilterStatsParams struct {
	IsNew *bool `form:"is_new,omitempty" json:"is_new,omitempty"`
}

// API is the set of catalog operations, called with typed parameters already bound.
type API interface {
	ListProducts(w http.ResponseWriter, r *http.Request, params ListParams)
	ListAllProducts(w http.ResponseWriter, r *http.Request, params ListParams)
	ListNewProducts(w http.ResponseWriter, r *http.Request, params ListParams)
	GetFilterStats(w http.ResponseWriter, r *http.Request, params FilterStatsParams)
	GetProduct(w http.ResponseWriter, r *http.Request, productID uuid.UUID)
	ListFilters(w http.ResponseWriter, r *http.Request)
	HealthCheck(w http.ResponseWriter, r *http.Request)
	Metrics(w http.ResponseWriter, r *http.Request)
}

// BindError is reported when a typed parameter cannot be bound.
type BindError struct {
	Param string
	Err   error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("bind parameter %s: %v", e.Param, e.Err)
}

func (e *BindError) Unwrap() error { return e.Err }

// Mount registers every catalog route on r. Binding failures go to onBindError.
func Mount(r chi.Router, api API, onBindError func(w http.ResponseWriter, r *http.Request, err error)) {
	b := binder{api: api, fail: onBindError}

	r.Get("/api/products", b.list(api.ListProducts))
	r.Get("/api/products/all", b.list(api.ListAllProducts))
	r.Get("/api/products/new", b.list(api.ListNewProducts))
	r.Get("/api/products/filter_stats", b.filterStats)
	r.Get("/api/products/{product_id}", b.product)
	r.Get("/api/filters", api.ListFilters)
	r.Get("/health", api.HealthCheck)
	r.Get("/metrics", api.Metrics)
}

// binder decodes typed parameters with the oapi-codegen runtime before calling the API.
type binder struct {
	api  API
	fail func(w http.ResponseWriter, r *http.Request, err error)
}

func (b binder) list(next func(http.ResponseWriter, *http.Request, ListParams)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params ListParams
		query := r.URL.Query()
		if err := runtime.BindQueryParameter("form", true, false, "page", query, &params.Page); err != nil {
			b.fail(w, r, &BindError{Param: "page", Err: err})
			return
		}
		if err := runtime.BindQueryParameter("form", true, false, "size", query, &params.Size); err != nil {
			b.fail(w, r, &BindError{Param: "size", Err: err})
			return
		}
		next(w, r, params)
	}
}

func (b binder) filterStats(w http.ResponseWriter, r *http.Request) {
	var params FilterStatsParams
	if err := runtime.BindQueryParameter("form", true, false, "is_new", r.URL.Query(), &params.IsNew); err != nil {
		b.fail(w, r, &BindError{Param: "is_new", Err: err})
		return
	}
	b.api.GetFilterStats(w, r, params)
}

func (b binder) product(w http.ResponseWriter, r *http.Request) {
	var productID uuid.UUID
	err := runtime.BindStyledParameterWithOptions("simple", "product_id", chi.URLParam(r, "product_id"), &productID,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		b.fail(w, r, &BindError{Param: "product_id", Err: err})
		return
	}
	b.api.GetProduct(w, r, productID)
}
