// Package chi is the HTTP API of the product catalog.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/byshoes/byshoes/internal/domain"
	domproduct "github.com/byshoes/byshoes/internal/domain/product"
	"github.com/byshoes/byshoes/internal/filter"
	"github.com/byshoes/byshoes/internal/logger"
	healthuc "github.com/byshoes/byshoes/internal/usecase/health"
	productuc "github.com/byshoes/byshoes/internal/usecase/product"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// ErrorResponse is the body of every error answer.
type ErrorResponse struct {
	Error string `json:"error"`
}

// FiltersResponse lists the accepted query parameters.
type FiltersResponse struct {
	Items []filter.Parameter `json:"items"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// products is the usecase consumed by the API (ISP).
type products interface {
	List(ctx context.Context, req productuc.ListRequest) (domproduct.Page, error)
	ListAll(ctx context.Context, req productuc.ListRequest) (domproduct.Page, error)
	ListNew(ctx context.Context, req productuc.ListRequest) (domproduct.Page, error)
	FilterStats(ctx context.Context, values url.Values, isNew *bool) (domproduct.FilterStats, error)
	Get(ctx context.Context, id string) (domproduct.Product, error)
	Parameters() []filter.Parameter
}

// Server implements API.
type Server struct {
	products      products
	health        *healthuc.Service
	errorHandlers []errorHandler
}

var _ API = (*Server)(nil)

// NewServer creates an HTTP API server.
func NewServer(products products, health *healthuc.Service) *Server {
	s := &Server{
		products: products,
		health:   health,
	}
	s.errorHandlers = []errorHandler{
		parameterErrorHandler,
		sentinelHandler(domain.ErrInvalidParameter, http.StatusBadRequest),
		sentinelHandler(domain.ErrInvalidFilterValue, http.StatusBadRequest),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound),
	}
	return s
}

// ListProducts handles GET /api/products.
func (s *Server) ListProducts(w http.ResponseWriter, r *http.Request, params ListParams) {
	page, err := s.products.List(r.Context(), listRequest(r, params))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// ListAllProducts handles GET /api/products/all.
func (s *Server) ListAllProducts(w http.ResponseWriter, r *http.Request, params ListParams) {
	page, err := s.products.ListAll(r.Context(), listRequest(r, params))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// ListNewProducts handles GET /api/products/new.
func (s *Server) ListNewProducts(w http.ResponseWriter, r *http.Request, params ListParams) {
	page, err := s.products.ListNew(r.Context(), listRequest(r, params))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// GetFilterStats handles GET /api/products/filter_stats.
func (s *Server) GetFilterStats(w http.ResponseWriter, r *http.Request, params FilterStatsParams) {
	stats, err := s.products.FilterStats(r.Context(), r.URL.Query(), params.IsNew)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// GetProduct handles GET /api/products/{product_id}.
func (s *Server) GetProduct(w http.ResponseWriter, r *http.Request, productID uuid.UUID) {
	p, err := s.products.Get(r.Context(), productID.String())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// ListFilters handles GET /api/filters.
func (s *Server) ListFilters(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, FiltersResponse{Items: s.products.Parameters()})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, HealthResponse{Status: string(report.Status), Checks: checks})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// BindErrorHandler answers parameters that could not be bound with 400.
func BindErrorHandler(w http.ResponseWriter, _ *http.Request, err error) {
	var be *BindError
	if errors.As(err, &be) {
		writeError(w, http.StatusBadRequest, "invalid parameter: "+be.Param)
		return
	}
	writeError(w, http.StatusBadRequest, "invalid request")
}

func listRequest(r *http.Request, params ListParams) productuc.ListRequest {
	req := productuc.ListRequest{Values: r.URL.Query()}
	if params.Page != nil {
		req.Page = *params.Page
	}
	if params.Size != nil {
		req.Size = *params.Size
	}
	return req
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// parameterErrorHandler names the offending parameter in the answer.
func parameterErrorHandler(w http.ResponseWriter, err error) bool {
	var pe *domain.ParameterError
	if !errors.As(err, &pe) {
		return false
	}
	writeError(w, http.StatusBadRequest, pe.Error())
	return true
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, sentinel.Error())
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	for _, h := range s.errorHandlers {
		if h(w, err) {
			log.Warn("domain error", zap.Error(err))
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}
