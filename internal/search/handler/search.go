package handler

import (
	"net/http"

	"appointly/internal/authz"
	"appointly/internal/search/service"
	"appointly/pkg/contracts"
	httputil "appointly/pkg/http"
	"appointly/pkg/logger"
	"appointly/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type SearchHandler struct {
	service service.SearchService
	auth    contracts.Authenticator
	log     *logger.Logger
}

func NewSearchHandler(service service.SearchService, auth contracts.Authenticator, log *logger.Logger) *SearchHandler {
	return &SearchHandler{
		service: service,
		auth:    auth,
		log:     log,
	}
}

func (h *SearchHandler) SearchServices(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	p, _ := authz.FromContext(r.Context())

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "SearchServices", err)
		return
	}
	query := r.URL.Query()
	q := model.ServiceSearch{
		Query:    query.Get("q"),
		Category: query.Get("category"),
		Tenant:   query.Get("tenant"),
	}
	if q.MinPrice, err = httputil.QueryFloat(r, "minPrice"); err != nil {
		h.writeError(w, "SearchServices", err)
		return
	}
	if q.MaxPrice, err = httputil.QueryFloat(r, "maxPrice"); err != nil {
		h.writeError(w, "SearchServices", err)
		return
	}
	if q.MinDuration, err = httputil.QueryInt(r, "minDuration"); err != nil {
		h.writeError(w, "SearchServices", err)
		return
	}
	if q.MaxDuration, err = httputil.QueryInt(r, "maxDuration"); err != nil {
		h.writeError(w, "SearchServices", err)
		return
	}
	if q.MinRating, err = httputil.QueryFloat(r, "minRating"); err != nil {
		h.writeError(w, "SearchServices", err)
		return
	}

	services, total, err := h.service.SearchServices(r.Context(), p, q, limit, offset)
	if err != nil {
		h.writeError(w, "SearchServices", err)
		return
	}

	if err := httputil.WritePaginated(w, services, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "SearchServices", "operation", "WritePaginated", "error", err)
	}
}

func (h *SearchHandler) SearchProviders(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	p, _ := authz.FromContext(r.Context())

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "SearchProviders", err)
		return
	}
	query := r.URL.Query()
	q := model.ProviderSearch{
		Query:          query.Get("q"),
		Specialization: query.Get("specialization"),
		ServiceID:      query.Get("serviceId"),
		City:           query.Get("city"),
		Tenant:         query.Get("tenant"),
	}
	if q.MinRating, err = httputil.QueryFloat(r, "minRating"); err != nil {
		h.writeError(w, "SearchProviders", err)
		return
	}

	providers, total, err := h.service.SearchProviders(r.Context(), p, q, limit, offset)
	if err != nil {
		h.writeError(w, "SearchProviders", err)
		return
	}

	if err := httputil.WritePaginated(w, providers, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "SearchProviders", "operation", "WritePaginated", "error", err)
	}
}

func (h *SearchHandler) SearchProvidersByLocation(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	p, _ := authz.FromContext(r.Context())

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "SearchProvidersByLocation", err)
		return
	}
	query := r.URL.Query()
	q := model.NearbySearch{
		Specialization: query.Get("specialization"),
		Tenant:         query.Get("tenant"),
	}
	if q.Lat, err = httputil.QueryFloat(r, "lat"); err != nil {
		h.writeError(w, "SearchProvidersByLocation", err)
		return
	}
	if q.Lng, err = httputil.QueryFloat(r, "lng"); err != nil {
		h.writeError(w, "SearchProvidersByLocation", err)
		return
	}
	if q.RadiusKm, err = httputil.QueryFloat(r, "radius"); err != nil {
		h.writeError(w, "SearchProvidersByLocation", err)
		return
	}

	providers, total, err := h.service.SearchProvidersByLocation(r.Context(), p, q, limit, offset)
	if err != nil {
		h.writeError(w, "SearchProvidersByLocation", err)
		return
	}

	if err := httputil.WritePaginated(w, providers, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "SearchProvidersByLocation", "operation", "WritePaginated", "error", err)
	}
}

func (h *SearchHandler) SearchTenants(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	p, _ := authz.FromContext(r.Context())

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "SearchTenants", err)
		return
	}
	query := r.URL.Query()
	q := model.TenantSearch{
		Query:        query.Get("q"),
		BusinessType: query.Get("businessType"),
		City:         query.Get("city"),
	}

	tenants, total, err := h.service.SearchTenants(r.Context(), p, q, limit, offset)
	if err != nil {
		h.writeError(w, "SearchTenants", err)
		return
	}

	if err := httputil.WritePaginated(w, tenants, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "SearchTenants", "operation", "WritePaginated", "error", err)
	}
}

func (h *SearchHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *SearchHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/search/services", h.auth.Optional(h.SearchServices))
	router.GET("/api/v1/search/providers", h.auth.Optional(h.SearchProviders))
	router.GET("/api/v1/search/providers/nearby", h.auth.Optional(h.SearchProvidersByLocation))
	router.GET("/api/v1/search/tenants", h.auth.Optional(h.SearchTenants))
}
