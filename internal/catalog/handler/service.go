package handler

import (
	"net/http"

	"appointly/internal/authz"
	"appointly/internal/catalog/service"
	"appointly/pkg/contracts"
	httputil "appointly/pkg/http"
	"appointly/pkg/logger"
	"appointly/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type ServiceHandler struct {
	service service.CatalogService
	auth    contracts.Authenticator
	log     *logger.Logger
}

func NewServiceHandler(service service.CatalogService, auth contracts.Authenticator, log *logger.Logger) *ServiceHandler {
	return &ServiceHandler{
		service: service,
		auth:    auth,
		log:     log,
	}
}

func (h *ServiceHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	p, _ := authz.FromContext(r.Context())

	var svc model.Service
	if err := httputil.DecodeJSON(r, &svc); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	created, err := h.service.Create(r.Context(), p, &svc)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, created); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *ServiceHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	p, _ := authz.FromContext(r.Context())

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}
	active, err := httputil.QueryBool(r, "is_active")
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}
	query := r.URL.Query()
	filter := model.ServiceFilter{
		Category:   query.Get("category"),
		ProviderID: query.Get("provider_id"),
		IsActive:   active,
	}

	services, total, err := h.service.GetAll(r.Context(), p, filter, limit, offset)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	if err := httputil.WritePaginated(w, services, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetAll", "operation", "WritePaginated", "error", err)
	}
}

func (h *ServiceHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	p, _ := authz.FromContext(r.Context())

	svc, err := h.service.GetByID(r.Context(), p, ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, svc); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ServiceHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	p, _ := authz.FromContext(r.Context())

	var updates model.ServiceUpdate
	if err := httputil.DecodeJSON(r, &updates); err != nil {
		h.writeError(w, "Update", err)
		return
	}

	svc, err := h.service.Update(r.Context(), p, ps.ByName("id"), &updates)
	if err != nil {
		h.writeError(w, "Update", err)
		return
	}

	if err := httputil.WriteMessage(w, "Service updated successfully", svc); err != nil {
		h.log.Error("failed to write success response", "handler", "Update", "operation", "WriteMessage", "error", err)
	}
}

func (h *ServiceHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	p, _ := authz.FromContext(r.Context())

	if err := h.service.Delete(r.Context(), p, ps.ByName("id")); err != nil {
		h.writeError(w, "Delete", err)
		return
	}

	if err := httputil.WriteMessage(w, "Service deleted successfully", nil); err != nil {
		h.log.Error("failed to write success response", "handler", "Delete", "operation", "WriteMessage", "error", err)
	}
}

func (h *ServiceHandler) AssignProviders(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	p, _ := authz.FromContext(r.Context())

	var req model.ProviderAssignment
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "AssignProviders", err)
		return
	}

	svc, err := h.service.AssignProviders(r.Context(), p, ps.ByName("id"), &req)
	if err != nil {
		h.writeError(w, "AssignProviders", err)
		return
	}

	if err := httputil.WriteMessage(w, "Providers assigned successfully", svc); err != nil {
		h.log.Error("failed to write success response", "handler", "AssignProviders", "operation", "WriteMessage", "error", err)
	}
}

func (h *ServiceHandler) SelectServices(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	p, _ := authz.FromContext(r.Context())

	var req model.ServiceSelection
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "SelectServices", err)
		return
	}

	if err := h.service.SelectServices(r.Context(), p, &req); err != nil {
		h.writeError(w, "SelectServices", err)
		return
	}

	if err := httputil.WriteMessage(w, "Services selected successfully", req); err != nil {
		h.log.Error("failed to write success response", "handler", "SelectServices", "operation", "WriteMessage", "error", err)
	}
}

func (h *ServiceHandler) UnselectServices(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	p, _ := authz.FromContext(r.Context())

	var req model.ServiceSelection
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "UnselectServices", err)
		return
	}

	if err := h.service.UnselectServices(r.Context(), p, &req); err != nil {
		h.writeError(w, "UnselectServices", err)
		return
	}

	if err := httputil.WriteMessage(w, "Services unselected successfully", req); err != nil {
		h.log.Error("failed to write success response", "handler", "UnselectServices", "operation", "WriteMessage", "error", err)
	}
}

func (h *ServiceHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *ServiceHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/services", h.auth.Require(h.Create))
	router.GET("/api/v1/services", h.auth.Require(h.GetAll))
	router.GET("/api/v1/services/:id", h.auth.Require(h.GetByID))
	router.PUT("/api/v1/services/:id", h.auth.Require(h.Update))
	router.DELETE("/api/v1/services/:id", h.auth.Require(h.Delete))
	router.PUT("/api/v1/services/:id/providers", h.auth.Require(h.AssignProviders))
	router.PUT("/api/v1/providers/me/services/select", h.auth.Require(h.SelectServices))
	router.PUT("/api/v1/providers/me/services/unselect", h.auth.Require(h.UnselectServices))
}
