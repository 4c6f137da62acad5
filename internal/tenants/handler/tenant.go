package handler

import (
	"net/http"

	"appointly/internal/authz"
	"appointly/internal/tenants/service"
	"appointly/pkg/contracts"
	httputil "appointly/pkg/http"
	"appointly/pkg/logger"
	"appointly/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type TenantHandler struct {
	service service.TenantService
	auth    contracts.Authenticator
	log     *logger.Logger
}

func NewTenantHandler(service service.TenantService, auth contracts.Authenticator, log *logger.Logger) *TenantHandler {
	return &TenantHandler{
		service: service,
		auth:    auth,
		log:     log,
	}
}

func (h *TenantHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	p, _ := authz.FromContext(r.Context())

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	tenants, total, err := h.service.GetAll(r.Context(), p, limit, offset)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	if err := httputil.WritePaginated(w, tenants, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetAll", "operation", "WritePaginated", "error", err)
	}
}

func (h *TenantHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	p, _ := authz.FromContext(r.Context())

	tenant, err := h.service.GetByID(r.Context(), p, ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, tenant); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *TenantHandler) GetBySubdomain(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	tenant, err := h.service.GetBySubdomain(r.Context(), ps.ByName("subdomain"))
	if err != nil {
		h.writeError(w, "GetBySubdomain", err)
		return
	}

	if err := httputil.WriteSuccess(w, tenant); err != nil {
		h.log.Error("failed to write success response", "handler", "GetBySubdomain", "operation", "WriteSuccess", "error", err)
	}
}

func (h *TenantHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	p, _ := authz.FromContext(r.Context())

	var updates model.TenantUpdate
	if err := httputil.DecodeJSON(r, &updates); err != nil {
		h.writeError(w, "Update", err)
		return
	}

	tenant, err := h.service.Update(r.Context(), p, ps.ByName("id"), &updates)
	if err != nil {
		h.writeError(w, "Update", err)
		return
	}

	if err := httputil.WriteMessage(w, "Tenant updated successfully", tenant); err != nil {
		h.log.Error("failed to write success response", "handler", "Update", "operation", "WriteMessage", "error", err)
	}
}

func (h *TenantHandler) Deactivate(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	p, _ := authz.FromContext(r.Context())

	if err := h.service.Deactivate(r.Context(), p, ps.ByName("id")); err != nil {
		h.writeError(w, "Deactivate", err)
		return
	}

	if err := httputil.WriteMessage(w, "Tenant deactivated successfully", nil); err != nil {
		h.log.Error("failed to write success response", "handler", "Deactivate", "operation", "WriteMessage", "error", err)
	}
}

func (h *TenantHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *TenantHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/tenants", h.auth.Require(h.GetAll))
	router.GET("/api/v1/tenants/:id", h.auth.Require(h.GetByID))
	router.PUT("/api/v1/tenants/:id", h.auth.Require(h.Update))
	router.DELETE("/api/v1/tenants/:id", h.auth.Require(h.Deactivate))
	router.GET("/api/v1/subdomains/:subdomain", h.GetBySubdomain)
}
