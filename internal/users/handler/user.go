package handler

import (
	"net/http"

	"appointly/internal/authz"
	"appointly/internal/users/service"
	"appointly/pkg/contracts"
	httputil "appointly/pkg/http"
	"appointly/pkg/logger"
	"appointly/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type UserHandler struct {
	service service.UserService
	auth    contracts.Authenticator
	log     *logger.Logger
}

func NewUserHandler(service service.UserService, auth contracts.Authenticator, log *logger.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		auth:    auth,
		log:     log,
	}
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	p, _ := authz.FromContext(r.Context())

	var req model.PrincipalCreate
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	principal, err := h.service.Create(r.Context(), p, &req)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, principal); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *UserHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
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
	filter := model.PrincipalFilter{
		Role:     model.Role(r.URL.Query().Get("role")),
		IsActive: active,
	}

	principals, total, err := h.service.GetAll(r.Context(), p, filter, limit, offset)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	if err := httputil.WritePaginated(w, principals, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetAll", "operation", "WritePaginated", "error", err)
	}
}

func (h *UserHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	p, _ := authz.FromContext(r.Context())

	principal, err := h.service.GetByID(r.Context(), p, ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, principal); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	p, _ := authz.FromContext(r.Context())

	var updates model.PrincipalUpdate
	if err := httputil.DecodeJSON(r, &updates); err != nil {
		h.writeError(w, "Update", err)
		return
	}

	principal, err := h.service.Update(r.Context(), p, ps.ByName("id"), &updates)
	if err != nil {
		h.writeError(w, "Update", err)
		return
	}

	if err := httputil.WriteMessage(w, "User updated successfully", principal); err != nil {
		h.log.Error("failed to write success response", "handler", "Update", "operation", "WriteMessage", "error", err)
	}
}

func (h *UserHandler) UpdateAvailability(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	p, _ := authz.FromContext(r.Context())

	var availability model.Availability
	if err := httputil.DecodeJSON(r, &availability); err != nil {
		h.writeError(w, "UpdateAvailability", err)
		return
	}

	if err := h.service.UpdateAvailability(r.Context(), p, ps.ByName("id"), &availability); err != nil {
		h.writeError(w, "UpdateAvailability", err)
		return
	}

	if err := httputil.WriteMessage(w, "Availability updated successfully", availability); err != nil {
		h.log.Error("failed to write success response", "handler", "UpdateAvailability", "operation", "WriteMessage", "error", err)
	}
}

func (h *UserHandler) Deactivate(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	p, _ := authz.FromContext(r.Context())

	if err := h.service.Deactivate(r.Context(), p, ps.ByName("id")); err != nil {
		h.writeError(w, "Deactivate", err)
		return
	}

	if err := httputil.WriteMessage(w, "User deactivated successfully", nil); err != nil {
		h.log.Error("failed to write success response", "handler", "Deactivate", "operation", "WriteMessage", "error", err)
	}
}

func (h *UserHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *UserHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/users", h.auth.Require(h.Create))
	router.GET("/api/v1/users", h.auth.Require(h.GetAll))
	router.GET("/api/v1/users/:id", h.auth.Require(h.GetByID))
	router.PUT("/api/v1/users/:id", h.auth.Require(h.Update))
	router.DELETE("/api/v1/users/:id", h.auth.Require(h.Deactivate))
	router.PUT("/api/v1/users/:id/availability", h.auth.Require(h.UpdateAvailability))
}
