package handler

import (
	"net/http"

	"appointly/internal/authz"
	"appointly/internal/identity/service"
	"appointly/pkg/contracts"
	httputil "appointly/pkg/http"
	"appointly/pkg/logger"
	"appointly/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type AuthHandler struct {
	service service.IdentityService
	auth    contracts.Authenticator
	log     *logger.Logger
}

func NewAuthHandler(service service.IdentityService, auth contracts.Authenticator, log *logger.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		auth:    auth,
		log:     log,
	}
}

func (h *AuthHandler) RegisterTenant(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.TenantRegistration
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "RegisterTenant", err)
		return
	}

	result, err := h.service.RegisterTenant(r.Context(), &req)
	if err != nil {
		h.writeError(w, "RegisterTenant", err)
		return
	}

	if err := httputil.WriteCreated(w, result); err != nil {
		h.log.Error("failed to write created response", "handler", "RegisterTenant", "operation", "WriteCreated", "error", err)
	}
}

func (h *AuthHandler) RegisterCustomer(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.CustomerRegistration
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "RegisterCustomer", err)
		return
	}

	result, err := h.service.RegisterCustomer(r.Context(), &req)
	if err != nil {
		h.writeError(w, "RegisterCustomer", err)
		return
	}

	if err := httputil.WriteCreated(w, result); err != nil {
		h.log.Error("failed to write created response", "handler", "RegisterCustomer", "operation", "WriteCreated", "error", err)
	}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.LoginRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "Login", err)
		return
	}

	result, err := h.service.Login(r.Context(), &req)
	if err != nil {
		h.writeError(w, "Login", err)
		return
	}

	if err := httputil.WriteSuccess(w, result); err != nil {
		h.log.Error("failed to write success response", "handler", "Login", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	p, _ := authz.FromContext(r.Context())

	account, err := h.service.Me(r.Context(), p)
	if err != nil {
		h.writeError(w, "Me", err)
		return
	}

	if err := httputil.WriteSuccess(w, account); err != nil {
		h.log.Error("failed to write success response", "handler", "Me", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	p, _ := authz.FromContext(r.Context())

	var req model.PasswordChange
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "ChangePassword", err)
		return
	}

	if err := h.service.ChangePassword(r.Context(), p, &req); err != nil {
		h.writeError(w, "ChangePassword", err)
		return
	}

	if err := httputil.WriteMessage(w, "Password changed successfully", nil); err != nil {
		h.log.Error("failed to write success response", "handler", "ChangePassword", "operation", "WriteMessage", "error", err)
	}
}

func (h *AuthHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *AuthHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/auth/register", h.RegisterTenant)
	router.POST("/api/v1/auth/register/customer", h.RegisterCustomer)
	router.POST("/api/v1/auth/login", h.Login)
	router.GET("/api/v1/auth/me", h.auth.Require(h.Me))
	router.PUT("/api/v1/auth/password", h.auth.Require(h.ChangePassword))
}
