package middleware

import (
	"net/http"
	"strings"

	"appointly/internal/authz"
	"appointly/internal/identity/service"
	"appointly/pkg/auth"
	apperrors "appointly/pkg/errors"
	httputil "appointly/pkg/http"
	"appointly/pkg/logger"
	"appointly/pkg/middleware"

	"github.com/julienschmidt/httprouter"
)

const bearerPrefix = "bearer "

// Authenticator resolves the bearer token of each request and stores the principal in its context.
type Authenticator struct {
	resolver service.Resolver
	log      *logger.Logger
}

func NewAuthenticator(resolver service.Resolver, log *logger.Logger) *Authenticator {
	return &Authenticator{
		resolver: resolver,
		log:      log,
	}
}

// Require rejects requests without a valid bearer token.
func (a *Authenticator) Require(next httprouter.Handle) httprouter.Handle {
	return a.wrap(next, true)
}

// Optional admits anonymous requests. A token that is present must still be valid.
func (a *Authenticator) Optional(next httprouter.Handle) httprouter.Handle {
	return a.wrap(next, false)
}

func (a *Authenticator) wrap(next httprouter.Handle, required bool) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		token, err := BearerToken(r)
		if err != nil {
			if !required {
				next(w, r, ps)
				return
			}
			a.reject(w, r, apperrors.Unauthorized("Authentication required"))
			return
		}

		principal, err := a.resolver.Resolve(r.Context(), token)
		if err != nil {
			a.reject(w, r, err)
			return
		}

		next(w, r.WithContext(authz.WithPrincipal(r.Context(), principal)), ps)
	}
}

func (a *Authenticator) reject(w http.ResponseWriter, r *http.Request, err error) {
	appErr := apperrors.AsAppError(err)
	if appErr.StatusCode() >= http.StatusInternalServerError {
		a.log.Error("Authentication failed",
			"request_id", middleware.RequestID(r.Context()),
			"path", r.URL.Path,
			"error", err,
		)
	} else {
		a.log.Warn("Authentication rejected",
			"request_id", middleware.RequestID(r.Context()),
			"path", r.URL.Path,
			"code", appErr.Code,
		)
	}
	if writeErr := httputil.WriteError(w, appErr); writeErr != nil {
		a.log.Error("failed to write error response", "handler", "Authenticator", "operation", "WriteError", "error", writeErr)
	}
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(r *http.Request) (string, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) <= len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return "", auth.ErrMissingToken
	}
	token := strings.TrimSpace(header[len(bearerPrefix):])
	if token == "" {
		return "", auth.ErrMissingToken
	}
	return token, nil
}
