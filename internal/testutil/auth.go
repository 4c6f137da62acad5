package testutil

import (
	"net/http"

	"appointly/internal/authz"
	apperrors "appointly/pkg/errors"
	httputil "appointly/pkg/http"

	"github.com/julienschmidt/httprouter"
)

// Authenticator attaches a fixed principal to every request. A nil Principal makes Require
// answer 401 and Optional pass the request through anonymously.
type Authenticator struct {
	Principal *authz.Principal
}

func (a *Authenticator) Require(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if a.Principal == nil {
			_ = httputil.WriteError(w, apperrors.Unauthorized("Authentication required"))
			return
		}
		next(w, r.WithContext(authz.WithPrincipal(r.Context(), a.Principal)), ps)
	}
}

func (a *Authenticator) Optional(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if a.Principal == nil {
			next(w, r, ps)
			return
		}
		next(w, r.WithContext(authz.WithPrincipal(r.Context(), a.Principal)), ps)
	}
}
