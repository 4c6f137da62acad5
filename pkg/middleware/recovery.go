package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	apperrors "appointly/pkg/errors"
	httputil "appointly/pkg/http"
	"appointly/pkg/logger"
)

func Recovery(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					stack := string(debug.Stack())

					log.Error("Panic recovered",
						"request_id", RequestID(r.Context()),
						"error", rec,
						"method", r.Method,
						"path", r.URL.Path,
						"stack", stack,
					)

					status, env := httputil.ErrorEnvelope(
						apperrors.Internal("Internal server error", fmt.Errorf("panic: %v", rec)),
					)
					if httputil.ExposeErrorCauses() {
						env.Stack = stack
					}
					if err := httputil.WriteJSON(w, status, env); err != nil {
						log.Error("failed to write panic response", "error", err)
					}
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
