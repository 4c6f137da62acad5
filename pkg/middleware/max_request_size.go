package middleware

import (
	"fmt"
	"net/http"

	apperrors "appointly/pkg/errors"
	httputil "appointly/pkg/http"
	"appointly/pkg/logger"
)

// MaxRequestSize caps request bodies at maxBytes. Declared lengths over the cap are rejected
// immediately; bodies without a declared length fail when the handler reads past the cap.
func MaxRequestSize(maxBytes int64, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				log.Warn("Request body too large",
					"request_id", RequestID(r.Context()),
					"content_length", r.ContentLength,
					"max_bytes", maxBytes,
				)
				err := apperrors.New(apperrors.CodeInvalidInput,
					fmt.Sprintf("Request body must not exceed %d bytes", maxBytes),
					http.StatusRequestEntityTooLarge)
				if writeErr := httputil.WriteError(w, err); writeErr != nil {
					log.Error("failed to write size rejection", "error", writeErr)
				}
				return
			}

			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}
