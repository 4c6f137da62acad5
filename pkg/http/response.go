package http

import (
	"encoding/json"
	"net/http"
	"sync/atomic"

	apperrors "appointly/pkg/errors"
)

var exposeCauses atomic.Bool

// SetExposeErrorCauses controls whether error envelopes carry the wrapped cause.
// It is enabled outside production.
func SetExposeErrorCauses(enabled bool) {
	exposeCauses.Store(enabled)
}

// ExposeErrorCauses reports whether error causes are rendered.
func ExposeErrorCauses() bool {
	return exposeCauses.Load()
}

// Envelope is the body shape of every API response.
type Envelope struct {
	Success    bool                   `json:"success"`
	Data       any                    `json:"data,omitempty"`
	Message    string                 `json:"message,omitempty"`
	Code       string                 `json:"code,omitempty"`
	Errors     []apperrors.FieldError `json:"errors,omitempty"`
	Details    map[string]any         `json:"details,omitempty"`
	Pagination *Pagination            `json:"pagination,omitempty"`
	Cause      string                 `json:"error,omitempty"`
	Stack      string                 `json:"stack,omitempty"`
}

type Pagination struct {
	Total  int64 `json:"total"`
	Limit  int   `json:"limit"`
	Offset int64 `json:"offset"`
}

func WriteJSON(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// ErrorEnvelope renders err the way WriteError does, without writing it.
func ErrorEnvelope(err error) (int, Envelope) {
	appErr := apperrors.AsAppError(err)
	env := Envelope{
		Success: false,
		Message: appErr.Message,
		Code:    appErr.Code,
		Errors:  appErr.Fields,
		Details: appErr.Details,
	}
	if ExposeErrorCauses() && appErr.Err != nil {
		env.Cause = appErr.Err.Error()
	}
	return appErr.StatusCode(), env
}

func WriteError(w http.ResponseWriter, err error) error {
	status, env := ErrorEnvelope(err)
	return WriteJSON(w, status, env)
}

func WriteSuccess(w http.ResponseWriter, data any) error {
	return WriteJSON(w, http.StatusOK, Envelope{Success: true, Data: data})
}

func WriteMessage(w http.ResponseWriter, message string, data any) error {
	return WriteJSON(w, http.StatusOK, Envelope{Success: true, Message: message, Data: data})
}

func WriteCreated(w http.ResponseWriter, data any) error {
	return WriteJSON(w, http.StatusCreated, Envelope{Success: true, Data: data})
}

func WritePaginated(w http.ResponseWriter, data any, totalCount int64, limit int, offset int64) error {
	return WriteJSON(w, http.StatusOK, Envelope{
		Success: true,
		Data:    data,
		Pagination: &Pagination{
			Total:  totalCount,
			Limit:  limit,
			Offset: offset,
		},
	})
}
