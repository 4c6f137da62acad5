package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apperrors "appointly/pkg/errors"
)

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("failed to decode envelope: %v (body=%s)", err, w.Body.String())
	}
	return env
}

func TestWriteError_AppErrorWithFields(t *testing.T) {
	w := httptest.NewRecorder()
	err := apperrors.ValidationFields("Booking validation failed", []apperrors.FieldError{
		{Field: "start_time", Message: "start_time must be in HH:MM format"},
	})

	if writeErr := WriteError(w, err); writeErr != nil {
		t.Fatalf("unexpected write error: %v", writeErr)
	}

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
	env := decodeEnvelope(t, w)
	if env.Success {
		t.Error("expected success=false")
	}
	if env.Code != apperrors.CodeValidation {
		t.Errorf("expected code %s, got %s", apperrors.CodeValidation, env.Code)
	}
	if len(env.Errors) != 1 || env.Errors[0].Field != "start_time" {
		t.Errorf("expected one start_time field error, got %+v", env.Errors)
	}
}

func TestWriteError_PlainErrorBecomesInternal(t *testing.T) {
	SetExposeErrorCauses(false)
	w := httptest.NewRecorder()

	_ = WriteError(w, errors.New("mongo exploded"))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", w.Code)
	}
	env := decodeEnvelope(t, w)
	if env.Code != apperrors.CodeInternal {
		t.Errorf("expected code %s, got %s", apperrors.CodeInternal, env.Code)
	}
	if env.Cause != "" {
		t.Errorf("cause must be hidden when exposure is disabled, got %q", env.Cause)
	}
}

func TestWriteError_CauseExposedOutsideProduction(t *testing.T) {
	SetExposeErrorCauses(true)
	t.Cleanup(func() { SetExposeErrorCauses(false) })

	w := httptest.NewRecorder()
	_ = WriteError(w, apperrors.Internal("Failed to create booking", errors.New("write concern timeout")))

	env := decodeEnvelope(t, w)
	if env.Cause != "write concern timeout" {
		t.Errorf("expected exposed cause, got %q", env.Cause)
	}
}

func TestWriteSuccess_EmptySliceKeepsData(t *testing.T) {
	w := httptest.NewRecorder()
	_ = WriteSuccess(w, []string{})

	if !strings.Contains(w.Body.String(), `"data":[]`) {
		t.Errorf("expected empty data array to be rendered, got %s", w.Body.String())
	}
}

func TestWritePaginated(t *testing.T) {
	w := httptest.NewRecorder()
	_ = WritePaginated(w, []int{1, 2}, 42, 2, 10)

	env := decodeEnvelope(t, w)
	if !env.Success {
		t.Error("expected success=true")
	}
	if env.Pagination == nil || env.Pagination.Total != 42 || env.Pagination.Limit != 2 || env.Pagination.Offset != 10 {
		t.Errorf("unexpected pagination %+v", env.Pagination)
	}
}

func TestWriteCreated(t *testing.T) {
	w := httptest.NewRecorder()
	_ = WriteCreated(w, map[string]string{"id": "abc"})

	if w.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected application/json, got %s", ct)
	}
}
