package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"appointly/internal/authz"
	"appointly/internal/testutil"
	apperrors "appointly/pkg/errors"
	httputil "appointly/pkg/http"
	"appointly/pkg/logger"
	"appointly/pkg/model"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockBookingService struct {
	createFunc         func(ctx context.Context, caller *authz.Principal, req *model.BookingCreate) (*model.BookingDetails, error)
	getAllFunc         func(ctx context.Context, caller *authz.Principal, filter model.BookingFilter, limit int, offset int64) ([]*model.Booking, int64, error)
	updateStatusFunc   func(ctx context.Context, caller *authz.Principal, id string, req *model.StatusUpdate) (*model.Booking, error)
	cancelFunc         func(ctx context.Context, caller *authz.Principal, id string, req *model.CancelRequest) (*model.Booking, error)
	submitFeedbackFunc func(ctx context.Context, caller *authz.Principal, id string, req *model.FeedbackRequest) (*model.Booking, error)
}

func (m *mockBookingService) Create(ctx context.Context, caller *authz.Principal, req *model.BookingCreate) (*model.BookingDetails, error) {
	return m.createFunc(ctx, caller, req)
}

func (m *mockBookingService) GetByID(ctx context.Context, caller *authz.Principal, id string) (*model.BookingDetails, error) {
	return nil, apperrors.NotFoundWithID("Booking", id)
}

func (m *mockBookingService) GetAll(ctx context.Context, caller *authz.Principal, filter model.BookingFilter, limit int, offset int64) ([]*model.Booking, int64, error) {
	return m.getAllFunc(ctx, caller, filter, limit, offset)
}

func (m *mockBookingService) UpdateStatus(ctx context.Context, caller *authz.Principal, id string, req *model.StatusUpdate) (*model.Booking, error) {
	return m.updateStatusFunc(ctx, caller, id, req)
}

func (m *mockBookingService) Reschedule(ctx context.Context, caller *authz.Principal, id string, req *model.RescheduleRequest) (*model.Booking, error) {
	return &model.Booking{ID: id, StartTime: req.StartTime}, nil
}

func (m *mockBookingService) Cancel(ctx context.Context, caller *authz.Principal, id string, req *model.CancelRequest) (*model.Booking, error) {
	return m.cancelFunc(ctx, caller, id, req)
}

func (m *mockBookingService) SubmitFeedback(ctx context.Context, caller *authz.Principal, id string, req *model.FeedbackRequest) (*model.Booking, error) {
	return m.submitFeedbackFunc(ctx, caller, id, req)
}

const bookingID = "64b7f0c2a1b2c3d4e5f6bbbb"

var customer = &authz.Principal{ID: "64b7f0c2a1b2c3d4e5f60003", Role: model.RoleCustomer, TenantID: "64b7f0c2a1b2c3d4e5f60001"}

func newRouter(svc *mockBookingService, principal *authz.Principal) *httprouter.Router {
	router := httprouter.New()
	NewBookingHandler(svc, &testutil.Authenticator{Principal: principal}, logger.Discard()).RegisterRoutes(router)
	return router
}

func do(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) httputil.Envelope {
	t.Helper()
	var env httputil.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestCreate(t *testing.T) {
	var received *model.BookingCreate
	svc := &mockBookingService{
		createFunc: func(_ context.Context, caller *authz.Principal, req *model.BookingCreate) (*model.BookingDetails, error) {
			received = req
			return &model.BookingDetails{Booking: &model.Booking{
				ID:         bookingID,
				CustomerID: caller.ID,
				StartTime:  req.StartTime,
				EndTime:    "11:00",
				Status:     model.StatusPending,
				Pricing:    model.BookingPricing{FinalPrice: 50},
			}}, nil
		},
	}

	rec := do(newRouter(svc, customer), http.MethodPost, "/api/v1/bookings",
		`{"service_id":"64b7f0c2a1b2c3d4e5f60010","provider_id":"64b7f0c2a1b2c3d4e5f60002","appointment_date":"2030-05-17","start_time":"10:00","notes":{"customer":"first visit"}}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, received)
	assert.Equal(t, "2030-05-17", received.AppointmentDate)
	assert.Equal(t, "first visit", received.Notes.Customer)

	var body struct {
		Success bool `json:"success"`
		Data    struct {
			ID        string  `json:"id"`
			EndTime   string  `json:"end_time"`
			Status    string  `json:"status"`
			Pricing   struct{ FinalPrice float64 `json:"final_price"` } `json:"pricing"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, bookingID, body.Data.ID)
	assert.Equal(t, "11:00", body.Data.EndTime)
	assert.Equal(t, "pending", body.Data.Status)
	assert.Equal(t, 50.0, body.Data.Pricing.FinalPrice)
}

func TestCreate_ValidationError(t *testing.T) {
	svc := &mockBookingService{
		createFunc: func(context.Context, *authz.Principal, *model.BookingCreate) (*model.BookingDetails, error) {
			return nil, apperrors.ValidationFields("Validation failed", []apperrors.FieldError{
				{Field: "start_time", Message: "start_time must be in HH:MM format"},
			})
		},
	}

	rec := do(newRouter(svc, customer), http.MethodPost, "/api/v1/bookings", `{"start_time":"9am"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decode(t, rec)
	assert.False(t, env.Success)
	assert.Equal(t, apperrors.CodeValidation, env.Code)
	require.Len(t, env.Errors, 1)
	assert.Equal(t, "start_time", env.Errors[0].Field)
}

func TestCreate_RequiresAuthentication(t *testing.T) {
	rec := do(newRouter(&mockBookingService{}, nil), http.MethodPost, "/api/v1/bookings", `{}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetAll_Filters(t *testing.T) {
	var got model.BookingFilter
	var gotLimit int
	svc := &mockBookingService{
		getAllFunc: func(_ context.Context, _ *authz.Principal, filter model.BookingFilter, limit int, offset int64) ([]*model.Booking, int64, error) {
			got = filter
			gotLimit = limit
			return []*model.Booking{{ID: bookingID}}, 1, nil
		},
	}

	rec := do(newRouter(svc, customer), http.MethodGet,
		"/api/v1/bookings?status=confirmed&service_id=s1&from=2030-05-01&to=2030-05-31&limit=5", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.StatusConfirmed, got.Status)
	assert.Equal(t, "s1", got.ServiceID)
	require.NotNil(t, got.From)
	require.NotNil(t, got.To)
	assert.True(t, got.From.Equal(time.Date(2030, 5, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, got.To.Equal(time.Date(2030, 5, 31, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 5, gotLimit)

	env := decode(t, rec)
	require.NotNil(t, env.Pagination)
	assert.EqualValues(t, 1, env.Pagination.Total)
}

func TestGetAll_BadDate(t *testing.T) {
	rec := do(newRouter(&mockBookingService{}, customer), http.MethodGet, "/api/v1/bookings?from=May", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, apperrors.CodeInvalidInput, decode(t, rec).Code)
}

func TestUpdateStatus(t *testing.T) {
	svc := &mockBookingService{
		updateStatusFunc: func(_ context.Context, _ *authz.Principal, id string, req *model.StatusUpdate) (*model.Booking, error) {
			return &model.Booking{ID: id, Status: req.Status}, nil
		},
	}
	router := newRouter(svc, customer)

	for _, status := range []string{"completed", "pending"} {
		rec := do(router, http.MethodPut, "/api/v1/bookings/"+bookingID+"/status", `{"status":"`+status+`"}`)
		assert.Equal(t, http.StatusOK, rec.Code, status)
		assert.Equal(t, "Booking status updated successfully", decode(t, rec).Message)
	}
}

func TestCancel_EmptyBody(t *testing.T) {
	var gotID string
	svc := &mockBookingService{
		cancelFunc: func(_ context.Context, _ *authz.Principal, id string, req *model.CancelRequest) (*model.Booking, error) {
			gotID = id
			assert.Empty(t, req.Reason)
			return &model.Booking{ID: id, Status: model.StatusCancelled}, nil
		},
	}

	rec := do(newRouter(svc, customer), http.MethodPut, "/api/v1/bookings/"+bookingID+"/cancel", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, bookingID, gotID)
}

func TestSubmitFeedback_InvalidState(t *testing.T) {
	svc := &mockBookingService{
		submitFeedbackFunc: func(context.Context, *authz.Principal, string, *model.FeedbackRequest) (*model.Booking, error) {
			return nil, apperrors.InvalidState("Feedback can only be submitted for completed bookings")
		},
	}

	rec := do(newRouter(svc, customer), http.MethodPost, "/api/v1/bookings/"+bookingID+"/feedback", `{"rating":5}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decode(t, rec)
	assert.False(t, env.Success)
	assert.Equal(t, apperrors.CodeInvalidState, env.Code)
}

func TestGetByID_NotFound(t *testing.T) {
	rec := do(newRouter(&mockBookingService{}, customer), http.MethodGet, "/api/v1/bookings/"+bookingID, "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, apperrors.CodeNotFound, decode(t, rec).Code)
}
