package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"appointly/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEnvelope(w http.ResponseWriter, status int, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestAPIClient_LoginStoresToken(t *testing.T) {
	var authHeader string
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req model.LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "owner@biz.com", req.Email)
		writeEnvelope(w, http.StatusOK, map[string]any{
			"success": true,
			"data":    map[string]any{"token": "tok-123", "role": "tenant"},
		})
	})
	mux.HandleFunc("/api/v1/auth/me", func(w http.ResponseWriter, r *http.Request) {
		authHeader = r.Header.Get("Authorization")
		writeEnvelope(w, http.StatusOK, map[string]any{"success": true, "data": map[string]any{"name": "Biz"}})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewAPIClient(srv.URL)
	result, err := c.Login(context.Background(), model.LoginRequest{Email: "owner@biz.com", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "tok-123", result.Token)
	assert.Equal(t, model.RoleTenant, result.Role)
	assert.Equal(t, "tok-123", c.Token())

	account, err := c.Me(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Biz"}`, string(account))
	assert.Equal(t, "Bearer tok-123", authHeader)
}

func TestAPIClient_ErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"code":    "VALIDATION_ERROR",
			"message": "Validation failed",
			"errors":  []map[string]string{{"field": "start_time", "message": "invalid"}},
		})
	}))
	defer srv.Close()

	_, err := NewAPIClient(srv.URL).CreateBooking(context.Background(), model.BookingCreate{ServiceID: "x"}, "")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "VALIDATION_ERROR", apiErr.Code)
	require.Len(t, apiErr.Fields, 1)
	assert.Equal(t, "start_time", apiErr.Fields[0].Field)
}

func TestAPIClient_CreateBookingSendsIdempotencyKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "key-1", r.Header.Get(IdempotencyHeader))
		writeEnvelope(w, http.StatusCreated, map[string]any{
			"success": true,
			"data": map[string]any{
				"id":       "64b7f0c2a1b2c3d4e5f6aaaa",
				"status":   "pending",
				"end_time": "11:00",
				"service":  map[string]any{"name": "Cut"},
			},
		})
	}))
	defer srv.Close()

	details, err := NewAPIClient(srv.URL).CreateBooking(context.Background(), model.BookingCreate{}, "key-1")
	require.NoError(t, err)
	assert.Equal(t, "64b7f0c2a1b2c3d4e5f6aaaa", details.ID)
	assert.Equal(t, model.StatusPending, details.Status)
	assert.Equal(t, "11:00", details.EndTime)
	require.NotNil(t, details.Service)
	assert.Equal(t, "Cut", details.Service.Name)
}

func TestAPIClient_UpdateBookingStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/v1/bookings/abc/status", r.URL.Path)
		var body model.StatusUpdate
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		writeEnvelope(w, http.StatusOK, map[string]any{"success": true, "data": map[string]any{"id": "abc", "status": body.Status}})
	}))
	defer srv.Close()

	details, err := NewAPIClient(srv.URL).UpdateBookingStatus(context.Background(), "abc", model.StatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, model.StatusConfirmed, details.Status)
}

func TestAPIClient_SearchServices(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		q := r.URL.Query()
		assert.Equal(t, "20", q.Get("minPrice"))
		assert.Equal(t, "100", q.Get("maxPrice"))
		assert.Equal(t, "5", q.Get("limit"))
		assert.Empty(t, q.Get("category"))
		writeEnvelope(w, http.StatusOK, map[string]any{
			"success":    true,
			"data":       []map[string]any{{"name": "Cut", "pricing": map[string]any{"base_price": 50}}},
			"pagination": map[string]any{"total": 1, "limit": 5, "offset": 0},
		})
	}))
	defer srv.Close()

	lo, hi := 20.0, 100.0
	services, page, err := NewAPIClient(srv.URL).SearchServices(context.Background(), model.ServiceSearch{MinPrice: &lo, MaxPrice: &hi}, 5, 0)
	require.NoError(t, err)
	require.Len(t, services, 1)
	assert.Equal(t, 50.0, services[0].Pricing.BasePrice)
	require.NotNil(t, page)
	assert.Equal(t, int64(1), page.Total)
	assert.Equal(t, int32(2), calls.Load())
}

func TestAPIClient_RegisterTenantStoresToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/auth/register", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))
		var req model.TenantRegistration
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "biz", req.Subdomain)
		writeEnvelope(w, http.StatusCreated, map[string]any{
			"success": true,
			"data":    map[string]any{"token": "owner-tok", "role": "tenant", "tenant_id": "t1"},
		})
	}))
	defer srv.Close()

	c := NewAPIClient(srv.URL)
	result, err := c.RegisterTenant(context.Background(), model.TenantRegistration{Name: "Biz", Subdomain: "biz", Email: "a@biz.com", Password: "password1"})
	require.NoError(t, err)
	assert.Equal(t, "t1", result.TenantID)
	assert.Equal(t, "owner-tok", c.Token())
}

func TestAPIClient_AssignProviders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/v1/services/svc1/providers", r.URL.Path)
		var body model.ProviderAssignment
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		writeEnvelope(w, http.StatusOK, map[string]any{
			"success": true,
			"data":    map[string]any{"id": "svc1", "providers": body.ProviderIDs},
		})
	}))
	defer srv.Close()

	svc, err := NewAPIClient(srv.URL).AssignProviders(context.Background(), "svc1", []string{"p1", "p2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p2"}, svc.Providers)
}
