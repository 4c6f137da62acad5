package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	apperrors "appointly/pkg/errors"
	"appointly/pkg/model"

	"github.com/go-resty/resty/v2"
)

const IdempotencyHeader = "Idempotency-Key"

// APIError is a failed API call. Status is the HTTP status; Code mirrors the envelope code.
type APIError struct {
	Status  int
	Code    string
	Message string
	Fields  []apperrors.FieldError
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d %s: %s", e.Status, e.Code, e.Message)
}

type envelope struct {
	Success    bool                   `json:"success"`
	Data       json.RawMessage        `json:"data"`
	Message    string                 `json:"message"`
	Code       string                 `json:"code"`
	Errors     []apperrors.FieldError `json:"errors"`
	Pagination *Page                  `json:"pagination"`
}

type Page struct {
	Total  int64 `json:"total"`
	Limit  int   `json:"limit"`
	Offset int64 `json:"offset"`
}

// APIClient is a typed client for the HTTP API. Login stores the token for later calls.
type APIClient struct {
	http *resty.Client

	mu    sync.RWMutex
	token string
}

func NewAPIClient(baseURL string) *APIClient {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10*time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(200*time.Millisecond).
		SetRetryMaxWaitTime(2*time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	// Only idempotent reads are retried.
	c.AddRetryCondition(func(r *resty.Response, err error) bool {
		if r == nil || r.Request == nil || r.Request.Method != http.MethodGet {
			return false
		}
		return err != nil || r.StatusCode() >= http.StatusInternalServerError
	})
	return &APIClient{http: c}
}

func (c *APIClient) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *APIClient) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *APIClient) Login(ctx context.Context, req model.LoginRequest) (*model.AuthResult, error) {
	return c.authenticate(ctx, "/api/v1/auth/login", req)
}

// RegisterTenant signs up a business and keeps the owner token, like Login.
func (c *APIClient) RegisterTenant(ctx context.Context, req model.TenantRegistration) (*model.AuthResult, error) {
	return c.authenticate(ctx, "/api/v1/auth/register", req)
}

func (c *APIClient) RegisterCustomer(ctx context.Context, req model.CustomerRegistration) (*model.AuthResult, error) {
	return c.authenticate(ctx, "/api/v1/auth/register/customer", req)
}

func (c *APIClient) authenticate(ctx context.Context, path string, body any) (*model.AuthResult, error) {
	var result model.AuthResult
	if _, err := c.do(ctx, http.MethodPost, path, body, nil, &result); err != nil {
		return nil, err
	}
	c.SetToken(result.Token)
	return &result, nil
}

// Me returns the raw account document: a tenant for owners, a principal otherwise.
func (c *APIClient) Me(ctx context.Context) (json.RawMessage, error) {
	var account json.RawMessage
	if _, err := c.do(ctx, http.MethodGet, "/api/v1/auth/me", nil, nil, &account); err != nil {
		return nil, err
	}
	return account, nil
}

func (c *APIClient) CreateService(ctx context.Context, service *model.Service) (*model.Service, error) {
	var created model.Service
	if _, err := c.do(ctx, http.MethodPost, "/api/v1/services", service, nil, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *APIClient) CreateUser(ctx context.Context, req model.PrincipalCreate) (*model.Principal, error) {
	var created model.Principal
	if _, err := c.do(ctx, http.MethodPost, "/api/v1/users", req, nil, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// AssignProviders replaces the provider set of a service.
func (c *APIClient) AssignProviders(ctx context.Context, serviceID string, providerIDs []string) (*model.Service, error) {
	var updated model.Service
	path := "/api/v1/services/" + url.PathEscape(serviceID) + "/providers"
	if _, err := c.do(ctx, http.MethodPut, path, model.ProviderAssignment{ProviderIDs: providerIDs}, nil, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// CreateBooking sends idempotencyKey when non-empty so a retried request is not booked twice.
func (c *APIClient) CreateBooking(ctx context.Context, req model.BookingCreate, idempotencyKey string) (*model.BookingDetails, error) {
	var headers map[string]string
	if idempotencyKey != "" {
		headers = map[string]string{IdempotencyHeader: idempotencyKey}
	}
	details := model.BookingDetails{Booking: &model.Booking{}}
	if _, err := c.do(ctx, http.MethodPost, "/api/v1/bookings", req, headers, &details); err != nil {
		return nil, err
	}
	return &details, nil
}

func (c *APIClient) UpdateBookingStatus(ctx context.Context, id string, status model.BookingStatus) (*model.BookingDetails, error) {
	details := model.BookingDetails{Booking: &model.Booking{}}
	path := "/api/v1/bookings/" + url.PathEscape(id) + "/status"
	if _, err := c.do(ctx, http.MethodPut, path, model.StatusUpdate{Status: status}, nil, &details); err != nil {
		return nil, err
	}
	return &details, nil
}

func (c *APIClient) SearchServices(ctx context.Context, q model.ServiceSearch, limit int, offset int64) ([]*model.Service, *Page, error) {
	params := url.Values{}
	setStr(params, "q", q.Query)
	setStr(params, "category", q.Category)
	setStr(params, "tenant", q.Tenant)
	setFloat(params, "minPrice", q.MinPrice)
	setFloat(params, "maxPrice", q.MaxPrice)
	setFloat(params, "minRating", q.MinRating)
	if q.MinDuration != nil {
		params.Set("minDuration", strconv.Itoa(*q.MinDuration))
	}
	if q.MaxDuration != nil {
		params.Set("maxDuration", strconv.Itoa(*q.MaxDuration))
	}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		params.Set("offset", strconv.FormatInt(offset, 10))
	}

	path := "/api/v1/search/services"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}
	var services []*model.Service
	page, err := c.do(ctx, http.MethodGet, path, nil, nil, &services)
	if err != nil {
		return nil, nil, err
	}
	return services, page, nil
}

func setStr(params url.Values, key, value string) {
	if value != "" {
		params.Set(key, value)
	}
}

func setFloat(params url.Values, key string, value *float64) {
	if value != nil {
		params.Set(key, strconv.FormatFloat(*value, 'f', -1, 64))
	}
}

// do sends the request and decodes the envelope's data into out. A success:false
// envelope or a non-2xx status becomes *APIError.
func (c *APIClient) do(ctx context.Context, method, path string, body any, headers map[string]string, out any) (*Page, error) {
	req := c.http.R().SetContext(ctx).SetHeaders(headers)
	if token := c.Token(); token != "" {
		req.SetAuthToken(token)
	}
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return nil, fmt.Errorf("request %s %s failed: %w", method, path, err)
	}

	var env envelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		if resp.IsError() {
			return nil, &APIError{Status: resp.StatusCode(), Message: resp.Status()}
		}
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if !env.Success || resp.IsError() {
		return nil, &APIError{
			Status:  resp.StatusCode(),
			Code:    env.Code,
			Message: env.Message,
			Fields:  env.Errors,
		}
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return nil, fmt.Errorf("failed to decode response data: %w", err)
		}
	}
	return env.Pagination, nil
}
