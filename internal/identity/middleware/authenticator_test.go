package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"appointly/internal/authz"
	"appointly/pkg/auth"
	apperrors "appointly/pkg/errors"
	"appointly/pkg/logger"
	"appointly/pkg/model"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubResolver struct {
	resolveFunc func(ctx context.Context, token string) (*authz.Principal, error)
}

func (s *stubResolver) Resolve(ctx context.Context, token string) (*authz.Principal, error) {
	return s.resolveFunc(ctx, token)
}

func newTestAuthenticator() *Authenticator {
	return NewAuthenticator(&stubResolver{
		resolveFunc: func(_ context.Context, token string) (*authz.Principal, error) {
			switch token {
			case "good":
				return &authz.Principal{ID: "p1", Role: model.RoleCustomer, TenantID: "t1"}, nil
			case "gone":
				return nil, apperrors.Deactivated("Account is deactivated")
			}
			return nil, apperrors.InvalidToken(auth.ErrInvalidClaims)
		},
	}, logger.Discard())
}

// echoPrincipal reports the principal found in the request context, or "anonymous".
func echoPrincipal(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if p, ok := authz.FromContext(r.Context()); ok {
		_, _ = w.Write([]byte(p.ID))
		return
	}
	_, _ = w.Write([]byte("anonymous"))
}

func serve(h httprouter.Handle, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/things", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	h(rec, req, nil)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Success bool   `json:"success"`
		Code    string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	return body.Code
}

func TestRequire(t *testing.T) {
	a := newTestAuthenticator()

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
		wantCode   string
	}{
		{name: "valid token", header: "Bearer good", wantStatus: http.StatusOK, wantBody: "p1"},
		{name: "lowercase scheme", header: "bearer good", wantStatus: http.StatusOK, wantBody: "p1"},
		{name: "missing header", wantStatus: http.StatusUnauthorized, wantCode: apperrors.CodeUnauthorized},
		{name: "wrong scheme", header: "Basic dXNlcjpwYXNz", wantStatus: http.StatusUnauthorized, wantCode: apperrors.CodeUnauthorized},
		{name: "invalid token", header: "Bearer forged", wantStatus: http.StatusUnauthorized, wantCode: apperrors.CodeInvalidToken},
		{name: "deactivated account", header: "Bearer gone", wantStatus: http.StatusUnauthorized, wantCode: apperrors.CodeDeactivated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(a.Require(echoPrincipal), tt.header)
			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, rec.Body.String())
			}
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, errorCode(t, rec))
			}
		})
	}
}

func TestOptional(t *testing.T) {
	a := newTestAuthenticator()

	rec := serve(a.Optional(echoPrincipal), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "anonymous", rec.Body.String())

	rec = serve(a.Optional(echoPrincipal), "Bearer good")
	assert.Equal(t, "p1", rec.Body.String())

	rec = serve(a.Optional(echoPrincipal), "Bearer forged")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header  string
		want    string
		wantErr bool
	}{
		{header: "Bearer abc.def.ghi", want: "abc.def.ghi"},
		{header: "BEARER   abc ", want: "abc"},
		{header: "Bearer ", wantErr: true},
		{header: "Bearerabc", wantErr: true},
		{header: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", tt.header)
			got, err := BearerToken(req)
			if tt.wantErr {
				assert.ErrorIs(t, err, auth.ErrMissingToken)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
