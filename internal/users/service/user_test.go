package service

import (
	"context"
	"testing"
	"time"

	"appointly/internal/authz"
	userserrors "appointly/internal/users/errors"
	"appointly/pkg/auth"
	"appointly/pkg/config"
	apperrors "appointly/pkg/errors"
	"appointly/pkg/logger"
	"appointly/pkg/model"
	"appointly/pkg/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// ────────────────────────────────────────────────
// Mock repository for testing
// ────────────────────────────────────────────────

type mockPrincipalRepository struct {
	principals map[string]*model.Principal

	createFunc func(ctx context.Context, principal *model.Principal) error
	nextID     int
}

func newMockRepo(principals ...*model.Principal) *mockPrincipalRepository {
	m := &mockPrincipalRepository{principals: map[string]*model.Principal{}}
	for _, p := range principals {
		m.principals[p.ID] = p
	}
	return m
}

func (m *mockPrincipalRepository) visible(scope authz.Scope, id string) (*model.Principal, bool) {
	p, ok := m.principals[id]
	if !ok || !scope.Allows(p.TenantID) {
		return nil, false
	}
	return p, true
}

func (m *mockPrincipalRepository) Create(ctx context.Context, principal *model.Principal) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, principal)
	}
	m.nextID++
	principal.ID = "64b7f0c2a1b2c3d4e5f6a00" + string(rune('0'+m.nextID))
	m.principals[principal.ID] = principal
	return nil
}

func (m *mockPrincipalRepository) FindByID(_ context.Context, scope authz.Scope, id string) (*model.Principal, error) {
	p, ok := m.visible(scope, id)
	if !ok {
		return nil, userserrors.ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (m *mockPrincipalRepository) FindByIDs(_ context.Context, scope authz.Scope, ids []string) ([]*model.Principal, error) {
	var out []*model.Principal
	for _, id := range ids {
		if p, ok := m.visible(scope, id); ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockPrincipalRepository) FindByEmail(_ context.Context, tenantID string, email string) (*model.Principal, error) {
	for _, p := range m.principals {
		if p.TenantID == tenantID && p.Email == email {
			return p, nil
		}
	}
	return nil, userserrors.ErrNotFound
}

func (m *mockPrincipalRepository) FindAllByEmail(_ context.Context, email string, limit int) ([]*model.Principal, error) {
	var out []*model.Principal
	for _, p := range m.principals {
		if p.Email == email && len(out) < limit {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockPrincipalRepository) FindAll(_ context.Context, scope authz.Scope, filter model.PrincipalFilter, limit int, offset int64) ([]*model.Principal, error) {
	var out []*model.Principal
	for _, p := range m.principals {
		if !scope.Allows(p.TenantID) || (filter.Role != "" && p.Role != filter.Role) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (m *mockPrincipalRepository) Count(ctx context.Context, scope authz.Scope, filter model.PrincipalFilter) (int64, error) {
	all, _ := m.FindAll(ctx, scope, filter, 0, 0)
	return int64(len(all)), nil
}

func (m *mockPrincipalRepository) ExistsByEmail(ctx context.Context, tenantID string, email string) (bool, error) {
	_, err := m.FindByEmail(ctx, tenantID, email)
	return err == nil, nil
}

func (m *mockPrincipalRepository) Update(_ context.Context, scope authz.Scope, id string, principal *model.Principal) error {
	if _, ok := m.visible(scope, id); !ok {
		return userserrors.ErrNotFound
	}
	m.principals[id] = principal
	return nil
}

func (m *mockPrincipalRepository) UpdateAvailability(_ context.Context, scope authz.Scope, id string, availability model.Availability) error {
	p, ok := m.visible(scope, id)
	if !ok {
		return userserrors.ErrNotFound
	}
	p.Provider.Availability = availability
	return nil
}

func (m *mockPrincipalRepository) UpdateRating(_ context.Context, id string, rating model.RatingSummary) error {
	return nil
}

func (m *mockPrincipalRepository) SetActive(_ context.Context, scope authz.Scope, id string, active bool) error {
	p, ok := m.visible(scope, id)
	if !ok {
		return userserrors.ErrNotFound
	}
	p.IsActive = active
	return nil
}

func (m *mockPrincipalRepository) SetLastLogin(context.Context, string, time.Time) error {
	return nil
}

func (m *mockPrincipalRepository) SetPasswordHash(context.Context, string, string) error {
	return nil
}

const (
	tenantA   = "64b7f0c2a1b2c3d4e5f60001"
	tenantB   = "64b7f0c2a1b2c3d4e5f60002"
	providerA = "64b7f0c2a1b2c3d4e5f6b001"
	customerA = "64b7f0c2a1b2c3d4e5f6b002"
	providerB = "64b7f0c2a1b2c3d4e5f6b003"
)

func newTestService(repo *mockPrincipalRepository) UserService {
	cfg := &config.Config{
		Log:          logger.Discard(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
	return NewUserService(repo, auth.NewHasher(bcrypt.MinCost), validation.New(cfg.Log), cfg)
}

func seededRepo() *mockPrincipalRepository {
	return newMockRepo(
		&model.Principal{ID: providerA, TenantID: tenantA, Name: "Pat Provider", Email: "pat@a.com", PasswordHash: "h",
			Role: model.RoleServiceProvider, Provider: &model.ProviderProfile{}, IsActive: true},
		&model.Principal{ID: customerA, TenantID: tenantA, Name: "Cam Customer", Email: "cam@a.com", PasswordHash: "h",
			Role: model.RoleCustomer, Customer: &model.CustomerProfile{}, IsActive: true},
		&model.Principal{ID: providerB, TenantID: tenantB, Name: "Other Provider", Email: "o@b.com", PasswordHash: "h",
			Role: model.RoleServiceProvider, Provider: &model.ProviderProfile{}, IsActive: true},
	)
}

func TestCreate_ScopesToCallerTenant(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)

	created, err := svc.Create(context.Background(),
		&authz.Principal{ID: tenantA, Role: model.RoleTenant},
		&model.PrincipalCreate{
			TenantID: tenantB,
			Name:     "New Provider",
			Email:    "NEW@A.COM",
			Password: "password123",
			Role:     model.RoleServiceProvider,
		})
	require.NoError(t, err)

	assert.Equal(t, tenantA, created.TenantID, "tenant callers cannot create users elsewhere")
	assert.Equal(t, "new@a.com", created.Email)
	assert.NotEqual(t, "password123", created.PasswordHash)
	assert.NotNil(t, created.Provider)
	assert.True(t, created.IsActive)
}

func TestCreate_AdminMustNameTenant(t *testing.T) {
	svc := newTestService(newMockRepo())

	_, err := svc.Create(context.Background(),
		&authz.Principal{ID: "adm", Role: model.RoleAdmin},
		&model.PrincipalCreate{Name: "Someone", Email: "s@x.com", Password: "password123", Role: model.RoleCustomer})
	require.Error(t, err)
	appErr := apperrors.AsAppError(err)
	assert.Equal(t, apperrors.CodeValidation, appErr.Code)
	assert.Equal(t, "tenant_id", appErr.Fields[0].Field)
}

func TestCreate_RoleGate(t *testing.T) {
	svc := newTestService(newMockRepo())

	_, err := svc.Create(context.Background(),
		&authz.Principal{ID: customerA, Role: model.RoleCustomer, TenantID: tenantA},
		&model.PrincipalCreate{Name: "Someone", Email: "s@x.com", Password: "password123", Role: model.RoleCustomer})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
}

func TestRegister_DuplicateEmailWithinTenant(t *testing.T) {
	svc := newTestService(seededRepo())

	err := svc.Register(context.Background(), &model.Principal{
		TenantID: tenantA, Name: "Dup", Email: "PAT@a.com", PasswordHash: "h", Role: model.RoleCustomer,
	})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict), "got %v", err)

	err = svc.Register(context.Background(), &model.Principal{
		TenantID: tenantB, Name: "Same Email", Email: "pat@a.com", PasswordHash: "h", Role: model.RoleCustomer,
	})
	assert.NoError(t, err, "email uniqueness is per tenant")
}

func TestGetByID_IsolationAndOwnership(t *testing.T) {
	svc := newTestService(seededRepo())

	tests := []struct {
		name     string
		caller   *authz.Principal
		id       string
		wantCode string
	}{
		{"tenant reads staff", &authz.Principal{ID: tenantA, Role: model.RoleTenant}, providerA, ""},
		{"self read", &authz.Principal{ID: customerA, Role: model.RoleCustomer, TenantID: tenantA}, customerA, ""},
		{"admin reads anyone", &authz.Principal{ID: "adm", Role: model.RoleAdmin}, providerB, ""},
		{"customer reads provider", &authz.Principal{ID: customerA, Role: model.RoleCustomer, TenantID: tenantA}, providerA, apperrors.CodeForbidden},
		{"cross tenant is not found", &authz.Principal{ID: tenantA, Role: model.RoleTenant}, providerB, apperrors.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := svc.GetByID(context.Background(), tt.caller, tt.id)
			if tt.wantCode == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.id, p.ID)
				return
			}
			assert.True(t, apperrors.HasCode(err, tt.wantCode), "got %v", err)
		})
	}
}

func TestGetAll_OnlyCallerTenant(t *testing.T) {
	svc := newTestService(seededRepo())

	users, total, err := svc.GetAll(context.Background(),
		&authz.Principal{ID: tenantA, Role: model.RoleTenant},
		model.PrincipalFilter{Role: model.RoleServiceProvider}, 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, users, 1)
	assert.Equal(t, providerA, users[0].ID)

	_, _, err = svc.GetAll(context.Background(),
		&authz.Principal{ID: tenantA, Role: model.RoleTenant},
		model.PrincipalFilter{Role: "owner"}, 10, 0)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidInput))
}

func TestUpdate_RejectsMismatchedProfile(t *testing.T) {
	svc := newTestService(seededRepo())

	_, err := svc.Update(context.Background(),
		&authz.Principal{ID: customerA, Role: model.RoleCustomer, TenantID: tenantA},
		customerA, &model.PrincipalUpdate{Provider: &model.ProviderProfile{Bio: "nope"}})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation), "got %v", err)
}

func TestUpdateAvailability(t *testing.T) {
	repo := seededRepo()
	svc := newTestService(repo)
	self := &authz.Principal{ID: providerA, Role: model.RoleServiceProvider, TenantID: tenantA}

	err := svc.UpdateAvailability(context.Background(), self, providerA, &model.Availability{
		Weekly: []model.WeeklyWindow{{Day: "monday", Start: "09:00", End: "17:00"}},
	})
	require.NoError(t, err)
	assert.Len(t, repo.principals[providerA].Provider.Availability.Weekly, 1)

	err = svc.UpdateAvailability(context.Background(), self, providerA, &model.Availability{
		Weekly: []model.WeeklyWindow{{Day: "monday", Start: "17:00", End: "09:00"}},
	})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation), "inverted window, got %v", err)

	err = svc.UpdateAvailability(context.Background(),
		&authz.Principal{ID: tenantA, Role: model.RoleTenant}, customerA, &model.Availability{})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidState), "customers have no availability, got %v", err)
}

func TestDeactivate_Idempotent(t *testing.T) {
	repo := seededRepo()
	svc := newTestService(repo)
	owner := &authz.Principal{ID: tenantA, Role: model.RoleTenant}

	require.NoError(t, svc.Deactivate(context.Background(), owner, providerA))
	require.NoError(t, svc.Deactivate(context.Background(), owner, providerA))
	assert.False(t, repo.principals[providerA].IsActive)

	err := svc.Deactivate(context.Background(), owner, providerB)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}
