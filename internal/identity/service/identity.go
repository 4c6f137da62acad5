package service

import (
	"context"
	"errors"
	"time"

	"appointly/internal/authz"
	tenantserrors "appointly/internal/tenants/errors"
	tenantsrepo "appointly/internal/tenants/repository"
	tenantsservice "appointly/internal/tenants/service"
	userserrors "appointly/internal/users/errors"
	usersrepo "appointly/internal/users/repository"
	usersservice "appointly/internal/users/service"
	"appointly/pkg/auth"
	"appointly/pkg/config"
	apperrors "appointly/pkg/errors"
	"appointly/pkg/model"
	"appointly/pkg/sanitizer"
	"appointly/pkg/validation"
)

const invalidCredentials = "Invalid email or password"

// Resolver turns a bearer token into the authenticated principal.
type Resolver interface {
	Resolve(ctx context.Context, token string) (*authz.Principal, error)
}

type IdentityService interface {
	Resolver
	Login(ctx context.Context, req *model.LoginRequest) (*model.AuthResult, error)
	RegisterTenant(ctx context.Context, req *model.TenantRegistration) (*model.AuthResult, error)
	RegisterCustomer(ctx context.Context, req *model.CustomerRegistration) (*model.AuthResult, error)
	Me(ctx context.Context, p *authz.Principal) (any, error)
	ChangePassword(ctx context.Context, p *authz.Principal, req *model.PasswordChange) error
}

type identityService struct {
	tenants    tenantsrepo.TenantRepository
	principals usersrepo.PrincipalRepository
	tenantSvc  tenantsservice.TenantService
	userSvc    usersservice.UserService
	tokens     *auth.TokenManager
	hasher     *auth.Hasher
	validator  *validation.Validator
	cfg        *config.Config
	now        func() time.Time
}

func NewIdentityService(
	tenants tenantsrepo.TenantRepository,
	principals usersrepo.PrincipalRepository,
	tenantSvc tenantsservice.TenantService,
	userSvc usersservice.UserService,
	tokens *auth.TokenManager,
	hasher *auth.Hasher,
	validator *validation.Validator,
	cfg *config.Config,
) IdentityService {
	return &identityService{
		tenants:    tenants,
		principals: principals,
		tenantSvc:  tenantSvc,
		userSvc:    userSvc,
		tokens:     tokens,
		hasher:     hasher,
		validator:  validator,
		cfg:        cfg,
		now:        time.Now,
	}
}

// Resolve verifies the token and loads the principal it names. The role claim selects the
// store: tenant owners live in Tenants, every other role in Principals.
func (s *identityService) Resolve(ctx context.Context, token string) (*authz.Principal, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, apperrors.InvalidToken(err)
	}

	if claims.Role == model.RoleTenant {
		return s.resolveTenant(ctx, claims)
	}
	return s.resolvePrincipal(ctx, claims)
}

func (s *identityService) resolveTenant(ctx context.Context, claims *auth.Claims) (*authz.Principal, error) {
	if claims.Tenant != claims.Subject {
		return nil, apperrors.InvalidToken(auth.ErrInvalidClaims)
	}

	tenant, err := s.tenants.FindByID(ctx, authz.Unscoped(), claims.Subject)
	if err != nil {
		return nil, s.mapLookupError(err, tenantserrors.ErrNotFound, tenantserrors.ErrInvalidID)
	}
	if !tenant.IsActive {
		return nil, apperrors.Deactivated("Tenant account is deactivated")
	}

	return &authz.Principal{
		ID:       tenant.ID,
		Role:     model.RoleTenant,
		TenantID: tenant.ID,
		Name:     tenant.Name,
		Email:    tenant.Email,
	}, nil
}

func (s *identityService) resolvePrincipal(ctx context.Context, claims *auth.Claims) (*authz.Principal, error) {
	principal, err := s.principals.FindByID(ctx, authz.Unscoped(), claims.Subject)
	if err != nil {
		return nil, s.mapLookupError(err, userserrors.ErrNotFound, userserrors.ErrInvalidID)
	}
	if principal.Role != claims.Role || principal.TenantID != claims.Tenant {
		return nil, apperrors.InvalidToken(auth.ErrInvalidClaims)
	}
	if err := s.ensureActive(ctx, principal); err != nil {
		return nil, err
	}

	return &authz.Principal{
		ID:       principal.ID,
		Role:     principal.Role,
		TenantID: principal.TenantID,
		Name:     principal.Name,
		Email:    principal.Email,
	}, nil
}

// ensureActive rejects inactive principals and principals whose tenant is inactive or gone.
func (s *identityService) ensureActive(ctx context.Context, principal *model.Principal) error {
	if !principal.IsActive {
		return apperrors.Deactivated("Account is deactivated")
	}
	if principal.Role == model.RoleAdmin {
		return nil
	}

	tenant, err := s.tenants.FindByID(ctx, authz.Unscoped(), principal.TenantID)
	if err != nil {
		if errors.Is(err, tenantserrors.ErrNotFound) || errors.Is(err, tenantserrors.ErrInvalidID) {
			return apperrors.Deactivated("Tenant account is no longer available")
		}
		return apperrors.Internal("Failed to resolve tenant", err)
	}
	if !tenant.IsActive {
		return apperrors.Deactivated("Tenant account is deactivated")
	}
	return nil
}

func (s *identityService) mapLookupError(err, notFound, invalidID error) error {
	switch {
	case errors.Is(err, notFound):
		return apperrors.PrincipalNotFound()
	case errors.Is(err, invalidID):
		return apperrors.InvalidToken(err)
	}
	s.cfg.Log.Error("Failed to resolve principal", "error", err)
	return apperrors.Internal("Failed to resolve principal", err)
}

// Login tries tenant owners first, then the principal store. Every credential failure
// produces the same UNAUTHORIZED message.
func (s *identityService) Login(ctx context.Context, req *model.LoginRequest) (*model.AuthResult, error) {
	req.Email = sanitizer.SanitizeEmail(req.Email)
	req.Subdomain = sanitizer.SanitizeSubdomain(req.Subdomain)
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	tenant, err := s.tenants.FindByEmail(ctx, req.Email)
	switch {
	case err == nil:
		sameTenant := req.Subdomain == "" || req.Subdomain == tenant.Subdomain
		if sameTenant && s.hasher.Compare(tenant.PasswordHash, req.Password) == nil {
			return s.loginTenant(ctx, tenant)
		}
	case !errors.Is(err, tenantserrors.ErrNotFound):
		return nil, apperrors.Internal("Failed to look up account", err)
	}

	principal, err := s.findLoginPrincipal(ctx, req)
	if err != nil {
		return nil, err
	}
	if s.hasher.Compare(principal.PasswordHash, req.Password) != nil {
		s.cfg.Log.Warn("Login failed", "reason", "password mismatch", "role", principal.Role)
		return nil, apperrors.Unauthorized(invalidCredentials)
	}
	if err := s.ensureActive(ctx, principal); err != nil {
		return nil, err
	}

	result, err := s.issue(principal.ID, principal.Role, principal.TenantID, principal)
	if err != nil {
		return nil, err
	}
	if err := s.principals.SetLastLogin(ctx, principal.ID, s.now()); err != nil {
		s.cfg.Log.Error("Failed to record last login", "id", principal.ID, "error", err)
	}

	s.cfg.Log.Info("User logged in successfully", "id", principal.ID, "role", principal.Role)
	return result, nil
}

func (s *identityService) loginTenant(ctx context.Context, tenant *model.Tenant) (*model.AuthResult, error) {
	if !tenant.IsActive {
		return nil, apperrors.Deactivated("Tenant account is deactivated")
	}

	result, err := s.issue(tenant.ID, model.RoleTenant, tenant.ID, tenant)
	if err != nil {
		return nil, err
	}
	if err := s.tenants.SetLastLogin(ctx, tenant.ID, s.now()); err != nil {
		s.cfg.Log.Error("Failed to record last login", "id", tenant.ID, "error", err)
	}

	s.cfg.Log.Info("Tenant logged in successfully", "id", tenant.ID)
	return result, nil
}

// findLoginPrincipal scopes the lookup to the subdomain's tenant when one is given.
// Without a subdomain the email must identify exactly one principal.
func (s *identityService) findLoginPrincipal(ctx context.Context, req *model.LoginRequest) (*model.Principal, error) {
	if req.Subdomain != "" {
		tenant, err := s.tenants.FindBySubdomain(ctx, req.Subdomain)
		if err != nil {
			if errors.Is(err, tenantserrors.ErrNotFound) {
				return nil, apperrors.Unauthorized(invalidCredentials)
			}
			return nil, apperrors.Internal("Failed to look up account", err)
		}
		principal, err := s.principals.FindByEmail(ctx, tenant.ID, req.Email)
		if err != nil {
			if errors.Is(err, userserrors.ErrNotFound) {
				return nil, apperrors.Unauthorized(invalidCredentials)
			}
			return nil, apperrors.Internal("Failed to look up account", err)
		}
		return principal, nil
	}

	candidates, err := s.principals.FindAllByEmail(ctx, req.Email, 2)
	if err != nil {
		return nil, apperrors.Internal("Failed to look up account", err)
	}
	switch len(candidates) {
	case 0:
		return nil, apperrors.Unauthorized(invalidCredentials)
	case 1:
		return candidates[0], nil
	default:
		return nil, apperrors.ValidationFields("Validation failed", []apperrors.FieldError{
			{Field: "subdomain", Message: "subdomain is required for this account"},
		})
	}
}

func (s *identityService) RegisterTenant(ctx context.Context, req *model.TenantRegistration) (*model.AuthResult, error) {
	if err := s.validator.Struct(req); err != nil {
		s.cfg.Log.Warn("Tenant registration validation failed", "error", err)
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperrors.Internal("Failed to hash password", err)
	}

	tenant := &model.Tenant{
		Name:         req.Name,
		Subdomain:    req.Subdomain,
		Email:        req.Email,
		PasswordHash: hash,
		Phone:        req.Phone,
		Business:     req.Business,
		Address:      req.Address,
	}
	if req.Settings != nil {
		tenant.Settings = *req.Settings
	}
	if err := s.tenantSvc.Create(ctx, tenant); err != nil {
		return nil, err
	}

	return s.issue(tenant.ID, model.RoleTenant, tenant.ID, tenant)
}

func (s *identityService) RegisterCustomer(ctx context.Context, req *model.CustomerRegistration) (*model.AuthResult, error) {
	req.TenantSubdomain = sanitizer.SanitizeSubdomain(req.TenantSubdomain)
	if err := s.validator.Struct(req); err != nil {
		s.cfg.Log.Warn("Customer registration validation failed", "error", err)
		return nil, err
	}

	tenant, err := s.tenants.FindBySubdomain(ctx, req.TenantSubdomain)
	if err != nil {
		if errors.Is(err, tenantserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Tenant", req.TenantSubdomain)
		}
		return nil, apperrors.Internal("Failed to look up tenant", err)
	}
	if !tenant.IsActive {
		return nil, apperrors.NotFoundWithID("Tenant", req.TenantSubdomain)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperrors.Internal("Failed to hash password", err)
	}

	customer := &model.Principal{
		TenantID:     tenant.ID,
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Phone:        req.Phone,
		Role:         model.RoleCustomer,
		Address:      req.Address,
	}
	if err := s.userSvc.Register(ctx, customer); err != nil {
		return nil, err
	}

	return s.issue(customer.ID, model.RoleCustomer, customer.TenantID, customer)
}

// Me returns the stored record of the caller: a Tenant for owners, a Principal otherwise.
func (s *identityService) Me(ctx context.Context, p *authz.Principal) (any, error) {
	if p == nil {
		return nil, apperrors.Unauthorized("Authentication required")
	}

	if p.Role == model.RoleTenant {
		tenant, err := s.tenants.FindByID(ctx, authz.Unscoped(), p.ID)
		if err != nil {
			return nil, s.mapLookupError(err, tenantserrors.ErrNotFound, tenantserrors.ErrInvalidID)
		}
		return tenant, nil
	}

	principal, err := s.principals.FindByID(ctx, authz.Unscoped(), p.ID)
	if err != nil {
		return nil, s.mapLookupError(err, userserrors.ErrNotFound, userserrors.ErrInvalidID)
	}
	return principal, nil
}

func (s *identityService) ChangePassword(ctx context.Context, p *authz.Principal, req *model.PasswordChange) error {
	if p == nil {
		return apperrors.Unauthorized("Authentication required")
	}
	if err := s.validator.Struct(req); err != nil {
		return err
	}

	account, err := s.Me(ctx, p)
	if err != nil {
		return err
	}

	var currentHash string
	var setHash func(ctx context.Context, id string, hash string) error
	switch a := account.(type) {
	case *model.Tenant:
		currentHash, setHash = a.PasswordHash, s.tenants.SetPasswordHash
	case *model.Principal:
		currentHash, setHash = a.PasswordHash, s.principals.SetPasswordHash
	}

	if s.hasher.Compare(currentHash, req.CurrentPassword) != nil {
		return apperrors.Unauthorized("Current password is incorrect")
	}

	hash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return apperrors.Internal("Failed to hash password", err)
	}
	if err := setHash(ctx, p.ID, hash); err != nil {
		s.cfg.Log.Error("Failed to change password", "id", p.ID, "error", err)
		return apperrors.Internal("Failed to change password", err)
	}

	s.cfg.Log.Info("Password changed successfully", "id", p.ID, "role", p.Role)
	return nil
}

func (s *identityService) issue(subject string, role model.Role, tenant string, account any) (*model.AuthResult, error) {
	token, expiresAt, err := s.tokens.Issue(subject, role, tenant)
	if err != nil {
		return nil, apperrors.Internal("Failed to issue token", err)
	}
	return &model.AuthResult{
		Token:     token,
		ExpiresAt: expiresAt,
		Role:      role,
		TenantID:  tenant,
		Account:   account,
	}, nil
}
