package service

import (
	"context"
	"errors"
	"sync"

	"appointly/internal/authz"
	tenantserrors "appointly/internal/tenants/errors"
	"appointly/internal/tenants/repository"
	"appointly/pkg/config"
	apperrors "appointly/pkg/errors"
	"appointly/pkg/locale"
	"appointly/pkg/model"
	"appointly/pkg/sanitizer"
	"appointly/pkg/validation"
)

type TenantService interface {
	Create(ctx context.Context, tenant *model.Tenant) error
	GetByID(ctx context.Context, p *authz.Principal, id string) (*model.Tenant, error)
	GetAll(ctx context.Context, p *authz.Principal, limit int, offset int64) ([]*model.Tenant, int64, error)
	GetBySubdomain(ctx context.Context, subdomain string) (*model.TenantPublic, error)
	Update(ctx context.Context, p *authz.Principal, id string, updates *model.TenantUpdate) (*model.Tenant, error)
	Deactivate(ctx context.Context, p *authz.Principal, id string) error
}

type tenantService struct {
	repo      repository.TenantRepository
	validator *validation.Validator
	cfg       *config.Config
}

func NewTenantService(repo repository.TenantRepository, validator *validation.Validator, cfg *config.Config) TenantService {
	return &tenantService{
		repo:      repo,
		validator: validator,
		cfg:       cfg,
	}
}

// Create stores a new tenant owner account. PasswordHash must already be set.
func (s *tenantService) Create(ctx context.Context, tenant *model.Tenant) error {
	s.applyDefaults(tenant)
	s.sanitize(tenant)
	if err := s.validate(tenant); err != nil {
		return err
	}
	if err := s.verifyUniqueness(ctx, tenant); err != nil {
		return err
	}

	if err := s.repo.Create(ctx, tenant); err != nil {
		if mapped := mapDuplicate(err); mapped != nil {
			return mapped
		}
		s.cfg.Log.Error("Failed to create tenant", "subdomain", tenant.Subdomain, "error", err)
		return apperrors.Internal("Failed to create tenant", err)
	}

	s.cfg.Log.Info("Tenant created successfully",
		"id", tenant.ID,
		"subdomain", tenant.Subdomain,
	)
	return nil
}

func (s *tenantService) GetByID(ctx context.Context, p *authz.Principal, id string) (*model.Tenant, error) {
	scope, err := authz.ResolveTenantScope(p)
	if err != nil {
		return nil, err
	}
	if id == "" {
		return nil, apperrors.InvalidInput("Tenant ID cannot be empty")
	}

	tenant, err := s.repo.FindByID(ctx, scope, id)
	if err != nil {
		return nil, s.mapRepoError(err, id, "Failed to retrieve tenant")
	}
	return tenant, nil
}

func (s *tenantService) GetAll(ctx context.Context, p *authz.Principal, limit int, offset int64) ([]*model.Tenant, int64, error) {
	if err := authz.RequireRole(p, model.RoleAdmin); err != nil {
		return nil, 0, err
	}

	var count int64
	var tenants []*model.Tenant
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count tenants", "error", errCount)
			errCount = apperrors.Internal("Failed to count tenants", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		tenants, errFind = s.repo.FindAll(ctx, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list tenants", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve tenants", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}
	return tenants, count, nil
}

// GetBySubdomain is the public lookup used by booking front-ends. Inactive tenants are hidden.
func (s *tenantService) GetBySubdomain(ctx context.Context, subdomain string) (*model.TenantPublic, error) {
	subdomain = sanitizer.SanitizeSubdomain(subdomain)
	if subdomain == "" {
		return nil, apperrors.InvalidInput("Subdomain cannot be empty")
	}

	tenant, err := s.repo.FindBySubdomain(ctx, subdomain)
	if err != nil {
		return nil, s.mapRepoError(err, subdomain, "Failed to retrieve tenant")
	}
	if !tenant.IsActive {
		return nil, apperrors.NotFoundWithID("Tenant", subdomain)
	}
	return tenant.Public(), nil
}

func (s *tenantService) Update(ctx context.Context, p *authz.Principal, id string, updates *model.TenantUpdate) (*model.Tenant, error) {
	if err := authz.RequireRole(p, model.RoleAdmin, model.RoleTenant); err != nil {
		return nil, err
	}
	scope, err := authz.ResolveTenantScope(p)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Struct(updates); err != nil {
		s.cfg.Log.Warn("Tenant update validation failed", "id", id, "error", err)
		return nil, err
	}

	existing, err := s.repo.FindByID(ctx, scope, id)
	if err != nil {
		return nil, s.mapRepoError(err, id, "Failed to check tenant existence")
	}

	merged := s.mergeTenantUpdates(existing, updates)
	s.sanitize(merged)
	if err := s.validate(merged); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, scope, id, merged); err != nil {
		return nil, s.mapRepoError(err, id, "Failed to update tenant")
	}

	s.cfg.Log.Info("Tenant updated successfully", "id", id)
	return merged, nil
}

// Deactivate soft-deletes the tenant. Deactivating an inactive tenant succeeds without change.
func (s *tenantService) Deactivate(ctx context.Context, p *authz.Principal, id string) error {
	if err := authz.RequireRole(p, model.RoleAdmin, model.RoleTenant); err != nil {
		return err
	}
	scope, err := authz.ResolveTenantScope(p)
	if err != nil {
		return err
	}

	if err := s.repo.SetActive(ctx, scope, id, false); err != nil {
		return s.mapRepoError(err, id, "Failed to deactivate tenant")
	}

	s.cfg.Log.Info("Tenant deactivated successfully", "id", id)
	return nil
}

// --- Helpers ---

func (s *tenantService) applyDefaults(t *model.Tenant) {
	t.IsActive = true
	if t.Subscription.Plan == "" {
		t.Subscription.Plan = model.PlanFree
	}
	if t.Subscription.Status == "" {
		t.Subscription.Status = model.SubscriptionTrial
	}
	region, known := locale.ForPhone(sanitizer.NormalizePhone(t.Phone))
	if t.Settings.Timezone == "" {
		t.Settings.Timezone = s.cfg.DefaultTimezone
		if known {
			t.Settings.Timezone = region.Timezone
		}
	}
	if t.Settings.Currency == "" {
		t.Settings.Currency = s.cfg.DefaultCurrency
		if known {
			t.Settings.Currency = region.Currency
		}
	}
	if t.Business.Type == "" {
		t.Business.Type = model.BusinessTypeOther
	}
}

func (s *tenantService) sanitize(t *model.Tenant) {
	t.Name = sanitizer.NormalizeName(t.Name)
	t.Email = sanitizer.SanitizeEmail(t.Email)
	t.Subdomain = sanitizer.SanitizeSubdomain(t.Subdomain)
	t.Phone = sanitizer.NormalizePhone(t.Phone)
	t.Business.Description = sanitizer.NormalizeText(t.Business.Description)
	if t.Business.Website != "" {
		t.Business.Website = sanitizer.SanitizeURL(t.Business.Website)
	}
}

func (s *tenantService) validate(t *model.Tenant) error {
	if err := s.validator.Struct(t); err != nil {
		s.cfg.Log.Warn("Tenant validation failed", "subdomain", t.Subdomain, "error", err)
		return err
	}
	return nil
}

func (s *tenantService) verifyUniqueness(ctx context.Context, t *model.Tenant) error {
	taken, err := s.repo.ExistsByEmail(ctx, t.Email)
	if err != nil {
		return apperrors.Internal("Failed to check tenant email", err)
	}
	if taken {
		return apperrors.Conflict("Email is already registered")
	}

	taken, err = s.repo.ExistsBySubdomain(ctx, t.Subdomain)
	if err != nil {
		return apperrors.Internal("Failed to check tenant subdomain", err)
	}
	if taken {
		return apperrors.Conflict("Subdomain is already taken")
	}
	return nil
}

func (s *tenantService) mergeTenantUpdates(existing *model.Tenant, updates *model.TenantUpdate) *model.Tenant {
	merged := *existing

	if updates.Name != "" {
		merged.Name = updates.Name
	}
	if updates.Phone != nil {
		merged.Phone = *updates.Phone
	}
	if updates.Business != nil {
		merged.Business = *updates.Business
	}
	if updates.Settings != nil {
		merged.Settings = *updates.Settings
	}
	if updates.Address != nil {
		merged.Address = updates.Address
	}

	return &merged
}

func mapDuplicate(err error) error {
	switch {
	case errors.Is(err, tenantserrors.ErrDuplicateEmail):
		return apperrors.Conflict("Email is already registered")
	case errors.Is(err, tenantserrors.ErrDuplicateSubdomain):
		return apperrors.Conflict("Subdomain is already taken")
	}
	return nil
}

func (s *tenantService) mapRepoError(err error, id, internalMsg string) error {
	if errors.Is(err, tenantserrors.ErrNotFound) {
		return apperrors.NotFoundWithID("Tenant", id)
	}
	if errors.Is(err, tenantserrors.ErrInvalidID) {
		return apperrors.InvalidInput("Invalid tenant ID format")
	}
	s.cfg.Log.Error(internalMsg, "id", id, "error", err)
	return apperrors.Internal(internalMsg, err)
}
