package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"appointly/internal/authz"
	catalogerrors "appointly/internal/catalog/errors"
	"appointly/internal/catalog/repository"
	"appointly/internal/catalog/validator"
	tenantserrors "appointly/internal/tenants/errors"
	tenantsrepo "appointly/internal/tenants/repository"
	userserrors "appointly/internal/users/errors"
	usersrepo "appointly/internal/users/repository"
	"appointly/pkg/config"
	apperrors "appointly/pkg/errors"
	"appointly/pkg/model"
	"appointly/pkg/sanitizer"
	"appointly/pkg/validation"
)

const (
	defaultCancellationHours = 24
	defaultAdvanceBooking    = 90
)

// CatalogService manages the services a tenant offers and which providers deliver them.
type CatalogService interface {
	Create(ctx context.Context, caller *authz.Principal, service *model.Service) (*model.Service, error)
	GetByID(ctx context.Context, caller *authz.Principal, id string) (*model.Service, error)
	GetAll(ctx context.Context, caller *authz.Principal, filter model.ServiceFilter, limit int, offset int64) ([]*model.Service, int64, error)
	Update(ctx context.Context, caller *authz.Principal, id string, updates *model.ServiceUpdate) (*model.Service, error)
	Delete(ctx context.Context, caller *authz.Principal, id string) error
	AssignProviders(ctx context.Context, caller *authz.Principal, id string, req *model.ProviderAssignment) (*model.Service, error)
	SelectServices(ctx context.Context, caller *authz.Principal, req *model.ServiceSelection) error
	UnselectServices(ctx context.Context, caller *authz.Principal, req *model.ServiceSelection) error
}

type catalogService struct {
	repo       repository.ServiceRepository
	principals usersrepo.PrincipalRepository
	tenants    tenantsrepo.TenantRepository
	validator  *validation.Validator
	services   *validator.ServiceValidator
	cfg        *config.Config
}

func NewCatalogService(
	repo repository.ServiceRepository,
	principals usersrepo.PrincipalRepository,
	tenants tenantsrepo.TenantRepository,
	v *validation.Validator,
	cfg *config.Config,
) CatalogService {
	return &catalogService{
		repo:       repo,
		principals: principals,
		tenants:    tenants,
		validator:  v,
		services:   validator.NewServiceValidator(v),
		cfg:        cfg,
	}
}

var editorRoles = []model.Role{model.RoleTenant, model.RoleServiceProvider, model.RoleAdmin}

func (s *catalogService) Create(ctx context.Context, caller *authz.Principal, service *model.Service) (*model.Service, error) {
	if err := authz.RequireRole(caller, editorRoles...); err != nil {
		return nil, err
	}
	scope, err := authz.ResolveTenantScope(caller)
	if err != nil {
		return nil, err
	}

	if !scope.IsUnscoped() {
		service.TenantID = scope.TenantID()
	} else if service.TenantID == "" {
		return nil, apperrors.ValidationFields("Validation failed", []apperrors.FieldError{
			{Field: "tenant_id", Message: "tenant_id is required"},
		})
	}

	s.applyDefaults(service)
	if service.Pricing.Currency == "" {
		currency, err := s.tenantCurrency(ctx, service.TenantID)
		if err != nil {
			return nil, err
		}
		service.Pricing.Currency = currency
	}
	if caller.Role == model.RoleServiceProvider && !service.HasProvider(caller.ID) {
		service.Providers = append(service.Providers, caller.ID)
	}
	s.sanitize(service)
	if err := s.validate(service); err != nil {
		return nil, err
	}
	if err := s.checkProviders(ctx, service.TenantID, service.Providers); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, service); err != nil {
		s.cfg.Log.Error("Failed to create service", "tenant_id", service.TenantID, "error", err)
		return nil, apperrors.Internal("Failed to create service", err)
	}

	s.cfg.Log.Info("Service created successfully",
		"id", service.ID,
		"tenant_id", service.TenantID,
		"providers", len(service.Providers),
	)
	return service, nil
}

// GetByID returns a service visible in the caller's tenant. Customers only see active services.
func (s *catalogService) GetByID(ctx context.Context, caller *authz.Principal, id string) (*model.Service, error) {
	scope, err := authz.ResolveTenantScope(caller)
	if err != nil {
		return nil, err
	}
	if id == "" {
		return nil, apperrors.InvalidInput("Service ID cannot be empty")
	}

	service, err := s.repo.FindByID(ctx, scope, id)
	if err != nil {
		return nil, s.mapRepoError(err, id, "Failed to retrieve service")
	}
	if caller.Role == model.RoleCustomer && !service.IsActive {
		return nil, apperrors.NotFoundWithID("Service", id)
	}
	return service, nil
}

func (s *catalogService) GetAll(ctx context.Context, caller *authz.Principal, filter model.ServiceFilter, limit int, offset int64) ([]*model.Service, int64, error) {
	scope, err := authz.ResolveTenantScope(caller)
	if err != nil {
		return nil, 0, err
	}
	if filter.Category != "" {
		if err := s.validator.Var("category", filter.Category, "oneof=hair beauty wellness fitness health consulting education other"); err != nil {
			return nil, 0, apperrors.InvalidInput("invalid category filter: " + filter.Category)
		}
	}
	if caller.Role == model.RoleCustomer {
		active := true
		filter.IsActive = &active
	}

	var count int64
	var services []*model.Service
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx, scope, filter)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count services", "error", errCount)
			errCount = apperrors.Internal("Failed to count services", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		services, errFind = s.repo.FindAll(ctx, scope, filter, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list services", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve services", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}
	return services, count, nil
}

func (s *catalogService) Update(ctx context.Context, caller *authz.Principal, id string, updates *model.ServiceUpdate) (*model.Service, error) {
	existing, scope, err := s.editable(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Struct(updates); err != nil {
		s.cfg.Log.Warn("Service update validation failed", "id", id, "error", err)
		return nil, err
	}

	merged := s.mergeServiceUpdates(existing, updates)
	s.sanitize(merged)
	if err := s.validate(merged); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, scope, id, merged); err != nil {
		return nil, s.mapRepoError(err, id, "Failed to update service")
	}

	s.cfg.Log.Info("Service updated successfully", "id", id)
	return merged, nil
}

// Delete deactivates the service. Deleting an inactive service succeeds without change.
func (s *catalogService) Delete(ctx context.Context, caller *authz.Principal, id string) error {
	_, scope, err := s.editable(ctx, caller, id)
	if err != nil {
		return err
	}

	if err := s.repo.SetActive(ctx, scope, id, false); err != nil {
		return s.mapRepoError(err, id, "Failed to delete service")
	}

	s.cfg.Log.Info("Service deactivated successfully", "id", id)
	return nil
}

// AssignProviders replaces the provider set of a service.
func (s *catalogService) AssignProviders(ctx context.Context, caller *authz.Principal, id string, req *model.ProviderAssignment) (*model.Service, error) {
	if err := authz.RequireRole(caller, model.RoleTenant, model.RoleAdmin); err != nil {
		return nil, err
	}
	scope, err := authz.ResolveTenantScope(caller)
	if err != nil {
		return nil, err
	}

	req.ProviderIDs = sanitizer.NormalizeIDs(req.ProviderIDs)
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	service, err := s.repo.FindByID(ctx, scope, id)
	if err != nil {
		return nil, s.mapRepoError(err, id, "Failed to retrieve service")
	}
	if err := s.checkProviders(ctx, service.TenantID, req.ProviderIDs); err != nil {
		return nil, err
	}

	if err := s.repo.SetProviders(ctx, scope, id, req.ProviderIDs); err != nil {
		return nil, s.mapRepoError(err, id, "Failed to assign providers")
	}
	service.Providers = req.ProviderIDs

	s.cfg.Log.Info("Providers assigned successfully", "id", id, "providers", len(req.ProviderIDs))
	return service, nil
}

// SelectServices adds the calling provider to every listed service.
func (s *catalogService) SelectServices(ctx context.Context, caller *authz.Principal, req *model.ServiceSelection) error {
	scope, err := s.selection(ctx, caller, req)
	if err != nil {
		return err
	}

	if err := s.repo.AddProvider(ctx, scope, req.ServiceIDs, caller.ID); err != nil {
		s.cfg.Log.Error("Failed to select services", "provider_id", caller.ID, "error", err)
		return apperrors.Internal("Failed to select services", err)
	}

	s.cfg.Log.Info("Services selected successfully", "provider_id", caller.ID, "services", len(req.ServiceIDs))
	return nil
}

// UnselectServices removes the calling provider from every listed service.
func (s *catalogService) UnselectServices(ctx context.Context, caller *authz.Principal, req *model.ServiceSelection) error {
	scope, err := s.selection(ctx, caller, req)
	if err != nil {
		return err
	}

	if err := s.repo.RemoveProvider(ctx, scope, req.ServiceIDs, caller.ID); err != nil {
		s.cfg.Log.Error("Failed to unselect services", "provider_id", caller.ID, "error", err)
		return apperrors.Internal("Failed to unselect services", err)
	}

	s.cfg.Log.Info("Services unselected successfully", "provider_id", caller.ID, "services", len(req.ServiceIDs))
	return nil
}

// --- Helpers ---

// editable loads a service the caller may change. Providers may only change services they deliver.
func (s *catalogService) editable(ctx context.Context, caller *authz.Principal, id string) (*model.Service, authz.Scope, error) {
	if err := authz.RequireRole(caller, editorRoles...); err != nil {
		return nil, authz.Scope{}, err
	}
	scope, err := authz.ResolveTenantScope(caller)
	if err != nil {
		return nil, authz.Scope{}, err
	}
	if id == "" {
		return nil, authz.Scope{}, apperrors.InvalidInput("Service ID cannot be empty")
	}

	service, err := s.repo.FindByID(ctx, scope, id)
	if err != nil {
		return nil, authz.Scope{}, s.mapRepoError(err, id, "Failed to retrieve service")
	}
	if caller.Role == model.RoleServiceProvider && !service.HasProvider(caller.ID) {
		return nil, authz.Scope{}, apperrors.Forbidden("Only providers assigned to this service may change it")
	}
	return service, scope, nil
}

// selection validates a provider's select/unselect request and checks every id resolves in its tenant.
func (s *catalogService) selection(ctx context.Context, caller *authz.Principal, req *model.ServiceSelection) (authz.Scope, error) {
	if err := authz.RequireRole(caller, model.RoleServiceProvider); err != nil {
		return authz.Scope{}, err
	}
	scope, err := authz.ResolveTenantScope(caller)
	if err != nil {
		return authz.Scope{}, err
	}

	req.ServiceIDs = sanitizer.NormalizeIDs(req.ServiceIDs)
	if err := s.validator.Struct(req); err != nil {
		return authz.Scope{}, err
	}

	found, err := s.repo.CountByIDs(ctx, scope, req.ServiceIDs)
	if err != nil {
		if errors.Is(err, catalogerrors.ErrInvalidID) {
			return authz.Scope{}, apperrors.InvalidInput("Invalid service ID format")
		}
		s.cfg.Log.Error("Failed to look up services", "error", err)
		return authz.Scope{}, apperrors.Internal("Failed to look up services", err)
	}
	if found != int64(len(req.ServiceIDs)) {
		return authz.Scope{}, apperrors.NotFound("Service")
	}
	return scope, nil
}

// checkProviders requires every id to name an active service provider of tenantID.
func (s *catalogService) checkProviders(ctx context.Context, tenantID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	principals, err := s.principals.FindByIDs(ctx, authz.TenantScope(tenantID), ids)
	if err != nil {
		if errors.Is(err, userserrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid provider ID format")
		}
		s.cfg.Log.Error("Failed to look up providers", "tenant_id", tenantID, "error", err)
		return apperrors.Internal("Failed to look up providers", err)
	}

	byID := make(map[string]*model.Principal, len(principals))
	for _, p := range principals {
		byID[p.ID] = p
	}

	var fields []apperrors.FieldError
	for i, id := range ids {
		p, ok := byID[id]
		field := fmt.Sprintf("provider_ids[%d]", i)
		switch {
		case !ok:
			fields = append(fields, apperrors.FieldError{Field: field, Message: "provider not found in this tenant"})
		case p.Role != model.RoleServiceProvider:
			fields = append(fields, apperrors.FieldError{Field: field, Message: "user is not a service provider"})
		case !p.IsActive:
			fields = append(fields, apperrors.FieldError{Field: field, Message: "provider is deactivated"})
		}
	}
	if len(fields) > 0 {
		return apperrors.ValidationFields("Validation failed", fields)
	}
	return nil
}

// tenantCurrency prices a new service in the owning tenant's settings currency.
func (s *catalogService) tenantCurrency(ctx context.Context, tenantID string) (string, error) {
	tenant, err := s.tenants.FindByID(ctx, authz.Unscoped(), tenantID)
	if err != nil {
		if errors.Is(err, tenantserrors.ErrNotFound) || errors.Is(err, tenantserrors.ErrInvalidID) {
			return "", apperrors.ValidationFields("Validation failed", []apperrors.FieldError{
				{Field: "tenant_id", Message: "tenant not found"},
			})
		}
		s.cfg.Log.Error("Failed to look up tenant", "tenant_id", tenantID, "error", err)
		return "", apperrors.Internal("Failed to look up tenant", err)
	}
	if tenant.Settings.Currency != "" {
		return tenant.Settings.Currency, nil
	}
	return s.cfg.DefaultCurrency, nil
}

func (s *catalogService) applyDefaults(service *model.Service) {
	service.ID = ""
	service.IsActive = true
	service.Stats = model.ServiceStats{}
	if service.Category == "" {
		service.Category = model.CategoryOther
	}
	if service.Policy.MaxConcurrent == 0 {
		service.Policy.MaxConcurrent = 1
	}
	if service.Policy.CancellationHours == 0 {
		service.Policy.CancellationHours = defaultCancellationHours
	}
	if service.Policy.AdvanceBookingDays == 0 {
		service.Policy.AdvanceBookingDays = defaultAdvanceBooking
	}
	if service.Providers == nil {
		service.Providers = []string{}
	}
}

func (s *catalogService) sanitize(service *model.Service) {
	service.Name = sanitizer.NormalizeName(service.Name)
	service.Description = sanitizer.NormalizeText(service.Description)
	service.Category = sanitizer.SanitizeTag(service.Category)
	service.Providers = sanitizer.NormalizeIDs(service.Providers)
	service.Pricing.BasePrice = model.RoundCents(service.Pricing.BasePrice)
	for i := range service.Variations {
		service.Variations[i].Name = sanitizer.NormalizeName(service.Variations[i].Name)
	}
}

func (s *catalogService) validate(service *model.Service) error {
	if err := s.services.Validate(service); err != nil {
		s.cfg.Log.Warn("Service validation failed", "name", service.Name, "error", err)
		return err
	}
	return nil
}

func (s *catalogService) mergeServiceUpdates(existing *model.Service, updates *model.ServiceUpdate) *model.Service {
	merged := *existing

	if updates.Name != "" {
		merged.Name = updates.Name
	}
	if updates.Description != nil {
		merged.Description = *updates.Description
	}
	if updates.Category != "" {
		merged.Category = updates.Category
	}
	if updates.Duration != 0 {
		merged.Duration = updates.Duration
	}
	if updates.Pricing != nil {
		merged.Pricing = *updates.Pricing
		if merged.Pricing.Currency == "" {
			merged.Pricing.Currency = existing.Pricing.Currency
		}
	}
	if updates.Variations != nil {
		merged.Variations = *updates.Variations
	}
	if updates.Policy != nil {
		merged.Policy = *updates.Policy
	}
	if updates.IsActive != nil {
		merged.IsActive = *updates.IsActive
	}

	return &merged
}

func (s *catalogService) mapRepoError(err error, id, internalMsg string) error {
	if errors.Is(err, catalogerrors.ErrNotFound) {
		return apperrors.NotFoundWithID("Service", id)
	}
	if errors.Is(err, catalogerrors.ErrInvalidID) {
		return apperrors.InvalidInput("Invalid service ID format")
	}
	s.cfg.Log.Error(internalMsg, "id", id, "error", err)
	return apperrors.Internal(internalMsg, err)
}
