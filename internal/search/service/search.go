package service

import (
	"context"
	"errors"
	"sync"

	"appointly/internal/authz"
	catalogerrors "appointly/internal/catalog/errors"
	catalogrepo "appointly/internal/catalog/repository"
	"appointly/internal/search/repository"
	tenantserrors "appointly/internal/tenants/errors"
	tenantsrepo "appointly/internal/tenants/repository"
	"appointly/pkg/config"
	apperrors "appointly/pkg/errors"
	"appointly/pkg/model"
	"appointly/pkg/sanitizer"
	"appointly/pkg/validation"
)

// SearchService answers read-only searches. Callers with a tenant context are confined to it;
// anonymous and admin callers search every tenant unless they name one by subdomain.
type SearchService interface {
	SearchServices(ctx context.Context, caller *authz.Principal, q model.ServiceSearch, limit int, offset int64) ([]*model.Service, int64, error)
	SearchProviders(ctx context.Context, caller *authz.Principal, q model.ProviderSearch, limit int, offset int64) ([]*model.Principal, int64, error)
	SearchProvidersByLocation(ctx context.Context, caller *authz.Principal, q model.NearbySearch, limit int, offset int64) ([]*model.Principal, int64, error)
	SearchTenants(ctx context.Context, caller *authz.Principal, q model.TenantSearch, limit int, offset int64) ([]*model.Tenant, int64, error)
}

type searchService struct {
	repo      repository.SearchRepository
	tenants   tenantsrepo.TenantRepository
	services  catalogrepo.ServiceRepository
	validator *validation.Validator
	cfg       *config.Config
}

func NewSearchService(
	repo repository.SearchRepository,
	tenants tenantsrepo.TenantRepository,
	services catalogrepo.ServiceRepository,
	v *validation.Validator,
	cfg *config.Config,
) SearchService {
	return &searchService{
		repo:      repo,
		tenants:   tenants,
		services:  services,
		validator: v,
		cfg:       cfg,
	}
}

func (s *searchService) SearchServices(ctx context.Context, caller *authz.Principal, q model.ServiceSearch, limit int, offset int64) ([]*model.Service, int64, error) {
	q.Query = sanitizer.TrimAndNormalize(q.Query)
	q.Category = sanitizer.TrimAndNormalize(q.Category)
	if q.Category != "" {
		if err := s.validator.Var("category", q.Category, "oneof=hair beauty wellness fitness health consulting education other"); err != nil {
			return nil, 0, apperrors.InvalidInput("invalid category filter: " + q.Category)
		}
	}
	if err := checkRange("price", q.MinPrice, q.MaxPrice); err != nil {
		return nil, 0, err
	}
	if err := checkRange("duration", q.MinDuration, q.MaxDuration); err != nil {
		return nil, 0, err
	}
	if err := checkRating(q.MinRating); err != nil {
		return nil, 0, err
	}

	scope, err := s.scope(ctx, caller, q.Tenant)
	if err != nil {
		return nil, 0, err
	}

	return collect(s, "services",
		func() (int64, error) { return s.repo.CountServices(ctx, scope, q) },
		func() ([]*model.Service, error) { return s.repo.FindServices(ctx, scope, q, limit, offset) },
	)
}

// SearchProviders finds active providers. A ServiceID restricts results to the providers assigned to that service.
func (s *searchService) SearchProviders(ctx context.Context, caller *authz.Principal, q model.ProviderSearch, limit int, offset int64) ([]*model.Principal, int64, error) {
	q.Query = sanitizer.TrimAndNormalize(q.Query)
	q.Specialization = sanitizer.TrimAndNormalize(q.Specialization)
	q.City = sanitizer.TrimAndNormalize(q.City)
	q.ServiceID = sanitizer.TrimAndNormalize(q.ServiceID)
	if err := checkRating(q.MinRating); err != nil {
		return nil, 0, err
	}

	scope, err := s.scope(ctx, caller, q.Tenant)
	if err != nil {
		return nil, 0, err
	}

	q.ProviderIDs = nil
	if q.ServiceID != "" {
		service, err := s.services.FindByID(ctx, scope, q.ServiceID)
		if err != nil {
			switch {
			case errors.Is(err, catalogerrors.ErrNotFound):
				return nil, 0, apperrors.NotFoundWithID("Service", q.ServiceID)
			case errors.Is(err, catalogerrors.ErrInvalidID):
				return nil, 0, apperrors.InvalidInput("Invalid service ID format")
			}
			s.cfg.Log.Error("Failed to look up service for provider search", "service_id", q.ServiceID, "error", err)
			return nil, 0, apperrors.Internal("Failed to search providers", err)
		}
		if !service.IsActive {
			return nil, 0, apperrors.NotFoundWithID("Service", q.ServiceID)
		}
		q.ProviderIDs = append([]string{}, service.Providers...)
	}

	return collect(s, "providers",
		func() (int64, error) { return s.repo.CountProviders(ctx, scope, q) },
		func() ([]*model.Principal, error) { return s.repo.FindProviders(ctx, scope, q, limit, offset) },
	)
}

func (s *searchService) SearchProvidersByLocation(ctx context.Context, caller *authz.Principal, q model.NearbySearch, limit int, offset int64) ([]*model.Principal, int64, error) {
	if q.Lat == nil || q.Lng == nil {
		return nil, 0, apperrors.InvalidInput("lat and lng are required")
	}
	if *q.Lat < -90 || *q.Lat > 90 {
		return nil, 0, apperrors.InvalidInput("lat must be between -90 and 90")
	}
	if *q.Lng < -180 || *q.Lng > 180 {
		return nil, 0, apperrors.InvalidInput("lng must be between -180 and 180")
	}
	if q.RadiusKm != nil && (*q.RadiusKm <= 0 || *q.RadiusKm > model.MaxSearchRadiusKm) {
		return nil, 0, apperrors.InvalidInput("radius must be greater than 0 and at most 500 km")
	}
	q.Specialization = sanitizer.TrimAndNormalize(q.Specialization)

	scope, err := s.scope(ctx, caller, q.Tenant)
	if err != nil {
		return nil, 0, err
	}

	return collect(s, "providers",
		func() (int64, error) { return s.repo.CountProvidersNearby(ctx, scope, q) },
		func() ([]*model.Principal, error) { return s.repo.FindProvidersNearby(ctx, scope, q, limit, offset) },
	)
}

func (s *searchService) SearchTenants(ctx context.Context, caller *authz.Principal, q model.TenantSearch, limit int, offset int64) ([]*model.Tenant, int64, error) {
	q.Query = sanitizer.TrimAndNormalize(q.Query)
	q.City = sanitizer.TrimAndNormalize(q.City)
	q.BusinessType = sanitizer.TrimAndNormalize(q.BusinessType)
	if q.BusinessType != "" {
		if err := s.validator.Var("business_type", q.BusinessType, "oneof=salon spa clinic fitness consulting education other"); err != nil {
			return nil, 0, apperrors.InvalidInput("invalid business type filter: " + q.BusinessType)
		}
	}

	scope, err := s.scope(ctx, caller, "")
	if err != nil {
		return nil, 0, err
	}

	return collect(s, "tenants",
		func() (int64, error) { return s.repo.CountTenants(ctx, scope, q) },
		func() ([]*model.Tenant, error) { return s.repo.FindTenants(ctx, scope, q, limit, offset) },
	)
}

// --- Helpers ---

// scope confines callers with a tenant context to their tenant. Public callers may narrow to a subdomain.
func (s *searchService) scope(ctx context.Context, caller *authz.Principal, subdomain string) (authz.Scope, error) {
	if caller != nil && caller.Role != model.RoleAdmin {
		return authz.ResolveTenantScope(caller)
	}

	subdomain = sanitizer.SanitizeSubdomain(subdomain)
	if subdomain == "" {
		return authz.Unscoped(), nil
	}

	tenant, err := s.tenants.FindBySubdomain(ctx, subdomain)
	if err != nil {
		if errors.Is(err, tenantserrors.ErrNotFound) {
			return authz.Scope{}, apperrors.NotFound("Tenant")
		}
		s.cfg.Log.Error("Failed to resolve tenant for search", "subdomain", subdomain, "error", err)
		return authz.Scope{}, apperrors.Internal("Failed to resolve tenant", err)
	}
	if !tenant.IsActive {
		return authz.Scope{}, apperrors.NotFound("Tenant")
	}
	return authz.TenantScope(tenant.ID), nil
}

func checkRange[T int | float64](name string, lo, hi *T) error {
	if (lo != nil && *lo < 0) || (hi != nil && *hi < 0) {
		return apperrors.InvalidInput(name + " filters cannot be negative")
	}
	if lo != nil && hi != nil && *lo > *hi {
		return apperrors.InvalidInput("min " + name + " cannot exceed max " + name)
	}
	return nil
}

func checkRating(rating *float64) error {
	if rating != nil && (*rating < 0 || *rating > model.MaxSearchRating) {
		return apperrors.InvalidInput("min rating must be between 0 and 5")
	}
	return nil
}

// collect runs the count and the page query concurrently.
func collect[T any](s *searchService, kind string, count func() (int64, error), find func() ([]T, error)) ([]T, int64, error) {
	var total int64
	var results []T
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		total, errCount = count()
		if errCount != nil {
			s.cfg.Log.Error("Failed to count search results", "kind", kind, "error", errCount)
			errCount = apperrors.Internal("Failed to search "+kind, errCount)
		}
	}()

	go func() {
		defer wg.Done()
		results, errFind = find()
		if errFind != nil {
			s.cfg.Log.Error("Failed to search", "kind", kind, "error", errFind)
			errFind = apperrors.Internal("Failed to search "+kind, errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}
	return results, total, nil
}
