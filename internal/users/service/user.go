package service

import (
	"context"
	"errors"
	"sync"

	"appointly/internal/authz"
	userserrors "appointly/internal/users/errors"
	"appointly/internal/users/repository"
	"appointly/pkg/auth"
	"appointly/pkg/config"
	apperrors "appointly/pkg/errors"
	"appointly/pkg/model"
	"appointly/pkg/sanitizer"
	"appointly/pkg/validation"
)

type UserService interface {
	Register(ctx context.Context, principal *model.Principal) error
	Create(ctx context.Context, caller *authz.Principal, req *model.PrincipalCreate) (*model.Principal, error)
	GetByID(ctx context.Context, caller *authz.Principal, id string) (*model.Principal, error)
	GetAll(ctx context.Context, caller *authz.Principal, filter model.PrincipalFilter, limit int, offset int64) ([]*model.Principal, int64, error)
	Update(ctx context.Context, caller *authz.Principal, id string, updates *model.PrincipalUpdate) (*model.Principal, error)
	UpdateAvailability(ctx context.Context, caller *authz.Principal, id string, availability *model.Availability) error
	Deactivate(ctx context.Context, caller *authz.Principal, id string) error
}

type userService struct {
	repo      repository.PrincipalRepository
	hasher    *auth.Hasher
	validator *validation.Validator
	cfg       *config.Config
}

func NewUserService(
	repo repository.PrincipalRepository,
	hasher *auth.Hasher,
	validator *validation.Validator,
	cfg *config.Config,
) UserService {
	return &userService{
		repo:      repo,
		hasher:    hasher,
		validator: validator,
		cfg:       cfg,
	}
}

// Register stores an already-hashed principal after sanitizing and validating it.
// It is the single write path used by customer sign-up, tenant staff creation and admin bootstrap.
func (s *userService) Register(ctx context.Context, principal *model.Principal) error {
	s.applyDefaults(principal)
	s.sanitize(principal)
	if err := s.validate(principal); err != nil {
		return err
	}

	taken, err := s.repo.ExistsByEmail(ctx, principal.TenantID, principal.Email)
	if err != nil {
		return apperrors.Internal("Failed to check user email", err)
	}
	if taken {
		return apperrors.Conflict("Email is already registered")
	}

	if err := s.repo.Create(ctx, principal); err != nil {
		if errors.Is(err, userserrors.ErrDuplicateEmail) {
			return apperrors.Conflict("Email is already registered")
		}
		s.cfg.Log.Error("Failed to create user", "tenant_id", principal.TenantID, "error", err)
		return apperrors.Internal("Failed to create user", err)
	}

	s.cfg.Log.Info("User created successfully",
		"id", principal.ID,
		"tenant_id", principal.TenantID,
		"role", principal.Role,
	)
	return nil
}

func (s *userService) Create(ctx context.Context, caller *authz.Principal, req *model.PrincipalCreate) (*model.Principal, error) {
	if err := authz.RequireRole(caller, model.RoleTenant, model.RoleAdmin); err != nil {
		return nil, err
	}
	scope, err := authz.ResolveTenantScope(caller)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		s.cfg.Log.Warn("User create validation failed", "error", err)
		return nil, err
	}

	tenantID := scope.TenantID()
	if scope.IsUnscoped() {
		if req.TenantID == "" {
			return nil, apperrors.ValidationFields("Validation failed", []apperrors.FieldError{
				{Field: "tenant_id", Message: "tenant_id is required"},
			})
		}
		tenantID = req.TenantID
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperrors.Internal("Failed to hash password", err)
	}

	principal := &model.Principal{
		TenantID:     tenantID,
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Phone:        req.Phone,
		Role:         req.Role,
		Address:      req.Address,
	}
	switch req.Role {
	case model.RoleServiceProvider:
		principal.Provider = req.Provider
	case model.RoleCustomer:
		principal.Customer = req.Customer
	}

	if err := s.Register(ctx, principal); err != nil {
		return nil, err
	}
	return principal, nil
}

func (s *userService) GetByID(ctx context.Context, caller *authz.Principal, id string) (*model.Principal, error) {
	scope, err := authz.ResolveTenantScope(caller)
	if err != nil {
		return nil, err
	}
	if id == "" {
		return nil, apperrors.InvalidInput("User ID cannot be empty")
	}

	principal, err := s.repo.FindByID(ctx, scope, id)
	if err != nil {
		return nil, s.mapRepoError(err, id, "Failed to retrieve user")
	}
	if err := authz.CheckOwnership(caller, principal.ID); err != nil {
		return nil, err
	}
	return principal, nil
}

func (s *userService) GetAll(ctx context.Context, caller *authz.Principal, filter model.PrincipalFilter, limit int, offset int64) ([]*model.Principal, int64, error) {
	if err := authz.RequireRole(caller, model.RoleTenant, model.RoleAdmin); err != nil {
		return nil, 0, err
	}
	scope, err := authz.ResolveTenantScope(caller)
	if err != nil {
		return nil, 0, err
	}
	if filter.Role != "" && !filter.Role.Valid() {
		return nil, 0, apperrors.InvalidInput("invalid role filter: " + filter.Role.String())
	}

	var count int64
	var principals []*model.Principal
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx, scope, filter)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count users", "error", errCount)
			errCount = apperrors.Internal("Failed to count users", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		principals, errFind = s.repo.FindAll(ctx, scope, filter, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list users", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve users", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}
	return principals, count, nil
}

func (s *userService) Update(ctx context.Context, caller *authz.Principal, id string, updates *model.PrincipalUpdate) (*model.Principal, error) {
	existing, err := s.GetByID(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Struct(updates); err != nil {
		s.cfg.Log.Warn("User update validation failed", "id", id, "error", err)
		return nil, err
	}

	merged, err := s.mergePrincipalUpdates(existing, updates)
	if err != nil {
		return nil, err
	}
	s.sanitize(merged)
	if err := s.validate(merged); err != nil {
		return nil, err
	}

	scope, _ := authz.ResolveTenantScope(caller)
	if err := s.repo.Update(ctx, scope, id, merged); err != nil {
		return nil, s.mapRepoError(err, id, "Failed to update user")
	}

	s.cfg.Log.Info("User updated successfully", "id", id)
	return merged, nil
}

func (s *userService) UpdateAvailability(ctx context.Context, caller *authz.Principal, id string, availability *model.Availability) error {
	existing, err := s.GetByID(ctx, caller, id)
	if err != nil {
		return err
	}
	if existing.Role != model.RoleServiceProvider {
		return apperrors.InvalidState("Availability can only be set for service providers")
	}
	if err := s.validator.Struct(availability); err != nil {
		s.cfg.Log.Warn("Availability validation failed", "id", id, "error", err)
		return err
	}

	scope, _ := authz.ResolveTenantScope(caller)
	if err := s.repo.UpdateAvailability(ctx, scope, id, *availability); err != nil {
		return s.mapRepoError(err, id, "Failed to update availability")
	}

	s.cfg.Log.Info("Availability updated successfully",
		"id", id,
		"weekly_windows", len(availability.Weekly),
		"time_off", len(availability.TimeOff),
	)
	return nil
}

// Deactivate soft-deletes a user. Deactivating an inactive user succeeds without change.
func (s *userService) Deactivate(ctx context.Context, caller *authz.Principal, id string) error {
	if err := authz.RequireRole(caller, model.RoleTenant, model.RoleAdmin); err != nil {
		return err
	}
	scope, err := authz.ResolveTenantScope(caller)
	if err != nil {
		return err
	}

	if err := s.repo.SetActive(ctx, scope, id, false); err != nil {
		return s.mapRepoError(err, id, "Failed to deactivate user")
	}

	s.cfg.Log.Info("User deactivated successfully", "id", id)
	return nil
}

// --- Helpers ---

func (s *userService) applyDefaults(p *model.Principal) {
	p.IsActive = true
	p.EnsureProfile()
	if p.Provider != nil {
		p.Provider.Rating = model.RatingSummary{}
		if p.Provider.Availability.Weekly == nil {
			p.Provider.Availability.Weekly = []model.WeeklyWindow{}
		}
		if p.Provider.Availability.TimeOff == nil {
			p.Provider.Availability.TimeOff = []model.TimeOff{}
		}
	}
}

func (s *userService) sanitize(p *model.Principal) {
	p.Name = sanitizer.NormalizeName(p.Name)
	p.Email = sanitizer.SanitizeEmail(p.Email)
	p.Phone = sanitizer.NormalizePhone(p.Phone)
	if p.Provider != nil {
		p.Provider.Bio = sanitizer.NormalizeText(p.Provider.Bio)
		p.Provider.Specializations = sanitizer.NormalizeTags(p.Provider.Specializations)
		if p.Provider.Avatar != "" {
			p.Provider.Avatar = sanitizer.SanitizeURL(p.Provider.Avatar)
		}
	}
	if p.Customer != nil {
		p.Customer.Preferences.PreferredProviders = sanitizer.NormalizeIDs(p.Customer.Preferences.PreferredProviders)
	}
	if p.Admin != nil {
		p.Admin.Permissions = sanitizer.NormalizeTags(p.Admin.Permissions)
	}
}

func (s *userService) validate(p *model.Principal) error {
	if err := s.validator.Struct(p); err != nil {
		s.cfg.Log.Warn("User validation failed", "email", p.Email, "error", err)
		return err
	}
	return nil
}

func (s *userService) mergePrincipalUpdates(existing *model.Principal, updates *model.PrincipalUpdate) (*model.Principal, error) {
	merged := *existing

	if updates.Name != "" {
		merged.Name = updates.Name
	}
	if updates.Phone != nil {
		merged.Phone = *updates.Phone
	}
	if updates.Address != nil {
		merged.Address = updates.Address
	}
	if updates.Provider != nil {
		if existing.Role != model.RoleServiceProvider {
			return nil, apperrors.ValidationFields("Validation failed", []apperrors.FieldError{
				{Field: "provider", Message: "profile does not match role"},
			})
		}
		provider := *updates.Provider
		if existing.Provider != nil {
			provider.Rating = existing.Provider.Rating
			provider.Availability = existing.Provider.Availability
		}
		merged.Provider = &provider
	}
	if updates.Customer != nil {
		if existing.Role != model.RoleCustomer {
			return nil, apperrors.ValidationFields("Validation failed", []apperrors.FieldError{
				{Field: "customer", Message: "profile does not match role"},
			})
		}
		customer := *updates.Customer
		merged.Customer = &customer
	}

	return &merged, nil
}

func (s *userService) mapRepoError(err error, id, internalMsg string) error {
	if errors.Is(err, userserrors.ErrNotFound) {
		return apperrors.NotFoundWithID("User", id)
	}
	if errors.Is(err, userserrors.ErrInvalidID) {
		return apperrors.InvalidInput("Invalid user ID format")
	}
	s.cfg.Log.Error(internalMsg, "id", id, "error", err)
	return apperrors.Internal(internalMsg, err)
}
