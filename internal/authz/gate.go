package authz

import (
	"slices"

	apperrors "appointly/pkg/errors"
	"appointly/pkg/model"
)

func RequireRole(p *Principal, allowed ...model.Role) error {
	if p == nil {
		return apperrors.Unauthorized("Authentication required")
	}
	if !slices.Contains(allowed, p.Role) {
		return apperrors.Forbidden("Insufficient permissions for this operation")
	}
	return nil
}

// ResolveTenantScope returns the tenant filter every query issued on behalf of p must carry.
// Admin is unscoped; a tenant owner scopes by its own id.
func ResolveTenantScope(p *Principal) (Scope, error) {
	if p == nil {
		return Scope{}, apperrors.Unauthorized("Authentication required")
	}
	switch p.Role {
	case model.RoleAdmin:
		return Unscoped(), nil
	case model.RoleTenant:
		if p.ID == "" {
			return Scope{}, apperrors.NoTenantContext()
		}
		return TenantScope(p.ID), nil
	case model.RoleServiceProvider, model.RoleCustomer:
		if p.TenantID == "" {
			return Scope{}, apperrors.NoTenantContext()
		}
		return TenantScope(p.TenantID), nil
	default:
		return Scope{}, apperrors.Forbidden("Unknown role")
	}
}

// CheckOwnership guards self-service operations: admins and tenant owners pass, anyone else
// must be the owner of the resource.
func CheckOwnership(p *Principal, ownerID string) error {
	if p == nil {
		return apperrors.Unauthorized("Authentication required")
	}
	if p.Role == model.RoleAdmin || p.Role == model.RoleTenant {
		return nil
	}
	if ownerID != "" && p.ID == ownerID {
		return nil
	}
	return apperrors.Forbidden("You can only access your own resources")
}
