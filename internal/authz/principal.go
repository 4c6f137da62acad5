package authz

import (
	"context"

	apperrors "appointly/pkg/errors"
	"appointly/pkg/model"
)

// Principal is the authenticated caller of a request.
// TenantID is the tenant's own id for the tenant role and empty for admin.
type Principal struct {
	ID       string
	Role     model.Role
	TenantID string
	Name     string
	Email    string
}

func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == model.RoleAdmin
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func FromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok && p != nil
}

// MustPrincipal returns the caller or an UNAUTHORIZED error when the request is anonymous.
func MustPrincipal(ctx context.Context) (*Principal, error) {
	p, ok := FromContext(ctx)
	if !ok {
		return nil, apperrors.Unauthorized("Authentication required")
	}
	return p, nil
}
