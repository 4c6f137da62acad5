// Package testutil holds in-memory stand-ins for the Mongo repositories. They honour the same
// tenant scoping as the real filters so service tests can assert isolation without a database.
package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"appointly/internal/authz"
	tenantserrors "appointly/internal/tenants/errors"
	userserrors "appointly/internal/users/errors"
	"appointly/pkg/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func NewID() string {
	return primitive.NewObjectID().Hex()
}

type Tenants struct {
	mu         sync.Mutex
	byID       map[string]*model.Tenant
	LastLogins map[string]time.Time
}

func NewTenants(tenants ...*model.Tenant) *Tenants {
	s := &Tenants{byID: map[string]*model.Tenant{}, LastLogins: map[string]time.Time{}}
	for _, t := range tenants {
		s.byID[t.ID] = t
	}
	return s
}

func (s *Tenants) Get(id string) *model.Tenant {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.byID[id]
}

func (s *Tenants) Create(_ context.Context, tenant *model.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.byID {
		if t.Email == tenant.Email {
			return tenantserrors.ErrDuplicateEmail
		}
		if t.Subdomain == tenant.Subdomain {
			return tenantserrors.ErrDuplicateSubdomain
		}
	}
	tenant.ID = NewID()
	tenant.CreatedAt = time.Now().UTC()
	s.byID[tenant.ID] = tenant
	return nil
}

func (s *Tenants) find(scope authz.Scope, id string) (*model.Tenant, error) {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, fmt.Errorf("%w: %s", tenantserrors.ErrInvalidID, id)
	}
	t, ok := s.byID[id]
	if !ok || !scope.Allows(id) {
		return nil, tenantserrors.ErrNotFound
	}
	return t, nil
}

func (s *Tenants) FindByID(_ context.Context, scope authz.Scope, id string) (*model.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.find(scope, id)
	if err != nil {
		return nil, err
	}
	copied := *t
	return &copied, nil
}

func (s *Tenants) FindByEmail(_ context.Context, email string) (*model.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.byID {
		if t.Email == email {
			copied := *t
			return &copied, nil
		}
	}
	return nil, tenantserrors.ErrNotFound
}

func (s *Tenants) FindBySubdomain(_ context.Context, subdomain string) (*model.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.byID {
		if t.Subdomain == subdomain {
			copied := *t
			return &copied, nil
		}
	}
	return nil, tenantserrors.ErrNotFound
}

func (s *Tenants) FindAll(_ context.Context, limit int, offset int64) ([]*model.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.Tenant, 0, len(s.byID))
	for _, t := range s.byID {
		out = append(out, t)
	}
	return page(out, limit, offset), nil
}

func (s *Tenants) Count(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.byID)), nil
}

func (s *Tenants) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := s.FindByEmail(ctx, email)
	return err == nil, nil
}

func (s *Tenants) ExistsBySubdomain(ctx context.Context, subdomain string) (bool, error) {
	_, err := s.FindBySubdomain(ctx, subdomain)
	return err == nil, nil
}

func (s *Tenants) Update(_ context.Context, scope authz.Scope, id string, tenant *model.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.find(scope, id); err != nil {
		return err
	}
	copied := *tenant
	s.byID[id] = &copied
	return nil
}

func (s *Tenants) SetActive(_ context.Context, scope authz.Scope, id string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.find(scope, id)
	if err != nil {
		return err
	}
	t.IsActive = active
	return nil
}

func (s *Tenants) SetLastLogin(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.find(authz.Unscoped(), id)
	if err != nil {
		return err
	}
	t.LastLogin = &at
	s.LastLogins[id] = at
	return nil
}

func (s *Tenants) SetPasswordHash(_ context.Context, id string, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.find(authz.Unscoped(), id)
	if err != nil {
		return err
	}
	t.PasswordHash = hash
	return nil
}

type Principals struct {
	mu         sync.Mutex
	byID       map[string]*model.Principal
	LastLogins map[string]time.Time
}

func NewPrincipals(principals ...*model.Principal) *Principals {
	s := &Principals{byID: map[string]*model.Principal{}, LastLogins: map[string]time.Time{}}
	for _, p := range principals {
		s.byID[p.ID] = p
	}
	return s
}

func (s *Principals) Get(id string) *model.Principal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.byID[id]
}

func (s *Principals) Create(_ context.Context, principal *model.Principal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.byID {
		if p.TenantID == principal.TenantID && p.Email == principal.Email {
			return userserrors.ErrDuplicateEmail
		}
	}
	principal.ID = NewID()
	principal.CreatedAt = time.Now().UTC()
	s.byID[principal.ID] = principal
	return nil
}

func (s *Principals) find(scope authz.Scope, id string) (*model.Principal, error) {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, fmt.Errorf("%w: %s", userserrors.ErrInvalidID, id)
	}
	p, ok := s.byID[id]
	if !ok || !scope.Allows(p.TenantID) {
		return nil, userserrors.ErrNotFound
	}
	return p, nil
}

func (s *Principals) FindByID(_ context.Context, scope authz.Scope, id string) (*model.Principal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.find(scope, id)
	if err != nil {
		return nil, err
	}
	copied := *p
	return &copied, nil
}

func (s *Principals) FindByIDs(_ context.Context, scope authz.Scope, ids []string) ([]*model.Principal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Principal
	for _, id := range ids {
		p, err := s.find(scope, id)
		if err != nil {
			if _, invalid := primitive.ObjectIDFromHex(id); invalid != nil {
				return nil, err
			}
			continue
		}
		copied := *p
		out = append(out, &copied)
	}
	return out, nil
}

func (s *Principals) FindByEmail(_ context.Context, tenantID string, email string) (*model.Principal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.byID {
		if p.TenantID == tenantID && p.Email == email {
			copied := *p
			return &copied, nil
		}
	}
	return nil, userserrors.ErrNotFound
}

func (s *Principals) FindAllByEmail(_ context.Context, email string, limit int) ([]*model.Principal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Principal
	for _, p := range s.byID {
		if p.Email == email && len(out) < limit {
			copied := *p
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (s *Principals) FindAll(_ context.Context, scope authz.Scope, filter model.PrincipalFilter, limit int, offset int64) ([]*model.Principal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return page(s.matching(scope, filter), limit, offset), nil
}

func (s *Principals) Count(_ context.Context, scope authz.Scope, filter model.PrincipalFilter) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.matching(scope, filter))), nil
}

func (s *Principals) matching(scope authz.Scope, filter model.PrincipalFilter) []*model.Principal {
	var out []*model.Principal
	for _, p := range s.byID {
		if !scope.Allows(p.TenantID) {
			continue
		}
		if filter.Role != "" && p.Role != filter.Role {
			continue
		}
		if filter.IsActive != nil && p.IsActive != *filter.IsActive {
			continue
		}
		out = append(out, p)
	}
	return out
}

func (s *Principals) ExistsByEmail(ctx context.Context, tenantID string, email string) (bool, error) {
	_, err := s.FindByEmail(ctx, tenantID, email)
	return err == nil, nil
}

func (s *Principals) Update(_ context.Context, scope authz.Scope, id string, principal *model.Principal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.find(scope, id); err != nil {
		return err
	}
	copied := *principal
	s.byID[id] = &copied
	return nil
}

func (s *Principals) UpdateAvailability(_ context.Context, scope authz.Scope, id string, availability model.Availability) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.find(scope, id)
	if err != nil {
		return err
	}
	if p.Provider == nil {
		p.Provider = &model.ProviderProfile{}
	}
	p.Provider.Availability = availability
	return nil
}

func (s *Principals) UpdateRating(_ context.Context, id string, rating model.RatingSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.find(authz.Unscoped(), id)
	if err != nil {
		return err
	}
	if p.Provider == nil {
		p.Provider = &model.ProviderProfile{}
	}
	p.Provider.Rating = rating
	return nil
}

func (s *Principals) SetActive(_ context.Context, scope authz.Scope, id string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.find(scope, id)
	if err != nil {
		return err
	}
	p.IsActive = active
	return nil
}

func (s *Principals) SetLastLogin(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.find(authz.Unscoped(), id)
	if err != nil {
		return err
	}
	p.LastLogin = &at
	s.LastLogins[id] = at
	return nil
}

func (s *Principals) SetPasswordHash(_ context.Context, id string, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.find(authz.Unscoped(), id)
	if err != nil {
		return err
	}
	p.PasswordHash = hash
	return nil
}

func page[T any](items []T, limit int, offset int64) []T {
	if offset >= int64(len(items)) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
