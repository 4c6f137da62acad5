package testutil

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"appointly/internal/authz"
	catalogerrors "appointly/internal/catalog/errors"
	"appointly/pkg/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Services struct {
	mu   sync.Mutex
	byID map[string]*model.Service
}

func NewServices(services ...*model.Service) *Services {
	s := &Services{byID: map[string]*model.Service{}}
	for _, svc := range services {
		s.byID[svc.ID] = svc
	}
	return s
}

func (s *Services) Get(id string) *model.Service {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.byID[id]
}

func (s *Services) Create(_ context.Context, service *model.Service) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	service.ID = NewID()
	service.CreatedAt = time.Now().UTC()
	copied := *service
	s.byID[service.ID] = &copied
	return nil
}

func (s *Services) find(scope authz.Scope, id string) (*model.Service, error) {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, fmt.Errorf("%w: %s", catalogerrors.ErrInvalidID, id)
	}
	svc, ok := s.byID[id]
	if !ok || !scope.Allows(svc.TenantID) {
		return nil, catalogerrors.ErrNotFound
	}
	return svc, nil
}

func (s *Services) FindByID(_ context.Context, scope authz.Scope, id string) (*model.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	svc, err := s.find(scope, id)
	if err != nil {
		return nil, err
	}
	copied := *svc
	copied.Providers = slices.Clone(svc.Providers)
	return &copied, nil
}

func (s *Services) matching(scope authz.Scope, filter model.ServiceFilter) []*model.Service {
	var out []*model.Service
	for _, svc := range s.byID {
		if !scope.Allows(svc.TenantID) {
			continue
		}
		if filter.Category != "" && svc.Category != filter.Category {
			continue
		}
		if filter.ProviderID != "" && !svc.HasProvider(filter.ProviderID) {
			continue
		}
		if filter.IsActive != nil && svc.IsActive != *filter.IsActive {
			continue
		}
		out = append(out, svc)
	}
	return out
}

func (s *Services) FindAll(_ context.Context, scope authz.Scope, filter model.ServiceFilter, limit int, offset int64) ([]*model.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return page(s.matching(scope, filter), limit, offset), nil
}

func (s *Services) Count(_ context.Context, scope authz.Scope, filter model.ServiceFilter) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.matching(scope, filter))), nil
}

func (s *Services) CountByIDs(_ context.Context, scope authz.Scope, ids []string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, id := range ids {
		svc, err := s.find(scope, id)
		if err != nil {
			if _, invalid := primitive.ObjectIDFromHex(id); invalid != nil {
				return 0, err
			}
			continue
		}
		if svc.IsActive {
			n++
		}
	}
	return n, nil
}

func (s *Services) Update(_ context.Context, scope authz.Scope, id string, service *model.Service) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	svc, err := s.find(scope, id)
	if err != nil {
		return err
	}
	copied := *service
	copied.Providers = svc.Providers
	copied.Stats = svc.Stats
	s.byID[id] = &copied
	return nil
}

func (s *Services) SetActive(_ context.Context, scope authz.Scope, id string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	svc, err := s.find(scope, id)
	if err != nil {
		return err
	}
	svc.IsActive = active
	return nil
}

func (s *Services) SetProviders(_ context.Context, scope authz.Scope, id string, providerIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	svc, err := s.find(scope, id)
	if err != nil {
		return err
	}
	svc.Providers = slices.Clone(providerIDs)
	return nil
}

func (s *Services) AddProvider(_ context.Context, scope authz.Scope, ids []string, providerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		if svc, err := s.find(scope, id); err == nil && svc.IsActive && !svc.HasProvider(providerID) {
			svc.Providers = append(svc.Providers, providerID)
		}
	}
	return nil
}

func (s *Services) RemoveProvider(_ context.Context, scope authz.Scope, ids []string, providerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		if svc, err := s.find(scope, id); err == nil && svc.IsActive {
			svc.Providers = slices.DeleteFunc(svc.Providers, func(p string) bool { return p == providerID })
		}
	}
	return nil
}

func (s *Services) IncrementBookings(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	svc, err := s.find(authz.Unscoped(), id)
	if err != nil {
		return err
	}
	svc.Stats.TotalBookings++
	return nil
}

func (s *Services) AddRevenue(_ context.Context, id string, amount float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	svc, err := s.find(authz.Unscoped(), id)
	if err != nil {
		return err
	}
	svc.Stats.Revenue += amount
	return nil
}

func (s *Services) UpdateRating(_ context.Context, id string, rating model.RatingSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	svc, err := s.find(authz.Unscoped(), id)
	if err != nil {
		return err
	}
	svc.Stats.Rating = rating.Average
	svc.Stats.RatingCount = rating.Count
	return nil
}
