package testutil

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"appointly/internal/authz"
	bookingserrors "appointly/internal/bookings/errors"
	mongotx "appointly/pkg/db/mongo"
	"appointly/pkg/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Bookings is an in-memory booking repository. Transactions run the callback directly.
type Bookings struct {
	mu   sync.Mutex
	byID map[string]*model.Booking
}

func NewBookings(bookings ...*model.Booking) *Bookings {
	s := &Bookings{byID: map[string]*model.Booking{}}
	for _, b := range bookings {
		s.byID[b.ID] = b
	}
	return s
}

// Get returns the stored booking, bypassing scope.
func (s *Bookings) Get(id string) *model.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.byID[id]
}

func (s *Bookings) Create(_ context.Context, booking *model.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	booking.ID = NewID()
	booking.CreatedAt = time.Now().UTC()
	booking.UpdatedAt = booking.CreatedAt
	copied := *booking
	s.byID[booking.ID] = &copied
	return nil
}

func (s *Bookings) find(scope authz.Scope, id string) (*model.Booking, error) {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}
	b, ok := s.byID[id]
	if !ok || !scope.Allows(b.TenantID) {
		return nil, bookingserrors.ErrNotFound
	}
	return b, nil
}

func (s *Bookings) FindByID(_ context.Context, scope authz.Scope, id string) (*model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := s.find(scope, id)
	if err != nil {
		return nil, err
	}
	copied := *b
	return &copied, nil
}

func (s *Bookings) matching(scope authz.Scope, filter model.BookingFilter) []*model.Booking {
	var out []*model.Booking
	for _, b := range s.byID {
		switch {
		case !scope.Allows(b.TenantID):
		case filter.Status != "" && b.Status != filter.Status:
		case filter.ServiceID != "" && b.ServiceID != filter.ServiceID:
		case filter.ProviderID != "" && b.ProviderID != filter.ProviderID:
		case filter.CustomerID != "" && b.CustomerID != filter.CustomerID:
		case filter.From != nil && b.AppointmentDate.Before(*filter.From):
		case filter.To != nil && b.AppointmentDate.After(*filter.To):
		default:
			copied := *b
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].AppointmentDate.Equal(out[j].AppointmentDate) {
			return out[i].AppointmentDate.Before(out[j].AppointmentDate)
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out
}

func (s *Bookings) FindAll(_ context.Context, scope authz.Scope, filter model.BookingFilter, limit int, offset int64) ([]*model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return page(s.matching(scope, filter), limit, offset), nil
}

func (s *Bookings) Count(_ context.Context, scope authz.Scope, filter model.BookingFilter) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.matching(scope, filter))), nil
}

func (s *Bookings) update(scope authz.Scope, id string, apply func(b *model.Booking)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := s.find(scope, id)
	if err != nil {
		return err
	}
	apply(b)
	b.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *Bookings) UpdateStatus(_ context.Context, scope authz.Scope, id string, status model.BookingStatus) error {
	return s.update(scope, id, func(b *model.Booking) { b.Status = status })
}

func (s *Bookings) Reschedule(_ context.Context, scope authz.Scope, id string, date time.Time, startTime string, record *model.RescheduleRecord) error {
	return s.update(scope, id, func(b *model.Booking) {
		b.AppointmentDate = date
		b.StartTime = startTime
		copied := *record
		b.Reschedule = &copied
	})
}

func (s *Bookings) Cancel(_ context.Context, scope authz.Scope, id string, cancellation *model.Cancellation) error {
	return s.update(scope, id, func(b *model.Booking) {
		b.Status = model.StatusCancelled
		copied := *cancellation
		b.Cancellation = &copied
	})
}

func (s *Bookings) SetFeedback(_ context.Context, scope authz.Scope, id string, feedback *model.Feedback) error {
	return s.update(scope, id, func(b *model.Booking) {
		copied := *feedback
		b.Feedback = &copied
	})
}

func (s *Bookings) RatingForService(_ context.Context, serviceID string) (model.RatingSummary, error) {
	return s.rating(func(b *model.Booking) bool { return b.ServiceID == serviceID }), nil
}

func (s *Bookings) RatingForProvider(_ context.Context, providerID string) (model.RatingSummary, error) {
	return s.rating(func(b *model.Booking) bool { return b.ProviderID == providerID }), nil
}

func (s *Bookings) rating(match func(b *model.Booking) bool) model.RatingSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sum, count int64
	for _, b := range s.byID {
		if b.Feedback != nil && match(b) {
			sum += int64(b.Feedback.Rating)
			count++
		}
	}
	if count == 0 {
		return model.RatingSummary{}
	}
	return model.RatingSummary{
		Average: math.Round(float64(sum)/float64(count)*100) / 100,
		Count:   count,
	}
}

func (s *Bookings) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(mongo.NewSessionContext(ctx, nil))
}
