package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"appointly/internal/authz"
	bookingserrors "appointly/internal/bookings/errors"
	"appointly/internal/bookings/events"
	"appointly/internal/bookings/repository"
	"appointly/internal/bookings/validator"
	catalogerrors "appointly/internal/catalog/errors"
	catalogrepo "appointly/internal/catalog/repository"
	userserrors "appointly/internal/users/errors"
	usersrepo "appointly/internal/users/repository"
	"appointly/pkg/config"
	apperrors "appointly/pkg/errors"
	"appointly/pkg/model"
	"appointly/pkg/sanitizer"
	"appointly/pkg/validation"

	"go.mongodb.org/mongo-driver/mongo"
)

// BookingService drives a booking from creation through its lifecycle.
type BookingService interface {
	Create(ctx context.Context, caller *authz.Principal, req *model.BookingCreate) (*model.BookingDetails, error)
	GetByID(ctx context.Context, caller *authz.Principal, id string) (*model.BookingDetails, error)
	GetAll(ctx context.Context, caller *authz.Principal, filter model.BookingFilter, limit int, offset int64) ([]*model.Booking, int64, error)
	UpdateStatus(ctx context.Context, caller *authz.Principal, id string, req *model.StatusUpdate) (*model.Booking, error)
	Reschedule(ctx context.Context, caller *authz.Principal, id string, req *model.RescheduleRequest) (*model.Booking, error)
	Cancel(ctx context.Context, caller *authz.Principal, id string, req *model.CancelRequest) (*model.Booking, error)
	SubmitFeedback(ctx context.Context, caller *authz.Principal, id string, req *model.FeedbackRequest) (*model.Booking, error)
}

type bookingService struct {
	repo       repository.BookingRepository
	services   catalogrepo.ServiceRepository
	principals usersrepo.PrincipalRepository
	validator  *validation.Validator
	bookings   *validator.BookingValidator
	publisher  events.Publisher
	cfg        *config.Config
}

func NewBookingService(
	repo repository.BookingRepository,
	services catalogrepo.ServiceRepository,
	principals usersrepo.PrincipalRepository,
	v *validation.Validator,
	publisher events.Publisher,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:       repo,
		services:   services,
		principals: principals,
		validator:  v,
		bookings:   validator.NewBookingValidator(v),
		publisher:  publisher,
		cfg:        cfg,
	}
}

var managerRoles = []model.Role{model.RoleTenant, model.RoleServiceProvider, model.RoleAdmin}

func (s *bookingService) Create(ctx context.Context, caller *authz.Principal, req *model.BookingCreate) (*model.BookingDetails, error) {
	scope, err := authz.ResolveTenantScope(caller)
	if err != nil {
		return nil, err
	}

	if caller.Role == model.RoleCustomer {
		if req.CustomerID != "" && req.CustomerID != caller.ID {
			return nil, apperrors.Forbidden("Customers can only book for themselves")
		}
		req.CustomerID = caller.ID
	} else if req.CustomerID == "" {
		return nil, fieldError("customer_id", "customer_id is required")
	}

	s.sanitizeCreate(req)
	now := time.Now().UTC()
	date, err := s.bookings.ValidateCreate(req, now)
	if err != nil {
		s.cfg.Log.Warn("Booking validation failed", "service_id", req.ServiceID, "error", err)
		return nil, err
	}

	if scope.IsUnscoped() && req.TenantID != "" {
		scope = authz.TenantScope(req.TenantID)
	}
	service, err := s.services.FindByID(ctx, scope, req.ServiceID)
	if err != nil {
		return nil, s.mapServiceError(err, req.ServiceID)
	}
	if !service.IsActive {
		return nil, apperrors.NotFoundWithID("Service", req.ServiceID)
	}

	tenantScope := authz.TenantScope(service.TenantID)
	provider, err := s.participant(ctx, tenantScope, "provider_id", req.ProviderID, model.RoleServiceProvider)
	if err != nil {
		return nil, err
	}
	if len(service.Providers) > 0 && !service.HasProvider(provider.ID) {
		return nil, fieldError("provider_id", "provider does not deliver this service")
	}
	customer, err := s.participant(ctx, tenantScope, "customer_id", req.CustomerID, model.RoleCustomer)
	if err != nil {
		return nil, err
	}

	variation := model.QualityVariation{}
	if req.Variation != "" {
		var ok bool
		if variation, ok = service.Variation(req.Variation); !ok {
			return nil, fieldError("variation", "service has no variation named "+req.Variation)
		}
	}

	duration := service.Duration + variation.DurationModifier
	endTime, err := s.bookings.EndTime(req.StartTime, duration, req.EndTime)
	if err != nil {
		s.cfg.Log.Warn("Booking validation failed", "service_id", req.ServiceID, "error", err)
		return nil, err
	}

	booking := &model.Booking{
		TenantID:        service.TenantID,
		CustomerID:      customer.ID,
		ServiceID:       service.ID,
		ProviderID:      provider.ID,
		AppointmentDate: date,
		StartTime:       req.StartTime,
		EndTime:         endTime,
		Duration:        duration,
		Status:          model.StatusPending,
		Pricing:         quote(service, variation, now),
		Notes:           req.Notes,
		Payment:         model.Payment{Status: model.PaymentPending},
	}

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.repo.Create(sessCtx, booking); err != nil {
			return apperrors.Internal("Failed to create booking", err)
		}
		if err := s.services.IncrementBookings(sessCtx, service.ID); err != nil {
			return apperrors.Internal("Failed to update service statistics", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to create booking", "service_id", service.ID, "error", err)
		return nil, err
	}

	s.cfg.Log.Info("Booking created successfully",
		"id", booking.ID,
		"tenant_id", booking.TenantID,
		"service_id", booking.ServiceID,
		"provider_id", booking.ProviderID,
		"appointment_date", req.AppointmentDate,
		"start_time", booking.StartTime,
	)
	s.publisher.Publish(ctx, events.BookingCreated, events.NewBookingEvent(booking, caller.ID))

	return &model.BookingDetails{
		Booking:  booking,
		Customer: customer.Summary(),
		Provider: provider.Summary(),
		Service:  service.Summary(),
	}, nil
}

func (s *bookingService) GetByID(ctx context.Context, caller *authz.Principal, id string) (*model.BookingDetails, error) {
	booking, _, err := s.load(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	return s.details(ctx, booking), nil
}

// GetAll lists bookings in the caller's tenant. Customers and providers only see their own.
func (s *bookingService) GetAll(ctx context.Context, caller *authz.Principal, filter model.BookingFilter, limit int, offset int64) ([]*model.Booking, int64, error) {
	scope, err := authz.ResolveTenantScope(caller)
	if err != nil {
		return nil, 0, err
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, apperrors.InvalidInput("invalid status filter: " + string(filter.Status))
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, 0, apperrors.InvalidInput("to must not be before from")
	}

	switch caller.Role {
	case model.RoleCustomer:
		filter.CustomerID = caller.ID
	case model.RoleServiceProvider:
		filter.ProviderID = caller.ID
	}

	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx, scope, filter)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count bookings", "error", errCount)
			errCount = apperrors.Internal("Failed to count bookings", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		bookings, errFind = s.repo.FindAll(ctx, scope, filter, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list bookings", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve bookings", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}
	return bookings, count, nil
}

// UpdateStatus moves a booking to req.Status. Completing a booking books its price as service revenue.
func (s *bookingService) UpdateStatus(ctx context.Context, caller *authz.Principal, id string, req *model.StatusUpdate) (*model.Booking, error) {
	if err := authz.RequireRole(caller, managerRoles...); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	booking, scope, err := s.load(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	previous := booking.Status
	if !CanTransition(previous, req.Status) {
		return nil, apperrors.InvalidState(fmt.Sprintf("Cannot move booking from %s to %s", previous, req.Status))
	}

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.repo.UpdateStatus(sessCtx, scope, id, req.Status); err != nil {
			return s.mapRepoError(err, id, "Failed to update booking status")
		}
		if req.Status == model.StatusCompleted && previous != model.StatusCompleted {
			if err := s.services.AddRevenue(sessCtx, booking.ServiceID, booking.Pricing.FinalPrice); err != nil {
				return apperrors.Internal("Failed to update service statistics", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	booking.Status = req.Status

	s.cfg.Log.Info("Booking status updated successfully", "id", id, "from", previous, "to", req.Status)
	event := events.NewBookingEvent(booking, caller.ID)
	event.PreviousStatus = previous
	s.publisher.Publish(ctx, events.BookingStatusChanged, event)
	return booking, nil
}

// Reschedule moves the appointment to a new date and start time. The stored end time is left as it was.
func (s *bookingService) Reschedule(ctx context.Context, caller *authz.Principal, id string, req *model.RescheduleRequest) (*model.Booking, error) {
	req.Reason = sanitizer.NormalizeText(req.Reason)
	req.StartTime = sanitizer.TrimAndNormalize(req.StartTime)
	date, err := s.bookings.ValidateReschedule(req, time.Now().UTC())
	if err != nil {
		s.cfg.Log.Warn("Reschedule validation failed", "id", id, "error", err)
		return nil, err
	}

	booking, scope, err := s.load(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	record := &model.RescheduleRecord{
		PreviousDate:      booking.AppointmentDate,
		PreviousStartTime: booking.StartTime,
		RescheduleCount:   1,
		RescheduledBy:     caller.ID,
		RescheduledAt:     time.Now().UTC().Truncate(time.Millisecond),
		Reason:            req.Reason,
	}
	if booking.Reschedule != nil {
		record.RescheduleCount = booking.Reschedule.RescheduleCount + 1
	}

	if err := s.repo.Reschedule(ctx, scope, id, date, req.StartTime, record); err != nil {
		return nil, s.mapRepoError(err, id, "Failed to reschedule booking")
	}
	booking.AppointmentDate = date
	booking.StartTime = req.StartTime
	booking.Reschedule = record

	s.cfg.Log.Info("Booking rescheduled successfully",
		"id", id,
		"appointment_date", req.AppointmentDate,
		"start_time", req.StartTime,
		"reschedule_count", record.RescheduleCount,
	)
	s.publisher.Publish(ctx, events.BookingRescheduled, events.NewBookingEvent(booking, caller.ID))
	return booking, nil
}

// Cancel marks the booking cancelled. Refunds are settled outside the system.
func (s *bookingService) Cancel(ctx context.Context, caller *authz.Principal, id string, req *model.CancelRequest) (*model.Booking, error) {
	req.Reason = sanitizer.NormalizeText(req.Reason)
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	booking, scope, err := s.load(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	cancellation := &model.Cancellation{
		CancelledBy: caller.ID,
		CancelledAt: time.Now().UTC().Truncate(time.Millisecond),
		Reason:      req.Reason,
	}
	if err := s.repo.Cancel(ctx, scope, id, cancellation); err != nil {
		return nil, s.mapRepoError(err, id, "Failed to cancel booking")
	}
	previous := booking.Status
	booking.Status = model.StatusCancelled
	booking.Cancellation = cancellation

	s.cfg.Log.Info("Booking cancelled successfully", "id", id, "cancelled_by", caller.ID)
	event := events.NewBookingEvent(booking, caller.ID)
	event.PreviousStatus = previous
	s.publisher.Publish(ctx, events.BookingCancelled, event)
	return booking, nil
}

// SubmitFeedback records the customer's rating of a completed booking, replacing any earlier one.
func (s *bookingService) SubmitFeedback(ctx context.Context, caller *authz.Principal, id string, req *model.FeedbackRequest) (*model.Booking, error) {
	scope, err := authz.ResolveTenantScope(caller)
	if err != nil {
		return nil, err
	}
	req.Comment = sanitizer.NormalizeText(req.Comment)
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, scope, id)
	if err != nil {
		return nil, s.mapRepoError(err, id, "Failed to retrieve booking")
	}
	if caller.Role != model.RoleCustomer || booking.CustomerID != caller.ID {
		return nil, apperrors.Forbidden("Only the customer of this booking can leave feedback")
	}
	if booking.Status != model.StatusCompleted {
		return nil, apperrors.InvalidState("Feedback can only be submitted for completed bookings")
	}

	feedback := &model.Feedback{
		Rating:      req.Rating,
		Comment:     req.Comment,
		SubmittedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
	if err := s.repo.SetFeedback(ctx, scope, id, feedback); err != nil {
		return nil, s.mapRepoError(err, id, "Failed to submit feedback")
	}
	booking.Feedback = feedback

	s.refreshRatings(ctx, booking)

	s.cfg.Log.Info("Feedback submitted successfully", "id", id, "rating", req.Rating)
	s.publisher.Publish(ctx, events.BookingFeedbackSubmitted, events.NewBookingEvent(booking, caller.ID))
	return booking, nil
}

// --- Helpers ---

// load fetches a booking the caller may act on. Customers and providers outside the booking
// get the same NotFound as a caller from another tenant.
func (s *bookingService) load(ctx context.Context, caller *authz.Principal, id string) (*model.Booking, authz.Scope, error) {
	scope, err := authz.ResolveTenantScope(caller)
	if err != nil {
		return nil, authz.Scope{}, err
	}
	if id == "" {
		return nil, authz.Scope{}, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, scope, id)
	if err != nil {
		return nil, authz.Scope{}, s.mapRepoError(err, id, "Failed to retrieve booking")
	}

	switch caller.Role {
	case model.RoleCustomer:
		if booking.CustomerID != caller.ID {
			return nil, authz.Scope{}, apperrors.NotFoundWithID("Booking", id)
		}
	case model.RoleServiceProvider:
		if booking.ProviderID != caller.ID {
			return nil, authz.Scope{}, apperrors.NotFoundWithID("Booking", id)
		}
	}
	return booking, scope, nil
}

// participant resolves id to an active principal with role inside scope.
func (s *bookingService) participant(ctx context.Context, scope authz.Scope, field, id string, role model.Role) (*model.Principal, error) {
	p, err := s.principals.FindByID(ctx, scope, id)
	if err != nil {
		if errors.Is(err, userserrors.ErrNotFound) || errors.Is(err, userserrors.ErrInvalidID) {
			return nil, fieldError(field, "not found in this tenant")
		}
		s.cfg.Log.Error("Failed to look up booking participant", "field", field, "id", id, "error", err)
		return nil, apperrors.Internal("Failed to look up "+field, err)
	}
	if p.Role != role {
		return nil, fieldError(field, fmt.Sprintf("user is not a %s", role))
	}
	if !p.IsActive {
		return nil, fieldError(field, "user is deactivated")
	}
	return p, nil
}

// details resolves the references of booking for display. Missing references are left empty.
func (s *bookingService) details(ctx context.Context, booking *model.Booking) *model.BookingDetails {
	d := &model.BookingDetails{Booking: booking}
	scope := authz.TenantScope(booking.TenantID)

	if svc, err := s.services.FindByID(ctx, scope, booking.ServiceID); err == nil {
		d.Service = svc.Summary()
	} else {
		s.cfg.Log.Warn("Failed to resolve booking service", "id", booking.ID, "service_id", booking.ServiceID, "error", err)
	}

	principals, err := s.principals.FindByIDs(ctx, scope, []string{booking.CustomerID, booking.ProviderID})
	if err != nil {
		s.cfg.Log.Warn("Failed to resolve booking participants", "id", booking.ID, "error", err)
		return d
	}
	for _, p := range principals {
		switch p.ID {
		case booking.CustomerID:
			d.Customer = p.Summary()
		case booking.ProviderID:
			d.Provider = p.Summary()
		}
	}
	return d
}

// refreshRatings recomputes the service and provider averages. Failures are logged and left
// for the next submission to repair.
func (s *bookingService) refreshRatings(ctx context.Context, booking *model.Booking) {
	if rating, err := s.repo.RatingForService(ctx, booking.ServiceID); err != nil {
		s.cfg.Log.Error("Failed to aggregate service rating", "service_id", booking.ServiceID, "error", err)
	} else if err := s.services.UpdateRating(ctx, booking.ServiceID, rating); err != nil {
		s.cfg.Log.Error("Failed to update service rating", "service_id", booking.ServiceID, "error", err)
	}

	if rating, err := s.repo.RatingForProvider(ctx, booking.ProviderID); err != nil {
		s.cfg.Log.Error("Failed to aggregate provider rating", "provider_id", booking.ProviderID, "error", err)
	} else if err := s.principals.UpdateRating(ctx, booking.ProviderID, rating); err != nil {
		s.cfg.Log.Error("Failed to update provider rating", "provider_id", booking.ProviderID, "error", err)
	}
}

func (s *bookingService) sanitizeCreate(req *model.BookingCreate) {
	req.TenantID = sanitizer.TrimAndNormalize(req.TenantID)
	req.CustomerID = sanitizer.TrimAndNormalize(req.CustomerID)
	req.ServiceID = sanitizer.TrimAndNormalize(req.ServiceID)
	req.ProviderID = sanitizer.TrimAndNormalize(req.ProviderID)
	req.AppointmentDate = sanitizer.TrimAndNormalize(req.AppointmentDate)
	req.StartTime = sanitizer.TrimAndNormalize(req.StartTime)
	req.EndTime = sanitizer.TrimAndNormalize(req.EndTime)
	req.Variation = sanitizer.NormalizeName(req.Variation)
	req.Notes.Customer = sanitizer.NormalizeText(req.Notes.Customer)
	req.Notes.Provider = sanitizer.NormalizeText(req.Notes.Provider)
	req.Notes.Internal = sanitizer.NormalizeText(req.Notes.Internal)
}

func (s *bookingService) mapServiceError(err error, id string) error {
	if errors.Is(err, catalogerrors.ErrNotFound) {
		return apperrors.NotFoundWithID("Service", id)
	}
	if errors.Is(err, catalogerrors.ErrInvalidID) {
		return apperrors.InvalidInput("Invalid service ID format")
	}
	s.cfg.Log.Error("Failed to retrieve service", "id", id, "error", err)
	return apperrors.Internal("Failed to retrieve service", err)
}

func (s *bookingService) mapRepoError(err error, id, internalMsg string) error {
	if errors.Is(err, bookingserrors.ErrNotFound) {
		return apperrors.NotFoundWithID("Booking", id)
	}
	if errors.Is(err, bookingserrors.ErrInvalidID) {
		return apperrors.InvalidInput("Invalid booking ID format")
	}
	s.cfg.Log.Error(internalMsg, "id", id, "error", err)
	return apperrors.Internal(internalMsg, err)
}

func fieldError(field, message string) error {
	return apperrors.ValidationFields("Validation failed", []apperrors.FieldError{
		{Field: field, Message: message},
	})
}
