package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"appointly/internal/authz"
	"appointly/internal/bookings/events"
	"appointly/internal/testutil"
	"appointly/pkg/config"
	apperrors "appointly/pkg/errors"
	"appointly/pkg/logger"
	"appointly/pkg/model"
	"appointly/pkg/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
	last   events.BookingEvent
}

func (p *recordingPublisher) Publish(_ context.Context, eventType string, event events.BookingEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, eventType)
	p.last = event
}

type fixture struct {
	svc        BookingService
	bookings   *testutil.Bookings
	services   *testutil.Services
	principals *testutil.Principals
	publisher  *recordingPublisher

	tenantA, tenantB string
	ownerA, ownerB   *authz.Principal
	admin            *authz.Principal

	providerA  *model.Principal
	providerA2 *model.Principal
	customerA  *model.Principal
	customerA2 *model.Principal
	customerB  *model.Principal

	haircut  *model.Service
	inactive *model.Service
	serviceB *model.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{tenantA: testutil.NewID(), tenantB: testutil.NewID()}
	f.ownerA = &authz.Principal{ID: f.tenantA, Role: model.RoleTenant, TenantID: f.tenantA}
	f.ownerB = &authz.Principal{ID: f.tenantB, Role: model.RoleTenant, TenantID: f.tenantB}
	f.admin = &authz.Principal{ID: testutil.NewID(), Role: model.RoleAdmin}

	f.providerA = &model.Principal{ID: testutil.NewID(), TenantID: f.tenantA, Name: "Pat", Role: model.RoleServiceProvider, IsActive: true}
	f.providerA2 = &model.Principal{ID: testutil.NewID(), TenantID: f.tenantA, Name: "Sam", Role: model.RoleServiceProvider, IsActive: true}
	f.customerA = &model.Principal{ID: testutil.NewID(), TenantID: f.tenantA, Name: "Cam", Role: model.RoleCustomer, IsActive: true}
	f.customerA2 = &model.Principal{ID: testutil.NewID(), TenantID: f.tenantA, Name: "Dee", Role: model.RoleCustomer, IsActive: true}
	f.customerB = &model.Principal{ID: testutil.NewID(), TenantID: f.tenantB, Name: "Eli", Role: model.RoleCustomer, IsActive: true}

	f.haircut = &model.Service{
		ID:         testutil.NewID(),
		TenantID:   f.tenantA,
		Name:       "Haircut",
		Category:   model.CategoryHair,
		Duration:   60,
		Pricing:    model.Pricing{BasePrice: 50, Currency: "USD"},
		Variations: []model.QualityVariation{{Name: "Senior Stylist", PriceModifier: 20, DurationModifier: 30}},
		Providers:  []string{f.providerA.ID},
		IsActive:   true,
	}
	f.inactive = &model.Service{ID: testutil.NewID(), TenantID: f.tenantA, Name: "Old", Duration: 30, Providers: []string{}}
	f.serviceB = &model.Service{ID: testutil.NewID(), TenantID: f.tenantB, Name: "Shave", Duration: 30, Providers: []string{}, IsActive: true}

	f.bookings = testutil.NewBookings()
	f.services = testutil.NewServices(f.haircut, f.inactive, f.serviceB)
	f.principals = testutil.NewPrincipals(f.providerA, f.providerA2, f.customerA, f.customerA2, f.customerB)
	f.publisher = &recordingPublisher{}

	cfg := &config.Config{
		Log:             logger.Discard(),
		ReadTimeout:     5 * time.Second,
		WriteTimeout:    5 * time.Second,
		DefaultCurrency: "USD",
	}
	f.svc = NewBookingService(f.bookings, f.services, f.principals, validation.New(cfg.Log), f.publisher, cfg)
	return f
}

func caller(p *model.Principal) *authz.Principal {
	return &authz.Principal{ID: p.ID, Role: p.Role, TenantID: p.TenantID, Name: p.Name}
}

func tomorrow() string {
	return time.Now().UTC().AddDate(0, 0, 1).Format(model.AppointmentDateLayout)
}

func (f *fixture) request() *model.BookingCreate {
	return &model.BookingCreate{
		ServiceID:       f.haircut.ID,
		ProviderID:      f.providerA.ID,
		AppointmentDate: tomorrow(),
		StartTime:       "10:00",
	}
}

func (f *fixture) book(t *testing.T) *model.BookingDetails {
	t.Helper()
	details, err := f.svc.Create(context.Background(), caller(f.customerA), f.request())
	require.NoError(t, err)
	return details
}

func assertField(t *testing.T, err error, field string) {
	t.Helper()
	require.Error(t, err)
	appErr := apperrors.AsAppError(err)
	require.Equal(t, apperrors.CodeValidation, appErr.Code, "error: %v", err)
	for _, fe := range appErr.Fields {
		if fe.Field == field {
			return
		}
	}
	t.Errorf("expected field %s in %+v", field, appErr.Fields)
}

func TestCreate(t *testing.T) {
	f := newFixture(t)

	details := f.book(t)

	assert.NotEmpty(t, details.ID)
	assert.Equal(t, f.tenantA, details.TenantID)
	assert.Equal(t, f.customerA.ID, details.CustomerID)
	assert.Equal(t, "10:00", details.StartTime)
	assert.Equal(t, "11:00", details.EndTime)
	assert.Equal(t, 60, details.Duration)
	assert.Equal(t, model.StatusPending, details.Status)
	assert.Equal(t, 50.0, details.Pricing.FinalPrice)
	assert.Equal(t, "USD", details.Pricing.Currency)
	assert.Equal(t, model.PaymentPending, details.Payment.Status)
	assert.Equal(t, tomorrow(), details.AppointmentDate.Format(model.AppointmentDateLayout))

	require.NotNil(t, details.Customer)
	require.NotNil(t, details.Provider)
	require.NotNil(t, details.Service)
	assert.Equal(t, "Cam", details.Customer.Name)
	assert.Equal(t, "Pat", details.Provider.Name)
	assert.Equal(t, "Haircut", details.Service.Name)

	assert.EqualValues(t, 1, f.services.Get(f.haircut.ID).Stats.TotalBookings)
	assert.Equal(t, []string{events.BookingCreated}, f.publisher.events)
	assert.Equal(t, details.ID, f.publisher.last.BookingID)
}

func TestCreate_Variation(t *testing.T) {
	f := newFixture(t)

	req := f.request()
	req.Variation = "senior stylist"
	details, err := f.svc.Create(context.Background(), caller(f.customerA), req)
	require.Error(t, err)
	assertField(t, err, "variation")

	req = f.request()
	req.Variation = "Senior Stylist"
	details, err = f.svc.Create(context.Background(), caller(f.customerA), req)
	require.NoError(t, err)
	assert.Equal(t, 90, details.Duration)
	assert.Equal(t, "11:30", details.EndTime)
	assert.Equal(t, 70.0, details.Pricing.FinalPrice)
	assert.Equal(t, 50.0, details.Pricing.BasePrice)
	assert.Equal(t, "Senior Stylist", details.Pricing.Variation)
}

func TestCreate_Rejections(t *testing.T) {
	tests := []struct {
		name      string
		caller    func(f *fixture) *authz.Principal
		mutate    func(f *fixture, r *model.BookingCreate)
		wantCode  string
		wantField string
	}{
		{
			name:     "anonymous",
			caller:   func(*fixture) *authz.Principal { return nil },
			wantCode: apperrors.CodeUnauthorized,
		},
		{
			name:     "customer booking for someone else",
			mutate:   func(f *fixture, r *model.BookingCreate) { r.CustomerID = f.customerA2.ID },
			wantCode: apperrors.CodeForbidden,
		},
		{
			name:      "owner without customer",
			caller:    func(f *fixture) *authz.Principal { return f.ownerA },
			wantField: "customer_id",
		},
		{
			name:     "service in another tenant",
			mutate:   func(f *fixture, r *model.BookingCreate) { r.ServiceID = f.serviceB.ID },
			wantCode: apperrors.CodeNotFound,
		},
		{
			name:     "inactive service",
			mutate:   func(f *fixture, r *model.BookingCreate) { r.ServiceID = f.inactive.ID },
			wantCode: apperrors.CodeNotFound,
		},
		{
			name:     "unknown service",
			mutate:   func(f *fixture, r *model.BookingCreate) { r.ServiceID = testutil.NewID() },
			wantCode: apperrors.CodeNotFound,
		},
		{
			name:      "provider not assigned to service",
			mutate:    func(f *fixture, r *model.BookingCreate) { r.ProviderID = f.providerA2.ID },
			wantField: "provider_id",
		},
		{
			name:      "provider is a customer",
			mutate:    func(f *fixture, r *model.BookingCreate) { r.ProviderID = f.customerA2.ID },
			wantField: "provider_id",
		},
		{
			name:      "past date",
			mutate:    func(f *fixture, r *model.BookingCreate) { r.AppointmentDate = "2020-01-01" },
			wantField: "appointment_date",
		},
		{
			name:      "runs past midnight",
			mutate:    func(f *fixture, r *model.BookingCreate) { r.StartTime = "23:30" },
			wantField: "start_time",
		},
		{
			name:      "end time disagrees with duration",
			mutate:    func(f *fixture, r *model.BookingCreate) { r.EndTime = "10:30" },
			wantField: "end_time",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			c := caller(f.customerA)
			if tt.caller != nil {
				c = tt.caller(f)
			}
			req := f.request()
			if tt.mutate != nil {
				tt.mutate(f, req)
			}

			_, err := f.svc.Create(context.Background(), c, req)
			if tt.wantField != "" {
				assertField(t, err, tt.wantField)
			} else {
				assert.True(t, apperrors.HasCode(err, tt.wantCode), "expected %s, got %v", tt.wantCode, err)
			}
			assert.Empty(t, f.publisher.events)
			assert.EqualValues(t, 0, f.services.Get(f.haircut.ID).Stats.TotalBookings)
		})
	}
}

func TestCreate_OwnerBooksForCustomer(t *testing.T) {
	f := newFixture(t)

	req := f.request()
	req.CustomerID = f.customerA2.ID
	details, err := f.svc.Create(context.Background(), f.ownerA, req)
	require.NoError(t, err)
	assert.Equal(t, f.customerA2.ID, details.CustomerID)

	req = f.request()
	req.CustomerID = f.customerB.ID
	_, err = f.svc.Create(context.Background(), f.ownerA, req)
	assertField(t, err, "customer_id")
}

func TestCreate_PriceIsSnapshot(t *testing.T) {
	f := newFixture(t)
	details := f.book(t)

	f.services.Get(f.haircut.ID).Pricing.BasePrice = 80

	got, err := f.svc.GetByID(context.Background(), caller(f.customerA), details.ID)
	require.NoError(t, err)
	assert.Equal(t, 50.0, got.Pricing.FinalPrice)
	assert.Equal(t, 50.0, got.Pricing.BasePrice)
}

func TestCreate_NoSlotConflictCheck(t *testing.T) {
	f := newFixture(t)

	first := f.book(t)
	second := f.book(t)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, first.StartTime, second.StartTime)
	assert.Equal(t, first.ProviderID, second.ProviderID)
	assert.EqualValues(t, 2, f.services.Get(f.haircut.ID).Stats.TotalBookings)
}

func TestUpdateStatus_AnyTransitionIsAllowed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.book(t)

	updated, err := f.svc.UpdateStatus(ctx, f.ownerA, b.ID, &model.StatusUpdate{Status: model.StatusCompleted})
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, updated.Status)
	assert.Equal(t, model.StatusPending, f.publisher.last.PreviousStatus)

	updated, err = f.svc.UpdateStatus(ctx, f.ownerA, b.ID, &model.StatusUpdate{Status: model.StatusPending})
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, updated.Status)
	assert.Equal(t, model.StatusPending, f.bookings.Get(b.ID).Status)

	assert.Equal(t, 50.0, f.services.Get(f.haircut.ID).Stats.Revenue)
	assert.Equal(t, []string{events.BookingCreated, events.BookingStatusChanged, events.BookingStatusChanged}, f.publisher.events)
}

func TestUpdateStatus_RevenueOnEachCompletion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.book(t)

	for _, status := range []model.BookingStatus{model.StatusCompleted, model.StatusCompleted, model.StatusConfirmed, model.StatusCompleted} {
		_, err := f.svc.UpdateStatus(ctx, f.ownerA, b.ID, &model.StatusUpdate{Status: status})
		require.NoError(t, err)
	}
	assert.Equal(t, 100.0, f.services.Get(f.haircut.ID).Stats.Revenue)
}

func TestUpdateStatus_Access(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.book(t)

	_, err := f.svc.UpdateStatus(ctx, caller(f.customerA), b.ID, &model.StatusUpdate{Status: model.StatusConfirmed})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	_, err = f.svc.UpdateStatus(ctx, caller(f.providerA2), b.ID, &model.StatusUpdate{Status: model.StatusConfirmed})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	_, err = f.svc.UpdateStatus(ctx, f.ownerA, b.ID, &model.StatusUpdate{Status: "archived"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	updated, err := f.svc.UpdateStatus(ctx, caller(f.providerA), b.ID, &model.StatusUpdate{Status: model.StatusConfirmed})
	require.NoError(t, err)
	assert.Equal(t, model.StatusConfirmed, updated.Status)
}

func TestReschedule_RecordsPreviousSlot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.book(t)
	originalDate := b.AppointmentDate

	nextWeek := time.Now().UTC().AddDate(0, 0, 7).Format(model.AppointmentDateLayout)
	updated, err := f.svc.Reschedule(ctx, caller(f.customerA), b.ID, &model.RescheduleRequest{
		AppointmentDate: nextWeek,
		StartTime:       "14:00",
		Reason:          "  clash  ",
	})
	require.NoError(t, err)
	require.NotNil(t, updated.Reschedule)
	assert.True(t, originalDate.Equal(updated.Reschedule.PreviousDate))
	assert.Equal(t, "10:00", updated.Reschedule.PreviousStartTime)
	assert.Equal(t, 1, updated.Reschedule.RescheduleCount)
	assert.Equal(t, f.customerA.ID, updated.Reschedule.RescheduledBy)
	assert.Equal(t, "clash", updated.Reschedule.Reason)

	stored, err := f.svc.GetByID(ctx, f.ownerA, b.ID)
	require.NoError(t, err)
	assert.Equal(t, nextWeek, stored.AppointmentDate.Format(model.AppointmentDateLayout))
	assert.Equal(t, "14:00", stored.StartTime)
	assert.Equal(t, "11:00", stored.EndTime, "end time is not recomputed on reschedule")

	updated, err = f.svc.Reschedule(ctx, f.ownerA, b.ID, &model.RescheduleRequest{AppointmentDate: tomorrow(), StartTime: "09:00"})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Reschedule.RescheduleCount)
	assert.Equal(t, nextWeek, updated.Reschedule.PreviousDate.Format(model.AppointmentDateLayout))
	assert.Equal(t, "14:00", updated.Reschedule.PreviousStartTime)
	assert.Equal(t, events.BookingRescheduled, f.publisher.events[len(f.publisher.events)-1])
}

func TestReschedule_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.book(t)

	_, err := f.svc.Reschedule(ctx, caller(f.customerA), b.ID, &model.RescheduleRequest{AppointmentDate: "2020-01-01", StartTime: "10:00"})
	assertField(t, err, "appointment_date")

	_, err = f.svc.Reschedule(ctx, caller(f.customerA2), b.ID, &model.RescheduleRequest{AppointmentDate: tomorrow(), StartTime: "10:00"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	_, err = f.svc.Reschedule(ctx, f.ownerB, b.ID, &model.RescheduleRequest{AppointmentDate: tomorrow(), StartTime: "10:00"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
	assert.Nil(t, f.bookings.Get(b.ID).Reschedule)
}

func TestCancel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.book(t)

	cancelled, err := f.svc.Cancel(ctx, caller(f.customerA), b.ID, &model.CancelRequest{Reason: "sick"})
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.Cancellation)
	assert.Equal(t, f.customerA.ID, cancelled.Cancellation.CancelledBy)
	assert.Equal(t, "sick", cancelled.Cancellation.Reason)
	assert.False(t, cancelled.Cancellation.CancelledAt.IsZero())

	stored := f.bookings.Get(b.ID)
	assert.Equal(t, model.StatusCancelled, stored.Status)
	assert.False(t, stored.Payment.RefundIssued)
	assert.Zero(t, stored.Payment.RefundAmount)
	assert.Equal(t, events.BookingCancelled, f.publisher.events[len(f.publisher.events)-1])
	assert.Equal(t, model.StatusPending, f.publisher.last.PreviousStatus)

	_, err = f.svc.Cancel(ctx, f.ownerB, b.ID, &model.CancelRequest{})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestSubmitFeedback(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.book(t)

	_, err := f.svc.SubmitFeedback(ctx, caller(f.customerA), b.ID, &model.FeedbackRequest{Rating: 5})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidState))

	_, err = f.svc.UpdateStatus(ctx, f.ownerA, b.ID, &model.StatusUpdate{Status: model.StatusCompleted})
	require.NoError(t, err)

	_, err = f.svc.SubmitFeedback(ctx, caller(f.customerA2), b.ID, &model.FeedbackRequest{Rating: 5})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	_, err = f.svc.SubmitFeedback(ctx, f.ownerA, b.ID, &model.FeedbackRequest{Rating: 5})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	_, err = f.svc.SubmitFeedback(ctx, caller(f.customerA), b.ID, &model.FeedbackRequest{Rating: 6})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	updated, err := f.svc.SubmitFeedback(ctx, caller(f.customerA), b.ID, &model.FeedbackRequest{Rating: 4, Comment: "good"})
	require.NoError(t, err)
	require.NotNil(t, updated.Feedback)
	assert.Equal(t, 4, updated.Feedback.Rating)
	assert.Equal(t, "good", updated.Feedback.Comment)

	svc := f.services.Get(f.haircut.ID)
	assert.Equal(t, 4.0, svc.Stats.Rating)
	assert.EqualValues(t, 1, svc.Stats.RatingCount)
	provider := f.principals.Get(f.providerA.ID)
	require.NotNil(t, provider.Provider)
	assert.Equal(t, 4.0, provider.Provider.Rating.Average)

	updated, err = f.svc.SubmitFeedback(ctx, caller(f.customerA), b.ID, &model.FeedbackRequest{Rating: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Feedback.Rating)
	assert.Equal(t, 2.0, f.services.Get(f.haircut.ID).Stats.Rating)
	assert.EqualValues(t, 1, f.services.Get(f.haircut.ID).Stats.RatingCount)
	assert.Equal(t, events.BookingFeedbackSubmitted, f.publisher.events[len(f.publisher.events)-1])
}

func TestTenantIsolation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.book(t)

	_, err := f.svc.GetByID(ctx, f.ownerB, b.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	_, err = f.svc.GetByID(ctx, caller(f.customerB), b.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	_, err = f.svc.UpdateStatus(ctx, f.ownerB, b.ID, &model.StatusUpdate{Status: model.StatusCancelled})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
	assert.Equal(t, model.StatusPending, f.bookings.Get(b.ID).Status)

	_, err = f.svc.SubmitFeedback(ctx, caller(f.customerB), b.ID, &model.FeedbackRequest{Rating: 1})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	list, total, err := f.svc.GetAll(ctx, f.ownerB, model.BookingFilter{}, 10, 0)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, list)

	_, total, err = f.svc.GetAll(ctx, f.admin, model.BookingFilter{}, 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

func TestGetByID_ParticipantsOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.book(t)

	_, err := f.svc.GetByID(ctx, caller(f.customerA2), b.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	_, err = f.svc.GetByID(ctx, caller(f.providerA2), b.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	details, err := f.svc.GetByID(ctx, caller(f.providerA), b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Cam", details.Customer.Name)

	_, err = f.svc.GetByID(ctx, f.ownerA, "not-an-id")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidInput))
}

func TestGetAll(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.book(t)
	f.book(t)

	req := f.request()
	req.CustomerID = f.customerA2.ID
	_, err := f.svc.Create(ctx, f.ownerA, req)
	require.NoError(t, err)

	_, total, err := f.svc.GetAll(ctx, f.ownerA, model.BookingFilter{}, 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)

	list, total, err := f.svc.GetAll(ctx, caller(f.customerA2), model.BookingFilter{CustomerID: f.customerA.ID}, 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, f.customerA2.ID, list[0].CustomerID)

	_, total, err = f.svc.GetAll(ctx, caller(f.providerA2), model.BookingFilter{}, 10, 0)
	require.NoError(t, err)
	assert.Zero(t, total)

	_, err = f.svc.Cancel(ctx, f.ownerA, first.ID, &model.CancelRequest{})
	require.NoError(t, err)
	list, total, err = f.svc.GetAll(ctx, f.ownerA, model.BookingFilter{Status: model.StatusCancelled}, 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, first.ID, list[0].ID)

	_, _, err = f.svc.GetAll(ctx, f.ownerA, model.BookingFilter{Status: "archived"}, 10, 0)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidInput))

	from := time.Now().UTC().AddDate(0, 0, 5)
	to := from.AddDate(0, 0, -1)
	_, _, err = f.svc.GetAll(ctx, f.ownerA, model.BookingFilter{From: &from, To: &to}, 10, 0)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidInput))
}
