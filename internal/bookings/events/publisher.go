package events

import (
	"context"
	"time"

	"appointly/pkg/kafka"
	"appointly/pkg/logger"
	"appointly/pkg/middleware"
	"appointly/pkg/model"
)

const (
	BookingCreated           = "booking.created"
	BookingStatusChanged     = "booking.status_changed"
	BookingRescheduled       = "booking.rescheduled"
	BookingCancelled         = "booking.cancelled"
	BookingFeedbackSubmitted = "booking.feedback_submitted"

	SchemaVersion = "1"
	Source        = "appointly-api"
)

// BookingEvent is the payload published for every booking lifecycle change.
type BookingEvent struct {
	BookingID       string              `json:"booking_id"`
	TenantID        string              `json:"tenant_id"`
	CustomerID      string              `json:"customer_id"`
	ServiceID       string              `json:"service_id"`
	ProviderID      string              `json:"provider_id"`
	Status          model.BookingStatus `json:"status"`
	PreviousStatus  model.BookingStatus `json:"previous_status,omitempty"`
	AppointmentDate string              `json:"appointment_date"`
	StartTime       string              `json:"start_time"`
	EndTime         string              `json:"end_time"`
	FinalPrice      float64             `json:"final_price"`
	Currency        string              `json:"currency"`
	Rating          int                 `json:"rating,omitempty"`
	ActorID         string              `json:"actor_id"`
	OccurredAt      time.Time           `json:"occurred_at"`
}

// NewBookingEvent captures the current state of booking as changed by actorID.
func NewBookingEvent(booking *model.Booking, actorID string) BookingEvent {
	event := BookingEvent{
		BookingID:       booking.ID,
		TenantID:        booking.TenantID,
		CustomerID:      booking.CustomerID,
		ServiceID:       booking.ServiceID,
		ProviderID:      booking.ProviderID,
		Status:          booking.Status,
		AppointmentDate: booking.AppointmentDate.UTC().Format(model.AppointmentDateLayout),
		StartTime:       booking.StartTime,
		EndTime:         booking.EndTime,
		FinalPrice:      booking.Pricing.FinalPrice,
		Currency:        booking.Pricing.Currency,
		ActorID:         actorID,
		OccurredAt:      time.Now().UTC(),
	}
	if booking.Feedback != nil {
		event.Rating = booking.Feedback.Rating
	}
	return event
}

// Publisher announces booking lifecycle changes. Delivery is best effort; callers never see a failure.
type Publisher interface {
	Publish(ctx context.Context, eventType string, event BookingEvent)
}

// MessageProducer is satisfied by *kafka.Producer.
type MessageProducer interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

type KafkaPublisher struct {
	producer MessageProducer
	log      *logger.Logger
}

func NewKafkaPublisher(producer MessageProducer, log *logger.Logger) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, log: log}
}

func (p *KafkaPublisher) Publish(ctx context.Context, eventType string, event BookingEvent) {
	msg, err := kafka.NewMessage().
		WithKey(event.BookingID).
		WithValue(event).
		WithEventType(eventType).
		WithCorrelationID(middleware.RequestID(ctx)).
		WithTenantID(event.TenantID).
		WithSchemaVersion(SchemaVersion).
		WithSource(Source).
		Build()
	if err != nil {
		p.log.Error("Failed to build booking event", "event_type", eventType, "booking_id", event.BookingID, "error", err)
		return
	}

	// The request may finish before the broker acknowledges.
	if err := p.producer.Publish(context.WithoutCancel(ctx), msg); err != nil {
		p.log.Error("Failed to publish booking event", "event_type", eventType, "booking_id", event.BookingID, "error", err)
	}
}

// NoopPublisher drops every event. Used when no brokers are configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, string, BookingEvent) {}
