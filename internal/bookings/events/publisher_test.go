package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"appointly/pkg/kafka"
	"appointly/pkg/logger"
	"appointly/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockProducer struct {
	PublishFunc func(ctx context.Context, msg kafka.Message) error
	messages    []kafka.Message
}

func (m *mockProducer) Publish(ctx context.Context, msg kafka.Message) error {
	m.messages = append(m.messages, msg)
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, msg)
	}
	return nil
}

func testBooking() *model.Booking {
	return &model.Booking{
		ID:              "665f1c2e9b1d4a3f8c0e1a01",
		TenantID:        "665f1c2e9b1d4a3f8c0e1a02",
		CustomerID:      "665f1c2e9b1d4a3f8c0e1a03",
		ServiceID:       "665f1c2e9b1d4a3f8c0e1a04",
		ProviderID:      "665f1c2e9b1d4a3f8c0e1a05",
		AppointmentDate: time.Date(2030, 5, 17, 0, 0, 0, 0, time.UTC),
		StartTime:       "10:00",
		EndTime:         "11:00",
		Status:          model.StatusPending,
		Pricing:         model.BookingPricing{FinalPrice: 50, Currency: "USD"},
	}
}

func TestKafkaPublisher_Publish(t *testing.T) {
	producer := &mockProducer{}
	pub := NewKafkaPublisher(producer, logger.Discard())

	event := NewBookingEvent(testBooking(), "actor-1")
	pub.Publish(context.Background(), BookingCreated, event)

	require.Len(t, producer.messages, 1)
	msg := producer.messages[0]
	assert.Equal(t, event.BookingID, msg.Key)
	assert.Equal(t, BookingCreated, msg.GetEventType())
	assert.Equal(t, event.TenantID, msg.Headers[kafka.HeaderTenantID])
	assert.Equal(t, SchemaVersion, msg.Headers[kafka.HeaderSchemaVersion])
	assert.Equal(t, Source, msg.Headers[kafka.HeaderSource])
	assert.NotEmpty(t, msg.GetEventID())

	var decoded BookingEvent
	require.NoError(t, msg.DecodeValue(&decoded))
	assert.Equal(t, "2030-05-17", decoded.AppointmentDate)
	assert.Equal(t, model.StatusPending, decoded.Status)
	assert.Equal(t, 50.0, decoded.FinalPrice)
	assert.Equal(t, "actor-1", decoded.ActorID)
}

func TestKafkaPublisher_PublishFailureIsSwallowed(t *testing.T) {
	producer := &mockProducer{
		PublishFunc: func(context.Context, kafka.Message) error {
			return errors.New("broker down")
		},
	}
	pub := NewKafkaPublisher(producer, logger.Discard())

	assert.NotPanics(t, func() {
		pub.Publish(context.Background(), BookingCancelled, NewBookingEvent(testBooking(), "actor-1"))
	})
	assert.Len(t, producer.messages, 1)
}

func TestNewBookingEvent_Feedback(t *testing.T) {
	b := testBooking()
	b.Feedback = &model.Feedback{Rating: 4}

	event := NewBookingEvent(b, "actor-1")
	assert.Equal(t, 4, event.Rating)
}

func TestNoopPublisher(t *testing.T) {
	var pub Publisher = NoopPublisher{}
	assert.NotPanics(t, func() {
		pub.Publish(context.Background(), BookingCreated, NewBookingEvent(testBooking(), "x"))
	})
}
