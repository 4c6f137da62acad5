package model

import (
	"time"
)

type BookingStatus string

const (
	StatusPending    BookingStatus = "pending"
	StatusConfirmed  BookingStatus = "confirmed"
	StatusInProgress BookingStatus = "in_progress"
	StatusCompleted  BookingStatus = "completed"
	StatusCancelled  BookingStatus = "cancelled"
	StatusNoShow     BookingStatus = "no_show"

	PaymentPending  = "pending"
	PaymentPaid     = "paid"
	PaymentRefunded = "refunded"

	AppointmentDateLayout = "2006-01-02"
)

// BookingStatuses lists every status in lifecycle order.
var BookingStatuses = []BookingStatus{
	StatusPending,
	StatusConfirmed,
	StatusInProgress,
	StatusCompleted,
	StatusCancelled,
	StatusNoShow,
}

func (s BookingStatus) Valid() bool {
	for _, known := range BookingStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Terminal reports whether s ends the lifecycle.
func (s BookingStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusNoShow
}

type AppliedDiscount struct {
	Name   string  `json:"name" bson:"name"`
	Type   string  `json:"type" bson:"type"`
	Value  float64 `json:"value" bson:"value"`
	Amount float64 `json:"amount" bson:"amount"`
}

// BookingPricing is a copy of the service price taken when the booking was made.
type BookingPricing struct {
	BasePrice  float64           `json:"base_price" bson:"base_price"`
	Variation  string            `json:"variation,omitempty" bson:"variation,omitempty"`
	Discounts  []AppliedDiscount `json:"discounts,omitempty" bson:"discounts,omitempty"`
	FinalPrice float64           `json:"final_price" bson:"final_price"`
	Currency   string            `json:"currency" bson:"currency"`
}

type BookingNotes struct {
	Customer string `json:"customer,omitempty" bson:"customer,omitempty" validate:"omitempty,max=1000"`
	Provider string `json:"provider,omitempty" bson:"provider,omitempty" validate:"omitempty,max=1000"`
	Internal string `json:"internal,omitempty" bson:"internal,omitempty" validate:"omitempty,max=1000"`
}

type Payment struct {
	Status        string     `json:"status" bson:"status" validate:"required,oneof=pending paid refunded"`
	Method        string     `json:"method,omitempty" bson:"method,omitempty"`
	TransactionID string     `json:"transaction_id,omitempty" bson:"transaction_id,omitempty"`
	PaidAt        *time.Time `json:"paid_at,omitempty" bson:"paid_at,omitempty"`
	RefundIssued  bool       `json:"refund_issued" bson:"refund_issued"`
	RefundAmount  float64    `json:"refund_amount" bson:"refund_amount"`
}

type Reminder struct {
	Type         string    `json:"type" bson:"type"`
	ScheduledFor time.Time `json:"scheduled_for" bson:"scheduled_for"`
	Sent         bool      `json:"sent" bson:"sent"`
}

type Feedback struct {
	Rating      int       `json:"rating" bson:"rating"`
	Comment     string    `json:"comment,omitempty" bson:"comment,omitempty"`
	SubmittedAt time.Time `json:"submitted_at" bson:"submitted_at"`
}

type Cancellation struct {
	CancelledBy string    `json:"cancelled_by" bson:"cancelled_by"`
	CancelledAt time.Time `json:"cancelled_at" bson:"cancelled_at"`
	Reason      string    `json:"reason,omitempty" bson:"reason,omitempty"`
}

// RescheduleRecord keeps the slot the booking had before its latest move.
type RescheduleRecord struct {
	PreviousDate      time.Time `json:"previous_date" bson:"previous_date"`
	PreviousStartTime string    `json:"previous_start_time" bson:"previous_start_time"`
	RescheduleCount   int       `json:"reschedule_count" bson:"reschedule_count"`
	RescheduledBy     string    `json:"rescheduled_by" bson:"rescheduled_by"`
	RescheduledAt     time.Time `json:"rescheduled_at" bson:"rescheduled_at"`
	Reason            string    `json:"reason,omitempty" bson:"reason,omitempty"`
}

type Booking struct {
	ID              string            `json:"id,omitempty" bson:"_id,omitempty"`
	TenantID        string            `json:"tenant_id" bson:"tenant_id"`
	CustomerID      string            `json:"customer_id" bson:"customer_id"`
	ServiceID       string            `json:"service_id" bson:"service_id"`
	ProviderID      string            `json:"provider_id" bson:"provider_id"`
	AppointmentDate time.Time         `json:"appointment_date" bson:"appointment_date"`
	StartTime       string            `json:"start_time" bson:"start_time"`
	EndTime         string            `json:"end_time" bson:"end_time"`
	Duration        int               `json:"duration" bson:"duration"`
	Status          BookingStatus     `json:"status" bson:"status"`
	Pricing         BookingPricing    `json:"pricing" bson:"pricing"`
	Notes           BookingNotes      `json:"notes" bson:"notes"`
	Payment         Payment           `json:"payment" bson:"payment"`
	Reminders       []Reminder        `json:"reminders,omitempty" bson:"reminders,omitempty"`
	Feedback        *Feedback         `json:"feedback,omitempty" bson:"feedback,omitempty"`
	Cancellation    *Cancellation     `json:"cancellation,omitempty" bson:"cancellation,omitempty"`
	Reschedule      *RescheduleRecord `json:"reschedule,omitempty" bson:"reschedule,omitempty"`
	CreatedAt       time.Time         `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at" bson:"updated_at"`
}

// BookingDetails is a booking with its references resolved for display.
type BookingDetails struct {
	*Booking
	Customer *PrincipalSummary `json:"customer,omitempty"`
	Provider *PrincipalSummary `json:"provider,omitempty"`
	Service  *ServiceSummary   `json:"service,omitempty"`
}

type ServiceSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Duration int    `json:"duration"`
}

func (s *Service) Summary() *ServiceSummary {
	return &ServiceSummary{ID: s.ID, Name: s.Name, Category: s.Category, Duration: s.Duration}
}

type BookingCreate struct {
	TenantID        string       `json:"tenant_id,omitempty" validate:"omitempty,mongodb"`
	CustomerID      string       `json:"customer_id,omitempty" validate:"omitempty,mongodb"`
	ServiceID       string       `json:"service_id" validate:"required,mongodb"`
	ProviderID      string       `json:"provider_id" validate:"required,mongodb"`
	AppointmentDate string       `json:"appointment_date" validate:"required,datetime=2006-01-02"`
	StartTime       string       `json:"start_time" validate:"required,hhmm"`
	EndTime         string       `json:"end_time,omitempty" validate:"omitempty,end_hhmm"`
	Variation       string       `json:"variation,omitempty" validate:"omitempty,max=50"`
	Notes           BookingNotes `json:"notes"`
}

type StatusUpdate struct {
	Status BookingStatus `json:"status" validate:"required,booking_status"`
}

type RescheduleRequest struct {
	AppointmentDate string `json:"appointment_date" validate:"required,datetime=2006-01-02"`
	StartTime       string `json:"start_time" validate:"required,hhmm"`
	Reason          string `json:"reason,omitempty" validate:"omitempty,max=500"`
}

type CancelRequest struct {
	Reason string `json:"reason,omitempty" validate:"omitempty,max=500"`
}

type FeedbackRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment,omitempty" validate:"omitempty,max=1000"`
}

type BookingFilter struct {
	Status     BookingStatus
	ServiceID  string
	ProviderID string
	CustomerID string
	From       *time.Time
	To         *time.Time
}
