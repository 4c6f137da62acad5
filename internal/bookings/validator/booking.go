package validator

import (
	"fmt"
	"time"

	apperrors "appointly/pkg/errors"
	"appointly/pkg/model"
	"appointly/pkg/validation"
)

// BookingValidator checks booking requests and derives the appointment window from them.
type BookingValidator struct {
	validator *validation.Validator
}

func NewBookingValidator(v *validation.Validator) *BookingValidator {
	return &BookingValidator{validator: v}
}

// ValidateCreate returns the requested appointment date as UTC midnight.
func (v *BookingValidator) ValidateCreate(req *model.BookingCreate, now time.Time) (time.Time, error) {
	if err := v.validator.Struct(req); err != nil {
		return time.Time{}, err
	}
	return appointmentDate(req.AppointmentDate, now)
}

func (v *BookingValidator) ValidateReschedule(req *model.RescheduleRequest, now time.Time) (time.Time, error) {
	if err := v.validator.Struct(req); err != nil {
		return time.Time{}, err
	}
	return appointmentDate(req.AppointmentDate, now)
}

// EndTime computes start plus duration minutes. A booking must finish by midnight, which is
// rendered as "24:00", and a supplied end time must agree with the computed one.
func (v *BookingValidator) EndTime(start string, duration int, supplied string) (string, error) {
	startMin, err := validation.ParseClock(start)
	if err != nil {
		return "", fieldError("start_time", "start_time must be in HH:MM format")
	}

	endMin := startMin + duration
	if endMin > validation.MinutesPerDay {
		return "", fieldError("start_time", fmt.Sprintf("a %d minute booking starting at %s would run past midnight", duration, start))
	}

	end := validation.FormatClock(endMin)
	if supplied != "" && supplied != end {
		return "", fieldError("end_time", fmt.Sprintf("end_time must be %s for a %d minute booking", end, duration))
	}
	return end, nil
}

func appointmentDate(value string, now time.Time) (time.Time, error) {
	date, err := time.Parse(model.AppointmentDateLayout, value)
	if err != nil {
		return time.Time{}, fieldError("appointment_date", "appointment_date must be in YYYY-MM-DD format")
	}

	now = now.UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if date.Before(today) {
		return time.Time{}, fieldError("appointment_date", "appointment_date cannot be in the past")
	}
	return date, nil
}

func fieldError(field, message string) error {
	return apperrors.ValidationFields("Validation failed", []apperrors.FieldError{
		{Field: field, Message: message},
	})
}
