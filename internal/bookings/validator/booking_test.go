package validator

import (
	"testing"
	"time"

	apperrors "appointly/pkg/errors"
	"appointly/pkg/logger"
	"appointly/pkg/model"
	"appointly/pkg/validation"
)

var now = time.Date(2030, 5, 17, 15, 30, 0, 0, time.UTC)

func validCreate() *model.BookingCreate {
	return &model.BookingCreate{
		ServiceID:       "64b7f0c2a1b2c3d4e5f60001",
		ProviderID:      "64b7f0c2a1b2c3d4e5f60002",
		AppointmentDate: "2030-05-17",
		StartTime:       "10:00",
	}
}

func hasField(t *testing.T, err error, field string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error on %s", field)
	}
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeValidation {
		t.Fatalf("expected %s, got %s", apperrors.CodeValidation, appErr.Code)
	}
	for _, f := range appErr.Fields {
		if f.Field == field {
			return
		}
	}
	t.Errorf("expected field %s in %+v", field, appErr.Fields)
}

func TestValidateCreate(t *testing.T) {
	v := NewBookingValidator(validation.New(logger.Discard()))

	tests := []struct {
		name      string
		mutate    func(r *model.BookingCreate)
		wantField string
	}{
		{name: "today is allowed", mutate: func(*model.BookingCreate) {}},
		{name: "future date", mutate: func(r *model.BookingCreate) { r.AppointmentDate = "2031-01-01" }},
		{name: "past date", mutate: func(r *model.BookingCreate) { r.AppointmentDate = "2030-05-16" }, wantField: "appointment_date"},
		{name: "malformed date", mutate: func(r *model.BookingCreate) { r.AppointmentDate = "17/05/2030" }, wantField: "appointment_date"},
		{name: "malformed start", mutate: func(r *model.BookingCreate) { r.StartTime = "9:00" }, wantField: "start_time"},
		{name: "missing service", mutate: func(r *model.BookingCreate) { r.ServiceID = "" }, wantField: "service_id"},
		{name: "bad provider id", mutate: func(r *model.BookingCreate) { r.ProviderID = "nope" }, wantField: "provider_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validCreate()
			tt.mutate(req)

			date, err := v.ValidateCreate(req, now)
			if tt.wantField != "" {
				hasField(t, err, tt.wantField)
				return
			}
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if date.Hour() != 0 || date.Location() != time.UTC {
				t.Errorf("expected UTC midnight, got %v", date)
			}
		})
	}
}

func TestValidateReschedule(t *testing.T) {
	v := NewBookingValidator(validation.New(logger.Discard()))

	date, err := v.ValidateReschedule(&model.RescheduleRequest{AppointmentDate: "2030-06-01", StartTime: "14:00"}, now)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got := date.Format(model.AppointmentDateLayout); got != "2030-06-01" {
		t.Errorf("expected 2030-06-01, got %s", got)
	}

	_, err = v.ValidateReschedule(&model.RescheduleRequest{AppointmentDate: "2029-01-01", StartTime: "14:00"}, now)
	hasField(t, err, "appointment_date")
}

func TestEndTime(t *testing.T) {
	v := NewBookingValidator(validation.New(logger.Discard()))

	tests := []struct {
		name      string
		start     string
		duration  int
		supplied  string
		want      string
		wantField string
	}{
		{name: "one hour", start: "10:00", duration: 60, want: "11:00"},
		{name: "crosses the hour", start: "09:45", duration: 30, want: "10:15"},
		{name: "matching supplied end", start: "10:00", duration: 60, supplied: "11:00", want: "11:00"},
		{name: "last minute of the day", start: "23:00", duration: 59, want: "23:59"},
		{name: "ends at midnight", start: "23:00", duration: 60, want: "24:00"},
		{name: "supplied midnight end", start: "23:30", duration: 30, supplied: "24:00", want: "24:00"},
		{name: "one minute past midnight", start: "23:00", duration: 61, wantField: "start_time"},
		{name: "runs past midnight", start: "22:30", duration: 120, wantField: "start_time"},
		{name: "disagreeing supplied end", start: "10:00", duration: 60, supplied: "10:30", wantField: "end_time"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := v.EndTime(tt.start, tt.duration, tt.supplied)
			if tt.wantField != "" {
				hasField(t, err, tt.wantField)
				return
			}
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}
