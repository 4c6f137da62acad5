package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	apperrors "appointly/pkg/errors"
	"appointly/pkg/logger"
	"appointly/pkg/model"

	"github.com/go-playground/validator/v10"
)

const (
	TagHHMM           = "hhmm"
	TagEndHHMM        = "end_hhmm"
	TagWeekday        = "weekday"
	TagSubdomain      = "subdomain"
	TagGeoCoordinates = "geo_coordinates"
	TagBookingStatus  = "booking_status"
)

var (
	subdomainRegex = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{1,61}[a-z0-9])$`)
	weekdays       = map[string]struct{}{
		"sunday": {}, "monday": {}, "tuesday": {}, "wednesday": {},
		"thursday": {}, "friday": {}, "saturday": {},
	}
	reservedSubdomains = map[string]struct{}{
		"www": {}, "api": {}, "admin": {}, "app": {}, "mail": {},
	}
)

// Validator wraps a go-playground validator that knows the custom tags used by the model package.
type Validator struct {
	validate *validator.Validate
}

func New(log *logger.Logger) *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	custom := map[string]validator.Func{
		TagHHMM:           validateHHMM,
		TagEndHHMM:        validateEndHHMM,
		TagWeekday:        validateWeekday,
		TagSubdomain:      validateSubdomain,
		TagGeoCoordinates: validateGeoCoordinates,
		TagBookingStatus:  validateBookingStatus,
	}
	for tag, fn := range custom {
		if err := v.RegisterValidation(tag, fn); err != nil {
			log.Fatal("Failed to register validator", "tag", tag, "error", err)
		}
	}

	v.RegisterStructValidation(validatePrincipal, model.Principal{})
	v.RegisterStructValidation(validateWeeklyWindow, model.WeeklyWindow{})
	v.RegisterStructValidation(validateBusinessHours, model.BusinessHours{})

	return &Validator{validate: v}
}

// Struct validates s and returns a VALIDATION_ERROR AppError carrying one entry per failed field.
func (v *Validator) Struct(s any) error {
	if err := v.validate.Struct(s); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return apperrors.ValidationFields("Validation failed", Translate(validationErrs))
		}
		return apperrors.InvalidInput(err.Error())
	}
	return nil
}

// Var validates a single value against tag and reports failures under field.
func (v *Validator) Var(field string, value any, tag string) error {
	if err := v.validate.Var(value, tag); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			fields := Translate(validationErrs)
			for i := range fields {
				fields[i].Field = field
			}
			return apperrors.ValidationFields("Validation failed", fields)
		}
		return apperrors.InvalidInput(err.Error())
	}
	return nil
}

func Translate(errs validator.ValidationErrors) []apperrors.FieldError {
	fields := make([]apperrors.FieldError, 0, len(errs))
	for _, err := range errs {
		fields = append(fields, apperrors.FieldError{
			Field:   fieldPath(err),
			Message: message(err),
		})
	}
	return fields
}

// fieldPath drops the root struct name from the namespace: "Booking.notes.customer" becomes "notes.customer".
func fieldPath(err validator.FieldError) string {
	ns := err.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return err.Field()
}

func message(err validator.FieldError) string {
	field := err.Field()
	switch err.Tag() {
	case "required", "required_if", "required_unless":
		return fmt.Sprintf("%s is required", field)
	case "min":
		if isNumeric(err.Kind()) {
			return fmt.Sprintf("%s must be at least %s", field, err.Param())
		}
		if err.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must contain at least %s item(s)", field, err.Param())
		}
		return fmt.Sprintf("%s must be at least %s characters", field, err.Param())
	case "max":
		if isNumeric(err.Kind()) {
			return fmt.Sprintf("%s must be at most %s", field, err.Param())
		}
		if err.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must contain at most %s item(s)", field, err.Param())
		}
		return fmt.Sprintf("%s must be at most %s characters", field, err.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, err.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, err.Param())
	case "gtfield":
		return fmt.Sprintf("%s must be after %s", field, err.Param())
	case "nefield":
		return fmt.Sprintf("%s must differ from %s", field, err.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, err.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "e164":
		return fmt.Sprintf("%s must be a valid phone number in E.164 format", field)
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "mongodb":
		return fmt.Sprintf("%s must be a valid id", field)
	case "iso4217":
		return fmt.Sprintf("%s must be an ISO-4217 currency code", field)
	case "timezone":
		return fmt.Sprintf("%s must be a valid IANA timezone", field)
	case "datetime":
		return fmt.Sprintf("%s must be a date in YYYY-MM-DD format", field)
	case "unique":
		return fmt.Sprintf("%s must not contain duplicates", field)
	case "len":
		return fmt.Sprintf("%s must have exactly %s item(s)", field, err.Param())
	case "eq":
		return fmt.Sprintf("%s must be %s", field, err.Param())
	case TagHHMM:
		return fmt.Sprintf("%s must be a time in HH:MM 24-hour format", field)
	case TagWeekday:
		return fmt.Sprintf("%s must be a weekday name (sunday-saturday)", field)
	case TagSubdomain:
		return fmt.Sprintf("%s must be 3-63 lowercase letters, digits or hyphens and not reserved", field)
	case TagGeoCoordinates:
		return fmt.Sprintf("%s must be [longitude, latitude] within valid ranges", field)
	case TagBookingStatus:
		return fmt.Sprintf("%s must be a valid booking status", field)
	case "window_order":
		return "start must be before end"
	case "profile_role":
		return "profile does not match role"
	}
	return err.Error()
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func validateHHMM(fl validator.FieldLevel) bool {
	_, err := ParseClock(fl.Field().String())
	return err == nil
}

func validateEndHHMM(fl validator.FieldLevel) bool {
	_, err := ParseEndClock(fl.Field().String())
	return err == nil
}

func validateWeekday(fl validator.FieldLevel) bool {
	_, ok := weekdays[strings.ToLower(strings.TrimSpace(fl.Field().String()))]
	return ok
}

func validateSubdomain(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if !subdomainRegex.MatchString(s) {
		return false
	}
	_, reserved := reservedSubdomains[s]
	return !reserved
}

func validateGeoCoordinates(fl validator.FieldLevel) bool {
	coords, ok := fl.Field().Interface().([]float64)
	if !ok || len(coords) != 2 {
		return false
	}
	lng, lat := coords[0], coords[1]
	return lng >= -180 && lng <= 180 && lat >= -90 && lat <= 90
}

func validateBookingStatus(fl validator.FieldLevel) bool {
	return model.BookingStatus(fl.Field().String()).Valid()
}

func validatePrincipal(sl validator.StructLevel) {
	p := sl.Current().Interface().(model.Principal)
	if !p.ProfileMatchesRole() {
		sl.ReportError(p.Role, "role", "Role", "profile_role", "")
	}
}

func validateWeeklyWindow(sl validator.StructLevel) {
	w := sl.Current().Interface().(model.WeeklyWindow)
	start, errStart := ParseClock(w.Start)
	end, errEnd := ParseClock(w.End)
	if errStart == nil && errEnd == nil && start >= end {
		sl.ReportError(w.End, "end", "End", "window_order", "")
	}
}

func validateBusinessHours(sl validator.StructLevel) {
	h := sl.Current().Interface().(model.BusinessHours)
	if h.Closed {
		return
	}
	open, errOpen := ParseClock(h.Open)
	closing, errClose := ParseClock(h.Close)
	if errOpen == nil && errClose == nil && open >= closing {
		sl.ReportError(h.Close, "close", "Close", "window_order", "")
	}
}
