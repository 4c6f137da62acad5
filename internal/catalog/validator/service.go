package validator

import (
	"fmt"

	apperrors "appointly/pkg/errors"
	"appointly/pkg/model"
	"appointly/pkg/validation"
)

// ServiceValidator runs the field rules of model.Service followed by the rules that span fields.
type ServiceValidator struct {
	validator *validation.Validator
}

func NewServiceValidator(v *validation.Validator) *ServiceValidator {
	return &ServiceValidator{validator: v}
}

func (v *ServiceValidator) Validate(service *model.Service) error {
	if err := v.validator.Struct(service); err != nil {
		return err
	}

	if fields := v.validateBusinessRules(service); len(fields) > 0 {
		return apperrors.ValidationFields("Validation failed", fields)
	}
	return nil
}

func (v *ServiceValidator) validateBusinessRules(service *model.Service) []apperrors.FieldError {
	var fields []apperrors.FieldError

	for i, d := range service.Pricing.Discounts {
		prefix := fmt.Sprintf("pricing.discounts[%d]", i)
		if d.Type == model.DiscountPercentage && d.Value > 100 {
			fields = append(fields, apperrors.FieldError{
				Field:   prefix + ".value",
				Message: "percentage discount cannot exceed 100",
			})
		}
		if d.ValidFrom != nil && d.ValidUntil != nil && !d.ValidUntil.After(*d.ValidFrom) {
			fields = append(fields, apperrors.FieldError{
				Field:   prefix + ".valid_until",
				Message: "valid_until must be after valid_from",
			})
		}
	}

	for i, variation := range service.Variations {
		prefix := fmt.Sprintf("variations[%d]", i)
		duration := service.Duration + variation.DurationModifier
		if duration < model.MinServiceDuration || duration > model.MaxServiceDuration {
			fields = append(fields, apperrors.FieldError{
				Field: prefix + ".duration_modifier",
				Message: fmt.Sprintf("resulting duration must be between %d and %d minutes",
					model.MinServiceDuration, model.MaxServiceDuration),
			})
		}
		if service.Pricing.BasePrice+variation.PriceModifier < 0 {
			fields = append(fields, apperrors.FieldError{
				Field:   prefix + ".price_modifier",
				Message: "resulting price cannot be negative",
			})
		}
	}

	return fields
}
