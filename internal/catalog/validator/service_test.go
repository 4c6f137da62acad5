package validator

import (
	"testing"
	"time"

	apperrors "appointly/pkg/errors"
	"appointly/pkg/logger"
	"appointly/pkg/model"
	"appointly/pkg/validation"
)

func validService() *model.Service {
	return &model.Service{
		TenantID: "64b7f0c2a1b2c3d4e5f60001",
		Name:     "Haircut",
		Category: model.CategoryHair,
		Duration: 60,
		Pricing:  model.Pricing{BasePrice: 50, Currency: "USD"},
		Policy:   model.BookingPolicy{MaxConcurrent: 1},
		IsActive: true,
	}
}

func TestServiceValidator(t *testing.T) {
	v := NewServiceValidator(validation.New(logger.Discard()))
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	until := from.Add(-time.Hour)

	tests := []struct {
		name      string
		mutate    func(s *model.Service)
		wantField string
	}{
		{
			name:   "valid service",
			mutate: func(*model.Service) {},
		},
		{
			name:      "duration below minimum",
			mutate:    func(s *model.Service) { s.Duration = 4 },
			wantField: "duration",
		},
		{
			name:      "duration above maximum",
			mutate:    func(s *model.Service) { s.Duration = 481 },
			wantField: "duration",
		},
		{
			name: "percentage above 100",
			mutate: func(s *model.Service) {
				s.Pricing.Discounts = []model.Discount{{Name: "promo", Type: model.DiscountPercentage, Value: 150}}
			},
			wantField: "pricing.discounts[0].value",
		},
		{
			name: "inverted discount window",
			mutate: func(s *model.Service) {
				s.Pricing.Discounts = []model.Discount{{Name: "promo", Type: model.DiscountFixed, Value: 5, ValidFrom: &from, ValidUntil: &until}}
			},
			wantField: "pricing.discounts[0].valid_until",
		},
		{
			name: "variation pushes duration out of bounds",
			mutate: func(s *model.Service) {
				s.Variations = []model.QualityVariation{{Name: "express", DurationModifier: -58}}
			},
			wantField: "variations[0].duration_modifier",
		},
		{
			name: "variation makes price negative",
			mutate: func(s *model.Service) {
				s.Variations = []model.QualityVariation{{Name: "free", PriceModifier: -60}}
			},
			wantField: "variations[0].price_modifier",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validService()
			tt.mutate(s)

			err := v.Validate(s)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error on %s", tt.wantField)
			}

			appErr := apperrors.AsAppError(err)
			for _, f := range appErr.Fields {
				if f.Field == tt.wantField {
					return
				}
			}
			t.Errorf("expected field %s in %+v", tt.wantField, appErr.Fields)
		})
	}
}
