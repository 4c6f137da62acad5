package service

import (
	"time"

	"appointly/pkg/model"
)

// quote prices service for the named variation at now. The result is a copy owned by the booking.
func quote(service *model.Service, variation model.QualityVariation, now time.Time) model.BookingPricing {
	gross := service.Pricing.BasePrice + variation.PriceModifier

	pricing := model.BookingPricing{
		BasePrice: service.Pricing.BasePrice,
		Variation: variation.Name,
		Currency:  service.Pricing.Currency,
	}

	final := gross
	for _, d := range service.Pricing.Discounts {
		if !d.ActiveAt(now) {
			continue
		}
		amount := d.Value
		if d.Type == model.DiscountPercentage {
			amount = gross * d.Value / 100
		}
		amount = model.RoundCents(amount)
		pricing.Discounts = append(pricing.Discounts, model.AppliedDiscount{
			Name:   d.Name,
			Type:   d.Type,
			Value:  d.Value,
			Amount: amount,
		})
		final -= amount
	}

	if final < 0 {
		final = 0
	}
	pricing.FinalPrice = model.RoundCents(final)
	return pricing
}
