package model

import (
	"math"
	"time"
)

const (
	CategoryHair       = "hair"
	CategoryBeauty     = "beauty"
	CategoryWellness   = "wellness"
	CategoryFitness    = "fitness"
	CategoryHealth     = "health"
	CategoryConsulting = "consulting"
	CategoryEducation  = "education"
	CategoryOther      = "other"

	DiscountPercentage = "percentage"
	DiscountFixed      = "fixed"

	MinServiceDuration = 5
	MaxServiceDuration = 480
)

type Discount struct {
	Name       string     `json:"name" bson:"name" validate:"required,min=1,max=100"`
	Type       string     `json:"type" bson:"type" validate:"required,oneof=percentage fixed"`
	Value      float64    `json:"value" bson:"value" validate:"gte=0"`
	ValidFrom  *time.Time `json:"valid_from,omitempty" bson:"valid_from,omitempty"`
	ValidUntil *time.Time `json:"valid_until,omitempty" bson:"valid_until,omitempty"`
}

// ActiveAt reports whether the discount window contains t. Missing bounds are open.
func (d Discount) ActiveAt(t time.Time) bool {
	if d.ValidFrom != nil && t.Before(*d.ValidFrom) {
		return false
	}
	if d.ValidUntil != nil && t.After(*d.ValidUntil) {
		return false
	}
	return true
}

type Pricing struct {
	BasePrice float64    `json:"base_price" bson:"base_price" validate:"gte=0"`
	Currency  string     `json:"currency" bson:"currency" validate:"required,iso4217"`
	Discounts []Discount `json:"discounts,omitempty" bson:"discounts,omitempty" validate:"omitempty,max=20,dive"`
}

type QualityVariation struct {
	Name             string  `json:"name" bson:"name" validate:"required,min=1,max=50"`
	PriceModifier    float64 `json:"price_modifier" bson:"price_modifier"`
	DurationModifier int     `json:"duration_modifier" bson:"duration_modifier" validate:"gte=-475,lte=475"`
}

type BookingPolicy struct {
	AdvanceBookingDays int `json:"advance_booking_days" bson:"advance_booking_days" validate:"gte=0,lte=365"`
	CancellationHours  int `json:"cancellation_hours" bson:"cancellation_hours" validate:"gte=0,lte=720"`
	MaxConcurrent      int `json:"max_concurrent" bson:"max_concurrent" validate:"gte=1,lte=100"`
}

type ServiceStats struct {
	TotalBookings int64   `json:"total_bookings" bson:"total_bookings"`
	Revenue       float64 `json:"revenue" bson:"revenue"`
	Rating        float64 `json:"rating" bson:"rating"`
	RatingCount   int64   `json:"rating_count" bson:"rating_count"`
}

type Service struct {
	ID          string             `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	TenantID    string             `json:"tenant_id" bson:"tenant_id" validate:"required,mongodb"`
	Name        string             `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Description string             `json:"description,omitempty" bson:"description,omitempty" validate:"omitempty,max=1000"`
	Category    string             `json:"category" bson:"category" validate:"required,oneof=hair beauty wellness fitness health consulting education other"`
	Duration    int                `json:"duration" bson:"duration" validate:"required,min=5,max=480"`
	Pricing     Pricing            `json:"pricing" bson:"pricing"`
	Variations  []QualityVariation `json:"variations,omitempty" bson:"variations,omitempty" validate:"omitempty,max=20,unique=Name,dive"`
	Providers   []string           `json:"providers" bson:"providers" validate:"omitempty,max=100,unique,dive,mongodb"`
	Policy      BookingPolicy      `json:"policy" bson:"policy"`
	Stats       ServiceStats       `json:"stats" bson:"stats"`
	IsActive    bool               `json:"is_active" bson:"is_active"`
	CreatedAt   time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at" bson:"updated_at"`
}

// Variation returns the quality variation called name.
func (s *Service) Variation(name string) (QualityVariation, bool) {
	for _, v := range s.Variations {
		if v.Name == name {
			return v, true
		}
	}
	return QualityVariation{}, false
}

func (s *Service) HasProvider(id string) bool {
	for _, p := range s.Providers {
		if p == id {
			return true
		}
	}
	return false
}

type ServiceUpdate struct {
	Name        string              `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Description *string             `json:"description,omitempty" validate:"omitempty,max=1000"`
	Category    string              `json:"category,omitempty" validate:"omitempty,oneof=hair beauty wellness fitness health consulting education other"`
	Duration    int                 `json:"duration,omitempty" validate:"omitempty,min=5,max=480"`
	Pricing     *Pricing            `json:"pricing,omitempty" validate:"omitempty"`
	Variations  *[]QualityVariation `json:"variations,omitempty" validate:"omitempty,max=20,dive"`
	Policy      *BookingPolicy      `json:"policy,omitempty" validate:"omitempty"`
	IsActive    *bool               `json:"is_active,omitempty"`
}

type ServiceFilter struct {
	Category   string
	ProviderID string
	IsActive   *bool
}

type ProviderAssignment struct {
	ProviderIDs []string `json:"provider_ids" validate:"max=100,unique,dive,mongodb"`
}

type ServiceSelection struct {
	ServiceIDs []string `json:"service_ids" validate:"required,min=1,max=100,unique,dive,mongodb"`
}

// RoundCents rounds an amount to two decimal places.
func RoundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
