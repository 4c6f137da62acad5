package model

import "time"

const (
	BusinessTypeSalon      = "salon"
	BusinessTypeSpa        = "spa"
	BusinessTypeClinic     = "clinic"
	BusinessTypeFitness    = "fitness"
	BusinessTypeConsulting = "consulting"
	BusinessTypeEducation  = "education"
	BusinessTypeOther      = "other"

	PlanFree       = "free"
	PlanBasic      = "basic"
	PlanPremium    = "premium"
	PlanEnterprise = "enterprise"

	SubscriptionTrial     = "trial"
	SubscriptionActive    = "active"
	SubscriptionPastDue   = "past_due"
	SubscriptionCancelled = "cancelled"
)

type Business struct {
	Type        string `json:"type" bson:"type" validate:"required,oneof=salon spa clinic fitness consulting education other"`
	Description string `json:"description,omitempty" bson:"description,omitempty" validate:"omitempty,max=1000"`
	Website     string `json:"website,omitempty" bson:"website,omitempty" validate:"omitempty,url,max=300"`
}

type Subscription struct {
	Plan      string     `json:"plan" bson:"plan" validate:"required,oneof=free basic premium enterprise"`
	Status    string     `json:"status" bson:"status" validate:"required,oneof=trial active past_due cancelled"`
	ExpiresAt *time.Time `json:"expires_at,omitempty" bson:"expires_at,omitempty"`
}

type BusinessHours struct {
	Day    string `json:"day" bson:"day" validate:"required,weekday"`
	Open   string `json:"open,omitempty" bson:"open,omitempty" validate:"required_if=Closed false,omitempty,hhmm"`
	Close  string `json:"close,omitempty" bson:"close,omitempty" validate:"required_if=Closed false,omitempty,hhmm"`
	Closed bool   `json:"closed" bson:"closed"`
}

type TenantSettings struct {
	Timezone      string          `json:"timezone" bson:"timezone" validate:"required,timezone"`
	Currency      string          `json:"currency" bson:"currency" validate:"required,iso4217"`
	BusinessHours []BusinessHours `json:"business_hours,omitempty" bson:"business_hours,omitempty" validate:"omitempty,max=7,dive"`
}

// Tenant is a registered business and the owner account for it.
type Tenant struct {
	ID           string         `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Name         string         `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Subdomain    string         `json:"subdomain" bson:"subdomain" validate:"required,subdomain"`
	Email        string         `json:"email" bson:"email" validate:"required,email,max=254"`
	PasswordHash string         `json:"-" bson:"password_hash" validate:"required"`
	Phone        string         `json:"phone,omitempty" bson:"phone,omitempty" validate:"omitempty,e164"`
	Business     Business       `json:"business" bson:"business"`
	Subscription Subscription   `json:"subscription" bson:"subscription"`
	Settings     TenantSettings `json:"settings" bson:"settings"`
	Address      *Address       `json:"address,omitempty" bson:"address,omitempty"`
	IsActive     bool           `json:"is_active" bson:"is_active"`
	LastLogin    *time.Time     `json:"last_login,omitempty" bson:"last_login,omitempty"`
	CreatedAt    time.Time      `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at" bson:"updated_at"`
}

type TenantUpdate struct {
	Name     string          `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Phone    *string         `json:"phone,omitempty" validate:"omitempty"`
	Business *Business       `json:"business,omitempty" validate:"omitempty"`
	Settings *TenantSettings `json:"settings,omitempty" validate:"omitempty"`
	Address  *Address        `json:"address,omitempty" validate:"omitempty"`
}

// TenantRegistration is the public sign-up payload for a new business.
type TenantRegistration struct {
	Name      string          `json:"name" validate:"required,min=2,max=100"`
	Subdomain string          `json:"subdomain" validate:"required,subdomain"`
	Email     string          `json:"email" validate:"required,email,max=254"`
	Password  string          `json:"password" validate:"required,min=8,max=72"`
	Phone     string          `json:"phone,omitempty" validate:"omitempty,e164"`
	Business  Business        `json:"business"`
	Settings  *TenantSettings `json:"settings,omitempty" validate:"omitempty"`
	Address   *Address        `json:"address,omitempty" validate:"omitempty"`
}

// TenantPublic is the subset of a tenant exposed to anonymous callers.
type TenantPublic struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Subdomain string         `json:"subdomain"`
	Business  Business       `json:"business"`
	Settings  TenantSettings `json:"settings"`
	Address   *Address       `json:"address,omitempty"`
}

func (t *Tenant) Public() *TenantPublic {
	return &TenantPublic{
		ID:        t.ID,
		Name:      t.Name,
		Subdomain: t.Subdomain,
		Business:  t.Business,
		Settings:  t.Settings,
		Address:   t.Address,
	}
}
