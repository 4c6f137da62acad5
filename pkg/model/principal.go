package model

import "time"

type ProviderProfile struct {
	Avatar          string        `json:"avatar,omitempty" bson:"avatar,omitempty" validate:"omitempty,url,max=500"`
	Bio             string        `json:"bio,omitempty" bson:"bio,omitempty" validate:"omitempty,max=1000"`
	Specializations []string      `json:"specializations,omitempty" bson:"specializations,omitempty" validate:"omitempty,max=20,dive,min=1,max=50"`
	ExperienceYears int           `json:"experience_years,omitempty" bson:"experience_years,omitempty" validate:"omitempty,min=0,max=80"`
	Rating          RatingSummary `json:"rating" bson:"rating"`
	Availability    Availability  `json:"availability" bson:"availability"`
}

type CustomerPreferences struct {
	PreferredProviders []string `json:"preferred_providers,omitempty" bson:"preferred_providers,omitempty" validate:"omitempty,max=20,dive,mongodb"`
	NotifyEmail        bool     `json:"notify_email" bson:"notify_email"`
	NotifySMS          bool     `json:"notify_sms" bson:"notify_sms"`
	Language           string   `json:"language,omitempty" bson:"language,omitempty" validate:"omitempty,bcp47_language_tag"`
}

type CustomerProfile struct {
	Preferences CustomerPreferences `json:"preferences" bson:"preferences"`
	DateOfBirth string              `json:"date_of_birth,omitempty" bson:"date_of_birth,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

type AdminProfile struct {
	Permissions []string `json:"permissions,omitempty" bson:"permissions,omitempty" validate:"omitempty,max=50,dive,min=1,max=100"`
}

// Principal is any non-owner account: provider, customer or admin.
// Exactly one of Provider, Customer or Admin is set and it must match Role.
type Principal struct {
	ID                string           `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	TenantID          string           `json:"tenant_id,omitempty" bson:"tenant_id" validate:"required_unless=Role admin,omitempty,mongodb"`
	Name              string           `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Email             string           `json:"email" bson:"email" validate:"required,email,max=254"`
	PasswordHash      string           `json:"-" bson:"password_hash" validate:"required"`
	Phone             string           `json:"phone,omitempty" bson:"phone,omitempty" validate:"omitempty,e164"`
	Role              Role             `json:"role" bson:"role" validate:"required,oneof=admin service_provider customer"`
	Address           *Address         `json:"address,omitempty" bson:"address,omitempty" validate:"omitempty"`
	Provider          *ProviderProfile `json:"provider,omitempty" bson:"provider,omitempty" validate:"omitempty"`
	Customer          *CustomerProfile `json:"customer,omitempty" bson:"customer,omitempty" validate:"omitempty"`
	Admin             *AdminProfile    `json:"admin,omitempty" bson:"admin,omitempty" validate:"omitempty"`
	IsActive          bool             `json:"is_active" bson:"is_active"`
	IsVerified        bool             `json:"is_verified" bson:"is_verified"`
	VerificationToken string           `json:"-" bson:"verification_token,omitempty"`
	ResetToken        string           `json:"-" bson:"reset_token,omitempty"`
	ResetTokenExpires *time.Time       `json:"-" bson:"reset_token_expires,omitempty"`
	LastLogin         *time.Time       `json:"last_login,omitempty" bson:"last_login,omitempty"`
	CreatedAt         time.Time        `json:"created_at" bson:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at" bson:"updated_at"`
}

// ProfileMatchesRole reports whether the populated profile group agrees with Role.
// A principal with no profile group at all is accepted.
func (p *Principal) ProfileMatchesRole() bool {
	switch p.Role {
	case RoleServiceProvider:
		return p.Customer == nil && p.Admin == nil
	case RoleCustomer:
		return p.Provider == nil && p.Admin == nil
	case RoleAdmin:
		return p.Provider == nil && p.Customer == nil
	}
	return false
}

// EnsureProfile allocates the profile group that belongs to Role when it is missing.
func (p *Principal) EnsureProfile() {
	switch p.Role {
	case RoleServiceProvider:
		if p.Provider == nil {
			p.Provider = &ProviderProfile{}
		}
	case RoleCustomer:
		if p.Customer == nil {
			p.Customer = &CustomerProfile{Preferences: CustomerPreferences{NotifyEmail: true}}
		}
	case RoleAdmin:
		if p.Admin == nil {
			p.Admin = &AdminProfile{}
		}
	}
}

// PrincipalCreate is the payload a tenant or admin uses to add a provider or customer.
type PrincipalCreate struct {
	TenantID string           `json:"tenant_id,omitempty" validate:"omitempty,mongodb"`
	Name     string           `json:"name" validate:"required,min=2,max=100"`
	Email    string           `json:"email" validate:"required,email,max=254"`
	Password string           `json:"password" validate:"required,min=8,max=72"`
	Phone    string           `json:"phone,omitempty" validate:"omitempty,e164"`
	Role     Role             `json:"role" validate:"required,oneof=service_provider customer"`
	Address  *Address         `json:"address,omitempty" validate:"omitempty"`
	Provider *ProviderProfile `json:"provider,omitempty" validate:"omitempty"`
	Customer *CustomerProfile `json:"customer,omitempty" validate:"omitempty"`
}

type PrincipalUpdate struct {
	Name     string           `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Phone    *string          `json:"phone,omitempty"`
	Address  *Address         `json:"address,omitempty" validate:"omitempty"`
	Provider *ProviderProfile `json:"provider,omitempty" validate:"omitempty"`
	Customer *CustomerProfile `json:"customer,omitempty" validate:"omitempty"`
}

// PrincipalSummary is the denormalised view embedded in booking responses.
type PrincipalSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
	Role  Role   `json:"role"`
}

func (p *Principal) Summary() *PrincipalSummary {
	return &PrincipalSummary{ID: p.ID, Name: p.Name, Email: p.Email, Phone: p.Phone, Role: p.Role}
}

type PrincipalFilter struct {
	Role     Role
	IsActive *bool
}
