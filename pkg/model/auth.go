package model

import "time"

type LoginRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	Subdomain string `json:"subdomain,omitempty" validate:"omitempty,subdomain"`
}

type CustomerRegistration struct {
	TenantSubdomain string   `json:"tenant_subdomain" validate:"required,subdomain"`
	Name            string   `json:"name" validate:"required,min=2,max=100"`
	Email           string   `json:"email" validate:"required,email,max=254"`
	Password        string   `json:"password" validate:"required,min=8,max=72"`
	Phone           string   `json:"phone,omitempty" validate:"omitempty,e164"`
	Address         *Address `json:"address,omitempty" validate:"omitempty"`
}

type PasswordChange struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=72,nefield=CurrentPassword"`
}

// AuthResult is returned by every operation that issues a token.
type AuthResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Role      Role      `json:"role"`
	TenantID  string    `json:"tenant_id,omitempty"`
	Account   any       `json:"account"`
}
