package main

import (
	"context"
	"errors"
	"fmt"

	userserrors "appointly/internal/users/errors"
	usersrepo "appointly/internal/users/repository"
	"appointly/pkg/auth"
	"appointly/pkg/model"
	"appointly/pkg/sanitizer"
	"appointly/pkg/validation"
)

type adminRequest struct {
	Name     string `validate:"required,min=2,max=100"`
	Email    string `validate:"required,email,max=254"`
	Password string `validate:"required,min=8,max=72"`
}

// createAdmin inserts the tenant-less admin principal. It returns created=false when an admin
// with the same email already exists.
func createAdmin(
	ctx context.Context,
	principals usersrepo.PrincipalRepository,
	hasher *auth.Hasher,
	v *validation.Validator,
	req adminRequest,
) (admin *model.Principal, created bool, err error) {
	req.Name = sanitizer.NormalizeName(req.Name)
	req.Email = sanitizer.SanitizeEmail(req.Email)
	if err := v.Struct(req); err != nil {
		return nil, false, err
	}

	existing, err := principals.FindByEmail(ctx, "", req.Email)
	switch {
	case err == nil:
		if existing.Role != model.RoleAdmin {
			return nil, false, fmt.Errorf("principal %s exists without admin role", req.Email)
		}
		return existing, false, nil
	case !errors.Is(err, userserrors.ErrNotFound):
		return nil, false, fmt.Errorf("failed to look up admin: %w", err)
	}

	hash, err := hasher.Hash(req.Password)
	if err != nil {
		return nil, false, err
	}
	admin = &model.Principal{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         model.RoleAdmin,
		IsActive:     true,
		IsVerified:   true,
	}
	admin.EnsureProfile()
	if err := v.Struct(admin); err != nil {
		return nil, false, err
	}
	if err := principals.Create(ctx, admin); err != nil {
		return nil, false, fmt.Errorf("failed to create admin: %w", err)
	}
	return admin, true, nil
}
