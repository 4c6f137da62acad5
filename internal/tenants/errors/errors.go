package errors

import "errors"

var (
	ErrNotFound = errors.New("tenant not found")

	ErrInvalidID = errors.New("invalid tenant ID format")

	ErrDuplicateEmail = errors.New("tenant email already registered")

	ErrDuplicateSubdomain = errors.New("tenant subdomain already taken")
)
