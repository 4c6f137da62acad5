package app

import (
	"net/http"

	apperrors "appointly/pkg/errors"
)

var (
	notFoundRoute    = apperrors.NotFound("Route")
	methodNotAllowed = apperrors.New("METHOD_NOT_ALLOWED", "Method not allowed", http.StatusMethodNotAllowed)
)
