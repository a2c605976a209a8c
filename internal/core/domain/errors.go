package domain

import "errors"

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("access forbidden")
)
