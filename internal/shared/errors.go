package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrTenantMissing occurs when a request carries no resolved tenant.
	ErrTenantMissing = errors.New("tenant not resolved")
	// ErrInvalidAPIKey indicates tenant API key verification failure.
	ErrInvalidAPIKey = errors.New("invalid api key")
)
