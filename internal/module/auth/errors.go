package auth

import "errors"

// Admission errors.
var (
	ErrMissingKey   = errors.New("missing API key")
	ErrInvalidKey   = errors.New("invalid API key")
	ErrKeysRequired = errors.New("API key auth is required but no keys are configured")
	ErrRateLimited  = errors.New("rate limit exceeded")
	ErrIPNotAllowed = errors.New("client IP not allowed")
)
