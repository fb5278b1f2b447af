package media

import "errors"

// Generation errors.
var (
	ErrValidation         = errors.New("validation failed")
	ErrPolicy             = errors.New("request blocked by policy")
	ErrBackendUnavailable = errors.New("generation backend unavailable")
	ErrProfileNotFound    = errors.New("model profile not found")
	ErrNilRequest         = errors.New("request is nil")
	ErrNoOutput           = errors.New("backend returned no output")
)
