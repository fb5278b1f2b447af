package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinels for classifying errors that are not already AppErrors.
var (
	ErrNotFound       = errors.New("resource not found")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrBadRequest     = errors.New("bad request")
	ErrInternal       = errors.New("internal error")
	ErrRateLimited    = errors.New("rate limited")
	ErrServiceUnavail = errors.New("service unavailable")
)

// Error codes returned in ErrorDetail.Code.
const (
	CodeNotFound           = "NOT_FOUND"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodePolicyViolation    = "POLICY_VIOLATION"
	CodeBadRequest         = "BAD_REQUEST"
	CodeValidation         = "VALIDATION_ERROR"
	CodeInternal           = "INTERNAL_ERROR"
	CodeRateLimited        = "RATE_LIMITED"
	CodeBackendUnavailable = "BACKEND_UNAVAILABLE"
)

// AppError is an error that knows its HTTP status and public code.
type AppError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	Details    map[string]any `json:"details,omitempty"`
	StatusCode int            `json:"-"`
	Err        error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// ErrorResponse is the JSON body of every error reply.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail is the public part of an AppError.
type ErrorDetail struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func newError(code string, status int, cause error, message, fallback string) *AppError {
	if message == "" {
		message = fallback
	}
	return &AppError{Code: code, Message: message, StatusCode: status, Err: cause}
}

// NotFound reports a missing resource, e.g. NotFound("job").
func NotFound(resource string) *AppError {
	return newError(CodeNotFound, http.StatusNotFound, ErrNotFound, resource+" not found", "")
}

func Unauthorized(message string) *AppError {
	return newError(CodeUnauthorized, http.StatusUnauthorized, ErrUnauthorized, message, "authentication required")
}

func Forbidden(message string) *AppError {
	return newError(CodeForbidden, http.StatusForbidden, ErrForbidden, message, "access denied")
}

// PolicyViolation is a 403 for content rejected by safety or output policy.
func PolicyViolation(message string) *AppError {
	return newError(CodePolicyViolation, http.StatusForbidden, ErrForbidden, message, "request violates content policy")
}

// BadRequest is a malformed body or path.
func BadRequest(message string) *AppError {
	return newError(CodeBadRequest, http.StatusBadRequest, ErrBadRequest, message, "bad request")
}

// ValidationError is a well-formed request with unacceptable values.
func ValidationError(message string) *AppError {
	return newError(CodeValidation, http.StatusUnprocessableEntity, ErrBadRequest, message, "validation failed")
}

func Internal(message string, err error) *AppError {
	if err == nil {
		err = ErrInternal
	}
	return newError(CodeInternal, http.StatusInternalServerError, err, message, "internal error")
}

func RateLimited(message string) *AppError {
	return newError(CodeRateLimited, http.StatusTooManyRequests, ErrRateLimited, message, "too many requests")
}

// BackendUnavailable is a 503 for an unreachable generation backend.
func BackendUnavailable(message string) *AppError {
	return newError(CodeBackendUnavailable, http.StatusServiceUnavailable, ErrServiceUnavail, message, "generation backend unavailable")
}

// WithDetails attaches structured details and returns e.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	e.Details = details
	return e
}

// ToResponse strips the internal fields.
func (e *AppError) ToResponse() ErrorResponse {
	return ErrorResponse{Error: ErrorDetail{Code: e.Code, Message: e.Message, Details: e.Details}}
}

// GetStatusCode maps an AppError to its status and a sentinel to the
// matching status. Anything else is a 500.
func GetStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrServiceUnavail):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
