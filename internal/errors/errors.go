package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound is returned for missing records and for records owned by another user.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a uniqueness rule would be violated.
	ErrConflict = errors.New("conflict")
	// ErrUnauthorized is returned for missing, invalid or revoked credentials.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNoIdentity is returned when a secured handler runs without a resolved user.
	// It points to a routing bug, not to a client mistake.
	ErrNoIdentity = errors.New("request has no authenticated identity")
)

var (
	ErrItemNotFound       = fmt.Errorf("item %w", ErrNotFound)
	ErrMaterialNotFound   = fmt.Errorf("material %w", ErrNotFound)
	ErrConsumableNotFound = fmt.Errorf("consumable %w", ErrNotFound)
	ErrLinkNotFound       = fmt.Errorf("material link %w", ErrNotFound)

	ErrUsernameTaken         = fmt.Errorf("username already exists: %w", ErrConflict)
	ErrMaterialAlreadyLinked = fmt.Errorf("material already linked to this item: %w", ErrConflict)

	// ErrInvalidCredentials is deliberately the same for unknown users and wrong passwords.
	ErrInvalidCredentials = fmt.Errorf("invalid username or password: %w", ErrUnauthorized)
)

// ValidationError reports a missing or invalid request field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError creates a validation error for field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Message: e.Message,
		Code:    e.Code,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors. Unknown errors become a
// generic 500 so storage details never reach the client.
func MapErrorToHTTP(err error) *HTTPError {
	var validationErr *ValidationError
	switch {
	case errors.As(err, &validationErr):
		return NewHTTPError(http.StatusBadRequest, validationErr.Error(), "VALIDATION_ERROR")
	case errors.Is(err, ErrNoIdentity):
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	case errors.Is(err, ErrNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "NOT_FOUND")
	case errors.Is(err, ErrConflict):
		// Duplicates are reported as 400 on this API surface.
		return NewHTTPError(http.StatusBadRequest, conflictMessage(err), "CONFLICT")
	case errors.Is(err, ErrUnauthorized):
		return NewHTTPError(http.StatusUnauthorized, unauthorizedMessage(err), "UNAUTHORIZED")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}

func conflictMessage(err error) string {
	switch {
	case errors.Is(err, ErrUsernameTaken):
		return "username already exists"
	case errors.Is(err, ErrMaterialAlreadyLinked):
		return "material already linked to this item"
	default:
		return "resource already exists"
	}
}

func unauthorizedMessage(err error) string {
	if errors.Is(err, ErrInvalidCredentials) {
		return "invalid username or password"
	}
	return "unauthorized"
}
