package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrAuthFailed indicates the remote rejected the credentials (sign-in failure or 401/403).
// A repository that returned it is no longer usable.
var ErrAuthFailed = errors.New("authentication failed")

// ErrRateLimited indicates the remote kept answering 429 after every retry attempt.
var ErrRateLimited = errors.New("rate limited")

// ErrTransportFailed indicates a DNS, TCP or TLS failure talking to the remote.
var ErrTransportFailed = errors.New("transport failed")

// ErrRemote indicates a non-retryable HTTP error status from the remote.
var ErrRemote = errors.New("remote request failed")

// ErrConflict indicates a record already exists on the remote with the same original local id.
var ErrConflict = errors.New("conflict")

// ErrNoOutstanding indicates a payment was allocated to a client with no unpaid rentals.
var ErrNoOutstanding = errors.New("client has no outstanding rentals")

// ErrLocalIO indicates the embedded store returned an error.
var ErrLocalIO = errors.New("local store failure")

// ErrConnection indicates the selected backend could not be constructed or verified.
var ErrConnection = errors.New("connection error")

// ErrCancelled indicates a background job observed a stop request.
var ErrCancelled = errors.New("cancelled")

// AppError pairs an error kind with the HTTP status it maps to.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

// NewAppError creates an AppError.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// NewNotFoundError creates a 404 AppError wrapping ErrNotFound.
func NewNotFoundError(message string) *AppError {
	return &AppError{Code: http.StatusNotFound, Message: message, Err: ErrNotFound}
}

// NewValidationError wraps ErrValidation with a formatted message.
func NewValidationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// LocalIO wraps a database error as ErrLocalIO, keeping the original in the chain.
func LocalIO(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, ErrLocalIO, err)
}

// HTTPStatus maps an error kind to the status code the HTTP surface returns.
func HTTPStatus(err error) int {
	var appErr *AppError
	switch {
	case errors.As(err, &appErr):
		return appErr.Code
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate), errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrNoOutstanding):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrAuthFailed):
		return http.StatusBadGateway
	case errors.Is(err, ErrRateLimited):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrTransportFailed), errors.Is(err, ErrRemote), errors.Is(err, ErrConnection):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// IsTransient reports whether retrying the operation later may succeed.
func IsTransient(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrTransportFailed)
}
