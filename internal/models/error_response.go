package models

import (
	"errors"
	"net/http"
	"time"
)

type ErrorKind string // Category of a request-level failure

const (
	KindUnauthenticated ErrorKind = "UNAUTHENTICATED"
	KindForbidden       ErrorKind = "FORBIDDEN"
	KindNotFound        ErrorKind = "NOT_FOUND"
	KindConflict        ErrorKind = "CONFLICT"
	KindRateLimited     ErrorKind = "RATE_LIMITED"
	KindTransient       ErrorKind = "TRANSIENT"
	KindBadRequest      ErrorKind = "BAD_REQUEST"
)

// Sentinels for errors.Is checks. Only the kind is compared.
var (
	ErrUnauthenticated = &ErrorResponse{Kind: KindUnauthenticated}
	ErrForbidden       = &ErrorResponse{Kind: KindForbidden}
	ErrNotFound        = &ErrorResponse{Kind: KindNotFound}
	ErrConflict        = &ErrorResponse{Kind: KindConflict}
	ErrRateLimited     = &ErrorResponse{Kind: KindRateLimited}
	ErrTransient       = &ErrorResponse{Kind: KindTransient}
	ErrBadRequest      = &ErrorResponse{Kind: KindBadRequest}
)

// ErrorResponse describes an error with a status code and a message.
type ErrorResponse struct {
	StatusCode int           `json:"-"`
	Message    string        `json:"reason"`
	Kind       ErrorKind     `json:"kind,omitempty"`
	RetryAfter time.Duration `json:"-"`
	cause      error
}

func newKindError(kind ErrorKind, message string, cause error) *ErrorResponse {
	return &ErrorResponse{
		StatusCode: kind.StatusCode(),
		Message:    message,
		Kind:       kind,
		cause:      cause,
	}
}

// NewUnauthenticatedError reports missing or invalid credentials.
func NewUnauthenticatedError(message string) *ErrorResponse {
	return newKindError(KindUnauthenticated, message, nil)
}

// NewForbiddenError reports an authenticated actor that may not act.
func NewForbiddenError(message string) *ErrorResponse {
	return newKindError(KindForbidden, message, nil)
}

// NewNotFoundError reports a missing resource.
func NewNotFoundError(message string) *ErrorResponse {
	return newKindError(KindNotFound, message, nil)
}

// NewConflictError reports a state that no longer allows the operation.
func NewConflictError(message string) *ErrorResponse {
	return newKindError(KindConflict, message, nil)
}

// NewBadRequestError reports invalid input.
func NewBadRequestError(message string) *ErrorResponse {
	return newKindError(KindBadRequest, message, nil)
}

// NewRateLimitedError carries the duration the caller should wait before retrying.
func NewRateLimitedError(message string, retryAfter time.Duration) *ErrorResponse {
	e := newKindError(KindRateLimited, message, nil)
	e.RetryAfter = retryAfter
	return e
}

// NewTransientError wraps a storage or timeout failure that is safe to retry.
func NewTransientError(message string, cause error) *ErrorResponse {
	return newKindError(KindTransient, message, cause)
}

// Error implements the error interface.
func (e *ErrorResponse) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause, if any.
func (e *ErrorResponse) Unwrap() error {
	return e.cause
}

// Is matches any *ErrorResponse of the same kind.
func (e *ErrorResponse) Is(target error) bool {
	t, ok := target.(*ErrorResponse)
	if !ok {
		return false
	}
	return t.Kind != "" && e.Kind == t.Kind
}

// StatusCode maps a kind to its HTTP status.
func (k ErrorKind) StatusCode() int {
	switch k {
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindBadRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// KindOf returns the kind of err, or KindTransient for errors that carry none.
func KindOf(err error) ErrorKind {
	var e *ErrorResponse
	if errors.As(err, &e) && e.Kind != "" {
		return e.Kind
	}
	return KindTransient
}
