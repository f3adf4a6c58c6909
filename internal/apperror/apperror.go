// Package apperror defines the error taxonomy shared by every service.
// Errors are classified into kinds that map one-to-one onto HTTP status
// codes at the handler boundary.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for transport mapping and logging.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindConflict
	KindDependency
	KindInternal
)

// String returns the wire name of the kind.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "VALIDATION"
	case KindUnauthenticated:
		return "UNAUTHENTICATED"
	case KindForbidden:
		return "FORBIDDEN"
	case KindNotFound:
		return "NOT_FOUND"
	case KindConflict:
		return "CONFLICT"
	case KindDependency:
		return "DEPENDENCY"
	case KindInternal:
		return "INTERNAL"
	default:
		return "UNKNOWN"
	}
}

// HTTPStatus returns the status code the kind surfaces as.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindDependency:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Error carries a classified failure through the service layers.
type Error struct {
	Kind    Kind                   `json:"kind"`
	Op      string                 `json:"operation,omitempty"`
	Message string                 `json:"message"`
	Field   string                 `json:"field,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Op, e.Message, e.Cause)
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return e.Message
}

// Unwrap returns the underlying cause error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether any error in err's chain matches target.
func (e *Error) Is(target error) bool {
	if target == nil {
		return false
	}
	if appErr, ok := target.(*Error); ok {
		return e.Kind == appErr.Kind && e.Message == appErr.Message
	}
	return false
}

// WithDetail adds a detail to the error.
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithField records the offending field for VALIDATION errors.
func (e *Error) WithField(field string) *Error {
	e.Field = field
	return e
}

// New creates a classified error.
func New(kind Kind, op, message string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Cause: cause}
}

// Validation creates a VALIDATION error.
func Validation(op, message string) *Error {
	return New(KindValidation, op, message, nil)
}

// Validationf creates a VALIDATION error with a formatted message.
func Validationf(op, format string, args ...interface{}) *Error {
	return New(KindValidation, op, fmt.Sprintf(format, args...), nil)
}

// Unauthenticated creates an UNAUTHENTICATED error.
func Unauthenticated(op, message string, cause error) *Error {
	return New(KindUnauthenticated, op, message, cause)
}

// Forbidden creates a FORBIDDEN error.
func Forbidden(op, message string) *Error {
	return New(KindForbidden, op, message, nil)
}

// NotFound creates a NOT_FOUND error.
func NotFound(op, entity string) *Error {
	return New(KindNotFound, op, entity+" not found", nil)
}

// Conflict creates a CONFLICT error.
func Conflict(op, message string) *Error {
	return New(KindConflict, op, message, nil)
}

// Conflictf creates a CONFLICT error with a formatted message.
func Conflictf(op, format string, args ...interface{}) *Error {
	return New(KindConflict, op, fmt.Sprintf(format, args...), nil)
}

// Dependency creates a DEPENDENCY error for unreachable collaborators.
func Dependency(op, service string, cause error) *Error {
	e := New(KindDependency, op, service+" unavailable", cause)
	return e.WithDetail("service", service)
}

// Internal creates an INTERNAL error.
func Internal(op string, cause error) *Error {
	return New(KindInternal, op, "internal error", cause)
}

// KindOf extracts the kind from an error chain, KindInternal when unclassified.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// IsValidation checks if an error is a VALIDATION error.
func IsValidation(err error) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == KindValidation
}

// IsUnauthenticated checks if an error is an UNAUTHENTICATED error.
func IsUnauthenticated(err error) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == KindUnauthenticated
}

// IsForbidden checks if an error is a FORBIDDEN error.
func IsForbidden(err error) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == KindForbidden
}

// IsNotFound checks if an error is a NOT_FOUND error.
func IsNotFound(err error) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == KindNotFound
}

// IsConflict checks if an error is a CONFLICT error.
func IsConflict(err error) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == KindConflict
}

// IsDependency checks if an error is a DEPENDENCY error.
func IsDependency(err error) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == KindDependency
}
