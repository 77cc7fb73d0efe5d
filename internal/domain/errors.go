package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind is the closed set of error categories the core can return.
// Upstream processor errors are translated into one of these exactly once,
// at the processor boundary; nothing downstream re-inspects raw errors.
type ErrorKind string

const (
	KindNotFound             ErrorKind = "not_found"
	KindForbidden            ErrorKind = "forbidden"
	KindInvalidInput         ErrorKind = "invalid_input"
	KindCapabilityNotEnabled ErrorKind = "capability_not_enabled"
	KindInsufficientFunds    ErrorKind = "insufficient_funds"
	KindResourceConflict     ErrorKind = "resource_conflict"
	KindUpstreamLinkInvalid  ErrorKind = "upstream_link_invalid"
	KindUpstreamTransient    ErrorKind = "upstream_transient"
	KindUnknown              ErrorKind = "unknown"
)

// DomainError is the single error type crossing the service boundary.
// Code is a stable machine-readable identifier, HTTPStatus a hint for the
// transport layer, Param names the offending input field when applicable.
type DomainError struct {
	Kind       ErrorKind `json:"kind"`
	Code       string    `json:"code"`
	HTTPStatus int       `json:"-"`
	Message    string    `json:"message"`
	Param      string    `json:"param,omitempty"`
}

func (e *DomainError) Error() string {
	if e.Param != "" {
		return fmt.Sprintf("%s (%s): %s [param=%s]", e.Kind, e.Code, e.Message, e.Param)
	}
	return fmt.Sprintf("%s (%s): %s", e.Kind, e.Code, e.Message)
}

// Retryable reports whether the caller may safely retry the operation.
func (e *DomainError) Retryable() bool {
	return e.Kind == KindUpstreamTransient
}

// AsDomainError unwraps err into a *DomainError if one is in the chain.
func AsDomainError(err error) (*DomainError, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// ============================================================
// Constructors
// ============================================================

// ErrNotFound reports a missing resource.
func ErrNotFound(resource string) *DomainError {
	return &DomainError{
		Kind:       KindNotFound,
		Code:       "resource_missing",
		HTTPStatus: http.StatusNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
	}
}

// ErrInvalidInput reports a bad or missing request field.
func ErrInvalidInput(param, message string) *DomainError {
	return &DomainError{
		Kind:       KindInvalidInput,
		Code:       "parameter_invalid",
		HTTPStatus: http.StatusBadRequest,
		Message:    message,
		Param:      param,
	}
}

// ErrNotEligible reports an operation attempted from an illegal
// verification phase. Raised before any network call is made.
func ErrNotEligible(phase Phase, operation string) *DomainError {
	return &DomainError{
		Kind:       KindForbidden,
		Code:       "not_eligible",
		HTTPStatus: http.StatusForbidden,
		Message:    fmt.Sprintf("operation %s not allowed in verification phase %s", operation, phase),
	}
}

// ErrCapabilityNotEnabled reports a processor capability that is not active.
func ErrCapabilityNotEnabled(capability CapabilityName) *DomainError {
	return &DomainError{
		Kind:       KindCapabilityNotEnabled,
		Code:       "capability_not_enabled",
		HTTPStatus: http.StatusBadRequest,
		Message:    fmt.Sprintf("capability %s is not enabled for this account", capability),
	}
}

// ErrInsufficientFunds reports a balance too low for the requested amount.
func ErrInsufficientFunds(availableCents, requiredCents int64) *DomainError {
	return &DomainError{
		Kind:       KindInsufficientFunds,
		Code:       "balance_insufficient",
		HTTPStatus: http.StatusBadRequest,
		Message:    fmt.Sprintf("insufficient funds: available=%d required=%d", availableCents, requiredCents),
	}
}

// ErrConflict reports a resource that already exists.
func ErrConflict(code, message string) *DomainError {
	return &DomainError{
		Kind:       KindResourceConflict,
		Code:       code,
		HTTPStatus: http.StatusConflict,
		Message:    message,
	}
}

// ErrLinkInvalid reports an expired or invalid onboarding link.
func ErrLinkInvalid(message string) *DomainError {
	return &DomainError{
		Kind:       KindUpstreamLinkInvalid,
		Code:       "link_invalid",
		HTTPStatus: http.StatusBadRequest,
		Message:    message,
	}
}

// ErrTransient reports a retryable upstream failure (timeout, rate limit,
// open circuit breaker).
func ErrTransient(code, message string) *DomainError {
	return &DomainError{
		Kind:       KindUpstreamTransient,
		Code:       code,
		HTTPStatus: http.StatusServiceUnavailable,
		Message:    message,
	}
}

// ErrUnknown wraps an unrecognized upstream failure. The caller sees a
// generic message; the full detail is logged at the boundary.
func ErrUnknown() *DomainError {
	return &DomainError{
		Kind:       KindUnknown,
		Code:       "internal_error",
		HTTPStatus: http.StatusInternalServerError,
		Message:    "an unexpected error occurred",
	}
}
