package services

import (
	"errors"
	"fmt"

	"github.com/foodloop/donation-engine/models"
)

// ErrorType represents the type/category of error
type ErrorType string

const (
	ErrorTypeNotFound          ErrorType = "not_found"
	ErrorTypeValidation        ErrorType = "validation"
	ErrorTypeCapacityExceeded  ErrorType = "capacity_exceeded"
	ErrorTypeInvalidTransition ErrorType = "invalid_transition"
	ErrorTypeUnauthorized      ErrorType = "unauthorized"
	ErrorTypeForbidden         ErrorType = "forbidden"
	ErrorTypeInternal          ErrorType = "internal"
	ErrorTypeExternal          ErrorType = "external"
)

// DomainError represents a structured error with additional context
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
	Details map[string]interface{}
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// WithDetail adds a detail to the error
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// NewDomainError creates a new domain error
func NewDomainError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
		Details: make(map[string]interface{}),
	}
}

// Sentinels for errors.Is comparisons. Never attach details to these; use the constructors below.
var (
	ErrNotFound          = NewDomainError(ErrorTypeNotFound, "not found", nil)
	ErrInvalidInput      = NewDomainError(ErrorTypeValidation, "invalid input", nil)
	ErrCapacityExceeded  = NewDomainError(ErrorTypeCapacityExceeded, "capacity exceeded", nil)
	ErrInvalidTransition = NewDomainError(ErrorTypeInvalidTransition, "invalid transition", nil)
	ErrUnauthorized      = NewDomainError(ErrorTypeUnauthorized, "unauthorized", nil)
	ErrForbidden         = NewDomainError(ErrorTypeForbidden, "access forbidden", nil)
	ErrInternal          = NewDomainError(ErrorTypeInternal, "internal server error", nil)
	ErrProviderError     = NewDomainError(ErrorTypeExternal, "insight provider error", nil)
)

// NewInvalidInput reports malformed or missing input on a named field
func NewInvalidInput(field, message string) *DomainError {
	return NewDomainError(ErrorTypeValidation, message, nil).WithDetail(field, message)
}

// NewNotFound reports an unknown resource
func NewNotFound(resource, id string) *DomainError {
	return NewDomainError(ErrorTypeNotFound, fmt.Sprintf("%s not found", resource), nil).
		WithDetail("resource", resource).
		WithDetail("id", id)
}

// NewCapacityExceeded reports a quantity that does not fit in an organization's available capacity
func NewCapacityExceeded(orgID string, requestedKg, availableKg float64) *DomainError {
	return NewDomainError(ErrorTypeCapacityExceeded,
		fmt.Sprintf("requested %.2f kg exceeds available capacity of %.2f kg", requestedKg, availableKg), nil).
		WithDetail("org_id", orgID).
		WithDetail("requested_kg", requestedKg).
		WithDetail("available_kg", availableKg)
}

// NewInvalidTransition reports a lifecycle operation the current state does not permit
func NewInvalidTransition(from, to models.DonationStatus) *DomainError {
	return NewDomainError(ErrorTypeInvalidTransition,
		fmt.Sprintf("cannot move donation from %s to %s", from, to), nil).
		WithDetail("from", string(from)).
		WithDetail("to", string(to))
}

// Error type checking helper functions

// IsNotFoundError checks if an error is a not found error
func IsNotFoundError(err error) bool {
	return GetErrorType(err) == ErrorTypeNotFound
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return GetErrorType(err) == ErrorTypeValidation
}

// IsCapacityExceededError checks if an error is a capacity error
func IsCapacityExceededError(err error) bool {
	return GetErrorType(err) == ErrorTypeCapacityExceeded
}

// IsInvalidTransitionError checks if an error is a lifecycle transition error
func IsInvalidTransitionError(err error) bool {
	return GetErrorType(err) == ErrorTypeInvalidTransition
}

// IsUnauthorizedError checks if an error is an unauthorized error
func IsUnauthorizedError(err error) bool {
	return GetErrorType(err) == ErrorTypeUnauthorized
}

// IsForbiddenError checks if an error is a forbidden error
func IsForbiddenError(err error) bool {
	return GetErrorType(err) == ErrorTypeForbidden
}

// IsInternalError checks if an error is an internal error
func IsInternalError(err error) bool {
	return GetErrorType(err) == ErrorTypeInternal
}

// IsExternalError checks if an error is an external provider error
func IsExternalError(err error) bool {
	return GetErrorType(err) == ErrorTypeExternal
}

// GetErrorType returns the ErrorType of a domain error, or empty string if not a domain error
func GetErrorType(err error) ErrorType {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type
	}
	return ""
}

// GetErrorDetails returns the details map of a domain error, or nil if not a domain error
func GetErrorDetails(err error) map[string]interface{} {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Details
	}
	return nil
}

// WrapError wraps an error with additional context
func WrapError(errType ErrorType, message string, err error) error {
	return NewDomainError(errType, message, err)
}

// WrapInternal wraps an error as an internal error
func WrapInternal(message string, err error) error {
	return NewDomainError(ErrorTypeInternal, message, err)
}

// WrapExternal wraps an error as an external provider error
func WrapExternal(message string, err error) error {
	return NewDomainError(ErrorTypeExternal, message, err)
}
