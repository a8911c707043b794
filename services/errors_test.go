package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/foodloop/donation-engine/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDomainError(t *testing.T) {
	baseErr := errors.New("base error")
	domainErr := NewDomainError(ErrorTypeNotFound, "resource not found", baseErr)

	assert.Equal(t, ErrorTypeNotFound, domainErr.Type)
	assert.Equal(t, "resource not found", domainErr.Message)
	assert.Equal(t, baseErr, domainErr.Err)
	assert.NotNil(t, domainErr.Details)
}

func TestDomainError_Error(t *testing.T) {
	tests := []struct {
		name    string
		err     *DomainError
		wantMsg string
	}{
		{
			name: "error with wrapped error",
			err: &DomainError{
				Type:    ErrorTypeNotFound,
				Message: "donation not found",
				Err:     errors.New("db error"),
			},
			wantMsg: "not_found: donation not found (db error)",
		},
		{
			name: "error without wrapped error",
			err: &DomainError{
				Type:    ErrorTypeValidation,
				Message: "invalid input",
			},
			wantMsg: "validation: invalid input",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMsg, tt.err.Error())
		})
	}
}

func TestDomainError_Unwrap(t *testing.T) {
	baseErr := errors.New("base error")
	domainErr := NewDomainError(ErrorTypeInternal, "internal error", baseErr)

	assert.Equal(t, baseErr, errors.Unwrap(domainErr))
}

func TestDomainError_Is(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
		want   bool
	}{
		{
			name:   "same error type",
			err:    NewCapacityExceeded("org", 10, 5),
			target: ErrCapacityExceeded,
			want:   true,
		},
		{
			name:   "different error type",
			err:    NewInvalidTransition(models.DonationStatusCancelled, models.DonationStatusConfirmed),
			target: ErrCapacityExceeded,
			want:   false,
		},
		{
			name:   "not a domain error",
			err:    NewNotFound("donation", "x"),
			target: errors.New("regular error"),
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errors.Is(tt.err, tt.target))
		})
	}
}

func TestDomainError_WithDetail(t *testing.T) {
	err := NewDomainError(ErrorTypeValidation, "validation error", nil)

	err.WithDetail("field", "quantity_kg").WithDetail("value", -1)

	assert.Equal(t, "quantity_kg", err.Details["field"])
	assert.Equal(t, -1, err.Details["value"])
}

func TestConstructors_DoNotShareDetails(t *testing.T) {
	a := NewCapacityExceeded("org-a", 10, 5)
	b := NewCapacityExceeded("org-b", 3, 1)

	assert.Equal(t, "org-a", a.Details["org_id"])
	assert.Equal(t, "org-b", b.Details["org_id"])
	assert.Empty(t, ErrCapacityExceeded.Details)
}

func TestNewCapacityExceeded(t *testing.T) {
	err := NewCapacityExceeded("org-1", 10, 5)

	assert.Equal(t, ErrorTypeCapacityExceeded, err.Type)
	assert.Equal(t, 10.0, err.Details["requested_kg"])
	assert.Equal(t, 5.0, err.Details["available_kg"])
	assert.Contains(t, err.Error(), "exceeds available capacity")
}

func TestNewInvalidTransition(t *testing.T) {
	err := NewInvalidTransition(models.DonationStatusPickedUp, models.DonationStatusCancelled)

	assert.Equal(t, "picked_up", err.Details["from"])
	assert.Equal(t, "cancelled", err.Details["to"])
}

func TestErrorTypeHelpers(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
		want  bool
	}{
		{"not found", NewNotFound("organization", "1"), IsNotFoundError, true},
		{"wrapped not found", fmt.Errorf("wrapped: %w", NewNotFound("donation", "1")), IsNotFoundError, true},
		{"validation", NewInvalidInput("quantity_kg", "must be positive"), IsValidationError, true},
		{"capacity", NewCapacityExceeded("o", 1, 0), IsCapacityExceededError, true},
		{"transition", NewInvalidTransition("pending", "picked_up"), IsInvalidTransitionError, true},
		{"unauthorized", ErrUnauthorized, IsUnauthorizedError, true},
		{"forbidden", ErrForbidden, IsForbiddenError, true},
		{"internal", WrapInternal("db", errors.New("boom")), IsInternalError, true},
		{"external", WrapExternal("gemini", errors.New("boom")), IsExternalError, true},
		{"mismatch", ErrInvalidInput, IsNotFoundError, false},
		{"regular error", errors.New("regular"), IsValidationError, false},
		{"nil error", nil, IsCapacityExceededError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.check(tt.err))
		})
	}
}

func TestGetErrorDetails(t *testing.T) {
	err := fmt.Errorf("confirm: %w", NewCapacityExceeded("org-1", 6, 4))

	details := GetErrorDetails(err)
	require.NotNil(t, details)
	assert.Equal(t, 4.0, details["available_kg"])

	assert.Nil(t, GetErrorDetails(errors.New("plain")))
	assert.Equal(t, ErrorType(""), GetErrorType(errors.New("plain")))
}
