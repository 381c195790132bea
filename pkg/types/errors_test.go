package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceErrorTaxonomy(t *testing.T) {
	tests := []struct {
		err      *ServiceError
		wantType ErrorType
	}{
		{NewUnauthorizedError("denied", nil), ErrorTypeUnauthorized},
		{NewInvalidTransitionError(StatusCompleted, StatusCancelled), ErrorTypeInvalidTransition},
		{NewAlreadyAssignedError("apt-1", "doctor-1"), ErrorTypeAlreadyAssigned},
		{NewNotFoundError("appointment", "ghost"), ErrorTypeNotFound},
		{NewProtectedEntityError("doctor", "doctor-demo"), ErrorTypeProtectedEntity},
		{NewConflictError("concurrent change", nil), ErrorTypeConflict},
		{NewStoreUnavailableError(errors.New("connection refused")), ErrorTypeStoreUnavailable},
		{NewValidationError("bad input", nil), ErrorTypeValidation},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.wantType, tt.err.Type)
		assert.True(t, IsErrorType(tt.err, tt.wantType))
		assert.NotEmpty(t, tt.err.Error())
	}
}

func TestInvalidTransitionError_NamesBothStates(t *testing.T) {
	err := NewInvalidTransitionError(StatusCompleted, StatusCancelled)

	assert.Contains(t, err.Error(), "completed")
	assert.Contains(t, err.Error(), "cancelled")
}

func TestStoreUnavailableError_PreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewStoreUnavailableError(cause)

	assert.ErrorIs(t, err, cause)
}

func TestIsErrorType_WrappedError(t *testing.T) {
	inner := NewNotFoundError("appointment", "ghost")
	wrapped := fmt.Errorf("reading record: %w", inner)

	assert.True(t, IsErrorType(wrapped, ErrorTypeNotFound))
	assert.False(t, IsErrorType(wrapped, ErrorTypeConflict))
}

func TestIsErrorType_PlainError(t *testing.T) {
	assert.False(t, IsErrorType(errors.New("plain"), ErrorTypeNotFound))
	assert.False(t, IsErrorType(nil, ErrorTypeNotFound))
}

func TestErrorsAs(t *testing.T) {
	var svcErr *ServiceError
	err := NewAlreadyAssignedError("apt-1", "doctor-1")

	require.True(t, errors.As(fmt.Errorf("assigning: %w", err), &svcErr))
	assert.Equal(t, ErrorTypeAlreadyAssigned, svcErr.Type)
	assert.Equal(t, "apt-1", svcErr.Details["appointment_id"])
}
