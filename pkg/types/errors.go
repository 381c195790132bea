package types

import (
	"errors"
	"fmt"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeUnauthorized      ErrorType = "unauthorized"
	ErrorTypeInvalidTransition ErrorType = "invalid_transition"
	ErrorTypeAlreadyAssigned   ErrorType = "already_assigned"
	ErrorTypeNotFound          ErrorType = "not_found"
	ErrorTypeProtectedEntity   ErrorType = "protected_entity"
	ErrorTypeConflict          ErrorType = "conflict"
	ErrorTypeStoreUnavailable  ErrorType = "store_unavailable"
	ErrorTypeValidation        ErrorType = "validation"
)

// ServiceError represents a structured error in the appointment service
type ServiceError struct {
	Type    ErrorType              `json:"type"`
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

// Error implements the error interface
func (e *ServiceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error
func (e *ServiceError) Unwrap() error {
	return e.Cause
}

// Common error codes
const (
	ErrCodeUnauthorized      = "UNAUTHORIZED"
	ErrCodeInvalidTransition = "INVALID_TRANSITION"
	ErrCodeAlreadyAssigned   = "ALREADY_ASSIGNED"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeProtectedEntity   = "PROTECTED_ENTITY"
	ErrCodeConflict          = "CONFLICT"
	ErrCodeStoreUnavailable  = "STORE_UNAVAILABLE"
	ErrCodeValidationFailed  = "VALIDATION_FAILED"
)

// NewUnauthorizedError creates an error for an actor lacking permission
func NewUnauthorizedError(message string, details map[string]interface{}) *ServiceError {
	return &ServiceError{
		Type:    ErrorTypeUnauthorized,
		Code:    ErrCodeUnauthorized,
		Message: message,
		Details: details,
	}
}

// NewInvalidTransitionError creates an error identifying a rejected status change
func NewInvalidTransitionError(from, to AppointmentStatus) *ServiceError {
	return &ServiceError{
		Type:    ErrorTypeInvalidTransition,
		Code:    ErrCodeInvalidTransition,
		Message: fmt.Sprintf("status transition from %q to %q is not permitted", from, to),
		Details: map[string]interface{}{
			"current_status":   string(from),
			"requested_status": string(to),
		},
	}
}

// NewAlreadyAssignedError creates an error for a second doctor assignment
func NewAlreadyAssignedError(appointmentID, doctorID string) *ServiceError {
	return &ServiceError{
		Type:    ErrorTypeAlreadyAssigned,
		Code:    ErrCodeAlreadyAssigned,
		Message: fmt.Sprintf("appointment %s already has a doctor assigned", appointmentID),
		Details: map[string]interface{}{
			"appointment_id": appointmentID,
			"doctor_id":      doctorID,
		},
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(resource, id string) *ServiceError {
	return &ServiceError{
		Type:    ErrorTypeNotFound,
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found: %s", resource, id),
		Details: map[string]interface{}{
			"resource": resource,
			"id":       id,
		},
	}
}

// NewProtectedEntityError creates an error for mutation of a protected directory record
func NewProtectedEntityError(resource, id string) *ServiceError {
	return &ServiceError{
		Type:    ErrorTypeProtectedEntity,
		Code:    ErrCodeProtectedEntity,
		Message: fmt.Sprintf("%s %s is protected and cannot be modified", resource, id),
		Details: map[string]interface{}{
			"resource": resource,
			"id":       id,
		},
	}
}

// NewConflictError creates an error for a detected concurrent modification
// or a uniqueness clash
func NewConflictError(message string, details map[string]interface{}) *ServiceError {
	return &ServiceError{
		Type:    ErrorTypeConflict,
		Code:    ErrCodeConflict,
		Message: message,
		Details: details,
	}
}

// NewStoreUnavailableError wraps a collaborator failure, propagated unchanged
func NewStoreUnavailableError(cause error) *ServiceError {
	return &ServiceError{
		Type:    ErrorTypeStoreUnavailable,
		Code:    ErrCodeStoreUnavailable,
		Message: "appointment store is unavailable",
		Cause:   cause,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(message string, details map[string]interface{}) *ServiceError {
	return &ServiceError{
		Type:    ErrorTypeValidation,
		Code:    ErrCodeValidationFailed,
		Message: message,
		Details: details,
	}
}

// IsErrorType reports whether err is a ServiceError of the given type
func IsErrorType(err error, t ErrorType) bool {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr.Type == t
	}
	return false
}
