package services

import (
	"errors"
	"fmt"
)

// ErrorType represents the type/category of error
type ErrorType string

const (
	ErrorTypeConfiguration    ErrorType = "configuration"
	ErrorTypeUnauthorized     ErrorType = "unauthorized"
	ErrorTypeMalformedPayload ErrorType = "malformed_payload"
	ErrorTypePayloadTooLarge  ErrorType = "payload_too_large"
	ErrorTypeDownstream       ErrorType = "downstream"
	ErrorTypeValidation       ErrorType = "validation"
	ErrorTypeInternal         ErrorType = "internal"
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

// Wrap returns a copy of e carrying err as its cause. Sentinels are shared,
// so they are never mutated directly.
func (e *DomainError) Wrap(err error) *DomainError {
	return NewDomainError(e.Type, e.Message, err)
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

// Domain error variables

var (
	// Configuration Errors
	ErrMissingWebhookKey = NewDomainError(ErrorTypeConfiguration, "webhook shared key is not configured", nil)
	ErrInvalidAllowList  = NewDomainError(ErrorTypeConfiguration, "invalid gate allow-list", nil)

	// Authentication Errors
	ErrInvalidSignature = NewDomainError(ErrorTypeUnauthorized, "invalid webhook signature", nil)

	// Payload Errors
	ErrMalformedPayload = NewDomainError(ErrorTypeMalformedPayload, "malformed webhook payload", nil)
	ErrPayloadTooLarge  = NewDomainError(ErrorTypePayloadTooLarge, "webhook payload too large", nil)

	// Downstream Errors
	ErrDownstreamUnavailable = NewDomainError(ErrorTypeDownstream, "backend unavailable", nil)
	ErrDownstreamRejected    = NewDomainError(ErrorTypeDownstream, "backend rejected request", nil)

	// Internal Errors
	ErrInternal      = NewDomainError(ErrorTypeInternal, "internal server error", nil)
	ErrDatabaseError = NewDomainError(ErrorTypeInternal, "database error", nil)
)

// Error type checking helper functions

// IsConfigurationError checks if an error is a configuration error
func IsConfigurationError(err error) bool {
	return GetErrorType(err) == ErrorTypeConfiguration
}

// IsUnauthorizedError checks if an error is an unauthorized error
func IsUnauthorizedError(err error) bool {
	return GetErrorType(err) == ErrorTypeUnauthorized
}

// IsMalformedPayloadError checks if an error is a malformed payload error
func IsMalformedPayloadError(err error) bool {
	return GetErrorType(err) == ErrorTypeMalformedPayload
}

// IsPayloadTooLargeError checks if an error is a payload size error
func IsPayloadTooLargeError(err error) bool {
	return GetErrorType(err) == ErrorTypePayloadTooLarge
}

// IsDownstreamError checks if an error came from a downstream collaborator
func IsDownstreamError(err error) bool {
	return GetErrorType(err) == ErrorTypeDownstream
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return GetErrorType(err) == ErrorTypeValidation
}

// IsInternalError checks if an error is an internal error
func IsInternalError(err error) bool {
	return GetErrorType(err) == ErrorTypeInternal
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

// WrapDownstream wraps an error as a downstream collaborator error
func WrapDownstream(message string, err error) error {
	return NewDomainError(ErrorTypeDownstream, message, err)
}
