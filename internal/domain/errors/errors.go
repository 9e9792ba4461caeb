package errors

import (
	"errors"
	"fmt"
)

// Error types for different domains
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeBusiness   ErrorType = "business"
	ErrorTypeInternal   ErrorType = "internal"
	ErrorTypeExternal   ErrorType = "external"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeConflict   ErrorType = "conflict"
	ErrorTypeIntegrity  ErrorType = "integrity"
	ErrorTypeEncryption ErrorType = "encryption"
)

// AppError represents a structured application error
type AppError struct {
	Type      ErrorType              `json:"type"`
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Cause     error                  `json:"-"`
	Retryable bool                   `json:"retryable"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	e.Details = details
	return e
}

func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// Error constructors
func NewValidationError(code, message string) *AppError {
	return &AppError{
		Type:      ErrorTypeValidation,
		Code:      code,
		Message:   message,
		Retryable: false,
	}
}

func NewBusinessError(code, message string) *AppError {
	return &AppError{
		Type:      ErrorTypeBusiness,
		Code:      code,
		Message:   message,
		Retryable: false,
	}
}

func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Type:      ErrorTypeNotFound,
		Code:      "RESOURCE_NOT_FOUND",
		Message:   fmt.Sprintf("%s not found", resource),
		Retryable: false,
	}
}

func NewConflictError(code, message string) *AppError {
	return &AppError{
		Type:      ErrorTypeConflict,
		Code:      code,
		Message:   message,
		Retryable: false,
	}
}

func NewInternalError(message string) *AppError {
	return &AppError{
		Type:      ErrorTypeInternal,
		Code:      "INTERNAL_ERROR",
		Message:   message,
		Retryable: true,
	}
}

func NewExternalError(service, message string) *AppError {
	return &AppError{
		Type:      ErrorTypeExternal,
		Code:      "EXTERNAL_SERVICE_ERROR",
		Message:   fmt.Sprintf("%s service error: %s", service, message),
		Retryable: true,
		Details:   map[string]interface{}{"service": service},
	}
}

// NewIntegrityError signals that decrypted policy content does not match its
// stored hash. Treated as evidence of tampering: callers must abort the
// operation in progress rather than continue with unverified rules.
func NewIntegrityError(code, message string) *AppError {
	return &AppError{
		Type:      ErrorTypeIntegrity,
		Code:      code,
		Message:   message,
		Retryable: false,
	}
}

// NewEncryptionError signals a failure of the encryption primitive itself
// (bad key, corrupt ciphertext, failed seal). Fatal for the operation in
// progress; nothing may be stored or returned unencrypted.
func NewEncryptionError(message string) *AppError {
	return &AppError{
		Type:      ErrorTypeEncryption,
		Code:      "ENCRYPTION_FAILURE",
		Message:   message,
		Retryable: false,
	}
}

// NewPolicyNotFoundError reports that no active policy exists for a lookup
// key. This is a normal outcome, not a failure: translation treats it as
// "zero violations from this key".
func NewPolicyNotFoundError(eventType, framework string) *AppError {
	return &AppError{
		Type:      ErrorTypeNotFound,
		Code:      "POLICY_NOT_FOUND",
		Message:   fmt.Sprintf("no active policy for event type %q and framework %q", eventType, framework),
		Retryable: false,
		Details: map[string]interface{}{
			"event_type": eventType,
			"framework":  framework,
		},
	}
}

// Wrap wraps an error with a message using fmt.Errorf with %w
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// IsType checks if an error is of a specific type
func IsType(err error, errorType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errorType
	}
	return false
}

// IsIntegrityError reports whether the error indicates tampered policy content.
func IsIntegrityError(err error) bool {
	return IsType(err, ErrorTypeIntegrity)
}

// IsPolicyNotFound reports whether the error is the expected missing-policy
// outcome.
func IsPolicyNotFound(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == ErrorTypeNotFound && appErr.Code == "POLICY_NOT_FOUND"
	}
	return false
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Retryable
	}
	return false
}
