package shared

import "errors"

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	cause   error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause, if any
func (e *DomainError) Unwrap() error {
	return e.cause
}

// Is reports whether target is a DomainError with the same code.
// This lets callers match wrapped errors against the sentinels below.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WrapDomainError creates a domain error that keeps the original error as its cause
func WrapDomainError(code, message string, cause error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		cause:   cause,
	}
}

// Error codes
const (
	CodeNotFound          = "NOT_FOUND"
	CodeForbidden         = "FORBIDDEN"
	CodeInvalidInput      = "INVALID_INPUT"
	CodeInvalidState      = "INVALID_STATE"
	CodeValidationFailed  = "VALIDATION_FAILED"
	CodeSurfaceValidation = "SURFACE_VALIDATION_FAILED"
	CodeApprovalReverted  = "APPROVAL_REVERTED"
	CodeInfrastructure    = "INFRASTRUCTURE"
)

// Common domain errors
var (
	ErrNotFound          = NewDomainError(CodeNotFound, "Resource not found")
	ErrForbidden         = NewDomainError(CodeForbidden, "Access to this resource is forbidden")
	ErrInvalidInput      = NewDomainError(CodeInvalidInput, "Invalid input provided")
	ErrInvalidState      = NewDomainError(CodeInvalidState, "Operation not allowed in current state")
	ErrValidationFailed  = NewDomainError(CodeValidationFailed, "Validation failed")
	ErrSurfaceValidation = NewDomainError(CodeSurfaceValidation, "Surface validation failed")
	ErrApprovalReverted  = NewDomainError(CodeApprovalReverted, "Approval was reverted")
	ErrInfrastructure    = NewDomainError(CodeInfrastructure, "Storage operation failed")
)

// IsPermanent reports whether err is a business-rule failure that retrying cannot fix.
// Not-found, authorization, state-precondition and validation failures are permanent;
// infrastructure failures and unknown errors are not.
func IsPermanent(err error) bool {
	var de *DomainError
	if !errors.As(err, &de) {
		return false
	}
	switch de.Code {
	case CodeNotFound, CodeForbidden, CodeInvalidInput, CodeInvalidState,
		CodeValidationFailed, CodeSurfaceValidation:
		return true
	}
	return false
}
