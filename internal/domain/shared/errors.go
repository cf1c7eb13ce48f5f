package shared

import "fmt"

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is matches any DomainError carrying the same code, so callers can test
// errors.Is(err, shared.ErrNotFound) against a specific message.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Error codes
const (
	CodeNotFound     = "NOT_FOUND"
	CodeInvalidState = "INVALID_STATE"
	CodeValidation   = "VALIDATION_FAILED"
	CodeConflict     = "CONFLICT"
	CodeUnauthorized = "UNAUTHORIZED"
)

// Common domain errors
var (
	ErrNotFound     = NewDomainError(CodeNotFound, "Resource not found")
	ErrInvalidState = NewDomainError(CodeInvalidState, "Operation not allowed in current state")
	ErrValidation   = NewDomainError(CodeValidation, "Invalid input provided")
	ErrConflict     = NewDomainError(CodeConflict, "Resource already exists")
	ErrUnauthorized = NewDomainError(CodeUnauthorized, "Authentication required")
)

// NotFound reports a missing record, e.g. NotFound("purchase") -> "purchase not found"
func NotFound(entity string) *DomainError {
	return NewDomainError(CodeNotFound, entity+" not found")
}

// InvalidState reports an action whose precondition does not hold
func InvalidState(format string, args ...any) *DomainError {
	return NewDomainError(CodeInvalidState, fmt.Sprintf(format, args...))
}

// Invalid reports a rejected input value
func Invalid(format string, args ...any) *DomainError {
	return NewDomainError(CodeValidation, fmt.Sprintf(format, args...))
}

// Conflict reports a uniqueness violation
func Conflict(format string, args ...any) *DomainError {
	return NewDomainError(CodeConflict, fmt.Sprintf(format, args...))
}

// Unauthorized reports failed authentication
func Unauthorized(message string) *DomainError {
	return NewDomainError(CodeUnauthorized, message)
}
