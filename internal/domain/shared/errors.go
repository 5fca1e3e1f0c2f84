package shared

import "errors"

// Error codes shared by every bounded context
const (
	CodeNotFound           = "NOT_FOUND"
	CodeInvalidInput       = "INVALID_INPUT"
	CodeUnauthenticated    = "UNAUTHENTICATED"
	CodeDuplicateRecord    = "DUPLICATE_RECORD"
	CodeForbiddenField     = "FORBIDDEN_FIELD"
	CodeInvalidFilter      = "INVALID_FILTER"
	CodeInvalidFieldValue  = "INVALID_FIELD_VALUE"
	CodePersistenceFailure = "PERSISTENCE_FAILURE"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap exposes the underlying cause, if any
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a DomainError carrying the same code.
func (e *DomainError) Is(target error) bool {
	var de *DomainError
	if !errors.As(target, &de) {
		return false
	}
	return de.Code == e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WrapDomainError creates a domain error that keeps the causing error
func WrapDomainError(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// CodeOf returns the domain code carried by err, or "" when err is not a DomainError.
func CodeOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// Common domain errors
var (
	ErrNotFound           = NewDomainError(CodeNotFound, "Resource not found")
	ErrInvalidInput       = NewDomainError(CodeInvalidInput, "Invalid input provided")
	ErrUnauthenticated    = NewDomainError(CodeUnauthenticated, "Caller identity is required")
	ErrDuplicateRecord    = NewDomainError(CodeDuplicateRecord, "Record already exists")
	ErrForbiddenField     = NewDomainError(CodeForbiddenField, "Field may not be modified")
	ErrInvalidFilter      = NewDomainError(CodeInvalidFilter, "Invalid filter value")
	ErrInvalidFieldValue  = NewDomainError(CodeInvalidFieldValue, "Invalid field value")
	ErrPersistenceFailure = NewDomainError(CodePersistenceFailure, "Persistence failure")
)
