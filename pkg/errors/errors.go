package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// Domain errors
	ErrorTypeValidation ErrorType = "VALIDATION"
	ErrorTypeNotFound   ErrorType = "NOT_FOUND"
	ErrorTypeConflict   ErrorType = "CONFLICT"

	// Application errors
	ErrorTypeInternal ErrorType = "INTERNAL"
	ErrorTypeTimeout  ErrorType = "TIMEOUT"

	// Infrastructure errors
	ErrorTypeDatabase ErrorType = "DATABASE"
	ErrorTypeExternal ErrorType = "EXTERNAL"
)

// Error codes for the graph engine's taxonomy
const (
	CodeParentNotFound    = "PARENT_NOT_FOUND"
	CodeNodeNotFound      = "NODE_NOT_FOUND"
	CodeTenantRequired    = "TENANT_REQUIRED"
	CodeOracleUnavailable = "ORACLE_UNAVAILABLE"
)

// AppError represents an application-specific error
type AppError struct {
	Type       ErrorType              `json:"type"`
	Message    string                 `json:"message"`
	Code       string                 `json:"code,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Cause      error                  `json:"-"`
	HTTPStatus int                    `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetails adds error details
func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	e.Details = details
	return e
}

// WithCause wraps an underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Cause = err
	return e
}

// NewValidationError creates a validation error
func NewValidationError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
	}
}

// NewConflictError creates a conflict error
func NewConflictError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

// NewInternalError creates an internal error
func NewInternalError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
	}
}

// NewDatabaseError creates a database error
func NewDatabaseError(operation string, err error) *AppError {
	return &AppError{
		Type:       ErrorTypeDatabase,
		Message:    fmt.Sprintf("database operation '%s' failed", operation),
		Cause:      err,
		HTTPStatus: http.StatusInternalServerError,
	}
}

// NewParentNotFound reports an attempt to attach a node under a parent
// that does not exist in the tenant. Always fatal to that placement.
func NewParentNotFound(parentID, meetingID string) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       CodeParentNotFound,
		Message:    fmt.Sprintf("parent node '%s' does not exist for meeting '%s'", parentID, meetingID),
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

// NewNodeNotFound reports a query for a node id that does not resolve
// within the tenant.
func NewNodeNotFound(nodeID, meetingID string) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       CodeNodeNotFound,
		Message:    fmt.Sprintf("node '%s' not found for meeting '%s'", nodeID, meetingID),
		HTTPStatus: http.StatusNotFound,
	}
}

// NewTenantRequired reports an operation invoked without a meeting scope.
func NewTenantRequired(operation string) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       CodeTenantRequired,
		Message:    fmt.Sprintf("meeting id is required for operation '%s'", operation),
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewOracleUnavailable reports a failed call to an external decision or
// embedding dependency. Placement absorbs these via fallback; they are
// surfaced only through logs and metrics.
func NewOracleUnavailable(service string, err error) *AppError {
	return &AppError{
		Type:       ErrorTypeExternal,
		Code:       CodeOracleUnavailable,
		Message:    fmt.Sprintf("external service '%s' unavailable", service),
		Cause:      err,
		HTTPStatus: http.StatusBadGateway,
	}
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError extracts AppError from an error chain
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// IsType checks if an error is of a specific type
func IsType(err error, errType ErrorType) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Type == errType
}

// IsCode checks if an error carries a specific code
func IsCode(err error, code string) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Code == code
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return IsType(err, ErrorTypeNotFound)
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	return IsType(err, ErrorTypeValidation)
}

// IsParentNotFound checks for the parent-not-found structural error
func IsParentNotFound(err error) bool {
	return IsCode(err, CodeParentNotFound)
}

// IsNodeNotFound checks for the node-not-found query error
func IsNodeNotFound(err error) bool {
	return IsCode(err, CodeNodeNotFound)
}

// IsTenantRequired checks for the missing-tenant error
func IsTenantRequired(err error) bool {
	return IsCode(err, CodeTenantRequired)
}

// IsOracleUnavailable checks for an external oracle failure
func IsOracleUnavailable(err error) bool {
	return IsCode(err, CodeOracleUnavailable)
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}

	if appErr := GetAppError(err); appErr != nil {
		appErr.Message = fmt.Sprintf("%s: %s", message, appErr.Message)
		return appErr
	}

	return NewInternalError(message).WithCause(err)
}

// Wrapf wraps an error with formatted message
func Wrapf(err error, format string, args ...interface{}) error {
	return Wrap(err, fmt.Sprintf(format, args...))
}
