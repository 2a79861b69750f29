package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a unique error code
type ErrorCode string

// Error codes for different categories
const (
	// Connectivity Errors (1xxx)
	ErrCodeConnectivity ErrorCode = "CONN_1001"

	// Lookup Errors (2xxx)
	ErrCodeTableNotFound   ErrorCode = "LOOKUP_2001"
	ErrCodeSessionNotFound ErrorCode = "LOOKUP_2002"

	// Data Errors (3xxx)
	ErrCodeConstraintViolation ErrorCode = "DATA_3001"

	// Validation Errors (4xxx)
	ErrCodeInvalidRequest     ErrorCode = "VALID_4001"
	ErrCodeAuditTableReadOnly ErrorCode = "VALID_4002"

	// Authentication Errors (5xxx)
	ErrCodeUnauthorized ErrorCode = "AUTH_5001"

	// Server Errors (6xxx)
	ErrCodeInternal ErrorCode = "SERVER_6001"
)

// AppError represents a structured application error
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
	Cause   error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the cause error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches any AppError carrying the same code
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// NewAppError creates a new application error
func NewAppError(code ErrorCode, message string, details string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Details: details,
		Cause:   cause,
	}
}

func causeDetails(cause error) string {
	if cause == nil {
		return ""
	}
	return cause.Error()
}

// Sentinels for errors.Is checks
var (
	ErrNotFound       = &AppError{Code: ErrCodeTableNotFound}
	ErrSessionMissing = &AppError{Code: ErrCodeSessionNotFound}
	ErrConstraint     = &AppError{Code: ErrCodeConstraintViolation}
	ErrUnavailable    = &AppError{Code: ErrCodeConnectivity}
	ErrInvalid        = &AppError{Code: ErrCodeInvalidRequest}
	ErrAuditReadOnly  = &AppError{Code: ErrCodeAuditTableReadOnly}
	ErrNotAuthorized  = &AppError{Code: ErrCodeUnauthorized}
)

func ErrConnectivity(operation string, cause error) *AppError {
	return NewAppError(ErrCodeConnectivity, "Database unavailable", fmt.Sprintf("Operation: %s: %s", operation, causeDetails(cause)), cause)
}

func ErrSchemaNotFound(schema string) *AppError {
	return NewAppError(ErrCodeTableNotFound, "Schema not found", fmt.Sprintf("Schema: %s", schema), nil)
}

func ErrTableNotFound(ref TableRef) *AppError {
	return NewAppError(ErrCodeTableNotFound, "Table not found", fmt.Sprintf("Table: %s", ref), nil)
}

func ErrSessionNotFound(id string) *AppError {
	return NewAppError(ErrCodeSessionNotFound, "Edit session not found", fmt.Sprintf("Session ID: %s", id), nil)
}

func ErrConstraintViolation(cause error) *AppError {
	return NewAppError(ErrCodeConstraintViolation, "Constraint violation", causeDetails(cause), cause)
}

func ErrInvalidRequest(details string) *AppError {
	return NewAppError(ErrCodeInvalidRequest, "Invalid request", details, nil)
}

func ErrAuditTableReadOnly(ref TableRef) *AppError {
	return NewAppError(ErrCodeAuditTableReadOnly, "Audit table is read only", fmt.Sprintf("Table: %s", ref), nil)
}

func ErrUnauthorized(details string) *AppError {
	return NewAppError(ErrCodeUnauthorized, "Unauthorized", details, nil)
}

func ErrInternal(details string, cause error) *AppError {
	if details == "" {
		details = causeDetails(cause)
	}
	return NewAppError(ErrCodeInternal, "Internal server error", details, cause)
}

// HTTPStatus maps an error to the response status code
func HTTPStatus(err error) int {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return http.StatusInternalServerError
	}
	switch appErr.Code {
	case ErrCodeConnectivity:
		return http.StatusServiceUnavailable
	case ErrCodeTableNotFound, ErrCodeSessionNotFound:
		return http.StatusNotFound
	case ErrCodeConstraintViolation:
		return http.StatusConflict
	case ErrCodeInvalidRequest, ErrCodeAuditTableReadOnly:
		return http.StatusBadRequest
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// AsAppError returns err as an AppError, wrapping unknown errors as internal
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return ErrInternal("", err)
}
