package errors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
)

// ErrorType represents different types of errors
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeDatabase   ErrorType = "database"
	ErrorTypeExternal   ErrorType = "external_api"
	ErrorTypeInternal   ErrorType = "internal"
	ErrorTypeTimeout    ErrorType = "timeout"
)

// AppError represents an application error with additional context
type AppError struct {
	Type     ErrorType
	Message  string
	Code     string
	Internal error
	Context  map[string]interface{}
	Source   string
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s (internal: %v)", e.Type, e.Message, e.Internal)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the internal error
func (e *AppError) Unwrap() error {
	return e.Internal
}

// Is matches another AppError by type and code
func (e *AppError) Is(target error) bool {
	if t, ok := target.(*AppError); ok {
		return e.Type == t.Type && e.Code == t.Code
	}
	return false
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// LogFields returns structured logging fields
func (e *AppError) LogFields() []interface{} {
	fields := []interface{}{
		"error_type", e.Type,
		"error_code", e.Code,
		"error_message", e.Message,
		"source", e.Source,
	}

	if e.Internal != nil {
		fields = append(fields, "internal_error", e.Internal.Error())
	}

	for k, v := range e.Context {
		fields = append(fields, k, v)
	}

	return fields
}

// New creates a new AppError
func New(errorType ErrorType, code, message string) *AppError {
	return &AppError{
		Type:    errorType,
		Code:    code,
		Message: message,
		Source:  caller(2),
		Context: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error into AppError
func Wrap(err error, errorType ErrorType, code, message string) *AppError {
	return &AppError{
		Type:     errorType,
		Code:     code,
		Message:  message,
		Internal: err,
		Source:   caller(2),
		Context:  make(map[string]interface{}),
	}
}

func caller(skip int) string {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return "unknown"
	}
	return fmt.Sprintf("%s:%d", file, line)
}

// Handler provides error handling strategies
type Handler struct {
	logger *slog.Logger
}

// NewHandler creates a new error handler
func NewHandler(logger *slog.Logger) *Handler {
	return &Handler{logger: logger}
}

// Handle logs an error with a severity that depends on its type
func (h *Handler) Handle(ctx context.Context, err error) {
	if err == nil {
		return
	}

	var appErr *AppError
	if !errors.As(err, &appErr) {
		h.logger.ErrorContext(ctx, "Unhandled error", "error", err.Error())
		return
	}

	switch appErr.Type {
	case ErrorTypeValidation:
		h.logger.WarnContext(ctx, "Validation error", appErr.LogFields()...)
	case ErrorTypeExternal, ErrorTypeTimeout:
		h.logger.WarnContext(ctx, "Upstream error", appErr.LogFields()...)
	case ErrorTypeDatabase, ErrorTypeInternal:
		h.logger.ErrorContext(ctx, "Critical error", appErr.LogFields()...)
	default:
		h.logger.ErrorContext(ctx, "Unknown error type", appErr.LogFields()...)
	}
}

// LogAndReturn logs an error and returns it
func (h *Handler) LogAndReturn(ctx context.Context, err error) error {
	h.Handle(ctx, err)
	return err
}

// Predefined errors, compared with errors.Is by type and code
var (
	ErrInvalidDate       = New(ErrorTypeValidation, "INVALID_DATE", "Date must use the YYYY-MM-DD format")
	ErrUserNotFound      = New(ErrorTypeValidation, "USER_NOT_FOUND", "User not found")
	ErrMissingLoginEmail = New(ErrorTypeValidation, "MISSING_LOGIN_EMAIL", "User has no login email")
	ErrStaleUserList     = New(ErrorTypeValidation, "STALE_USER_LIST", "User list has been reloaded")
	ErrExternalAPI       = New(ErrorTypeExternal, "EXTERNAL_API", "External API error")
	ErrDatabaseError     = New(ErrorTypeDatabase, "DB_ERROR", "Database operation failed")
	ErrTimeout           = New(ErrorTypeTimeout, "TIMEOUT", "Operation timed out")
	ErrJoinFailed        = New(ErrorTypeInternal, "JOIN_FAILED", "Parallel fetch failed")
)

// NewUserNotFoundError reports a selection that does not match the user list
func NewUserNotFoundError(email string) *AppError {
	return New(ErrorTypeValidation, "USER_NOT_FOUND", "User not found").
		WithContext("login_email", email)
}

// NewMissingLoginEmailError reports a user record that cannot be fetched
func NewMissingLoginEmailError(userID string) *AppError {
	return New(ErrorTypeValidation, "MISSING_LOGIN_EMAIL", "User has no login email").
		WithContext("user_id", userID)
}

// NewStaleUserListError reports a selection made from an outdated user list
func NewStaleUserListError(version, current uint64) *AppError {
	return New(ErrorTypeValidation, "STALE_USER_LIST", "User list has been reloaded").
		WithContext("list_version", version).
		WithContext("current_version", current)
}

// NewInvalidDateError reports a date outside the YYYY-MM-DD format
func NewInvalidDateError(value string) *AppError {
	return New(ErrorTypeValidation, "INVALID_DATE", "Date must use the YYYY-MM-DD format").
		WithContext("value", value)
}

func NewDatabaseError(err error) *AppError {
	return Wrap(err, ErrorTypeDatabase, "DB_ERROR", "Database operation failed")
}

func NewExternalAPIError(err error, api string) *AppError {
	return Wrap(err, ErrorTypeExternal, "EXTERNAL_API", fmt.Sprintf("%s API error", api)).
		WithContext("api", api)
}

func NewTimeoutError(err error, operation string) *AppError {
	return Wrap(err, ErrorTypeTimeout, "TIMEOUT", fmt.Sprintf("%s operation timed out", operation)).
		WithContext("operation", operation)
}

// NewJoinError wraps a failure of the parallel fetch itself
func NewJoinError(err error) *AppError {
	return Wrap(err, ErrorTypeInternal, "JOIN_FAILED", "Parallel fetch failed")
}
