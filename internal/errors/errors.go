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
	ErrorTypeValidation    ErrorType = "validation"
	ErrorTypeConfiguration ErrorType = "configuration"
	ErrorTypeNotFound      ErrorType = "not_found"
	ErrorTypeConflict      ErrorType = "conflict"
	ErrorTypeTransient     ErrorType = "transient"
	ErrorTypeDatabase      ErrorType = "database"
	ErrorTypeExternal      ErrorType = "external_api"
	ErrorTypeInternal      ErrorType = "internal"
	ErrorTypePermission    ErrorType = "permission"
	ErrorTypeRateLimit     ErrorType = "rate_limit"
	ErrorTypeTimeout       ErrorType = "timeout"
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

// Is matches on type and code, so a wrapped ErrNoMatchingPoint still satisfies
// errors.Is(err, ErrNoMatchingPoint).
func (e *AppError) Is(target error) bool {
	if t, ok := target.(*AppError); ok {
		return e.Type == t.Type && e.Code == t.Code
	}
	return errors.Is(e.Internal, target)
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
	_, file, line, _ := runtime.Caller(skip)
	return fmt.Sprintf("%s:%d", file, line)
}

// TypeOf returns the type of the outermost AppError in err's chain, or
// ErrorTypeInternal when err carries none.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrorTypeInternal
}

// IsType reports whether err is an AppError of the given type.
func IsType(err error, errorType ErrorType) bool {
	if err == nil {
		return false
	}
	return TypeOf(err) == errorType
}

// Handler provides error handling strategies
type Handler struct {
	logger *slog.Logger
}

// NewHandler creates a new error handler
func NewHandler(logger *slog.Logger) *Handler {
	return &Handler{logger: logger}
}

// Handle processes an error according to its type
func (h *Handler) Handle(ctx context.Context, err error) {
	if err == nil {
		return
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		h.handleAppError(ctx, appErr)
	} else {
		h.handleGenericError(ctx, err)
	}
}

func (h *Handler) handleAppError(ctx context.Context, err *AppError) {
	switch err.Type {
	case ErrorTypeValidation, ErrorTypeNotFound:
		h.logger.WarnContext(ctx, "Request error", err.LogFields()...)
	case ErrorTypePermission, ErrorTypeRateLimit:
		h.logger.WarnContext(ctx, "Access error", err.LogFields()...)
	case ErrorTypeTransient, ErrorTypeConflict:
		h.logger.WarnContext(ctx, "Retryable error", err.LogFields()...)
	case ErrorTypeConfiguration, ErrorTypeDatabase, ErrorTypeExternal, ErrorTypeInternal, ErrorTypeTimeout:
		h.logger.ErrorContext(ctx, "Critical error", err.LogFields()...)
	default:
		h.logger.ErrorContext(ctx, "Unknown error type", err.LogFields()...)
	}
}

func (h *Handler) handleGenericError(ctx context.Context, err error) {
	h.logger.ErrorContext(ctx, "Unhandled error", "error", err.Error())
}

// LogAndReturn logs an error and returns it
func (h *Handler) LogAndReturn(ctx context.Context, err error) error {
	h.Handle(ctx, err)
	return err
}

// Predefined errors
var (
	ErrInvalidInput    = New(ErrorTypeValidation, "INVALID_INPUT", "Invalid input provided")
	ErrEmptySchedule   = New(ErrorTypeConfiguration, "EMPTY_SCHEDULE", "Schedule has no entries")
	ErrNoMatchingPoint = New(ErrorTypeValidation, "NO_MATCHING_POINT", "No timeline point at the requested timestamp")
	ErrSuperseded      = New(ErrorTypeTransient, "SUPERSEDED", "Recomputation superseded by a newer edit")
	ErrNotFound        = New(ErrorTypeNotFound, "NOT_FOUND", "Record not found")
	ErrUserNotFound    = New(ErrorTypeNotFound, "USER_NOT_FOUND", "User not found")
	ErrDatabaseError   = New(ErrorTypeDatabase, "DB_ERROR", "Database operation failed")
	ErrExternalAPI     = New(ErrorTypeExternal, "EXTERNAL_API", "External API error")
	ErrTimeout         = New(ErrorTypeTimeout, "TIMEOUT", "Operation timed out")
	ErrInternalServer  = New(ErrorTypeInternal, "INTERNAL", "Internal server error")
)

// Convenience functions for common errors
func NewValidationError(message string) *AppError {
	return &AppError{Type: ErrorTypeValidation, Code: "VALIDATION", Message: message, Source: caller(2), Context: map[string]interface{}{}}
}

func NewConfigurationError(message string) *AppError {
	return &AppError{Type: ErrorTypeConfiguration, Code: "CONFIGURATION", Message: message, Source: caller(2), Context: map[string]interface{}{}}
}

func NewNotFoundError(what string) *AppError {
	return &AppError{Type: ErrorTypeNotFound, Code: "NOT_FOUND", Message: fmt.Sprintf("%s not found", what), Source: caller(2), Context: map[string]interface{}{}}
}

func NewDatabaseError(err error) *AppError {
	return Wrap(err, ErrorTypeDatabase, "DB_ERROR", "Database operation failed")
}

func NewTransientError(err error, operation string) *AppError {
	return Wrap(err, ErrorTypeTransient, "TRANSIENT", fmt.Sprintf("%s failed, retry later", operation)).
		WithContext("operation", operation)
}

func NewExternalAPIError(err error, api string) *AppError {
	return Wrap(err, ErrorTypeExternal, "EXTERNAL_API", fmt.Sprintf("%s API error", api)).
		WithContext("api", api)
}

func NewTimeoutError(operation string) *AppError {
	return New(ErrorTypeTimeout, "TIMEOUT", fmt.Sprintf("%s operation timed out", operation)).
		WithContext("operation", operation)
}

func NewInternalError(err error) *AppError {
	return Wrap(err, ErrorTypeInternal, "INTERNAL", "Internal server error")
}

// NewSupersededError reports a recomputation abandoned for a newer edit.
// It matches ErrSuperseded under errors.Is.
func NewSupersededError(cause error) *AppError {
	return Wrap(cause, ErrorTypeTransient, ErrSuperseded.Code, ErrSuperseded.Message)
}
