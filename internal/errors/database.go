package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// FromDatabase classifies a storage failure so callers can tell bad input,
// missing rows and retryable I/O apart. AppErrors pass through unchanged.
func FromDatabase(op string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return err
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return Wrap(err, ErrorTypeNotFound, "NOT_FOUND", fmt.Sprintf("%s: record not found", op))
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return NewTransientError(err, op)
	case errors.Is(err, gorm.ErrInvalidData), errors.Is(err, gorm.ErrInvalidValue), errors.Is(err, gorm.ErrEmptySlice):
		return Wrap(err, ErrorTypeValidation, "VALIDATION", fmt.Sprintf("%s: invalid data", op))
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		code := strings.TrimSpace(pgErr.Code)
		switch {
		case code == "23505":
			return Wrap(err, ErrorTypeConflict, "CONFLICT", fmt.Sprintf("%s: duplicate key", op))
		case code == "40001", code == "40P01", code == "55P03", code == "57014":
			return NewTransientError(err, op) // serialization/deadlock/lock_not_available/query_canceled
		case strings.HasPrefix(code, "08"):
			return NewTransientError(err, op) // connection exception class
		case strings.HasPrefix(code, "22"), strings.HasPrefix(code, "23"):
			return Wrap(err, ErrorTypeValidation, "VALIDATION", fmt.Sprintf("%s: %s", op, pgErr.Message))
		}
	}
	if pgconn.Timeout(err) {
		return NewTransientError(err, op)
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "duplicate key"), strings.Contains(msg, "unique constraint"):
		return Wrap(err, ErrorTypeConflict, "CONFLICT", fmt.Sprintf("%s: duplicate key", op))
	case strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "database is locked"),
		strings.Contains(msg, "deadlock"),
		strings.Contains(msg, "timeout"):
		return NewTransientError(err, op)
	default:
		return NewDatabaseError(err).WithContext("operation", op)
	}
}
