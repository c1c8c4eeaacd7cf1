package errors

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_IsMatchesTypeAndCode(t *testing.T) {
	err := Wrap(fmt.Errorf("ts 10:03"), ErrorTypeValidation, "NO_MATCHING_POINT", "no point")
	wrapped := fmt.Errorf("apply event: %w", err)

	assert.True(t, errors.Is(wrapped, ErrNoMatchingPoint))
	assert.False(t, errors.Is(wrapped, ErrInvalidInput))
}

func TestTypeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"validation", NewValidationError("bad"), ErrorTypeValidation},
		{"wrapped not found", fmt.Errorf("fetch: %w", NewNotFoundError("user")), ErrorTypeNotFound},
		{"transient", NewTransientError(context.DeadlineExceeded, "upsert"), ErrorTypeTransient},
		{"plain error", errors.New("boom"), ErrorTypeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TypeOf(tt.err))
		})
	}

	assert.False(t, IsType(nil, ErrorTypeInternal))
}

func TestAppError_UnwrapKeepsInternal(t *testing.T) {
	err := NewTransientError(context.DeadlineExceeded, "fetch")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, "fetch", err.Context["operation"])
	assert.Contains(t, err.Error(), "transient")
}

func TestHandler_LogsBySeverity(t *testing.T) {
	var buf bytes.Buffer
	h := NewHandler(slog.New(slog.NewTextHandler(&buf, nil)))

	h.Handle(context.Background(), NewValidationError("amount must be positive"))
	require.Contains(t, buf.String(), "level=WARN")

	buf.Reset()
	h.Handle(context.Background(), NewConfigurationError("empty ISF schedule"))
	require.Contains(t, buf.String(), "level=ERROR")

	buf.Reset()
	assert.Error(t, h.LogAndReturn(context.Background(), errors.New("plain")))
	assert.Contains(t, buf.String(), "Unhandled error")
}
