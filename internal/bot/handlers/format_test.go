package handlers

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	apperrors "github.com/vladimiradmaev/sugraph/internal/errors"
	"github.com/vladimiradmaev/sugraph/internal/eventlog"
)

func TestUserMessage(t *testing.T) {
	assert.Contains(t, userMessage(apperrors.NewValidationError("bad clock")), "bad clock")
	assert.Contains(t, userMessage(apperrors.NewSupersededError(nil)), "прерван")
	assert.Contains(t, userMessage(apperrors.ErrNoMatchingPoint), "нет точки")
	assert.Contains(t, userMessage(apperrors.NewNotFoundError("entry")), "не найдено")
	assert.Contains(t, userMessage(apperrors.NewExternalAPIError(errors.New("quota"), "gemini")), "недоступен")
	assert.Contains(t, userMessage(errors.New("boom")), "Произошла ошибка")
}

func TestEscapeMarkdown(t *testing.T) {
	assert.Equal(t, "a\\_b \\*c\\* \\[d\\]", escapeMarkdown("a_b *c* [d]"))

	long := strings.Repeat("я", maxCaptionLength+10)
	out := []rune(escapeMarkdown(long))
	assert.Len(t, out, maxCaptionLength)
	assert.Equal(t, "...", string(out[len(out)-3:]))
}

func TestFormatEvents(t *testing.T) {
	assert.Contains(t, formatEvents(nil), "Событий пока нет")

	at := time.Date(2024, 3, 1, 13, 30, 0, 0, time.UTC)
	text := formatEvents([]eventlog.Entry{
		{ID: 1, Type: eventlog.TypeCarb, Time: at},
		{ID: 2, Type: eventlog.TypeBoth, Time: at.Add(time.Hour)},
	})
	assert.Contains(t, text, "#1 13:30: 🍞 углеводы")
	assert.Contains(t, text, "#2 14:30")
}
