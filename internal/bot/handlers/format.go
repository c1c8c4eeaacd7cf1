package handlers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vladimiradmaev/sugraph/internal/domain"
	apperrors "github.com/vladimiradmaev/sugraph/internal/errors"
	"github.com/vladimiradmaev/sugraph/internal/eventlog"
	"github.com/vladimiradmaev/sugraph/internal/simulation"
)

const maxCaptionLength = 900

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "[", "\\[", "]", "\\]", "`", "\\`")

// escapeMarkdown escapes legacy Markdown and truncates to a caption-safe size.
func escapeMarkdown(s string) string {
	s = strings.ToValidUTF8(markdownEscaper.Replace(s), "")
	if r := []rune(s); len(r) > maxCaptionLength {
		s = string(r[:maxCaptionLength-3]) + "..."
	}
	return s
}

func mmol(mgdl float64) float64 {
	return mgdl / domain.MmolToMgdl
}

func formatPoint(p simulation.DataPoint) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🕒 %s\n", p.Timestamp.Format("15:04"))
	fmt.Fprintf(&b, "🩸 Сахар: %.0f мг/дл (%.1f ммоль/л)\n", p.Glucose, mmol(p.Glucose))
	if p.CarbsConsumed != nil && *p.CarbsConsumed > 0 {
		fmt.Fprintf(&b, "🍞 Углеводы: %g г\n", *p.CarbsConsumed)
	}
	if p.BolusAmount != nil && *p.BolusAmount > 0 {
		fmt.Fprintf(&b, "💉 Болюс: %g ед.\n", *p.BolusAmount)
	}
	fmt.Fprintf(&b, "💧 Активный инсулин: %.2f ед.\n", p.InsulinOnBoard)
	fmt.Fprintf(&b, "📐 ISF %g, CR %g", p.InsulinSensitivityFactor, p.CarbohydrateRatio)
	return b.String()
}

func formatSummary(s domain.DaySummary) string {
	if s.Points == 0 {
		return "За этот день нет данных."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "📊 Итоги %s\n\n", s.Day.Format("02.01.2006"))
	fmt.Fprintf(&b, "Начало: %.0f → конец: %.0f мг/дл\n", s.Start, s.End)
	fmt.Fprintf(&b, "Минимум: %.0f мг/дл в %s\n", s.Min, s.NadirAt.Format("15:04"))
	fmt.Fprintf(&b, "Максимум: %.0f мг/дл в %s\n", s.Max, s.PeakAt.Format("15:04"))
	fmt.Fprintf(&b, "Среднее: %.0f ± %.0f мг/дл\n\n", s.Mean, s.StdDev)
	fmt.Fprintf(&b, "🎯 В диапазоне %.0f-%.0f: %.0f%%\n", domain.TargetLow, domain.TargetHigh, s.InRange)
	fmt.Fprintf(&b, "⬇️ Ниже: %.0f%%  ⬆️ Выше: %.0f%%\n\n", s.BelowRange, s.AboveRange)
	fmt.Fprintf(&b, "🍞 Углеводы: %g г, 💉 инсулин: %g ед., событий: %d", s.Carbs, s.Insulin, s.Events)
	return b.String()
}

func eventLabel(t eventlog.Type) string {
	switch t {
	case eventlog.TypeCarb:
		return "🍞 углеводы"
	case eventlog.TypeBolus:
		return "💉 болюс"
	default:
		return "🍞💉 углеводы и болюс"
	}
}

func formatEvents(entries []eventlog.Entry) string {
	if len(entries) == 0 {
		return "Событий пока нет. Используйте /carbs или /bolus."
	}
	var b strings.Builder
	b.WriteString("📝 События дня:\n\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "#%d %s: %s\n", e.ID, e.Time.Format("15:04"), eventLabel(e.Type))
	}
	return b.String()
}

// userMessage turns an error into a reply the user can act on.
func userMessage(err error) string {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		return "Произошла ошибка. Пожалуйста, попробуйте еще раз."
	}
	switch {
	case errors.Is(err, apperrors.ErrSuperseded):
		return "Расчет был прерван более новым изменением. Попробуйте еще раз."
	case errors.Is(err, apperrors.ErrNoMatchingPoint):
		return "На это время нет точки в расчете дня."
	}
	switch appErr.Type {
	case apperrors.ErrorTypeValidation:
		return "⚠️ Неверный ввод: " + appErr.Message
	case apperrors.ErrorTypeNotFound:
		return "Ничего не найдено."
	case apperrors.ErrorTypeConflict:
		return "⚠️ Такая запись уже есть."
	case apperrors.ErrorTypeExternal, apperrors.ErrorTypeTimeout:
		return "Сервис анализа сейчас недоступен. Попробуйте через несколько минут."
	default:
		return "Произошла ошибка. Пожалуйста, попробуйте еще раз."
	}
}
