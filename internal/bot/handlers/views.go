package handlers

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/vladimiradmaev/sugraph/internal/bot/keyboards"
	"github.com/vladimiradmaev/sugraph/internal/bot/menus"
	"github.com/vladimiradmaev/sugraph/internal/database"
)

// views renders the screens reachable both from commands and from buttons.
type views struct {
	api  API
	deps Dependencies
}

func (v views) sendChart(ctx context.Context, chatID int64, user *database.User) error {
	png, err := v.deps.SimulationSvc.Chart(ctx, user)
	if err != nil {
		return err
	}
	summary, err := v.deps.SimulationSvc.Summary(ctx, user)
	if err != nil {
		return err
	}

	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "day.png", Bytes: png})
	photo.Caption = fmt.Sprintf("📈 %s: %.0f-%.0f мг/дл, в диапазоне %.0f%%",
		summary.Day.Format("02.01.2006"), summary.Min, summary.Max, summary.InRange)
	photo.ReplyMarkup = keyboards.MainMenu()
	_, err = v.api.Send(photo)
	return err
}

func (v views) sendSummary(ctx context.Context, chatID int64, user *database.User) error {
	summary, err := v.deps.SimulationSvc.Summary(ctx, user)
	if err != nil {
		return err
	}
	return replyWithKeyboard(v.api, chatID, formatSummary(summary), keyboards.MainMenu())
}

func (v views) sendEvents(ctx context.Context, chatID int64, user *database.User) error {
	entries, err := v.deps.SimulationSvc.Events(ctx, user)
	if err != nil {
		return err
	}
	return replyWithKeyboard(v.api, chatID, formatEvents(entries), keyboards.EventsMenu(entries))
}

func (v views) undo(ctx context.Context, chatID int64, user *database.User) error {
	entry, err := v.deps.SimulationSvc.Undo(ctx, user)
	if err != nil {
		return err
	}
	text := fmt.Sprintf("↩️ Отменено событие #%d (%s, %s)", entry.ID, eventLabel(entry.Type), entry.Time.Format("15:04"))
	return replyWithKeyboard(v.api, chatID, text, keyboards.MainMenu())
}

func (v views) sendSettings(chatID int64, user *database.User) error {
	return menus.SendSettingsMenu(v.api, chatID,
		v.deps.UserService.InsulinProfile(user),
		v.deps.UserService.CarbCurve(user).Name(),
		v.deps.UserService.BaselineGlucose(user))
}

func (v views) sendSchedule(ctx context.Context, chatID int64, user *database.User, kind database.ScheduleKind) error {
	entries, err := v.deps.ScheduleSvc.GetEntries(ctx, user.ID, kind)
	if err != nil {
		return err
	}
	return menus.SendScheduleMenu(v.api, chatID, kind, entries)
}

// applyEvent records the event and answers with the resulting point.
func (v views) applyEvent(ctx context.Context, chatID int64, user *database.User, clock string, carbs, bolus float64, profile string) error {
	point, err := v.deps.SimulationSvc.ApplyEvent(ctx, user, clock, carbs, bolus, profile)
	if err != nil {
		return err
	}
	return replyWithKeyboard(v.api, chatID, "✅ Событие добавлено\n\n"+formatPoint(point), keyboards.MainMenu())
}
