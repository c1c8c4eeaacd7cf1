package keyboards

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/vladimiradmaev/sugraph/internal/database"
	"github.com/vladimiradmaev/sugraph/internal/eventlog"
	"github.com/vladimiradmaev/sugraph/internal/simulation"
)

// Callback data. Parameterized callbacks are "<prefix>:<arg>".
const (
	MainMenuData     = "main_menu"
	SettingsData     = "settings"
	AnalyzeFoodData  = "analyze_food"
	BloodSugarData   = "blood_sugar"
	ChartData        = "chart"
	DayData          = "day"
	EventsData       = "events"
	UndoData         = "undo"
	ResetData        = "reset"
	ResetConfirmData = "reset_confirm"
	InsulinData      = "insulin_profile"
	HelpData         = "help"

	SchedulePrefix    = "schedule"
	AddEntryPrefix    = "add_entry"
	DeleteEntryPrefix = "delete_entry"
	ClearPrefix       = "clear_schedule"
	CurvePrefix       = "carb_curve"
	RemoveEventPrefix = "remove_event"
	ApplyFoodPrefix   = "apply_food"
)

// Data joins a callback prefix and its argument.
func Data(prefix string, arg any) string {
	return fmt.Sprintf("%s:%v", prefix, arg)
}

func backToMain() []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("◀️ Главное меню", MainMenuData),
	)
}

// MainMenu creates the main menu keyboard
func MainMenu() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📈 График дня", ChartData),
			tgbotapi.NewInlineKeyboardButtonData("📊 Итоги дня", DayData),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🍽️ Анализ еды", AnalyzeFoodData),
			tgbotapi.NewInlineKeyboardButtonData("🩸 Уровень сахара", BloodSugarData),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📝 События", EventsData),
			tgbotapi.NewInlineKeyboardButtonData("⚙️ Настройки", SettingsData),
		),
	)
}

// SettingsMenu creates the settings menu keyboard
func SettingsMenu() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🎯 Чувствительность (ISF)", Data(SchedulePrefix, database.ScheduleISF)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📊 Углеводный коэф. (CR)", Data(SchedulePrefix, database.ScheduleCR)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💉 Профиль инсулина", InsulinData),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔺 Треугольная кривая", Data(CurvePrefix, simulation.CurveTriangular)),
			tgbotapi.NewInlineKeyboardButtonData("📉 Экспонента", Data(CurvePrefix, simulation.CurveExponential)),
		),
		backToMain(),
	)
}

// ScheduleMenu lists entries with a delete button each.
func ScheduleMenu(kind database.ScheduleKind, entries []database.ScheduleEntry) tgbotapi.InlineKeyboardMarkup {
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➕ Добавить", Data(AddEntryPrefix, kind)),
		),
	)

	for _, e := range entries {
		label := fmt.Sprintf("🗑️ %s = %g", e.StartTime, e.Factor)
		keyboard.InlineKeyboard = append(keyboard.InlineKeyboard,
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(label, Data(DeleteEntryPrefix, e.ID)),
			),
		)
	}
	if len(entries) > 0 {
		keyboard.InlineKeyboard = append(keyboard.InlineKeyboard,
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("🧹 Очистить", Data(ClearPrefix, kind)),
			),
		)
	}

	keyboard.InlineKeyboard = append(keyboard.InlineKeyboard,
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("◀️ Назад", SettingsData),
		),
	)
	return keyboard
}

// EventsMenu offers removal of each logged event.
func EventsMenu(entries []eventlog.Entry) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, e := range entries {
		label := fmt.Sprintf("❌ #%d %s", e.ID, e.Time.Format("15:04"))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, Data(RemoveEventPrefix, e.ID)),
		))
	}
	if len(entries) > 0 {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("↩️ Отменить последнее", UndoData),
			tgbotapi.NewInlineKeyboardButtonData("🧹 Сбросить день", ResetData),
		))
	}
	rows = append(rows, backToMain())
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// ResetConfirmMenu asks before dropping the day.
func ResetConfirmMenu() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Да, сбросить", ResetConfirmData),
			tgbotapi.NewInlineKeyboardButtonData("◀️ Отмена", EventsData),
		),
	)
}

// FoodResultMenu lets the user place an analyzed meal on the timeline.
func FoodResultMenu(analysisID uint) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➕ Добавить в день", Data(ApplyFoodPrefix, analysisID)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🍽️ Анализ еды", AnalyzeFoodData),
		),
		backToMain(),
	)
}

// Cancel returns a single-button keyboard that leads back to data.
func Cancel(data string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("◀️ Отмена", data),
		),
	)
}

// BackToMain creates a keyboard with only the main menu button.
func BackToMain() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(backToMain())
}
