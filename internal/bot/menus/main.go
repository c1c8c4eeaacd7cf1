package menus

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/vladimiradmaev/sugraph/internal/bot/keyboards"
	"github.com/vladimiradmaev/sugraph/internal/database"
	"github.com/vladimiradmaev/sugraph/internal/domain"
	"github.com/vladimiradmaev/sugraph/internal/simulation"
)

// Sender is the part of the Telegram API the menus need.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// SendMainMenu sends the main menu to a chat
func SendMainMenu(api Sender, chatID int64) error {
	text := `📈 *СахарГраф* — симулятор сахара на день

Отмечайте еду и инсулин, и я построю прогноз глюкозы с шагом в несколько минут:
• /carbs 45 13:30 — углеводы в граммах (можно добавить fast, medium или slow)
• /bolus 4 13:15 — болюс в единицах
• /chart — график дня

⚠️ *Важно:* Это модель, а не медицинский прибор. Всегда консультируйтесь с врачом!

Выберите действие:`

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.ReplyMarkup = keyboards.MainMenu()
	_, err := api.Send(msg)
	return err
}

// SendSettingsMenu sends the settings menu to a chat
func SendSettingsMenu(api Sender, chatID int64, profile simulation.InsulinProfile, curve string, baseline float64) error {
	text := fmt.Sprintf("Настройки:\n\n💉 Инсулин: действие %.0f мин, пик %.0f мин\n📐 Кривая усвоения: %s\n🩸 Сахар в начале дня: %.0f мг/дл (%.1f ммоль/л)",
		profile.ActionDuration, profile.Peak, curve, baseline, baseline/domain.MmolToMgdl)
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = keyboards.SettingsMenu()
	_, err := api.Send(msg)
	return err
}

// SendScheduleMenu shows one schedule. Each entry lasts until the next one,
// and the last wraps past midnight to the first.
func SendScheduleMenu(api Sender, chatID int64, kind database.ScheduleKind, entries []database.ScheduleEntry) error {
	msg := tgbotapi.NewMessage(chatID, ScheduleText(kind, entries))
	msg.ReplyMarkup = keyboards.ScheduleMenu(kind, entries)
	_, err := api.Send(msg)
	return err
}

// ScheduleText renders a schedule listing.
func ScheduleText(kind database.ScheduleKind, entries []database.ScheduleEntry) string {
	title, unit := scheduleLabels(kind)
	if len(entries) == 0 {
		return fmt.Sprintf("%s: используются значения по умолчанию.\nНажмите 'Добавить', чтобы задать свои.", title)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s:\n\n", title)
	for i, e := range entries {
		end := entries[(i+1)%len(entries)].StartTime
		fmt.Fprintf(&b, "🕒 %s - %s: %g %s\n", e.StartTime, end, e.Factor, unit)
	}
	if entries[0].StartTime != "00:00" {
		fmt.Fprintf(&b, "\n⚠️ До %s действует значение с %s предыдущего дня\n",
			entries[0].StartTime, entries[len(entries)-1].StartTime)
	} else {
		b.WriteString("\n✅ Периоды полностью покрывают 24 часа\n")
	}
	return b.String()
}

func scheduleLabels(kind database.ScheduleKind) (title, unit string) {
	if kind == database.ScheduleISF {
		return "Чувствительность к инсулину (ISF)", "мг/дл на ед."
	}
	return "Углеводный коэффициент (CR)", "г на ед."
}
