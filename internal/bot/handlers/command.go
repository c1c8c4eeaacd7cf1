package handlers

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/vladimiradmaev/sugraph/internal/bot/keyboards"
	"github.com/vladimiradmaev/sugraph/internal/bot/menus"
	"github.com/vladimiradmaev/sugraph/internal/bot/state"
	"github.com/vladimiradmaev/sugraph/internal/database"
	"github.com/vladimiradmaev/sugraph/internal/logger"
	"github.com/vladimiradmaev/sugraph/internal/simulation"
)

const helpText = `Доступные команды:
/start - Показать главное меню
/help - Показать это сообщение
/carbs <г> <ЧЧ:ММ> [fast|medium|slow] - Углеводы, например: /carbs 45 13:30 slow
/bolus <ед> <ЧЧ:ММ> - Болюс, например: /bolus 4.5 13:15
/at <ЧЧ:ММ> - Сахар и активный инсулин в это время
/chart - График дня
/day - Итоги дня
/events - Список событий
/undo - Отменить последнее событие
/reset - Сбросить день
/settings - ISF, CR и профиль инсулина

Скорость усвоения: fast (30 мин), medium (60 мин, по умолчанию), slow (120 мин).
Время округляется до ближайшей точки расчета.

Фото еды: отправьте фото, в подписи можно указать вес в граммах.`

// CommandHandler handles bot commands
type CommandHandler struct {
	views
	stateManager state.StateManager
}

// NewCommandHandler creates a new command handler
func NewCommandHandler(api API, deps Dependencies, stateManager state.StateManager) *CommandHandler {
	return &CommandHandler{
		views:        views{api: api, deps: deps},
		stateManager: stateManager,
	}
}

// Handle processes a command message
func (h *CommandHandler) Handle(ctx context.Context, message *tgbotapi.Message, user *database.User) error {
	logger.Debug("Handling command", "command", message.Command(), "user_id", user.ID)
	chatID := message.Chat.ID
	args := strings.TrimSpace(message.CommandArguments())

	switch message.Command() {
	case "start":
		h.stateManager.SetUserState(user.TelegramID, state.None)
		h.stateManager.ClearTempData(user.TelegramID)
		return menus.SendMainMenu(h.api, chatID)
	case "help":
		return reply(h.api, chatID, helpText)
	case "carbs":
		return h.handleCarbs(ctx, chatID, user, args)
	case "bolus":
		return h.handleBolus(ctx, chatID, user, args)
	case "at":
		return h.handleAt(ctx, chatID, user, args)
	case "chart":
		return h.sendChart(ctx, chatID, user)
	case "day":
		return h.sendSummary(ctx, chatID, user)
	case "events":
		return h.sendEvents(ctx, chatID, user)
	case "undo":
		return h.undo(ctx, chatID, user)
	case "reset":
		return replyWithKeyboard(h.api, chatID, "Удалить все события за сегодня?", keyboards.ResetConfirmMenu())
	case "settings":
		return h.sendSettings(chatID, user)
	default:
		return reply(h.api, chatID, "Неизвестная команда. Используйте /help для просмотра доступных команд.")
	}
}

func (h *CommandHandler) handleCarbs(ctx context.Context, chatID int64, user *database.User, args string) error {
	parsed, err := parseEventArgs(args, true)
	if err != nil {
		return reply(h.api, chatID, "Формат: /carbs <граммы> <ЧЧ:ММ> [fast|medium|slow]\nНапример: /carbs 45 13:30 slow")
	}
	return h.applyEvent(ctx, chatID, user, parsed.Clock, parsed.Amount, 0, parsed.Profile)
}

func (h *CommandHandler) handleBolus(ctx context.Context, chatID int64, user *database.User, args string) error {
	parsed, err := parseEventArgs(args, false)
	if err != nil {
		return reply(h.api, chatID, "Формат: /bolus <единицы> <ЧЧ:ММ>\nНапример: /bolus 4.5 13:15")
	}
	return h.applyEvent(ctx, chatID, user, parsed.Clock, 0, parsed.Amount, "")
}

func (h *CommandHandler) handleAt(ctx context.Context, chatID int64, user *database.User, args string) error {
	clock, err := simulation.NormalizeClock(args)
	if err != nil {
		return reply(h.api, chatID, "Формат: /at <ЧЧ:ММ>, например: /at 15:00")
	}
	point, err := h.deps.SimulationSvc.PointAt(ctx, user, clock)
	if err != nil {
		return err
	}
	return reply(h.api, chatID, formatPoint(point))
}
