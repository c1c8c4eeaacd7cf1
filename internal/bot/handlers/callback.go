package handlers

import (
	"context"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/vladimiradmaev/sugraph/internal/bot/keyboards"
	"github.com/vladimiradmaev/sugraph/internal/bot/menus"
	"github.com/vladimiradmaev/sugraph/internal/bot/state"
	"github.com/vladimiradmaev/sugraph/internal/database"
	apperrors "github.com/vladimiradmaev/sugraph/internal/errors"
	"github.com/vladimiradmaev/sugraph/internal/logger"
)

// CallbackHandler handles callback query messages
type CallbackHandler struct {
	views
	stateManager state.StateManager
}

// NewCallbackHandler creates a new callback handler
func NewCallbackHandler(api API, deps Dependencies, stateManager state.StateManager) *CallbackHandler {
	return &CallbackHandler{
		views:        views{api: api, deps: deps},
		stateManager: stateManager,
	}
}

// Handle processes a callback query
func (h *CallbackHandler) Handle(ctx context.Context, query *tgbotapi.CallbackQuery, user *database.User) error {
	if _, err := h.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		logger.Warn("Failed to answer callback query", "error", err)
	}

	chatID := query.Message.Chat.ID
	prefix, arg := parseCallback(query.Data)

	switch prefix {
	case keyboards.MainMenuData:
		h.stateManager.SetUserState(user.TelegramID, state.None)
		h.stateManager.ClearTempData(user.TelegramID)
		return menus.SendMainMenu(h.api, chatID)
	case keyboards.HelpData:
		return reply(h.api, chatID, helpText)
	case keyboards.SettingsData:
		h.stateManager.SetUserState(user.TelegramID, state.None)
		return h.sendSettings(chatID, user)
	case keyboards.AnalyzeFoodData:
		return h.handleAnalyzeFood(chatID, user)
	case keyboards.BloodSugarData:
		h.stateManager.SetUserState(user.TelegramID, state.WaitingForBloodSugar)
		return replyWithKeyboard(h.api, chatID, "Введите уровень сахара в крови (ммоль/л). Он станет началом дня:",
			keyboards.Cancel(keyboards.MainMenuData))
	case keyboards.ChartData:
		return h.sendChart(ctx, chatID, user)
	case keyboards.DayData:
		return h.sendSummary(ctx, chatID, user)
	case keyboards.EventsData:
		return h.sendEvents(ctx, chatID, user)
	case keyboards.UndoData:
		return h.undo(ctx, chatID, user)
	case keyboards.ResetData:
		return replyWithKeyboard(h.api, chatID, "Удалить все события за сегодня?", keyboards.ResetConfirmMenu())
	case keyboards.ResetConfirmData:
		if err := h.deps.SimulationSvc.ResetDay(ctx, user); err != nil {
			return err
		}
		return replyWithKeyboard(h.api, chatID, "🧹 День сброшен", keyboards.MainMenu())
	case keyboards.InsulinData:
		h.stateManager.SetUserState(user.TelegramID, state.WaitingForInsulinProfile)
		return replyWithKeyboard(h.api, chatID,
			"Введите длительность действия и пик инсулина в минутах через пробел (например, 210 90):",
			keyboards.Cancel(keyboards.SettingsData))
	case keyboards.SchedulePrefix:
		return h.sendSchedule(ctx, chatID, user, database.ScheduleKind(arg))
	case keyboards.AddEntryPrefix:
		return h.handleAddEntry(chatID, user, database.ScheduleKind(arg))
	case keyboards.DeleteEntryPrefix:
		return h.handleDeleteEntry(ctx, chatID, user, arg)
	case keyboards.ClearPrefix:
		return h.handleClearSchedule(ctx, chatID, user, database.ScheduleKind(arg))
	case keyboards.CurvePrefix:
		return h.handleCarbCurve(ctx, chatID, user, arg)
	case keyboards.RemoveEventPrefix:
		return h.handleRemoveEvent(ctx, chatID, user, arg)
	case keyboards.ApplyFoodPrefix:
		return h.handleApplyFood(ctx, chatID, user, arg)
	default:
		return reply(h.api, chatID, "Неизвестная команда. Используйте меню для выбора действия.")
	}
}

func (h *CallbackHandler) handleAnalyzeFood(chatID int64, user *database.User) error {
	h.stateManager.SetUserState(user.TelegramID, state.AnalyzingFood)

	text := `📷 *Отправьте фото еды для анализа*

💡 *Для точного расчета:*
• Укажите вес в подписи к фото (например: "150")
• Сфотографируйте блюдо целиком

🤖 *Бот определит:*
• Количество углеводов
• Скорость усвоения
• Дозу инсулина по вашему CR`

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.ReplyMarkup = keyboards.BackToMain()
	_, err := h.api.Send(msg)
	return err
}

func (h *CallbackHandler) handleAddEntry(chatID int64, user *database.User, kind database.ScheduleKind) error {
	h.stateManager.SetUserState(user.TelegramID, state.WaitingForScheduleEntry)
	h.stateManager.SetTempData(user.TelegramID, state.KeyScheduleKind, string(kind))

	prompt := "Введите время начала и чувствительность (мг/дл на 1 ед.) в формате ЧЧ:ММ=значение, например 06:00=45:"
	if kind == database.ScheduleCR {
		prompt = "Введите время начала и углеводный коэффициент (г на 1 ед.) в формате ЧЧ:ММ=значение, например 06:00=10:"
	}
	return replyWithKeyboard(h.api, chatID, prompt, keyboards.Cancel(keyboards.Data(keyboards.SchedulePrefix, kind)))
}

func (h *CallbackHandler) handleDeleteEntry(ctx context.Context, chatID int64, user *database.User, arg string) error {
	id, err := parseID(arg)
	if err != nil {
		return err
	}
	kind, err := h.findEntryKind(ctx, user.ID, id)
	if err != nil {
		return err
	}
	if err := h.deps.ScheduleSvc.DeleteEntry(ctx, user.ID, id); err != nil {
		return err
	}
	if err := h.deps.SimulationSvc.Reconfigure(ctx, user); err != nil {
		return err
	}
	return h.sendSchedule(ctx, chatID, user, kind)
}

// findEntryKind returns which schedule the entry belongs to.
func (h *CallbackHandler) findEntryKind(ctx context.Context, userID, entryID uint) (database.ScheduleKind, error) {
	for _, kind := range []database.ScheduleKind{database.ScheduleISF, database.ScheduleCR} {
		entries, err := h.deps.ScheduleSvc.GetEntries(ctx, userID, kind)
		if err != nil {
			return "", err
		}
		for _, e := range entries {
			if e.ID == entryID {
				return kind, nil
			}
		}
	}
	return database.ScheduleISF, nil
}

func (h *CallbackHandler) handleClearSchedule(ctx context.Context, chatID int64, user *database.User, kind database.ScheduleKind) error {
	if err := h.deps.ScheduleSvc.ClearSchedule(ctx, user.ID, kind); err != nil {
		return err
	}
	if err := h.deps.SimulationSvc.Reconfigure(ctx, user); err != nil {
		return err
	}
	if err := reply(h.api, chatID, "🧹 Расписание очищено, используются значения по умолчанию"); err != nil {
		return err
	}
	return h.sendSchedule(ctx, chatID, user, kind)
}

func (h *CallbackHandler) handleCarbCurve(ctx context.Context, chatID int64, user *database.User, curve string) error {
	if err := h.deps.UserService.SetCarbCurve(ctx, user, curve); err != nil {
		return err
	}
	if err := h.deps.SimulationSvc.Reconfigure(ctx, user); err != nil {
		return err
	}
	return h.sendSettings(chatID, user)
}

func (h *CallbackHandler) handleRemoveEvent(ctx context.Context, chatID int64, user *database.User, arg string) error {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return apperrors.NewValidationError(fmt.Sprintf("bad event id %q", arg))
	}
	if err := h.deps.SimulationSvc.RemoveEvent(ctx, user, id); err != nil {
		return err
	}
	return h.sendEvents(ctx, chatID, user)
}

func (h *CallbackHandler) handleApplyFood(ctx context.Context, chatID int64, user *database.User, arg string) error {
	id, err := parseID(arg)
	if err != nil {
		return err
	}
	analysis, err := h.deps.FoodAnalysisSvc.GetAnalysis(ctx, user.ID, id)
	if err != nil {
		return err
	}
	if analysis.Applied {
		return reply(h.api, chatID, "Это блюдо уже добавлено в день.")
	}

	h.stateManager.SetUserState(user.TelegramID, state.WaitingForEventTime)
	h.stateManager.SetTempData(user.TelegramID, state.KeyAnalysisID, arg)
	text := fmt.Sprintf("Во сколько вы ели? Введите время ЧЧ:ММ.\n🍞 %.0f г углеводов, усвоение: %s", analysis.Carbs, analysis.Absorption)
	return replyWithKeyboard(h.api, chatID, text, keyboards.Cancel(keyboards.MainMenuData))
}
