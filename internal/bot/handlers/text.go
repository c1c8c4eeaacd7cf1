package handlers

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/vladimiradmaev/sugraph/internal/bot/keyboards"
	"github.com/vladimiradmaev/sugraph/internal/bot/state"
	"github.com/vladimiradmaev/sugraph/internal/database"
	"github.com/vladimiradmaev/sugraph/internal/simulation"
)

// TextHandler handles text messages
type TextHandler struct {
	views
	stateManager state.StateManager
}

// NewTextHandler creates a new text handler
func NewTextHandler(api API, deps Dependencies, stateManager state.StateManager) *TextHandler {
	return &TextHandler{
		views:        views{api: api, deps: deps},
		stateManager: stateManager,
	}
}

// Handle processes a text message
func (h *TextHandler) Handle(ctx context.Context, message *tgbotapi.Message, user *database.User) error {
	switch h.stateManager.GetUserState(user.TelegramID) {
	case state.WaitingForBloodSugar:
		return h.handleBloodSugar(ctx, message, user)
	case state.WaitingForScheduleEntry:
		return h.handleScheduleEntry(ctx, message, user)
	case state.WaitingForInsulinProfile:
		return h.handleInsulinProfile(ctx, message, user)
	case state.WaitingForEventTime:
		return h.handleEventTime(ctx, message, user)
	default:
		return replyWithKeyboard(h.api, message.Chat.ID,
			"Пожалуйста, используйте меню или /help для выбора действия.", keyboards.MainMenu())
	}
}

func (h *TextHandler) done(user *database.User) {
	h.stateManager.SetUserState(user.TelegramID, state.None)
	h.stateManager.ClearTempData(user.TelegramID)
}

func (h *TextHandler) handleBloodSugar(ctx context.Context, message *tgbotapi.Message, user *database.User) error {
	value, err := parseAmount(message.Text)
	if err != nil {
		return reply(h.api, message.Chat.ID, "Пожалуйста, введите корректное число (например: 5.6)")
	}

	mgdl, err := h.deps.BloodSugarSvc.AddReading(ctx, user.ID, value)
	if err != nil {
		return err
	}
	user.BaselineGlucose = mgdl
	if err := h.deps.SimulationSvc.Reconfigure(ctx, user); err != nil {
		return err
	}

	h.done(user)
	text := fmt.Sprintf("✅ Уровень сахара %.1f ммоль/л (%.0f мг/дл) сохранен и стал началом дня", value, mgdl)
	return replyWithKeyboard(h.api, message.Chat.ID, text, keyboards.MainMenu())
}

func (h *TextHandler) handleScheduleEntry(ctx context.Context, message *tgbotapi.Message, user *database.User) error {
	raw, _ := h.stateManager.GetTempData(user.TelegramID, state.KeyScheduleKind)
	kind := database.ScheduleKind(raw)

	start, factor, err := parseScheduleEntry(message.Text)
	if err != nil {
		return reply(h.api, message.Chat.ID, "Неверный формат. Введите ЧЧ:ММ=значение (например, 06:00=45)")
	}
	if err := h.deps.ScheduleSvc.AddEntry(ctx, user.ID, kind, start, factor); err != nil {
		return err
	}
	if err := h.deps.SimulationSvc.Reconfigure(ctx, user); err != nil {
		return err
	}

	h.done(user)
	if err := reply(h.api, message.Chat.ID, fmt.Sprintf("✅ Добавлено: с %s значение %g", start, factor)); err != nil {
		return err
	}
	return h.sendSchedule(ctx, message.Chat.ID, user, kind)
}

func (h *TextHandler) handleInsulinProfile(ctx context.Context, message *tgbotapi.Message, user *database.User) error {
	duration, peak, err := parseInsulinProfile(message.Text)
	if err != nil {
		return reply(h.api, message.Chat.ID, "Неверный формат. Введите два числа в минутах, например: 210 90")
	}
	if err := h.deps.UserService.SetInsulinProfile(ctx, user, duration, peak); err != nil {
		return err
	}
	if err := h.deps.SimulationSvc.Reconfigure(ctx, user); err != nil {
		return err
	}

	h.done(user)
	return h.sendSettings(message.Chat.ID, user)
}

func (h *TextHandler) handleEventTime(ctx context.Context, message *tgbotapi.Message, user *database.User) error {
	clock, err := simulation.NormalizeClock(strings.TrimSpace(message.Text))
	if err != nil {
		return reply(h.api, message.Chat.ID, "Введите время в формате ЧЧ:ММ (например, 13:30)")
	}
	raw, ok := h.stateManager.GetTempData(user.TelegramID, state.KeyAnalysisID)
	if !ok {
		h.done(user)
		return replyWithKeyboard(h.api, message.Chat.ID, "Анализ не найден, отправьте фото еще раз.", keyboards.MainMenu())
	}
	id, err := parseID(raw)
	if err != nil {
		return err
	}

	analysis, err := h.deps.FoodAnalysisSvc.GetAnalysis(ctx, user.ID, id)
	if err != nil {
		return err
	}
	if err := h.applyEvent(ctx, message.Chat.ID, user, clock, analysis.Carbs, 0, analysis.Absorption); err != nil {
		return err
	}
	h.done(user)
	return h.deps.FoodAnalysisSvc.MarkApplied(ctx, analysis.ID)
}
