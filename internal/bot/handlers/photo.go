package handlers

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/vladimiradmaev/sugraph/internal/bot/keyboards"
	"github.com/vladimiradmaev/sugraph/internal/bot/state"
	"github.com/vladimiradmaev/sugraph/internal/database"
	"github.com/vladimiradmaev/sugraph/internal/logger"
)

// PhotoHandler handles photo messages
type PhotoHandler struct {
	api          API
	deps         Dependencies
	stateManager state.StateManager
}

// NewPhotoHandler creates a new photo handler
func NewPhotoHandler(api API, deps Dependencies, stateManager state.StateManager) *PhotoHandler {
	return &PhotoHandler{
		api:          api,
		deps:         deps,
		stateManager: stateManager,
	}
}

// Handle analyzes the largest size of the photo. A number in the caption is
// taken as the weight in grams.
func (h *PhotoHandler) Handle(ctx context.Context, message *tgbotapi.Message, user *database.User) error {
	chatID := message.Chat.ID
	photo := message.Photo[len(message.Photo)-1]

	weight := 0.0
	if caption := strings.TrimSpace(message.Caption); caption != "" {
		w, err := parseAmount(strings.TrimSuffix(strings.TrimSuffix(caption, "г"), "g"))
		if err != nil {
			return reply(h.api, chatID, "Неверный формат веса. Пожалуйста, укажите вес в граммах (например: 100).")
		}
		weight = w
	}

	url, err := h.api.GetFileDirectURL(photo.FileID)
	if err != nil {
		return fmt.Errorf("failed to get file: %w", err)
	}

	processing, err := h.api.Send(tgbotapi.NewMessage(chatID, "Анализирую изображение..."))
	if err != nil {
		return fmt.Errorf("failed to send processing message: %w", err)
	}
	defer func() {
		if _, err := h.api.Request(tgbotapi.NewDeleteMessage(chatID, processing.MessageID)); err != nil {
			logger.Debug("Failed to delete processing message", "error", err)
		}
	}()

	analysis, err := h.deps.FoodAnalysisSvc.AnalyzeFood(ctx, user.ID, url, weight)
	if err != nil {
		return err
	}
	logger.Info("Food analysis completed", "user_id", user.ID, "analysis_id", analysis.ID, "carbs", analysis.Carbs)
	h.stateManager.SetUserState(user.TelegramID, state.None)

	if analysis.Carbs == 0 {
		return replyWithKeyboard(h.api, chatID,
			"Углеводы на фото не найдены. Пожалуйста, отправьте фото блюда для анализа.",
			keyboards.BackToMain())
	}

	msg := tgbotapi.NewPhoto(chatID, tgbotapi.FileID(photo.FileID))
	msg.Caption = analysisCaption(analysis, weight)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.ReplyMarkup = keyboards.FoodResultMenu(analysis.ID)
	if _, err := h.api.Send(msg); err != nil {
		// retry without Markdown
		msg.ParseMode = ""
		if _, err := h.api.Send(msg); err != nil {
			return fmt.Errorf("failed to send photo message: %w", err)
		}
	}
	return nil
}

func analysisCaption(a *database.FoodAnalysis, userWeight float64) string {
	var weightText string
	switch {
	case userWeight > 0:
		weightText = fmt.Sprintf("⚖️ *Введенный вес:* %.0f г", userWeight)
	case a.Weight > 0:
		weightText = fmt.Sprintf("⚖️ *Рассчитанный вес:* %.0f г", a.Weight)
	default:
		weightText = "⚖️ *Вес:* не указан"
	}

	var confidenceText string
	switch {
	case a.Confidence >= 0.8:
		confidenceText = "высокая"
	case a.Confidence >= 0.6:
		confidenceText = "средняя"
	default:
		confidenceText = "низкая"
	}

	insulinText := "💉 *Инсулин:* коэффициент на это время не задан"
	if a.InsulinRatio > 0 {
		insulinText = fmt.Sprintf("💉 *Инсулин:* %.1f ед. (%.0f г / %g г на ед.)", a.InsulinUnits, a.Carbs, a.InsulinRatio)
	}

	caption := fmt.Sprintf("🍽️ *Анализ блюда*\n\n"+
		"🍞 *Углеводы:* %.1f г\n"+
		"⏱️ *Усвоение:* %s\n"+
		"%s\n"+
		"🎯 *Уверенность:* %s\n"+
		"%s\n\n"+
		"📊 *Как считали:*\n%s",
		a.Carbs, a.Absorption, insulinText, confidenceText, weightText, escapeMarkdown(a.AnalysisText))
	return strings.ToValidUTF8(caption, "")
}
