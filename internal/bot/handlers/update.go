package handlers

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/vladimiradmaev/sugraph/internal/bot/state"
	apperrors "github.com/vladimiradmaev/sugraph/internal/errors"
	"github.com/vladimiradmaev/sugraph/internal/logger"
)

// UpdateHandler handles telegram updates and coordinates other handlers
type UpdateHandler struct {
	api             API
	deps            Dependencies
	errHandler      *apperrors.Handler
	callbackHandler *CallbackHandler
	commandHandler  *CommandHandler
	textHandler     *TextHandler
	photoHandler    *PhotoHandler
}

// NewUpdateHandler creates a new update handler
func NewUpdateHandler(api API, deps Dependencies, stateManager state.StateManager) *UpdateHandler {
	return &UpdateHandler{
		api:             api,
		deps:            deps,
		errHandler:      apperrors.NewHandler(logger.WithComponent("bot")),
		callbackHandler: NewCallbackHandler(api, deps, stateManager),
		commandHandler:  NewCommandHandler(api, deps, stateManager),
		textHandler:     NewTextHandler(api, deps, stateManager),
		photoHandler:    NewPhotoHandler(api, deps, stateManager),
	}
}

// Handle processes a telegram update. Service errors are logged and answered
// in the chat; only failures to talk to Telegram are returned.
func (h *UpdateHandler) Handle(ctx context.Context, update tgbotapi.Update) error {
	var from *tgbotapi.User
	var chatID int64
	switch {
	case update.Message != nil && update.Message.From != nil:
		from, chatID = update.Message.From, update.Message.Chat.ID
	case update.CallbackQuery != nil && update.CallbackQuery.Message != nil:
		from, chatID = update.CallbackQuery.From, update.CallbackQuery.Message.Chat.ID
	default:
		return nil
	}

	user, err := h.deps.UserService.RegisterUser(ctx, from.ID, from.UserName, from.FirstName, from.LastName)
	if err != nil {
		h.errHandler.Handle(ctx, err)
		return fmt.Errorf("failed to get/create user: %w", err)
	}

	switch {
	case update.CallbackQuery != nil:
		err = h.callbackHandler.Handle(ctx, update.CallbackQuery, user)
	case update.Message.IsCommand():
		err = h.commandHandler.Handle(ctx, update.Message, user)
	case len(update.Message.Photo) > 0:
		err = h.photoHandler.Handle(ctx, update.Message, user)
	case update.Message.Text != "":
		err = h.textHandler.Handle(ctx, update.Message, user)
	}
	if err == nil {
		return nil
	}

	h.errHandler.Handle(ctx, err)
	return reply(h.api, chatID, userMessage(err))
}

// reply sends a plain text message.
func reply(api API, chatID int64, text string) error {
	_, err := api.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

func replyWithKeyboard(api API, chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = keyboard
	_, err := api.Send(msg)
	return err
}
