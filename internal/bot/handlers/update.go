package handlers

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vladimiradmaev/vitalz-dashboard/internal/bot/state"
	"github.com/vladimiradmaev/vitalz-dashboard/internal/interfaces"
	"github.com/vladimiradmaev/vitalz-dashboard/internal/logger"
)

// UpdateHandler handles telegram updates and coordinates other handlers
type UpdateHandler struct {
	api             interfaces.BotAPI
	operatorService interfaces.OperatorServiceInterface
	callbackHandler *CallbackHandler
	commandHandler  *CommandHandler
	textHandler     *TextHandler
}

// NewUpdateHandler creates a new update handler
func NewUpdateHandler(api interfaces.BotAPI, deps Dependencies, stateManager state.StateManager) *UpdateHandler {
	renderer := NewDashboardRenderer(api, deps, stateManager)
	return &UpdateHandler{
		api:             api,
		operatorService: deps.OperatorSvc,
		callbackHandler: NewCallbackHandler(api, deps, stateManager, renderer),
		commandHandler:  NewCommandHandler(api, deps, stateManager, renderer),
		textHandler:     NewTextHandler(api, deps, stateManager, renderer),
	}
}

// Handle processes a telegram update
func (h *UpdateHandler) Handle(ctx context.Context, update tgbotapi.Update) error {
	var from *tgbotapi.User
	switch {
	case update.CallbackQuery != nil:
		if update.CallbackQuery.Message == nil {
			return nil
		}
		from = update.CallbackQuery.From
	case update.Message != nil:
		from = update.Message.From
	}
	if from == nil {
		return nil
	}

	operator, err := h.operatorService.RegisterOperator(ctx, from.ID, from.UserName, from.FirstName, from.LastName)
	if err != nil {
		logger.Error("Error getting/creating operator", "telegram_id", from.ID, "error", err)
		return fmt.Errorf("failed to get/create operator: %w", err)
	}

	if update.CallbackQuery != nil {
		return h.callbackHandler.Handle(ctx, update.CallbackQuery, operator)
	}

	if update.Message.IsCommand() {
		return h.commandHandler.Handle(ctx, update.Message, operator)
	}

	if update.Message.Text != "" {
		return h.textHandler.Handle(ctx, update.Message, operator)
	}

	return nil
}
