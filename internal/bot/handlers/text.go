package handlers

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vladimiradmaev/vitalz-dashboard/internal/bot/state"
	"github.com/vladimiradmaev/vitalz-dashboard/internal/database"
	"github.com/vladimiradmaev/vitalz-dashboard/internal/interfaces"
)

const hintText = "Use /users to pick a user, or send a login email to open their dashboard."

// TextHandler handles text messages
type TextHandler struct {
	api          interfaces.BotAPI
	deps         Dependencies
	stateManager state.StateManager
	renderer     *DashboardRenderer
}

// NewTextHandler creates a new text handler
func NewTextHandler(api interfaces.BotAPI, deps Dependencies, stateManager state.StateManager, renderer *DashboardRenderer) *TextHandler {
	return &TextHandler{
		api:          api,
		deps:         deps,
		stateManager: stateManager,
		renderer:     renderer,
	}
}

// Handle processes a text message
func (h *TextHandler) Handle(ctx context.Context, message *tgbotapi.Message, operator *database.Operator) error {
	text := strings.TrimSpace(message.Text)

	if h.stateManager.GetUserState(operator.TelegramID) == state.WaitingForDate {
		return applyDate(ctx, h.api, h.deps, h.stateManager, h.renderer, message.Chat.ID, operator, text)
	}

	if strings.Contains(text, "@") && !strings.ContainsAny(text, " \n") {
		return h.renderer.SelectEmail(ctx, message.Chat.ID, operator, text)
	}

	_, err := h.api.Send(tgbotapi.NewMessage(message.Chat.ID, hintText))
	return err
}
