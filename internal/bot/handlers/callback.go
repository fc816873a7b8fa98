package handlers

import (
	"context"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vladimiradmaev/vitalz-dashboard/internal/bot/keyboards"
	"github.com/vladimiradmaev/vitalz-dashboard/internal/bot/state"
	"github.com/vladimiradmaev/vitalz-dashboard/internal/database"
	"github.com/vladimiradmaev/vitalz-dashboard/internal/interfaces"
	"github.com/vladimiradmaev/vitalz-dashboard/internal/logger"
)

// CallbackHandler handles callback query messages
type CallbackHandler struct {
	api          interfaces.BotAPI
	deps         Dependencies
	stateManager state.StateManager
	renderer     *DashboardRenderer
}

// NewCallbackHandler creates a new callback handler
func NewCallbackHandler(api interfaces.BotAPI, deps Dependencies, stateManager state.StateManager, renderer *DashboardRenderer) *CallbackHandler {
	return &CallbackHandler{
		api:          api,
		deps:         deps,
		stateManager: stateManager,
		renderer:     renderer,
	}
}

// Handle processes a callback query
func (h *CallbackHandler) Handle(ctx context.Context, query *tgbotapi.CallbackQuery, operator *database.Operator) error {
	// Answer the callback query first
	if _, err := h.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		return err
	}

	chatID := query.Message.Chat.ID
	switch {
	case strings.HasPrefix(query.Data, keyboards.CallbackSelectPrefix):
		version, index, ok := keyboards.ParseSelectData(query.Data)
		if !ok {
			return h.unknown(query.Data)
		}
		h.stateManager.SetUserState(operator.TelegramID, state.None)
		return h.renderer.SelectIndex(ctx, chatID, operator, version, index)
	case strings.HasPrefix(query.Data, keyboards.CallbackPagePrefix):
		page, err := strconv.Atoi(strings.TrimPrefix(query.Data, keyboards.CallbackPagePrefix))
		if err != nil {
			return h.unknown(query.Data)
		}
		return h.renderer.TurnPage(ctx, chatID, query.Message.MessageID, operator, page)
	}

	switch query.Data {
	case keyboards.CallbackClear:
		h.stateManager.SetUserState(operator.TelegramID, state.None)
		h.deps.DashboardSvc.Clear(sessionKey(chatID))
		return h.renderer.ShowUsers(ctx, chatID, operator, false)
	case keyboards.CallbackCancel:
		h.stateManager.SetUserState(operator.TelegramID, state.None)
		_, err := h.api.Send(tgbotapi.NewMessage(chatID, dateCanceledText))
		return err
	case keyboards.CallbackRefresh:
		return h.renderer.Refresh(ctx, chatID, operator)
	case keyboards.CallbackDate:
		h.stateManager.SetUserState(operator.TelegramID, state.WaitingForDate)
		msg := tgbotapi.NewMessage(chatID, datePromptText)
		msg.ReplyMarkup = keyboards.Cancel()
		_, err := h.api.Send(msg)
		return err
	case keyboards.CallbackResume:
		email, ok, err := h.deps.OperatorSvc.LastSelection(ctx, operator.TelegramID)
		if err != nil {
			return err
		}
		if !ok {
			return h.renderer.ShowUsers(ctx, chatID, operator, false)
		}
		return h.renderer.SelectEmail(ctx, chatID, operator, email)
	default:
		return h.unknown(query.Data)
	}
}

func (h *CallbackHandler) unknown(data string) error {
	logger.Warn("Unknown callback data", "data", data)
	return nil
}
