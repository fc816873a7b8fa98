package handlers

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vladimiradmaev/vitalz-dashboard/internal/bot/keyboards"
	"github.com/vladimiradmaev/vitalz-dashboard/internal/bot/menus"
	"github.com/vladimiradmaev/vitalz-dashboard/internal/bot/state"
	"github.com/vladimiradmaev/vitalz-dashboard/internal/database"
	"github.com/vladimiradmaev/vitalz-dashboard/internal/interfaces"
	"github.com/vladimiradmaev/vitalz-dashboard/internal/logger"
	"github.com/vladimiradmaev/vitalz-dashboard/internal/utils"
)

const (
	datePromptText     = "📅 Send the statistics date as YYYY-MM-DD."
	invalidDateText    = "❌ Invalid date. Use the YYYY-MM-DD format, for example 2023-12-17."
	dateCanceledText   = "Date input canceled."
	clearedText        = "Selection cleared."
	unknownCommandText = "Unknown command. Use /help to see the available commands."
)

// CommandHandler handles bot commands
type CommandHandler struct {
	api          interfaces.BotAPI
	deps         Dependencies
	stateManager state.StateManager
	renderer     *DashboardRenderer
}

// NewCommandHandler creates a new command handler
func NewCommandHandler(api interfaces.BotAPI, deps Dependencies, stateManager state.StateManager, renderer *DashboardRenderer) *CommandHandler {
	return &CommandHandler{
		api:          api,
		deps:         deps,
		stateManager: stateManager,
		renderer:     renderer,
	}
}

// Handle processes a command message
func (h *CommandHandler) Handle(ctx context.Context, message *tgbotapi.Message, operator *database.Operator) error {
	logger.Info("Handling command", "command", message.Command(), "telegram_id", operator.TelegramID)

	chatID := message.Chat.ID
	switch message.Command() {
	case "start":
		h.stateManager.SetUserState(operator.TelegramID, state.None)
		return h.renderer.ShowUsers(ctx, chatID, operator, false)
	case "users":
		h.stateManager.SetUserState(operator.TelegramID, state.None)
		return h.renderer.ShowUsers(ctx, chatID, operator, true)
	case "date":
		return h.handleDate(ctx, chatID, operator, message.CommandArguments())
	case "clear":
		h.deps.DashboardSvc.Clear(sessionKey(chatID))
		return h.send(tgbotapi.NewMessage(chatID, clearedText))
	case "help":
		return menus.SendHelp(h.api, chatID)
	default:
		return h.send(tgbotapi.NewMessage(chatID, unknownCommandText))
	}
}

func (h *CommandHandler) handleDate(ctx context.Context, chatID int64, operator *database.Operator, args string) error {
	args = strings.TrimSpace(args)
	if args == "" {
		h.stateManager.SetUserState(operator.TelegramID, state.WaitingForDate)
		msg := tgbotapi.NewMessage(chatID, datePromptText)
		msg.ReplyMarkup = keyboards.Cancel()
		return h.send(msg)
	}
	return applyDate(ctx, h.api, h.deps, h.stateManager, h.renderer, chatID, operator, args)
}

func (h *CommandHandler) send(msg tgbotapi.MessageConfig) error {
	_, err := h.api.Send(msg)
	return err
}

// applyDate stores a statistics date typed by the operator and reloads the
// current selection for it
func applyDate(ctx context.Context, api interfaces.BotAPI, deps Dependencies, stateManager state.StateManager, renderer *DashboardRenderer, chatID int64, operator *database.Operator, raw string) error {
	date, err := utils.ParseDate(raw, deps.Location)
	if err != nil {
		_, sendErr := api.Send(tgbotapi.NewMessage(chatID, invalidDateText))
		return sendErr
	}

	stateManager.SetTempData(operator.TelegramID, state.KeyStatisticsDate, utils.FormatDate(date))
	stateManager.SetUserState(operator.TelegramID, state.None)

	if _, err := api.Send(tgbotapi.NewMessage(chatID, "📅 Statistics date set to "+utils.FormatDate(date))); err != nil {
		return err
	}

	snap := deps.DashboardSvc.Snapshot(sessionKey(chatID))
	if user, ok := dashboardUser(snap); ok {
		return renderer.SelectEmail(ctx, chatID, operator, user)
	}
	return nil
}
