package bot

import (
	"context"
	"fmt"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vladimiradmaev/vitalz-dashboard/internal/bot/handlers"
	"github.com/vladimiradmaev/vitalz-dashboard/internal/bot/state"
	"github.com/vladimiradmaev/vitalz-dashboard/internal/domain"
	"github.com/vladimiradmaev/vitalz-dashboard/internal/interfaces"
	"github.com/vladimiradmaev/vitalz-dashboard/internal/logger"
)

var _ domain.BotService = (*Bot)(nil)

// client is the part of *tgbotapi.BotAPI the bot needs
type client interface {
	interfaces.BotAPI
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

var commands = []tgbotapi.BotCommand{
	{Command: "start", Description: "Show the user list"},
	{Command: "users", Description: "Reload the user list"},
	{Command: "date", Description: "Set the statistics date"},
	{Command: "clear", Description: "Clear the current selection"},
	{Command: "help", Description: "Show help"},
}

// Bot represents the telegram bot
type Bot struct {
	api           client
	updateHandler *handlers.UpdateHandler
	wg            sync.WaitGroup
}

// NewBot creates a new bot instance
func NewBot(token string, deps handlers.Dependencies, stateManager state.StateManager) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	logger.Info("Bot authorized", "account", api.Self.UserName)
	return newBot(api, deps, stateManager), nil
}

func newBot(api client, deps handlers.Dependencies, stateManager state.StateManager) *Bot {
	return &Bot{
		api:           api,
		updateHandler: handlers.NewUpdateHandler(api, deps, stateManager),
	}
}

// Start listens for updates until ctx is done. Each update is handled in
// its own goroutine so a slow dashboard load does not block other chats.
func (b *Bot) Start(ctx context.Context) error {
	if _, err := b.api.Request(tgbotapi.NewSetMyCommands(commands...)); err != nil {
		logger.Warn("Failed to register bot commands", "error", err)
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	logger.Info("Bot is now listening for updates")

	for {
		select {
		case <-ctx.Done():
			logger.Info("Bot is shutting down")
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.wg.Add(1)
			go func(update tgbotapi.Update) {
				defer b.wg.Done()
				b.handle(ctx, update)
			}(update)
		}
	}
}

func (b *Bot) handle(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Panic while handling update", "update_id", update.UpdateID, "panic", r)
		}
	}()

	if update.Message != nil && update.Message.From != nil {
		logger.Debug("Received message", "telegram_id", update.Message.From.ID, "text", update.Message.Text)
	}
	if err := b.updateHandler.Handle(ctx, update); err != nil {
		logger.Error("Error handling update", "update_id", update.UpdateID, "error", err)
	}
}

// Stop stops polling and waits for in-flight updates
func (b *Bot) Stop() {
	b.api.StopReceivingUpdates()
	b.wg.Wait()
}
