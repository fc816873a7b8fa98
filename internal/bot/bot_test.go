package bot

import (
	"context"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladimiradmaev/vitalz-dashboard/internal/bot/handlers"
	"github.com/vladimiradmaev/vitalz-dashboard/internal/bot/state"
	"github.com/vladimiradmaev/vitalz-dashboard/internal/dashboard"
	"github.com/vladimiradmaev/vitalz-dashboard/internal/database"
	"github.com/vladimiradmaev/vitalz-dashboard/internal/domain"
)

type fakeClient struct {
	updates chan tgbotapi.Update

	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	stopped  bool
}

func newFakeClient() *fakeClient {
	return &fakeClient{updates: make(chan tgbotapi.Update, 10)}
}

func (c *fakeClient) Send(m tgbotapi.Chattable) (tgbotapi.Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, m)
	return tgbotapi.Message{MessageID: len(c.sent)}, nil
}

func (c *fakeClient) Request(m tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests = append(c.requests, m)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (c *fakeClient) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return c.updates
}

func (c *fakeClient) StopReceivingUpdates() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopped = true
}

func (c *fakeClient) sentCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sent)
}

type operators struct{}

func (operators) RegisterOperator(ctx context.Context, telegramID int64, username, firstName, lastName string) (*database.Operator, error) {
	return &database.Operator{TelegramID: telegramID}, nil
}

func (operators) RecordSelection(context.Context, int64, string) error { return nil }

func (operators) LastSelection(context.Context, int64) (string, bool, error) { return "", false, nil }

type users struct{}

func (users) ListUsers(context.Context) ([]domain.User, error) {
	return []domain.User{{LoginEmail: "a@x.com", UserName: "Alice"}}, nil
}

func (users) Sleep(context.Context, string, string) ([]domain.SleepRecord, error) { return nil, nil }

func (users) Score(context.Context, string, string) ([]domain.ScoreRecord, error) { return nil, nil }

func (users) Statistics(context.Context, string, string, time.Time) ([]domain.StatisticsSample, error) {
	return nil, nil
}

func TestBotHandlesUpdatesUntilCancelled(t *testing.T) {
	api := newFakeClient()
	deps := handlers.Dependencies{
		OperatorSvc:  operators{},
		DashboardSvc: dashboard.NewService(dashboard.NewLoader(users{}, time.Second)),
		Location:     time.UTC,
		DefaultDate:  func() time.Time { return time.Date(2023, 12, 17, 0, 0, 0, 0, time.UTC) },
	}
	b := newBot(api, deps, state.NewManager())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Start(ctx) }()

	api.updates <- tgbotapi.Update{UpdateID: 1, Message: &tgbotapi.Message{
		Text:     "/help",
		Chat:     &tgbotapi.Chat{ID: 1},
		From:     &tgbotapi.User{ID: 2},
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Length: 5}},
	}}

	assert.Eventually(t, func() bool { return api.sentCount() == 1 }, time.Second, 10*time.Millisecond)

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
	b.Stop()

	api.mu.Lock()
	defer api.mu.Unlock()
	assert.True(t, api.stopped)
	require.NotEmpty(t, api.requests)
	_, ok := api.requests[0].(tgbotapi.SetMyCommandsConfig)
	assert.True(t, ok)
}
