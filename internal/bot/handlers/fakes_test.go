package handlers

import (
	"context"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vladimiradmaev/vitalz-dashboard/internal/bot/state"
	"github.com/vladimiradmaev/vitalz-dashboard/internal/dashboard"
	"github.com/vladimiradmaev/vitalz-dashboard/internal/database"
	"github.com/vladimiradmaev/vitalz-dashboard/internal/domain"
)

// fakeBot records everything the handlers send
type fakeBot struct {
	mu       sync.Mutex
	nextID   int
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
}

func (b *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	b.sent = append(b.sent, c)
	return tgbotapi.Message{MessageID: b.nextID}, nil
}

func (b *fakeBot) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests = append(b.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

// texts returns the text of every message and the caption of every photo
func (b *fakeBot) texts() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []string
	for _, c := range b.sent {
		switch m := c.(type) {
		case tgbotapi.MessageConfig:
			out = append(out, m.Text)
		case tgbotapi.PhotoConfig:
			out = append(out, m.Caption)
		case tgbotapi.EditMessageTextConfig:
			out = append(out, m.Text)
		}
	}
	return out
}

func (b *fakeBot) last() tgbotapi.Chattable {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.sent) == 0 {
		return nil
	}
	return b.sent[len(b.sent)-1]
}

func (b *fakeBot) photos() []tgbotapi.PhotoConfig {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []tgbotapi.PhotoConfig
	for _, c := range b.sent {
		if p, ok := c.(tgbotapi.PhotoConfig); ok {
			out = append(out, p)
		}
	}
	return out
}

func (b *fakeBot) deletes() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, c := range b.requests {
		if _, ok := c.(tgbotapi.DeleteMessageConfig); ok {
			n++
		}
	}
	return n
}

func (b *fakeBot) reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = nil
	b.requests = nil
}

// fakeOperators is an in-memory operator registry
type fakeOperators struct {
	mu         sync.Mutex
	selections map[int64]string
}

func newFakeOperators() *fakeOperators {
	return &fakeOperators{selections: make(map[int64]string)}
}

func (f *fakeOperators) RegisterOperator(ctx context.Context, telegramID int64, username, firstName, lastName string) (*database.Operator, error) {
	return &database.Operator{TelegramID: telegramID, Username: username, FirstName: firstName, LastName: lastName}, nil
}

func (f *fakeOperators) RecordSelection(ctx context.Context, telegramID int64, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.selections[telegramID] = email
	return nil
}

func (f *fakeOperators) LastSelection(ctx context.Context, telegramID int64) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	email, ok := f.selections[telegramID]
	return email, ok, nil
}

// fakeVitalz serves fixed datasets and records the statistics dates asked for
type fakeVitalz struct {
	users      []domain.User
	sleep      []domain.SleepRecord
	score      []domain.ScoreRecord
	statistics []domain.StatisticsSample
	panicSleep bool

	mu    sync.Mutex
	dates []string
}

func (f *fakeVitalz) ListUsers(ctx context.Context) ([]domain.User, error) {
	return f.users, nil
}

func (f *fakeVitalz) Sleep(ctx context.Context, email, deviceUserID string) ([]domain.SleepRecord, error) {
	if f.panicSleep {
		panic("boom")
	}
	return f.sleep, nil
}

func (f *fakeVitalz) Score(ctx context.Context, email, deviceUserID string) ([]domain.ScoreRecord, error) {
	return f.score, nil
}

func (f *fakeVitalz) Statistics(ctx context.Context, email, deviceUserID string, date time.Time) ([]domain.StatisticsSample, error) {
	f.mu.Lock()
	f.dates = append(f.dates, date.Format("2006-01-02"))
	f.mu.Unlock()
	return f.statistics, nil
}

func (f *fakeVitalz) statisticsDates() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.dates...)
}

var (
	alice = domain.User{ID: "1", LoginEmail: "a@x.com", UserName: "Alice", DeviceCompany: "Oura", DeviceUserID: "d1"}
	bob   = domain.User{ID: "2", LoginEmail: "b@x.com", UserName: "Bob", DeviceUserID: "d2"}
)

var defaultDate = time.Date(2023, 12, 17, 0, 0, 0, 0, time.UTC)

func fullVitalz() *fakeVitalz {
	return &fakeVitalz{
		users: []domain.User{alice, bob},
		sleep: []domain.SleepRecord{{
			LoginEmail: alice.LoginEmail, Deep: "3600", Light: "14400", Awake: "1800",
			TotalTimeAsleep: "19800", SleepOnset: "2023-12-16T23:10:00Z", WakeUpTime: "2023-12-17T06:40:00Z",
		}},
		score: []domain.ScoreRecord{{LoginEmail: alice.LoginEmail, Date: "2023-12-17", VitalzScore: 77, ScoreType: "Sleep"}},
		statistics: []domain.StatisticsSample{
			{Time: "00:00:00", HR: 61, HRV: 40},
			{Time: "00:05:00", HR: 58, HRV: 42},
		},
	}
}

type harness struct {
	bot       *fakeBot
	vitalz    *fakeVitalz
	operators *fakeOperators
	states    *state.Manager
	handler   *UpdateHandler
	dashboard *dashboard.Service
}

func newHarness(vitalz *fakeVitalz) *harness {
	h := &harness{
		bot:       &fakeBot{},
		vitalz:    vitalz,
		operators: newFakeOperators(),
		states:    state.NewManager(),
		dashboard: dashboard.NewService(dashboard.NewLoader(vitalz, time.Second)),
	}
	deps := Dependencies{
		OperatorSvc:  h.operators,
		DashboardSvc: h.dashboard,
		Location:     time.UTC,
		DefaultDate:  func() time.Time { return defaultDate },
	}
	h.handler = NewUpdateHandler(h.bot, deps, h.states)
	return h
}

const (
	testChatID     int64 = 42
	testTelegramID int64 = 7
)

func command(text string) tgbotapi.Update {
	name := text
	for i, r := range text {
		if r == ' ' {
			name = text[:i]
			break
		}
	}
	return tgbotapi.Update{Message: &tgbotapi.Message{
		Text:     text,
		Chat:     &tgbotapi.Chat{ID: testChatID},
		From:     &tgbotapi.User{ID: testTelegramID, UserName: "op"},
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(name)}},
	}}
}

func textMessage(text string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		Text: text,
		Chat: &tgbotapi.Chat{ID: testChatID},
		From: &tgbotapi.User{ID: testTelegramID},
	}}
}

func callback(data string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:   "cb",
		From: &tgbotapi.User{ID: testTelegramID},
		Data: data,
		Message: &tgbotapi.Message{
			MessageID: 100,
			Chat:      &tgbotapi.Chat{ID: testChatID},
		},
	}}
}
