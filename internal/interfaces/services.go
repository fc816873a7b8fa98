package interfaces

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vladimiradmaev/vitalz-dashboard/internal/dashboard"
	"github.com/vladimiradmaev/vitalz-dashboard/internal/database"
	"github.com/vladimiradmaev/vitalz-dashboard/internal/services"
)

// BotAPI is the part of *tgbotapi.BotAPI the handlers use
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// OperatorServiceInterface defines the contract for operator operations
type OperatorServiceInterface interface {
	RegisterOperator(ctx context.Context, telegramID int64, username, firstName, lastName string) (*database.Operator, error)
	RecordSelection(ctx context.Context, telegramID int64, email string) error
	LastSelection(ctx context.Context, telegramID int64) (string, bool, error)
}

// DashboardServiceInterface defines the contract for dashboard sessions
type DashboardServiceInterface interface {
	Start(ctx context.Context, key string) dashboard.Snapshot
	Select(ctx context.Context, key, email string, date time.Time) (dashboard.Snapshot, error)
	SelectIndex(ctx context.Context, key string, version uint64, index int, date time.Time) (dashboard.Snapshot, error)
	Clear(key string) dashboard.Snapshot
	Snapshot(key string) dashboard.Snapshot
	Forget(key string)
}

// InsightServiceInterface defines the contract for AI insights
type InsightServiceInterface interface {
	Enabled() bool
	Summarize(ctx context.Context, summary dashboard.Summary) (*services.Insight, error)
}
