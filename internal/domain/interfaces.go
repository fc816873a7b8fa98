package domain

import (
	"context"
	"time"
)

// VitalzAPI is the remote data source the dashboard reads from
type VitalzAPI interface {
	ListUsers(ctx context.Context) ([]User, error)
	Sleep(ctx context.Context, email, deviceUserID string) ([]SleepRecord, error)
	Score(ctx context.Context, email, deviceUserID string) ([]ScoreRecord, error)
	Statistics(ctx context.Context, email, deviceUserID string, date time.Time) ([]StatisticsSample, error)
}

// BotService handles telegram bot operations
type BotService interface {
	Start(ctx context.Context) error
	Stop()
}
