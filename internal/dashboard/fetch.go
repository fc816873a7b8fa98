package dashboard

import (
	"context"
	"time"

	"github.com/vladimiradmaev/vitalz-dashboard/internal/domain"
	apperrors "github.com/vladimiradmaev/vitalz-dashboard/internal/errors"
	"github.com/vladimiradmaev/vitalz-dashboard/internal/logger"
)

// Dataset names, used in logs and in failure reports.
const (
	DatasetUsers      = "users"
	DatasetSleep      = "sleep"
	DatasetScore      = "score"
	DatasetStatistics = "statistics"
)

// Dataset is the outcome of one fetch. A failed fetch has no items and a
// non-nil Err, so "empty" and "failed" stay distinguishable.
type Dataset[T any] struct {
	Items []T
	Err   error
}

// Empty reports whether the fetch produced no items, for whatever reason
func (d Dataset[T]) Empty() bool {
	return len(d.Items) == 0
}

// Failed reports whether the fetch failed
func (d Dataset[T]) Failed() bool {
	return d.Err != nil
}

// First returns the first item; only the first record is ever displayed.
func (d Dataset[T]) First() (T, bool) {
	var zero T
	if len(d.Items) == 0 {
		return zero, false
	}
	return d.Items[0], true
}

// Data holds the three per-user datasets of one load
type Data struct {
	Sleep      Dataset[domain.SleepRecord]
	Score      Dataset[domain.ScoreRecord]
	Statistics Dataset[domain.StatisticsSample]
	Date       time.Time
}

// Empty reports whether all three datasets came back without items
func (d Data) Empty() bool {
	return d.Sleep.Empty() && d.Score.Empty() && d.Statistics.Empty()
}

// Failures maps dataset names to the fetch errors that emptied them
func (d Data) Failures() map[string]error {
	failures := make(map[string]error)
	if d.Sleep.Failed() {
		failures[DatasetSleep] = d.Sleep.Err
	}
	if d.Score.Failed() {
		failures[DatasetScore] = d.Score.Err
	}
	if d.Statistics.Failed() {
		failures[DatasetStatistics] = d.Statistics.Err
	}
	return failures
}

// fetchDataset runs one API call and degrades any error into an empty,
// failure-tagged dataset.
func fetchDataset[T any](ctx context.Context, name, email string, call func(context.Context) ([]T, error)) Dataset[T] {
	items, err := call(ctx)
	if err != nil {
		logger.Warn("Fetch failed, continuing with empty dataset",
			"dataset", name,
			"login_email", email,
			"error", err,
		)
		return Dataset[T]{Items: []T{}, Err: apperrors.NewExternalAPIError(err, name)}
	}
	if items == nil {
		items = []T{}
	}
	return Dataset[T]{Items: items}
}

func fetchUsers(ctx context.Context, api domain.VitalzAPI) Dataset[domain.User] {
	return fetchDataset(ctx, DatasetUsers, "", api.ListUsers)
}

func fetchSleep(ctx context.Context, api domain.VitalzAPI, user domain.User) Dataset[domain.SleepRecord] {
	return fetchDataset(ctx, DatasetSleep, user.LoginEmail, func(ctx context.Context) ([]domain.SleepRecord, error) {
		return api.Sleep(ctx, user.LoginEmail, user.DeviceUserID)
	})
}

func fetchScore(ctx context.Context, api domain.VitalzAPI, user domain.User) Dataset[domain.ScoreRecord] {
	return fetchDataset(ctx, DatasetScore, user.LoginEmail, func(ctx context.Context) ([]domain.ScoreRecord, error) {
		return api.Score(ctx, user.LoginEmail, user.DeviceUserID)
	})
}

func fetchStatistics(ctx context.Context, api domain.VitalzAPI, user domain.User, date time.Time) Dataset[domain.StatisticsSample] {
	return fetchDataset(ctx, DatasetStatistics, user.LoginEmail, func(ctx context.Context) ([]domain.StatisticsSample, error) {
		return api.Statistics(ctx, user.LoginEmail, user.DeviceUserID, date)
	})
}
