package dashboard

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/vladimiradmaev/vitalz-dashboard/internal/domain"
)

type apiCall struct {
	Endpoint     string
	Email        string
	DeviceUserID string
	Date         string
}

// fakeAPI is an in-memory VitalzAPI. hook, when set, runs at the start of
// every per-user call and may block or fail it.
type fakeAPI struct {
	users      []domain.User
	usersErr   error
	sleep      []domain.SleepRecord
	sleepErr   error
	score      []domain.ScoreRecord
	scoreErr   error
	statistics []domain.StatisticsSample
	statsErr   error
	hook       func(ctx context.Context, endpoint string) error

	mu    sync.Mutex
	calls []apiCall
}

func (f *fakeAPI) record(c apiCall) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
}

func (f *fakeAPI) recorded() []apiCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]apiCall(nil), f.calls...)
}

func (f *fakeAPI) runHook(ctx context.Context, endpoint string) error {
	if f.hook == nil {
		return nil
	}
	return f.hook(ctx, endpoint)
}

func (f *fakeAPI) ListUsers(ctx context.Context) ([]domain.User, error) {
	f.record(apiCall{Endpoint: "users"})
	return f.users, f.usersErr
}

func (f *fakeAPI) Sleep(ctx context.Context, email, deviceUserID string) ([]domain.SleepRecord, error) {
	f.record(apiCall{Endpoint: DatasetSleep, Email: email, DeviceUserID: deviceUserID})
	if err := f.runHook(ctx, DatasetSleep); err != nil {
		return nil, err
	}
	return f.sleep, f.sleepErr
}

func (f *fakeAPI) Score(ctx context.Context, email, deviceUserID string) ([]domain.ScoreRecord, error) {
	f.record(apiCall{Endpoint: DatasetScore, Email: email, DeviceUserID: deviceUserID})
	if err := f.runHook(ctx, DatasetScore); err != nil {
		return nil, err
	}
	return f.score, f.scoreErr
}

func (f *fakeAPI) Statistics(ctx context.Context, email, deviceUserID string, date time.Time) ([]domain.StatisticsSample, error) {
	f.record(apiCall{Endpoint: DatasetStatistics, Email: email, DeviceUserID: deviceUserID, Date: date.Format("2006-01-02")})
	if err := f.runHook(ctx, DatasetStatistics); err != nil {
		return nil, err
	}
	return f.statistics, f.statsErr
}

// barrier returns a hook that only lets calls through once n of them are
// in flight at the same time.
func barrier(n int) func(context.Context, string) error {
	var wg sync.WaitGroup
	wg.Add(n)
	released := make(chan struct{})
	go func() {
		wg.Wait()
		close(released)
	}()

	return func(ctx context.Context, _ string) error {
		wg.Done()
		select {
		case <-released:
			return nil
		case <-time.After(2 * time.Second):
			return errors.New("fetches did not run concurrently")
		}
	}
}

var alice = domain.User{
	ID:            "1",
	LoginEmail:    "a@x.com",
	UserName:      "Alice",
	DeviceCompany: "Oura",
	DeviceUserID:  "d1",
}

var bob = domain.User{
	ID:           "2",
	LoginEmail:   "b@x.com",
	UserName:     "Bob",
	DeviceUserID: "d2",
}

var statsDate = time.Date(2023, 12, 17, 0, 0, 0, 0, time.UTC)
