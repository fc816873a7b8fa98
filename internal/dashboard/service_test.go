package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vladimiradmaev/vitalz-dashboard/internal/domain"
	apperrors "github.com/vladimiradmaev/vitalz-dashboard/internal/errors"
)

func TestServiceSelectLoadsDashboard(t *testing.T) {
	api := &fakeAPI{
		users: []domain.User{alice, bob},
		sleep: []domain.SleepRecord{{Deep: "100", Light: "300", Awake: "50", TotalTimeAsleep: "27000"}},
		score: []domain.ScoreRecord{{VitalzScore: 77, ScoreType: "Sleep"}},
	}
	svc := NewService(NewLoader(api, time.Second))
	ctx := context.Background()

	snap := svc.Start(ctx, "chat-1")
	assert.IsType(t, NoSelection{}, snap.State)
	assert.Len(t, snap.Users, 2)

	snap, err := svc.Select(ctx, "chat-1", alice.LoginEmail, statsDate)
	require.NoError(t, err)
	loaded, ok := snap.State.(Loaded)
	require.True(t, ok)
	assert.Equal(t, alice, loaded.User)

	summary := Summarize(snap, time.UTC)
	require.NotNil(t, summary.Sleep)
	assert.Equal(t, 8, summary.Sleep.TotalHours)
	require.NotNil(t, summary.Score)
	assert.Equal(t, 77.0, summary.Score.Value)
	assert.Nil(t, summary.HeartRate)
}

func TestServiceEmptyUserList(t *testing.T) {
	svc := NewService(NewLoader(&fakeAPI{usersErr: errors.New("offline")}, time.Second))
	snap := svc.Start(context.Background(), "chat-1")
	assert.Equal(t, NoUsersNotice, snap.Notice)
	assert.Empty(t, snap.Users)
}

func TestServiceEmptyDatasets(t *testing.T) {
	svc := NewService(NewLoader(&fakeAPI{users: []domain.User{alice}}, time.Second))
	ctx := context.Background()
	svc.Start(ctx, "chat-1")

	snap, err := svc.SelectIndex(ctx, "chat-1", svc.Snapshot("chat-1").ListVersion, 0, statsDate)
	require.NoError(t, err)
	assert.IsType(t, LoadedEmpty{}, snap.State)
	assert.Equal(t, NoDataNotice, Summarize(snap, time.UTC).Notice)
}

func TestServiceJoinFailure(t *testing.T) {
	api := &fakeAPI{
		users: []domain.User{alice},
		hook: func(ctx context.Context, endpoint string) error {
			if endpoint == DatasetStatistics {
				panic("kaboom")
			}
			return nil
		},
	}
	svc := NewService(NewLoader(api, time.Second))
	ctx := context.Background()
	svc.Start(ctx, "chat-1")

	snap, err := svc.Select(ctx, "chat-1", alice.LoginEmail, statsDate)
	require.NoError(t, err)
	st, ok := snap.State.(LoadError)
	require.True(t, ok)
	assert.Equal(t, "Failed to fetch user data: statistics fetch panicked: kaboom", st.Message)
}

func TestLoadErrorClassification(t *testing.T) {
	joinErr := loadError(errors.New("statistics fetch panicked: kaboom"))
	assert.ErrorIs(t, joinErr, apperrors.ErrJoinFailed)
	assert.NotErrorIs(t, joinErr, apperrors.ErrTimeout)

	api := &fakeAPI{
		hook: func(ctx context.Context, endpoint string) error {
			<-ctx.Done()
			return ctx.Err()
		},
	}
	_, err := NewLoader(api, 20*time.Millisecond).Load(context.Background(), alice, statsDate)
	require.Error(t, err)

	timeoutErr := loadError(err)
	assert.ErrorIs(t, timeoutErr, apperrors.ErrTimeout)
	assert.ErrorIs(t, timeoutErr, context.DeadlineExceeded)
	assert.NotErrorIs(t, timeoutErr, apperrors.ErrJoinFailed)
	assert.Equal(t, "load", timeoutErr.Context["operation"])
}

func TestServiceJoinTimeout(t *testing.T) {
	api := &fakeAPI{
		users: []domain.User{alice},
		hook: func(ctx context.Context, endpoint string) error {
			<-ctx.Done()
			return ctx.Err()
		},
	}
	svc := NewService(NewLoader(api, 20*time.Millisecond))
	ctx := context.Background()
	svc.Start(ctx, "chat-1")

	snap, err := svc.Select(ctx, "chat-1", alice.LoginEmail, statsDate)
	require.NoError(t, err)
	st, ok := snap.State.(LoadError)
	require.True(t, ok)
	assert.Contains(t, st.Message, LoadErrorPrefix+"fetch interrupted")
}

func TestServiceUnknownUser(t *testing.T) {
	svc := NewService(NewLoader(&fakeAPI{users: []domain.User{alice}}, time.Second))
	ctx := context.Background()
	svc.Start(ctx, "chat-1")

	snap, err := svc.Select(ctx, "chat-1", "ghost@x.com", statsDate)
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
	assert.IsType(t, NoSelection{}, snap.State)
}

func TestServiceClearDiscardsInFlightLoad(t *testing.T) {
	entered := make(chan struct{}, 3)
	release := make(chan struct{})
	api := &fakeAPI{
		users: []domain.User{alice},
		sleep: []domain.SleepRecord{{Deep: "1"}},
		hook: func(ctx context.Context, endpoint string) error {
			entered <- struct{}{}
			<-release
			return nil
		},
	}
	svc := NewService(NewLoader(api, 5*time.Second))
	ctx := context.Background()
	svc.Start(ctx, "chat-1")

	type result struct {
		snap Snapshot
		err  error
	}
	done := make(chan result, 1)
	go func() {
		snap, err := svc.Select(ctx, "chat-1", alice.LoginEmail, statsDate)
		done <- result{snap, err}
	}()

	<-entered
	cleared := svc.Clear("chat-1")
	assert.IsType(t, NoSelection{}, cleared.State)
	close(release)

	res := <-done
	assert.ErrorIs(t, res.err, ErrSuperseded)
	assert.IsType(t, NoSelection{}, res.snap.State)
	assert.IsType(t, NoSelection{}, svc.Snapshot("chat-1").State)
}

func TestServiceSessionsAreIndependent(t *testing.T) {
	svc := NewService(NewLoader(&fakeAPI{users: []domain.User{alice}}, time.Second))
	ctx := context.Background()
	svc.Start(ctx, "chat-1")

	_, err := svc.Select(ctx, "chat-2", alice.LoginEmail, statsDate)
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)

	svc.Forget("chat-1")
	assert.Empty(t, svc.Snapshot("chat-1").Users)
}
