package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vladimiradmaev/vitalz-dashboard/internal/domain"
	apperrors "github.com/vladimiradmaev/vitalz-dashboard/internal/errors"
	"github.com/vladimiradmaev/vitalz-dashboard/internal/logger"
	"golang.org/x/sync/errgroup"
)

// Loader runs the per-user fan-out/fan-in fetch
type Loader struct {
	api         domain.VitalzAPI
	joinTimeout time.Duration
}

// NewLoader creates a loader. A zero joinTimeout means no bound beyond ctx.
func NewLoader(api domain.VitalzAPI, joinTimeout time.Duration) *Loader {
	return &Loader{api: api, joinTimeout: joinTimeout}
}

// Users fetches the user list
func (l *Loader) Users(ctx context.Context) Dataset[domain.User] {
	return fetchUsers(ctx, l.api)
}

// Load fetches sleep, score and statistics concurrently and returns once
// all three have finished. Fetch failures are reported inside Data; the
// returned error is reserved for failures of the join itself.
func (l *Loader) Load(ctx context.Context, user domain.User, date time.Time) (Data, error) {
	if user.LoginEmail == "" {
		return Data{}, apperrors.NewMissingLoginEmailError(user.ID)
	}

	if l.joinTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.joinTimeout)
		defer cancel()
	}

	log := logger.WithFields("load_id", uuid.NewString(), "login_email", user.LoginEmail)
	started := time.Now()
	log.Debug("Loading user datasets", "device_user_id", user.DeviceUserID, "date", date.Format("2006-01-02"))

	data := Data{Date: date}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(guarded(DatasetSleep, func() {
		data.Sleep = fetchSleep(gctx, l.api, user)
	}))
	g.Go(guarded(DatasetScore, func() {
		data.Score = fetchScore(gctx, l.api, user)
	}))
	g.Go(guarded(DatasetStatistics, func() {
		data.Statistics = fetchStatistics(gctx, l.api, user, date)
	}))

	if err := g.Wait(); err != nil {
		log.Error("Parallel fetch failed", "error", err)
		return Data{}, err
	}
	if err := ctx.Err(); err != nil {
		log.Error("Parallel fetch interrupted", "error", err)
		return Data{}, fmt.Errorf("fetch interrupted: %w", err)
	}

	log.Info("User datasets loaded",
		"sleep", len(data.Sleep.Items),
		"score", len(data.Score.Items),
		"statistics", len(data.Statistics.Items),
		"failures", len(data.Failures()),
		"elapsed", time.Since(started),
	)
	return data, nil
}

// guarded turns a panic inside a fetch into an error for the group.
func guarded(name string, fn func()) func() error {
	return func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("%s fetch panicked: %v", name, r)
			}
		}()
		fn()
		return nil
	}
}
