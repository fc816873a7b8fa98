package dashboard

import (
	"context"
	"errors"
	"sync"
	"time"

	apperrors "github.com/vladimiradmaev/vitalz-dashboard/internal/errors"
	"github.com/vladimiradmaev/vitalz-dashboard/internal/logger"
)

// ErrSuperseded is returned when a newer selection or a clear arrived while
// a load was in flight. The load's result has been discarded.
var ErrSuperseded = errors.New("selection superseded")

// Service keeps one Machine per session key and runs loads against it
type Service struct {
	loader   *Loader
	errs     *apperrors.Handler
	mu       sync.RWMutex
	machines map[string]*Machine
}

// NewService creates a new dashboard service
func NewService(loader *Loader) *Service {
	return &Service{
		loader:   loader,
		errs:     apperrors.NewHandler(logger.GetLogger()),
		machines: make(map[string]*Machine),
	}
}

func (s *Service) machine(key string) *Machine {
	s.mu.RLock()
	m, ok := s.machines[key]
	s.mu.RUnlock()
	if ok {
		return m
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.machines[key]; ok {
		return m
	}
	m = NewMachine()
	s.machines[key] = m
	return m
}

// Start (re)loads the user list of a session
func (s *Service) Start(ctx context.Context, key string) Snapshot {
	m := s.machine(key)
	m.BeginUserList()

	users := s.loader.Users(ctx)
	m.UsersLoaded(users.Items, users.Err)
	logger.Info("User list loaded", "session", key, "count", len(users.Items), "failed", users.Failed())
	return m.Snapshot()
}

// Select picks a user by login email and loads their datasets for date
func (s *Service) Select(ctx context.Context, key, email string, date time.Time) (Snapshot, error) {
	m := s.machine(key)
	ticket, err := m.Select(email)
	if err != nil {
		return m.Snapshot(), s.errs.LogAndReturn(ctx, err)
	}
	return s.run(ctx, key, m, ticket, date)
}

// SelectIndex picks a user by position in version of the session's user list
func (s *Service) SelectIndex(ctx context.Context, key string, version uint64, index int, date time.Time) (Snapshot, error) {
	m := s.machine(key)
	ticket, err := m.SelectIndex(version, index)
	if err != nil {
		return m.Snapshot(), s.errs.LogAndReturn(ctx, err)
	}
	return s.run(ctx, key, m, ticket, date)
}

func (s *Service) run(ctx context.Context, key string, m *Machine, ticket Ticket, date time.Time) (Snapshot, error) {
	data, err := s.loader.Load(ctx, ticket.User, date)

	var applied bool
	if err != nil {
		s.errs.Handle(ctx, loadError(err).WithContext("session", key))
		applied = m.Fail(ticket, err)
	} else {
		applied = m.Complete(ticket, data)
	}

	if !applied {
		logger.Info("Discarding stale load result", "session", key, "seq", ticket.Seq, "login_email", ticket.User.LoginEmail)
		return m.Snapshot(), ErrSuperseded
	}
	return m.Snapshot(), nil
}

// Clear drops the session's selection
func (s *Service) Clear(key string) Snapshot {
	m := s.machine(key)
	m.Clear()
	return m.Snapshot()
}

// Snapshot returns the current state of a session
func (s *Service) Snapshot(key string) Snapshot {
	return s.machine(key).Snapshot()
}

// Forget removes a session entirely
func (s *Service) Forget(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.machines, key)
}

// loadError classifies a failed join for logging. A join that ran out of
// time is a timeout; anything else is a join failure.
func loadError(err error) *apperrors.AppError {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewTimeoutError(err, "load")
	}
	return apperrors.NewJoinError(err)
}
