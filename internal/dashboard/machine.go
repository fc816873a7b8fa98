package dashboard

import (
	"sync"

	"github.com/vladimiradmaev/vitalz-dashboard/internal/domain"
	apperrors "github.com/vladimiradmaev/vitalz-dashboard/internal/errors"
)

// Notices shown to the operator.
const (
	NoUsersNotice   = "No users found or API error occurred."
	NoDataNotice    = "No data available for this user."
	LoadErrorPrefix = "Failed to fetch user data: "
)

// Ticket identifies one selection. Results are accepted only for the
// ticket of the latest selection.
type Ticket struct {
	Seq  uint64
	User domain.User
}

// Snapshot is a consistent copy of a machine. ListVersion changes every
// time the user list is reloaded.
type Snapshot struct {
	Users       []domain.User
	ListVersion uint64
	Notice      string
	State       State
	Seq         uint64
}

// Machine holds the selection state of one dashboard session
type Machine struct {
	mu          sync.Mutex
	users       []domain.User
	listVersion uint64
	notice      string
	state       State
	seq         uint64
}

// NewMachine returns a machine with no selection
func NewMachine() *Machine {
	return &Machine{state: NoSelection{}}
}

// BeginUserList drops any selection and marks the user list as loading
func (m *Machine) BeginUserList() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	m.notice = ""
	m.state = Loading{}
}

// UsersLoaded stores the user list and returns to NoSelection. An empty
// list, including one caused by a failed fetch, sets NoUsersNotice.
func (m *Machine) UsersLoaded(users []domain.User, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.users = append([]domain.User(nil), users...)
	m.listVersion++
	m.notice = ""
	if err != nil || len(users) == 0 {
		m.notice = NoUsersNotice
	}
	m.state = NoSelection{}
}

// Select picks the user with the given login email and enters Loading
func (m *Machine) Select(email string) (Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if email == "" {
		return Ticket{}, apperrors.NewMissingLoginEmailError("")
	}
	for _, u := range m.users {
		if u.LoginEmail == email {
			return m.begin(u), nil
		}
	}
	return Ticket{}, apperrors.NewUserNotFoundError(email)
}

// SelectIndex picks the user at position i of the user list with the given
// version. Indices into an older list are rejected.
func (m *Machine) SelectIndex(version uint64, i int) (Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if version != m.listVersion {
		return Ticket{}, apperrors.NewStaleUserListError(version, m.listVersion)
	}
	if i < 0 || i >= len(m.users) {
		return Ticket{}, apperrors.NewUserNotFoundError("")
	}
	u := m.users[i]
	if u.LoginEmail == "" {
		return Ticket{}, apperrors.NewMissingLoginEmailError(u.ID)
	}
	return m.begin(u), nil
}

// begin must be called with mu held.
func (m *Machine) begin(u domain.User) Ticket {
	m.seq++
	m.notice = ""
	m.state = Loading{User: &u}
	return Ticket{Seq: m.seq, User: u}
}

// Complete applies the datasets of a finished load. It returns false and
// changes nothing when the ticket is stale.
func (m *Machine) Complete(t Ticket, data Data) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.current(t) {
		return false
	}
	if data.Empty() {
		m.state = LoadedEmpty{User: t.User, Data: data}
		return true
	}
	m.state = Loaded{User: t.User, Data: data}
	return true
}

// Fail records a failed load. It returns false when the ticket is stale.
func (m *Machine) Fail(t Ticket, err error) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.current(t) {
		return false
	}
	m.state = LoadError{User: t.User, Message: LoadErrorPrefix + err.Error()}
	return true
}

func (m *Machine) current(t Ticket) bool {
	if t.Seq != m.seq {
		return false
	}
	loading, ok := m.state.(Loading)
	return ok && loading.User != nil && loading.User.LoginEmail == t.User.LoginEmail
}

// Clear drops the selection and its datasets. In-flight loads become stale.
func (m *Machine) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	m.notice = ""
	m.state = NoSelection{}
}

// Users returns a copy of the user list
func (m *Machine) Users() []domain.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.User(nil), m.users...)
}

// Snapshot returns a copy of the machine
func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		Users:       append([]domain.User(nil), m.users...),
		ListVersion: m.listVersion,
		Notice:      m.notice,
		State:       m.state,
		Seq:         m.seq,
	}
}
