package dashboard

import "github.com/vladimiradmaev/vitalz-dashboard/internal/domain"

// State is one of NoSelection, Loading, Loaded, LoadedEmpty or LoadError.
// The interface is sealed; no other package can add variants.
type State interface {
	Name() string
	sealed()
}

// NoSelection: no user is picked.
type NoSelection struct{}

// Loading: the user list (User == nil) or a user's datasets are in flight.
type Loading struct {
	User *domain.User
}

// Loaded: at least one dataset has items.
type Loaded struct {
	User domain.User
	Data Data
}

// LoadedEmpty: every dataset came back empty. Data still carries the fetch
// failures, if any, that caused the emptiness.
type LoadedEmpty struct {
	User domain.User
	Data Data
}

// LoadError: the parallel fetch itself failed.
type LoadError struct {
	User    domain.User
	Message string
}

func (NoSelection) Name() string { return "no_selection" }
func (Loading) Name() string     { return "loading" }
func (Loaded) Name() string      { return "loaded" }
func (LoadedEmpty) Name() string { return "loaded_empty" }
func (LoadError) Name() string   { return "load_error" }

func (NoSelection) sealed() {}
func (Loading) sealed()     {}
func (Loaded) sealed()      {}
func (LoadedEmpty) sealed() {}
func (LoadError) sealed()   {}

// SelectedUser returns the user a state refers to, if any
func SelectedUser(s State) (domain.User, bool) {
	switch st := s.(type) {
	case Loading:
		if st.User == nil {
			return domain.User{}, false
		}
		return *st.User, true
	case Loaded:
		return st.User, true
	case LoadedEmpty:
		return st.User, true
	case LoadError:
		return st.User, true
	default:
		return domain.User{}, false
	}
}

// DataOf returns the datasets held by Loaded and LoadedEmpty states
func DataOf(s State) (Data, bool) {
	switch st := s.(type) {
	case Loaded:
		return st.Data, true
	case LoadedEmpty:
		return st.Data, true
	default:
		return Data{}, false
	}
}
