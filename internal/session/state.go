// ABOUTME: Session lifecycle states and the snapshot handed to readers
// ABOUTME: A snapshot pairs the state with a copy of the user under one lock

package session

import "github.com/adeebazad/react-homoeo/internal/models"

// State is a node of the session state machine
type State int

const (
	Uninitialized State = iota
	Checking
	Authenticated
	Anonymous
)

// String returns the string representation of a State
func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Checking:
		return "checking"
	case Authenticated:
		return "authenticated"
	case Anonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

// Snapshot is a consistent view of the session at one instant
type Snapshot struct {
	State State
	// User is non-nil only when State is Authenticated
	User *models.User
}

// Authenticated reports whether a user is logged in
func (s Snapshot) Authenticated() bool {
	return s.State == Authenticated && s.User != nil
}

// Role returns the logged-in user's role, or "" when anonymous
func (s Snapshot) Role() models.Role {
	if !s.Authenticated() {
		return ""
	}
	return s.User.Role
}
