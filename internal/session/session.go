// Package session owns the process-wide authentication state: the token
// pair, the derived identity, and the controller that is the only writer
// of both the in-memory state and the durable credential store.
package session

import (
	"sync"

	"github.com/rodortega/calcli/internal/credentials"
)

// Status is the session lifecycle state.
type Status int

const (
	StatusAnonymous Status = iota
	StatusAuthenticating
	StatusAuthenticated
	StatusRefreshing
)

func (s Status) String() string {
	switch s {
	case StatusAnonymous:
		return "anonymous"
	case StatusAuthenticating:
		return "authenticating"
	case StatusAuthenticated:
		return "authenticated"
	case StatusRefreshing:
		return "refreshing"
	default:
		return "unknown"
	}
}

// Snapshot is one consistent view of the session. Readers always receive a
// whole snapshot; an access token from one session is never paired with a
// refresh token from another.
type Snapshot struct {
	Status         Status
	AccessToken    string
	RefreshToken   string
	OrganizationID string

	// LastError is the user-facing message of the most recent failed
	// operation, cleared by ClearError or any successful transition.
	LastError string
}

// IsAuthenticated reports whether the session holds a valid login.
func (s Snapshot) IsAuthenticated() bool {
	return s.Status == StatusAuthenticated
}

// State holds the current Snapshot. It is readable by any component but
// written only by the Controller.
type State struct {
	mu  sync.RWMutex
	cur Snapshot
}

// NewState creates session state from a persisted credential record.
// A loaded access token restores an authenticated session; anything less
// is treated as no session at all.
func NewState(rec credentials.Record) *State {
	snap := Snapshot{Status: StatusAnonymous}
	if rec.AccessToken != "" {
		snap = Snapshot{
			Status:         StatusAuthenticated,
			AccessToken:    rec.AccessToken,
			RefreshToken:   rec.RefreshToken,
			OrganizationID: rec.OrganizationID,
		}
	}
	return &State{cur: snap}
}

// Snapshot returns the current view of the session.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

// AccessToken implements gateway.TokenSource.
func (s *State) AccessToken() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur.AccessToken, s.cur.AccessToken != ""
}

// set replaces the whole snapshot atomically.
func (s *State) set(snap Snapshot) {
	s.mu.Lock()
	s.cur = snap
	s.mu.Unlock()
}

// update mutates the snapshot under the write lock.
func (s *State) update(fn func(*Snapshot)) {
	s.mu.Lock()
	fn(&s.cur)
	s.mu.Unlock()
}
