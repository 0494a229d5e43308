// Package feed holds the client-side feed logic the browser bundle
// mirrors: login-state synchronization, optimistic feedback mutations,
// and the cancellable paged list loader. It is framework-free so the
// behavior is testable on its own.
package feed

import "sync"

// SyncState is the bridge's view of whether the server session matches
// the provider-side login state.
type SyncState int

const (
	// SyncUnknown is the initial state before the provider has reported.
	SyncUnknown SyncState = iota
	// SyncLoggedOut means the provider reported no authenticated user.
	SyncLoggedOut
	// SyncLoggedIn means the provider reported an authenticated user.
	SyncLoggedIn
)

func (s SyncState) String() string {
	switch s {
	case SyncLoggedOut:
		return "logged_out"
	case SyncLoggedIn:
		return "logged_in"
	default:
		return "unknown"
	}
}

// SyncAction tells the caller what to post to /api/auth/sync, if anything.
type SyncAction int

const (
	// SyncNone means the server session already matches; do nothing.
	SyncNone SyncAction = iota
	// SyncLogin means the provider logged in and the server must be told.
	SyncLogin
	// SyncLogout means the provider logged out and the server must be told.
	SyncLogout
)

// Bridge decides when the client must sync its provider-side login state
// to the server session. It only reacts to transitions: repeated
// observations of the same state emit SyncNone.
type Bridge struct {
	mu sync.Mutex

	state SyncState
	// serverAuthed is what the server-rendered page reported at load time.
	// A login observed on first settle is only synced when the server did
	// not already know about it.
	serverAuthed bool
}

// NewBridge creates a bridge. serverAuthenticated is the session state
// the server rendered the page with.
func NewBridge(serverAuthenticated bool) *Bridge {
	return &Bridge{state: SyncUnknown, serverAuthed: serverAuthenticated}
}

// State returns the current bridge state.
func (b *Bridge) State() SyncState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Observe feeds one provider report into the bridge and returns the
// action the caller must take. Reports made while the provider is still
// loading are ignored.
func (b *Bridge) Observe(authenticated, loading bool) SyncAction {
	if loading {
		return SyncNone
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	prev := b.state
	if authenticated {
		b.state = SyncLoggedIn
	} else {
		b.state = SyncLoggedOut
	}
	if b.state == prev {
		return SyncNone
	}

	switch {
	case prev == SyncUnknown && authenticated && !b.serverAuthed:
		return SyncLogin
	case prev == SyncUnknown:
		// First settle agrees with the server, or an anonymous first
		// settle; nothing to reconcile.
		return SyncNone
	case authenticated:
		return SyncLogin
	default:
		return SyncLogout
	}
}
