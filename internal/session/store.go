// Package session holds the client-side view of the backend session: who is
// logged in, whether a login or logout is in flight, and whether the last
// login attempt was rejected.
//
// All mutations go through Store methods. Login, Logout and CheckStatus are
// serialized: a call that overlaps another waits for it, so responses are
// applied in call order and Loading is never cleared under a running request.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/taskdeck/taskdeck/internal/cli/client"
)

// AuthAPI is the part of the HTTP client the store needs
type AuthAPI interface {
	Status(ctx context.Context) (*client.UserStatus, error)
	Login(ctx context.Context, login client.LoginRequest) error
	Logout(ctx context.Context) error
}

// State is a snapshot of the session fields
type State struct {
	LoggedIn           bool
	User               string
	FirstCheck         bool
	Loading            bool
	InvalidCredentials bool
}

// Credentials are the inputs of a login attempt
type Credentials struct {
	Username string
	Password string
	// KeepSessionAlive asks the server for a long lived session
	KeepSessionAlive bool
}

// Store owns the session state
type Store struct {
	api AuthAPI
	log zerolog.Logger

	// op serializes requests that mutate the session
	op sync.Mutex

	mu      sync.RWMutex
	state   State
	subs    map[int]chan State
	nextSub int
}

// NewStore creates a logged-out store that has not checked status yet
func NewStore(api AuthAPI, log zerolog.Logger) *Store {
	return &Store{
		api:   api,
		log:   log.With().Str("component", "session").Logger(),
		state: State{FirstCheck: true},
		subs:  make(map[int]chan State),
	}
}

// Snapshot returns the current state
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// LoggedIn reports whether the session is authenticated
func (s *Store) LoggedIn() bool {
	return s.Snapshot().LoggedIn
}

// Subscribe returns a channel receiving the state after every change.
// Slow readers only see the latest state. cancel closes the channel.
func (s *Store) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 1)

	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// update applies fn under the write lock and notifies subscribers
func (s *Store) update(fn func(st *State)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.state
	fn(&s.state)
	if s.state == before {
		return
	}

	for _, ch := range s.subs {
		select {
		case ch <- s.state:
		default:
			// replace the stale value nobody read yet
			select {
			case <-ch:
			default:
			}
			ch <- s.state
		}
	}
}

// BeginFirstCheck clears FirstCheck and reports whether this call did it.
// Exactly one caller over the store's lifetime gets true.
func (s *Store) BeginFirstCheck() bool {
	first := false
	s.update(func(st *State) {
		if st.FirstCheck {
			st.FirstCheck = false
			first = true
		}
	})
	return first
}

// CheckStatus refreshes User and LoggedIn from the status endpoint.
// Failures are logged and leave the state untouched.
func (s *Store) CheckStatus(ctx context.Context) StatusResult {
	s.op.Lock()
	defer s.op.Unlock()

	status, err := s.api.Status(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to check session status")
		st := s.Snapshot()
		return StatusResult{LoggedIn: st.LoggedIn, User: st.User, Err: err}
	}

	s.update(func(st *State) {
		st.User = status.Username
		st.LoggedIn = status.LoggedIn
	})
	s.log.Debug().
		Str("user", status.Username).
		Bool("logged_in", status.LoggedIn).
		Msg("Session status checked")

	return StatusResult{LoggedIn: status.LoggedIn, User: status.Username}
}

// Login posts the credentials and records the outcome
func (s *Store) Login(ctx context.Context, cred Credentials) LoginResult {
	s.op.Lock()
	defer s.op.Unlock()

	s.update(func(st *State) { st.Loading = true })
	defer s.update(func(st *State) { st.Loading = false })

	err := s.api.Login(ctx, client.LoginRequest{
		Username:     cred.Username,
		Password:     cred.Password,
		SessionRenew: cred.KeepSessionAlive,
	})

	switch {
	case err == nil:
		s.update(func(st *State) {
			st.User = cred.Username
			st.LoggedIn = true
			st.InvalidCredentials = false
		})
		s.log.Info().Str("user", cred.Username).Msg("Logged in")
		return LoginResult{Outcome: LoginSucceeded, User: cred.Username}

	case errors.Is(err, client.ErrUnauthorized):
		s.update(func(st *State) {
			st.User = ""
			st.LoggedIn = false
			st.InvalidCredentials = true
		})
		s.log.Info().Str("user", cred.Username).Msg("Login rejected: invalid credentials")
		return LoginResult{Outcome: LoginRejected, Err: err}

	default:
		s.update(func(st *State) { st.InvalidCredentials = false })
		s.log.Error().Err(err).Str("user", cred.Username).Msg("Login failed")
		return LoginResult{Outcome: LoginFailed, Err: err}
	}
}

// Logout ends the session. On failure the client side stays logged in.
func (s *Store) Logout(ctx context.Context) LogoutResult {
	s.op.Lock()
	defer s.op.Unlock()

	s.update(func(st *State) { st.Loading = true })
	defer s.update(func(st *State) { st.Loading = false })

	if err := s.api.Logout(ctx); err != nil {
		s.log.Error().Err(err).Msg("Logout failed")
		return LogoutResult{Err: err}
	}

	user := s.Snapshot().User
	s.update(func(st *State) {
		st.User = ""
		st.LoggedIn = false
	})
	s.log.Info().Str("user", user).Msg("Logged out")
	return LogoutResult{}
}
