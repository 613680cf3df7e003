package router

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/taskdeck/taskdeck/internal/session"
)

// Session is what the guard needs from the session store
type Session interface {
	BeginFirstCheck() bool
	CheckStatus(ctx context.Context) session.StatusResult
	LoggedIn() bool
}

// GuardState tracks the one-time status check
type GuardState int

const (
	Uninitialized GuardState = iota
	Checking
	Ready
)

func (s GuardState) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Checking:
		return "checking"
	case Ready:
		return "ready"
	default:
		return "unknown"
	}
}

// Guard runs before every transition. The first transition triggers a
// session status check and every transition waits until it has resolved.
type Guard struct {
	sess Session
	log  zerolog.Logger

	mu    sync.Mutex
	state GuardState
	ready chan struct{}
}

// NewGuard creates a guard in the Uninitialized state
func NewGuard(sess Session, log zerolog.Logger) *Guard {
	return &Guard{
		sess:  sess,
		log:   log.With().Str("component", "guard").Logger(),
		ready: make(chan struct{}),
	}
}

// State returns the current gating state
func (g *Guard) State() GuardState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Before decides the transition from -> to. It only fails when ctx ends
// while the first status check is still pending; the check itself keeps
// running and later transitions still wait for it.
func (g *Guard) Before(ctx context.Context, to, from Route) (Decision, error) {
	g.mu.Lock()
	if g.state == Uninitialized {
		g.state = Checking
		g.start(ctx)
	}
	g.mu.Unlock()

	select {
	case <-g.ready:
	case <-ctx.Done():
		return Decision{}, ctx.Err()
	}

	d := Decide(g.sess.LoggedIn(), to.Meta)
	g.log.Debug().
		Str("from", from.Name).
		Str("to", to.Name).
		Str("decision", d.String()).
		Msg("Route guarded")
	return d, nil
}

// start launches the status check. Called with g.mu held.
func (g *Guard) start(ctx context.Context) {
	if !g.sess.BeginFirstCheck() {
		// someone else already checked this session
		g.markReady()
		return
	}

	checkCtx := context.WithoutCancel(ctx)
	go func() {
		res := g.sess.CheckStatus(checkCtx)
		if res.Err != nil {
			g.log.Debug().Err(res.Err).Msg("First status check failed, continuing as-is")
		}

		g.mu.Lock()
		g.markReady()
		g.mu.Unlock()
	}()
}

// markReady must be called with g.mu held
func (g *Guard) markReady() {
	g.state = Ready
	close(g.ready)
}
