package router

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// maxRedirects bounds the redirect chain of one navigation
const maxRedirects = 5

// ErrTooManyRedirects is returned when guards keep redirecting
var ErrTooManyRedirects = errors.New("too many redirects")

// Navigation describes a completed transition
type Navigation struct {
	// Requested is the path that was asked for
	Requested string
	From      Route
	To        Route
	// Redirects lists the route names the guard sent the navigation through
	Redirects []string
}

// Redirected reports whether the navigation ended somewhere else than asked
func (n Navigation) Redirected() bool {
	return len(n.Redirects) > 0
}

// Router guards and records navigation between routes
type Router struct {
	table *Table
	guard *Guard
	log   zerolog.Logger

	mu      sync.Mutex
	current Route
}

// New creates a router positioned before any route
func New(table *Table, guard *Guard, log zerolog.Logger) *Router {
	return &Router{
		table: table,
		guard: guard,
		log:   log.With().Str("component", "router").Logger(),
	}
}

// Current returns the route of the last completed navigation
func (r *Router) Current() Route {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Table returns the route table
func (r *Router) Table() *Table {
	return r.table
}

// Guard returns the navigation guard
func (r *Router) Guard() *Guard {
	return r.guard
}

// Navigate resolves path, runs the guard and follows its redirects
func (r *Router) Navigate(ctx context.Context, path string) (Navigation, error) {
	return r.navigate(ctx, path, r.table.Match(path))
}

// NavigateTo is Navigate by route name
func (r *Router) NavigateTo(ctx context.Context, name string) (Navigation, error) {
	to, ok := r.table.ByName(name)
	if !ok {
		return Navigation{}, fmt.Errorf("unknown route %q", name)
	}
	return r.navigate(ctx, to.Path, to)
}

func (r *Router) navigate(ctx context.Context, requested string, to Route) (Navigation, error) {
	nav := Navigation{Requested: requested, From: r.Current()}

	for {
		d, err := r.guard.Before(ctx, to, nav.From)
		if err != nil {
			return nav, fmt.Errorf("navigation to %s cancelled: %w", requested, err)
		}
		if d.Allowed() {
			break
		}

		if len(nav.Redirects) == maxRedirects {
			return nav, fmt.Errorf("navigation to %s: %w", requested, ErrTooManyRedirects)
		}
		next, ok := r.table.ByName(d.Redirect)
		if !ok {
			return nav, fmt.Errorf("navigation to %s: redirect to unknown route %q", requested, d.Redirect)
		}
		nav.Redirects = append(nav.Redirects, next.Name)
		to = next
	}

	nav.To = to
	r.mu.Lock()
	r.current = to
	r.mu.Unlock()

	r.log.Debug().
		Str("requested", requested).
		Str("route", to.Name).
		Strs("redirects", nav.Redirects).
		Msg("Navigated")
	return nav, nil
}
