// Package app wires one session store, one task store and the router
// around a single API client.
package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/taskdeck/taskdeck/internal/cli/client"
	"github.com/taskdeck/taskdeck/internal/router"
	"github.com/taskdeck/taskdeck/internal/session"
	"github.com/taskdeck/taskdeck/internal/tasks"
)

// App is the explicitly owned application state
type App struct {
	Session *session.Store
	Tasks   *tasks.Store
	Router  *router.Router

	client *client.Client
	log    zerolog.Logger
}

// New creates an App talking to the server behind c
func New(c *client.Client, log zerolog.Logger) *App {
	sess := session.NewStore(c, log)
	guard := router.NewGuard(sess, log)

	return &App{
		Session: sess,
		Tasks:   tasks.NewStore(c, log),
		Router:  router.New(router.DefaultTable(), guard, log),
		client:  c,
		log:     log,
	}
}

// Client returns the API client
func (a *App) Client() *client.Client {
	return a.client
}

// Open navigates to path. Reaching home loads the task list.
func (a *App) Open(ctx context.Context, path string) (router.Navigation, error) {
	nav, err := a.Router.Navigate(ctx, path)
	if err != nil {
		return nav, err
	}
	return nav, a.enter(ctx, nav)
}

func (a *App) enter(ctx context.Context, nav router.Navigation) error {
	if nav.To.Name != router.Home {
		return nil
	}
	if err := a.Tasks.Load(ctx); err != nil {
		return fmt.Errorf("failed to show tasks: %w", err)
	}
	return nil
}

// Login logs in and, on success, moves to the home screen
func (a *App) Login(ctx context.Context, cred session.Credentials) (session.LoginResult, error) {
	res := a.Session.Login(ctx, cred)
	if !res.OK() {
		return res, nil
	}

	nav, err := a.Router.NavigateTo(ctx, router.Home)
	if err != nil {
		return res, err
	}
	return res, a.enter(ctx, nav)
}

// Logout logs out and, on success, wipes the task list and moves to the
// login screen. A failed logout leaves everything as it was.
func (a *App) Logout(ctx context.Context) (session.LogoutResult, error) {
	res := a.Session.Logout(ctx)
	if !res.OK() {
		return res, nil
	}

	a.Tasks.Reset()
	_, err := a.Router.NavigateTo(ctx, router.Login)
	return res, err
}
