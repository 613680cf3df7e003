package router

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdeck/taskdeck/internal/apitest"
	"github.com/taskdeck/taskdeck/internal/cli/client"
	"github.com/taskdeck/taskdeck/internal/session"
)

func newTestRouter(t *testing.T) (*Router, *session.Store, *apitest.Server) {
	t.Helper()
	srv := apitest.New(t, map[string]string{"alice": "secret"})
	c, err := client.New(client.Options{BaseURL: srv.URL, Timeout: 5 * time.Second})
	require.NoError(t, err)

	store := session.NewStore(c, zerolog.Nop())
	guard := NewGuard(store, zerolog.Nop())
	return New(DefaultTable(), guard, zerolog.Nop()), store, srv
}

func TestNavigate_Anonymous(t *testing.T) {
	r, _, srv := newTestRouter(t)
	ctx := context.Background()

	tests := []struct {
		path      string
		want      string
		redirects []string
	}{
		{"/", Landing, nil},
		{"/app", Login, []string{Login}},
		{"/login", Login, nil},
		{"/does/not/exist", NotFound, nil},
	}
	for _, tt := range tests {
		nav, err := r.Navigate(ctx, tt.path)
		require.NoError(t, err, tt.path)
		assert.Equal(t, tt.want, nav.To.Name, tt.path)
		assert.Equal(t, tt.redirects, nav.Redirects, tt.path)
		assert.Equal(t, tt.path, nav.Requested)
	}

	assert.Equal(t, 1, srv.Hits(http.MethodGet, "/auth/status"))
	assert.Equal(t, NotFound, r.Current().Name)
}

func TestNavigate_LoggedIn(t *testing.T) {
	r, store, _ := newTestRouter(t)
	ctx := context.Background()
	require.True(t, store.Login(ctx, session.Credentials{Username: "alice", Password: "secret"}).OK())

	nav, err := r.Navigate(ctx, "/login")
	require.NoError(t, err)
	assert.Equal(t, Home, nav.To.Name)
	assert.True(t, nav.Redirected())

	nav, err = r.Navigate(ctx, "/app")
	require.NoError(t, err)
	assert.Equal(t, Home, nav.To.Name)
	assert.False(t, nav.Redirected())
	assert.Equal(t, Home, nav.From.Name)
}

func TestNavigate_FirstNavigationRestoresServerSession(t *testing.T) {
	srv := apitest.New(t, map[string]string{"alice": "secret"})
	ctx := context.Background()

	// a previous run logged in; its cookies carry the session
	previous, err := client.New(client.Options{BaseURL: srv.URL})
	require.NoError(t, err)
	require.NoError(t, previous.Login(ctx, client.LoginRequest{Username: "alice", Password: "secret"}))

	c, err := client.New(client.Options{BaseURL: srv.URL})
	require.NoError(t, err)
	c.SetCookies(previous.Cookies())

	store := session.NewStore(c, zerolog.Nop())
	r := New(DefaultTable(), NewGuard(store, zerolog.Nop()), zerolog.Nop())
	require.False(t, store.LoggedIn())

	nav, err := r.Navigate(ctx, "/app")
	require.NoError(t, err)
	assert.Equal(t, Home, nav.To.Name)
	assert.Equal(t, "alice", store.Snapshot().User)
	assert.False(t, store.Snapshot().FirstCheck)
}

func TestNavigate_StatusFailureTreatedAsLoggedOut(t *testing.T) {
	r, store, srv := newTestRouter(t)
	srv.Override(http.MethodGet, "/auth/status", http.StatusServiceUnavailable)

	nav, err := r.Navigate(context.Background(), "/app")

	require.NoError(t, err)
	assert.Equal(t, Login, nav.To.Name)
	assert.Equal(t, Ready, r.Guard().State())
	assert.False(t, store.LoggedIn())
}

func TestNavigateTo(t *testing.T) {
	r, _, _ := newTestRouter(t)

	nav, err := r.NavigateTo(context.Background(), Home)
	require.NoError(t, err)
	assert.Equal(t, Login, nav.To.Name)
	assert.Equal(t, "/app", nav.Requested)

	_, err = r.NavigateTo(context.Background(), "settings")
	assert.Error(t, err)
}

func TestNavigate_RedirectLoopIsBounded(t *testing.T) {
	sess := newFakeSession(session.StatusResult{})
	close(sess.release)

	// a login route that itself requires auth redirects to itself forever
	table := NewTable([]Route{
		{Name: Login, Path: "/a", Meta: Meta{RequiresAuth: true}},
	}, DefaultFallback)
	r := New(table, NewGuard(sess, zerolog.Nop()), zerolog.Nop())

	_, err := r.Navigate(context.Background(), "/a")
	assert.ErrorIs(t, err, ErrTooManyRedirects)
}
