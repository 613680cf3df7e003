package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdeck/taskdeck/internal/apitest"
)

func TestNew_RequiresAbsoluteURL(t *testing.T) {
	for _, raw := range []string{"", "localhost:8085/x", "/api", "://bad"} {
		_, err := New(Options{BaseURL: raw})
		assert.Error(t, err, raw)
	}

	c, err := New(Options{BaseURL: "http://localhost:8085/"})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8085", c.BaseURL())
}

func TestPaths(t *testing.T) {
	c, err := New(Options{BaseURL: "http://example.com", AuthPath: "session/", APIPath: "/api/v1/"})
	require.NoError(t, err)

	assert.Equal(t, "http://example.com/session/login", c.authURL("login"))
	assert.Equal(t, "http://example.com/api/v1/task/a%2Fb", c.apiURL("task", "a/b"))

	c, err = New(Options{BaseURL: "http://example.com"})
	require.NoError(t, err)
	assert.Equal(t, "http://example.com/auth/status", c.authURL("status"))
	assert.Equal(t, "http://example.com/api/v0/tasks", c.apiURL("tasks"))
}

func TestSessionRoundTrip(t *testing.T) {
	srv := apitest.New(t, map[string]string{"alice": "secret"})
	c, err := New(Options{BaseURL: srv.URL, Timeout: 5 * time.Second})
	require.NoError(t, err)
	ctx := context.Background()

	st, err := c.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, &UserStatus{}, st)

	err = c.Login(ctx, LoginRequest{Username: "alice", Password: "wrong"})
	assert.ErrorIs(t, err, ErrUnauthorized)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, "login", statusErr.Op)

	require.NoError(t, c.Login(ctx, LoginRequest{Username: "alice", Password: "secret"}))
	require.Len(t, c.Cookies(), 1)

	st, err = c.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, &UserStatus{Username: "alice", LoggedIn: true}, st)

	require.NoError(t, c.Logout(ctx))
	assert.Empty(t, c.Cookies())

	st, err = c.Status(ctx)
	require.NoError(t, err)
	assert.False(t, st.LoggedIn)
}

func TestSetCookies_RestoresSession(t *testing.T) {
	srv := apitest.New(t, map[string]string{"alice": "secret"})
	ctx := context.Background()

	first, err := New(Options{BaseURL: srv.URL})
	require.NoError(t, err)
	require.NoError(t, first.Login(ctx, LoginRequest{Username: "alice", Password: "secret"}))

	second, err := New(Options{BaseURL: srv.URL})
	require.NoError(t, err)
	second.SetCookies(first.Cookies())

	st, err := second.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, "alice", st.Username)
}

func TestTasks(t *testing.T) {
	srv := apitest.New(t, map[string]string{"alice": "secret"})
	c, err := New(Options{BaseURL: srv.URL})
	require.NoError(t, err)
	ctx := context.Background()

	_, err = c.ListTasks(ctx, ListOptions{})
	require.ErrorIs(t, err, ErrUnauthorized)

	require.NoError(t, c.Login(ctx, LoginRequest{Username: "alice", Password: "secret"}))

	first, err := c.CreateTask(ctx, "water plants")
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, "water plants", first.Text)
	assert.False(t, first.Done)

	second, err := c.CreateTask(ctx, "call bob")
	require.NoError(t, err)

	require.NoError(t, c.SetTaskDone(ctx, first.ID, true))

	list, err := c.ListTasks(ctx, ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, list.Count)
	assert.Equal(t, []Task{
		{ID: first.ID, Text: "water plants", Done: true},
		{ID: second.ID, Text: "call bob"},
	}, list.Tasks)

	page, err := c.ListTasks(ctx, ListOptions{Limit: 1, Page: 1})
	require.NoError(t, err)
	require.Len(t, page.Tasks, 1)
	assert.Equal(t, second.ID, page.Tasks[0].ID)

	require.NoError(t, c.DeleteTask(ctx, first.ID))
	err = c.DeleteTask(ctx, first.ID)
	require.ErrorAs(t, err, new(*StatusError))
	assert.False(t, errors.Is(err, ErrUnauthorized))
}

func TestLogout_AcceptsAny2xx(t *testing.T) {
	for _, code := range []int{http.StatusOK, http.StatusAccepted, http.StatusNoContent} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(code)
		}))
		c, err := New(Options{BaseURL: srv.URL})
		require.NoError(t, err)

		assert.NoError(t, c.Logout(context.Background()), code)
		srv.Close()
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()
	c, err := New(Options{BaseURL: srv.URL})
	require.NoError(t, err)

	err = c.Logout(context.Background())
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusInternalServerError, statusErr.Code)
	assert.Equal(t, "boom", statusErr.Body)
}

func TestTimeout(t *testing.T) {
	srv := apitest.New(t, nil)
	release := srv.Hold(http.MethodGet, "/auth/status")
	defer release()

	c, err := New(Options{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
	require.NoError(t, err)

	_, err = c.Status(context.Background())
	assert.Error(t, err)
}

func TestCookies_CarryServerExpiry(t *testing.T) {
	srv := apitest.New(t, map[string]string{"alice": "secret"})
	ctx := context.Background()

	short, err := New(Options{BaseURL: srv.URL})
	require.NoError(t, err)
	require.NoError(t, short.Login(ctx, LoginRequest{Username: "alice", Password: "secret"}))
	require.Len(t, short.Cookies(), 1)
	assert.True(t, short.Cookies()[0].Expires.IsZero())

	long, err := New(Options{BaseURL: srv.URL})
	require.NoError(t, err)
	require.NoError(t, long.Login(ctx, LoginRequest{Username: "alice", Password: "secret", SessionRenew: true}))
	cookies := long.Cookies()
	require.Len(t, cookies, 1)
	assert.WithinDuration(t, time.Now().Add(30*24*time.Hour), cookies[0].Expires, time.Minute)

	// a restored cookie keeps its expiry
	restored, err := New(Options{BaseURL: srv.URL})
	require.NoError(t, err)
	restored.SetCookies(cookies)
	require.Len(t, restored.Cookies(), 1)
	assert.True(t, cookies[0].Expires.Equal(restored.Cookies()[0].Expires))

	require.NoError(t, long.Logout(ctx))
	assert.Empty(t, long.Cookies())
}
