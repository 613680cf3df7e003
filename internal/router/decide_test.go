package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecide(t *testing.T) {
	tests := []struct {
		name     string
		loggedIn bool
		meta     Meta
		want     Decision
	}{
		{"requires auth, anonymous", false, Meta{RequiresAuth: true}, RedirectTo(Login)},
		{"requires auth, logged in", true, Meta{RequiresAuth: true}, Allow},
		{"hidden from auth, logged in", true, Meta{HideFromAuth: true}, RedirectTo(Home)},
		{"hidden from auth, anonymous", false, Meta{HideFromAuth: true}, Allow},
		{"public, anonymous", false, Meta{}, Allow},
		{"public, logged in", true, Meta{}, Allow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(tt.loggedIn, tt.meta))
		})
	}
}

func TestDecide_AccessRulesHoldForEveryRoute(t *testing.T) {
	table := DefaultTable()
	for _, r := range append(table.Routes(), DefaultFallback) {
		for _, loggedIn := range []bool{false, true} {
			d := Decide(loggedIn, r.Meta)
			if r.Meta.RequiresAuth && !loggedIn {
				assert.Equal(t, RedirectTo(Login), d, "route %s", r.Name)
			}
			if r.Meta.HideFromAuth && loggedIn {
				assert.Equal(t, RedirectTo(Home), d, "route %s", r.Name)
			}
			if !d.Allowed() {
				target, ok := table.ByName(d.Redirect)
				assert.True(t, ok, "redirect target %s exists", d.Redirect)
				assert.True(t, Decide(loggedIn, target.Meta).Allowed(), "redirect target %s is reachable", d.Redirect)
			}
		}
	}
}

func TestDecision_String(t *testing.T) {
	assert.Equal(t, "allow", Allow.String())
	assert.Equal(t, "redirect:login", RedirectTo(Login).String())
}

func TestTable_Match(t *testing.T) {
	table := DefaultTable()

	tests := map[string]string{
		"/":                Landing,
		"":                 Landing,
		"/app":             Home,
		"/app/":            Home,
		"app":              Home,
		"/login?next=/app": Login,
		"/login#top":       Login,
		"/nowhere":         NotFound,
		"/app/extra":       NotFound,
	}
	for path, want := range tests {
		assert.Equal(t, want, table.Match(path).Name, "path %q", path)
	}

	assert.Equal(t, "/nowhere", table.Match("/nowhere/").Path)
}

func TestTable_ByName(t *testing.T) {
	table := DefaultTable()

	r, ok := table.ByName(Home)
	assert.True(t, ok)
	assert.Equal(t, "/app", r.Path)
	assert.True(t, r.Meta.RequiresAuth)

	_, ok = table.ByName(NotFound)
	assert.True(t, ok)

	_, ok = table.ByName("settings")
	assert.False(t, ok)
}
