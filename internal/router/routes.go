package router

import (
	"net/url"
	"strings"
)

// Route names
const (
	Landing  = "landing"
	Home     = "home"
	Login    = "login"
	NotFound = "NotFound"
)

// Meta holds the access flags of a route
type Meta struct {
	// RequiresAuth routes are only reachable with a live session
	RequiresAuth bool
	// HideFromAuth routes are only reachable without one
	HideFromAuth bool
}

// Route is a navigable screen
type Route struct {
	Name string
	Path string
	Meta Meta
}

// DefaultRoutes is the route surface of the app
var DefaultRoutes = []Route{
	{Name: Landing, Path: "/"},
	{Name: Home, Path: "/app", Meta: Meta{RequiresAuth: true}},
	{Name: Login, Path: "/login", Meta: Meta{HideFromAuth: true}},
}

// DefaultFallback catches every path no route matches
var DefaultFallback = Route{Name: NotFound}

// Table resolves paths and names to routes
type Table struct {
	routes   []Route
	byName   map[string]Route
	fallback Route
}

// NewTable builds a table; fallback is returned for unknown paths
func NewTable(routes []Route, fallback Route) *Table {
	t := &Table{
		routes:   routes,
		byName:   make(map[string]Route, len(routes)+1),
		fallback: fallback,
	}
	for _, r := range routes {
		t.byName[r.Name] = r
	}
	t.byName[fallback.Name] = fallback
	return t
}

// DefaultTable returns the table of DefaultRoutes
func DefaultTable() *Table {
	return NewTable(DefaultRoutes, DefaultFallback)
}

// Match returns the route for path, ignoring query, fragment and trailing slashes
func (t *Table) Match(path string) Route {
	clean := normalize(path)
	for _, r := range t.routes {
		if r.Path == clean {
			return r
		}
	}
	nf := t.fallback
	nf.Path = clean
	return nf
}

// ByName looks a route up by name
func (t *Table) ByName(name string) (Route, bool) {
	r, ok := t.byName[name]
	return r, ok
}

// Routes returns the named routes in declaration order
func (t *Table) Routes() []Route {
	out := make([]Route, len(t.routes))
	copy(out, t.routes)
	return out
}

func normalize(path string) string {
	if u, err := url.Parse(path); err == nil {
		path = u.Path
	}
	path = "/" + strings.Trim(path, "/")
	return path
}
