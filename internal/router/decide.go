package router

// Decision is the outcome of guarding a transition
type Decision struct {
	// Redirect names the route to go to instead; empty means allow
	Redirect string
}

// Allow lets the transition through
var Allow = Decision{}

// RedirectTo sends the transition to the named route
func RedirectTo(name string) Decision {
	return Decision{Redirect: name}
}

// Allowed reports whether the transition may continue to its target
func (d Decision) Allowed() bool {
	return d.Redirect == ""
}

func (d Decision) String() string {
	if d.Allowed() {
		return "allow"
	}
	return "redirect:" + d.Redirect
}

// Decide applies the access rules of meta to a session that is loggedIn or not.
// It has no side effects.
func Decide(loggedIn bool, meta Meta) Decision {
	switch {
	case meta.RequiresAuth:
		if !loggedIn {
			return RedirectTo(Login)
		}
		return Allow
	case meta.HideFromAuth:
		if loggedIn {
			return RedirectTo(Home)
		}
		return Allow
	default:
		return Allow
	}
}
