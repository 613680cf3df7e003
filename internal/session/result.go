package session

// LoginOutcome classifies how a login attempt ended
type LoginOutcome int

const (
	// LoginSucceeded means the server accepted the credentials
	LoginSucceeded LoginOutcome = iota + 1
	// LoginRejected means the server answered 401
	LoginRejected
	// LoginFailed covers transport errors and unexpected status codes
	LoginFailed
)

func (o LoginOutcome) String() string {
	switch o {
	case LoginSucceeded:
		return "succeeded"
	case LoginRejected:
		return "rejected"
	case LoginFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// LoginResult is returned by Store.Login
type LoginResult struct {
	Outcome LoginOutcome
	// User is set on success
	User string
	Err  error
}

// OK reports whether the login succeeded
func (r LoginResult) OK() bool {
	return r.Outcome == LoginSucceeded
}

// LogoutResult is returned by Store.Logout
type LogoutResult struct {
	Err error
}

// OK reports whether the server confirmed the logout
func (r LogoutResult) OK() bool {
	return r.Err == nil
}

// StatusResult is returned by Store.CheckStatus. On failure LoggedIn and
// User carry the unchanged state and Err is set.
type StatusResult struct {
	LoggedIn bool
	User     string
	Err      error
}
