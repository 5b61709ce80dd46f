package session

// State is a point-in-time view of the session. Empty tokens mean absent.
// IsAuthenticated implies AccessToken is set.
type State struct {
	AccessToken     string
	RefreshToken    string
	IsAuthenticated bool
	Loading         bool
}

func initialState() State {
	return State{Loading: true}
}

func authenticated(access, refresh string) State {
	return State{AccessToken: access, RefreshToken: refresh, IsAuthenticated: true}
}
