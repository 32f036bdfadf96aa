package domain

// SessionPhase is the state of the session lifecycle.
type SessionPhase string

const (
	PhaseUnauthenticated SessionPhase = "UNAUTHENTICATED"
	PhaseAuthenticating  SessionPhase = "AUTHENTICATING"
	PhaseAuthenticated   SessionPhase = "AUTHENTICATED"
	PhaseRefreshing      SessionPhase = "REFRESHING"
)

func (p SessionPhase) String() string { return string(p) }

func (p SessionPhase) IsValid() bool {
	switch p {
	case PhaseUnauthenticated, PhaseAuthenticating, PhaseAuthenticated, PhaseRefreshing:
		return true
	}
	return false
}

// SessionState is the observable view of the current session.
// User is nil when the profile is unknown, including for an authenticated
// session whose profile fetch has not succeeded yet.
type SessionState struct {
	Phase           SessionPhase
	User            *UserProfile
	IsAuthenticated bool
	IsLoading       bool
	Error           string
}

// Clone returns a copy that does not share the profile pointer.
func (s SessionState) Clone() SessionState {
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}
