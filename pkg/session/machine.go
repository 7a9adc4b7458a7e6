package session

// Phase is the Manager's position in the session lifecycle.
type Phase string

const (
	PhaseNoSession     Phase = "no_session"
	PhaseResolving     Phase = "resolving"
	PhaseAuthenticated Phase = "authenticated"
)

func (p Phase) String() string { return string(p) }

// Resolution maps the phase onto the resolution state.
func (p Phase) Resolution() ResolutionState {
	switch p {
	case PhaseResolving:
		return ResolutionPending
	case PhaseAuthenticated:
		return ResolutionResolved
	default:
		return ResolutionAbsent
	}
}

// ResolutionState tells whether the identity is known, being fetched or absent.
type ResolutionState string

const (
	ResolutionAbsent   ResolutionState = "absent"
	ResolutionPending  ResolutionState = "pending"
	ResolutionResolved ResolutionState = "resolved"
)

// Event triggers a phase transition.
type Event string

const (
	EventLoginSucceeded  Event = "login_succeeded"
	EventCredentialFound Event = "credential_found"
	EventProfileResolved Event = "profile_resolved"
	EventProfileFailed   Event = "profile_failed"
	EventProfileUpdated  Event = "profile_updated"
	EventLoggedOut       Event = "logged_out"
)

var transitions = map[Phase]map[Event]Phase{
	PhaseNoSession: {
		EventLoginSucceeded:  PhaseAuthenticated,
		EventCredentialFound: PhaseResolving,
		EventLoggedOut:       PhaseNoSession,
	},
	PhaseResolving: {
		EventProfileResolved: PhaseAuthenticated,
		EventProfileFailed:   PhaseNoSession,
		EventProfileUpdated:  PhaseAuthenticated,
		EventLoginSucceeded:  PhaseAuthenticated,
		EventCredentialFound: PhaseResolving,
		EventLoggedOut:       PhaseNoSession,
	},
	PhaseAuthenticated: {
		EventProfileResolved: PhaseAuthenticated,
		EventProfileFailed:   PhaseNoSession,
		EventProfileUpdated:  PhaseAuthenticated,
		EventLoginSucceeded:  PhaseAuthenticated,
		EventCredentialFound: PhaseResolving,
		EventLoggedOut:       PhaseNoSession,
	},
}

// Next returns the phase reached from from on ev.
func Next(from Phase, ev Event) (Phase, error) {
	if to, ok := transitions[from][ev]; ok {
		return to, nil
	}
	return from, &ErrNoTransition{From: from, Event: ev}
}

// CanFire reports whether ev is valid in phase from.
func CanFire(from Phase, ev Event) bool {
	_, ok := transitions[from][ev]
	return ok
}
